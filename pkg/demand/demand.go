// Package demand implements NEC Article 220 residential load
// calculations: connected and demand VA, service sizing, neutral load,
// and panel-schedule generation, for single- and multi-family dwellings.
// Every entry point is a pure function over a fully-formed input; the
// same input always yields identical figures.
package demand

import (
	"fmt"
	"math"

	"github.com/panelwise/panelwright/pkg/conductor"
	"github.com/panelwise/panelwright/pkg/model"
)

// Load categories used in breakdowns and the neutral allowlist.
const (
	CategoryGeneral     = "general"
	CategoryRange       = "range"
	CategoryDryer       = "dryer"
	CategoryWaterHeater = "water_heater"
	CategoryHVAC        = "hvac"
	CategoryDishwasher  = "dishwasher"
	CategoryDisposal    = "disposal"
	CategoryEVCharger   = "ev_charger"
	CategoryPool        = "pool"
	CategorySpa         = "spa"
	CategoryWellPump    = "well_pump"
	CategoryOther       = "other"
	CategoryUnits       = "dwelling_units"
	CategoryHouse       = "house_panel"
)

// neutralCategories is the hand-maintained list of categories whose loads
// carry neutral current. 240V-only loads are excluded; unclassified
// "other" loads count toward neutral as the conservative fallback.
var neutralCategories = map[string]bool{
	CategoryGeneral:    true,
	CategoryDishwasher: true,
	CategoryDisposal:   true,
	CategoryOther:      true,
}

// General load constants, NEC 220.41/220.52.
const (
	lightingVAPerSqFt      = 3.0
	smallApplianceVA       = 1500.0
	laundryVA              = 1500.0
	minSmallApplianceCount = 2
)

// Tiered general demand, NEC Table 220.45: first 3 kVA at 100%, the next
// up to 120 kVA at 35%, the remainder at 25%. Tiers consume cumulatively
// from the running total.
const (
	tier1LimitVA  = 3000.0
	tier2LimitVA  = 120000.0
	tier2Factor   = 0.35
	tier3Factor   = 0.25
	neutralCapAmp = 200.0 // NEC 220.61(B) 100% threshold
	neutralFactor = 0.70
)

// LoadBreakdown is one line of the calculation report.
type LoadBreakdown struct {
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	ConnectedVA  float64 `json:"connectedVA"`
	DemandFactor float64 `json:"demandFactor"`
	DemandVA     float64 `json:"demandVA"`
	NECReference string  `json:"necReference"`
}

// ResidentialLoadResult is the complete output of a load calculation.
type ResidentialLoadResult struct {
	TotalConnectedVA       float64         `json:"totalConnectedVA"`
	TotalDemandVA          float64         `json:"totalDemandVA"`
	DemandFactor           float64         `json:"demandFactor"`
	ServiceAmps            float64         `json:"serviceAmps"`
	RecommendedServiceSize int             `json:"recommendedServiceSize"`
	NeutralLoadVA          float64         `json:"neutralLoadVA"`
	NeutralAmps            float64         `json:"neutralAmps"`
	NeutralReduction       float64         `json:"neutralReduction"`
	ServiceConductorSize   string          `json:"serviceConductorSize"`
	NeutralConductorSize   string          `json:"neutralConductorSize"`
	GECSize                string          `json:"gecSize"`
	Breakdown              []LoadBreakdown `json:"breakdown"`
	NECReferences          []string        `json:"necReferences"`
	Warnings               []string        `json:"warnings,omitempty"`
}

// SingleFamilyInput is the fully-defaulted input for one dwelling.
type SingleFamilyInput struct {
	SquareFootage          float64
	SmallApplianceCircuits int
	LaundryCircuit         bool
	ServiceVoltage         int
	Appliances             model.ApplianceConfiguration
}

// CalculateSingleFamily runs the NEC 220 Part III calculation for a
// single dwelling unit.
func CalculateSingleFamily(in SingleFamilyInput) (*ResidentialLoadResult, error) {
	if in.SquareFootage <= 0 {
		return nil, &model.ValidationError{Field: "squareFootage", Reason: "must be positive"}
	}
	if in.ServiceVoltage <= 0 {
		return nil, &model.ValidationError{Field: "serviceVoltage", Reason: "must be positive"}
	}
	if err := in.Appliances.Validate(); err != nil {
		return nil, err
	}

	rows := []LoadBreakdown{generalLoadRow(in.SquareFootage, in.SmallApplianceCircuits, in.LaundryCircuit)}
	rows = append(rows, applianceRows(in.Appliances)...)

	res := summarize(rows, in.ServiceVoltage)
	res.RecommendedServiceSize = RecommendedServiceSize(res.ServiceAmps)
	fillConductors(res)
	return res, nil
}

// generalLoadRow computes the tiered general load: lighting by floor
// area, small-appliance circuits, and the laundry circuit.
func generalLoadRow(sqft float64, smallApplianceCircuits int, laundry bool) LoadBreakdown {
	count := smallApplianceCircuits
	if count < minSmallApplianceCount {
		count = minSmallApplianceCount
	}
	connected := sqft*lightingVAPerSqFt + float64(count)*smallApplianceVA
	if laundry {
		connected += laundryVA
	}
	demand := TieredGeneralDemand(connected)
	return LoadBreakdown{
		Category:     CategoryGeneral,
		Description:  fmt.Sprintf("General lighting %.0f sq ft, %d small-appliance circuits", sqft, count),
		ConnectedVA:  connected,
		DemandFactor: factorOf(connected, demand),
		DemandVA:     demand,
		NECReference: "NEC 220.41, 220.52, Table 220.45",
	}
}

// TieredGeneralDemand applies the cumulative general-load demand table.
func TieredGeneralDemand(connectedVA float64) float64 {
	if connectedVA <= tier1LimitVA {
		return connectedVA
	}
	demand := tier1LimitVA
	remaining := connectedVA - tier1LimitVA

	tier2Span := tier2LimitVA - tier1LimitVA
	if remaining <= tier2Span {
		return demand + remaining*tier2Factor
	}
	demand += tier2Span * tier2Factor
	remaining -= tier2Span

	return demand + remaining*tier3Factor
}

// summarize folds breakdown rows into totals, service amperage, and the
// 220.61(B) neutral figures.
func summarize(rows []LoadBreakdown, serviceVoltage int) *ResidentialLoadResult {
	res := &ResidentialLoadResult{Breakdown: rows}

	var rawNeutralVA float64
	seenRefs := make(map[string]bool)
	for _, r := range rows {
		res.TotalConnectedVA += r.ConnectedVA
		res.TotalDemandVA += r.DemandVA
		if neutralCategories[r.Category] {
			rawNeutralVA += r.DemandVA
		}
		if r.NECReference != "" && !seenRefs[r.NECReference] {
			seenRefs[r.NECReference] = true
			res.NECReferences = append(res.NECReferences, r.NECReference)
		}
	}

	res.DemandFactor = factorOf(res.TotalConnectedVA, res.TotalDemandVA)
	res.ServiceAmps = res.TotalDemandVA / float64(serviceVoltage)

	// NEC 220.61(B): the first 200A of neutral current at 100%, the
	// excess reduced to 70%.
	capVA := neutralCapAmp * float64(serviceVoltage)
	reducedVA := rawNeutralVA
	if rawNeutralVA > capVA {
		reducedVA = capVA + (rawNeutralVA-capVA)*neutralFactor
	}
	res.NeutralLoadVA = reducedVA
	res.NeutralAmps = reducedVA / float64(serviceVoltage)
	res.NeutralReduction = rawNeutralVA - reducedVA
	if res.NeutralReduction > 0 {
		res.NECReferences = append(res.NECReferences, "NEC 220.61(B)")
	}

	return res
}

// RecommendedServiceSize maps computed amperage to a standard service
// size using the 80% continuous-load thresholds.
func RecommendedServiceSize(amps float64) int {
	switch {
	case amps <= 80:
		return 100
	case amps <= 120:
		return 150
	case amps <= 160:
		return 200
	default:
		return 400
	}
}

// fillConductors attaches copper conductor and GEC recommendations for
// the recommended service size.
func fillConductors(res *ResidentialLoadResult) {
	rec := conductor.Recommend(float64(res.RecommendedServiceSize), conductor.Copper)
	res.ServiceConductorSize = rec.ServiceConductorSize
	res.NeutralConductorSize = rec.NeutralConductorSize
	res.GECSize = rec.GECSize
}

func factorOf(connected, demand float64) float64 {
	if connected == 0 {
		return 1
	}
	return roundTo(demand/connected, 4)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
