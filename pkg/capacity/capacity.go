// Package capacity evaluates how loaded a panel or service is and
// whether proposed additional load fits, using the 80% continuous-load
// rule of thumb for residential services.
package capacity

import (
	"fmt"
	"math"

	"github.com/panelwise/panelwright/pkg/model"
)

// Utilization thresholds.
const (
	continuousLoadLimit = 80.0  // percent
	overloadLimit       = 100.0 // percent
)

// standardServiceSizes is the ladder of standard residential service
// ratings considered for upgrades.
var standardServiceSizes = []int{100, 125, 150, 200, 225, 320, 400, 600, 800, 1000, 1200}

// PanelStatus summarizes a panel's loading.
type PanelStatus string

const (
	StatusOK         PanelStatus = "OK"
	StatusWarning    PanelStatus = "WARNING"
	StatusOverloaded PanelStatus = "OVERLOADED"
)

// PanelUtilization is the loading picture for one panel.
type PanelUtilization struct {
	PanelID            string      `json:"panelId"`
	PanelName          string      `json:"panelName"`
	BusRatingAmps      int         `json:"busRatingAmps"`
	CapacityVA         float64     `json:"capacityVA"`
	CurrentLoadVA      float64     `json:"currentLoadVA"`
	CurrentLoadAmps    float64     `json:"currentLoadAmps"`
	AvailableAmps      float64     `json:"availableAmps"`
	UtilizationPercent float64     `json:"utilizationPercent"`
	SpacesUsed         int         `json:"spacesUsed"`
	CircuitCount       int         `json:"circuitCount"`
	CanAddLoad         bool        `json:"canAddLoad"`
	Status             PanelStatus `json:"status"`
}

// ForPanel computes utilization of one panel from its circuits.
// Three-phase capacity uses the sqrt(3) line factor.
func ForPanel(panel model.Panel, circuits []model.Circuit) PanelUtilization {
	capacityVA := float64(panel.BusRatingAmps) * float64(panel.Voltage)
	if panel.PhaseCount == 3 {
		capacityVA *= math.Sqrt(3)
	}

	var loadVA float64
	spaces := 0
	for _, c := range circuits {
		loadVA += c.LoadVA
		spaces += c.PoleCount
	}

	loadAmps := 0.0
	if panel.Voltage > 0 {
		loadAmps = loadVA / float64(panel.Voltage)
	}
	pct := 0.0
	if capacityVA > 0 {
		pct = loadVA / capacityVA * 100
	}

	status := StatusOK
	switch {
	case pct >= overloadLimit:
		status = StatusOverloaded
	case pct >= continuousLoadLimit:
		status = StatusWarning
	}

	return PanelUtilization{
		PanelID:            panel.ID,
		PanelName:          panel.Name,
		BusRatingAmps:      panel.BusRatingAmps,
		CapacityVA:         capacityVA,
		CurrentLoadVA:      loadVA,
		CurrentLoadAmps:    round1(loadAmps),
		AvailableAmps:      round1(float64(panel.BusRatingAmps) - loadAmps),
		UtilizationPercent: round1(pct),
		SpacesUsed:         spaces,
		CircuitCount:       len(circuits),
		CanAddLoad:         pct < continuousLoadLimit,
		Status:             status,
	}
}

// ServiceCheck is the answer to "can the service absorb this change".
type ServiceCheck struct {
	CanProceed             bool    `json:"canProceed"`
	RequiresServiceUpgrade bool    `json:"requiresServiceUpgrade"`
	Warning                bool    `json:"warning"`
	ServiceSizeAmps        int     `json:"serviceSizeAmps"`
	CurrentLoadAmps        float64 `json:"currentLoadAmps"`
	AdditionalAmps         float64 `json:"additionalAmps"`
	NewTotalAmps           float64 `json:"newTotalAmps"`
	RemainingAmps          float64 `json:"remainingAmps"`
	NewUtilizationPercent  float64 `json:"newUtilizationPercent"`
	RecommendedUpgrade     int     `json:"recommendedUpgrade,omitempty"`
	Verdict                string  `json:"verdict"`
}

// CheckService evaluates additional load against an existing service.
func CheckService(service model.ServiceEntrance, serviceSizeAmps int, currentLoadVA, additionalAmps float64) ServiceCheck {
	capacityVA := float64(serviceSizeAmps) * float64(service.Voltage)
	if service.PhaseCount == 3 {
		capacityVA *= math.Sqrt(3)
	}

	currentAmps := currentLoadVA / float64(service.Voltage)
	newTotalVA := currentLoadVA + additionalAmps*float64(service.Voltage)
	newTotalAmps := currentAmps + additionalAmps

	pct := 0.0
	if capacityVA > 0 {
		pct = newTotalVA / capacityVA * 100
	}
	remaining := float64(serviceSizeAmps) - newTotalAmps

	check := ServiceCheck{
		CanProceed:             pct <= continuousLoadLimit,
		RequiresServiceUpgrade: pct > overloadLimit,
		Warning:                pct > continuousLoadLimit && pct <= overloadLimit,
		ServiceSizeAmps:        serviceSizeAmps,
		CurrentLoadAmps:        round1(currentAmps),
		AdditionalAmps:         additionalAmps,
		NewTotalAmps:           round1(newTotalAmps),
		RemainingAmps:          round1(remaining),
		NewUtilizationPercent:  round1(pct),
	}
	if check.RequiresServiceUpgrade {
		check.RecommendedUpgrade = UpgradeSize(newTotalAmps)
	}
	check.Verdict = verdict(pct, remaining)
	return check
}

// UpgradeSize returns the smallest standard service that keeps the given
// load at or under 80% utilization.
func UpgradeSize(requiredAmps float64) int {
	needed := requiredAmps / (continuousLoadLimit / 100)
	for _, size := range standardServiceSizes {
		if float64(size) >= needed {
			return size
		}
	}
	return standardServiceSizes[len(standardServiceSizes)-1]
}

func verdict(pct, remaining float64) string {
	switch {
	case pct > overloadLimit:
		return fmt.Sprintf("REJECT - service overloaded by %.0fA; service upgrade required", math.Abs(remaining))
	case pct > continuousLoadLimit:
		return fmt.Sprintf("WARNING - service at %.0f%% utilization with %.0fA margin; consider an upgrade", pct, remaining)
	case pct > 60:
		return fmt.Sprintf("APPROVE WITH CAUTION - service at %.0f%% utilization, %.0fA remaining", pct, remaining)
	default:
		return fmt.Sprintf("APPROVE - adequate capacity, %.0fA remaining", remaining)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
