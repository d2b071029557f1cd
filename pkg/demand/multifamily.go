package demand

import (
	"fmt"

	"github.com/panelwise/panelwright/pkg/model"
)

// MultiFamilyInput aggregates dwelling-unit templates plus common-area
// (house) load for an NEC 220.84 calculation.
type MultiFamilyInput struct {
	ServiceVoltage   int
	UnitTemplates    []model.DwellingUnitTemplate
	HousePanelLoadVA float64
}

// multiFamilyFactors is the NEC 220.84 demand-factor breakpoint table.
// Lookup takes the largest breakpoint not exceeding the unit count;
// two units or fewer take no reduction.
var multiFamilyFactors = []struct {
	minUnits int
	factor   float64
}{
	{3, 0.45},
	{4, 0.44},
	{5, 0.43},
	{6, 0.42},
	{7, 0.41},
	{8, 0.40},
	{9, 0.39},
	{10, 0.38},
	{12, 0.37},
	{15, 0.36},
	{18, 0.35},
	{21, 0.34},
	{25, 0.33},
	{40, 0.32},
}

// MultiFamilyFactor looks up the 220.84 demand factor for a total
// dwelling-unit count.
func MultiFamilyFactor(units int) float64 {
	if units <= 2 {
		return 1.0
	}
	factor := multiFamilyFactors[0].factor
	for _, bp := range multiFamilyFactors {
		if units >= bp.minUnits {
			factor = bp.factor
		}
	}
	return factor
}

// CalculateMultiFamily runs the per-template single-family calculation
// (two small-appliance circuits and a mandatory laundry circuit per
// unit), scales by unit count, applies the 220.84 factor across all
// units, then adds the house panel load at 100% after the factor.
func CalculateMultiFamily(in MultiFamilyInput) (*ResidentialLoadResult, error) {
	if in.ServiceVoltage <= 0 {
		return nil, &model.ValidationError{Field: "serviceVoltage", Reason: "must be positive"}
	}
	if len(in.UnitTemplates) == 0 {
		return nil, &model.ValidationError{Field: "unitTemplates", Reason: "at least one template required"}
	}
	if in.HousePanelLoadVA < 0 {
		return nil, &model.ValidationError{Field: "housePanelLoadVA", Reason: "negative load"}
	}

	totalUnits := 0
	var unitsConnectedVA, unitsDemandVA float64
	var rows []LoadBreakdown

	for i := range in.UnitTemplates {
		tpl := &in.UnitTemplates[i]
		if err := tpl.Validate(); err != nil {
			return nil, err
		}

		unit, err := CalculateSingleFamily(SingleFamilyInput{
			SquareFootage:          tpl.SquareFootage,
			SmallApplianceCircuits: minSmallApplianceCount,
			LaundryCircuit:         true,
			ServiceVoltage:         in.ServiceVoltage,
			Appliances:             tpl.Appliances,
		})
		if err != nil {
			return nil, err
		}

		totalUnits += tpl.UnitCount
		unitsConnectedVA += unit.TotalConnectedVA * float64(tpl.UnitCount)
		unitsDemandVA += unit.TotalDemandVA * float64(tpl.UnitCount)

		name := tpl.Name
		if name == "" {
			name = fmt.Sprintf("Unit type %d", i+1)
		}
		rows = append(rows, LoadBreakdown{
			Category: CategoryUnits,
			Description: fmt.Sprintf("%s: %d units x %.0f sq ft @ %.0f VA demand each",
				name, tpl.UnitCount, tpl.SquareFootage, unit.TotalDemandVA),
			ConnectedVA:  unit.TotalConnectedVA * float64(tpl.UnitCount),
			DemandFactor: factorOf(unit.TotalConnectedVA, unit.TotalDemandVA),
			DemandVA:     unit.TotalDemandVA * float64(tpl.UnitCount),
			NECReference: "NEC 220.84",
		})
	}

	factor := MultiFamilyFactor(totalUnits)
	factored := unitsDemandVA * factor

	res := &ResidentialLoadResult{
		TotalConnectedVA: unitsConnectedVA + in.HousePanelLoadVA,
		TotalDemandVA:    factored + in.HousePanelLoadVA,
		Breakdown:        rows,
		NECReferences:    []string{"NEC 220.84"},
	}

	res.Breakdown = append(res.Breakdown, LoadBreakdown{
		Category: CategoryUnits,
		Description: fmt.Sprintf("220.84 demand factor for %d dwelling units",
			totalUnits),
		ConnectedVA:  unitsDemandVA,
		DemandFactor: factor,
		DemandVA:     factored,
		NECReference: "NEC Table 220.84",
	})

	if in.HousePanelLoadVA > 0 {
		// Common areas never take the per-unit reduction.
		res.Breakdown = append(res.Breakdown, LoadBreakdown{
			Category:     CategoryHouse,
			Description:  "House panel (common areas) at 100%",
			ConnectedVA:  in.HousePanelLoadVA,
			DemandFactor: 1,
			DemandVA:     in.HousePanelLoadVA,
			NECReference: "NEC 220.84(B)",
		})
	}

	res.DemandFactor = factorOf(res.TotalConnectedVA, res.TotalDemandVA)
	res.ServiceAmps = res.TotalDemandVA / float64(in.ServiceVoltage)
	res.RecommendedServiceSize = RecommendedServiceSize(res.ServiceAmps)
	fillConductors(res)

	if totalUnits < 3 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("NEC 220.84 requires at least 3 dwelling units; %d provided, no demand factor applied", totalUnits))
	}

	return res, nil
}
