package demand

import (
	"fmt"

	"github.com/panelwise/panelwright/pkg/model"
)

// Appliance demand constants.
const (
	rangeDemandFloorVA = 8000.0
	rangeDemandFactor  = 0.8
	rangeFullDemandKW  = 12.0
	dryerMinVA         = 5000.0
	vaPerHP            = 1000.0 // simplified HP to VA conversion
)

// applianceRows converts an appliance configuration into breakdown rows.
// Disabled slots and gas-fueled appliances contribute nothing.
func applianceRows(a model.ApplianceConfiguration) []LoadBreakdown {
	var rows []LoadBreakdown

	if a.Range.Enabled && a.Range.Fuel != model.FuelGas {
		connected := a.Range.KW * 1000
		demand := RangeDemandVA(a.Range.KW)
		rows = append(rows, LoadBreakdown{
			Category:     CategoryRange,
			Description:  fmt.Sprintf("Electric range %.1f kW", a.Range.KW),
			ConnectedVA:  connected,
			DemandFactor: factorOf(connected, demand),
			DemandVA:     demand,
			NECReference: "NEC Table 220.55",
		})
	}

	if a.Dryer.Enabled && a.Dryer.Fuel != model.FuelGas {
		connected := a.Dryer.KW * 1000
		demand := DryerDemandVA(a.Dryer.KW)
		rows = append(rows, LoadBreakdown{
			Category:     CategoryDryer,
			Description:  fmt.Sprintf("Electric dryer %.1f kW", a.Dryer.KW),
			ConnectedVA:  connected,
			DemandFactor: factorOf(connected, demand),
			DemandVA:     demand,
			NECReference: "NEC 220.54",
		})
	}

	if a.WaterHeater.Enabled && a.WaterHeater.Fuel != model.FuelGas {
		va := a.WaterHeater.KW * 1000
		rows = append(rows, LoadBreakdown{
			Category:     CategoryWaterHeater,
			Description:  fmt.Sprintf("Water heater %.1f kW", a.WaterHeater.KW),
			ConnectedVA:  va,
			DemandFactor: 1,
			DemandVA:     va,
			NECReference: "NEC 422.13",
		})
	}

	if a.HVAC.Enabled {
		cooling, heating, demand := HVACDemandVA(a.HVAC)
		connected := cooling + heating
		rows = append(rows, LoadBreakdown{
			Category: CategoryHVAC,
			Description: fmt.Sprintf("HVAC cooling %.1f kW / heating %.1f kW (larger governs)",
				a.HVAC.CoolingKW, a.HVAC.HeatingKW),
			ConnectedVA:  connected,
			DemandFactor: factorOf(connected, demand),
			DemandVA:     demand,
			NECReference: "NEC 220.60",
		})
	}

	rows = append(rows, fixedRow(a.Dishwasher, CategoryDishwasher, "Dishwasher")...)
	rows = append(rows, fixedRow(a.Disposal, CategoryDisposal, "Garbage disposal")...)
	rows = append(rows, fixedRow(a.EVCharger, CategoryEVCharger, "EV charger")...)
	rows = append(rows, motorRow(a.PoolPump, CategoryPool, "Pool pump")...)
	rows = append(rows, fixedRow(a.PoolHeater, CategoryPool, "Pool heater")...)
	rows = append(rows, fixedRow(a.HotTub, CategorySpa, "Hot tub")...)
	rows = append(rows, motorRow(a.WellPump, CategoryWellPump, "Well pump")...)

	for _, o := range a.Other {
		if !o.Enabled {
			continue
		}
		va := o.KW * 1000
		name := o.Name
		if name == "" {
			name = "Other load"
		}
		rows = append(rows, LoadBreakdown{
			Category:     CategoryOther,
			Description:  fmt.Sprintf("%s %.1f kW", name, o.KW),
			ConnectedVA:  va,
			DemandFactor: 1,
			DemandVA:     va,
			NECReference: "NEC 220.14",
		})
	}

	return rows
}

// RangeDemandVA applies the simplified single-unit case of NEC Table
// 220.55: up to 12 kW demand is max(8 kVA, 80% of nameplate); above
// 12 kW the connected load is taken at 100%.
func RangeDemandVA(kw float64) float64 {
	connected := kw * 1000
	if kw > rangeFullDemandKW {
		return connected
	}
	demand := connected * rangeDemandFactor
	if demand < rangeDemandFloorVA {
		return rangeDemandFloorVA
	}
	return demand
}

// DryerDemandVA is nameplate at 100% with the NEC 220.54 5 kVA floor.
func DryerDemandVA(kw float64) float64 {
	va := kw * 1000
	if va < dryerMinVA {
		return dryerMinVA
	}
	return va
}

// HVACDemandVA applies the non-coincident load rule: heating and cooling
// never run together, so only the larger contributes. Heating counts
// only when the heat source is electric (resistance or heat pump).
func HVACDemandVA(h model.HVACAppliance) (coolingVA, heatingVA, demandVA float64) {
	coolingVA = h.CoolingKW * 1000
	if h.Heat == model.HeatElectric || h.Heat == model.HeatPump {
		heatingVA = h.HeatingKW * 1000
	}
	demandVA = coolingVA
	if heatingVA > demandVA {
		demandVA = heatingVA
	}
	return coolingVA, heatingVA, demandVA
}

func fixedRow(a model.FixedAppliance, category, name string) []LoadBreakdown {
	if !a.Enabled {
		return nil
	}
	va := a.KW * 1000
	return []LoadBreakdown{{
		Category:     category,
		Description:  fmt.Sprintf("%s %.1f kW", name, a.KW),
		ConnectedVA:  va,
		DemandFactor: 1,
		DemandVA:     va,
		NECReference: "NEC 220.14",
	}}
}

func motorRow(a model.MotorAppliance, category, name string) []LoadBreakdown {
	if !a.Enabled {
		return nil
	}
	va := a.HP * vaPerHP
	return []LoadBreakdown{{
		Category:     category,
		Description:  fmt.Sprintf("%s %.1f HP", name, a.HP),
		ConnectedVA:  va,
		DemandFactor: 1,
		DemandVA:     va,
		NECReference: "NEC 430.22",
	}}
}
