package model

import "fmt"

// FuelType distinguishes electric appliances, which contribute load, from
// gas ones, which do not.
type FuelType string

const (
	FuelElectric FuelType = "electric"
	FuelGas      FuelType = "gas"
)

// HeatSource identifies the heating side of an HVAC system.
type HeatSource string

const (
	HeatPump       HeatSource = "heat_pump"
	HeatElectric   HeatSource = "electric"
	HeatGasFurnace HeatSource = "gas"
)

// RangeAppliance is the cooking range slot. Disabled is a first-class
// state: a zero-value RangeAppliance contributes nothing.
type RangeAppliance struct {
	Enabled bool     `json:"enabled"`
	KW      float64  `json:"kw"`
	Fuel    FuelType `json:"fuel"`
}

// DryerAppliance is the clothes dryer slot.
type DryerAppliance struct {
	Enabled bool     `json:"enabled"`
	KW      float64  `json:"kw"`
	Fuel    FuelType `json:"fuel"`
}

// WaterHeaterAppliance is the water heater slot.
type WaterHeaterAppliance struct {
	Enabled bool     `json:"enabled"`
	KW      float64  `json:"kw"`
	Fuel    FuelType `json:"fuel"`
}

// HVACAppliance carries both sides of the heating/cooling system. Only the
// larger of the two contributes to demand (non-coincident loads).
type HVACAppliance struct {
	Enabled   bool       `json:"enabled"`
	CoolingKW float64    `json:"coolingKw"`
	HeatingKW float64    `json:"heatingKw"`
	Heat      HeatSource `json:"heat"`
}

// FixedAppliance is a kW-rated appliance added at 100% of connected load
// (dishwasher, disposal, EV charger, pool heater, hot tub).
type FixedAppliance struct {
	Enabled bool    `json:"enabled"`
	KW      float64 `json:"kw"`
}

// MotorAppliance is an HP-rated motor load (pool pump, well pump).
// VA is approximated as hp x 1000.
type MotorAppliance struct {
	Enabled bool    `json:"enabled"`
	HP      float64 `json:"hp"`
}

// OtherLoad is a free-form named load.
type OtherLoad struct {
	Enabled bool    `json:"enabled"`
	Name    string  `json:"name"`
	KW      float64 `json:"kw"`
}

// ApplianceConfiguration maps every appliance slot of a dwelling unit to
// its variant. It is pure input to the demand engine and has no identity.
type ApplianceConfiguration struct {
	Range       RangeAppliance       `json:"range"`
	Dryer       DryerAppliance       `json:"dryer"`
	WaterHeater WaterHeaterAppliance `json:"waterHeater"`
	HVAC        HVACAppliance        `json:"hvac"`
	Dishwasher  FixedAppliance       `json:"dishwasher"`
	Disposal    FixedAppliance       `json:"disposal"`
	EVCharger   FixedAppliance       `json:"evCharger"`
	PoolPump    MotorAppliance       `json:"poolPump"`
	PoolHeater  FixedAppliance       `json:"poolHeater"`
	HotTub      FixedAppliance       `json:"hotTub"`
	WellPump    MotorAppliance       `json:"wellPump"`
	Other       []OtherLoad          `json:"other,omitempty"`
}

// ValidationError reports malformed calculation input. It aborts the
// calculation; inputs are never silently clamped.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// Validate rejects negative ratings before any aggregation happens.
func (a *ApplianceConfiguration) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"range.kw", a.Range.KW},
		{"dryer.kw", a.Dryer.KW},
		{"waterHeater.kw", a.WaterHeater.KW},
		{"hvac.coolingKw", a.HVAC.CoolingKW},
		{"hvac.heatingKw", a.HVAC.HeatingKW},
		{"dishwasher.kw", a.Dishwasher.KW},
		{"disposal.kw", a.Disposal.KW},
		{"evCharger.kw", a.EVCharger.KW},
		{"poolPump.hp", a.PoolPump.HP},
		{"poolHeater.kw", a.PoolHeater.KW},
		{"hotTub.kw", a.HotTub.KW},
		{"wellPump.hp", a.WellPump.HP},
	}
	for _, c := range checks {
		if c.value < 0 {
			return &ValidationError{Field: c.field, Reason: "negative rating"}
		}
	}
	for i, o := range a.Other {
		if o.KW < 0 {
			return &ValidationError{
				Field:  fmt.Sprintf("other[%d].kw", i),
				Reason: "negative rating",
			}
		}
	}
	return nil
}

// DwellingUnitTemplate describes one repeated unit type in a multi-family
// calculation. It is consumed per calculation and never persisted as
// output.
type DwellingUnitTemplate struct {
	Name          string                 `json:"name"`
	SquareFootage float64                `json:"squareFootage"`
	UnitCount     int                    `json:"unitCount"`
	Appliances    ApplianceConfiguration `json:"appliances"`
}

// Validate checks the template before aggregation.
func (t *DwellingUnitTemplate) Validate() error {
	if t.SquareFootage <= 0 {
		return &ValidationError{Field: "squareFootage", Reason: "must be positive"}
	}
	if t.UnitCount <= 0 {
		return &ValidationError{Field: "unitCount", Reason: "must be positive"}
	}
	return t.Appliances.Validate()
}

// DwellingType selects the calculation entry point.
type DwellingType string

const (
	DwellingSingleFamily DwellingType = "single_family"
	DwellingMultiFamily  DwellingType = "multi_family"
)

// ProjectSettings is the fully-formed configuration value handed to the
// core. Defaulting happens at the boundary (pkg/project), never inside
// the calculation engines.
type ProjectSettings struct {
	Name                   string                 `json:"name"`
	ServiceVoltage         int                    `json:"serviceVoltage"`
	ServicePhase           int                    `json:"servicePhase"`
	DwellingType           DwellingType           `json:"dwellingType"`
	SquareFootage          float64                `json:"squareFootage"`
	SmallApplianceCircuits int                    `json:"smallApplianceCircuits"`
	LaundryCircuit         bool                   `json:"laundryCircuit"`
	Appliances             ApplianceConfiguration `json:"appliances"`
	UnitTemplates          []DwellingUnitTemplate `json:"unitTemplates,omitempty"`
	HousePanelLoadVA       float64                `json:"housePanelLoadVA"`
}
