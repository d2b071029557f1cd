package demand

import (
	"fmt"
	"math"

	"github.com/panelwise/panelwright/pkg/model"
)

// GeneratedCircuit is one row of an auto-generated panel schedule.
type GeneratedCircuit struct {
	Description  string         `json:"description"`
	BreakerAmps  int            `json:"breakerAmps"`
	Pole         int            `json:"pole"`
	LoadWatts    float64        `json:"loadWatts"`
	LoadType     model.LoadType `json:"loadType"`
	NECReference string         `json:"necReference"`
}

// standardBreakers are the breaker sizes the generator picks from.
var standardBreakers = []int{15, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// lightingCircuitVA is the load budget per 15A/120V lighting circuit.
const lightingCircuitVA = 1500.0

// GenerateCircuits builds a panel schedule for a single dwelling from
// its calculation input: lighting circuits from floor area, the code-
// required kitchen and laundry circuits, and one circuit per enabled
// appliance.
func GenerateCircuits(in SingleFamilyInput) ([]GeneratedCircuit, error) {
	if in.SquareFootage <= 0 {
		return nil, &model.ValidationError{Field: "squareFootage", Reason: "must be positive"}
	}
	if err := in.Appliances.Validate(); err != nil {
		return nil, err
	}

	var out []GeneratedCircuit

	lightingVA := in.SquareFootage * lightingVAPerSqFt
	lightingCircuits := int(math.Ceil(lightingVA / lightingCircuitVA))
	for i := 0; i < lightingCircuits; i++ {
		out = append(out, GeneratedCircuit{
			Description:  fmt.Sprintf("General lighting %d", i+1),
			BreakerAmps:  15,
			Pole:         1,
			LoadWatts:    lightingVA / float64(lightingCircuits),
			LoadType:     model.LoadLighting,
			NECReference: "NEC 210.11(A)",
		})
	}

	saCount := in.SmallApplianceCircuits
	if saCount < minSmallApplianceCount {
		saCount = minSmallApplianceCount
	}
	for i := 0; i < saCount; i++ {
		out = append(out, GeneratedCircuit{
			Description:  fmt.Sprintf("Small appliance %d", i+1),
			BreakerAmps:  20,
			Pole:         1,
			LoadWatts:    smallApplianceVA,
			LoadType:     model.LoadKitchen,
			NECReference: "NEC 210.11(C)(1)",
		})
	}

	if in.LaundryCircuit {
		out = append(out, GeneratedCircuit{
			Description:  "Laundry",
			BreakerAmps:  20,
			Pole:         1,
			LoadWatts:    laundryVA,
			LoadType:     model.LoadReceptacle,
			NECReference: "NEC 210.11(C)(2)",
		})
	}

	out = append(out, applianceCircuits(in.Appliances)...)
	return out, nil
}

func applianceCircuits(a model.ApplianceConfiguration) []GeneratedCircuit {
	var out []GeneratedCircuit
	add := func(desc string, watts float64, pole int, voltage int, lt model.LoadType, ref string) {
		if watts <= 0 {
			return
		}
		out = append(out, GeneratedCircuit{
			Description:  desc,
			BreakerAmps:  breakerFor(watts, voltage),
			Pole:         pole,
			LoadWatts:    watts,
			LoadType:     lt,
			NECReference: ref,
		})
	}

	if a.Range.Enabled && a.Range.Fuel != model.FuelGas {
		add(fmt.Sprintf("Range %.1f kW", a.Range.KW), a.Range.KW*1000, 2, 240, model.LoadKitchen, "NEC Table 220.55")
	}
	if a.Dryer.Enabled && a.Dryer.Fuel != model.FuelGas {
		add(fmt.Sprintf("Dryer %.1f kW", a.Dryer.KW), a.Dryer.KW*1000, 2, 240, model.LoadDryer, "NEC 220.54")
	}
	if a.WaterHeater.Enabled && a.WaterHeater.Fuel != model.FuelGas {
		add(fmt.Sprintf("Water heater %.1f kW", a.WaterHeater.KW), a.WaterHeater.KW*1000, 2, 240, model.LoadWaterHeater, "NEC 422.13")
	}
	if a.HVAC.Enabled {
		cooling, heating, _ := HVACDemandVA(a.HVAC)
		add("Air conditioning", cooling, 2, 240, model.LoadCooling, "NEC 440.4")
		add("Electric heat", heating, 2, 240, model.LoadHeating, "NEC 424.3(B)")
	}
	if a.Dishwasher.Enabled {
		add("Dishwasher", a.Dishwasher.KW*1000, 1, 120, model.LoadKitchen, "NEC 422.10")
	}
	if a.Disposal.Enabled {
		add("Disposal", a.Disposal.KW*1000, 1, 120, model.LoadKitchen, "NEC 422.10")
	}
	if a.EVCharger.Enabled {
		add("EV charger", a.EVCharger.KW*1000, 2, 240, model.LoadOther, "NEC 625.41")
	}
	if a.PoolPump.Enabled {
		add("Pool pump", a.PoolPump.HP*vaPerHP, 2, 240, model.LoadMotor, "NEC 680.21")
	}
	if a.PoolHeater.Enabled {
		add("Pool heater", a.PoolHeater.KW*1000, 2, 240, model.LoadHeating, "NEC 680.9")
	}
	if a.HotTub.Enabled {
		add("Hot tub", a.HotTub.KW*1000, 2, 240, model.LoadOther, "NEC 680.42")
	}
	if a.WellPump.Enabled {
		add("Well pump", a.WellPump.HP*vaPerHP, 2, 240, model.LoadMotor, "NEC 430.22")
	}
	for _, o := range a.Other {
		if !o.Enabled {
			continue
		}
		name := o.Name
		if name == "" {
			name = "Other load"
		}
		add(name, o.KW*1000, 1, 120, model.LoadOther, "NEC 220.14")
	}
	return out
}

// breakerFor picks the smallest standard breaker at or above 125% of the
// load current.
func breakerFor(watts float64, voltage int) int {
	amps := watts / float64(voltage) * 1.25
	for _, b := range standardBreakers {
		if amps <= float64(b) {
			return b
		}
	}
	return standardBreakers[len(standardBreakers)-1]
}
