package demand

import (
	"testing"

	"github.com/panelwise/panelwright/pkg/model"
)

func template(units int) model.DwellingUnitTemplate {
	return model.DwellingUnitTemplate{
		Name:          "1BR",
		SquareFootage: 850,
		UnitCount:     units,
	}
}

func TestMultiFamilyFactorTable(t *testing.T) {
	cases := []struct {
		units int
		want  float64
	}{
		{1, 1.0}, {2, 1.0}, {3, 0.45}, {4, 0.44}, {5, 0.43},
		{8, 0.40}, {10, 0.38}, {11, 0.38}, {12, 0.37},
		{20, 0.35}, {40, 0.32}, {120, 0.32},
	}
	for _, c := range cases {
		if got := MultiFamilyFactor(c.units); got != c.want {
			t.Errorf("MultiFamilyFactor(%d) = %.2f, want %.2f", c.units, got, c.want)
		}
	}
}

func TestMultiFamilyFactorNonIncreasing(t *testing.T) {
	prev := 2.0
	for units := 1; units <= 100; units++ {
		f := MultiFamilyFactor(units)
		if f > prev {
			t.Fatalf("factor increased at %d units: %.2f > %.2f", units, f, prev)
		}
		prev = f
	}
}

func TestMultiFamilyFourUnits(t *testing.T) {
	res, err := CalculateMultiFamily(MultiFamilyInput{
		ServiceVoltage: 240,
		UnitTemplates:  []model.DwellingUnitTemplate{template(4)},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Per unit: 850*3 + 3000 + 1500 = 7050 connected,
	// demand = 3000 + 4050*0.35 = 4417.5; x4 = 17670; x0.44 = 7774.8.
	unitDemand := TieredGeneralDemand(7050)
	want := unitDemand * 4 * 0.44
	if res.TotalDemandVA != want {
		t.Errorf("demand = %.2f, want %.2f", res.TotalDemandVA, want)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestMultiFamilyHouseLoadAfterFactor(t *testing.T) {
	base, err := CalculateMultiFamily(MultiFamilyInput{
		ServiceVoltage: 240,
		UnitTemplates:  []model.DwellingUnitTemplate{template(4)},
	})
	if err != nil {
		t.Fatal(err)
	}
	withHouse, err := CalculateMultiFamily(MultiFamilyInput{
		ServiceVoltage:   240,
		UnitTemplates:    []model.DwellingUnitTemplate{template(4)},
		HousePanelLoadVA: 10000,
	})
	if err != nil {
		t.Fatal(err)
	}
	// House load is never reduced by the per-unit factor.
	if withHouse.TotalDemandVA != base.TotalDemandVA+10000 {
		t.Errorf("house load must be added at 100%% after the factor: %.2f vs %.2f",
			withHouse.TotalDemandVA, base.TotalDemandVA)
	}
}

func TestMultiFamilyUnderThreeUnitsWarns(t *testing.T) {
	res, err := CalculateMultiFamily(MultiFamilyInput{
		ServiceVoltage: 240,
		UnitTemplates:  []model.DwellingUnitTemplate{template(2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("want exactly one under-three-units warning, got %v", res.Warnings)
	}
	// No reduction below three units.
	unitDemand := TieredGeneralDemand(7050)
	if res.TotalDemandVA != unitDemand*2 {
		t.Errorf("demand = %.2f, want %.2f (factor 1.0)", res.TotalDemandVA, unitDemand*2)
	}
}

func TestMultiFamilyMixedTemplates(t *testing.T) {
	res, err := CalculateMultiFamily(MultiFamilyInput{
		ServiceVoltage: 240,
		UnitTemplates: []model.DwellingUnitTemplate{
			{Name: "1BR", SquareFootage: 850, UnitCount: 6},
			{Name: "2BR", SquareFootage: 1100, UnitCount: 6},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	// 12 units total -> factor 0.37.
	d1 := TieredGeneralDemand(850*3 + 4500)
	d2 := TieredGeneralDemand(1100*3 + 4500)
	want := (d1*6 + d2*6) * 0.37
	if res.TotalDemandVA != want {
		t.Errorf("demand = %.2f, want %.2f", res.TotalDemandVA, want)
	}
}

func TestMultiFamilyRejectsBadTemplate(t *testing.T) {
	bad := template(4)
	bad.Appliances.Range = model.RangeAppliance{Enabled: true, KW: -9}
	if _, err := CalculateMultiFamily(MultiFamilyInput{
		ServiceVoltage: 240,
		UnitTemplates:  []model.DwellingUnitTemplate{bad},
	}); err == nil {
		t.Fatal("negative template rating must abort the calculation")
	}

	if _, err := CalculateMultiFamily(MultiFamilyInput{ServiceVoltage: 240}); err == nil {
		t.Fatal("empty template list must be rejected")
	}
}
