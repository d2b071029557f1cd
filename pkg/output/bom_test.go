package output

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/panelwise/panelwright/pkg/demand"
	"github.com/panelwise/panelwright/pkg/model"
)

func TestBuildBOMAggregatesBreakers(t *testing.T) {
	snap := &model.Snapshot{
		Panels: []model.Panel{
			{ID: "mdp", BusRatingAmps: 200, Voltage: 240},
			{ID: "sub", BusRatingAmps: 100, Voltage: 240},
		},
		Circuits: []model.Circuit{
			{ID: "c1", BreakerAmps: 20, PoleCount: 1},
			{ID: "c2", BreakerAmps: 20, PoleCount: 1},
			{ID: "c3", BreakerAmps: 50, PoleCount: 2},
		},
	}
	lines := BuildBOM(snap, nil, nil)

	byItem := make(map[string]BOMLine)
	for _, l := range lines {
		byItem[l.Item] = l
	}
	if byItem["breaker-20A-1P"].Quantity != 2 {
		t.Errorf("20A breakers = %d, want 2", byItem["breaker-20A-1P"].Quantity)
	}
	if byItem["breaker-50A-2P"].Quantity != 1 {
		t.Errorf("50A breakers = %d, want 1", byItem["breaker-50A-2P"].Quantity)
	}
	if byItem["panel-200A"].Quantity != 1 || byItem["panel-100A"].Quantity != 1 {
		t.Error("panels missing from bill of materials")
	}
}

func TestBuildBOMIncludesConductors(t *testing.T) {
	res := &demand.ResidentialLoadResult{
		ServiceConductorSize: "#2/0 Cu",
		NeutralConductorSize: "#4 Cu",
		GECSize:              "#4 Cu",
	}
	lines := BuildBOM(&model.Snapshot{}, res, nil)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want service, neutral, and GEC", len(lines))
	}
}

func TestWriteBOMCSV(t *testing.T) {
	lines := []BOMLine{
		{Item: "breaker-20A-1P", Description: "20A 1-pole breaker", Quantity: 4},
		{Item: "panel-200A", Description: "200A 240V load center", Quantity: 1},
	}
	var buf bytes.Buffer
	if err := WriteBOMCSV(&buf, lines); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if records[0][0] != "item" || records[0][2] != "quantity" {
		t.Errorf("bad header: %v", records[0])
	}
	if records[1][2] != "4" {
		t.Errorf("quantity column = %q, want 4", records[1][2])
	}
}
