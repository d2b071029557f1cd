package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/panelwise/panelwright/pkg/model"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelwright.json")
	if err := os.WriteFile(path, []byte(`{"settings":{"name":"Minimal"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s := f.Settings
	if s.ServiceVoltage != 240 || s.ServicePhase != 1 {
		t.Errorf("service defaults = %dV/%dph, want 240V/1ph", s.ServiceVoltage, s.ServicePhase)
	}
	if s.DwellingType != model.DwellingSingleFamily {
		t.Errorf("dwelling type = %s, want single_family", s.DwellingType)
	}
	if s.SmallApplianceCircuits != 2 {
		t.Errorf("small-appliance circuits = %d, want mandatory 2", s.SmallApplianceCircuits)
	}
	if s.Appliances.Range.Fuel != model.FuelElectric {
		t.Errorf("unset fuel should default to electric, got %q", s.Appliances.Range.Fuel)
	}
	if f.Snapshot.Service.Voltage != 240 {
		t.Errorf("snapshot service must mirror settings, got %dV", f.Snapshot.Service.Voltage)
	}
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelwright.json")
	doc := `{
		"settings": {
			"serviceVoltage": 208,
			"servicePhase": 3,
			"dwellingType": "multi_family",
			"smallApplianceCircuits": 4,
			"appliances": {"range": {"enabled": true, "kw": 8, "fuel": "gas"}}
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s := f.Settings
	if s.ServiceVoltage != 208 || s.ServicePhase != 3 {
		t.Errorf("explicit service overridden: %dV/%dph", s.ServiceVoltage, s.ServicePhase)
	}
	if s.SmallApplianceCircuits != 4 {
		t.Errorf("explicit circuit count overridden: %d", s.SmallApplianceCircuits)
	}
	if s.Appliances.Range.Fuel != model.FuelGas {
		t.Errorf("explicit gas fuel overridden: %q", s.Appliances.Range.Fuel)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelwright.json")
	original := &File{
		Settings: model.ProjectSettings{
			Name:                   "Roundtrip",
			ServiceVoltage:         240,
			ServicePhase:           1,
			DwellingType:           model.DwellingSingleFamily,
			SquareFootage:          2400,
			SmallApplianceCircuits: 2,
			LaundryCircuit:         true,
		},
		Snapshot: model.Snapshot{
			Service: model.ServiceEntrance{Voltage: 240, PhaseCount: 1},
			Panels: []model.Panel{{
				ID: "mdp", Name: "MDP", BusRatingAmps: 200, Voltage: 240, PhaseCount: 1,
				IsMain: true, FedFrom: model.FeedSource{Kind: model.SourceService},
			}},
			Circuits: []model.Circuit{{
				ID: "c1", PanelID: "mdp", Description: "Range", CircuitNumber: 1,
				PoleCount: 2, BreakerAmps: 50, LoadVA: 9600, LoadType: model.LoadKitchen,
			}},
		},
	}

	if err := Save(path, original); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Version != CurrentVersion {
		t.Errorf("version = %d, want %d", loaded.Version, CurrentVersion)
	}
	if loaded.Settings.Name != "Roundtrip" || loaded.Settings.SquareFootage != 2400 {
		t.Errorf("settings lost in round trip: %+v", loaded.Settings)
	}
	if len(loaded.Snapshot.Panels) != 1 || loaded.Snapshot.Panels[0].ID != "mdp" {
		t.Errorf("panels lost in round trip: %+v", loaded.Snapshot.Panels)
	}
	if len(loaded.Snapshot.Circuits) != 1 || loaded.Snapshot.Circuits[0].LoadVA != 9600 {
		t.Errorf("circuits lost in round trip: %+v", loaded.Snapshot.Circuits)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelwright.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "settings": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("a newer file version must be rejected")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelwright.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed JSON must be rejected")
	}
}
