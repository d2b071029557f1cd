// Package project reads and writes the project file: settings plus the
// full entity snapshot, as one JSON document. Defaulting happens here at
// the boundary so the calculation engines always receive fully-formed
// values.
package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/panelwise/panelwright/pkg/logging"
	"github.com/panelwise/panelwright/pkg/model"
)

// Default values applied to fields the file leaves unset.
const (
	defaultServiceVoltage = 240
	defaultServicePhase   = 1
	defaultSmallAppliance = 2
	defaultSquareFootage  = 2000
)

// File is the on-disk project document.
type File struct {
	Version  int                   `json:"version"`
	Settings model.ProjectSettings `json:"settings"`
	Snapshot model.Snapshot        `json:"project"`
}

// CurrentVersion is written to new files. Version 0 files (no field) are
// read as version 1.
const CurrentVersion = 1

// Load reads and defaults a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	if f.Version == 0 {
		f.Version = 1
	}
	if f.Version > CurrentVersion {
		return nil, fmt.Errorf("project file version %d is newer than supported %d", f.Version, CurrentVersion)
	}

	ApplyDefaults(&f)
	logging.Debug("project loaded", "path", path,
		"panels", len(f.Snapshot.Panels), "circuits", len(f.Snapshot.Circuits))
	return &f, nil
}

// ApplyDefaults fills unset settings and mirrors them into the service
// entrance when the snapshot carries none.
func ApplyDefaults(f *File) {
	s := &f.Settings
	if s.ServiceVoltage == 0 {
		s.ServiceVoltage = defaultServiceVoltage
	}
	if s.ServicePhase == 0 {
		s.ServicePhase = defaultServicePhase
	}
	if s.DwellingType == "" {
		s.DwellingType = model.DwellingSingleFamily
	}
	if s.SquareFootage == 0 {
		s.SquareFootage = defaultSquareFootage
	}
	// NEC 210.11(C) requires two small-appliance circuits; fewer than two
	// in the file means the field was never set.
	if s.SmallApplianceCircuits < defaultSmallAppliance {
		s.SmallApplianceCircuits = defaultSmallAppliance
	}
	defaultFuel(&s.Appliances)
	for i := range s.UnitTemplates {
		defaultFuel(&s.UnitTemplates[i].Appliances)
	}

	if f.Snapshot.Service.Voltage == 0 {
		f.Snapshot.Service = model.ServiceEntrance{
			Voltage:    s.ServiceVoltage,
			PhaseCount: s.ServicePhase,
		}
	}
}

// defaultFuel treats an unset fuel type as electric, the conservative
// choice for load calculation.
func defaultFuel(a *model.ApplianceConfiguration) {
	if a.Range.Fuel == "" {
		a.Range.Fuel = model.FuelElectric
	}
	if a.Dryer.Fuel == "" {
		a.Dryer.Fuel = model.FuelElectric
	}
	if a.WaterHeater.Fuel == "" {
		a.WaterHeater.Fuel = model.FuelElectric
	}
	if a.HVAC.Heat == "" {
		a.HVAC.Heat = model.HeatElectric
	}
}

// Save writes the project document, pretty-printed for diffability.
func Save(path string, f *File) error {
	if f.Version == 0 {
		f.Version = CurrentVersion
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	logging.Debug("project saved", "path", path)
	return nil
}
