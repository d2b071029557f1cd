package model

import "fmt"

// SourceKind identifies what kind of node feeds a panel.
type SourceKind string

const (
	SourceService     SourceKind = "service"
	SourcePanel       SourceKind = "panel"
	SourceTransformer SourceKind = "transformer"
)

// LoadType classifies the load served by a circuit.
type LoadType string

const (
	LoadLighting    LoadType = "lighting"
	LoadMotor       LoadType = "motor"
	LoadReceptacle  LoadType = "receptacle"
	LoadHeating     LoadType = "heating"
	LoadCooling     LoadType = "cooling"
	LoadWaterHeater LoadType = "water_heater"
	LoadDryer       LoadType = "dryer"
	LoadKitchen     LoadType = "kitchen"
	LoadOther       LoadType = "other"
)

// FeedSource references the node a panel is fed from.
type FeedSource struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id,omitempty"` // empty when Kind is SourceService
}

func (f FeedSource) String() string {
	if f.Kind == SourceService {
		return "service"
	}
	return fmt.Sprintf("%s:%s", f.Kind, f.ID)
}

// ServiceEntrance is the root of every distribution topology.
// There is exactly one per project.
type ServiceEntrance struct {
	Voltage    int `json:"voltage"`
	PhaseCount int `json:"phaseCount"` // 1 or 3
}

// Panel represents a load center or distribution panel.
type Panel struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	BusRatingAmps   int        `json:"busRatingAmps"`
	MainBreakerAmps int        `json:"mainBreakerAmps"`
	Voltage         int        `json:"voltage"`
	PhaseCount      int        `json:"phaseCount"`
	IsMain          bool       `json:"isMain"`
	FedFrom         FeedSource `json:"fedFrom"`
}

// Transformer steps voltage between a primary panel and downstream panels.
// Its secondary side is a valid feed source.
type Transformer struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	KVARating        float64 `json:"kvaRating"`
	PrimaryVoltage   int     `json:"primaryVoltage"`
	PrimaryPhase     int     `json:"primaryPhase"`
	SecondaryVoltage int     `json:"secondaryVoltage"`
	SecondaryPhase   int     `json:"secondaryPhase"`
	FedFromPanel     string  `json:"fedFromPanel"`
}

// Circuit is a breaker position in a panel. A circuit with PoleCount k
// occupies k bus slots on the same parity lane: n, n+2, ..., n+2(k-1).
type Circuit struct {
	ID            string   `json:"id"`
	PanelID       string   `json:"panelId"`
	Description   string   `json:"description"`
	CircuitNumber int      `json:"circuitNumber"`
	PoleCount     int      `json:"poleCount"` // 1..3
	BreakerAmps   int      `json:"breakerAmps"`
	LoadVA        float64  `json:"loadVA"`
	LoadType      LoadType `json:"loadType"`
	ConductorSize string   `json:"conductorSize"`
}

// Feeder is a directed edge record for a panel-to-panel or
// panel-to-transformer connection. TotalLoadVA caches the destination's
// connected load; it goes stale when the destination's circuits change.
type Feeder struct {
	ID          string     `json:"id"`
	FromPanelID string     `json:"fromPanelId"`
	ToKind      SourceKind `json:"toKind"`
	ToID        string     `json:"toId"`
	TotalLoadVA float64    `json:"totalLoadVA"`
}

// Snapshot is an immutable view of the project entities handed to the
// calculation core. The core only reads it and is re-run per change.
type Snapshot struct {
	Service      ServiceEntrance `json:"service"`
	Panels       []Panel         `json:"panels"`
	Transformers []Transformer   `json:"transformers"`
	Circuits     []Circuit       `json:"circuits"`
	Feeders      []Feeder        `json:"feeders"`
}

// PanelCircuits returns the circuits belonging to one panel.
func (s *Snapshot) PanelCircuits(panelID string) []Circuit {
	var out []Circuit
	for _, c := range s.Circuits {
		if c.PanelID == panelID {
			out = append(out, c)
		}
	}
	return out
}

// FindPanel returns the panel with the given id, if present.
func (s *Snapshot) FindPanel(id string) (Panel, bool) {
	for _, p := range s.Panels {
		if p.ID == id {
			return p, true
		}
	}
	return Panel{}, false
}

// FindTransformer returns the transformer with the given id, if present.
func (s *Snapshot) FindTransformer(id string) (Transformer, bool) {
	for _, t := range s.Transformers {
		if t.ID == id {
			return t, true
		}
	}
	return Transformer{}, false
}
