// Package store is the in-memory repository for project entities. All
// writes happen here under one lock; the calculation core only ever sees
// immutable snapshots taken from it.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/panelwise/panelwright/pkg/connection"
	"github.com/panelwise/panelwright/pkg/logging"
	"github.com/panelwise/panelwright/pkg/model"
	"github.com/panelwise/panelwright/pkg/slots"
)

// NotFoundError reports a lookup of an id the store does not hold.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ReferencedError rejects deleting an entity something still depends on.
type ReferencedError struct {
	Kind  string
	ID    string
	ByIDs []string
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("%s %s is still referenced by %v", e.Kind, e.ID, e.ByIDs)
}

// EdgeError rejects a feed connection the validator blocks.
type EdgeError struct {
	FromID string
	ToID   string
	Result connection.Result
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("cannot feed %s from %s: %s", e.ToID, e.FromID, e.Reason())
}

func (e *EdgeError) Reason() string { return e.Result.Reason }

// Store holds one project's entities.
type Store struct {
	mu           sync.RWMutex
	service      model.ServiceEntrance
	settings     model.ProjectSettings
	panels       map[string]model.Panel
	transformers map[string]model.Transformer
	circuits     map[string]model.Circuit
	feeders      map[string]model.Feeder
}

// New creates an empty store with the given service entrance.
func New(service model.ServiceEntrance) *Store {
	return &Store{
		service:      service,
		panels:       make(map[string]model.Panel),
		transformers: make(map[string]model.Transformer),
		circuits:     make(map[string]model.Circuit),
		feeders:      make(map[string]model.Feeder),
	}
}

// Service returns the service entrance.
func (s *Store) Service() model.ServiceEntrance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.service
}

// SetService replaces the service entrance.
func (s *Store) SetService(service model.ServiceEntrance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.service = service
}

// Settings returns the project settings.
func (s *Store) Settings() model.ProjectSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the project settings.
func (s *Store) SetSettings(settings model.ProjectSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// sourceRating returns voltage and phase of a feed source, resolving
// transformers to their secondary side.
func (s *Store) sourceRating(f model.FeedSource) (voltage, phase int, err error) {
	switch f.Kind {
	case model.SourceService:
		return s.service.Voltage, s.service.PhaseCount, nil
	case model.SourcePanel:
		p, ok := s.panels[f.ID]
		if !ok {
			return 0, 0, &NotFoundError{Kind: "panel", ID: f.ID}
		}
		return p.Voltage, p.PhaseCount, nil
	case model.SourceTransformer:
		tr, ok := s.transformers[f.ID]
		if !ok {
			return 0, 0, &NotFoundError{Kind: "transformer", ID: f.ID}
		}
		return tr.SecondaryVoltage, tr.SecondaryPhase, nil
	default:
		return 0, 0, fmt.Errorf("unknown source kind %q", f.Kind)
	}
}

// CreatePanel validates the feed edge and adds the panel. The returned
// advisory is non-empty when the connection is allowed with a warning.
func (s *Store) CreatePanel(p model.Panel) (model.Panel, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcV, srcP, err := s.sourceRating(p.FedFrom)
	if err != nil {
		return model.Panel{}, "", err
	}
	res := connection.Validate(srcV, srcP, p.Voltage, p.PhaseCount)
	if res.Severity == connection.Block {
		return model.Panel{}, "", &EdgeError{FromID: p.FedFrom.String(), ToID: p.Name, Result: res}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.panels[p.ID] = p
	logging.Debug("panel created", "panelID", p.ID, "name", p.Name)

	advisory := ""
	if res.Severity == connection.Warn {
		advisory = res.Reason
	}
	return p, advisory, nil
}

// UpdatePanel replaces an existing panel after re-validating its edge.
func (s *Store) UpdatePanel(p model.Panel) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.panels[p.ID]; !ok {
		return "", &NotFoundError{Kind: "panel", ID: p.ID}
	}
	srcV, srcP, err := s.sourceRating(p.FedFrom)
	if err != nil {
		return "", err
	}
	res := connection.Validate(srcV, srcP, p.Voltage, p.PhaseCount)
	if res.Severity == connection.Block {
		return "", &EdgeError{FromID: p.FedFrom.String(), ToID: p.ID, Result: res}
	}
	s.panels[p.ID] = p

	if res.Severity == connection.Warn {
		return res.Reason, nil
	}
	return "", nil
}

// DeletePanel removes a panel unless something is still fed from it.
func (s *Store) DeletePanel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.panels[id]; !ok {
		return &NotFoundError{Kind: "panel", ID: id}
	}
	var refs []string
	for _, p := range s.panels {
		if p.FedFrom.Kind == model.SourcePanel && p.FedFrom.ID == id {
			refs = append(refs, p.ID)
		}
	}
	for _, tr := range s.transformers {
		if tr.FedFromPanel == id {
			refs = append(refs, tr.ID)
		}
	}
	if len(refs) > 0 {
		sort.Strings(refs)
		return &ReferencedError{Kind: "panel", ID: id, ByIDs: refs}
	}

	// Circuits belong to the panel and go with it.
	for cid, c := range s.circuits {
		if c.PanelID == id {
			delete(s.circuits, cid)
		}
	}
	for fid, f := range s.feeders {
		if f.FromPanelID == id || (f.ToKind == model.SourcePanel && f.ToID == id) {
			delete(s.feeders, fid)
		}
	}
	delete(s.panels, id)
	logging.Debug("panel deleted", "panelID", id)
	return nil
}

// CreateTransformer adds a transformer fed from an existing panel.
func (s *Store) CreateTransformer(tr model.Transformer) (model.Transformer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.panels[tr.FedFromPanel]
	if !ok {
		return model.Transformer{}, &NotFoundError{Kind: "panel", ID: tr.FedFromPanel}
	}
	if src.Voltage != tr.PrimaryVoltage || src.PhaseCount != tr.PrimaryPhase {
		return model.Transformer{}, &EdgeError{
			FromID: src.ID,
			ToID:   tr.Name,
			Result: connection.Result{
				Severity: connection.Block,
				Reason: fmt.Sprintf("transformer primary %dV/%dph does not match panel %dV/%dph",
					tr.PrimaryVoltage, tr.PrimaryPhase, src.Voltage, src.PhaseCount),
			},
		}
	}

	if tr.ID == "" {
		tr.ID = uuid.NewString()
	}
	s.transformers[tr.ID] = tr
	logging.Debug("transformer created", "transformerID", tr.ID, "name", tr.Name)
	return tr, nil
}

// DeleteTransformer removes a transformer unless a panel is fed from it.
func (s *Store) DeleteTransformer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transformers[id]; !ok {
		return &NotFoundError{Kind: "transformer", ID: id}
	}
	var refs []string
	for _, p := range s.panels {
		if p.FedFrom.Kind == model.SourceTransformer && p.FedFrom.ID == id {
			refs = append(refs, p.ID)
		}
	}
	if len(refs) > 0 {
		sort.Strings(refs)
		return &ReferencedError{Kind: "transformer", ID: id, ByIDs: refs}
	}
	for fid, f := range s.feeders {
		if f.ToKind == model.SourceTransformer && f.ToID == id {
			delete(s.feeders, fid)
		}
	}
	delete(s.transformers, id)
	return nil
}

// CreateCircuit places a circuit after checking its slot span against
// the panel's existing circuits.
func (s *Store) CreateCircuit(c model.Circuit) (model.Circuit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	panel, ok := s.panels[c.PanelID]
	if !ok {
		return model.Circuit{}, &NotFoundError{Kind: "panel", ID: c.PanelID}
	}
	if c.PoleCount == 3 && panel.PhaseCount == 1 {
		return model.Circuit{}, fmt.Errorf("3-pole breaker in single-phase panel %s", panel.Name)
	}
	if err := slots.Check(panel, s.panelCircuitsLocked(c.PanelID), c.CircuitNumber, c.PoleCount); err != nil {
		return model.Circuit{}, err
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.circuits[c.ID] = c
	logging.Debug("circuit created", "circuitID", c.ID, "panelID", c.PanelID, "loadVA", c.LoadVA)
	return c, nil
}

// UpdateCircuit replaces a circuit, re-checking its slot span against
// the other circuits in the panel.
func (s *Store) UpdateCircuit(c model.Circuit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.circuits[c.ID]; !ok {
		return &NotFoundError{Kind: "circuit", ID: c.ID}
	}
	panel, ok := s.panels[c.PanelID]
	if !ok {
		return &NotFoundError{Kind: "panel", ID: c.PanelID}
	}

	var others []model.Circuit
	for _, other := range s.panelCircuitsLocked(c.PanelID) {
		if other.ID != c.ID {
			others = append(others, other)
		}
	}
	if err := slots.Check(panel, others, c.CircuitNumber, c.PoleCount); err != nil {
		return err
	}

	s.circuits[c.ID] = c
	return nil
}

// DeleteCircuit removes a circuit.
func (s *Store) DeleteCircuit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.circuits[id]; !ok {
		return &NotFoundError{Kind: "circuit", ID: id}
	}
	delete(s.circuits, id)
	return nil
}

// CreateFeeder records a feeder edge with a cached load figure.
func (s *Store) CreateFeeder(f model.Feeder) (model.Feeder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.panels[f.FromPanelID]; !ok {
		return model.Feeder{}, &NotFoundError{Kind: "panel", ID: f.FromPanelID}
	}
	switch f.ToKind {
	case model.SourcePanel:
		if _, ok := s.panels[f.ToID]; !ok {
			return model.Feeder{}, &NotFoundError{Kind: "panel", ID: f.ToID}
		}
	case model.SourceTransformer:
		if _, ok := s.transformers[f.ToID]; !ok {
			return model.Feeder{}, &NotFoundError{Kind: "transformer", ID: f.ToID}
		}
	default:
		return model.Feeder{}, fmt.Errorf("feeder destination kind %q is not feedable", f.ToKind)
	}

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	s.feeders[f.ID] = f
	return f, nil
}

// RefreshFeeder recomputes a feeder's cached load from the destination
// panel's current circuits.
func (s *Store) RefreshFeeder(id string) (model.Feeder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.feeders[id]
	if !ok {
		return model.Feeder{}, &NotFoundError{Kind: "feeder", ID: id}
	}
	f.TotalLoadVA = s.destinationLoadLocked(f)
	s.feeders[id] = f
	return f, nil
}

// StaleFeeder reports whether a feeder's cached load no longer matches
// the destination's connected load, and what the fresh figure is.
type StaleFeeder struct {
	Feeder  model.Feeder `json:"feeder"`
	FreshVA float64      `json:"freshVA"`
}

// StaleFeeders compares every cached feeder figure to a fresh recompute.
func (s *Store) StaleFeeders() []StaleFeeder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StaleFeeder
	for _, f := range s.feeders {
		fresh := s.destinationLoadLocked(f)
		if fresh != f.TotalLoadVA {
			out = append(out, StaleFeeder{Feeder: f, FreshVA: fresh})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feeder.ID < out[j].Feeder.ID })
	return out
}

func (s *Store) destinationLoadLocked(f model.Feeder) float64 {
	if f.ToKind != model.SourcePanel {
		return f.TotalLoadVA
	}
	var va float64
	for _, c := range s.circuits {
		if c.PanelID == f.ToID {
			va += c.LoadVA
		}
	}
	return va
}

func (s *Store) panelCircuitsLocked(panelID string) []model.Circuit {
	var out []model.Circuit
	for _, c := range s.circuits {
		if c.PanelID == panelID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CircuitNumber < out[j].CircuitNumber })
	return out
}

// Panel returns one panel by id.
func (s *Store) Panel(id string) (model.Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.panels[id]
	return p, ok
}

// PanelCircuits returns one panel's circuits in circuit-number order.
func (s *Store) PanelCircuits(panelID string) []model.Circuit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelCircuitsLocked(panelID)
}

// Snapshot returns an immutable copy of the whole project, with every
// slice in stable id order so downstream output is deterministic.
func (s *Store) Snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &model.Snapshot{Service: s.service}
	for _, p := range s.panels {
		snap.Panels = append(snap.Panels, p)
	}
	for _, tr := range s.transformers {
		snap.Transformers = append(snap.Transformers, tr)
	}
	for _, c := range s.circuits {
		snap.Circuits = append(snap.Circuits, c)
	}
	for _, f := range s.feeders {
		snap.Feeders = append(snap.Feeders, f)
	}
	sort.Slice(snap.Panels, func(i, j int) bool { return snap.Panels[i].ID < snap.Panels[j].ID })
	sort.Slice(snap.Transformers, func(i, j int) bool { return snap.Transformers[i].ID < snap.Transformers[j].ID })
	sort.Slice(snap.Circuits, func(i, j int) bool {
		if snap.Circuits[i].PanelID != snap.Circuits[j].PanelID {
			return snap.Circuits[i].PanelID < snap.Circuits[j].PanelID
		}
		return snap.Circuits[i].CircuitNumber < snap.Circuits[j].CircuitNumber
	})
	sort.Slice(snap.Feeders, func(i, j int) bool { return snap.Feeders[i].ID < snap.Feeders[j].ID })
	return snap
}

// Replace swaps the whole project content, used when loading a file.
func (s *Store) Replace(snap *model.Snapshot, settings model.ProjectSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.service = snap.Service
	s.settings = settings
	s.panels = make(map[string]model.Panel, len(snap.Panels))
	s.transformers = make(map[string]model.Transformer, len(snap.Transformers))
	s.circuits = make(map[string]model.Circuit, len(snap.Circuits))
	s.feeders = make(map[string]model.Feeder, len(snap.Feeders))
	for _, p := range snap.Panels {
		s.panels[p.ID] = p
	}
	for _, tr := range snap.Transformers {
		s.transformers[tr.ID] = tr
	}
	for _, c := range snap.Circuits {
		s.circuits[c.ID] = c
	}
	for _, f := range snap.Feeders {
		s.feeders[f.ID] = f
	}
}
