// Package slots manages circuit-number occupancy on a panel bus. Odd
// slots sit on bus side A and even slots on side B, so a multi-pole
// breaker spans same-parity slots two apart, matching physical placement.
package slots

import (
	"fmt"
	"sort"

	"github.com/panelwise/panelwright/pkg/model"
)

// maxPanelSlots is the physical ceiling for residential panelboards.
const maxPanelSlots = 42

// Conflict reports a slot collision with an existing circuit.
type Conflict struct {
	Slot       int
	CircuitID  string
	Descriptor string
}

func (c *Conflict) Error() string {
	if c.Descriptor != "" {
		return fmt.Sprintf("slot %d is occupied by %q", c.Slot, c.Descriptor)
	}
	return fmt.Sprintf("slot %d is occupied by circuit %s", c.Slot, c.CircuitID)
}

// MaxSlots derives the usable slot count from the bus rating, capped at
// the physical panel limit.
func MaxSlots(panel model.Panel) int {
	n := (panel.BusRatingAmps + 9) / 10
	if n > maxPanelSlots {
		return maxPanelSlots
	}
	return n
}

// Span returns the slots occupied by a breaker of poleCount poles
// starting at slot: start, start+2, ..., start+2(k-1).
func Span(start, poleCount int) []int {
	span := make([]int, 0, poleCount)
	for i := 0; i < poleCount; i++ {
		span = append(span, start+2*i)
	}
	return span
}

// OccupiedSlots returns every slot taken by the panel's circuits,
// including the full footprint of multi-pole breakers.
func OccupiedSlots(circuits []model.Circuit) map[int]string {
	occupied := make(map[int]string)
	for _, c := range circuits {
		for _, s := range Span(c.CircuitNumber, c.PoleCount) {
			occupied[s] = c.ID
		}
	}
	return occupied
}

// Occupancy is the answer to "can a breaker land at this slot".
type Occupancy struct {
	Occupied    bool
	Slot        int    // first conflicting slot, when occupied
	ConflictsID string // circuit holding that slot
}

// IsOccupied checks whether a poleCount-pole breaker starting at slot
// would collide with any existing circuit. The whole candidate footprint
// is checked, not just its first slot.
func IsOccupied(slot int, circuits []model.Circuit, poleCount int) Occupancy {
	occupied := OccupiedSlots(circuits)
	for _, s := range Span(slot, poleCount) {
		if id, taken := occupied[s]; taken {
			return Occupancy{Occupied: true, Slot: s, ConflictsID: id}
		}
	}
	return Occupancy{}
}

// NextAvailable returns the lowest slot where a poleCount-pole breaker
// fits, or an error when the panel is full.
func NextAvailable(panel model.Panel, circuits []model.Circuit, poleCount int) (int, error) {
	max := MaxSlots(panel)
	occupied := OccupiedSlots(circuits)
	for n := 1; n <= max; n++ {
		if spanFits(n, poleCount, max, occupied) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("no free run of %d same-parity slots in %d-slot panel", poleCount, max)
}

// ValidSlots lists every legal starting slot for a poleCount-pole
// breaker, in ascending order. A start whose span would run past the last
// slot is rejected.
func ValidSlots(panel model.Panel, circuits []model.Circuit, poleCount int) []int {
	max := MaxSlots(panel)
	occupied := OccupiedSlots(circuits)
	var valid []int
	for n := 1; n <= max; n++ {
		if spanFits(n, poleCount, max, occupied) {
			valid = append(valid, n)
		}
	}
	sort.Ints(valid)
	return valid
}

// Check validates a concrete placement request, returning a *Conflict
// when it collides and a plain error when it runs off the bus.
func Check(panel model.Panel, circuits []model.Circuit, slot, poleCount int) error {
	max := MaxSlots(panel)
	if slot < 1 || slot > max {
		return fmt.Errorf("slot %d outside panel range 1..%d", slot, max)
	}
	span := Span(slot, poleCount)
	if span[len(span)-1] > max {
		return fmt.Errorf("%d-pole breaker at slot %d spans to %d, past last slot %d",
			poleCount, slot, span[len(span)-1], max)
	}
	if occ := IsOccupied(slot, circuits, poleCount); occ.Occupied {
		return &Conflict{Slot: occ.Slot, CircuitID: occ.ConflictsID}
	}
	return nil
}

func spanFits(start, poleCount, max int, occupied map[int]string) bool {
	span := Span(start, poleCount)
	if span[len(span)-1] > max {
		return false
	}
	for _, s := range span {
		if _, taken := occupied[s]; taken {
			return false
		}
	}
	return true
}
