package slots

import (
	"errors"
	"testing"

	"github.com/panelwise/panelwright/pkg/model"
)

func panel(busAmps int) model.Panel {
	return model.Panel{ID: "p1", Name: "Panel A", BusRatingAmps: busAmps, Voltage: 240, PhaseCount: 1}
}

func circuit(id string, slot, poles int) model.Circuit {
	return model.Circuit{ID: id, PanelID: "p1", CircuitNumber: slot, PoleCount: poles}
}

func TestMaxSlots(t *testing.T) {
	cases := []struct {
		busAmps int
		want    int
	}{
		{100, 10},
		{200, 20},
		{225, 23},
		{400, 40},
		{600, 42}, // capped at the physical limit
	}
	for _, c := range cases {
		if got := MaxSlots(panel(c.busAmps)); got != c.want {
			t.Errorf("MaxSlots(%dA) = %d, want %d", c.busAmps, got, c.want)
		}
	}
}

func TestSpanParityLane(t *testing.T) {
	got := Span(3, 3)
	want := []int{3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Span(3,3) = %v, want %v", got, want)
		}
	}
	if s := Span(2, 2); s[0] != 2 || s[1] != 4 {
		t.Errorf("Span(2,2) = %v, want [2 4]", s)
	}
}

func TestOccupiedSlotsIncludesMultiPoleFootprint(t *testing.T) {
	circuits := []model.Circuit{
		circuit("a", 1, 2), // occupies 1, 3
		circuit("b", 2, 1), // occupies 2
	}
	occ := OccupiedSlots(circuits)
	for _, s := range []int{1, 2, 3} {
		if _, taken := occ[s]; !taken {
			t.Errorf("slot %d should be occupied", s)
		}
	}
	if _, taken := occ[5]; taken {
		t.Error("slot 5 should be free")
	}
}

func TestNextAvailableLowestFirst(t *testing.T) {
	p := panel(200)
	circuits := []model.Circuit{
		circuit("a", 1, 1),
		circuit("b", 2, 1),
	}
	n, err := NextAvailable(p, circuits, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("NextAvailable = %d, want 3", n)
	}

	// A 2-pole breaker at 3 needs 3 and 5 free; with 5 taken the next
	// start that fits is 4 (span 4,6).
	circuits = append(circuits, circuit("c", 5, 1))
	n, err = NextAvailable(p, circuits, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("NextAvailable(2-pole) = %d, want 4", n)
	}
}

func TestIsOccupiedChecksCandidateFootprint(t *testing.T) {
	circuits := []model.Circuit{circuit("a", 5, 1)}

	// Candidate 3-pole at slot 1 spans 1,3,5 and hits the single-pole
	// breaker sitting at 5.
	occ := IsOccupied(1, circuits, 3)
	if !occ.Occupied {
		t.Fatal("3-pole at slot 1 must conflict with circuit at slot 5")
	}
	if occ.Slot != 5 || occ.ConflictsID != "a" {
		t.Errorf("conflict = slot %d circuit %s, want slot 5 circuit a", occ.Slot, occ.ConflictsID)
	}

	if occ := IsOccupied(2, circuits, 3); occ.Occupied {
		t.Error("even lane should be free")
	}
}

func TestValidSlotsRejectsOverhang(t *testing.T) {
	// 200A bus -> 20 slots. A 3-pole start at 19 would span 19,21,23.
	p := panel(200)
	valid := ValidSlots(p, nil, 3)
	for _, n := range valid {
		if n > 16 {
			t.Errorf("start %d allows a 3-pole span past slot 20", n)
		}
	}
	if len(valid) == 0 {
		t.Fatal("empty panel must have valid 3-pole starts")
	}
	if valid[0] != 1 {
		t.Errorf("first valid slot = %d, want 1", valid[0])
	}
}

func TestCheckReportsConflictAndOverhang(t *testing.T) {
	p := panel(200)
	circuits := []model.Circuit{circuit("a", 7, 1)}

	err := Check(p, circuits, 5, 2) // span 5,7 hits circuit a
	var conflict *Conflict
	if !errors.As(err, &conflict) {
		t.Fatalf("Check = %v, want *Conflict", err)
	}
	if conflict.Slot != 7 || conflict.CircuitID != "a" {
		t.Errorf("conflict = %+v, want slot 7 circuit a", conflict)
	}

	if err := Check(p, nil, 19, 3); err == nil {
		t.Error("3-pole at slot 19 of a 20-slot panel must be rejected")
	}
	if err := Check(p, nil, 0, 1); err == nil {
		t.Error("slot 0 must be rejected")
	}
}

// Inserting circuits at NextAvailable repeatedly never overlaps.
func TestSequentialInsertionNeverOverlaps(t *testing.T) {
	p := panel(400)
	var circuits []model.Circuit
	poles := []int{1, 2, 3, 1, 2, 3, 2, 1, 3, 1}
	for i, k := range poles {
		n, err := NextAvailable(p, circuits, k)
		if err != nil {
			t.Fatalf("insertion %d: %v", i, err)
		}
		if occ := IsOccupied(n, circuits, k); occ.Occupied {
			t.Fatalf("NextAvailable returned occupied slot %d", n)
		}
		circuits = append(circuits, model.Circuit{
			ID: string(rune('a' + i)), PanelID: "p1", CircuitNumber: n, PoleCount: k,
		})
	}

	seen := make(map[int]string)
	for _, c := range circuits {
		for _, s := range Span(c.CircuitNumber, c.PoleCount) {
			if prev, dup := seen[s]; dup {
				t.Fatalf("slot %d claimed by both %s and %s", s, prev, c.ID)
			}
			seen[s] = c.ID
		}
	}
}
