package layout

import (
	"testing"

	"github.com/panelwise/panelwright/pkg/model"
	"github.com/panelwise/panelwright/pkg/topology"
)

func buildTree(t *testing.T, snap *model.Snapshot) *topology.Topology {
	t.Helper()
	topo, err := topology.Build(snap)
	if err != nil {
		t.Fatal(err)
	}
	return topo
}

func panelSnap() *model.Snapshot {
	return &model.Snapshot{
		Service: model.ServiceEntrance{Voltage: 240, PhaseCount: 1},
		Panels: []model.Panel{
			{ID: "mdp", Name: "MDP", BusRatingAmps: 200, Voltage: 240, PhaseCount: 1, IsMain: true,
				FedFrom: model.FeedSource{Kind: model.SourceService}},
			{ID: "sub1", Name: "Garage", BusRatingAmps: 100, Voltage: 240, PhaseCount: 1,
				FedFrom: model.FeedSource{Kind: model.SourcePanel, ID: "mdp"}},
			{ID: "sub2", Name: "Shop", BusRatingAmps: 100, Voltage: 240, PhaseCount: 1,
				FedFrom: model.FeedSource{Kind: model.SourcePanel, ID: "mdp"}},
		},
	}
}

func geoByID(geos []NodeGeometry) map[string]NodeGeometry {
	m := make(map[string]NodeGeometry, len(geos))
	for _, g := range geos {
		m[g.NodeID] = g
	}
	return m
}

func TestLayoutBands(t *testing.T) {
	geos := Layout(buildTree(t, panelSnap()))
	byID := geoByID(geos)

	svc := byID["service"]
	meter := byID[MeterNodeID]
	mdp := byID["mdp"]
	sub := byID["sub1"]

	if svc.Y != serviceY {
		t.Errorf("service y = %.0f, want %d", svc.Y, serviceY)
	}
	if meter.Y != meterY || meter.X != svc.X {
		t.Errorf("meter must sit under the service drop, got (%.0f, %.0f)", meter.X, meter.Y)
	}
	if mdp.Y != firstBandY {
		t.Errorf("depth-1 y = %.0f, want %d", mdp.Y, firstBandY)
	}
	if sub.Y != firstBandY+bandHeight {
		t.Errorf("depth-2 y = %.0f, want %d", sub.Y, firstBandY+bandHeight)
	}
}

func TestLayoutSiblingsCenteredOnParent(t *testing.T) {
	geos := Layout(buildTree(t, panelSnap()))
	byID := geoByID(geos)

	mdp := byID["mdp"]
	s1 := byID["sub1"]
	s2 := byID["sub2"]

	// Two children at depth 2: offsets of -45 and +45 around the parent.
	if s1.X != mdp.X-45 || s2.X != mdp.X+45 {
		t.Errorf("siblings at (%.0f, %.0f), want centered at %.0f +/- 45", s1.X, s2.X, mdp.X)
	}
	if (s1.X+s2.X)/2 != mdp.X {
		t.Error("sibling group must be centered on the parent x")
	}
}

func TestLayoutSingleChildDirectDrop(t *testing.T) {
	snap := panelSnap()
	snap.Panels = snap.Panels[:2] // mdp + one sub
	geos := Layout(buildTree(t, snap))
	byID := geoByID(geos)

	mdp := byID["mdp"]
	if mdp.BusBar == nil {
		t.Fatal("parent with one child needs a drop")
	}
	if mdp.BusBar.Bus != nil {
		t.Error("single child must not get a horizontal bus")
	}
	if len(mdp.BusBar.Drops) != 1 {
		t.Fatalf("want one direct drop, got %d", len(mdp.BusBar.Drops))
	}
	d := mdp.BusBar.Drops[0]
	if d.Y1 != mdp.Y+nodeHalfHeight {
		t.Errorf("drop starts at %.0f, want parent bottom %.0f", d.Y1, mdp.Y+nodeHalfHeight)
	}
	sub := byID["sub1"]
	if d.Y2 != sub.Y-nodeHalfHeight {
		t.Errorf("drop ends at %.0f, want child top %.0f", d.Y2, sub.Y-nodeHalfHeight)
	}
}

func TestLayoutMultiChildBus(t *testing.T) {
	geos := Layout(buildTree(t, panelSnap()))
	byID := geoByID(geos)

	mdp := byID["mdp"]
	if mdp.BusBar == nil || mdp.BusBar.Bus == nil {
		t.Fatal("two children require a horizontal bus")
	}
	bus := mdp.BusBar.Bus
	if bus.Y1 != mdp.Y+nodeHalfHeight+busOffset || bus.Y1 != bus.Y2 {
		t.Errorf("bus at y %.0f/%.0f, want horizontal at parentBottom+%d", bus.Y1, bus.Y2, busOffset)
	}
	s1 := byID["sub1"]
	s2 := byID["sub2"]
	if bus.X1 != s1.X || bus.X2 != s2.X {
		t.Errorf("bus spans %.0f..%.0f, want %.0f..%.0f", bus.X1, bus.X2, s1.X, s2.X)
	}
	// One feed drop from the parent plus one per child.
	if len(mdp.BusBar.Drops) != 3 {
		t.Errorf("drops = %d, want 3", len(mdp.BusBar.Drops))
	}
}

func TestLayoutLeafHasNoGeometry(t *testing.T) {
	geos := Layout(buildTree(t, panelSnap()))
	for _, g := range geos {
		if g.NodeID == "sub1" && g.BusBar != nil {
			t.Error("leaf node must carry no bus geometry")
		}
	}
}

func TestLayoutSpacingShrinksByDepth(t *testing.T) {
	if spacing(1) != 140 || spacing(2) != 90 || spacing(3) != 70 || spacing(5) != 70 {
		t.Errorf("spacing = %.0f/%.0f/%.0f, want 140/90/70",
			spacing(1), spacing(2), spacing(3))
	}
}

func TestLayoutDeterministic(t *testing.T) {
	topo := buildTree(t, panelSnap())
	a := Layout(topo)
	b := Layout(topo)
	if len(a) != len(b) {
		t.Fatal("node counts differ between runs")
	}
	for i := range a {
		if a[i].NodeID != b[i].NodeID || a[i].X != b[i].X || a[i].Y != b[i].Y {
			t.Fatalf("geometry differs at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestLayoutNilTopology(t *testing.T) {
	if got := Layout(nil); got != nil {
		t.Errorf("nil tree must produce no geometry, got %d nodes", len(got))
	}
}
