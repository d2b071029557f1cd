// Package layout turns a validated feed tree into one-line diagram
// geometry: a coordinate per node plus the bus and drop segments that
// connect each parent to its children. It is a pure function over the
// tree and does no validation of its own.
package layout

import (
	"github.com/panelwise/panelwright/pkg/model"
	"github.com/panelwise/panelwright/pkg/topology"
)

// Vertical bands and symbol dimensions, in diagram units.
const (
	serviceY   = 40
	meterY     = 130
	firstBandY = 220
	bandHeight = 110

	nodeHalfHeight = 25
	busOffset      = 30
)

// MeterNodeID is the synthetic id of the utility meter symbol drawn
// between the service entrance and the first panel band.
const MeterNodeID = "meter"

// Segment is one straight line of feeder or bus geometry.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// BusBar is the connection geometry below one parent node. With a single
// child there is no horizontal bus, only the direct drop.
type BusBar struct {
	Bus   *Segment  `json:"bus,omitempty"`
	Drops []Segment `json:"drops"`
}

// NodeGeometry is the placed position of one tree node. X and Y are the
// symbol center.
type NodeGeometry struct {
	NodeID string           `json:"nodeId"`
	Kind   model.SourceKind `json:"kind"`
	Name   string           `json:"name"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	BusBar *BusBar          `json:"busBar,omitempty"`
}

// spacing returns the horizontal sibling spacing for a band. Deeper
// bands pack tighter so wide trees still fit.
func spacing(depth int) float64 {
	switch {
	case depth <= 1:
		return 140
	case depth == 2:
		return 90
	default:
		return 70
	}
}

// bandY returns the vertical band for a node depth. Depth 0 is the
// service entrance; panel bands start below the meter.
func bandY(depth int) float64 {
	if depth == 0 {
		return serviceY
	}
	return firstBandY + float64(depth-1)*bandHeight
}

// Layout places every node of the tree in a single depth-first pass.
// Siblings are centered on their parent; dense sibling groups may
// overlap, which is accepted rather than resolved.
func Layout(t *topology.Topology) []NodeGeometry {
	if t == nil || t.Root == nil {
		return nil
	}

	out := make([]NodeGeometry, 0, len(t.Nodes)+1)
	rootX := 400.0

	out = append(out, NodeGeometry{
		NodeID: MeterNodeID,
		Kind:   model.SourceService,
		Name:   "Meter",
		X:      rootX,
		Y:      meterY,
	})

	place(t.Root, rootX, &out)
	return out
}

// place positions one node, its connection geometry, and recursively its
// subtree. Child x positions are fixed before descending so the bus
// segments can be emitted in the same pass.
func place(n *topology.Node, x float64, out *[]NodeGeometry) {
	geo := NodeGeometry{
		NodeID: n.ID,
		Kind:   n.Kind,
		Name:   n.Name,
		X:      x,
		Y:      bandY(n.Depth),
	}

	children := n.Children
	childY := bandY(n.Depth + 1)
	childXs := make([]float64, len(children))
	count := float64(len(children))
	for i := range children {
		childXs[i] = x + (float64(i)-(count-1)/2)*spacing(n.Depth+1)
	}

	parentBottom := geo.Y + nodeHalfHeight
	switch len(children) {
	case 0:
		// Leaf, no connection geometry.
	case 1:
		geo.BusBar = &BusBar{
			Drops: []Segment{{X1: x, Y1: parentBottom, X2: childXs[0], Y2: childY - nodeHalfHeight}},
		}
	default:
		busY := parentBottom + busOffset
		bar := &BusBar{
			Bus:   &Segment{X1: childXs[0], Y1: busY, X2: childXs[len(childXs)-1], Y2: busY},
			Drops: make([]Segment, 0, len(children)+1),
		}
		bar.Drops = append(bar.Drops, Segment{X1: x, Y1: parentBottom, X2: x, Y2: busY})
		for _, cx := range childXs {
			bar.Drops = append(bar.Drops, Segment{X1: cx, Y1: busY, X2: cx, Y2: childY - nodeHalfHeight})
		}
		geo.BusBar = bar
	}

	*out = append(*out, geo)
	for i, c := range children {
		place(c, childXs[i], out)
	}
}
