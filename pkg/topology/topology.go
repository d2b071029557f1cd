// Package topology builds the validated feed tree for a project: service
// entrance at the root, panels and transformers below it, every edge
// checked by the connection validator. The result is a typed tree the
// layout engine can consume without re-validating anything.
package topology

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panelwise/panelwright/pkg/connection"
	"github.com/panelwise/panelwright/pkg/model"
	"github.com/panelwise/panelwright/pkg/slots"
)

// serviceNodeID is the synthetic id of the service entrance node.
const serviceNodeID = "service"

// StructuralError is a fatal defect in the feed tree itself: a cycle, a
// dangling reference, or a duplicate id. It is never auto-corrected.
type StructuralError struct {
	NodeID string
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %s: %s", e.NodeID, e.Detail)
}

// ConnectionError is a blocked feed edge.
type ConnectionError struct {
	FromID string
	ToID   string
	Result connection.Result
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot feed %s from %s: %s", e.ToID, e.FromID, e.Result.Reason)
}

// CircuitError is an invalid circuit found while validating a snapshot.
type CircuitError struct {
	PanelID   string
	CircuitID string
	Detail    string
}

func (e *CircuitError) Error() string {
	return fmt.Sprintf("circuit %s in panel %s: %s", e.CircuitID, e.PanelID, e.Detail)
}

// Advisory is a non-fatal finding surfaced to the caller.
type Advisory struct {
	FromID  string `json:"fromId,omitempty"`
	ToID    string `json:"toId,omitempty"`
	Message string `json:"message"`
}

// Node is one validated element of the feed tree. Voltage and Phase are
// what the node presents to downstream connections (a transformer's
// secondary side).
type Node struct {
	ID          string             `json:"id"`
	Kind        model.SourceKind   `json:"kind"`
	Name        string             `json:"name"`
	Voltage     int                `json:"voltage"`
	Phase       int                `json:"phase"`
	Depth       int                `json:"depth"`
	Panel       *model.Panel       `json:"panel,omitempty"`
	Transformer *model.Transformer `json:"transformer,omitempty"`
	Children    []*Node            `json:"-"`
}

// Topology is the validated feed tree.
type Topology struct {
	Root       *Node            `json:"root"`
	Nodes      map[string]*Node `json:"nodes"`
	MainPanel  *Node            `json:"-"`
	Advisories []Advisory       `json:"advisories,omitempty"`
}

// Build validates the snapshot and assembles the feed tree. A blocked
// connection or any structural defect fails the whole build; warnings are
// collected as advisories on the result.
func Build(snap *model.Snapshot) (*Topology, error) {
	root := &Node{
		ID:      serviceNodeID,
		Kind:    model.SourceService,
		Name:    "Service Entrance",
		Voltage: snap.Service.Voltage,
		Phase:   snap.Service.PhaseCount,
	}

	nodes := map[string]*Node{serviceNodeID: root}

	for i := range snap.Panels {
		p := &snap.Panels[i]
		if _, dup := nodes[p.ID]; dup {
			return nil, &StructuralError{NodeID: p.ID, Detail: "duplicate node id"}
		}
		nodes[p.ID] = &Node{
			ID:      p.ID,
			Kind:    model.SourcePanel,
			Name:    p.Name,
			Voltage: p.Voltage,
			Phase:   p.PhaseCount,
			Panel:   p,
		}
	}
	for i := range snap.Transformers {
		tr := &snap.Transformers[i]
		if _, dup := nodes[tr.ID]; dup {
			return nil, &StructuralError{NodeID: tr.ID, Detail: "duplicate node id"}
		}
		nodes[tr.ID] = &Node{
			ID:          tr.ID,
			Kind:        model.SourceTransformer,
			Name:        tr.Name,
			Voltage:     tr.SecondaryVoltage,
			Phase:       tr.SecondaryPhase,
			Transformer: tr,
		}
	}

	t := &Topology{Root: root, Nodes: nodes}

	// Resolve every edge in stable id order, validating voltage/phase
	// compatibility. Ordered iteration keeps advisory order and the
	// reported blocking edge identical across rebuilds of one snapshot.
	parent := make(map[string]string)
	for _, n := range orderedNodes(nodes) {
		switch n.Kind {
		case model.SourcePanel:
			src, err := t.resolveSource(n.Panel.FedFrom)
			if err != nil {
				return nil, err
			}
			if src.ID == n.ID {
				return nil, &StructuralError{NodeID: n.ID, Detail: "panel feeds itself"}
			}
			res := connection.Validate(src.Voltage, src.Phase, n.Voltage, n.Phase)
			switch res.Severity {
			case connection.Block:
				return nil, &ConnectionError{FromID: src.ID, ToID: n.ID, Result: res}
			case connection.Warn:
				t.Advisories = append(t.Advisories, Advisory{
					FromID: src.ID, ToID: n.ID, Message: res.Reason,
				})
			}
			parent[n.ID] = src.ID

		case model.SourceTransformer:
			src, ok := nodes[n.Transformer.FedFromPanel]
			if !ok || src.Kind != model.SourcePanel {
				return nil, &StructuralError{
					NodeID: n.ID,
					Detail: fmt.Sprintf("fed from unknown panel %q", n.Transformer.FedFromPanel),
				}
			}
			// The primary side must match the feeding panel exactly;
			// stepping happens inside the transformer.
			if src.Voltage != n.Transformer.PrimaryVoltage || src.Phase != n.Transformer.PrimaryPhase {
				return nil, &ConnectionError{
					FromID: src.ID,
					ToID:   n.ID,
					Result: connection.Result{
						Severity: connection.Block,
						Reason: fmt.Sprintf("transformer primary %dV/%dph does not match panel %dV/%dph",
							n.Transformer.PrimaryVoltage, n.Transformer.PrimaryPhase, src.Voltage, src.Phase),
					},
				}
			}
			parent[n.ID] = src.ID
		}
	}

	g, gid, byGID := t.feedGraph(parent)
	if _, err := topo.Sort(g); err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) && len(cycles) > 0 && len(cycles[0]) > 0 {
			return nil, &StructuralError{
				NodeID: byGID[cycles[0][0].ID()].ID,
				Detail: "feed cycle: node feeds itself transitively",
			}
		}
		return nil, &StructuralError{NodeID: serviceNodeID, Detail: err.Error()}
	}

	if err := validateCircuits(snap); err != nil {
		return nil, err
	}

	t.assemble(g, gid, byGID)

	mains := 0
	for _, n := range orderedNodes(nodes) {
		if n.Kind == model.SourcePanel && n.Panel.IsMain {
			mains++
			if t.MainPanel == nil {
				t.MainPanel = n
			}
		}
	}
	if mains > 1 {
		t.Advisories = append(t.Advisories, Advisory{
			Message: fmt.Sprintf("%d panels are marked as main; using %q as the topology root for rendering", mains, t.MainPanel.Name),
		})
	}

	return t, nil
}

// resolveSource maps a FedFrom reference to its validated node.
func (t *Topology) resolveSource(f model.FeedSource) (*Node, error) {
	if f.Kind == model.SourceService {
		return t.Root, nil
	}
	n, ok := t.Nodes[f.ID]
	if !ok {
		return nil, &StructuralError{NodeID: f.ID, Detail: "dangling fedFrom reference"}
	}
	if n.Kind != f.Kind {
		return nil, &StructuralError{
			NodeID: f.ID,
			Detail: fmt.Sprintf("fedFrom names a %s but %s is a %s", f.Kind, f.ID, n.Kind),
		}
	}
	return n, nil
}

// feedGraph maps the parent relation onto a gonum directed graph, used
// for the structural cycle check and the traversal in assemble.
func (t *Topology) feedGraph(parent map[string]string) (*simple.DirectedGraph, map[string]int64, map[int64]*Node) {
	g := simple.NewDirectedGraph()
	gid := make(map[string]int64)
	byGID := make(map[int64]*Node)
	for _, n := range orderedNodes(t.Nodes) {
		node := g.NewNode()
		g.AddNode(node)
		gid[n.ID] = node.ID()
		byGID[node.ID()] = n
	}
	for child, par := range parent {
		g.SetEdge(g.NewEdge(g.Node(gid[par]), g.Node(gid[child])))
	}
	return g, gid, byGID
}

// validateCircuits applies per-circuit invariants over the snapshot:
// slot occupancy (including multi-pole spans) and the pole/phase rule.
func validateCircuits(snap *model.Snapshot) error {
	for i := range snap.Panels {
		p := snap.Panels[i]
		circuits := snap.PanelCircuits(p.ID)
		for j, c := range circuits {
			if c.PoleCount < 1 || c.PoleCount > 3 {
				return &CircuitError{PanelID: p.ID, CircuitID: c.ID, Detail: fmt.Sprintf("pole count %d out of range", c.PoleCount)}
			}
			if c.PoleCount == 3 && p.PhaseCount == 1 {
				return &CircuitError{PanelID: p.ID, CircuitID: c.ID, Detail: "3-pole breaker in a single-phase panel"}
			}
			// Check this circuit against the ones before it so each
			// conflict is reported once.
			if err := slots.Check(p, circuits[:j], c.CircuitNumber, c.PoleCount); err != nil {
				return &CircuitError{PanelID: p.ID, CircuitID: c.ID, Detail: err.Error()}
			}
		}
	}
	return nil
}

// assemble builds the child lists and depth assignments with a
// breadth-first walk of the feed graph from the service node.
func (t *Topology) assemble(g *simple.DirectedGraph, gid map[string]int64, byGID map[int64]*Node) {
	// Child order is made stable by sorting on the domain id.
	queue := []*Node{t.Root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var children []*Node
		it := g.From(gid[cur.ID])
		for it.Next() {
			children = append(children, byGID[it.Node().ID()])
		}
		sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })

		cur.Children = children
		for _, c := range children {
			c.Depth = cur.Depth + 1
			queue = append(queue, c)
		}
	}
}

// orderedNodes returns the node set in stable id order.
func orderedNodes(nodes map[string]*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Walk visits every node reachable from the root, depth-first, parents
// before children.
func (t *Topology) Walk(visit func(*Node)) {
	var dfs func(*Node)
	dfs = func(n *Node) {
		visit(n)
		for _, c := range n.Children {
			dfs(c)
		}
	}
	dfs(t.Root)
}
