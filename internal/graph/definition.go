package graph

import (
	"fmt"
	"sort"
)

// Definition is the immutable flow description the scheduler reads during a
// run. Build one with NewDefinition; the connectivity indexes are computed
// once and never change afterwards.
type Definition struct {
	nodes map[string]*NodeSpec
	conns []Connection

	// sourceByInput maps each connected input slot to its single source.
	sourceByInput map[Endpoint]Endpoint
	// targetsByOutput maps each output slot to its downstream input slots.
	targetsByOutput map[Endpoint][]Endpoint
	// inputsByNode lists each node's connected input slots, sorted.
	inputsByNode map[string][]string
}

// NewDefinition builds a Definition from node specs and connections.
// Duplicate node IDs, connections referencing undeclared nodes, and inputs
// fed by more than one source are configuration errors.
func NewDefinition(nodes []*NodeSpec, conns []Connection) (*Definition, error) {
	d := &Definition{
		nodes:           make(map[string]*NodeSpec, len(nodes)),
		conns:           conns,
		sourceByInput:   make(map[Endpoint]Endpoint),
		targetsByOutput: make(map[Endpoint][]Endpoint),
		inputsByNode:    make(map[string][]string),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node with empty ID (unit type %q)", n.UnitType)
		}
		if _, ok := d.nodes[n.ID]; ok {
			return nil, fmt.Errorf("duplicate node ID %q", n.ID)
		}
		d.nodes[n.ID] = n
	}

	for _, c := range conns {
		if _, ok := d.nodes[c.From.Node]; !ok {
			return nil, fmt.Errorf("connection %s -> %s: unknown source node %q", c.From, c.To, c.From.Node)
		}
		if _, ok := d.nodes[c.To.Node]; !ok {
			return nil, fmt.Errorf("connection %s -> %s: unknown destination node %q", c.From, c.To, c.To.Node)
		}
		if prev, ok := d.sourceByInput[c.To]; ok {
			return nil, fmt.Errorf("input %s already fed by %s, cannot also connect %s", c.To, prev, c.From)
		}
		d.sourceByInput[c.To] = c.From
		d.targetsByOutput[c.From] = append(d.targetsByOutput[c.From], c.To)
		d.inputsByNode[c.To.Node] = append(d.inputsByNode[c.To.Node], c.To.Socket)
	}

	for id := range d.inputsByNode {
		sort.Strings(d.inputsByNode[id])
	}

	return d, nil
}

// Node returns the spec for the given node ID.
func (d *Definition) Node(id string) (*NodeSpec, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Nodes returns all node specs in unspecified order.
func (d *Definition) Nodes() []*NodeSpec {
	out := make([]*NodeSpec, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, n)
	}
	return out
}

// Connections returns every connection in declaration order.
func (d *Definition) Connections() []Connection {
	return d.conns
}

// SourceOf returns the output slot feeding the given input slot, if any.
func (d *Definition) SourceOf(node, slot string) (Endpoint, bool) {
	src, ok := d.sourceByInput[Endpoint{Node: node, Socket: slot}]
	return src, ok
}

// TargetsOf returns the input slots fed by the given output slot.
func (d *Definition) TargetsOf(node, slot string) []Endpoint {
	return d.targetsByOutput[Endpoint{Node: node, Socket: slot}]
}

// ConnectedInputs returns the node's connected input slot names, sorted.
func (d *Definition) ConnectedInputs(node string) []string {
	return d.inputsByNode[node]
}
