package graph

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// SocketSpec describes one declared input or output socket of a unit type.
type SocketSpec struct {
	// Name is the socket's base name. Array sockets materialize concrete
	// slots named Name_0, Name_1, ... at connection time.
	Name string

	// Type constrains values flowing through the socket.
	// cty.DynamicPseudoType accepts anything.
	Type cty.Type

	// IsDependency marks a pull input: the engine recursively triggers the
	// socket's upstream source instead of waiting for a push.
	IsDependency bool

	// DoNotWait excludes the socket from the node's wait list. It strictly
	// overrides IsDependency when both are set.
	DoNotWait bool

	// IsArray marks a dynamic-arity socket.
	IsArray bool
}

// NodeSpec is one node instance in a flow definition.
type NodeSpec struct {
	ID       string
	UnitType string

	// Config holds the node's static configuration values from the flow file.
	Config map[string]cty.Value
}

// Endpoint addresses one concrete socket slot of one node.
type Endpoint struct {
	Node   string
	Socket string
}

// String returns the canonical "node.socket" form.
func (e Endpoint) String() string {
	return e.Node + "." + e.Socket
}

// ParseEndpoint parses the canonical "node.socket" address form.
func ParseEndpoint(raw string) (Endpoint, error) {
	node, socket, ok := strings.Cut(raw, ".")
	if !ok || node == "" || socket == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: want \"node.socket\"", raw)
	}
	return Endpoint{Node: node, Socket: socket}, nil
}

// Connection is one directed edge from an output slot to an input slot.
type Connection struct {
	From Endpoint
	To   Endpoint
}
