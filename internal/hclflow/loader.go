package hclflow

import (
	"context"
	"fmt"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/fsutil"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the file suffix flow files must carry.
const Extension = ".hcl"

// Loader parses flow files into a graph.Definition.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader returns a Loader with a fresh parser cache.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every flow file under path (a single file or a directory tree)
// and assembles one Definition from their combined blocks.
func (l *Loader) Load(ctx context.Context, path string) (*graph.Definition, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, Extension)
	if err != nil {
		return nil, fmt.Errorf("resolving flow path %q: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found under %q", Extension, path)
	}
	logger.Debug("Flow files located.", "count", len(files))

	var nodes []*graph.NodeSpec
	var conns []graph.Connection
	for _, file := range files {
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}
		fileNodes, fileConns, err := decodeBody(hclFile.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", file, err)
		}
		nodes = append(nodes, fileNodes...)
		conns = append(conns, fileConns...)
	}

	def, err := graph.NewDefinition(nodes, conns)
	if err != nil {
		return nil, fmt.Errorf("assembling flow definition: %w", err)
	}
	logger.Debug("Flow definition assembled.", "nodes", len(nodes), "connections", len(conns))
	return def, nil
}

// LoadSource parses a flow from in-memory HCL source, for tests and
// embedded flows.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*graph.Definition, error) {
	hclFile, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}
	nodes, conns, err := decodeBody(hclFile.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return graph.NewDefinition(nodes, conns)
}

var flowSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "unit", LabelNames: []string{"type", "name"}},
		{Type: "connect"},
	},
}

var unitSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "config"},
	},
}

var connectSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "from", Required: true},
		{Name: "to", Required: true},
	},
}

func decodeBody(body hcl.Body) ([]*graph.NodeSpec, []graph.Connection, error) {
	content, diags := body.Content(flowSchema)
	if diags.HasErrors() {
		return nil, nil, diags
	}

	var nodes []*graph.NodeSpec
	var conns []graph.Connection
	for _, block := range content.Blocks {
		switch block.Type {
		case "unit":
			node, err := decodeUnit(block)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, node)
		case "connect":
			conn, err := decodeConnect(block)
			if err != nil {
				return nil, nil, err
			}
			conns = append(conns, conn)
		}
	}
	return nodes, conns, nil
}

func decodeUnit(block *hcl.Block) (*graph.NodeSpec, error) {
	unitType, name := block.Labels[0], block.Labels[1]
	content, diags := block.Body.Content(unitSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("unit %q: %w", name, diags)
	}

	node := &graph.NodeSpec{ID: name, UnitType: unitType}
	for _, inner := range content.Blocks {
		attrs, diags := inner.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("unit %q config: %w", name, diags)
		}
		if node.Config == nil {
			node.Config = make(map[string]cty.Value, len(attrs))
		}
		for attrName, attr := range attrs {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("unit %q config %q: %w", name, attrName, diags)
			}
			node.Config[attrName] = v
		}
	}
	return node, nil
}

func decodeConnect(block *hcl.Block) (graph.Connection, error) {
	content, diags := block.Body.Content(connectSchema)
	if diags.HasErrors() {
		return graph.Connection{}, fmt.Errorf("connect block: %w", diags)
	}

	from, err := endpointAttr(content.Attributes["from"])
	if err != nil {
		return graph.Connection{}, err
	}
	to, err := endpointAttr(content.Attributes["to"])
	if err != nil {
		return graph.Connection{}, err
	}
	return graph.Connection{From: from, To: to}, nil
}

func endpointAttr(attr *hcl.Attribute) (graph.Endpoint, error) {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return graph.Endpoint{}, fmt.Errorf("connect %s: %w", attr.Name, diags)
	}
	if v.Type() != cty.String {
		return graph.Endpoint{}, fmt.Errorf("connect %s must be a \"node.socket\" string", attr.Name)
	}
	return graph.ParseEndpoint(v.AsString())
}
