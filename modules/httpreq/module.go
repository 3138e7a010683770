// Package httpreq provides the 'http_request' unit.
package httpreq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpRequestUnit issues one request per firing. The URL comes from config
// or, when wired, from the 'url' input; the request body rides in on 'body'.
type httpRequestUnit struct {
	client  *resty.Client
	method  string
	url     string
	headers map[string]string
}

func (u *httpRequestUnit) Load(ctx context.Context, b *unit.Binding) error {
	u.method = strings.ToUpper(b.ConfigString("method", "GET"))
	u.url = b.ConfigString("url", "")

	if hv, ok := b.ConfigValue("headers"); ok && hv.CanIterateElements() {
		u.headers = make(map[string]string)
		for k, v := range hv.AsValueMap() {
			u.headers[k] = v.AsString()
		}
	}

	timeout, err := time.ParseDuration(b.ConfigString("timeout", "30s"))
	if err != nil {
		return fmt.Errorf("node %q: invalid timeout: %w", b.NodeID, err)
	}
	u.client = resty.New().SetTimeout(timeout)
	return nil
}

func (u *httpRequestUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	url := u.url
	if v, ok := inv.Arg("url"); ok && !v.IsNull() {
		url = v.AsString()
	}
	if url == "" {
		return nil, fmt.Errorf("node %q: no url configured or wired", inv.NodeID)
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", u.method, "url", url)

	req := u.client.R().SetContext(ctx).SetHeaders(u.headers)
	if body, ok := inv.Arg("body"); ok && !body.IsNull() {
		req.SetBody(body.AsString())
	}

	resp, err := req.Execute(u.method, url)
	if err != nil {
		return nil, fmt.Errorf("node %q: request failed: %w", inv.NodeID, err)
	}
	logger.Info("Received HTTP response", "status", resp.Status())

	return &unit.Result{Outputs: []unit.Output{
		unit.Val(cty.NumberIntVal(int64(resp.StatusCode()))),
		unit.Val(cty.StringVal(resp.String())),
	}}, nil
}

// Register registers the unit type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "http_request",
		New:      func() unit.Unit { return &httpRequestUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "url", Type: cty.String, DoNotWait: true},
			{Name: "body", Type: cty.String},
		},
		Outputs: []graph.SocketSpec{
			{Name: "status_code", Type: cty.Number},
			{Name: "body", Type: cty.String},
		},
	})
}
