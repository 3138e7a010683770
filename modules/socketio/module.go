// Package socketio provides Socket.IO units: 'socketio_listen' roots runs on
// incoming events and 'socketio_request' emits one event, optionally waiting
// for a reply event.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type connConfig struct {
	url                string
	namespace          string
	insecureSkipVerify bool
}

func loadConnConfig(b *unit.Binding) (connConfig, error) {
	cfg := connConfig{
		url:                b.ConfigString("url", ""),
		namespace:          b.ConfigString("namespace", "/"),
		insecureSkipVerify: b.ConfigBool("insecure_skip_verify", false),
	}
	if cfg.url == "" {
		return cfg, fmt.Errorf("node %q: requires a 'url'", b.NodeID)
	}
	return cfg, nil
}

// dial builds a connected socket handle for cfg. The caller owns disconnect.
func dial(cfg connConfig) (*socket.Socket, error) {
	parsedURL, err := url.Parse(cfg.url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.insecureSkipVerify {
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	return manager.Socket(cfg.namespace, opts), nil
}

// toCty converts a decoded Socket.IO payload into a value via its JSON form.
func toCty(data any) cty.Value {
	raw, err := json.Marshal(data)
	if err != nil {
		return cty.StringVal(fmt.Sprintf("%v", data))
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.StringVal(string(raw))
	}
	v, err := ctyjson.Unmarshal(raw, ty)
	if err != nil {
		return cty.StringVal(string(raw))
	}
	return v
}

// fromCty converts a value into the Go shape the Socket.IO client emits.
func fromCty(v cty.Value) any {
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}

// listenUnit keeps a long-lived connection and starts one run per received
// event.
type listenUnit struct {
	cfg     connConfig
	onEvent string

	mu sync.Mutex
	io *socket.Socket
}

func (u *listenUnit) Load(ctx context.Context, b *unit.Binding) error {
	cfg, err := loadConnConfig(b)
	if err != nil {
		return err
	}
	u.cfg = cfg
	u.onEvent = b.ConfigString("on_event", "")
	if u.onEvent == "" {
		return fmt.Errorf("node %q: socketio_listen requires an 'on_event'", b.NodeID)
	}
	return nil
}

func (u *listenUnit) StartListening(ctx context.Context, trigger unit.TriggerFunc) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.io != nil {
		return fmt.Errorf("socketio_listen already listening")
	}

	io, err := dial(u.cfg)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx).With("url", u.cfg.url, "onEvent", u.onEvent)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "namespace", u.cfg.namespace, "sid", io.Id())
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		logger.Error("Connection error", "error", errs)
	})
	io.On(types.EventName(u.onEvent), func(data ...any) {
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		trigger(toCty(payload))
	})
	io.Connect()

	u.io = io
	return nil
}

func (u *listenUnit) StopListening(ctx context.Context) error {
	u.mu.Lock()
	io := u.io
	u.io = nil
	u.mu.Unlock()
	if io != nil {
		io.Disconnect()
	}
	return nil
}

func (u *listenUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	return &unit.Result{Outputs: []unit.Output{unit.Val(inv.Seed)}}, nil
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value cty.Value
	err   error
}

// requestUnit opens a fresh connection per firing, emits its input, and
// optionally waits for a reply event before reporting back.
type requestUnit struct {
	cfg       connConfig
	emitEvent string
	onEvent   string
	timeout   time.Duration
}

func (u *requestUnit) Load(ctx context.Context, b *unit.Binding) error {
	cfg, err := loadConnConfig(b)
	if err != nil {
		return err
	}
	u.cfg = cfg
	u.emitEvent = b.ConfigString("emit_event", "")
	if u.emitEvent == "" {
		return fmt.Errorf("node %q: socketio_request requires an 'emit_event'", b.NodeID)
	}
	u.onEvent = b.ConfigString("on_event", "")

	timeout, err := time.ParseDuration(b.ConfigString("timeout", "10s"))
	if err != nil {
		return fmt.Errorf("node %q: invalid timeout: %w", b.NodeID, err)
	}
	u.timeout = timeout
	return nil
}

func (u *requestUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	logger := ctxlog.FromContext(ctx).With("url", u.cfg.url, "emitEvent", u.emitEvent, "onEvent", u.onEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	var emitData any
	if v, ok := inv.Arg("data"); ok {
		emitData = fromCty(v)
	}

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	io, err := dial(u.cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", u.cfg.namespace, "sid", io.Id())
		io.Emit(u.emitEvent, emitData)
		if u.onEvent == "" {
			done <- opResult{value: cty.NullVal(cty.DynamicPseudoType)}
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		done <- opResult{err: errs[0].(error)}
	})
	if u.onEvent != "" {
		io.On(types.EventName(u.onEvent), func(data ...any) {
			var responseData any
			if len(data) > 0 {
				responseData = data[0]
			}
			done <- opResult{value: toCty(responseData)}
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event '%s'", u.onEvent)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return &unit.Result{Outputs: []unit.Output{unit.Val(res.value)}}, nil
	}
}

// Register registers the unit types with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "socketio_listen",
		New:      func() unit.Unit { return &listenUnit{} },
		Outputs: []graph.SocketSpec{
			{Name: "event", Type: cty.DynamicPseudoType},
		},
	})
	r.Register(&registry.Entry{
		UnitType: "socketio_request",
		New:      func() unit.Unit { return &requestUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "data", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "response_data", Type: cty.DynamicPseudoType},
		},
	})
}
