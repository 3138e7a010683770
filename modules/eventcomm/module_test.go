package eventcomm

import (
	"context"
	"testing"

	"github.com/fluxwire/fluxwire/internal/events"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEventIDs(t *testing.T) {
	t.Run("single event_id", func(t *testing.T) {
		ids, err := eventIDs(&unit.Binding{
			NodeID: "n",
			Config: map[string]cty.Value{"event_id": cty.StringVal("ping")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"ping"}, ids)
	})

	t.Run("event_ids list", func(t *testing.T) {
		ids, err := eventIDs(&unit.Binding{
			NodeID: "n",
			Config: map[string]cty.Value{
				"event_ids": cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)
	})

	t.Run("neither configured", func(t *testing.T) {
		_, err := eventIDs(&unit.Binding{NodeID: "n"})
		assert.ErrorContains(t, err, "event_id")
	})
}

func TestSendEvent(t *testing.T) {
	ctx := context.Background()
	ev := events.NewManager()

	var got []events.Envelope
	require.NoError(t, ev.Subscribe("ping", func(_ context.Context, env events.Envelope) {
		got = append(got, env)
	}))

	u := &sendEventUnit{}
	require.NoError(t, u.Load(ctx, &unit.Binding{
		NodeID: "send",
		Config: map[string]cty.Value{"event_id": cty.StringVal("ping")},
	}))

	res, err := u.Execute(ctx, &unit.Invocation{
		NodeID: "send",
		Args:   map[string]cty.Value{"data": cty.StringVal("hello")},
		Events: ev,
	})
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(1).RawEquals(res.Outputs[0].Value()))
	require.Len(t, got, 1)
	assert.True(t, cty.StringVal("hello").RawEquals(got[0].Data))
	assert.Empty(t, got[0].AwaitID, "plain send carries no await correlation")
}

func TestAwaitEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("collects responses", func(t *testing.T) {
		ev := events.NewManager()
		require.NoError(t, ev.Subscribe("ping", func(_ context.Context, env events.Envelope) {
			ev.Respond(env.AwaitID, cty.StringVal("pong"))
		}))

		u := &awaitEventUnit{}
		require.NoError(t, u.Load(ctx, &unit.Binding{
			NodeID: "aw",
			Config: map[string]cty.Value{
				"event_id": cty.StringVal("ping"),
				"timeout":  cty.StringVal("2s"),
			},
		}))

		res, err := u.Execute(ctx, &unit.Invocation{NodeID: "aw", Events: ev})
		require.NoError(t, err)
		want := cty.TupleVal([]cty.Value{cty.StringVal("pong")})
		assert.True(t, want.RawEquals(res.Outputs[0].Value()))
		assert.True(t, cty.False.RawEquals(res.Outputs[1].Value()))
		assert.True(t, res.Outputs[2].IsSkip(), "no diagnostic on success")
	})

	t.Run("timeout reports partial result and diagnostic", func(t *testing.T) {
		ev := events.NewManager()
		require.NoError(t, ev.Subscribe("ping", func(_ context.Context, env events.Envelope) {
			// Listener never responds.
		}))

		u := &awaitEventUnit{}
		require.NoError(t, u.Load(ctx, &unit.Binding{
			NodeID: "aw",
			Config: map[string]cty.Value{
				"event_id": cty.StringVal("ping"),
				"timeout":  cty.StringVal("30ms"),
			},
		}))

		res, err := u.Execute(ctx, &unit.Invocation{NodeID: "aw", Events: ev})
		require.NoError(t, err)
		assert.True(t, cty.EmptyTupleVal.RawEquals(res.Outputs[0].Value()))
		assert.True(t, cty.True.RawEquals(res.Outputs[1].Value()))
		assert.Contains(t, res.Outputs[2].Value().AsString(), "collected 0 of 1")
	})

	t.Run("no listeners", func(t *testing.T) {
		ev := events.NewManager()
		u := &awaitEventUnit{}
		require.NoError(t, u.Load(ctx, &unit.Binding{
			NodeID: "aw",
			Config: map[string]cty.Value{"event_id": cty.StringVal("ghost")},
		}))

		res, err := u.Execute(ctx, &unit.Invocation{NodeID: "aw", Events: ev})
		require.NoError(t, err)
		assert.True(t, cty.EmptyTupleVal.RawEquals(res.Outputs[0].Value()))
		assert.True(t, cty.False.RawEquals(res.Outputs[1].Value()))
	})
}

func TestReceiveEvent(t *testing.T) {
	ctx := context.Background()
	ev := events.NewManager()

	u := &receiveEventUnit{ev: ev}
	require.NoError(t, u.Load(ctx, &unit.Binding{
		NodeID: "recv",
		Config: map[string]cty.Value{"event_id": cty.StringVal("ping")},
	}))

	var seeds []cty.Value
	require.NoError(t, u.StartListening(ctx, func(payload cty.Value) {
		seeds = append(seeds, payload)
	}))

	sent := ev.Send(ctx, []string{"ping"}, []cty.Value{cty.StringVal("hi")})
	require.Equal(t, 1, sent)
	require.Len(t, seeds, 1)

	res, err := u.Execute(ctx, &unit.Invocation{NodeID: "recv", Seed: seeds[0]})
	require.NoError(t, err)
	assert.True(t, cty.StringVal("hi").RawEquals(res.Outputs[0].Value()))
	assert.True(t, cty.StringVal("ping").RawEquals(res.Outputs[1].Value()))
	assert.True(t, res.Outputs[2].IsSkip(), "fire-and-forget events carry no await ID")

	require.NoError(t, u.StopListening(ctx))
	assert.Zero(t, ev.Send(ctx, []string{"ping"}, nil), "stopped listener must be unsubscribed")

	t.Run("rejects direct invocation", func(t *testing.T) {
		_, err := u.Execute(ctx, &unit.Invocation{NodeID: "recv"})
		assert.Error(t, err)
	})
}

func TestReturnEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("responds to an open await", func(t *testing.T) {
		ev := events.NewManager()
		require.NoError(t, ev.Subscribe("ping", func(_ context.Context, env events.Envelope) {}))
		awaitID, sent := ev.SendAwait(ctx, []string{"ping"}, nil)
		require.Equal(t, 1, sent)

		u := &returnEventUnit{}
		res, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "ret",
			Args: map[string]cty.Value{
				"await_id": cty.StringVal(awaitID),
				"data":     cty.StringVal("answer"),
			},
			Events: ev,
		})
		require.NoError(t, err)
		assert.True(t, cty.True.RawEquals(res.Outputs[0].Value()))

		got := ev.AwaitResponses(ctx, awaitID, 1, 0)
		require.Len(t, got.Responses, 1)
		assert.True(t, cty.StringVal("answer").RawEquals(got.Responses[0]))
	})

	t.Run("no await ID means nothing to answer", func(t *testing.T) {
		u := &returnEventUnit{}
		res, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "ret",
			Args:   map[string]cty.Value{"data": cty.StringVal("x")},
			Events: events.NewManager(),
		})
		require.NoError(t, err)
		assert.True(t, res.Outputs[0].IsSkip())
	})
}
