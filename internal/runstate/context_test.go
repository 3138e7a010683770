package runstate

import (
	"sync"
	"testing"

	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func newTestContext() *RunContext {
	rc := New("run-1", "start", cty.NilVal)
	rc.AddNode(nil, &unit.Binding{NodeID: "n"})
	return rc
}

func TestLifecycleHappyPath(t *testing.T) {
	rc := newTestContext()

	assert.Equal(t, Pending, rc.State("n"))

	require.True(t, rc.Begin("n", []string{"a", "b"}))
	assert.Equal(t, Waiting, rc.State("n"))

	_, ok := rc.TryExecute("n")
	assert.False(t, ok, "wait set not empty yet")

	dropped, ready := rc.Deliver("n", map[string]cty.Value{"a": cty.NumberIntVal(1)})
	assert.False(t, dropped)
	assert.False(t, ready)

	dropped, ready = rc.Deliver("n", map[string]cty.Value{"b": cty.NumberIntVal(2)})
	assert.False(t, dropped)
	assert.True(t, ready)

	args, ok := rc.TryExecute("n")
	require.True(t, ok)
	assert.Equal(t, Executing, rc.State("n"))
	assert.Len(t, args, 2)

	rc.Finish("n", map[string]unit.Output{"out": unit.Val(cty.NumberIntVal(3))}, nil)
	assert.Equal(t, Done, rc.State("n"))

	out, ok := rc.Output("n", "out")
	require.True(t, ok)
	assert.True(t, cty.NumberIntVal(3).RawEquals(out.Value()))
}

func TestBeginOnlyFromPending(t *testing.T) {
	rc := newTestContext()
	require.True(t, rc.Begin("n", nil))
	assert.False(t, rc.Begin("n", nil))
}

func TestDeliverDropsWholeBatchWhileExecuting(t *testing.T) {
	rc := newTestContext()
	require.True(t, rc.Begin("n", []string{"a"}))
	rc.Deliver("n", map[string]cty.Value{"a": cty.True})
	_, ok := rc.TryExecute("n")
	require.True(t, ok)

	dropped, ready := rc.Deliver("n", map[string]cty.Value{"a": cty.False, "b": cty.True})
	assert.True(t, dropped)
	assert.False(t, ready)

	// Nothing from the dropped batch may leak into the cache.
	_, ok = rc.Input("n", "b")
	assert.False(t, ok)
}

func TestTryExecuteHasSingleWinner(t *testing.T) {
	rc := newTestContext()
	require.True(t, rc.Begin("n", nil))

	const racers = 16
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := rc.TryExecute("n"); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRearmClearsOnlyNewWaitSlots(t *testing.T) {
	rc := newTestContext()
	require.True(t, rc.Begin("n", []string{"seed", "dep"}))
	rc.Deliver("n", map[string]cty.Value{
		"seed": cty.NumberIntVal(10),
		"dep":  cty.StringVal("resolved"),
	})
	_, ok := rc.TryExecute("n")
	require.True(t, ok)
	rc.Finish("n", nil, &unit.StateUpdate{WaitFor: []string{"increment"}})

	override, ok := rc.WaitOverride("n")
	require.True(t, ok)
	assert.Equal(t, []string{"increment"}, override)

	require.True(t, rc.Rearm("n", []string{"increment"}))
	assert.Equal(t, Waiting, rc.State("n"))

	// The re-arm wait set did not include dep, so its cached value survives.
	v, ok := rc.Input("n", "dep")
	require.True(t, ok)
	assert.True(t, cty.StringVal("resolved").RawEquals(v))

	// increment was in the new wait set, so any stale value is gone.
	_, ok = rc.Input("n", "increment")
	assert.False(t, ok)
}

func TestRearmOnlyFromDone(t *testing.T) {
	rc := newTestContext()
	assert.False(t, rc.Rearm("n", nil), "pending node cannot re-arm")
	require.True(t, rc.Begin("n", nil))
	assert.False(t, rc.Rearm("n", nil), "waiting node cannot re-arm")
}

func TestTaskTracking(t *testing.T) {
	rc := newTestContext()
	done1 := rc.TrackTask()
	done2 := rc.TrackTask()
	assert.Equal(t, 2, rc.ActiveTasks())

	done1()
	done1() // completion callback is idempotent
	assert.Equal(t, 1, rc.ActiveTasks())

	done2()
	rc.WaitIdle()
	assert.Equal(t, 0, rc.ActiveTasks())
}
