package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/soyeahso/zoebot/internal/config"
	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func TestManager_On_And_Emit(t *testing.T) {
	m := testManager()

	var called bool
	m.On(EventServerStart, "test", func(_ context.Context, p Payload) error {
		called = true
		assert.Equal(t, EventServerStart, p.Event)
		return nil
	})

	m.Emit(context.Background(), EventServerStart, nil)
	assert.True(t, called)
}

func TestManager_Emit_MultipleHandlers(t *testing.T) {
	m := testManager()

	var order []string
	m.On(EventTurnReceived, "first", func(_ context.Context, _ Payload) error {
		order = append(order, "first")
		return nil
	})
	m.On(EventTurnReceived, "second", func(_ context.Context, _ Payload) error {
		order = append(order, "second")
		return nil
	})

	m.Emit(context.Background(), EventTurnReceived, nil)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManager_Emit_WithData(t *testing.T) {
	m := testManager()

	var gotData map[string]any
	m.On(EventTurnReceived, "test", func(_ context.Context, p Payload) error {
		gotData = p.Data
		return nil
	})

	m.Emit(context.Background(), EventTurnReceived, map[string]any{
		"intent":   "mileage",
		"identity": "user-1",
	})

	assert.Equal(t, "mileage", gotData["intent"])
	assert.Equal(t, "user-1", gotData["identity"])
}

func TestManager_Emit_HandlerError(t *testing.T) {
	m := testManager()

	var secondCalled bool
	m.On(EventServerStart, "failing", func(_ context.Context, _ Payload) error {
		return errors.New("handler broke")
	})
	m.On(EventServerStart, "second", func(_ context.Context, _ Payload) error {
		secondCalled = true
		return nil
	})

	m.Emit(context.Background(), EventServerStart, nil)
	assert.True(t, secondCalled)
}

func TestManager_Emit_NoHandlers(t *testing.T) {
	m := testManager()
	m.Emit(context.Background(), EventServerStop, nil)
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager
	m.Emit(context.Background(), EventServerStop, nil)
	m.EmitAsync(context.Background(), EventServerStop, nil)
	m.Wait()
}

func TestManager_Off(t *testing.T) {
	m := testManager()

	var callCount int
	m.On(EventServerStart, "removable", func(_ context.Context, _ Payload) error {
		callCount++
		return nil
	})

	m.Emit(context.Background(), EventServerStart, nil)
	assert.Equal(t, 1, callCount)

	m.Off(EventServerStart, "removable")
	m.Emit(context.Background(), EventServerStart, nil)
	assert.Equal(t, 1, callCount)
}

func TestManager_Off_KeepsOthers(t *testing.T) {
	m := testManager()

	var keepCalled int
	m.On(EventServerStart, "remove-me", func(_ context.Context, _ Payload) error { return nil })
	m.On(EventServerStart, "keep-me", func(_ context.Context, _ Payload) error {
		keepCalled++
		return nil
	})

	m.Off(EventServerStart, "remove-me")
	m.Emit(context.Background(), EventServerStart, nil)
	assert.Equal(t, 1, keepCalled)
}

func TestManager_EmitAsync_Wait(t *testing.T) {
	m := testManager()

	var count atomic.Int32
	m.On(EventReplySending, "async1", func(_ context.Context, _ Payload) error {
		count.Add(1)
		return nil
	})
	m.On(EventReplySending, "async2", func(_ context.Context, _ Payload) error {
		count.Add(1)
		return errors.New("ignored")
	})

	m.EmitAsync(context.Background(), EventReplySending, nil)
	m.Wait()

	assert.Equal(t, int32(2), count.Load())
}

func TestManager_EmitAsync_SurvivesCancel(t *testing.T) {
	m := testManager()

	var ctxErr atomic.Value
	m.On(EventTurnFailed, "check", func(ctx context.Context, _ Payload) error {
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.EmitAsync(ctx, EventTurnFailed, nil)
	cancel()
	m.Wait()

	assert.Equal(t, true, ctxErr.Load())
}

func TestManager_Count(t *testing.T) {
	m := testManager()

	assert.Equal(t, 0, m.Count(EventServerStart))

	m.On(EventServerStart, "h1", func(_ context.Context, _ Payload) error { return nil })
	assert.Equal(t, 1, m.Count(EventServerStart))

	m.On(EventServerStart, "h2", func(_ context.Context, _ Payload) error { return nil })
	assert.Equal(t, 2, m.Count(EventServerStart))
}

func TestManager_Events(t *testing.T) {
	m := testManager()

	m.On(EventTurnReceived, "h1", func(_ context.Context, _ Payload) error { return nil })
	m.On(EventBootstrapCommitted, "h2", func(_ context.Context, _ Payload) error { return nil })

	assert.Equal(t, []string{EventBootstrapCommitted, EventTurnReceived}, m.Events())
}

func TestAllEvents_MatchConfigBindings(t *testing.T) {
	require.NotEmpty(t, AllEvents)
	for _, b := range (config.HooksConfig{}).Bindings() {
		assert.Contains(t, AllEvents, b.Event, "config key %s", b.Key)
	}
}

// --- shell command hooks ---

func TestCommandHandler_PassesPayloadAndEvent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	h := CommandHandler(config.HookEntry{Command: `printf '%s ' "$ZOEBOT_EVENT" > ` + out + `; cat >> ` + out})

	err := h(context.Background(), Payload{Event: EventBootstrapCommitted, Data: map[string]any{"vin": "VF1"}})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `bootstrap_committed {"event":"bootstrap_committed","data":{"vin":"VF1"}}`, string(data))
}

func TestCommandHandler_Failure(t *testing.T) {
	h := CommandHandler(config.HookEntry{Command: "echo boom >&2; exit 3"})
	err := h(context.Background(), Payload{Event: EventTurnFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCommandHandler_Timeout(t *testing.T) {
	h := CommandHandler(config.HookEntry{Command: "sleep 5", Timeout: 50})
	err := h(context.Background(), Payload{Event: EventTurnFailed})
	assert.Error(t, err)
}

func TestRegisterCommands(t *testing.T) {
	m := testManager()
	n := m.RegisterCommands(config.HooksConfig{
		TurnFailed:  []config.HookEntry{{Command: "true"}, {Command: "true"}},
		ServerStart: []config.HookEntry{{Command: "true"}},
	})

	assert.Equal(t, 3, n)
	assert.Equal(t, 2, m.Count(EventTurnFailed))
	assert.Equal(t, 1, m.Count(EventServerStart))
}
