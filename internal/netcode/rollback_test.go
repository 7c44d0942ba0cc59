package netcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
)

// pairedWorld - клиентский мир с парами одного матча и журналом ticks.
func pairedWorld(t *testing.T, capacity int, ticks ...domain.Tick) (*fakeServer, donburi.World, *Registry, *TickHistory) {
	t.Helper()
	server := newFakeServer(t, 1)
	world := donburi.NewWorld()
	registry := NewRegistry(world)
	for _, ev := range server.snapshot(t, 0, true) {
		_, err := registry.Observe(ev)
		require.NoError(t, err)
	}

	history := NewTickHistory(capacity)
	for _, tick := range ticks {
		require.NoError(t, history.Insert(tick, nil))
	}
	return server, world, registry, history
}

func tickRange(from, to domain.Tick) []domain.Tick {
	var out []domain.Tick
	for tick := from; tick != to+1; tick++ {
		out = append(out, tick)
	}
	return out
}

func TestRollbackTick(t *testing.T) {
	events := []ComponentEvent{
		{Kind: components.KindTransform, Tick: 36},
		{Kind: components.KindVelocity, Tick: 34},
		{Kind: components.KindScoreboard, Tick: 39},
	}
	latest, ok := RollbackTick(events)
	require.True(t, ok)
	assert.Equal(t, domain.Tick(36), latest)

	_, ok = RollbackTick(events[2:])
	assert.False(t, ok, "scoreboard alone does not trigger rollback")

	latest, _ = RollbackTick([]ComponentEvent{
		{Kind: components.KindBatter, Tick: 65535},
		{Kind: components.KindImpulse, Tick: 2},
	})
	assert.Equal(t, domain.Tick(2), latest)
}

func TestReconcile_ReplaysAfterBaseline(t *testing.T) {
	_, world, _, history := pairedWorld(t, 64, tickRange(30, 40)...)
	stepper := &recordingStepper{}
	coordinator := NewCoordinator(world, history, stepper)

	report := coordinator.Reconcile([]ComponentEvent{
		{Kind: components.KindTransform, Tick: 36},
		{Kind: components.KindVelocity, Tick: 34},
	})

	assert.True(t, report.Triggered)
	assert.Equal(t, domain.Tick(36), report.Baseline)
	assert.Equal(t, 4, report.Replayed)
	assert.Equal(t, []domain.Tick{37, 38, 39, 40}, stepper.ticks)

	// подтвержденное ушло из журнала
	oldest, _ := history.Oldest()
	assert.Equal(t, domain.Tick(37), oldest)
}

func TestReconcile_NoRollbackKinds(t *testing.T) {
	_, world, _, history := pairedWorld(t, 64, tickRange(1, 5)...)
	stepper := &recordingStepper{}
	coordinator := NewCoordinator(world, history, stepper)

	report := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindPhase, Tick: 3}})
	assert.False(t, report.Triggered)
	assert.Empty(t, stepper.ticks)
	assert.Equal(t, 5, history.Len())
}

func TestReconcile_ResyncsPredictionFromSource(t *testing.T) {
	server, world, registry, history := pairedWorld(t, 64, 5)
	coordinator := NewCoordinator(world, history, &recordingStepper{})

	pair, ok := registry.Lookup(server.netID(t, domain.KindBall))
	require.True(t, ok)
	prediction := world.Entry(pair.Prediction)
	components.Transform.Get(prediction).Translation[0] = 123

	coordinator.Reconcile([]ComponentEvent{{Kind: components.KindTransform, Tick: 4}})

	source := world.Entry(pair.Source)
	assert.Equal(t, components.Transform.Get(source).Translation, components.Transform.Get(prediction).Translation)
}

func TestReconcile_BaselineIsMonotonic(t *testing.T) {
	server, world, registry, history := pairedWorld(t, 64, tickRange(10, 20)...)
	stepper := &recordingStepper{}
	coordinator := NewCoordinator(world, history, stepper)

	first := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindTransform, Tick: 15}})
	require.True(t, first.Triggered)
	stepper.ticks = nil

	pair, _ := registry.Lookup(server.netID(t, domain.KindBall))
	prediction := world.Entry(pair.Prediction)
	components.Transform.Get(prediction).Translation[0] = 77

	second := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindTransform, Tick: 12}})
	assert.True(t, second.Stale)
	assert.False(t, second.Triggered)
	assert.Empty(t, stepper.ticks)
	assert.Equal(t, 77.0, components.Transform.Get(prediction).Translation[0], "stale correction must not resync")

	baseline, ok := coordinator.Baseline()
	require.True(t, ok)
	assert.Equal(t, domain.Tick(15), baseline)

	// тот же тик повторно допустим
	again := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindVelocity, Tick: 15}})
	assert.True(t, again.Triggered)
	assert.Equal(t, []domain.Tick{16, 17, 18, 19, 20}, stepper.ticks)
}

func TestReconcile_OutOfWindowSnaps(t *testing.T) {
	server, world, registry, history := pairedWorld(t, 4, tickRange(1, 10)...)
	stepper := &recordingStepper{}
	coordinator := NewCoordinator(world, history, stepper)

	pair, _ := registry.Lookup(server.netID(t, domain.KindBall))
	prediction := world.Entry(pair.Prediction)
	components.Transform.Get(prediction).Translation[0] = 55

	report := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindTransform, Tick: 3}})
	assert.True(t, report.Triggered)
	assert.True(t, report.Snapped)
	assert.Zero(t, report.Replayed)
	assert.Empty(t, stepper.ticks)
	assert.NotEqual(t, 55.0, components.Transform.Get(prediction).Translation[0])
}

// Долгая сессия после одного переполнения журнала продолжает переигрывать ввод.
func TestReconcile_RecoversAfterOverflow(t *testing.T) {
	_, world, _, history := pairedWorld(t, 4, tickRange(1, 10)...)
	stepper := &recordingStepper{}
	coordinator := NewCoordinator(world, history, stepper)

	first := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindTransform, Tick: 8}})
	require.False(t, first.Snapped)
	assert.Equal(t, []domain.Tick{9, 10}, stepper.ticks)

	last := domain.Tick(10)
	for round := 0; round < 13000; round++ {
		for i := 0; i < 3; i++ {
			last = last.Next()
			require.NoError(t, history.Insert(last, nil))
		}
		report := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindTransform, Tick: last}})
		require.False(t, report.Snapped, "round %d", round)
	}

	stepper.ticks = nil
	for i := 1; i <= 3; i++ {
		require.NoError(t, history.Insert(last+domain.Tick(i), nil))
	}
	report := coordinator.Reconcile([]ComponentEvent{{Kind: components.KindTransform, Tick: last}})
	assert.True(t, report.Triggered)
	assert.False(t, report.Snapped)
	assert.Equal(t, 3, report.Replayed)
	assert.Equal(t, []domain.Tick{last + 1, last + 2, last + 3}, stepper.ticks)
}
