package netcode

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
)

func TestRegistry_SpawnOnObserve(t *testing.T) {
	server := newFakeServer(t, 1)
	world := donburi.NewWorld()
	registry := NewRegistry(world)

	for _, ev := range server.snapshot(t, 0, true) {
		_, err := registry.Observe(ev)
		require.NoError(t, err)
	}

	assert.Equal(t, netQuery.Count(server.world), registry.Len())
	assert.Equal(t, 2*registry.Len(), netQuery.Count(world))

	// каждая пара ссылается друг на друга
	sources := donburi.NewQuery(filter.Contains(components.SourceOf))
	sources.Each(world, func(source *donburi.Entry) {
		assert.False(t, source.HasComponent(components.ShouldTick))
		prediction := world.Entry(components.SourceOf.Get(source).Prediction)
		require.True(t, prediction.Valid())
		assert.Equal(t, source.Entity(), components.PredictionOf.Get(prediction).Source)
		assert.True(t, prediction.HasComponent(components.ShouldTick))
		assert.True(t, prediction.HasComponent(components.ShouldRender))
		assert.Equal(t, components.Instance.Get(source).ID, components.Instance.Get(prediction).ID)
	})

	// предсказание - глубокая копия значения сервера
	ballID := server.netID(t, domain.KindBall)
	pair, ok := registry.Lookup(ballID)
	require.True(t, ok)
	serverBall := components.Transform.Get(server.entityOf(t, ballID)).Translation
	predicted := components.Transform.Get(world.Entry(pair.Prediction)).Translation
	assert.InDelta(t, serverBall.X(), predicted.X(), 1e-3)
	assert.InDelta(t, serverBall.Y(), predicted.Y(), 1e-3)
}

func TestRegistry_ObserveIsIdempotent(t *testing.T) {
	server := newFakeServer(t, 1)
	world := donburi.NewWorld()
	registry := NewRegistry(world)

	inserts := server.snapshot(t, 0, true)
	for i := 0; i < 2; i++ {
		for _, ev := range inserts {
			_, err := registry.Observe(ev)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 2*netQuery.Count(server.world), netQuery.Count(world))
}

func TestRegistry_RejectsUnknown(t *testing.T) {
	world := donburi.NewWorld()
	registry := NewRegistry(world)

	_, err := registry.Observe(ComponentEvent{Kind: components.KindTransform, Entity: domain.PackNetID(domain.KindUnknown, 1, 0), Inserted: true})
	assert.ErrorIs(t, err, ErrUnknownObject)

	_, err = registry.Observe(ComponentEvent{Kind: components.Kind(99), Entity: domain.PackNetID(domain.KindBall, 1, 0), Inserted: true})
	assert.ErrorIs(t, err, components.ErrUnknownKind)

	err = registry.Apply(ComponentEvent{Kind: components.KindTransform, Entity: domain.PackNetID(domain.KindBall, 1, 0), Tick: 5})
	assert.ErrorIs(t, err, ErrMissingPairing)
	assert.Zero(t, registry.Len())
	assert.Zero(t, netQuery.Count(world))
}

func TestRegistry_ApplyWritesSourceOnly(t *testing.T) {
	world := donburi.NewWorld()
	registry := NewRegistry(world)
	id := domain.PackNetID(domain.KindBall, 1, 0)

	encode := func(x float64) []byte {
		entry := world.Entry(world.Create(components.SyncTransform))
		defer world.Remove(entry.Entity())
		components.SyncTransform.SetValue(entry, components.TransformData{Translation: mgl64.Vec2{x, 0}}.Wire())
		spec, _ := components.Lookup(components.KindTransform)
		data, err := spec.Encode(entry)
		require.NoError(t, err)
		return data
	}

	pair, err := registry.Observe(ComponentEvent{Kind: components.KindTransform, Entity: id, Instance: 1, Tick: 1, Inserted: true, Payload: encode(1)})
	require.NoError(t, err)

	require.NoError(t, registry.Apply(ComponentEvent{Kind: components.KindTransform, Entity: id, Tick: 3, Payload: encode(3)}))
	assert.Equal(t, float32(3), components.SyncTransform.Get(world.Entry(pair.Source)).X)
	assert.Equal(t, float32(1), components.SyncTransform.Get(world.Entry(pair.Prediction)).X)

	// более старое обновление того же компонента отбрасывается
	err = registry.Apply(ComponentEvent{Kind: components.KindTransform, Entity: id, Tick: 2, Payload: encode(2)})
	assert.ErrorIs(t, err, ErrStaleUpdate)
	assert.Equal(t, float32(3), components.SyncTransform.Get(world.Entry(pair.Source)).X)
}

func TestRegistry_PlayerAssignedAndForget(t *testing.T) {
	server := newFakeServer(t, 7)
	world := donburi.NewWorld()
	registry := NewRegistry(world)
	for _, ev := range server.snapshot(t, 0, true) {
		_, err := registry.Observe(ev)
		require.NoError(t, err)
	}

	ballID := server.netID(t, domain.KindBall)
	_, err := registry.PlayerAssigned(ballID)
	assert.Error(t, err, "ball is not a player")

	two := server.netID(t, domain.KindPlayerTwo)
	entity, err := registry.PlayerAssigned(two)
	require.NoError(t, err)
	assert.True(t, world.Entry(entity).HasComponent(components.Controlled))

	got, ok := registry.NetIDOf(entity)
	require.True(t, ok)
	assert.Equal(t, two, got)

	assert.Equal(t, registry.Len(), registry.Forget(7))
	_, ok = registry.Lookup(two)
	assert.False(t, ok)
	assert.Zero(t, registry.Forget(7))
}
