package components

import (
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestKindTable_Complete(t *testing.T) {
	names := map[string]bool{}
	for k := KindTransform; k < kindCount; k++ {
		spec, ok := Lookup(k)
		require.True(t, ok, "kind %d has no spec", k)
		assert.Equal(t, k, spec.Kind)
		assert.NotEmpty(t, spec.Name)
		assert.False(t, names[spec.Name], "duplicate name %s", spec.Name)
		names[spec.Name] = true
	}

	_, ok := Lookup(KindUnknown)
	assert.False(t, ok)
	_, ok = Lookup(Kind(200))
	assert.False(t, ok)
	assert.Equal(t, "Unknown", Kind(200).String())
}

func TestRollbackKinds(t *testing.T) {
	var rollback []Kind
	for _, s := range RollbackKinds() {
		rollback = append(rollback, s.Kind)
	}
	assert.ElementsMatch(t, []Kind{KindTransform, KindVelocity, KindImpulse, KindBatter}, rollback)

	var resync []Kind
	for _, s := range ResyncKinds() {
		resync = append(resync, s.Kind)
	}
	assert.Subset(t, resync, rollback)
	assert.Contains(t, resync, KindScoreboard)
	assert.Contains(t, resync, KindPhase)
	assert.NotContains(t, resync, KindLobby)

	assert.Len(t, MirroredKinds(), 3)
}

func TestMirrored_InboundOutbound(t *testing.T) {
	world := donburi.NewWorld()
	spec, _ := Lookup(KindTransform)
	entry := world.Entry(world.Create(spec.Types()...))

	SyncTransform.SetValue(entry, SyncTransformData{X: 1.5, Y: -2, Rotation: 0.25})
	spec.Inbound(entry)

	sim := Transform.GetValue(entry)
	assert.Equal(t, mgl64.Vec2{1.5, -2}, sim.Translation)
	assert.Equal(t, 0.25, sim.Rotation)

	Transform.SetValue(entry, TransformData{Translation: mgl64.Vec2{10, 20}, Rotation: -1})
	spec.Outbound(entry)
	assert.Equal(t, SyncTransformData{X: 10, Y: 20, Rotation: -1}, SyncTransform.GetValue(entry))
}

func TestSpec_EncodeDecode(t *testing.T) {
	world := donburi.NewWorld()
	spec, _ := Lookup(KindBatter)

	src := world.Entry(world.Create(spec.Types()...))
	Batter.SetValue(src, BatterData{Locked: true, SwingTimer: 0.125})

	data, err := spec.Encode(src)
	require.NoError(t, err)

	dst := world.Entry(world.Create(spec.Types()...))
	require.NoError(t, spec.Decode(dst, data))
	assert.Equal(t, Batter.GetValue(src), Batter.GetValue(dst))

	assert.Error(t, spec.Decode(dst, []byte{0xc1}))

	bare := world.Entry(world.Create(Ball))
	assert.ErrorIs(t, spec.Decode(bare, data), ErrMissingComponent)
	_, err = spec.Encode(bare)
	assert.ErrorIs(t, err, ErrMissingComponent)
}

func TestSpec_CopyIsDeep(t *testing.T) {
	world := donburi.NewWorld()
	spec, _ := Lookup(KindScoreboard)

	src := world.Entry(world.Create(spec.Types()...))
	dst := world.Entry(world.Create(spec.Types()...))
	Scoreboard.SetValue(src, domain.Scoreboard{Scores: []domain.BowlScore{{Scorer: domain.IdentityOne, Value: 1}}})

	spec.Copy(src, dst)
	Scoreboard.Get(dst).Scores[0].Value = 3

	assert.Equal(t, uint8(1), Scoreboard.Get(src).Scores[0].Value)
}

func TestInstanceOf(t *testing.T) {
	world := donburi.NewWorld()
	entry := world.Entry(world.Create(Instance))
	Instance.SetValue(entry, InstanceData{ID: 7})

	id, ok := InstanceOf(entry)
	assert.True(t, ok)
	assert.Equal(t, domain.GameInstance(7), id)

	_, ok = InstanceOf(world.Entry(world.Create(Ball)))
	assert.False(t, ok)
	_, ok = InstanceOf(nil)
	assert.False(t, ok)
}

func TestSpec_EnsureAddsBothShapes(t *testing.T) {
	world := donburi.NewWorld()
	entry := world.Entry(world.Create(Instance))

	spec, _ := Lookup(KindVelocity)
	spec.Ensure(entry)
	assert.True(t, entry.HasComponent(SyncVelocity))
	assert.True(t, entry.HasComponent(Velocity))

	// повторный вызов ничего не меняет
	Velocity.SetValue(entry, VelocityData{Angular: 2})
	spec.Ensure(entry)
	assert.Equal(t, 2.0, Velocity.Get(entry).Angular)
}
