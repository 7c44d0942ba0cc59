package bot

import (
	"math"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func setupScene(t *testing.T, phase domain.GamePhase) (donburi.World, *sim.Scene) {
	t.Helper()
	world := donburi.NewWorld()
	sim.SpawnScene(world, sim.SceneSpec{Instance: 1, Tick: true})
	scene, ok := sim.LookupScene(world, 1)
	require.True(t, ok)
	components.Phase.Get(scene.Lobby).Phase = phase
	return world, scene
}

func playerAt(t *testing.T, scene *sim.Scene, position domain.PositionKind) donburi.Entity {
	t.Helper()
	p, ok := scene.PlayerAt(position)
	require.True(t, ok)
	return p.Entity()
}

func placeBall(scene *sim.Scene, pos, vel mgl64.Vec2) {
	components.Transform.Get(scene.Ball).Translation = pos
	components.Velocity.Get(scene.Ball).Linear = vel
}

func TestController_IgnoresInactiveMatch(t *testing.T) {
	world, scene := setupScene(t, domain.PhaseInactive)
	c := NewController()

	_, ok := c.Decide(world, playerAt(t, scene, domain.PositionFielder))
	assert.False(t, ok)
	_, ok = c.Decide(world, playerAt(t, scene, domain.PositionBatter))
	assert.False(t, ok)
}

func TestController_FielderBowls(t *testing.T) {
	for _, phase := range []domain.GamePhase{domain.PhasePreparing, domain.PhaseBowling} {
		world, scene := setupScene(t, phase)
		action, ok := NewController().Decide(world, playerAt(t, scene, domain.PositionFielder))
		require.True(t, ok, phase.String())
		assert.Equal(t, domain.FielderInput(domain.FielderBowl), action)
	}
}

func TestController_FielderTracksBall(t *testing.T) {
	tests := []struct {
		name   string
		angle  float64
		want   domain.Action
		acting bool
	}{
		{"left of top", math.Pi / 8, domain.FielderInput(domain.FielderMoveInfieldCCW), true},
		{"right of top", -math.Pi / 8, domain.FielderInput(domain.FielderMoveInfieldCW), true},
		{"facing fielder", math.Pi / 2, domain.Action{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world, scene := setupScene(t, domain.PhaseActive)
			pos := mgl64.Vec2{-math.Sin(tt.angle), math.Cos(tt.angle)}.Mul(150)
			placeBall(scene, pos, pos.Mul(1))

			action, ok := NewController().Decide(world, playerAt(t, scene, domain.PositionFielder))
			assert.Equal(t, tt.acting, ok)
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestController_BatterSwingsInStrikeZone(t *testing.T) {
	world, scene := setupScene(t, domain.PhaseActive)
	batter := playerAt(t, scene, domain.PositionBatter)
	c := NewController()

	// бита справа в (55, 0), мяч чуть выше и летит к калитке
	placeBall(scene, mgl64.Vec2{domain.BatterOrbit, 20}, mgl64.Vec2{-100, 0})
	action, ok := c.Decide(world, batter)
	require.True(t, ok)
	assert.Equal(t, domain.BatterInput(domain.BatterSwingCCW), action)

	placeBall(scene, mgl64.Vec2{domain.BatterOrbit, -20}, mgl64.Vec2{-100, 0})
	action, ok = c.Decide(world, batter)
	require.True(t, ok)
	assert.Equal(t, domain.BatterInput(domain.BatterSwingCW), action)
}

func TestController_BatterTurnsTowardDistantBall(t *testing.T) {
	world, scene := setupScene(t, domain.PhaseActive)
	placeBall(scene, mgl64.Vec2{0, 190}, mgl64.Vec2{0, -200})

	action, ok := NewController().Decide(world, playerAt(t, scene, domain.PositionBatter))
	require.True(t, ok)
	assert.Equal(t, domain.BatterInput(domain.BatterMoveCCW), action)
}

func TestController_BatterWaitsWhileLocked(t *testing.T) {
	world, scene := setupScene(t, domain.PhaseActive)
	placeBall(scene, mgl64.Vec2{domain.BatterOrbit, 20}, mgl64.Vec2{-100, 0})
	components.Batter.Get(scene.Batter).Locked = true

	_, ok := NewController().Decide(world, playerAt(t, scene, domain.PositionBatter))
	assert.False(t, ok)
}

func TestController_BatterIdleBeforeDelivery(t *testing.T) {
	world, scene := setupScene(t, domain.PhaseBowling)
	_, ok := NewController().Decide(world, playerAt(t, scene, domain.PositionBatter))
	assert.False(t, ok)
}

func TestController_UnknownEntity(t *testing.T) {
	world, scene := setupScene(t, domain.PhaseActive)
	_, ok := NewController().Decide(world, scene.Ball.Entity())
	assert.False(t, ok)
}
