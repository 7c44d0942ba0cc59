package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/api"
)

// Живой матч рядом с другим матчем и его запись дают одно и то же состояние.
func TestPlayback_MatchesLiveInstance(t *testing.T) {
	s := newTestService(t)

	// шумный сосед в том же мире
	s.join("x")
	s.join("y")

	s.join("a")
	two, err := s.join("b")
	require.NoError(t, err)
	require.Equal(t, domain.GameInstance(2), two.Instance)

	s.Step()
	require.NoError(t, s.queueAction("b", api.ActionMessage{
		Tick: s.Tick() + 2, Entity: two.Entity, Action: domain.FielderInput(domain.FielderBowl),
	}))
	for i := 0; i < 200; i++ {
		s.Step()
	}

	live := s.Instances[2]
	result, err := Playback(live.Replay)
	require.NoError(t, err)

	scene, ok := sim.LookupScene(s.World, 2)
	require.True(t, ok)
	board := components.Scoreboard.GetValue(scene.Scoreboard)

	assert.Equal(t, uint32(201), result.Ticks)
	assert.NotZero(t, board.Len(), "bowled ball should reach the wicket")
	assert.Equal(t, board, result.Scoreboard)
	assert.Equal(t, scene.Phase(), result.Phase)
	assert.InDelta(t, components.Transform.Get(scene.Ball).Translation.X(), result.Ball.Translation.X(), 1e-9)
	assert.InDelta(t, components.Transform.Get(scene.Ball).Translation.Y(), result.Ball.Translation.Y(), 1e-9)
}

func TestPlayback_RejectsUnknownPlayer(t *testing.T) {
	session := &domain.ReplaySession{Instance: 1, TickRate: domain.DefaultTickRate, Duration: 5}
	session.Record(2, domain.IdentityNone, domain.FielderInput(domain.FielderBowl))

	_, err := Playback(session)
	assert.ErrorContains(t, err, "unknown player")
}

func TestPlayback_RejectsActionsPastDuration(t *testing.T) {
	session := &domain.ReplaySession{Instance: 1, TickRate: domain.DefaultTickRate, Duration: 5}
	session.Record(9, domain.IdentityTwo, domain.FielderInput(domain.FielderBowl))

	_, err := Playback(session)
	assert.ErrorContains(t, err, "outside recorded ticks")
}
