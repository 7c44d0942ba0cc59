package engine

import (
	"fmt"

	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/logger"
)

// PlaybackResult - состояние матча после воспроизведения записи.
type PlaybackResult struct {
	Scoreboard domain.Scoreboard
	Phase      domain.GamePhase
	Ball       components.TransformData
	Ticks      uint32
}

// Playback заново проигрывает запись в чистом мире. Сцена спавнится
// детерминированно, поэтому результат совпадает с живым матчем.
func Playback(session *domain.ReplaySession) (PlaybackResult, error) {
	world := donburi.NewWorld()
	sim.SpawnScene(world, sim.SceneSpec{Instance: session.Instance, Tick: true})
	if !sim.ActivateLobby(world, session.Instance) {
		return PlaybackResult{}, fmt.Errorf("playback %s: lobby not found", session.Instance)
	}
	scene, ok := sim.LookupScene(world, session.Instance)
	if !ok {
		return PlaybackResult{}, fmt.Errorf("playback %s: scene not found", session.Instance)
	}

	players := make(map[domain.Identity]donburi.Entity, len(scene.Players))
	for _, p := range scene.Players {
		players[components.Player.Get(p).Identity] = p.Entity()
	}

	simulator := sim.NewSimulator(world, int(session.TickRate))
	log := logger.WithComponent("playback").WithField("instance", session.Instance)

	// 1. Тики по порядку, действия забираются из записи последовательно
	tick := session.StartTick
	next := 0
	for n := uint32(0); n < session.Duration; n++ {
		var batch domain.ActionBatch
		for next < len(session.Actions) && session.Actions[next].Tick == tick {
			act := session.Actions[next]
			entity, ok := players[act.Player]
			if !ok {
				return PlaybackResult{}, fmt.Errorf("playback action %d: unknown player %s", next, act.Player)
			}
			batch = append(batch, domain.ActionEntry{Entity: entity, Action: act.Action})
			next++
		}
		simulator.Step(tick, batch)
		tick = tick.Next()
	}

	if next != len(session.Actions) {
		return PlaybackResult{}, fmt.Errorf("playback: %d actions outside recorded ticks", len(session.Actions)-next)
	}

	// 2. Итог
	scene, _ = sim.LookupScene(world, session.Instance)
	result := PlaybackResult{Phase: scene.Phase(), Ticks: session.Duration}
	if scene.Scoreboard != nil {
		result.Scoreboard = components.Scoreboard.GetValue(scene.Scoreboard).Clone()
	}
	if scene.Ball != nil {
		result.Ball = components.Transform.GetValue(scene.Ball)
	}

	log.WithField("ticks", session.Duration).WithField("deliveries", result.Scoreboard.Len()).Info("Playback finished")
	return result, nil
}
