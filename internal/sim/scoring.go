package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/physics"
)

// score разбирает события столкновений мяча. События приходят упорядоченными,
// после первого очка в матче остальные события этого тика игнорируются.
func (s *Simulator) score(tick domain.Tick, scenes map[domain.GameInstance]*Scene, events []physics.CollisionEvent, bodies []physics.Body) {
	scored := map[domain.GameInstance]bool{}

	for _, ev := range events {
		scene, ok := scenes[ev.Instance]
		if !ok || scored[ev.Instance] || !scene.Phase().Scoring() || scene.Ball == nil {
			continue
		}
		if bodies[ev.Ball].Entity != scene.Ball.Entity() {
			continue
		}
		ball := components.Ball.Get(scene.Ball)

		switch {
		case ev.Type == physics.CollisionStopped && ev.Role == physics.RoleBoundary:
			// мяч ушел за границу: очко бэттеру
			scored[ev.Instance] = s.award(tick, scene, domain.PositionBatter, domain.PointsBoundary, "boundary")
		case ev.Type == physics.CollisionStarted && ev.Role == physics.RoleWicket:
			scored[ev.Instance] = s.award(tick, scene, domain.PositionFielder, domain.PointsWicket, "wicket")
		case ev.Type == physics.CollisionStarted && ev.Role == physics.RoleFielder:
			ball.Passes++
			if ball.Passes >= domain.PassesToScore {
				scored[ev.Instance] = s.award(tick, scene, domain.PositionFielder, domain.PointsPasses, "passes")
			}
		}
	}
}

// award записывает очки стороне side. Возвращает false, если записать нельзя
// (нет игрока, табло или табло заполнено).
func (s *Simulator) award(tick domain.Tick, scene *Scene, side domain.PositionKind, points uint8, cause string) bool {
	if scene.Scoreboard == nil {
		return false
	}
	player, ok := scene.PlayerAt(side)
	if !ok {
		return false
	}
	identity := components.Player.Get(player).Identity

	board := components.Scoreboard.Get(scene.Scoreboard)
	result, err := board.Push(domain.BowlScore{Scorer: identity, Value: points})
	if err != nil {
		s.log.WithError(err).WithField("instance", scene.Instance).Debug("score rejected")
		return false
	}

	// 1. Счетчик касаний сбрасывается при любом очке
	if scene.Ball != nil {
		components.Ball.Get(scene.Ball).Passes = 0
	}

	s.log.WithFields(logrus.Fields{
		"instance": scene.Instance,
		"tick":     tick,
		"cause":    cause,
		"scorer":   identity,
		"side":     side,
		"points":   points,
		"total":    board.PlayerScore(identity),
		"result":   result,
	}).Debug("score registered")

	// 2. Смена сторон или конец игры
	switch result {
	case domain.BowlResultGameOver:
		scene.setPhase(domain.PhaseGameOver)
		if scene.Ball != nil {
			components.Velocity.SetValue(scene.Ball, components.VelocityData{})
			components.Impulse.SetValue(scene.Ball, components.ImpulseData{})
		}
		return true
	case domain.BowlResultChangePositions:
		for _, p := range scene.Players {
			data := components.Player.Get(p)
			data.Position = data.Position.Opposite()
		}
	}

	scene.setPhase(domain.PhaseBowling)
	scene.parkBall()
	return true
}
