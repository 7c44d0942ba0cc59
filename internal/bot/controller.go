// Package bot управляет игроком без человека: смотрит на предсказанную
// сцену и выбирает одно действие на кадр.
package bot

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/logger"
)

const (
	// batReach - дальше этого мяч битой не достать.
	batReach = domain.BatterOrbit + domain.BatterHWidth + domain.BallRadius
	// aimTolerance - ракетка и так смотрит на мяч.
	aimTolerance = math.Pi / 36
)

// Controller - скриптовый игрок.
type Controller struct {
	log *logrus.Entry
}

func NewController() *Controller {
	return &Controller{log: logger.WithComponent("bot")}
}

// Decide выбирает действие для игрока player в мире world.
// ok == false - в этом кадре ничего не нажимать.
func (c *Controller) Decide(world donburi.World, player donburi.Entity) (domain.Action, bool) {
	if !world.Valid(player) {
		return domain.Action{}, false
	}
	entry := world.Entry(player)
	if !entry.HasComponent(components.Player) {
		return domain.Action{}, false
	}
	instance, ok := components.InstanceOf(entry)
	if !ok {
		return domain.Action{}, false
	}
	scene, ok := sim.LookupScene(world, instance)
	if !ok || !scene.Phase().AcceptsInput() {
		return domain.Action{}, false
	}

	switch components.Player.Get(entry).Position {
	case domain.PositionFielder:
		return c.field(scene)
	case domain.PositionBatter:
		return c.bat(scene)
	default:
		return domain.Action{}, false
	}
}

// field: подача, пока мяч у боулера, потом ведем внутреннее кольцо за мячом.
func (c *Controller) field(scene *sim.Scene) (domain.Action, bool) {
	phase := scene.Phase()
	if phase.CanBowl() {
		c.log.WithField("instance", scene.Instance).Debug("Bowling")
		return domain.FielderInput(domain.FielderBowl), true
	}
	if phase != domain.PhaseActive || scene.Ball == nil {
		return domain.Action{}, false
	}

	ball := components.Transform.Get(scene.Ball).Translation
	if ball.Len() == 0 {
		return domain.Action{}, false
	}
	target := math.Atan2(-ball.X(), ball.Y())

	// ближайший к мячу филдер внутреннего кольца
	best, found := 0.0, false
	for _, f := range scene.Fielders {
		if components.Fielder.Get(f).Ring != domain.RingInfield {
			continue
		}
		diff := wrapAngle(target - components.Transform.Get(f).Rotation)
		if !found || math.Abs(diff) < math.Abs(best) {
			best, found = diff, true
		}
	}
	if !found || math.Abs(best) < aimTolerance {
		return domain.Action{}, false
	}
	if best > 0 {
		return domain.FielderInput(domain.FielderMoveInfieldCCW), true
	}
	return domain.FielderInput(domain.FielderMoveInfieldCW), true
}

// bat: замах, когда мяч летит в зону удара, иначе доворот к мячу.
func (c *Controller) bat(scene *sim.Scene) (domain.Action, bool) {
	if scene.Phase() != domain.PhaseActive || scene.Ball == nil || scene.Batter == nil {
		return domain.Action{}, false
	}
	if components.Batter.Get(scene.Batter).Locked {
		return domain.Action{}, false
	}

	ball := components.Transform.Get(scene.Ball).Translation
	velocity := components.Velocity.Get(scene.Ball).Linear
	bat := components.Transform.Get(scene.Batter).Translation

	diff := wrapAngle(polar(ball) - polar(bat))
	if math.Abs(diff) < aimTolerance {
		return domain.Action{}, false
	}

	dist := ball.Len()
	incoming := velocity.Dot(ball) < 0
	if incoming && dist > domain.WicketRadius && dist <= batReach {
		if diff > 0 {
			return domain.BatterInput(domain.BatterSwingCCW), true
		}
		return domain.BatterInput(domain.BatterSwingCW), true
	}

	if diff > 0 {
		return domain.BatterInput(domain.BatterMoveCCW), true
	}
	return domain.BatterInput(domain.BatterMoveCW), true
}

func polar(v mgl64.Vec2) float64 {
	return math.Atan2(v.Y(), v.X())
}

// wrapAngle приводит угол к [-pi, pi].
func wrapAngle(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}
