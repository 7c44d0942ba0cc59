package sim

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/physics"
	"github.com/snendev/cricket-pong/pkg/logger"
)

// Simulator продвигает все матчи мира ровно на один тик.
// Один и тот же вызов используется для свежих тиков и для переигровки.
type Simulator struct {
	World   donburi.World
	Physics *physics.World
	// Delta - фиксированная длительность тика в секундах.
	Delta float64

	log *logrus.Entry
}

// NewSimulator создает симулятор с фиксированным шагом 1/tickRate.
func NewSimulator(world donburi.World, tickRate int) *Simulator {
	if tickRate <= 0 {
		tickRate = domain.DefaultTickRate
	}
	return &Simulator{
		World:   world,
		Physics: physics.NewWorld(),
		Delta:   1 / float64(tickRate),
		log:     logger.WithComponent("simulator"),
	}
}

// Step применяет пачку действий, шагает физику и считает очки.
func (s *Simulator) Step(tick domain.Tick, batch domain.ActionBatch) {
	scenes := collectScenes(s.World)
	byInstance := make(map[domain.GameInstance]*Scene, len(scenes))
	for _, scene := range scenes {
		byInstance[scene.Instance] = scene
	}

	// 1. Начало тика: филдеры останавливаются, блокировка замаха истекает
	for _, scene := range scenes {
		s.beginTick(scene)
	}

	// 2. Ввод
	for _, entry := range batch {
		s.applyAction(byInstance, entry)
	}

	// 3. Физика
	bodies, owners := s.collectBodies(scenes)
	events, err := s.Physics.Step(context.Background(), bodies, s.Delta)
	if err != nil {
		s.log.WithError(err).WithField("tick", tick).Error("physics step failed")
		return
	}
	writeBack(bodies, owners)

	// 4. Очки
	s.score(tick, byInstance, events, bodies)

	// 5. Мяч следует за боулером до подачи
	for _, scene := range scenes {
		phase := scene.Phase()
		if !phase.TracksBowler() {
			continue
		}
		if scene.parkBall() && phase == domain.PhasePreparing {
			scene.setPhase(domain.PhaseBowling)
		}
	}
}

func (s *Simulator) beginTick(scene *Scene) {
	for _, f := range scene.Fielders {
		components.Velocity.Get(f).Angular = 0
	}
	if scene.Batter == nil {
		return
	}
	bat := components.Batter.Get(scene.Batter)
	velocity := components.Velocity.Get(scene.Batter)
	if !bat.Locked {
		velocity.Angular = 0
		return
	}
	if bat.SwingTimer <= 0 {
		bat.Locked = false
		bat.SwingTimer = 0
		velocity.Angular = 0
		return
	}
	bat.SwingTimer -= s.Delta
}

func (s *Simulator) applyAction(scenes map[domain.GameInstance]*Scene, input domain.ActionEntry) {
	// 1. Кто действует и в каком матче
	if !s.World.Valid(input.Entity) {
		return
	}
	entry := s.World.Entry(input.Entity)
	if !entry.HasComponent(components.Player) || !entry.HasComponent(components.ShouldTick) {
		return
	}
	instance, ok := components.InstanceOf(entry)
	if !ok {
		return
	}
	scene, ok := scenes[instance]
	if !ok {
		return
	}

	// 2. Роль и фаза: несовпадения - ожидаемая гонка, молча игнорируем
	player := components.Player.Get(entry)
	if !input.Action.Valid() || player.Position != input.Action.Role || !scene.Phase().AcceptsInput() {
		return
	}

	switch input.Action.Role {
	case domain.PositionFielder:
		s.applyFielder(scene, input.Action.Fielder)
	case domain.PositionBatter:
		s.applyBatter(scene, input.Action.Batter)
	}
}

func (s *Simulator) applyFielder(scene *Scene, action domain.FielderAction) {
	if action == domain.FielderBowl {
		s.bowl(scene)
		return
	}
	ring, ok := action.Ring()
	if !ok {
		return
	}
	angular := action.Direction() * domain.FielderRotationSpeed
	for _, f := range scene.Fielders {
		if components.Fielder.Get(f).Ring == ring {
			components.Velocity.Get(f).Angular = angular
		}
	}
}

func (s *Simulator) bowl(scene *Scene) {
	if !scene.Phase().CanBowl() || scene.Ball == nil {
		return
	}
	bowler, ok := scene.Bowler()
	if !ok {
		return
	}
	origin := ParkedBallPosition(components.Transform.GetValue(bowler))
	if origin.Len() == 0 {
		return
	}
	components.Transform.Get(scene.Ball).Translation = origin
	components.Velocity.SetValue(scene.Ball, components.VelocityData{})

	direction := origin.Mul(-1).Normalize()
	impulse := components.Impulse.Get(scene.Ball)
	impulse.Linear = impulse.Linear.Add(direction.Mul(domain.BowlImpulse))

	scene.setPhase(domain.PhaseActive)
}

func (s *Simulator) applyBatter(scene *Scene, action domain.BatterAction) {
	if scene.Batter == nil {
		return
	}
	bat := components.Batter.Get(scene.Batter)
	if bat.Locked {
		return
	}
	speed := domain.BatterRotationSpeed
	if action.IsSwing() {
		speed = domain.BatterSwingVelocity
	}
	bat.Locked = true
	bat.SwingTimer = domain.BatterSwingTime
	components.Velocity.Get(scene.Batter).Angular = action.Direction() * speed
}

// collectBodies переводит сцены в тела физики. Мяч участвует только в активной фазе.
func (s *Simulator) collectBodies(scenes []*Scene) ([]physics.Body, []*donburi.Entry) {
	var bodies []physics.Body
	var owners []*donburi.Entry
	add := func(b physics.Body, e *donburi.Entry) {
		bodies = append(bodies, b)
		owners = append(owners, e)
	}

	for _, scene := range scenes {
		instance := scene.Instance
		if scene.Ball != nil && scene.Phase() == domain.PhaseActive {
			t := components.Transform.GetValue(scene.Ball)
			v := components.Velocity.GetValue(scene.Ball)
			imp := components.Impulse.GetValue(scene.Ball)
			add(physics.Ball(scene.Ball.Entity(), instance, t.Translation, v.Linear, imp.Linear), scene.Ball)
		}
		if scene.Batter != nil {
			t := components.Transform.GetValue(scene.Batter)
			v := components.Velocity.GetValue(scene.Batter)
			half := mgl64.Vec2{domain.BatterHWidth, domain.BatterHDepth}
			add(physics.Paddle(scene.Batter.Entity(), instance, physics.RoleBatter, t.Translation, t.Rotation, v.Angular, half), scene.Batter)
		}
		for _, f := range scene.Fielders {
			t := components.Transform.GetValue(f)
			v := components.Velocity.GetValue(f)
			ring := components.Fielder.Get(f).Ring
			half := mgl64.Vec2{ring.HWidth(), domain.FielderHDepth}
			add(physics.Paddle(f.Entity(), instance, physics.RoleFielder, t.Translation, t.Rotation, v.Angular, half), f)
		}
		if scene.Wicket != nil {
			t := components.Transform.GetValue(scene.Wicket)
			add(physics.Sensor(scene.Wicket.Entity(), instance, physics.RoleWicket, t.Translation, components.Wicket.Get(scene.Wicket).Radius), scene.Wicket)
		}
		if scene.Boundary != nil {
			t := components.Transform.GetValue(scene.Boundary)
			add(physics.Sensor(scene.Boundary.Entity(), instance, physics.RoleBoundary, t.Translation, components.Boundary.Get(scene.Boundary).Radius), scene.Boundary)
		}
	}
	return bodies, owners
}

func writeBack(bodies []physics.Body, owners []*donburi.Entry) {
	for i := range bodies {
		b := &bodies[i]
		e := owners[i]
		if b.Role.Sensor() {
			continue
		}
		components.Transform.SetValue(e, components.TransformData{Translation: b.Position, Rotation: b.Rotation})
		velocity := components.Velocity.Get(e)
		velocity.Linear = b.Linear
		velocity.Angular = b.Angular
		if b.Role.Dynamic() {
			components.Impulse.Get(e).Linear = b.Impulse
		}
	}
}
