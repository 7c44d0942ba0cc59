package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/domain"
)

// Role - что тело значит для игры. Определяет форму и поведение.
type Role uint8

const (
	RoleBall Role = iota + 1
	RoleBatter
	RoleFielder
	RoleWicket
	RoleBoundary
)

func (r Role) String() string {
	switch r {
	case RoleBall:
		return "ball"
	case RoleBatter:
		return "batter"
	case RoleFielder:
		return "fielder"
	case RoleWicket:
		return "wicket"
	case RoleBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// Dynamic - движется под действием импульсов.
func (r Role) Dynamic() bool {
	return r == RoleBall
}

// Paddle - кинематическое тело, вращающееся вокруг центра поля.
func (r Role) Paddle() bool {
	return r == RoleBatter || r == RoleFielder
}

// Sensor - круг без физического отклика, только события.
func (r Role) Sensor() bool {
	return r == RoleWicket || r == RoleBoundary
}

// Body - снимок тела на один шаг. Собирается из компонентов перед шагом
// и записывается обратно после.
type Body struct {
	Entity   donburi.Entity
	Instance domain.GameInstance
	Role     Role

	Position mgl64.Vec2
	Rotation float64
	Linear   mgl64.Vec2
	Angular  float64
	Impulse  mgl64.Vec2

	// Radius - для мяча и сенсоров.
	Radius float64
	// HalfExtents - полуширина и полутолщина ракетки.
	HalfExtents mgl64.Vec2
	Mass        float64
}

// Ball создает тело мяча.
func Ball(entity donburi.Entity, instance domain.GameInstance, pos, linear, impulse mgl64.Vec2) Body {
	return Body{
		Entity:   entity,
		Instance: instance,
		Role:     RoleBall,
		Position: pos,
		Linear:   linear,
		Impulse:  impulse,
		Radius:   domain.BallRadius,
		Mass:     domain.BallMass,
	}
}

// Paddle создает ракетку бэттера или филдера.
func Paddle(entity donburi.Entity, instance domain.GameInstance, role Role, pos mgl64.Vec2, rotation, angular float64, halfExtents mgl64.Vec2) Body {
	return Body{
		Entity:      entity,
		Instance:    instance,
		Role:        role,
		Position:    pos,
		Rotation:    rotation,
		Angular:     angular,
		HalfExtents: halfExtents,
	}
}

// Sensor создает неподвижный круглый сенсор.
func Sensor(entity donburi.Entity, instance domain.GameInstance, role Role, pos mgl64.Vec2, radius float64) Body {
	return Body{
		Entity:   entity,
		Instance: instance,
		Role:     role,
		Position: pos,
		Radius:   radius,
	}
}

// integrate продвигает тело на dt.
func (b *Body) integrate(dt float64) {
	switch {
	case b.Role.Dynamic():
		if b.Mass > 0 {
			b.Linear = b.Linear.Add(b.Impulse.Mul(1 / b.Mass))
		}
		b.Impulse = mgl64.Vec2{}
		b.Position = b.Position.Add(b.Linear.Mul(dt))
	case b.Role.Paddle():
		if b.Angular == 0 {
			return
		}
		delta := b.Angular * dt
		b.Rotation += delta
		b.Position = Rotate(b.Position, delta)
	}
}

// PointVelocity - скорость точки ракетки, вращающейся вокруг начала координат.
func (b *Body) PointVelocity(p mgl64.Vec2) mgl64.Vec2 {
	if b.Role.Dynamic() {
		return b.Linear
	}
	return mgl64.Vec2{-b.Angular * p.Y(), b.Angular * p.X()}
}

// Rotate поворачивает вектор на угол (против часовой - положительный).
func Rotate(v mgl64.Vec2, angle float64) mgl64.Vec2 {
	if angle == 0 {
		return v
	}
	return mgl64.Rotate2D(angle).Mul2x1(v)
}
