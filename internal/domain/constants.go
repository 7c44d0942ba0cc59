package domain

import "math"

// Частота симуляции по умолчанию (тиков в секунду)
const DefaultTickRate = 64

// Мяч
const (
	BallRadius = 8.0
	BallMass   = 5.0
)

// Бэттер (бита вращается вокруг калитки)
const (
	BatterRadius        = 30.0
	BatterRotationSpeed = math.Pi / 6
	BatterSwingVelocity = 2 * math.Pi
	BatterSwingTime     = 0.3
	BatterHWidth        = 25.0
	BatterHDepth        = 5.0
	// Расстояние от центра поля до центра биты
	BatterOrbit = BatterRadius + BatterHWidth
)

// Филдеры
const (
	FielderRotationSpeed = math.Pi / 4
	BowlImpulse          = 1000.0
	FielderHDepth        = 2.0

	InfieldRadius  = 200.0
	InfieldHWidth  = 30.0
	OutfieldRadius = 300.0
	OutfieldHWidth = 50.0
)

// Калитка и граница поля
const (
	WicketRadius   = BatterRadius - 2*BallRadius
	BoundaryRadius = 350.0
)

// Очки за события
const (
	PointsBoundary = 1
	PointsWicket   = 3
	PointsPasses   = 1
	// PassesToScore - столько касаний филдеров подряд дают очко филдеру.
	PassesToScore = 5
)

// FieldPosition - место филдера на кольце.
type FieldPosition uint8

const (
	FieldTop FieldPosition = iota
	FieldRight
	FieldBottom
	FieldLeft
)

// FieldPositions - порядок спавна филдеров на кольце.
var FieldPositions = [...]FieldPosition{FieldTop, FieldRight, FieldBottom, FieldLeft}

// Angle - начальный поворот филдера: Top в точке (0, R).
func (p FieldPosition) Angle() float64 {
	switch p {
	case FieldRight:
		return -math.Pi / 2
	case FieldBottom:
		return math.Pi
	case FieldLeft:
		return math.Pi / 2
	default:
		return 0
	}
}

// Radius возвращает радиус кольца.
func (r FielderRing) Radius() float64 {
	if r == RingOutfield {
		return OutfieldRadius
	}
	return InfieldRadius
}

// HWidth - полуширина ракетки филдера на кольце.
func (r FielderRing) HWidth() float64 {
	if r == RingOutfield {
		return OutfieldHWidth
	}
	return InfieldHWidth
}
