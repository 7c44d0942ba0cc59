package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Contact - результат узкой фазы для пары мяч-тело.
type Contact struct {
	Overlap bool
	// Normal направлена от тела к мячу.
	Normal mgl64.Vec2
	Depth  float64
	Point  mgl64.Vec2
}

// circleCircle - пересечение двух кругов (строгое).
func circleCircle(a mgl64.Vec2, ra float64, b mgl64.Vec2, rb float64) Contact {
	d := a.Sub(b)
	dist := d.Len()
	r := ra + rb
	if dist >= r {
		return Contact{}
	}
	normal := mgl64.Vec2{0, 1}
	if dist > 0 {
		normal = d.Mul(1 / dist)
	}
	return Contact{
		Overlap: true,
		Normal:  normal,
		Depth:   r - dist,
		Point:   b.Add(normal.Mul(rb)),
	}
}

// circleBox - круг против повернутого прямоугольника.
func circleBox(center mgl64.Vec2, radius float64, boxPos mgl64.Vec2, boxRot float64, half mgl64.Vec2) Contact {
	// 1. Переводим центр круга в систему координат прямоугольника
	local := Rotate(center.Sub(boxPos), -boxRot)

	// 2. Ближайшая точка прямоугольника
	closest := mgl64.Vec2{
		clamp(local.X(), -half.X(), half.X()),
		clamp(local.Y(), -half.Y(), half.Y()),
	}

	d := local.Sub(closest)
	dist := d.Len()
	if dist >= radius {
		return Contact{}
	}

	var normal mgl64.Vec2
	var depth float64
	if dist > 0 {
		normal = d.Mul(1 / dist)
		depth = radius - dist
	} else {
		// 3. Центр внутри прямоугольника: выталкиваем по оси наименьшего проникновения
		px := half.X() - math.Abs(local.X())
		py := half.Y() - math.Abs(local.Y())
		if py <= px {
			normal = mgl64.Vec2{0, sign(local.Y())}
			depth = py + radius
			closest = mgl64.Vec2{local.X(), half.Y() * sign(local.Y())}
		} else {
			normal = mgl64.Vec2{sign(local.X()), 0}
			depth = px + radius
			closest = mgl64.Vec2{half.X() * sign(local.X()), local.Y()}
		}
	}

	return Contact{
		Overlap: true,
		Normal:  Rotate(normal, boxRot),
		Depth:   depth,
		Point:   boxPos.Add(Rotate(closest, boxRot)),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
