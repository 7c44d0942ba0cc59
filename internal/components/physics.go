package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// --- Форма для симуляции (float64) ---

// TransformData - положение тела на плоскости.
type TransformData struct {
	Translation mgl64.Vec2
	Rotation    float64
}

// VelocityData - линейная и угловая скорость.
type VelocityData struct {
	Linear  mgl64.Vec2
	Angular float64
}

// ImpulseData - накопленный внешний импульс, сбрасывается после шага физики.
type ImpulseData struct {
	Linear  mgl64.Vec2
	Angular float64
}

var (
	Transform = donburi.NewComponentType[TransformData]()
	Velocity  = donburi.NewComponentType[VelocityData]()
	Impulse   = donburi.NewComponentType[ImpulseData]()
)

// --- Форма для сети (float32) ---

// SyncTransformData - сетевое представление TransformData.
type SyncTransformData struct {
	X        float32 `msgpack:"x" json:"x"`
	Y        float32 `msgpack:"y" json:"y"`
	Rotation float32 `msgpack:"r" json:"r"`
}

// SyncVelocityData - сетевое представление VelocityData.
type SyncVelocityData struct {
	X       float32 `msgpack:"x" json:"x"`
	Y       float32 `msgpack:"y" json:"y"`
	Angular float32 `msgpack:"a" json:"a"`
}

// SyncImpulseData - сетевое представление ImpulseData.
type SyncImpulseData struct {
	X       float32 `msgpack:"x" json:"x"`
	Y       float32 `msgpack:"y" json:"y"`
	Angular float32 `msgpack:"a" json:"a"`
}

var (
	SyncTransform = donburi.NewComponentType[SyncTransformData]()
	SyncVelocity  = donburi.NewComponentType[SyncVelocityData]()
	SyncImpulse   = donburi.NewComponentType[SyncImpulseData]()
)

// --- Конвертация ---

func (w SyncTransformData) Sim() TransformData {
	return TransformData{
		Translation: mgl64.Vec2{float64(w.X), float64(w.Y)},
		Rotation:    float64(w.Rotation),
	}
}

func (t TransformData) Wire() SyncTransformData {
	return SyncTransformData{
		X:        float32(t.Translation.X()),
		Y:        float32(t.Translation.Y()),
		Rotation: float32(t.Rotation),
	}
}

func (w SyncVelocityData) Sim() VelocityData {
	return VelocityData{
		Linear:  mgl64.Vec2{float64(w.X), float64(w.Y)},
		Angular: float64(w.Angular),
	}
}

func (v VelocityData) Wire() SyncVelocityData {
	return SyncVelocityData{
		X:       float32(v.Linear.X()),
		Y:       float32(v.Linear.Y()),
		Angular: float32(v.Angular),
	}
}

func (w SyncImpulseData) Sim() ImpulseData {
	return ImpulseData{
		Linear:  mgl64.Vec2{float64(w.X), float64(w.Y)},
		Angular: float64(w.Angular),
	}
}

func (i ImpulseData) Wire() SyncImpulseData {
	return SyncImpulseData{
		X:       float32(i.Linear.X()),
		Y:       float32(i.Linear.Y()),
		Angular: float32(i.Angular),
	}
}
