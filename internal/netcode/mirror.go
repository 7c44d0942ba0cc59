package netcode

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/snendev/cricket-pong/internal/components"
)

var (
	sourceQuery = donburi.NewQuery(filter.Contains(components.SourceOf))
	tickQuery   = donburi.NewQuery(filter.Contains(components.ShouldTick))
)

// MirrorInbound переводит сетевую форму источников в симуляционную.
// Прямая перезапись без сглаживания.
func MirrorInbound(world donburi.World) {
	mirrored := components.MirroredKinds()
	sourceQuery.Each(world, func(entry *donburi.Entry) {
		for _, spec := range mirrored {
			spec.Inbound(entry)
		}
	})
}

// MirrorOutbound переводит симуляционную форму тикающих сущностей в сетевую.
func MirrorOutbound(world donburi.World) {
	mirrored := components.MirroredKinds()
	tickQuery.Each(world, func(entry *donburi.Entry) {
		for _, spec := range mirrored {
			spec.Outbound(entry)
		}
	})
}

// Resync перезаписывает предсказания значениями источников для заданных Kind.
// Возвращает число обновленных пар.
func Resync(world donburi.World, specs []components.Spec) int {
	synced := 0
	sourceQuery.Each(world, func(source *donburi.Entry) {
		target := components.SourceOf.Get(source).Prediction
		if !world.Valid(target) {
			return
		}
		prediction := world.Entry(target)
		if !prediction.HasComponent(components.PredictionOf) ||
			components.PredictionOf.Get(prediction).Source != source.Entity() {
			return
		}
		for _, spec := range specs {
			spec.Copy(source, prediction)
		}
		synced++
	})
	return synced
}
