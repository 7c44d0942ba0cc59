package components

import (
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/yohamta/donburi"
)

// InstanceData - матч, которому принадлежит сущность. Не меняется после создания.
type InstanceData struct {
	ID domain.GameInstance
}

// NetIDData - сетевой идентификатор сущности.
type NetIDData struct {
	ID domain.NetID
}

// SourceOfData висит на авторитетной сущности и указывает на ее предсказанную пару.
type SourceOfData struct {
	Prediction donburi.Entity
}

// PredictionOfData висит на предсказанной сущности и указывает на источник.
type PredictionOfData struct {
	Source donburi.Entity
}

var (
	Instance     = donburi.NewComponentType[InstanceData]()
	NetID        = donburi.NewComponentType[NetIDData]()
	SourceOf     = donburi.NewComponentType[SourceOfData]()
	PredictionOf = donburi.NewComponentType[PredictionOfData]()

	// ShouldTick - сущность участвует в локальной симуляции.
	ShouldTick = donburi.NewTag()
	// ShouldRender - сущность читает слой отрисовки.
	ShouldRender = donburi.NewTag()
	// Controlled - игрок, которым управляет этот клиент.
	Controlled = donburi.NewTag()
)

// InstanceOf возвращает матч сущности.
func InstanceOf(entry *donburi.Entry) (domain.GameInstance, bool) {
	if entry == nil || !entry.Valid() || !entry.HasComponent(Instance) {
		return 0, false
	}
	return Instance.Get(entry).ID, true
}
