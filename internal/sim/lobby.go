package sim

import (
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/pkg/logger"
)

var (
	lobbyQuery    = donburi.NewQuery(filter.Contains(components.Lobby, components.Phase, components.Instance))
	instanceQuery = donburi.NewQuery(filter.Contains(components.Instance))
)

// ActivateLobby переводит лобби матча в Active, а фазу - в Preparing.
// Следующий тик поставит мяч к боулеру.
func ActivateLobby(world donburi.World, instance domain.GameInstance) bool {
	activated := false
	lobbyQuery.Each(world, func(entry *donburi.Entry) {
		if components.Instance.Get(entry).ID != instance {
			return
		}
		lobby := components.Lobby.Get(entry)
		if lobby.State != domain.LobbyLoading {
			return
		}
		lobby.State = domain.LobbyActive
		phase := components.Phase.Get(entry)
		if phase.Phase == domain.PhaseInactive {
			phase.Phase = domain.PhasePreparing
		}
		activated = true
	})
	if activated {
		logger.WithComponent("lobby").WithField("instance", instance).Info("Lobby activated")
	}
	return activated
}

// LobbyStateOf возвращает состояние лобби матча.
func LobbyStateOf(world donburi.World, instance domain.GameInstance) (domain.LobbyState, bool) {
	var state domain.LobbyState
	found := false
	lobbyQuery.Each(world, func(entry *donburi.Entry) {
		if found || components.Instance.Get(entry).ID != instance {
			return
		}
		state = components.Lobby.Get(entry).State
		found = true
	})
	return state, found
}

// UnloadInstance удаляет все сущности матча: и источники, и предсказания.
// Повторный вызов безопасен.
func UnloadInstance(world donburi.World, instance domain.GameInstance) int {
	// 1. Сначала собираем: удалять во время обхода нельзя
	var doomed []donburi.Entity
	instanceQuery.Each(world, func(entry *donburi.Entry) {
		if components.Instance.Get(entry).ID == instance {
			doomed = append(doomed, entry.Entity())
		}
	})

	// 2. Удаляем
	for _, entity := range doomed {
		if world.Valid(entity) {
			world.Remove(entity)
		}
	}

	if len(doomed) > 0 {
		logger.WithComponent("lobby").WithFields(logrus.Fields{
			"instance": instance,
			"entities": len(doomed),
		}).Info("Instance unloaded")
	}
	return len(doomed)
}
