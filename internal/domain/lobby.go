package domain

import "fmt"

// GameInstance - идентификатор матча. Все сущности одного матча несут
// одинаковый GameInstance, физика не сталкивает сущности разных матчей.
type GameInstance uint64

func (g GameInstance) String() string {
	return fmt.Sprintf("instance-%d", uint64(g))
}

// LobbyState - жизненный цикл лобби, владеющего инстансом.
type LobbyState uint8

const (
	LobbyLoading LobbyState = iota
	LobbyActive
	// LobbyUnloading - все сущности инстанса удаляются.
	LobbyUnloading
)

func (s LobbyState) String() string {
	switch s {
	case LobbyLoading:
		return "LOADING"
	case LobbyActive:
		return "ACTIVE"
	case LobbyUnloading:
		return "UNLOADING"
	default:
		return "UNKNOWN"
	}
}
