package components

import (
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/yohamta/donburi"
)

// BallData хранит счетчик касаний филдеров подряд.
type BallData struct {
	Passes uint8 `msgpack:"passes" json:"passes"`
}

// BatterData - блокировка замаха. Пока Locked, новые команды бэттера игнорируются.
type BatterData struct {
	Locked     bool    `msgpack:"locked" json:"locked"`
	SwingTimer float64 `msgpack:"timer" json:"timer"`
}

// FielderData - место филдера.
type FielderData struct {
	Ring     domain.FielderRing   `msgpack:"ring" json:"ring"`
	Position domain.FieldPosition `msgpack:"pos" json:"pos"`
}

// FielderTrackData - кольцо, по которому ездят филдеры (для отрисовки).
type FielderTrackData struct {
	Ring domain.FielderRing `msgpack:"ring" json:"ring"`
}

// WicketData - сенсор калитки в центре поля.
type WicketData struct {
	Radius float64 `msgpack:"r" json:"r"`
}

// BoundaryData - сенсор границы поля.
type BoundaryData struct {
	Radius float64 `msgpack:"r" json:"r"`
}

// PhaseData - фаза матча инстанса.
type PhaseData struct {
	Phase domain.GamePhase `msgpack:"phase" json:"phase"`
}

// LobbyData - состояние лобби, владеющего инстансом.
type LobbyData struct {
	State domain.LobbyState `msgpack:"state" json:"state"`
}

// PlayerData - игрок и его текущая роль.
type PlayerData struct {
	Identity domain.Identity     `msgpack:"id" json:"id"`
	Position domain.PositionKind `msgpack:"pos" json:"pos"`
}

var (
	Ball         = donburi.NewComponentType[BallData]()
	Batter       = donburi.NewComponentType[BatterData]()
	Fielder      = donburi.NewComponentType[FielderData]()
	FielderTrack = donburi.NewComponentType[FielderTrackData]()
	Wicket       = donburi.NewComponentType[WicketData]()
	Boundary     = donburi.NewComponentType[BoundaryData]()
	Scoreboard   = donburi.NewComponentType[domain.Scoreboard]()
	Phase        = donburi.NewComponentType[PhaseData]()
	Lobby        = donburi.NewComponentType[LobbyData]()
	Player       = donburi.NewComponentType[PlayerData]()
)
