package domain

// ReplayAction - одно действие игрока, примененное хостом на тике Tick.
type ReplayAction struct {
	Tick   Tick     `json:"tick"`
	Player Identity `json:"player"` // Кто сделал
	Action Action   `json:"action"` // Что сделал
}

// ReplaySession - полная запись матча. Сцена строится детерминированно,
// поэтому для воспроизведения достаточно действий.
type ReplaySession struct {
	Instance  GameInstance `json:"instance"`
	TickRate  uint16       `json:"tickRate"`
	Timestamp int64        `json:"timestamp"`
	// StartTick - первый тик после активации лобби.
	StartTick Tick `json:"startTick"`
	// Duration - сколько тиков выполнено с StartTick.
	Duration uint32         `json:"duration"`
	Actions  []ReplayAction `json:"actions"`
}

// Record дописывает действие в запись.
func (s *ReplaySession) Record(tick Tick, player Identity, action Action) {
	s.Actions = append(s.Actions, ReplayAction{Tick: tick, Player: player, Action: action})
}

// LastTick - тик последнего записанного действия.
func (s *ReplaySession) LastTick() (Tick, bool) {
	if len(s.Actions) == 0 {
		return 0, false
	}
	return s.Actions[len(s.Actions)-1].Tick, true
}
