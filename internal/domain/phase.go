package domain

// GamePhase - состояние матча внутри одного инстанса.
type GamePhase uint8

const (
	PhaseInactive GamePhase = iota
	// PhasePreparing - лобби активировано, мяч еще не у боулера.
	PhasePreparing
	PhaseBowling
	PhaseActive
	// PhaseGameOver - терминальное состояние.
	PhaseGameOver
)

var phaseNames = map[GamePhase]string{
	PhaseInactive:  "INACTIVE",
	PhasePreparing: "PREPARING",
	PhaseBowling:   "BOWLING",
	PhaseActive:    "ACTIVE",
	PhaseGameOver:  "GAME_OVER",
}

func (p GamePhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// CanBowl - подача разрешена только пока мяч у боулера.
func (p GamePhase) CanBowl() bool {
	return p == PhaseBowling || p == PhasePreparing
}

// AcceptsInput - до активации лобби и после конца игры ввод игнорируется.
func (p GamePhase) AcceptsInput() bool {
	return p != PhaseInactive && p != PhaseGameOver
}

// TracksBowler - мяч следует за боулером, пока подача не сделана.
func (p GamePhase) TracksBowler() bool {
	return p == PhaseBowling || p == PhasePreparing
}

// Scoring - столкновения засчитываются только в активной фазе.
func (p GamePhase) Scoring() bool {
	return p == PhaseActive
}
