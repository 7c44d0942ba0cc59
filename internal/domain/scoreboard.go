package domain

import "errors"

const (
	// DeliveriesPerOver - после стольких записей игроки меняются ролями.
	DeliveriesPerOver = 6
	// OversPerMatch - после двух оверов матч окончен.
	OversPerMatch = 2
	// MaxDeliveries - предельная длина табло.
	MaxDeliveries = DeliveriesPerOver * OversPerMatch
)

// ErrScoreboardFull - попытка записи в табло законченного матча.
var ErrScoreboardFull = errors.New("scoreboard is full")

// BowlScore - результат одной подачи.
type BowlScore struct {
	Scorer Identity `msgpack:"s" json:"scorer"`
	Value  uint8    `msgpack:"v" json:"value"`
}

// BowlResult - последствие записи в табло.
type BowlResult uint8

const (
	BowlResultNone BowlResult = iota
	BowlResultChangePositions
	BowlResultGameOver
)

func (r BowlResult) String() string {
	switch r {
	case BowlResultChangePositions:
		return "CHANGE_POSITIONS"
	case BowlResultGameOver:
		return "GAME_OVER"
	default:
		return "NONE"
	}
}

// Scoreboard - журнал подач, только дописывается.
type Scoreboard struct {
	Scores []BowlScore `msgpack:"scores" json:"scores"`
}

func (s *Scoreboard) Len() int {
	return len(s.Scores)
}

// Get возвращает запись по индексу.
func (s *Scoreboard) Get(index int) (BowlScore, bool) {
	if index < 0 || index >= len(s.Scores) {
		return BowlScore{}, false
	}
	return s.Scores[index], true
}

// Push дописывает результат подачи.
// Смена сторон - каждые DeliveriesPerOver записей, конец игры - на MaxDeliveries.
func (s *Scoreboard) Push(score BowlScore) (BowlResult, error) {
	if len(s.Scores) >= MaxDeliveries {
		return BowlResultNone, ErrScoreboardFull
	}
	s.Scores = append(s.Scores, score)

	switch n := len(s.Scores); {
	case n == MaxDeliveries:
		return BowlResultGameOver, nil
	case n%DeliveriesPerOver == 0:
		return BowlResultChangePositions, nil
	default:
		return BowlResultNone, nil
	}
}

// PlayerScore суммирует очки игрока.
func (s *Scoreboard) PlayerScore(identity Identity) int {
	total := 0
	for _, score := range s.Scores {
		if score.Scorer == identity {
			total += int(score.Value)
		}
	}
	return total
}

// Clone - глубокая копия для предсказанной сущности.
func (s Scoreboard) Clone() Scoreboard {
	if s.Scores == nil {
		return Scoreboard{}
	}
	out := make([]BowlScore, len(s.Scores))
	copy(out, s.Scores)
	return Scoreboard{Scores: out}
}
