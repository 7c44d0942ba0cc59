package domain

import (
	"fmt"
	"strconv"
)

// ObjectKind - тип игрового объекта. Для реплицируемых сущностей сервер
// сообщает его при первой вставке.
type ObjectKind uint8

const (
	KindUnknown ObjectKind = iota
	KindBall
	KindBatter
	KindFielder
	KindFielderTrack
	KindWicket
	KindBoundary
	KindScoreboard
	KindLobby
	KindPlayerOne
	KindPlayerTwo
)

var objectKindNames = map[ObjectKind]string{
	KindBall:         "Ball",
	KindBatter:       "Batter",
	KindFielder:      "Fielder",
	KindFielderTrack: "FielderTrack",
	KindWicket:       "Wicket",
	KindBoundary:     "Boundary",
	KindScoreboard:   "Scoreboard",
	KindLobby:        "GameLobby",
	KindPlayerOne:    "Player One",
	KindPlayerTwo:    "Player Two",
}

func (k ObjectKind) String() string {
	if name, ok := objectKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Known - только известные типы получают пару Source/Prediction.
func (k ObjectKind) Known() bool {
	_, ok := objectKindNames[k]
	return ok
}

// NetID - сетевой идентификатор сущности (Kind + Instance + Index).
type NetID uint64

// Конфигурация битов
const (
	bitsIndex    = 40
	bitsInstance = 16
	bitsKind     = 8

	shiftInstance = bitsIndex
	shiftKind     = bitsIndex + bitsInstance

	maskIndex    = (1 << bitsIndex) - 1
	maskInstance = (1 << bitsInstance) - 1
	maskKind     = (1 << bitsKind) - 1
)

// PackNetID создает ID из компонентов. Старшие биты instance отбрасываются.
func PackNetID(kind ObjectKind, instance GameInstance, index uint64) NetID {
	id := index & maskIndex
	id |= (uint64(instance) & maskInstance) << shiftInstance
	id |= (uint64(kind) & maskKind) << shiftKind
	return NetID(id)
}

func (id NetID) Kind() ObjectKind {
	return ObjectKind((id >> shiftKind) & maskKind)
}

func (id NetID) Instance() uint16 {
	return uint16((id >> shiftInstance) & maskInstance)
}

func (id NetID) Index() uint64 {
	return uint64(id & maskIndex)
}

// MarshalJSON сериализует ID в строку, так как JS теряет точность для больших int64
func (id NetID) MarshalJSON() ([]byte, error) {
	s := strconv.FormatUint(uint64(id), 10)
	return []byte(`"` + s + `"`), nil
}

// UnmarshalJSON парсит строку или число из JSON
func (id *NetID) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	val, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse net id: %w", err)
	}
	*id = NetID(val)
	return nil
}

// String для логов: [Kind:Instance:Idx]
func (id NetID) String() string {
	return fmt.Sprintf("[%s:%d:%d]", id.Kind(), id.Instance(), id.Index())
}
