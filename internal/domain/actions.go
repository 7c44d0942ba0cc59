package domain

import (
	"strings"

	"github.com/yohamta/donburi"
)

// BatterAction - ввод бэттера.
type BatterAction uint8

const (
	BatterNone BatterAction = iota
	BatterSwingCW
	BatterSwingCCW
	BatterMoveCW
	BatterMoveCCW
)

// FielderAction - ввод филдера.
type FielderAction uint8

const (
	FielderNone FielderAction = iota
	FielderBowl
	FielderMoveInfieldCW
	FielderMoveInfieldCCW
	FielderMoveOutfieldCW
	FielderMoveOutfieldCCW
)

// FielderRing - кольцо, по которому движутся филдеры.
type FielderRing uint8

const (
	RingInfield FielderRing = iota + 1
	RingOutfield
)

func (r FielderRing) String() string {
	switch r {
	case RingInfield:
		return "INFIELD"
	case RingOutfield:
		return "OUTFIELD"
	default:
		return "UNKNOWN"
	}
}

// Направления вращения: по часовой - минус.
const (
	RotationCW  = -1.0
	RotationCCW = 1.0
)

// Direction возвращает знак угловой скорости.
func (b BatterAction) Direction() float64 {
	switch b {
	case BatterSwingCW, BatterMoveCW:
		return RotationCW
	case BatterSwingCCW, BatterMoveCCW:
		return RotationCCW
	default:
		return 0
	}
}

// IsSwing отличает замах от простого поворота.
func (b BatterAction) IsSwing() bool {
	return b == BatterSwingCW || b == BatterSwingCCW
}

// Ring возвращает кольцо для команд движения. Для подачи ok == false.
func (f FielderAction) Ring() (FielderRing, bool) {
	switch f {
	case FielderMoveInfieldCW, FielderMoveInfieldCCW:
		return RingInfield, true
	case FielderMoveOutfieldCW, FielderMoveOutfieldCCW:
		return RingOutfield, true
	default:
		return 0, false
	}
}

// Direction возвращает знак угловой скорости кольца.
func (f FielderAction) Direction() float64 {
	switch f {
	case FielderMoveInfieldCW, FielderMoveOutfieldCW:
		return RotationCW
	case FielderMoveInfieldCCW, FielderMoveOutfieldCCW:
		return RotationCCW
	default:
		return 0
	}
}

// Action - размеченное объединение: заполнено ровно одно поле по Role.
type Action struct {
	Role    PositionKind  `msgpack:"r" json:"role"`
	Batter  BatterAction  `msgpack:"b,omitempty" json:"batter,omitempty"`
	Fielder FielderAction `msgpack:"f,omitempty" json:"fielder,omitempty"`
}

// BatterInput создает действие бэттера.
func BatterInput(a BatterAction) Action {
	return Action{Role: PositionBatter, Batter: a}
}

// FielderInput создает действие филдера.
func FielderInput(a FielderAction) Action {
	return Action{Role: PositionFielder, Fielder: a}
}

// Valid проверяет, что действие пришло не мусором из сети.
func (a Action) Valid() bool {
	switch a.Role {
	case PositionBatter:
		return a.Batter != BatterNone && a.Batter <= BatterMoveCCW && a.Fielder == FielderNone
	case PositionFielder:
		return a.Fielder != FielderNone && a.Fielder <= FielderMoveOutfieldCCW && a.Batter == BatterNone
	default:
		return false
	}
}

// Маппинг для конвертации JSON/CLI -> Domain
var actionStringToAction = map[string]Action{
	"SWING_CW":          BatterInput(BatterSwingCW),
	"SWING_CCW":         BatterInput(BatterSwingCCW),
	"MOVE_CW":           BatterInput(BatterMoveCW),
	"MOVE_CCW":          BatterInput(BatterMoveCCW),
	"BOWL":              FielderInput(FielderBowl),
	"MOVE_INFIELD_CW":   FielderInput(FielderMoveInfieldCW),
	"MOVE_INFIELD_CCW":  FielderInput(FielderMoveInfieldCCW),
	"MOVE_OUTFIELD_CW":  FielderInput(FielderMoveOutfieldCW),
	"MOVE_OUTFIELD_CCW": FielderInput(FielderMoveOutfieldCCW),
}

// Маппинг для логов Domain -> String
var actionToString = func() map[Action]string {
	m := make(map[Action]string, len(actionStringToAction))
	for name, action := range actionStringToAction {
		m[action] = name
	}
	return m
}()

// ParseAction конвертирует строку в Action. ok == false для неизвестной строки.
func ParseAction(s string) (Action, bool) {
	a, ok := actionStringToAction[strings.ToUpper(strings.TrimSpace(s))]
	return a, ok
}

// String реализует интерфейс Stringer (для fmt.Printf)
func (a Action) String() string {
	if name, ok := actionToString[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// ActionEntry - действие, привязанное к сущности игрока.
type ActionEntry struct {
	Entity donburi.Entity
	Action Action
}

// ActionBatch - все действия, собранные за один локальный тик, в порядке ввода.
type ActionBatch []ActionEntry

// Clone копирует пачку, чтобы история не делила память с очередью ввода.
func (b ActionBatch) Clone() ActionBatch {
	if len(b) == 0 {
		return nil
	}
	out := make(ActionBatch, len(b))
	copy(out, b)
	return out
}
