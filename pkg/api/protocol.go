package api

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/snendev/cricket-pong/internal/domain"
)

// Типы сообщений конверта.
const (
	MsgComponentInsert  = "COMPONENT_INSERT"
	MsgComponentUpdate  = "COMPONENT_UPDATE"
	MsgPlayerAssignment = "PLAYER_ASSIGNMENT"
	MsgScore            = "SCORE"
	MsgAction           = "ACTION"
	MsgLobby            = "LOBBY"
)

// Envelope это корневой объект любого сообщения по сокету (в обе стороны).
// Заполнено только поле, соответствующее Type.
type Envelope struct {
	// Type тип сообщения (MsgComponentInsert, MsgAction, ...).
	Type string `msgpack:"t" json:"type"`

	// Tick серверный тик, на котором снято состояние (сервер -> клиент)
	// или на который запланировано действие (клиент -> сервер).
	Tick domain.Tick `msgpack:"k" json:"tick"`

	Components []ComponentPayload `msgpack:"c,omitempty" json:"components,omitempty"`
	Assignment *PlayerAssignment  `msgpack:"a,omitempty" json:"assignment,omitempty"`
	Score      *ScoreAnnouncement `msgpack:"s,omitempty" json:"score,omitempty"`
	Action     *ActionMessage     `msgpack:"x,omitempty" json:"action,omitempty"`
	Lobby      *LobbyNotice       `msgpack:"l,omitempty" json:"lobby,omitempty"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// ComponentPayload - значение одного компонента одной сущности в сетевой форме.
type ComponentPayload struct {
	Entity domain.NetID `msgpack:"e" json:"entity"`
	// Instance матч сущности. Обязателен для вставки.
	Instance domain.GameInstance `msgpack:"i,omitempty" json:"instance,omitempty"`
	// Kind номер реплицируемого типа компонента (components.Kind).
	Kind uint8 `msgpack:"n" json:"kind"`
	// Data msgpack-значение компонента.
	Data msgpack.RawMessage `msgpack:"d" json:"data"`
}

// PlayerAssignment сообщает клиенту, какой сущностью игрока он управляет.
// Отправляется один раз после входа в матч.
type PlayerAssignment struct {
	Entity   domain.NetID        `msgpack:"e" json:"entity"`
	Identity domain.Identity     `msgpack:"p" json:"identity"`
	Instance domain.GameInstance `msgpack:"i" json:"instance"`
}

// ScoreAnnouncement - очко, начисленное сервером. Только для отображения.
type ScoreAnnouncement struct {
	Instance domain.GameInstance `msgpack:"i" json:"instance"`
	Scorer   domain.Identity     `msgpack:"p" json:"scorer"`
	Value    uint8               `msgpack:"v" json:"value"`
	Delivery int                 `msgpack:"d" json:"delivery"`
}

// LobbyNotice - смена состояния лобби.
type LobbyNotice struct {
	Instance domain.GameInstance `msgpack:"i" json:"instance"`
	State    domain.LobbyState   `msgpack:"s" json:"state"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ActionMessage - одно действие игрока на заданный тик.
type ActionMessage struct {
	Tick   domain.Tick   `msgpack:"k" json:"tick"`
	Entity domain.NetID  `msgpack:"e" json:"entity"`
	Action domain.Action `msgpack:"a" json:"action"`
}
