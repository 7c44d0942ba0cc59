package netcode

import (
	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/pkg/api"
)

// ComponentEvent - "компонент сущности вставлен или изменен на тике T".
// Транспорт переводит в него сетевые сообщения, ядро больше ничего не видит.
type ComponentEvent struct {
	Kind     components.Kind
	Entity   domain.NetID
	Instance domain.GameInstance
	Tick     domain.Tick
	Inserted bool
	Payload  []byte
}

// EventsFromEnvelope разворачивает конверт с компонентами в события.
func EventsFromEnvelope(env api.Envelope) []ComponentEvent {
	inserted := env.Type == api.MsgComponentInsert
	events := make([]ComponentEvent, 0, len(env.Components))
	for _, c := range env.Components {
		events = append(events, ComponentEvent{
			Kind:     components.Kind(c.Kind),
			Entity:   c.Entity,
			Instance: c.Instance,
			Tick:     env.Tick,
			Inserted: inserted,
			Payload:  c.Data,
		})
	}
	return events
}

// ActionSink принимает действия, отправляемые на сервер.
type ActionSink interface {
	Submit(msg api.ActionMessage) error
}

// ActionSinkFunc адаптирует функцию к ActionSink.
type ActionSinkFunc func(msg api.ActionMessage) error

func (f ActionSinkFunc) Submit(msg api.ActionMessage) error { return f(msg) }
