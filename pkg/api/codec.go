package api

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode сериализует конверт в msgpack.
func Encode(env Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	return data, nil
}

// Decode читает конверт и проверяет его содержимое.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("invalid %s: %w", env.Type, err)
	}
	return env, nil
}

// NewAction упаковывает действие в конверт.
func NewAction(msg ActionMessage) Envelope {
	return Envelope{Type: MsgAction, Tick: msg.Tick, Action: &msg}
}
