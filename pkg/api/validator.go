package api

import (
	"errors"
	"fmt"
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

var ErrMissingPayload = errors.New("payload is missing for message type")

func (e Envelope) Validate() error {
	switch e.Type {
	case MsgComponentInsert, MsgComponentUpdate:
		if len(e.Components) == 0 {
			return ErrMissingPayload
		}
		for i, c := range e.Components {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("component %d: %w", i, err)
			}
		}
		return nil
	case MsgPlayerAssignment:
		if e.Assignment == nil {
			return ErrMissingPayload
		}
		return e.Assignment.Validate()
	case MsgScore:
		if e.Score == nil {
			return ErrMissingPayload
		}
		return e.Score.Validate()
	case MsgAction:
		if e.Action == nil {
			return ErrMissingPayload
		}
		return e.Action.Validate()
	case MsgLobby:
		if e.Lobby == nil {
			return ErrMissingPayload
		}
		return nil
	default:
		return fmt.Errorf("unknown message type %q", e.Type)
	}
}

func (p *ComponentPayload) Validate() error {
	if p.Entity == 0 {
		return errors.New("entity is required")
	}
	if p.Kind == 0 {
		return errors.New("kind is required")
	}
	if len(p.Data) == 0 {
		return errors.New("data is required")
	}
	return nil
}

func (p *PlayerAssignment) Validate() error {
	if p.Entity == 0 {
		return errors.New("entity is required")
	}
	if p.Identity.Other() == 0 {
		return errors.New("identity must be ONE or TWO")
	}
	return nil
}

func (p *ScoreAnnouncement) Validate() error {
	if p.Scorer.Other() == 0 {
		return errors.New("scorer must be ONE or TWO")
	}
	if p.Value == 0 {
		return errors.New("score value cannot be zero")
	}
	return nil
}

func (p *ActionMessage) Validate() error {
	if p.Entity == 0 {
		return errors.New("entity is required")
	}
	if !p.Action.Valid() {
		return errors.New("malformed action")
	}
	return nil
}
