package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaySession_Record(t *testing.T) {
	var session ReplaySession

	_, ok := session.LastTick()
	assert.False(t, ok)

	session.Record(10, IdentityTwo, FielderInput(FielderBowl))
	session.Record(12, IdentityOne, BatterInput(BatterSwingCW))

	last, ok := session.LastTick()
	assert.True(t, ok)
	assert.Equal(t, Tick(12), last)
	assert.Len(t, session.Actions, 2)
	assert.Equal(t, IdentityTwo, session.Actions[0].Player)
}

func TestFieldPosition_Angle(t *testing.T) {
	assert.Equal(t, 0.0, FieldTop.Angle())
	assert.InDelta(t, 3.14159, FieldBottom.Angle(), 1e-5)
	assert.Equal(t, RingOutfield.Radius(), OutfieldRadius)
	assert.Equal(t, RingInfield.HWidth(), InfieldHWidth)
	assert.Equal(t, 14.0, WicketRadius)
}

func TestReplaySession_ZeroValue(t *testing.T) {
	session := ReplaySession{Instance: 4, TickRate: DefaultTickRate, StartTick: 65530}
	assert.Zero(t, session.Duration)
	assert.Empty(t, session.Actions)
}
