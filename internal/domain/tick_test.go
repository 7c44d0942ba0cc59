package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGreaterThan(t *testing.T) {
	tests := []struct {
		name string
		a, b Tick
		want bool
	}{
		{"simple greater", 5, 3, true},
		{"simple less", 3, 5, false},
		{"equal", 7, 7, false},
		{"wrapped greater", 2, 65534, true},
		{"wrapped less", 65534, 2, false},
		{"half range", 32768, 0, true},
		{"past half range", 32769, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SequenceGreaterThan(tt.a, tt.b))
			assert.Equal(t, tt.want, tt.a.After(tt.b))
		})
	}
}

func TestTick_NextWraps(t *testing.T) {
	assert.Equal(t, Tick(0), Tick(65535).Next())
	assert.True(t, Tick(65535).Next().After(65535))
}

func TestTick_Diff(t *testing.T) {
	assert.Equal(t, 4, Tick(40).Diff(36))
	assert.Equal(t, -4, Tick(36).Diff(40))
	assert.Equal(t, 3, Tick(1).Diff(65534))
}

func TestLatestTick(t *testing.T) {
	_, ok := LatestTick()
	assert.False(t, ok)

	latest, ok := LatestTick(36, 38, 37)
	assert.True(t, ok)
	assert.Equal(t, Tick(38), latest)

	// 2 новее 65530 после переполнения
	latest, ok = LatestTick(65530, 2, 65535)
	assert.True(t, ok)
	assert.Equal(t, Tick(2), latest)
}
