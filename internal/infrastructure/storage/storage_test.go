package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func sampleSession() *domain.ReplaySession {
	session := &domain.ReplaySession{
		Instance:  42,
		TickRate:  domain.DefaultTickRate,
		Timestamp: 1760659200,
		StartTick: 65530,
		Duration:  900,
	}
	session.Record(65531, domain.IdentityTwo, domain.FielderInput(domain.FielderBowl))
	session.Record(3, domain.IdentityOne, domain.BatterInput(domain.BatterSwingCCW))
	session.Record(3, domain.IdentityTwo, domain.FielderInput(domain.FielderMoveOutfieldCW))
	return session
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSession()))

	// заголовок 36 байт + 3 действия по 6
	assert.Equal(t, 36+3*6, buf.Len())

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), got)
}

func TestRead_Rejects(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSession()))
	valid := buf.Bytes()

	t.Run("magic", func(t *testing.T) {
		data := append([]byte("XXXX"), valid[4:]...)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("version", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[4] = 9
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "unsupported version")
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(valid[:len(valid)-2]))
		assert.Error(t, err)
	})

	t.Run("garbage action", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[36+3] = 7 // Role первого действия
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "malformed")
	})
}

func TestReplayService_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "replays")
	service, err := NewReplayService(dir)
	require.NoError(t, err)

	path, err := service.Save(sampleSession())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, FileExt))

	got, err := service.Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.GameInstance(42), got.Instance)
	assert.Len(t, got.Actions, 3)
}
