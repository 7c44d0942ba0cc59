package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/snendev/cricket-pong/internal/domain"
)

var ErrInvalidMagic = errors.New("invalid magic")

func (s *ReplayService) Load(path string) (*domain.ReplaySession, error) {
	return Load(path)
}

// Load читает файл записи по пути.
func Load(path string) (*domain.ReplaySession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}

// Read разбирает бинарную запись.
func Read(r io.Reader) (*domain.ReplaySession, error) {
	// 1. Заголовок целиком
	var header ReplayFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return nil, ErrInvalidMagic
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}

	session := &domain.ReplaySession{
		Instance:  domain.GameInstance(header.Instance),
		TickRate:  header.TickRate,
		Timestamp: header.Timestamp,
		StartTick: domain.Tick(header.StartTick),
		Duration:  header.Duration,
		Actions:   make([]domain.ReplayAction, 0, header.ActionCount),
	}

	// 2. Действия
	for i := uint32(0); i < header.ActionCount; i++ {
		var record ActionRecord
		if err := binary.Read(r, binary.LittleEndian, &record); err != nil {
			return nil, fmt.Errorf("failed to read action %d: %w", i, err)
		}

		action := domain.Action{
			Role:    domain.PositionKind(record.Role),
			Batter:  domain.BatterAction(record.Batter),
			Fielder: domain.FielderAction(record.Fielder),
		}
		if !action.Valid() {
			return nil, fmt.Errorf("action %d: malformed action", i)
		}
		session.Record(domain.Tick(record.Tick), domain.Identity(record.Player), action)
	}

	return session, nil
}
