package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/snendev/cricket-pong/internal/domain"
)

const (
	MagicHeader string = `CPRP` // 4 байта
	Version1    uint32 = 1

	// FileExt - расширение файлов записи.
	FileExt = ".cprp"
)

// ReplayFileHeader - точное представление заголовка файла в памяти.
// binary.Write пишет его целиком: только массивы и числа.
type ReplayFileHeader struct {
	Magic       [4]byte // 4 байта
	Version     uint32  // 4 байта
	Instance    uint64  // 8 байт
	Timestamp   int64   // 8 байт
	TickRate    uint16  // 2 байта
	StartTick   uint16  // 2 байта
	Duration    uint32  // 4 байта
	ActionCount uint32  // 4 байта
}

// ActionRecord - одно действие, 6 байт.
type ActionRecord struct {
	Tick    uint16
	Player  uint8
	Role    uint8
	Batter  uint8
	Fielder uint8
}

type ReplayService struct {
	SaveDir string
}

func NewReplayService(dir string) (*ReplayService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create replay dir: %w", err)
	}
	return &ReplayService{SaveDir: dir}, nil
}

// Save пишет запись в SaveDir и возвращает путь к файлу.
func (s *ReplayService) Save(session *domain.ReplaySession) (string, error) {
	filename := fmt.Sprintf("replay_%d_%d%s", uint64(session.Instance), session.Timestamp, FileExt)
	path := filepath.Join(s.SaveDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := Write(w, session); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush replay: %w", err)
	}
	return path, nil
}

// Write сериализует запись в бинарный формат.
func Write(w io.Writer, s *domain.ReplaySession) error {
	if uint64(len(s.Actions)) > math.MaxUint32 {
		return fmt.Errorf("too many actions: %d", len(s.Actions))
	}

	// 1. Заголовок
	header := ReplayFileHeader{
		Version:     Version1,
		Instance:    uint64(s.Instance),
		Timestamp:   s.Timestamp,
		TickRate:    s.TickRate,
		StartTick:   uint16(s.StartTick),
		Duration:    s.Duration,
		ActionCount: uint32(len(s.Actions)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// 2. Действия
	for i, act := range s.Actions {
		record := ActionRecord{
			Tick:    uint16(act.Tick),
			Player:  uint8(act.Player),
			Role:    uint8(act.Action.Role),
			Batter:  uint8(act.Action.Batter),
			Fielder: uint8(act.Action.Fielder),
		}
		if err := binary.Write(w, binary.LittleEndian, &record); err != nil {
			return fmt.Errorf("failed to write action %d: %w", i, err)
		}
	}
	return nil
}
