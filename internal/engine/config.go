package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/netcode"
)

// Config хранит параметры запуска хоста и клиента
type Config struct {
	// TickRate - тиков в секунду. Одинаков у клиента и сервера.
	TickRate int
	// HistoryTicks - емкость журнала ввода клиента.
	HistoryTicks int
	// InputLead - на сколько тиков клиент опережает сервер.
	InputLead int
	// MaxInstances - сколько матчей хост держит одновременно (0 - без ограничения).
	MaxInstances int

	Port      string
	ServerURL string
	// ReplayDir - куда писать записи матчей. Пусто - не писать.
	ReplayDir string
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	return Config{
		TickRate:     domain.DefaultTickRate,
		HistoryTicks: netcode.DefaultHistoryTicks,
		InputLead:    netcode.DefaultInputLead,
		Port:         "8080",
		ServerURL:    "ws://localhost:8080/ws",
	}
}

// LoadConfig читает .env (если есть) и переменные окружения CP_*.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := NewConfig()
	ints := []struct {
		key string
		dst *int
	}{
		{"CP_TICK_RATE", &cfg.TickRate},
		{"CP_HISTORY_TICKS", &cfg.HistoryTicks},
		{"CP_INPUT_LEAD", &cfg.InputLead},
		{"CP_MAX_INSTANCES", &cfg.MaxInstances},
	}
	for _, v := range ints {
		raw, ok := os.LookupEnv(v.key)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = n
	}

	if v := os.Getenv("CP_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("CP_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	cfg.ReplayDir = os.Getenv("CP_REPLAY_DIR")

	return cfg, cfg.Validate()
}

// Validate проверяет согласованность значений.
func (c Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return fmt.Errorf("tick rate %d out of range", c.TickRate)
	}
	if c.HistoryTicks < c.InputLead*2 {
		return fmt.Errorf("history of %d ticks cannot cover input lead %d", c.HistoryTicks, c.InputLead)
	}
	if c.MaxInstances < 0 {
		return errors.New("max instances cannot be negative")
	}
	return nil
}

// Session - параметры клиентской сессии из конфига.
func (c Config) Session() netcode.SessionConfig {
	return netcode.SessionConfig{
		TickRate:     c.TickRate,
		HistoryTicks: c.HistoryTicks,
		InputLead:    c.InputLead,
	}
}
