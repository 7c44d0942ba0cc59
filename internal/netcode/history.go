package netcode

import (
	"errors"

	"github.com/snendev/cricket-pong/internal/domain"
)

// DefaultHistoryTicks - два секунды ввода при 64 тиках. Больше этого
// раунд-трип не бывает, а более старая коррекция обрабатывается без переигровки.
const DefaultHistoryTicks = 128

// ErrTickOutOfOrder - тик не новее последнего записанного.
var ErrTickOutOfOrder = errors.New("tick is not newer than the last recorded tick")

// TickBatch - ввод одного локального тика.
type TickBatch struct {
	Tick  domain.Tick
	Batch domain.ActionBatch
}

// TickHistory - кольцевой журнал локального ввода: тик -> пачка действий.
// Записи только дописываются и никогда не переупорядочиваются.
type TickHistory struct {
	entries []TickBatch
	head    int // индекс самой старой записи
	size    int

	// evicted - самый новый тик, вытесненный переполнением (а не подтверждением).
	evicted    domain.Tick
	hasEvicted bool
}

// NewTickHistory создает журнал на capacity тиков.
func NewTickHistory(capacity int) *TickHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryTicks
	}
	return &TickHistory{entries: make([]TickBatch, capacity)}
}

func (h *TickHistory) Len() int { return h.size }
func (h *TickHistory) Cap() int { return len(h.entries) }

// Insert дописывает пачку тика. Вызывается до выполнения свежего тика.
func (h *TickHistory) Insert(tick domain.Tick, batch domain.ActionBatch) error {
	if newest, ok := h.Newest(); ok && !tick.After(newest) {
		return ErrTickOutOfOrder
	}

	if h.size == len(h.entries) {
		h.hasEvicted = true
		h.evicted = h.entries[h.head].Tick
		h.entries[h.head] = TickBatch{}
		h.head = (h.head + 1) % len(h.entries)
		h.size--
	}

	idx := (h.head + h.size) % len(h.entries)
	h.entries[idx] = TickBatch{Tick: tick, Batch: batch.Clone()}
	h.size++
	return nil
}

// ReplaysSince возвращает записи с тиком строго новее tick по возрастанию.
// Хост штампует обновления состоянием после шага tick, поэтому сам tick не переигрывается.
// Журнал не меняется, вызов можно повторять.
func (h *TickHistory) ReplaysSince(tick domain.Tick) []TickBatch {
	var out []TickBatch
	for i := 0; i < h.size; i++ {
		entry := h.entries[(h.head+i)%len(h.entries)]
		if entry.Tick.After(tick) {
			out = append(out, entry)
		}
	}
	return out
}

// Acknowledge удаляет записи, подтвержденные сервером (тик <= tick).
func (h *TickHistory) Acknowledge(tick domain.Tick) int {
	removed := 0
	for h.size > 0 && !h.entries[h.head].Tick.After(tick) {
		h.entries[h.head] = TickBatch{}
		h.head = (h.head + 1) % len(h.entries)
		h.size--
		removed++
	}
	// все вытесненное переполнением сервер уже подтвердил
	if h.hasEvicted && !h.evicted.After(tick) {
		h.hasEvicted = false
		h.evicted = 0
	}
	return removed
}

// Oldest - самый старый хранимый тик.
func (h *TickHistory) Oldest() (domain.Tick, bool) {
	if h.size == 0 {
		return 0, false
	}
	return h.entries[h.head].Tick, true
}

// Newest - последний записанный тик.
func (h *TickHistory) Newest() (domain.Tick, bool) {
	if h.size == 0 {
		return 0, false
	}
	return h.entries[(h.head+h.size-1)%len(h.entries)].Tick, true
}

// Covers сообщает, хранится ли весь ввод после tick. Если переполнение
// вытеснило тик новее tick, переиграть честно уже нельзя.
func (h *TickHistory) Covers(tick domain.Tick) bool {
	return !h.hasEvicted || !h.evicted.After(tick)
}

// Reset очищает журнал (переподключение).
func (h *TickHistory) Reset() {
	for i := range h.entries {
		h.entries[i] = TickBatch{}
	}
	h.head, h.size = 0, 0
	h.hasEvicted = false
	h.evicted = 0
}
