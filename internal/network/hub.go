package network

import (
	"sync"

	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

// ClientID - идентификатор подключения.
type ClientID string

// outboxSize - сколько конвертов ждут отправки одному клиенту.
const outboxSize = 256

// Broadcaster занимается только рассылкой конвертов подписчикам
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: ClientID -> Личный канал
	subscribers map[ClientID]chan api.Envelope
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[ClientID]chan api.Envelope),
	}
}

// Register создает личный канал клиента. Старый канал с тем же ID закрывается.
func (b *Broadcaster) Register(id ClientID) <-chan api.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[id]; ok {
		close(old)
	}

	ch := make(chan api.Envelope, outboxSize)
	b.subscribers[id] = ch
	return ch
}

// Unregister удаляет подписчика
func (b *Broadcaster) Unregister(id ClientID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// SendTo отправляет конверт одному клиенту. Переполненный канал теряет сообщение.
func (b *Broadcaster) SendTo(id ClientID, msg api.Envelope) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		return true
	default:
		logger.Log.WithField("client", id).WithField("type", msg.Type).Warn("Hub: outbox full, dropping message")
		return false
	}
}

// HasSubscriber проверяет, подключен ли клиент
func (b *Broadcaster) HasSubscriber(id ClientID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[id]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
