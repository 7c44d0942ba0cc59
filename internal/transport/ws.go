// Package transport - клиентская сторона websocket-протокола.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	inboxSize  = 512
	outboxSize = 64
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrOutboxFull = errors.New("outbox full")
	errNotBinary  = errors.New("non-binary message")
)

// Conn - подключение к хосту. Входящие конверты копятся в Inbox,
// исходящие действия уходят через Submit.
type Conn struct {
	ws     *websocket.Conn
	inbox  chan api.Envelope
	outbox chan api.Envelope
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error

	log *logrus.Entry
}

// Dial подключается к хосту и запускает пампы.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		ws:     ws,
		inbox:  make(chan api.Envelope, inboxSize),
		outbox: make(chan api.Envelope, outboxSize),
		done:   make(chan struct{}),
		log:    logger.WithComponent("transport").WithField("url", url),
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Inbox - конверты от хоста. Закрывается при разрыве.
func (c *Conn) Inbox() <-chan api.Envelope { return c.inbox }

// Done закрывается, когда соединение завершено.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err - причина разрыва.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Poll забирает все накопившиеся конверты без ожидания.
func (c *Conn) Poll() []api.Envelope {
	var out []api.Envelope
	for {
		select {
		case env, ok := <-c.inbox:
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

// Submit ставит действие в очередь отправки.
func (c *Conn) Submit(msg api.ActionMessage) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.outbox <- api.NewAction(msg):
		return nil
	default:
		return ErrOutboxFull
	}
}

// Close закрывает соединение.
func (c *Conn) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		if cerr := c.ws.Close(); cerr != nil {
			c.log.WithError(cerr).Debug("failed to close websocket")
		}
	})
}

func (c *Conn) readPump() {
	defer close(c.inbox)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("WS read error")
			}
			c.shutdown(err)
			return
		}
		// любое сообщение от хоста продлевает соединение
		if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Debug("failed to extend read deadline")
		}
		if kind != websocket.BinaryMessage {
			c.log.WithError(errNotBinary).Debug("Ignoring message")
			continue
		}

		env, err := api.Decode(data)
		if err != nil {
			c.log.WithError(err).Warn("Dropping malformed envelope")
			continue
		}

		select {
		case c.inbox <- env:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case env := <-c.outbox:
			data, err := api.Encode(env)
			if err != nil {
				c.log.WithError(err).Error("Failed to encode envelope")
				continue
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
				c.shutdown(err)
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(err)
				return
			}
		}
	}
}
