package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/snendev/cricket-pong/internal/engine"
	"github.com/snendev/cricket-pong/internal/network"
	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
	"github.com/snendev/cricket-pong/pkg/utils"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	joinTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и Service
type Client struct {
	Game *engine.Service
	Conn *websocket.Conn
	ID   network.ClientID

	outbox <-chan api.Envelope
	log    *logrus.Entry
}

func NewClient(game *engine.Service, conn *websocket.Conn) *Client {
	id := network.ClientID(utils.GenerateID())
	return &Client{
		Game: game,
		Conn: conn,
		ID:   id,
		log:  logger.WithComponent("ws").WithField("client", id),
	}
}

// join подписывает клиента на рассылку и сажает его в матч.
// Подписка идет первой, иначе снимок матча уйдет в пустоту.
func (c *Client) join(ctx context.Context) error {
	c.outbox = c.Game.Hub.Register(c.ID)

	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	result, err := c.Game.Join(ctx, c.ID)
	if err != nil {
		c.Game.Hub.Unregister(c.ID)
		return err
	}
	c.log.WithFields(logrus.Fields{
		"instance": result.Instance,
		"identity": result.Identity.String(),
	}).Info("Client joined")
	return nil
}

// readPump читает действия клиента
func (c *Client) readPump() {
	defer func() {
		c.Game.Leave(c.ID)
		c.Game.Hub.Unregister(c.ID)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
		c.log.Info("Client disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("WS read error")
			}
			return
		}
		if kind != websocket.BinaryMessage {
			c.log.Debug("Ignoring non-binary message")
			continue
		}

		env, err := api.Decode(data)
		if err != nil {
			c.log.WithError(err).Debug("Dropping malformed message")
			continue
		}
		if env.Type != api.MsgAction {
			c.log.WithField("type", env.Type).Debug("Unexpected message from client")
			continue
		}
		c.Game.Submit(c.ID, *env.Action)
	}
}

// writePump отправляет конверты клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case env, ok := <-c.outbox:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			data, err := api.Encode(env)
			if err != nil {
				c.log.WithError(err).Error("Failed to encode envelope")
				continue
			}
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				c.log.WithError(err).Debug("write message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
