package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snendev/cricket-pong/internal/bot"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/engine"
	"github.com/snendev/cricket-pong/internal/netcode"
	"github.com/snendev/cricket-pong/internal/transport"
	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

var errMatchClosed = errors.New("match closed by host")

func init() {
	logger.Init()
}

func main() {
	cfg, err := engine.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}

	var useBot bool
	flag.StringVar(&cfg.ServerURL, "url", cfg.ServerURL, "Host websocket URL")
	flag.BoolVar(&useBot, "bot", true, "Let the scripted controller play")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := transport.Dial(ctx, cfg.ServerURL)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect")
	}
	defer conn.Close()

	logger.Log.WithField("url", cfg.ServerURL).Info("Connected")

	c := &client{
		session: netcode.NewSession(cfg.Session(), conn),
		conn:    conn,
		period:  time.Second / time.Duration(cfg.TickRate),
		log:     logger.WithComponent("client"),
	}
	if useBot {
		c.bot = bot.NewController()
	}

	if err := c.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Error("Client stopped")
		return
	}
	logger.Log.Info("Done.")
}

type client struct {
	session *netcode.Session
	conn    *transport.Conn
	bot     *bot.Controller
	period  time.Duration
	log     *logrus.Entry
}

// run - кадровый цикл: входящие, ввод, свежие тики по часам.
func (c *client) run(ctx context.Context) error {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	var start time.Time
	done := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.Done():
			return c.conn.Err()
		case now := <-ticker.C:
			// 1. Все, что пришло от хоста с прошлого кадра
			for _, env := range c.conn.Poll() {
				if err := c.handle(env); err != nil {
					return err
				}
			}
			if !c.session.Synced() {
				continue
			}
			if start.IsZero() {
				start = now
			}

			// 2. Решение бота по предсказанному миру
			if c.bot != nil {
				if player, ok := c.session.Player(); ok {
					if action, ok := c.bot.Decide(c.session.World, player); ok {
						c.session.Queue(action)
					}
				}
			}

			// 3. Сколько тиков наступило по часам
			due := int(now.Sub(start)/c.period) + 1
			report := c.session.Frame(due - done)
			done = due

			if report.Rollback.Triggered && report.Rollback.Snapped {
				c.log.WithField("baseline", report.Rollback.Baseline).Warn("Snapped to server state")
			}
		}
	}
}

func (c *client) handle(env api.Envelope) error {
	switch env.Type {
	case api.MsgComponentInsert, api.MsgComponentUpdate:
		c.session.Receive(netcode.EventsFromEnvelope(env)...)
	case api.MsgPlayerAssignment:
		if err := c.session.AssignPlayer(env.Assignment.Entity); err != nil {
			c.log.WithError(err).Error("Player assignment failed")
			return nil
		}
		c.log.WithFields(logrus.Fields{
			"instance": env.Assignment.Instance,
			"identity": env.Assignment.Identity.String(),
		}).Info("Joined match")
	case api.MsgScore:
		c.log.WithFields(logrus.Fields{
			"scorer":   env.Score.Scorer.String(),
			"value":    env.Score.Value,
			"delivery": env.Score.Delivery,
		}).Info("Score")
	case api.MsgLobby:
		if env.Lobby.State == domain.LobbyUnloading {
			return errMatchClosed
		}
	}
	return nil
}
