package netcode

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

// DefaultInputLead - на сколько тиков клиент опережает сервер.
const DefaultInputLead = 4

// SessionConfig - параметры клиентской сессии.
type SessionConfig struct {
	TickRate     int
	HistoryTicks int
	InputLead    int
}

// FrameReport - что произошло за один кадр.
type FrameReport struct {
	FreshTicks int
	Submitted  int
	Rollback   RollbackReport
}

// Session владеет миром клиента и проводит через него кадр:
// свежий тик -> зеркало -> откат и переигровка -> зеркало обратно.
// Не потокобезопасна, вызывается из одного цикла.
type Session struct {
	World       donburi.World
	Simulator   *sim.Simulator
	History     *TickHistory
	Registry    *Registry
	Coordinator *Coordinator

	sink      ActionSink
	lead      int
	tick      domain.Tick
	synced    bool
	player    donburi.Entity
	hasPlayer bool

	queue   []domain.Action
	pending []ComponentEvent

	log *logrus.Entry
}

func NewSession(cfg SessionConfig, sink ActionSink) *Session {
	if cfg.InputLead <= 0 {
		cfg.InputLead = DefaultInputLead
	}
	world := donburi.NewWorld()
	simulator := sim.NewSimulator(world, cfg.TickRate)
	history := NewTickHistory(cfg.HistoryTicks)

	return &Session{
		World:       world,
		Simulator:   simulator,
		History:     history,
		Registry:    NewRegistry(world),
		Coordinator: NewCoordinator(world, history, simulator),
		sink:        sink,
		lead:        cfg.InputLead,
		log:         logger.WithComponent("session"),
	}
}

// Tick - номер следующего свежего тика.
func (s *Session) Tick() domain.Tick { return s.tick }

// Synced - пришло ли первое сообщение сервера.
func (s *Session) Synced() bool { return s.synced }

// Player возвращает предсказанную сущность локального игрока.
func (s *Session) Player() (donburi.Entity, bool) {
	if !s.hasPlayer || !s.World.Valid(s.player) {
		return 0, false
	}
	return s.player, true
}

// Queue добавляет локальный ввод в следующий свежий тик.
func (s *Session) Queue(action domain.Action) {
	if !action.Valid() {
		return
	}
	s.queue = append(s.queue, action)
}

// Receive принимает события компонентов. Вставки применяются сразу,
// обновления пишутся в источники и ждут кадра для отката.
func (s *Session) Receive(events ...ComponentEvent) {
	for _, ev := range events {
		s.sync(ev.Tick)

		if ev.Inserted {
			if _, err := s.Registry.Observe(ev); err != nil {
				s.log.WithError(err).WithField("entity", ev.Entity.String()).Warn("Dropped component insert")
			}
			continue
		}

		if err := s.Registry.Apply(ev); err != nil {
			entry := s.log.WithError(err).WithField("entity", ev.Entity.String())
			if errors.Is(err, ErrMissingPairing) || errors.Is(err, ErrStaleUpdate) {
				entry.Debug("Dropped component update")
			} else {
				entry.Warn("Dropped component update")
			}
			continue
		}
		s.pending = append(s.pending, ev)

		if ev.Kind == components.KindLobby {
			s.checkUnload(ev.Entity)
		}
	}
}

// AssignPlayer отмечает сущность, которой управляет этот клиент.
func (s *Session) AssignPlayer(id domain.NetID) error {
	entity, err := s.Registry.PlayerAssigned(id)
	if err != nil {
		return err
	}
	s.player, s.hasPlayer = entity, true
	s.log.WithField("entity", id.String()).Info("Player assigned")
	return nil
}

// sync выставляет локальный тик впереди сервера по первому сообщению.
func (s *Session) sync(server domain.Tick) {
	if s.synced {
		return
	}
	s.tick = server + domain.Tick(s.lead)
	s.synced = true
}

// Frame проводит кадр. fresh - сколько свежих тиков наступило по часам хоста.
func (s *Session) Frame(fresh int) FrameReport {
	report := FrameReport{}

	// 1. Свежие тики: ввод -> сервер, журнал, шаг
	for i := 0; i < fresh; i++ {
		batch, submitted := s.captureBatch()
		report.Submitted += submitted

		if err := s.History.Insert(s.tick, batch); err != nil {
			s.log.WithError(err).WithField("tick", s.tick).Error("Failed to record input")
		}
		s.Simulator.Step(s.tick, batch)
		s.tick = s.tick.Next()
		report.FreshTicks++
	}

	// 2. Обновления сервера: зеркало, откат, переигровка
	if len(s.pending) > 0 {
		MirrorInbound(s.World)
		report.Rollback = s.Coordinator.Reconcile(s.pending)
		s.pending = s.pending[:0]
	}

	// 3. Симуляционная форма -> сетевая для отрисовки
	MirrorOutbound(s.World)
	return report
}

// captureBatch забирает очередь ввода в пачку текущего тика и отправляет
// каждое действие на сервер.
func (s *Session) captureBatch() (domain.ActionBatch, int) {
	if len(s.queue) == 0 {
		return nil, 0
	}
	defer func() { s.queue = s.queue[:0] }()

	player, ok := s.Player()
	if !ok {
		s.log.WithField("inputs", len(s.queue)).Debug("No controlled player, dropping input")
		return nil, 0
	}
	id, ok := s.Registry.NetIDOf(player)
	if !ok {
		return nil, 0
	}

	batch := make(domain.ActionBatch, 0, len(s.queue))
	submitted := 0
	for _, action := range s.queue {
		batch = append(batch, domain.ActionEntry{Entity: player, Action: action})
		if s.sink == nil {
			continue
		}
		msg := api.ActionMessage{Tick: s.tick, Entity: id, Action: action}
		if err := s.sink.Submit(msg); err != nil {
			s.log.WithError(err).Warn("Failed to submit action")
			continue
		}
		submitted++
	}
	return batch, submitted
}

// checkUnload выгружает матч, когда сервер закрыл лобби.
func (s *Session) checkUnload(id domain.NetID) {
	pair, ok := s.Registry.Lookup(id)
	if !ok {
		return
	}
	source := s.World.Entry(pair.Source)
	if !source.HasComponent(components.Lobby) || components.Lobby.Get(source).State != domain.LobbyUnloading {
		return
	}

	removed := sim.UnloadInstance(s.World, pair.Instance)
	forgotten := s.Registry.Forget(pair.Instance)
	s.pending = dropInstance(s.pending, pair.Instance)
	if s.hasPlayer && !s.World.Valid(s.player) {
		s.hasPlayer = false
	}

	s.log.WithFields(logrus.Fields{
		"instance": pair.Instance,
		"entities": removed,
		"pairs":    forgotten,
	}).Debug("Forgot unloaded instance")
}

func dropInstance(events []ComponentEvent, instance domain.GameInstance) []ComponentEvent {
	kept := events[:0]
	for _, ev := range events {
		id := ev.Instance
		if id == 0 {
			id = domain.GameInstance(ev.Entity.Instance())
		}
		if id != instance {
			kept = append(kept, ev)
		}
	}
	return kept
}

// String для отладки.
func (s *Session) String() string {
	return fmt.Sprintf("session(tick=%d pairs=%d history=%d)", s.tick, s.Registry.Len(), s.History.Len())
}
