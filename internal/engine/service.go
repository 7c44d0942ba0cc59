package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/infrastructure/storage"
	"github.com/snendev/cricket-pong/internal/netcode"
	"github.com/snendev/cricket-pong/internal/network"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

var (
	ErrAlreadyJoined = errors.New("client already joined a match")
	ErrServerFull    = errors.New("no free match slots")
	ErrNotJoined     = errors.New("client is not in a match")
)

// JoinResult - куда попал клиент.
type JoinResult struct {
	Instance domain.GameInstance
	Identity domain.Identity
	Entity   domain.NetID
}

type joinRequest struct {
	client network.ClientID
	reply  chan joinReply
}

type joinReply struct {
	result JoinResult
	err    error
}

type actionRequest struct {
	client network.ClientID
	msg    api.ActionMessage
}

// InstanceSummary - состояние матча для /debug.
type InstanceSummary struct {
	ID         domain.GameInstance `json:"id"`
	Players    int                 `json:"players"`
	Phase      string              `json:"phase"`
	Deliveries int                 `json:"deliveries"`
	ScoreOne   int                 `json:"score_one"`
	ScoreTwo   int                 `json:"score_two"`
	Closing    bool                `json:"closing"`
}

var replicatedQuery = donburi.NewQuery(filter.Contains(components.NetID, components.Instance))

// Service - хост: один общий мир, много матчей, фиксированный шаг.
type Service struct {
	Config  Config
	World   donburi.World
	Sim     *sim.Simulator
	Hub     *network.Broadcaster
	Replays *storage.ReplayService

	// Instances меняются только в цикле. Для чтения снаружи есть Summaries.
	Instances map[domain.GameInstance]*Instance
	clients   map[network.ClientID]domain.GameInstance
	nextID    domain.GameInstance
	tick      domain.Tick

	mu        sync.RWMutex
	summaries []InstanceSummary

	joinChan   chan joinRequest
	leaveChan  chan network.ClientID
	actionChan chan actionRequest

	log *logrus.Entry
}

func NewService(cfg Config) (*Service, error) {
	world := donburi.NewWorld()
	s := &Service{
		Config:     cfg,
		World:      world,
		Sim:        sim.NewSimulator(world, cfg.TickRate),
		Hub:        network.NewBroadcaster(),
		Instances:  make(map[domain.GameInstance]*Instance),
		clients:    make(map[network.ClientID]domain.GameInstance),
		joinChan:   make(chan joinRequest, 16),
		leaveChan:  make(chan network.ClientID, 16),
		actionChan: make(chan actionRequest, 256),
		log:        logger.WithComponent("service"),
	}

	if cfg.ReplayDir != "" {
		replays, err := storage.NewReplayService(cfg.ReplayDir)
		if err != nil {
			return nil, err
		}
		s.Replays = replays
	}
	return s, nil
}

// Tick - номер следующего тика.
func (s *Service) Tick() domain.Tick { return s.tick }

// --- ВНЕШНИЙ API (любая горутина) ---

// Join ставит клиента в матч и ждет ответа цикла.
func (s *Service) Join(ctx context.Context, client network.ClientID) (JoinResult, error) {
	req := joinRequest{client: client, reply: make(chan joinReply, 1)}
	select {
	case s.joinChan <- req:
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
	select {
	case reply := <-req.reply:
		return reply.result, reply.err
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

// Leave сообщает об уходе клиента.
func (s *Service) Leave(client network.ClientID) {
	select {
	case s.leaveChan <- client:
	default:
		s.log.WithField("client", client).Warn("Leave queue full")
	}
}

// Submit передает действие клиента в цикл.
func (s *Service) Submit(client network.ClientID, msg api.ActionMessage) {
	select {
	case s.actionChan <- actionRequest{client: client, msg: msg}:
	default:
		s.log.WithField("client", client).Warn("Action queue full, dropping input")
	}
}

// Summaries - копия состояния матчей на последнем тике.
func (s *Service) Summaries() []InstanceSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]InstanceSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// --- GAME LOOP ---

// Run крутит фиксированный шаг до отмены контекста.
func (s *Service) Run(ctx context.Context) {
	period := time.Second / time.Duration(s.Config.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	s.log.WithField("tick_rate", s.Config.TickRate).Info("Game loop started")

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case req := <-s.joinChan:
			result, err := s.join(req.client)
			req.reply <- joinReply{result: result, err: err}
		case client := <-s.leaveChan:
			s.leave(client)
		case req := <-s.actionChan:
			if err := s.queueAction(req.client, req.msg); err != nil {
				s.log.WithError(err).WithField("client", req.client).Debug("Rejected action")
			}
		case <-ticker.C:
			s.Step()
		}
	}
}

// join сажает клиента на первое свободное место или создает матч.
func (s *Service) join(client network.ClientID) (JoinResult, error) {
	if _, ok := s.clients[client]; ok {
		return JoinResult{}, ErrAlreadyJoined
	}

	// 1. Ищем матч со свободным местом
	var inst *Instance
	var seat *Seat
	for _, id := range s.instanceIDs() {
		if free, ok := s.Instances[id].freeSeat(); ok {
			inst, seat = s.Instances[id], free
			break
		}
	}

	// 2. Или создаем новый
	if inst == nil {
		if s.Config.MaxInstances > 0 && len(s.Instances) >= s.Config.MaxInstances {
			return JoinResult{}, ErrServerFull
		}
		s.nextID++
		created, err := newInstance(s.World, s.nextID, s.Config.TickRate)
		if err != nil {
			return JoinResult{}, err
		}
		// текущие значения считаются уже отправленными: новый клиент получит их вставкой
		if _, err := created.changes(s.entriesOf(created.ID)); err != nil {
			return JoinResult{}, err
		}
		s.Instances[created.ID] = created
		inst, seat = created, created.Seats[0]
		s.log.WithField("instance", created.ID).Info("Instance created")
	}

	seat.Client = client
	s.clients[client] = inst.ID

	// 3. Снимок для клиента: вставка всех сущностей, затем назначение игрока
	payloads, err := inst.snapshot(s.entriesOf(inst.ID))
	if err != nil {
		return JoinResult{}, fmt.Errorf("snapshot %s: %w", inst.ID, err)
	}
	last := s.tick - 1
	s.Hub.SendTo(client, api.Envelope{Type: api.MsgComponentInsert, Tick: last, Components: payloads})
	s.Hub.SendTo(client, api.Envelope{
		Type:       api.MsgPlayerAssignment,
		Tick:       last,
		Assignment: &api.PlayerAssignment{Entity: seat.NetID, Identity: seat.Identity, Instance: inst.ID},
	})

	inst.AddLog("Player joined", logrus.Fields{"client": client, "identity": seat.Identity.String()})

	// 4. Оба места заняты - матч начинается со следующего тика
	if inst.Full() && !inst.Started {
		sim.ActivateLobby(s.World, inst.ID)
		inst.start(s.tick, time.Now().Unix())
	}

	return JoinResult{Instance: inst.ID, Identity: seat.Identity, Entity: seat.NetID}, nil
}

// leave освобождает место и закрывает матч.
func (s *Service) leave(client network.ClientID) {
	id, ok := s.clients[client]
	if !ok {
		return
	}
	delete(s.clients, client)

	inst, ok := s.Instances[id]
	if !ok {
		return
	}
	if seat, ok := inst.seatOf(client); ok {
		seat.Client = ""
	}
	inst.AddLog("Player left", logrus.Fields{"client": client})

	if !inst.Closing {
		inst.Closing = true
		if scene, ok := sim.LookupScene(s.World, id); ok && scene.Lobby != nil {
			components.Lobby.Get(scene.Lobby).State = domain.LobbyUnloading
		}
	}
}

// queueAction проверяет и буферизует действие клиента.
func (s *Service) queueAction(client network.ClientID, msg api.ActionMessage) error {
	id, ok := s.clients[client]
	if !ok {
		return ErrNotJoined
	}
	inst, ok := s.Instances[id]
	if !ok || inst.Closing {
		return ErrNotJoined
	}
	seat, ok := inst.seatOf(client)
	if !ok {
		return ErrNotJoined
	}
	_, err := inst.queue(s.tick, seat, msg)
	return err
}

// Step выполняет один тик всех матчей и рассылает изменения.
func (s *Service) Step() {
	tick := s.tick
	ids := s.instanceIDs()

	// 1. Ввод всех матчей одной пачкой
	var batch domain.ActionBatch
	for _, id := range ids {
		batch = append(batch, s.Instances[id].takeBatch(tick)...)
	}

	// 2. Симуляция
	s.Sim.Step(tick, batch)
	netcode.MirrorOutbound(s.World)

	// 3. Рассылка
	byInstance := s.groupEntries()
	summaries := make([]InstanceSummary, 0, len(ids))
	for _, id := range ids {
		inst := s.Instances[id]
		if inst.Started {
			inst.Replay.Duration++
		}
		s.publish(tick, inst, byInstance[id])
		summaries = append(summaries, s.summarize(inst))
	}

	// 4. Закрытые матчи выгружаются после того, как клиенты узнали об этом
	for _, id := range ids {
		if inst := s.Instances[id]; inst.Closing {
			s.unload(inst)
		}
	}

	s.mu.Lock()
	s.summaries = summaries
	s.mu.Unlock()

	s.tick = s.tick.Next()
}

func (s *Service) publish(tick domain.Tick, inst *Instance, entries []*donburi.Entry) {
	changes, err := inst.changes(entries)
	if err != nil {
		inst.log.WithError(err).Error("Failed to encode changes")
		return
	}

	var scores []api.ScoreAnnouncement
	scene, ok := sim.LookupScene(s.World, inst.ID)
	if ok && scene.Scoreboard != nil {
		board := components.Scoreboard.GetValue(scene.Scoreboard)
		scores = inst.newScores(board)
		for _, score := range scores {
			inst.AddLog("Score", logrus.Fields{
				"scorer":   score.Scorer.String(),
				"value":    score.Value,
				"delivery": score.Delivery,
			})
		}
		if scene.Phase() == domain.PhaseGameOver && !inst.Finished {
			inst.Finished = true
			inst.AddLog("Game over", logrus.Fields{
				"one": board.PlayerScore(domain.IdentityOne),
				"two": board.PlayerScore(domain.IdentityTwo),
			})
			s.saveReplay(inst)
		}
	}

	for _, client := range inst.clients() {
		if len(changes) > 0 {
			s.Hub.SendTo(client, api.Envelope{Type: api.MsgComponentUpdate, Tick: tick, Components: changes})
		}
		for i := range scores {
			s.Hub.SendTo(client, api.Envelope{Type: api.MsgScore, Tick: tick, Score: &scores[i]})
		}
	}
}

func (s *Service) unload(inst *Instance) {
	s.saveReplay(inst)
	for _, client := range inst.clients() {
		s.Hub.SendTo(client, api.Envelope{
			Type:  api.MsgLobby,
			Tick:  s.tick,
			Lobby: &api.LobbyNotice{Instance: inst.ID, State: domain.LobbyUnloading},
		})
		delete(s.clients, client)
	}
	sim.UnloadInstance(s.World, inst.ID)
	delete(s.Instances, inst.ID)
}

func (s *Service) saveReplay(inst *Instance) {
	if s.Replays == nil || !inst.Started || inst.saved {
		return
	}
	path, err := s.Replays.Save(inst.Replay)
	if err != nil {
		inst.log.WithError(err).Error("Failed to save replay")
		return
	}
	inst.saved = true
	inst.AddLog("Replay saved", logrus.Fields{"path": path, "actions": len(inst.Replay.Actions)})
}

func (s *Service) shutdown() {
	for _, id := range s.instanceIDs() {
		s.saveReplay(s.Instances[id])
	}
	s.log.Info("Game loop stopped")
}

func (s *Service) summarize(inst *Instance) InstanceSummary {
	summary := InstanceSummary{ID: inst.ID, Players: inst.PlayerCount(), Closing: inst.Closing}
	scene, ok := sim.LookupScene(s.World, inst.ID)
	if !ok {
		return summary
	}
	summary.Phase = scene.Phase().String()
	if scene.Scoreboard != nil {
		board := components.Scoreboard.GetValue(scene.Scoreboard)
		summary.Deliveries = board.Len()
		summary.ScoreOne = board.PlayerScore(domain.IdentityOne)
		summary.ScoreTwo = board.PlayerScore(domain.IdentityTwo)
	}
	return summary
}

func (s *Service) instanceIDs() []domain.GameInstance {
	ids := make([]domain.GameInstance, 0, len(s.Instances))
	for id := range s.Instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// groupEntries раскладывает реплицируемые сущности по матчам в порядке создания.
func (s *Service) groupEntries() map[domain.GameInstance][]*donburi.Entry {
	out := make(map[domain.GameInstance][]*donburi.Entry)
	replicatedQuery.Each(s.World, func(entry *donburi.Entry) {
		id := components.Instance.Get(entry).ID
		out[id] = append(out[id], entry)
	})
	for _, entries := range out {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Entity() < entries[j].Entity() })
	}
	return out
}

func (s *Service) entriesOf(id domain.GameInstance) []*donburi.Entry {
	return s.groupEntries()[id]
}
