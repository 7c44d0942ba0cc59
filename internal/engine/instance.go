package engine

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/netcode"
	"github.com/snendev/cricket-pong/internal/network"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

// maxActionLead - насколько вперед клиент может планировать ввод.
const maxActionLead = 64

var (
	ErrNotYourPlayer = errors.New("action targets another player")
	ErrTooFarAhead   = errors.New("action is scheduled too far ahead")
)

// Seat - место игрока в матче. Client пуст, пока место свободно.
type Seat struct {
	Client   network.ClientID
	Identity domain.Identity
	Entity   donburi.Entity
	NetID    domain.NetID
}

type queuedAction struct {
	player domain.Identity
	entity donburi.Entity
	action domain.Action
}

type publishKey struct {
	id   domain.NetID
	kind uint8
}

// Instance представляет собой один матч на хосте.
// Все методы вызываются только из цикла Service.
type Instance struct {
	ID    domain.GameInstance
	Seats []*Seat

	// Started - лобби активировано, идет запись.
	Started bool
	// Closing - игрок ушел, матч выгружается после следующей рассылки.
	Closing bool
	// Finished - матч дошел до GameOver.
	Finished bool

	Replay *domain.ReplaySession

	actions   map[domain.Tick][]queuedAction
	published map[publishKey][]byte
	announced int
	saved     bool

	log *logrus.Entry
}

// newInstance спавнит сцену матча в общем мире.
func newInstance(world donburi.World, id domain.GameInstance, tickRate int) (*Instance, error) {
	sim.SpawnScene(world, sim.SceneSpec{Instance: id, Tick: true})
	scene, ok := sim.LookupScene(world, id)
	if !ok {
		return nil, fmt.Errorf("spawn %s: scene not found", id)
	}

	inst := &Instance{
		ID:        id,
		Replay:    &domain.ReplaySession{Instance: id, TickRate: uint16(tickRate)},
		actions:   make(map[domain.Tick][]queuedAction),
		published: make(map[publishKey][]byte),
		log:       logger.Log.WithFields(logrus.Fields{"component": "instance", "instance": id}),
	}

	for _, identity := range []domain.Identity{domain.IdentityOne, domain.IdentityTwo} {
		for _, p := range scene.Players {
			if components.Player.Get(p).Identity != identity {
				continue
			}
			inst.Seats = append(inst.Seats, &Seat{
				Identity: identity,
				Entity:   p.Entity(),
				NetID:    components.NetID.Get(p).ID,
			})
		}
	}
	if len(inst.Seats) != 2 {
		return nil, fmt.Errorf("spawn %s: expected 2 players, got %d", id, len(inst.Seats))
	}
	return inst, nil
}

// freeSeat возвращает первое свободное место.
func (i *Instance) freeSeat() (*Seat, bool) {
	if i.Closing {
		return nil, false
	}
	for _, seat := range i.Seats {
		if seat.Client == "" {
			return seat, true
		}
	}
	return nil, false
}

func (i *Instance) seatOf(client network.ClientID) (*Seat, bool) {
	for _, seat := range i.Seats {
		if seat.Client == client {
			return seat, true
		}
	}
	return nil, false
}

// Full - оба места заняты.
func (i *Instance) Full() bool {
	_, free := i.freeSeat()
	return !free && !i.Closing
}

// PlayerCount - число подключенных игроков.
func (i *Instance) PlayerCount() int {
	n := 0
	for _, seat := range i.Seats {
		if seat.Client != "" {
			n++
		}
	}
	return n
}

// start начинает запись с тика, который будет выполнен следующим.
func (i *Instance) start(tick domain.Tick, timestamp int64) {
	i.Started = true
	i.Replay.StartTick = tick
	i.Replay.Timestamp = timestamp
	i.AddLog("Match started", logrus.Fields{"start_tick": tick})
}

// queue ставит действие клиента на его тик. Опоздавшее действие
// применяется на текущем тике.
func (i *Instance) queue(current domain.Tick, seat *Seat, msg api.ActionMessage) (domain.Tick, error) {
	if msg.Entity != seat.NetID {
		return 0, fmt.Errorf("%s: %w", msg.Entity, ErrNotYourPlayer)
	}
	if !msg.Action.Valid() {
		return 0, fmt.Errorf("%s: malformed action", msg.Entity)
	}

	target := msg.Tick
	if !target.After(current) {
		target = current
	}
	if target.Diff(current) > maxActionLead {
		return 0, fmt.Errorf("tick %d (now %d): %w", msg.Tick, current, ErrTooFarAhead)
	}

	i.actions[target] = append(i.actions[target], queuedAction{
		player: seat.Identity,
		entity: seat.Entity,
		action: msg.Action,
	})
	return target, nil
}

// takeBatch забирает действия тика и пишет их в запись.
func (i *Instance) takeBatch(tick domain.Tick) domain.ActionBatch {
	queued, ok := i.actions[tick]
	if !ok {
		return nil
	}
	delete(i.actions, tick)

	batch := make(domain.ActionBatch, 0, len(queued))
	for _, q := range queued {
		batch = append(batch, domain.ActionEntry{Entity: q.entity, Action: q.action})
		if i.Started {
			i.Replay.Record(tick, q.player, q.action)
		}
	}
	return batch
}

// snapshot - полное состояние матча для нового клиента.
func (i *Instance) snapshot(entries []*donburi.Entry) ([]api.ComponentPayload, error) {
	var out []api.ComponentPayload
	for _, entry := range entries {
		payloads, err := netcode.EncodeEntity(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, payloads...)
	}
	return out, nil
}

// changes возвращает компоненты, изменившиеся с прошлой рассылки.
func (i *Instance) changes(entries []*donburi.Entry) ([]api.ComponentPayload, error) {
	var out []api.ComponentPayload
	for _, entry := range entries {
		payloads, err := netcode.EncodeEntity(entry)
		if err != nil {
			return nil, err
		}
		for _, p := range payloads {
			key := publishKey{p.Entity, p.Kind}
			if last, ok := i.published[key]; ok && bytes.Equal(last, p.Data) {
				continue
			}
			i.published[key] = p.Data
			out = append(out, p)
		}
	}
	return out, nil
}

// newScores возвращает очки, о которых клиенты еще не знают.
func (i *Instance) newScores(board domain.Scoreboard) []api.ScoreAnnouncement {
	var out []api.ScoreAnnouncement
	for ; i.announced < board.Len(); i.announced++ {
		score, _ := board.Get(i.announced)
		out = append(out, api.ScoreAnnouncement{
			Instance: i.ID,
			Scorer:   score.Scorer,
			Value:    score.Value,
			Delivery: i.announced + 1,
		})
	}
	return out
}

// clients - подключенные клиенты матча.
func (i *Instance) clients() []network.ClientID {
	var out []network.ClientID
	for _, seat := range i.Seats {
		if seat.Client != "" {
			out = append(out, seat.Client)
		}
	}
	return out
}
