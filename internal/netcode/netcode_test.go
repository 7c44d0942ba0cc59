package netcode

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/sim"
	"github.com/snendev/cricket-pong/pkg/api"
	"github.com/snendev/cricket-pong/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

var netQuery = donburi.NewQuery(filter.Contains(components.NetID))

// fakeServer - авторитетный мир одного матча для тестов.
type fakeServer struct {
	world donburi.World
	sim   *sim.Simulator
	tick  domain.Tick
}

func newFakeServer(t *testing.T, instance domain.GameInstance) *fakeServer {
	t.Helper()
	world := donburi.NewWorld()
	sim.SpawnScene(world, sim.SceneSpec{Instance: instance, Tick: true})
	require.True(t, sim.ActivateLobby(world, instance))
	return &fakeServer{world: world, sim: sim.NewSimulator(world, domain.DefaultTickRate)}
}

// step выполняет текущий тик и возвращает его номер.
func (s *fakeServer) step(batch domain.ActionBatch) domain.Tick {
	tick := s.tick
	s.sim.Step(tick, batch)
	s.tick = s.tick.Next()
	return tick
}

// snapshot - состояние после тика tick в виде событий.
func (s *fakeServer) snapshot(t *testing.T, tick domain.Tick, inserted bool) []ComponentEvent {
	t.Helper()
	MirrorOutbound(s.world)

	typ := api.MsgComponentUpdate
	if inserted {
		typ = api.MsgComponentInsert
	}
	env := api.Envelope{Type: typ, Tick: tick}
	netQuery.Each(s.world, func(entry *donburi.Entry) {
		payloads, err := EncodeEntity(entry)
		require.NoError(t, err)
		env.Components = append(env.Components, payloads...)
	})
	return EventsFromEnvelope(env)
}

// entityOf ищет сущность сервера по NetID.
func (s *fakeServer) entityOf(t *testing.T, id domain.NetID) *donburi.Entry {
	t.Helper()
	var found *donburi.Entry
	netQuery.Each(s.world, func(entry *donburi.Entry) {
		if components.NetID.Get(entry).ID == id {
			found = entry
		}
	})
	require.NotNil(t, found, "no server entity %s", id)
	return found
}

func (s *fakeServer) netID(t *testing.T, kind domain.ObjectKind) domain.NetID {
	t.Helper()
	var id domain.NetID
	netQuery.Each(s.world, func(entry *donburi.Entry) {
		if candidate := components.NetID.Get(entry).ID; candidate.Kind() == kind {
			id = candidate
		}
	})
	require.NotZero(t, id, "no server entity of kind %s", kind)
	return id
}

func only(events []ComponentEvent, keep func(ComponentEvent) bool) []ComponentEvent {
	var out []ComponentEvent
	for _, ev := range events {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// recordingSink запоминает отправленные действия.
type recordingSink struct {
	sent []api.ActionMessage
}

func (r *recordingSink) Submit(msg api.ActionMessage) error {
	r.sent = append(r.sent, msg)
	return nil
}

// recordingStepper запоминает переигранные тики.
type recordingStepper struct {
	ticks []domain.Tick
}

func (r *recordingStepper) Step(tick domain.Tick, _ domain.ActionBatch) {
	r.ticks = append(r.ticks, tick)
}
