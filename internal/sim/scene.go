package sim

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/physics"
)

// Scene - сущности одного матча, участвующие в локальной симуляции.
type Scene struct {
	Instance   domain.GameInstance
	Lobby      *donburi.Entry
	Ball       *donburi.Entry
	Batter     *donburi.Entry
	Fielders   []*donburi.Entry
	Wicket     *donburi.Entry
	Boundary   *donburi.Entry
	Scoreboard *donburi.Entry
	Players    []*donburi.Entry
}

var tickingQuery = donburi.NewQuery(filter.Contains(components.ShouldTick, components.Instance))

// collectScenes группирует тикающие сущности по матчам.
// Возвращает матчи в порядке возрастания GameInstance.
func collectScenes(world donburi.World) []*Scene {
	byInstance := map[domain.GameInstance]*Scene{}
	tickingQuery.Each(world, func(entry *donburi.Entry) {
		instance := components.Instance.Get(entry).ID
		scene, ok := byInstance[instance]
		if !ok {
			scene = &Scene{Instance: instance}
			byInstance[instance] = scene
		}
		scene.add(entry)
	})

	scenes := make([]*Scene, 0, len(byInstance))
	for _, scene := range byInstance {
		scene.sort()
		scenes = append(scenes, scene)
	}
	sort.Slice(scenes, func(i, j int) bool { return scenes[i].Instance < scenes[j].Instance })
	return scenes
}

// LookupScene собирает сцену одного матча.
func LookupScene(world donburi.World, instance domain.GameInstance) (*Scene, bool) {
	scene := &Scene{Instance: instance}
	found := false
	tickingQuery.Each(world, func(entry *donburi.Entry) {
		if components.Instance.Get(entry).ID != instance {
			return
		}
		scene.add(entry)
		found = true
	})
	scene.sort()
	return scene, found
}

func (sc *Scene) add(entry *donburi.Entry) {
	switch {
	case entry.HasComponent(components.Ball):
		sc.Ball = entry
	case entry.HasComponent(components.Batter):
		sc.Batter = entry
	case entry.HasComponent(components.Fielder):
		sc.Fielders = append(sc.Fielders, entry)
	case entry.HasComponent(components.Wicket):
		sc.Wicket = entry
	case entry.HasComponent(components.Boundary):
		sc.Boundary = entry
	case entry.HasComponent(components.Scoreboard):
		sc.Scoreboard = entry
	case entry.HasComponent(components.Player):
		sc.Players = append(sc.Players, entry)
	case entry.HasComponent(components.Phase):
		sc.Lobby = entry
	}
}

func (sc *Scene) sort() {
	byEntity := func(list []*donburi.Entry) {
		sort.Slice(list, func(i, j int) bool { return list[i].Entity() < list[j].Entity() })
	}
	byEntity(sc.Fielders)
	byEntity(sc.Players)
}

// Phase - фаза матча. Без маркера лобби матч считается неактивным.
func (sc *Scene) Phase() domain.GamePhase {
	if sc.Lobby == nil {
		return domain.PhaseInactive
	}
	return components.Phase.Get(sc.Lobby).Phase
}

func (sc *Scene) setPhase(phase domain.GamePhase) {
	if sc.Lobby == nil {
		return
	}
	components.Phase.Get(sc.Lobby).Phase = phase
}

// Bowler - верхний филдер внутреннего кольца, у него мяч перед подачей.
func (sc *Scene) Bowler() (*donburi.Entry, bool) {
	for _, f := range sc.Fielders {
		data := components.Fielder.Get(f)
		if data.Ring == domain.RingInfield && data.Position == domain.FieldTop {
			return f, true
		}
	}
	return nil, false
}

// PlayerAt возвращает игрока на заданной роли.
func (sc *Scene) PlayerAt(position domain.PositionKind) (*donburi.Entry, bool) {
	for _, p := range sc.Players {
		if components.Player.Get(p).Position == position {
			return p, true
		}
	}
	return nil, false
}

// ParkedBallPosition - точка перед ракеткой боулера.
func ParkedBallPosition(bowler components.TransformData) mgl64.Vec2 {
	offset := mgl64.Vec2{0, -(domain.FielderHDepth + domain.BallRadius)}
	return bowler.Translation.Add(physics.Rotate(offset, bowler.Rotation))
}

// parkBall ставит мяч к боулеру и гасит скорость.
func (sc *Scene) parkBall() bool {
	bowler, ok := sc.Bowler()
	if !ok || sc.Ball == nil {
		return false
	}
	transform := components.Transform.Get(sc.Ball)
	transform.Translation = ParkedBallPosition(components.Transform.GetValue(bowler))
	transform.Rotation = 0
	components.Velocity.SetValue(sc.Ball, components.VelocityData{})
	components.Impulse.SetValue(sc.Ball, components.ImpulseData{})
	return true
}

// --- СПАВН ---

// SceneSpec - параметры спавна матча.
type SceneSpec struct {
	Instance domain.GameInstance
	// Tick - добавлять ShouldTick (локальная или серверная симуляция).
	Tick bool
}

// SpawnScene создает все объекты матча. Порядок спавна фиксирован,
// поэтому NetID совпадают между запусками.
func SpawnScene(world donburi.World, spec SceneSpec) []donburi.Entity {
	s := spawner{world: world, spec: spec}

	// 1. Мяч
	ball := s.spawn(domain.KindBall, append(kindTypes(components.KindTransform, components.KindVelocity, components.KindImpulse), components.Ball)...)
	s.setTransform(ball, mgl64.Vec2{}, 0)

	// 2. Бэттер
	batter := s.spawn(domain.KindBatter, append(kindTypes(components.KindTransform, components.KindVelocity), components.Batter)...)
	s.setTransform(batter, mgl64.Vec2{domain.BatterOrbit, 0}, 0)

	// 3. Филдеры: внешнее кольцо, затем внутреннее
	for _, ring := range []domain.FielderRing{domain.RingOutfield, domain.RingInfield} {
		for _, position := range domain.FieldPositions {
			fielder := s.spawn(domain.KindFielder, append(kindTypes(components.KindTransform, components.KindVelocity), components.Fielder)...)
			components.Fielder.SetValue(fielder, components.FielderData{Ring: ring, Position: position})
			angle := position.Angle()
			pos := mgl64.Vec2{-math.Sin(angle), math.Cos(angle)}.Mul(ring.Radius())
			s.setTransform(fielder, pos, angle)
		}
	}

	// 4. Дорожки филдеров
	for _, ring := range []domain.FielderRing{domain.RingInfield, domain.RingOutfield} {
		track := s.spawn(domain.KindFielderTrack, components.FielderTrack)
		components.FielderTrack.SetValue(track, components.FielderTrackData{Ring: ring})
	}

	// 5. Калитка и граница
	wicket := s.spawn(domain.KindWicket, append(kindTypes(components.KindTransform), components.Wicket)...)
	components.Wicket.SetValue(wicket, components.WicketData{Radius: domain.WicketRadius})
	s.setTransform(wicket, mgl64.Vec2{}, 0)

	boundary := s.spawn(domain.KindBoundary, append(kindTypes(components.KindTransform), components.Boundary)...)
	components.Boundary.SetValue(boundary, components.BoundaryData{Radius: domain.BoundaryRadius})
	s.setTransform(boundary, mgl64.Vec2{}, 0)

	// 6. Табло и маркер лобби
	s.spawn(domain.KindScoreboard, components.Scoreboard)
	lobby := s.spawn(domain.KindLobby, components.Lobby, components.Phase)
	components.Lobby.SetValue(lobby, components.LobbyData{State: domain.LobbyLoading})
	components.Phase.SetValue(lobby, components.PhaseData{Phase: domain.PhaseInactive})

	// 7. Игроки: первый бьет, второй подает
	one := s.spawn(domain.KindPlayerOne, components.Player)
	components.Player.SetValue(one, components.PlayerData{Identity: domain.IdentityOne, Position: domain.PositionBatter})
	two := s.spawn(domain.KindPlayerTwo, components.Player)
	components.Player.SetValue(two, components.PlayerData{Identity: domain.IdentityTwo, Position: domain.PositionFielder})

	return s.spawned
}

type spawner struct {
	world   donburi.World
	spec    SceneSpec
	index   uint64
	spawned []donburi.Entity
}

func (s *spawner) spawn(kind domain.ObjectKind, types ...donburi.IComponentType) *donburi.Entry {
	types = append(types, components.Instance, components.NetID)
	if s.spec.Tick {
		types = append(types, components.ShouldTick)
	}
	entity := s.world.Create(types...)
	entry := s.world.Entry(entity)
	components.Instance.SetValue(entry, components.InstanceData{ID: s.spec.Instance})
	components.NetID.SetValue(entry, components.NetIDData{ID: domain.PackNetID(kind, s.spec.Instance, s.index)})
	s.index++
	s.spawned = append(s.spawned, entity)
	return entry
}

func (s *spawner) setTransform(entry *donburi.Entry, pos mgl64.Vec2, rotation float64) {
	components.Transform.SetValue(entry, components.TransformData{Translation: pos, Rotation: rotation})
	spec, _ := components.Lookup(components.KindTransform)
	spec.Outbound(entry)
}

func kindTypes(kinds ...components.Kind) []donburi.IComponentType {
	var types []donburi.IComponentType
	for _, k := range kinds {
		if spec, ok := components.Lookup(k); ok {
			types = append(types, spec.Types()...)
		}
	}
	return types
}
