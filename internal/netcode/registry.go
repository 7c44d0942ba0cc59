package netcode

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/pkg/logger"
)

var (
	ErrMissingPairing = errors.New("no source/prediction pair for entity")
	ErrUnknownObject  = errors.New("unknown object kind")
	ErrStaleUpdate    = errors.New("update is older than the last applied one")
)

// Pair - авторитетная сущность и ее предсказанная копия.
type Pair struct {
	Source     donburi.Entity
	Prediction donburi.Entity
	Instance   domain.GameInstance
}

type updateKey struct {
	id   domain.NetID
	kind components.Kind
}

// Registry ведет пары Source/Prediction для реплицируемых сущностей.
type Registry struct {
	world donburi.World
	pairs map[domain.NetID]Pair
	byEnt map[donburi.Entity]domain.NetID
	ticks map[updateKey]domain.Tick
	log   *logrus.Entry
}

func NewRegistry(world donburi.World) *Registry {
	return &Registry{
		world: world,
		pairs: make(map[domain.NetID]Pair),
		byEnt: make(map[donburi.Entity]domain.NetID),
		ticks: make(map[updateKey]domain.Tick),
		log:   logger.WithComponent("registry"),
	}
}

func (r *Registry) Len() int { return len(r.pairs) }

// Observe обрабатывает вставку компонента. Первая вставка для NetID создает
// пару, повторные только добавляют компонент. Вызов идемпотентен.
func (r *Registry) Observe(ev ComponentEvent) (Pair, error) {
	spec, ok := components.Lookup(ev.Kind)
	if !ok {
		return Pair{}, fmt.Errorf("%s kind %d: %w", ev.Entity, ev.Kind, components.ErrUnknownKind)
	}

	pair, err := r.pairFor(ev)
	if err != nil {
		return Pair{}, err
	}

	source := r.world.Entry(pair.Source)
	prediction := r.world.Entry(pair.Prediction)

	// 1. Значение сервера пишется только в источник
	spec.Ensure(source)
	if err := spec.Decode(source, ev.Payload); err != nil {
		return pair, err
	}
	spec.Inbound(source)
	r.ticks[updateKey{ev.Entity, ev.Kind}] = ev.Tick

	// 2. Предсказание получает глубокую копию
	spec.Ensure(prediction)
	spec.Copy(source, prediction)
	return pair, nil
}

// pairFor находит или создает пару.
func (r *Registry) pairFor(ev ComponentEvent) (Pair, error) {
	if pair, ok := r.Lookup(ev.Entity); ok {
		return pair, nil
	}
	if !ev.Entity.Kind().Known() {
		return Pair{}, fmt.Errorf("%s: %w", ev.Entity, ErrUnknownObject)
	}

	instance := ev.Instance
	if instance == 0 {
		instance = domain.GameInstance(ev.Entity.Instance())
	}

	// Обе половины появляются в одном вызове, полусобранной пары никто не видит.
	source := r.world.Entry(r.world.Create(components.Instance, components.NetID, components.SourceOf))
	prediction := r.world.Entry(r.world.Create(
		components.Instance, components.NetID, components.PredictionOf,
		components.ShouldTick, components.ShouldRender,
	))

	for _, e := range []*donburi.Entry{source, prediction} {
		components.Instance.SetValue(e, components.InstanceData{ID: instance})
		components.NetID.SetValue(e, components.NetIDData{ID: ev.Entity})
	}
	components.SourceOf.SetValue(source, components.SourceOfData{Prediction: prediction.Entity()})
	components.PredictionOf.SetValue(prediction, components.PredictionOfData{Source: source.Entity()})

	pair := Pair{Source: source.Entity(), Prediction: prediction.Entity(), Instance: instance}
	r.pairs[ev.Entity] = pair
	r.byEnt[pair.Source] = ev.Entity
	r.byEnt[pair.Prediction] = ev.Entity

	r.log.WithFields(logrus.Fields{
		"entity":   ev.Entity.String(),
		"instance": instance,
	}).Debug("Spawned prediction pair")
	return pair, nil
}

// Apply записывает обновление в источник. Предсказание симулируемых Kind
// не трогается, его догонит откат. Остальные Kind копируются сразу.
func (r *Registry) Apply(ev ComponentEvent) error {
	pair, ok := r.Lookup(ev.Entity)
	if !ok {
		return fmt.Errorf("%s: %w", ev.Entity, ErrMissingPairing)
	}
	spec, ok := components.Lookup(ev.Kind)
	if !ok {
		return fmt.Errorf("%s kind %d: %w", ev.Entity, ev.Kind, components.ErrUnknownKind)
	}

	key := updateKey{ev.Entity, ev.Kind}
	if last, seen := r.ticks[key]; seen && last.After(ev.Tick) {
		return fmt.Errorf("%s %s at %d (last %d): %w", ev.Entity, spec.Name, ev.Tick, last, ErrStaleUpdate)
	}

	source := r.world.Entry(pair.Source)
	prediction := r.world.Entry(pair.Prediction)
	added := !spec.Has(source)
	if added {
		// компонент появился позже спавна
		spec.Ensure(source)
		spec.Ensure(prediction)
	}
	if err := spec.Decode(source, ev.Payload); err != nil {
		return err
	}
	r.ticks[key] = ev.Tick

	if added || (!spec.Rollback && !spec.Resync) {
		spec.Inbound(source)
		spec.Copy(source, prediction)
	}
	return nil
}

// Lookup возвращает живую пару по NetID.
func (r *Registry) Lookup(id domain.NetID) (Pair, bool) {
	pair, ok := r.pairs[id]
	if !ok {
		return Pair{}, false
	}
	if !r.world.Valid(pair.Source) || !r.world.Valid(pair.Prediction) {
		return Pair{}, false
	}
	return pair, true
}

// PredictionFor возвращает предсказанную сущность для NetID.
func (r *Registry) PredictionFor(id domain.NetID) (donburi.Entity, bool) {
	pair, ok := r.Lookup(id)
	return pair.Prediction, ok
}

// NetIDOf - обратный поиск для любой половины пары.
func (r *Registry) NetIDOf(entity donburi.Entity) (domain.NetID, bool) {
	id, ok := r.byEnt[entity]
	if !ok {
		return 0, false
	}
	if _, alive := r.Lookup(id); !alive {
		return 0, false
	}
	return id, true
}

// PlayerAssigned помечает предсказание локального игрока тегом Controlled.
func (r *Registry) PlayerAssigned(id domain.NetID) (donburi.Entity, error) {
	pair, ok := r.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("assign %s: %w", id, ErrMissingPairing)
	}
	entry := r.world.Entry(pair.Prediction)
	if !entry.HasComponent(components.Player) {
		return 0, fmt.Errorf("assign %s: %w", id, components.ErrMissingComponent)
	}
	if !entry.HasComponent(components.Controlled) {
		entry.AddComponent(components.Controlled)
	}
	return pair.Prediction, nil
}

// Forget убирает записи выгруженного матча. Сами сущности удаляет симуляция.
func (r *Registry) Forget(instance domain.GameInstance) int {
	removed := 0
	for id, pair := range r.pairs {
		if pair.Instance != instance {
			continue
		}
		delete(r.pairs, id)
		delete(r.byEnt, pair.Source)
		delete(r.byEnt, pair.Prediction)
		removed++
	}
	for key := range r.ticks {
		if _, ok := r.pairs[key.id]; !ok {
			delete(r.ticks, key)
		}
	}
	return removed
}
