package components

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/domain"
)

// Kind - реплицируемый тип компонента. Набор закрыт, вся обработка идет
// через таблицу kinds, а не через обобщенные функции на каждый тип.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTransform
	KindVelocity
	KindImpulse
	KindBatter
	KindBall
	KindFielder
	KindFielderTrack
	KindWicket
	KindBoundary
	KindScoreboard
	KindPhase
	KindLobby
	KindPlayer

	kindCount
)

var (
	ErrUnknownKind      = errors.New("unknown component kind")
	ErrMissingComponent = errors.New("entity has no such component")
)

// Spec описывает, как обращаться с одним Kind.
type Spec struct {
	Kind Kind
	Name string
	// Rollback - обновление этого компонента запускает откат.
	Rollback bool
	// Resync - значение копируется из источника в предсказание при откате.
	Resync bool

	wire donburi.IComponentType
	sim  donburi.IComponentType

	decode   func(e *donburi.Entry, data []byte) error
	encode   func(e *donburi.Entry) ([]byte, error)
	copy     func(src, dst *donburi.Entry)
	inbound  func(e *donburi.Entry)
	outbound func(e *donburi.Entry)
}

func (k Kind) String() string {
	if spec, ok := Lookup(k); ok {
		return spec.Name
	}
	return "Unknown"
}

var kinds = [kindCount]Spec{
	KindTransform: mirrored(KindTransform, "Transform", SyncTransform, Transform, SyncTransformData.Sim, TransformData.Wire),
	KindVelocity:  mirrored(KindVelocity, "Velocity", SyncVelocity, Velocity, SyncVelocityData.Sim, VelocityData.Wire),
	KindImpulse:   mirrored(KindImpulse, "Impulse", SyncImpulse, Impulse, SyncImpulseData.Sim, ImpulseData.Wire),

	KindBatter:     plain(KindBatter, "Batter", Batter, nil).rollback(),
	KindBall:       plain(KindBall, "Ball", Ball, nil).resync(),
	KindScoreboard: plain(KindScoreboard, "Scoreboard", Scoreboard, domain.Scoreboard.Clone).resync(),
	KindPhase:      plain(KindPhase, "Phase", Phase, nil).resync(),
	KindPlayer:     plain(KindPlayer, "Player", Player, nil).resync(),

	KindFielder:      plain(KindFielder, "Fielder", Fielder, nil),
	KindFielderTrack: plain(KindFielderTrack, "FielderTrack", FielderTrack, nil),
	KindWicket:       plain(KindWicket, "Wicket", Wicket, nil),
	KindBoundary:     plain(KindBoundary, "Boundary", Boundary, nil),
	KindLobby:        plain(KindLobby, "Lobby", Lobby, nil),
}

// Lookup возвращает описание Kind. Значения из сети проверяются здесь.
func Lookup(k Kind) (Spec, bool) {
	if k == KindUnknown || k >= kindCount {
		return Spec{}, false
	}
	return kinds[k], true
}

// All возвращает все описания в порядке Kind.
func All() []Spec {
	return kinds[1:]
}

// RollbackKinds - компоненты, обновление которых вызывает откат.
func RollbackKinds() []Spec {
	return filterKinds(func(s Spec) bool { return s.Rollback })
}

// ResyncKinds - компоненты, копируемые из источника при откате.
func ResyncKinds() []Spec {
	return filterKinds(func(s Spec) bool { return s.Rollback || s.Resync })
}

// MirroredKinds - компоненты с раздельной сетевой и симуляционной формой.
func MirroredKinds() []Spec {
	return filterKinds(func(s Spec) bool { return s.sim != nil })
}

func filterKinds(keep func(Spec) bool) []Spec {
	out := make([]Spec, 0, len(kinds))
	for _, s := range All() {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// Has проверяет наличие компонента на сущности.
func (s Spec) Has(e *donburi.Entry) bool {
	return e != nil && e.Valid() && e.HasComponent(s.wire)
}

// Types - типы компонентов, которые нужно создать на новой сущности.
func (s Spec) Types() []donburi.IComponentType {
	if s.sim != nil {
		return []donburi.IComponentType{s.wire, s.sim}
	}
	return []donburi.IComponentType{s.wire}
}

// Ensure добавляет на сущность недостающие компоненты Kind с нулевым значением.
func (s Spec) Ensure(e *donburi.Entry) {
	if e == nil || !e.Valid() {
		return
	}
	for _, ct := range s.Types() {
		if !e.HasComponent(ct) {
			e.AddComponent(ct)
		}
	}
}

// Decode записывает сетевое значение в сетевую форму компонента.
func (s Spec) Decode(e *donburi.Entry, data []byte) error {
	if !s.Has(e) {
		return fmt.Errorf("%s: %w", s.Name, ErrMissingComponent)
	}
	if err := s.decode(e, data); err != nil {
		return fmt.Errorf("decode %s: %w", s.Name, err)
	}
	return nil
}

// Encode сериализует сетевую форму компонента.
func (s Spec) Encode(e *donburi.Entry) ([]byte, error) {
	if !s.Has(e) {
		return nil, fmt.Errorf("%s: %w", s.Name, ErrMissingComponent)
	}
	return s.encode(e)
}

// Copy перезаписывает значение dst значением src. Обе формы, глубокая копия.
func (s Spec) Copy(src, dst *donburi.Entry) {
	if !s.Has(src) || !s.Has(dst) {
		return
	}
	s.copy(src, dst)
}

// Inbound: сеть -> симуляция.
func (s Spec) Inbound(e *donburi.Entry) {
	if s.inbound != nil && s.Has(e) {
		s.inbound(e)
	}
}

// Outbound: симуляция -> сеть.
func (s Spec) Outbound(e *donburi.Entry) {
	if s.outbound != nil && s.Has(e) {
		s.outbound(e)
	}
}

func (s Spec) rollback() Spec {
	s.Rollback = true
	return s
}

func (s Spec) resync() Spec {
	s.Resync = true
	return s
}

func plain[T any](kind Kind, name string, ct *donburi.ComponentType[T], clone func(T) T) Spec {
	return Spec{
		Kind: kind,
		Name: name,
		wire: ct,
		decode: func(e *donburi.Entry, data []byte) error {
			var v T
			if err := msgpack.Unmarshal(data, &v); err != nil {
				return err
			}
			ct.SetValue(e, v)
			return nil
		},
		encode: func(e *donburi.Entry) ([]byte, error) {
			return msgpack.Marshal(ct.Get(e))
		},
		copy: func(src, dst *donburi.Entry) {
			v := ct.GetValue(src)
			if clone != nil {
				v = clone(v)
			}
			ct.SetValue(dst, v)
		},
	}
}

func mirrored[W, S any](kind Kind, name string, wire *donburi.ComponentType[W], sim *donburi.ComponentType[S], toSim func(W) S, toWire func(S) W) Spec {
	spec := plain(kind, name, wire, nil).rollback()
	spec.sim = sim
	spec.copy = func(src, dst *donburi.Entry) {
		wire.SetValue(dst, wire.GetValue(src))
		if dst.HasComponent(sim) && src.HasComponent(sim) {
			sim.SetValue(dst, sim.GetValue(src))
		}
	}
	spec.inbound = func(e *donburi.Entry) {
		if e.HasComponent(sim) {
			sim.SetValue(e, toSim(wire.GetValue(e)))
		}
	}
	spec.outbound = func(e *donburi.Entry) {
		if e.HasComponent(sim) {
			wire.SetValue(e, toWire(sim.GetValue(e)))
		}
	}
	return spec
}
