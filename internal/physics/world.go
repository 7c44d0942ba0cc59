package physics

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/snendev/cricket-pong/internal/domain"
)

// EventType - начало или конец пересечения.
type EventType uint8

const (
	CollisionStarted EventType = iota + 1
	CollisionStopped
)

func (t EventType) String() string {
	if t == CollisionStarted {
		return "started"
	}
	return "stopped"
}

// CollisionEvent - событие столкновения мяча с другим телом.
type CollisionEvent struct {
	Type     EventType
	Instance domain.GameInstance
	Ball     int // индекс тела в срезе шага
	Other    int
	Role     Role // роль второго тела
}

// ContactFilter решает, могут ли два тела взаимодействовать.
type ContactFilter func(a, b *Body) bool

// InstanceFilter пропускает только пары из одного матча.
func InstanceFilter(a, b *Body) bool {
	return a.Instance == b.Instance
}

// Параметры по умолчанию
const (
	// parallelThreshold - меньше пар проверяем в одной горутине.
	parallelThreshold = 64
	defaultWorkers    = 4
	restitution       = 1.0
)

// World - общий физический мир для всех матчей процесса. Состояние между
// шагами не хранится: тела пересобираются из компонентов на каждый шаг.
type World struct {
	Filter  ContactFilter
	Workers int
}

// NewWorld создает мир с фильтром по GameInstance.
func NewWorld() *World {
	return &World{
		Filter:  InstanceFilter,
		Workers: defaultWorkers,
	}
}

type pair struct {
	ball, other int
}

type narrowResult struct {
	before Contact
	after  Contact
}

// Step продвигает тела на dt, разрешает касания мяча и возвращает события
// в детерминированном порядке (по индексам тел).
func (w *World) Step(ctx context.Context, bodies []Body, dt float64) ([]CollisionEvent, error) {
	// 1. Снимок до шага: по нему определяется, было ли касание раньше
	before := make([]Body, len(bodies))
	copy(before, bodies)

	// 2. Интегрирование
	for i := range bodies {
		bodies[i].integrate(dt)
	}

	// 3. Широкая фаза: только пары с мячом из одного матча
	pairs := w.candidatePairs(bodies)
	if len(pairs) == 0 {
		return nil, nil
	}

	// 4. Узкая фаза, каждая пара пишет в свой слот
	results := make([]narrowResult, len(pairs))
	if err := w.narrowPhase(ctx, before, bodies, pairs, results); err != nil {
		return nil, err
	}

	// 5. События и отклик строго по порядку пар
	var events []CollisionEvent
	for i, p := range pairs {
		res := results[i]
		ball := &bodies[p.ball]
		other := &bodies[p.other]

		switch {
		case !res.before.Overlap && res.after.Overlap:
			events = append(events, CollisionEvent{Type: CollisionStarted, Instance: ball.Instance, Ball: p.ball, Other: p.other, Role: other.Role})
		case res.before.Overlap && !res.after.Overlap:
			events = append(events, CollisionEvent{Type: CollisionStopped, Instance: ball.Instance, Ball: p.ball, Other: p.other, Role: other.Role})
		}

		if res.after.Overlap && other.Role.Paddle() {
			resolve(ball, other, res.after)
		}
	}
	return events, nil
}

func (w *World) candidatePairs(bodies []Body) []pair {
	filter := w.Filter
	if filter == nil {
		filter = InstanceFilter
	}
	var pairs []pair
	for i := range bodies {
		if !bodies[i].Role.Dynamic() {
			continue
		}
		for j := range bodies {
			if i == j || bodies[j].Role.Dynamic() {
				continue
			}
			if !filter(&bodies[i], &bodies[j]) {
				continue
			}
			pairs = append(pairs, pair{ball: i, other: j})
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].ball != pairs[b].ball {
			return pairs[a].ball < pairs[b].ball
		}
		return pairs[a].other < pairs[b].other
	})
	return pairs
}

func (w *World) narrowPhase(ctx context.Context, before, after []Body, pairs []pair, results []narrowResult) error {
	if len(pairs) < parallelThreshold || w.Workers <= 1 {
		for i, p := range pairs {
			results[i] = narrowPair(before, after, p)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(pairs) + w.Workers - 1) / w.Workers
	for start := 0; start < len(pairs); start += chunk {
		end := min(start+chunk, len(pairs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = narrowPair(before, after, pairs[i])
			}
			return nil
		})
	}
	return g.Wait()
}

func narrowPair(before, after []Body, p pair) narrowResult {
	return narrowResult{
		before: overlap(&before[p.ball], &before[p.other]),
		after:  overlap(&after[p.ball], &after[p.other]),
	}
}

func overlap(ball, other *Body) Contact {
	if other.Role.Paddle() {
		return circleBox(ball.Position, ball.Radius, other.Position, other.Rotation, other.HalfExtents)
	}
	return circleCircle(ball.Position, ball.Radius, other.Position, other.Radius)
}

// resolve выталкивает мяч из ракетки и отражает относительную скорость.
func resolve(ball, paddle *Body, c Contact) {
	ball.Position = ball.Position.Add(c.Normal.Mul(c.Depth))

	relative := ball.Linear.Sub(paddle.PointVelocity(c.Point))
	approach := relative.Dot(c.Normal)
	if approach >= 0 {
		return
	}
	ball.Linear = ball.Linear.Sub(c.Normal.Mul((1 + restitution) * approach))
}
