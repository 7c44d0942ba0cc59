package netcode

import (
	"github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/pkg/logger"
)

// Stepper продвигает мир на один тик. Реализуется sim.Simulator.
type Stepper interface {
	Step(tick domain.Tick, batch domain.ActionBatch)
}

// RollbackReport - итог одного согласования.
type RollbackReport struct {
	Triggered bool
	Baseline  domain.Tick
	Replayed  int
	Snapped   bool
	Stale     bool
}

// Coordinator откатывает предсказание к состоянию сервера и переигрывает
// неподтвержденный локальный ввод.
type Coordinator struct {
	world   donburi.World
	history *TickHistory
	sim     Stepper

	baseline    domain.Tick
	hasBaseline bool

	log *logrus.Entry
}

func NewCoordinator(world donburi.World, history *TickHistory, sim Stepper) *Coordinator {
	return &Coordinator{
		world:   world,
		history: history,
		sim:     sim,
		log:     logger.WithComponent("rollback"),
	}
}

// Baseline - последний примененный серверный тик.
func (c *Coordinator) Baseline() (domain.Tick, bool) {
	return c.baseline, c.hasBaseline
}

// RollbackTick ищет самый новый тик среди обновлений, вызывающих откат.
func RollbackTick(events []ComponentEvent) (domain.Tick, bool) {
	var ticks []domain.Tick
	for _, ev := range events {
		spec, ok := components.Lookup(ev.Kind)
		if !ok || !spec.Rollback {
			continue
		}
		ticks = append(ticks, ev.Tick)
	}
	return domain.LatestTick(ticks...)
}

// Reconcile выполняется не чаще раза за кадр, после того как обновления
// записаны в источники и отражены в симуляционную форму.
func (c *Coordinator) Reconcile(events []ComponentEvent) RollbackReport {
	// 1. Самый новый тик среди компонентов отката
	latest, ok := RollbackTick(events)
	if !ok {
		return RollbackReport{}
	}

	fields := logrus.Fields{"baseline": latest}

	// 2. Базовая точка не идет назад
	if c.hasBaseline && c.baseline.After(latest) {
		c.log.WithFields(fields).WithField("applied", c.baseline).Debug("Skipping stale correction")
		return RollbackReport{Baseline: latest, Stale: true}
	}

	// 3. Предсказание <- источник
	Resync(c.world, components.ResyncKinds())
	c.baseline, c.hasBaseline = latest, true

	// 4. Ввод сразу после базовой точки уже вытеснен: переигрывать нечего
	if !c.history.Covers(latest) {
		c.log.WithFields(fields).Warn("Correction is older than input history, snapping without replay")
		c.history.Acknowledge(latest)
		return RollbackReport{Triggered: true, Baseline: latest, Snapped: true}
	}

	// 5. Переигровка по одному тику
	replays := c.history.ReplaysSince(latest)
	for _, tb := range replays {
		c.sim.Step(tb.Tick, tb.Batch)
	}

	c.history.Acknowledge(latest)
	fields["replayed"] = len(replays)
	c.log.WithFields(fields).Trace("Rolled back")

	return RollbackReport{Triggered: true, Baseline: latest, Replayed: len(replays)}
}

// Reset забывает базовую точку (переподключение).
func (c *Coordinator) Reset() {
	c.baseline, c.hasBaseline = 0, false
}
