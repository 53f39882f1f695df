package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/obs"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

const (
	DefaultImmediateAfter = 30 * time.Minute
	DefaultUrgentAfter    = 2 * time.Hour
	DefaultFinalAfter     = 24 * time.Hour
	DefaultSinkTimeout    = 10 * time.Second
)

// ReminderConfig holds the offsets, measured from arming, of the three
// abandonment reminders. Zero values fall back to the defaults.
type ReminderConfig struct {
	ImmediateAfter time.Duration
	UrgentAfter    time.Duration
	FinalAfter     time.Duration
	SinkTimeout    time.Duration
}

func (c ReminderConfig) withDefaults() ReminderConfig {
	if c.ImmediateAfter <= 0 {
		c.ImmediateAfter = DefaultImmediateAfter
	}
	if c.UrgentAfter <= 0 {
		c.UrgentAfter = DefaultUrgentAfter
	}
	if c.FinalAfter <= 0 {
		c.FinalAfter = DefaultFinalAfter
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = DefaultSinkTimeout
	}
	return c
}

func (c ReminderConfig) delay(stage domain.Stage) time.Duration {
	switch stage {
	case domain.StageImmediate:
		return c.ImmediateAfter
	case domain.StageUrgent:
		return c.UrgentAfter
	default:
		return c.FinalAfter
	}
}

var reminderStages = []domain.Stage{domain.StageImmediate, domain.StageUrgent, domain.StageFinal}

// reminderCycle is one arming of the reminders for a user. Its mutex is
// held for the whole check-and-send of a firing stage, so once stop
// returns nothing from the cycle can start sending.
type reminderCycle struct {
	id       string
	userID   string
	armedAt  time.Time
	snapshot []domain.CartLine

	mu        sync.Mutex
	cancelled bool
	tasks     map[domain.Stage]port.Task
}

func (c *reminderCycle) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *reminderCycle) stopLocked() {
	c.cancelled = true
	for stage, task := range c.tasks {
		task.Cancel()
		delete(c.tasks, stage)
	}
}

func (c *reminderCycle) pendingLocked() []domain.Stage {
	stages := make([]domain.Stage, 0, len(c.tasks))
	for stage := range c.tasks {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	return stages
}

// AbandonmentScheduler turns "user left with items in the cart" into at most
// three reminders per user. Arming again replaces the live cycle.
type AbandonmentScheduler struct {
	clock port.Clock
	carts port.CurrentCartSource
	sink  port.NotificationSink
	cfg   ReminderConfig

	mu     sync.Mutex
	cycles map[string]*reminderCycle
}

func NewAbandonmentScheduler(clock port.Clock, carts port.CurrentCartSource, sink port.NotificationSink, cfg ReminderConfig) *AbandonmentScheduler {
	return &AbandonmentScheduler{
		clock:  clock,
		carts:  carts,
		sink:   sink,
		cfg:    cfg.withDefaults(),
		cycles: make(map[string]*reminderCycle),
	}
}

// Arm schedules the reminder sequence for the user's cart, replacing any
// earlier cycle. It does nothing and returns false for an empty cart.
func (s *AbandonmentScheduler) Arm(userID string, lines []domain.CartLine) bool {
	if len(lines) == 0 {
		return false
	}

	cycle := &reminderCycle{
		id:       uuid.NewString(),
		userID:   userID,
		armedAt:  s.clock.Now(),
		snapshot: append([]domain.CartLine(nil), lines...),
		tasks:    make(map[domain.Stage]port.Task, len(reminderStages)),
	}

	s.mu.Lock()
	prev := s.cycles[userID]
	s.cycles[userID] = cycle
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
	} else {
		obs.ArmedCycles.Inc()
	}

	cycle.mu.Lock()
	defer cycle.mu.Unlock()
	if cycle.cancelled {
		return true
	}
	for _, stage := range reminderStages {
		stage := stage
		cycle.tasks[stage] = s.clock.AfterFunc(s.cfg.delay(stage), func() {
			s.fire(cycle, stage)
		})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"cycle_id": cycle.id,
		"items":    len(lines),
		"replaced": prev != nil,
	}).Info("armed abandonment reminders")
	return true
}

// Cancel stops every pending reminder for the user. Safe to call when
// nothing is armed. If a stage is sending at that moment, Cancel waits for
// the send to finish, which is bounded by SinkTimeout.
func (s *AbandonmentScheduler) Cancel(userID string) {
	s.mu.Lock()
	cycle, ok := s.cycles[userID]
	if ok {
		delete(s.cycles, userID)
		obs.ArmedCycles.Dec()
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	cycle.stop()
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"cycle_id": cycle.id,
	}).Info("cancelled abandonment reminders")
}

func (s *AbandonmentScheduler) CancelAll() {
	s.mu.Lock()
	cycles := s.cycles
	s.cycles = make(map[string]*reminderCycle)
	obs.ArmedCycles.Sub(float64(len(cycles)))
	s.mu.Unlock()

	for _, cycle := range cycles {
		cycle.stop()
	}
}

// Schedule describes the user's live cycle, false when the user is idle.
func (s *AbandonmentScheduler) Schedule(userID string) (domain.ReminderSchedule, bool) {
	s.mu.Lock()
	cycle, ok := s.cycles[userID]
	s.mu.Unlock()
	if !ok {
		return domain.ReminderSchedule{}, false
	}

	cycle.mu.Lock()
	defer cycle.mu.Unlock()
	if cycle.cancelled {
		return domain.ReminderSchedule{}, false
	}
	return domain.ReminderSchedule{
		UserID:   cycle.userID,
		CycleID:  cycle.id,
		ArmedAt:  cycle.armedAt,
		Pending:  cycle.pendingLocked(),
		Snapshot: append([]domain.CartLine(nil), cycle.snapshot...),
	}, true
}

func (s *AbandonmentScheduler) fire(cycle *reminderCycle, stage domain.Stage) {
	if idle := s.deliver(cycle, stage); idle {
		s.retire(cycle)
	}
}

// deliver runs one stage under the cycle lock and reports whether the
// cycle has nothing left to do.
func (s *AbandonmentScheduler) deliver(cycle *reminderCycle, stage domain.Stage) (idle bool) {
	cycle.mu.Lock()
	defer cycle.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"user_id":  cycle.userID,
		"cycle_id": cycle.id,
		"stage":    stage.String(),
	})

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("abandonment reminder panicked: %v", rec)
			obs.Notifications.WithLabelValues(string(domain.KindCartAbandonment), obs.OutcomeFailed).Inc()
			idle = len(cycle.tasks) == 0
		}
	}()

	if cycle.cancelled {
		return false
	}
	delete(cycle.tasks, stage)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SinkTimeout)
	defer cancel()

	current, err := s.carts.CurrentCart(ctx, cycle.userID)
	if err != nil {
		log.WithError(err).Warn("could not re-check cart, skipping reminder")
		obs.Notifications.WithLabelValues(string(domain.KindCartAbandonment), obs.OutcomeFailed).Inc()
		return len(cycle.tasks) == 0
	}
	if len(current) == 0 {
		log.Info("cart emptied since arming, dropping remaining reminders")
		obs.Notifications.WithLabelValues(string(domain.KindCartAbandonment), obs.OutcomeStale).Inc()
		cycle.stopLocked()
		return true
	}

	n := reminderNotification(cycle.userID, cycle.id, stage, cycle.snapshot)
	if err := s.sink.Send(ctx, n); err != nil {
		log.WithError(err).Error("failed to send abandonment reminder")
		obs.Notifications.WithLabelValues(string(domain.KindCartAbandonment), obs.OutcomeFailed).Inc()
	} else {
		log.WithField("notification_id", n.ID).Info("sent abandonment reminder")
		obs.Notifications.WithLabelValues(string(domain.KindCartAbandonment), obs.OutcomeSent).Inc()
	}

	return len(cycle.tasks) == 0
}

func (s *AbandonmentScheduler) retire(cycle *reminderCycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cycles[cycle.userID] == cycle {
		delete(s.cycles, cycle.userID)
		obs.ArmedCycles.Dec()
	}
}
