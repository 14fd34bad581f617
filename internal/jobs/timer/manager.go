package timer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	quizrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/quiz"
	"github.com/yungbote/quizdesk-backend/internal/platform/envutil"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
)

// Expirer finishes one attempt as expired. Calls must be idempotent since
// the in-memory timer, the startup rescan and the sweep can all fire for
// the same attempt.
type Expirer interface {
	Expire(ctx context.Context, attemptID uuid.UUID) error
}

// Manager keeps one in-memory timer per timed attempt and backs it with a
// periodic DB sweep. Timers are a latency optimization; the expires_at
// column is the source of truth, so a lost timer only delays expiry until
// the next sweep tick.
type Manager struct {
	log      *logger.Logger
	attempts quizrepos.AttemptRepo

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer

	expirer       Expirer
	sweepInterval time.Duration
	sweepBatch    int
}

func NewManager(baseLog *logger.Logger, attempts quizrepos.AttemptRepo) *Manager {
	return &Manager{
		log:           baseLog.With("component", "TimerManager"),
		attempts:      attempts,
		timers:        make(map[uuid.UUID]*time.Timer),
		sweepInterval: envutil.Duration("TIMER_SWEEP_INTERVAL", time.Second),
		sweepBatch:    envutil.Int("TIMER_SWEEP_BATCH", 100),
	}
}

// Start wires the expirer, rescans pending timers from the DB and launches
// the sweep loop. The expirer is injected here rather than at construction
// because the session engine needs the manager as its scheduler.
func (m *Manager) Start(ctx context.Context, expirer Expirer) error {
	m.expirer = expirer

	pending, err := m.attempts.FindPendingTimers(ctx, nil)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var overdue []uuid.UUID
	rescheduled := 0
	for _, a := range pending {
		if a.ExpiresAt == nil {
			continue
		}
		if !now.Before(*a.ExpiresAt) {
			overdue = append(overdue, a.ID)
			continue
		}
		m.Schedule(a.ID, *a.ExpiresAt)
		rescheduled++
	}
	m.log.Info("timer rescan complete", "rescheduled", rescheduled, "overdue", len(overdue))

	if len(overdue) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for _, id := range overdue {
			id := id
			g.Go(func() error {
				if err := m.expirer.Expire(gctx, id); err != nil {
					m.log.Warn("overdue expiry failed, sweep will retry", "attempt_id", id, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	go m.sweepLoop(ctx)
	return nil
}

func (m *Manager) Schedule(attemptID uuid.UUID, fireAt time.Time) {
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.timers[attemptID]; ok {
		existing.Stop()
	}
	m.timers[attemptID] = time.AfterFunc(delay, func() {
		m.fire(attemptID)
	})
	m.log.Debug("timer scheduled", "attempt_id", attemptID, "fire_at", fireAt)
}

func (m *Manager) Cancel(attemptID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[attemptID]; ok {
		t.Stop()
		delete(m.timers, attemptID)
		m.log.Debug("timer cancelled", "attempt_id", attemptID)
	}
}

func (m *Manager) fire(attemptID uuid.UUID) {
	m.mu.Lock()
	delete(m.timers, attemptID)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := m.expirer.Expire(ctx, attemptID); err != nil {
		m.log.Warn("timer expiry failed, sweep will retry", "attempt_id", attemptID, "error", err)
	}
}

// sweepLoop catches attempts whose timer was lost to a crash or a missed
// schedule. Expire is first-writer-wins so double firing is harmless.
func (m *Manager) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("timer sweep stopped")
			return
		case <-ticker.C:
			due, err := m.attempts.FindDue(ctx, nil, time.Now().UTC(), m.sweepBatch)
			if err != nil {
				m.log.Warn("timer sweep query failed", "error", err)
				continue
			}
			for _, id := range due {
				if err := m.expirer.Expire(ctx, id); err != nil {
					m.log.Warn("sweep expiry failed", "attempt_id", id, "error", err)
				}
			}
		}
	}
}
