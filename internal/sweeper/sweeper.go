// Package sweeper periodically reconciles checkout sessions whose webhook
// never arrived.
package sweeper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"centreconnect/internal/checkout"
	"centreconnect/internal/logger"
	"centreconnect/internal/metrics"
	"centreconnect/internal/payment"
	"centreconnect/internal/webhook"

	"github.com/robfig/cron/v3"
)

const (
	defaultMinAge = 10 * time.Minute
	defaultMaxAge = 48 * time.Hour
	batchSize     = 100
)

type SessionProcessor interface {
	ProcessCompletedSession(ctx context.Context, session *payment.CheckoutSession) webhook.Result
}

type Summary struct {
	Inspected  int
	Credited   int
	Duplicates int
	Unpaid     int
	Expired    int
	Failed     int
}

type Sweeper struct {
	cron      *cron.Cron
	spec      string
	store     checkout.SessionStore
	gateway   payment.Gateway
	processor SessionProcessor
	minAge    time.Duration
	maxAge    time.Duration
	now       func() time.Time
}

func New(store checkout.SessionStore, gateway payment.Gateway, processor SessionProcessor, spec string) *Sweeper {
	return &Sweeper{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		spec:      spec,
		store:     store,
		gateway:   gateway,
		processor: processor,
		minAge:    defaultMinAge,
		maxAge:    defaultMaxAge,
		now:       time.Now,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			logger.WithError(err).Error("checkout sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	logger.Info("checkout sweeper started", "schedule", s.spec)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("checkout sweeper stopped")
}

// Sweep inspects open sessions that are old enough to have missed their
// webhook but young enough that Stripe still reports them, paging through
// the whole window.
func (s *Sweeper) Sweep(ctx context.Context) (Summary, error) {
	var sum Summary
	if !s.gateway.Configured() {
		return sum, nil
	}

	now := s.now()
	cursor := checkout.Cursor{CreatedAt: now.Add(-s.maxAge)}
	before := now.Add(-s.minAge)

	for {
		sessions, err := s.store.ListOpen(ctx, cursor, before, batchSize)
		if err != nil {
			return sum, fmt.Errorf("list open sessions: %w", err)
		}

		for _, local := range sessions {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			s.inspect(ctx, local.ID, &sum)
		}

		if len(sessions) < batchSize {
			break
		}
		last := sessions[len(sessions)-1]
		cursor = checkout.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	if sum.Inspected > 0 {
		logger.Info("checkout sweep complete",
			"inspected", sum.Inspected, "credited", sum.Credited, "duplicates", sum.Duplicates,
			"unpaid", sum.Unpaid, "expired", sum.Expired, "failed", sum.Failed)
	}
	return sum, nil
}

func (s *Sweeper) inspect(ctx context.Context, id string, sum *Summary) {
	sum.Inspected++

	remote, err := s.gateway.GetCheckoutSession(ctx, id)
	if err != nil {
		sum.Failed++
		metrics.RecordSweepSession("error")
		logger.WithError(err).Warn("failed to fetch checkout session", "session_id", id)
		return
	}

	switch remote.Status {
	case payment.SessionStatusComplete:
		if remote.PaymentStatus != payment.PaymentStatusPaid {
			// complete without payment never credits; stop tracking it
			if !s.markStatus(ctx, id, payment.SessionStatusComplete, sum) {
				return
			}
			sum.Unpaid++
			metrics.RecordSweepSession("unpaid")
			return
		}
		res := s.processor.ProcessCompletedSession(ctx, remote)
		if res.Status != http.StatusOK {
			sum.Failed++
			metrics.RecordSweepSession("error")
			logger.Warn("sweep could not credit session", "session_id", id, "status", res.Status, "reason", res.Message)
			return
		}
		if !res.Credited {
			sum.Duplicates++
			metrics.RecordSweepSession("duplicate")
			return
		}
		sum.Credited++
		metrics.RecordSweepSession("credited")

	case payment.SessionStatusExpired:
		if !s.markStatus(ctx, id, payment.SessionStatusExpired, sum) {
			return
		}
		sum.Expired++
		metrics.RecordSweepSession("expired")

	default:
		metrics.RecordSweepSession("open")
	}
}

func (s *Sweeper) markStatus(ctx context.Context, id, status string, sum *Summary) bool {
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		sum.Failed++
		metrics.RecordSweepSession("error")
		logger.WithError(err).Warn("failed to update checkout session status", "session_id", id, "status", status)
		return false
	}
	return true
}
