package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/service/memory"
	"github.com/sandevgo/falcon/pkg/log"
)

// Service runs the scheduled hygiene pass: pruning stale database rows and
// expired working-memory entries. One run per schedule tick; a slow run
// delays the next rather than overlapping it.
type Service struct {
	sweeper    core.Sweeper
	working    *memory.WorkingMemory
	schedule   string
	retainDays int
	cron       *cron.Cron
}

func New(sweeper core.Sweeper, working *memory.WorkingMemory, schedule string, retainDays int) *Service {
	return &Service{
		sweeper:    sweeper,
		working:    working,
		schedule:   schedule,
		retainDays: retainDays,
		cron:       cron.New(),
	}
}

func (s *Service) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("schedule", s.schedule).
		Int("retain_days", s.retainDays).
		Msg("starting maintenance service")

	s.cron.Start()
	<-ctx.Done()
	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	log.FromCtx(ctx).Info().Msg("maintenance service stopped")
	return nil
}

func (s *Service) runOnce(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	stats, err := s.sweeper.Sweep(ctx, s.retainDays)
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return err
	}

	reclaimed := s.working.SweepExpired()

	logger.Info().
		Int64("turns", stats.Turns).
		Int64("facts", stats.Facts).
		Int64("tasks", stats.Tasks).
		Int("working_entries", reclaimed).
		Msg("maintenance pass complete")

	if stats.Turns+stats.Facts+stats.Tasks > 0 {
		if err := s.sweeper.Vacuum(ctx); err != nil {
			logger.Warn().Err(err).Msg("vacuum failed")
		}
	}
	return nil
}
