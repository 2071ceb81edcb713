package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/blockedby/channel-stats/internal/logger"
)

// Ingester is the part of Service the scheduler drives.
type Ingester interface {
	Ingest(ctx context.Context, identifier string, limit int) (*Result, error)
}

// TrackedSource lists identifiers of already known channels.
type TrackedSource interface {
	ListTracked(ctx context.Context) ([]string, error)
}

// SchedulerConfig tunes periodic re-ingestion.
type SchedulerConfig struct {
	// Interval between ticks. Zero disables Run.
	Interval    time.Duration
	Concurrency int
	Limit       int
	Watchlist   []string
}

// TickReport summarizes one scheduler pass.
type TickReport struct {
	Identifiers []string
	Succeeded   int
	Failed      map[string]error
	// SourceErr is set when tracked channels could not be listed; the
	// watchlist is still processed.
	SourceErr error
}

// Scheduler re-ingests tracked channels on an interval.
type Scheduler struct {
	ingester Ingester
	source   TrackedSource
	cfg      SchedulerConfig
	log      *logger.Logger
}

// NewScheduler creates a new scheduler.
func NewScheduler(ingester Ingester, source TrackedSource, cfg SchedulerConfig, log *logger.Logger) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		ingester: ingester,
		source:   source,
		cfg:      cfg,
		log:      log.Component("scheduler"),
	}
}

// Run ticks until ctx is done. The first pass starts immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		s.log.Info().Msg("scheduler disabled")
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		report := s.RunOnce(ctx)
		s.log.Info().
			Int("channels", len(report.Identifiers)).
			Int("succeeded", report.Succeeded).
			Int("failed", len(report.Failed)).
			Msg("scheduler tick finished")

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce ingests every tracked and watchlisted channel once.
func (s *Scheduler) RunOnce(ctx context.Context) TickReport {
	report := TickReport{Failed: make(map[string]error)}

	var tracked []string
	if s.source != nil {
		var err error
		tracked, err = s.source.ListTracked(ctx)
		if err != nil {
			report.SourceErr = err
			s.log.Warn().Err(err).Msg("failed to list tracked channels")
		}
	}
	report.Identifiers = uniqueIdentifiers(append(tracked, s.cfg.Watchlist...))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)

	for _, id := range report.Identifiers {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := s.ingester.Ingest(ctx, id, s.cfg.Limit)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[id] = err
				return nil
			}
			report.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	return report
}

// uniqueIdentifiers drops blanks and case-insensitive duplicates, keeping order.
func uniqueIdentifiers(ids []string) []string {
	ids = lo.Filter(ids, func(id string, _ int) bool {
		return strings.TrimSpace(id) != ""
	})
	return lo.UniqBy(ids, func(id string) string {
		return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(id), "@"))
	})
}
