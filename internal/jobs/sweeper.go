package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"medicare-adherence/internal/platform/logger"
)

// MissedSweeper lo implementa medications.Service.
type MissedSweeper interface {
	SweepMissed(ctx context.Context, now time.Time) (int, error)
}

type SweeperOptions struct {
	// Schedule en formato cron o descriptor ("@every 5m").
	Schedule string
	Timeout  time.Duration
	Logger   logger.Logger
	Now      func() time.Time
}

// Sweeper corre el barrido de dosis vencidas en background.
type Sweeper struct {
	svc  MissedSweeper
	cron *cron.Cron
	opts SweeperOptions

	mu      sync.Mutex
	running bool
}

func NewSweeper(svc MissedSweeper, opts SweeperOptions) (*Sweeper, error) {
	if svc == nil {
		return nil, errors.New("sweeper: service is required")
	}
	if strings.TrimSpace(opts.Schedule) == "" {
		opts.Schedule = "@every 5m"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Sweeper{
		svc:  svc,
		opts: opts,
		// SkipIfStillRunning: nunca dos barridos a la vez.
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := s.cron.AddFunc(opts.Schedule, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("sweeper: invalid schedule %q: %w", opts.Schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.opts.Logger.Info("missed-dose sweeper started", map[string]any{"schedule": s.opts.Schedule})
}

// Stop espera a que termine el barrido en curso o a que ctx venza.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.opts.Logger.Info("missed-dose sweeper stopped", nil)
}

// RunOnce ejecuta un barrido con timeout; usado por cron y por tests.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	started := s.opts.Now()
	n, err := s.svc.SweepMissed(ctx, started)
	fields := map[string]any{
		"missed":      n,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		fields["err"] = err
		s.opts.Logger.Error("missed-dose sweep failed", fields)
		return n, err
	}
	if n > 0 {
		s.opts.Logger.Info("missed-dose sweep finished", fields)
	} else {
		s.opts.Logger.Debug("missed-dose sweep finished", fields)
	}
	return n, nil
}
