package shortener

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically deactivates links whose expiry has passed.
// The resolver never depends on it having run.
type Sweeper struct {
	repo     Repository
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates a new expiry sweeper.
func NewSweeper(repo Repository, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Sweep runs a single deactivation pass.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.logger.Info("deactivated expired links", zap.Int64("count", n))
	}

	return n, nil
}

// Start begins sweeping on the configured interval.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// Shutdown stops the sweeper and waits for the current pass to finish.
func (s *Sweeper) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	return nil
}
