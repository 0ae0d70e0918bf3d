package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Fleet runs every instance of a backfill inside one process. Each instance
// gets its own goroutine, store connection and scanner; they share nothing
// but the partition arithmetic.
type Fleet struct {
	worker *Worker
	logger *slog.Logger
}

// NewFleet creates a fleet running worker.
func NewFleet(worker *Worker) (*Fleet, error) {
	if worker == nil {
		return nil, ErrWorkerRequired
	}
	return &Fleet{
		worker: worker,
		logger: slog.Default().With("component", "backfill-fleet"),
	}, nil
}

// Run starts instances 0..total-1 and waits for all of them.
// Stats are indexed by instance; the errors of all failed instances are joined.
func (f *Fleet) Run(ctx context.Context, total int) ([]*Stats, error) {
	if total < 1 {
		return nil, fmt.Errorf("fleet: total instances must be at least 1, got %d", total)
	}

	pool, err := ants.NewPool(total)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg    sync.WaitGroup
		stats = make([]*Stats, total)
		errs  = make([]error, total)
	)

	for i := 0; i < total; i++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			stats[i], errs[i] = f.worker.Run(ctx, i, total)
			if errs[i] != nil {
				f.logger.Error("instance failed", "instance", i, "err", errs[i])
				errs[i] = fmt.Errorf("instance %d: %w", i, errs[i])
			}
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("instance %d: %w", i, err)
		}
	}

	wg.Wait()
	return stats, errors.Join(errs...)
}
