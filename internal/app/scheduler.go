package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
)

// Scheduler triggers poll cycles on a cron schedule in UTC.
type Scheduler struct {
	cron   *cron.Cron
	wg     conc.WaitGroup
	cancel context.CancelFunc
}

// StartScheduler runs one cycle right away and then on every schedule tick.
func (c *Container) StartScheduler(ctx context.Context) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		cancel: cancel,
	}

	_, err := s.cron.AddFunc(c.Config.PollerSchedule, func() {
		c.runPoll(ctx, "schedule")
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("parse POLLER_SCHEDULE %q: %w", c.Config.PollerSchedule, err)
	}

	if err := c.Poller.Init(ctx); err != nil {
		c.Logger.Warn("poller init failed, retrying on first cycle", "error", err)
	}

	s.cron.Start()
	s.wg.Go(func() {
		c.runPoll(ctx, "startup")
	})
	c.Logger.Info("poll scheduler started", "schedule", c.Config.PollerSchedule, "regions", c.Config.PollerRegions)
	return s, nil
}

// Stop cancels running cycles and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for poll cycles: %w", ctx.Err())
	}
}

func (c *Container) runPoll(ctx context.Context, trigger string) {
	summary, err := c.Poller.PollOnce(ctx)
	if err != nil {
		c.Logger.WarnContext(ctx, "poll cycle ended early", "trigger", trigger, "run_id", summary.RunID, "error", err)
		return
	}
	if summary.Skipped {
		c.Logger.InfoContext(ctx, "poll cycle skipped", "trigger", trigger)
	}
}
