package ladder

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// Sweeper periodically expires overdue pending challenges.
type Sweeper struct {
	scheduler gocron.Scheduler
}

// NewSweeper schedules ExpireOverdue on l every interval. Call Start to run it.
func NewSweeper(l Ladder, interval time.Duration) (*Sweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			n, err := l.ExpireOverdue(ctx)
			if err != nil {
				log.Error("Challenge expiry sweep failed", "error", err)
				return
			}
			if n > 0 {
				log.Info("Expired overdue challenges", "count", n)
			}
		}),
		gocron.WithName("expire-overdue-challenges"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}
	return &Sweeper{scheduler: sched}, nil
}

func (s *Sweeper) Start() {
	log.Info("Starting challenge expiry sweeper")
	s.scheduler.Start()
}

func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}
