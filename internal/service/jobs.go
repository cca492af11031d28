package service

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/usecase"
	"github.com/tgarchive/chatlog/internal/logger"
)

// PeriodicJob runs fn immediately and then on every tick until stopped.
// Runs never overlap: a tick that fires while fn is running is skipped.
type PeriodicJob struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	log      *log.Logger

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPeriodicJob creates a job
func NewPeriodicJob(name string, interval time.Duration, fn func(ctx context.Context)) *PeriodicJob {
	return &PeriodicJob{
		name:     name,
		interval: interval,
		fn:       fn,
		log:      logger.For("Jobs").With("job", name),
	}
}

// Start starts the job loop
func (j *PeriodicJob) Start(ctx context.Context) {
	if j.running {
		return
	}
	j.running = true

	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.loop(ctx)
	j.log.Info("Started", "interval", j.interval)
}

// Stop cancels the job and waits for the current run to return
func (j *PeriodicJob) Stop() {
	if !j.running {
		return
	}
	j.running = false
	j.cancel()
	j.wg.Wait()
	j.log.Info("Stopped")
}

func (j *PeriodicJob) loop(ctx context.Context) {
	defer j.wg.Done()

	j.run(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.run(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (j *PeriodicJob) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			j.log.Error("Job panicked", "panic", r)
		}
	}()
	j.fn(ctx)
}

// AdminLogJob returns a job that syncs the admin log of every chat
func AdminLogJob(uc *usecase.AdminLogUsecase, chatIDs []int64, interval time.Duration) *PeriodicJob {
	return NewPeriodicJob("adminlog", interval, func(ctx context.Context) {
		uc.SyncAll(ctx, chatIDs)
	})
}

// SessionJob returns a job that snapshots the account sessions
func SessionJob(uc *usecase.SessionUsecase, clientID func() int64, interval time.Duration) *PeriodicJob {
	l := logger.For("Sessions")
	return NewPeriodicJob("sessions", interval, func(ctx context.Context) {
		n, err := uc.Snapshot(ctx, clientID())
		if err != nil {
			l.Error("Snapshot failed", "err", err)
			return
		}
		if n > 0 {
			l.Info("Sessions stored", "rows", n)
		}
	})
}
