package service

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/usecase"
	"github.com/tgarchive/chatlog/internal/logger"
)

// FlushScheduler periodically drains the write buffers
type FlushScheduler struct {
	buffers  []usecase.Flusher
	interval time.Duration
	log      *log.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup // ticker loop
	flushWg sync.WaitGroup // flush goroutines
}

// NewFlushScheduler creates a scheduler for buffers, flushed in the given order
func NewFlushScheduler(buffers []usecase.Flusher, interval time.Duration) *FlushScheduler {
	return &FlushScheduler{
		buffers:  buffers,
		interval: interval,
		log:      logger.For("Flush"),
	}
}

// Start starts the scheduler
func (s *FlushScheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop()

	s.log.Info("Started", "interval", s.interval, "buffers", len(s.buffers))
}

// Stop stops the ticker, waits for running flushes and drains every buffer once more
func (s *FlushScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.flushWg.Wait()

	ctx := context.Background()
	if s.ctx != nil {
		ctx = context.WithoutCancel(s.ctx)
	}
	s.FlushAll(ctx)
	s.log.Info("Stopped")
}

func (s *FlushScheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			// A slow store must not delay the next tick. Stop must not
			// abort a batch that is already being written.
			s.flushWg.Add(1)
			go func() {
				defer s.flushWg.Done()
				s.FlushAll(context.WithoutCancel(s.ctx))
			}()
		}
	}
}

// FlushAll flushes every buffer in order and returns rows written per table
func (s *FlushScheduler) FlushAll(ctx context.Context) map[string]int {
	written := make(map[string]int, len(s.buffers))
	for _, b := range s.buffers {
		n := b.Flush(ctx)
		written[b.Table()] = n
		if n > 0 {
			s.log.Info("Flushed", "table", b.Table(), "rows", n)
		}
	}
	return written
}
