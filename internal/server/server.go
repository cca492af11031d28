package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/api"
	"github.com/tgarchive/chatlog/internal/biz"
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/biz/usecase"
	"github.com/tgarchive/chatlog/internal/conf"
	"github.com/tgarchive/chatlog/internal/logger"
	"github.com/tgarchive/chatlog/internal/service"
)

// Server runs the logging daemon: gateway updates in, buffered rows out
type Server struct {
	gateway  repo.GatewayRepo
	logRepo  repo.MessageLogRepo
	schedule conf.ScheduleConfig

	buffers *usecase.Buffers
	events  *service.EventService
	flush   *service.FlushScheduler
	jobs    []*service.PeriodicJob
	api     *api.Server
	log     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	loopWg sync.WaitGroup
	done   chan struct{}
}

// NewServer wires the usecases and services around the repositories
func NewServer(
	gateway repo.GatewayRepo,
	logRepo repo.MessageLogRepo,
	notifier repo.Notifier,
	schedule conf.ScheduleConfig,
	apiPort int,
) *Server {
	uc := biz.NewUsecases(gateway, logRepo, schedule.ToAdminLogConfig())
	flush := service.NewFlushScheduler(uc.Buffers.All(), schedule.FlushInterval)

	s := &Server{
		gateway:  gateway,
		logRepo:  logRepo,
		schedule: schedule,
		buffers:  uc.Buffers,
		events:   service.NewEventService(uc.Buffers, uc.Resolver, uc.Topics, notifier, gateway.SelfID),
		flush:    flush,
		api:      api.NewServer(uc.Resolver, uc.Buffers.All(), flush, uc.AdminLog, apiPort),
		log:      logger.For("Server"),
		done:     make(chan struct{}),
	}

	if len(schedule.ChatIDs) > 0 {
		s.jobs = append(s.jobs, service.AdminLogJob(uc.AdminLog, schedule.ChatIDs, schedule.AdminLogInterval))
	} else {
		s.log.Warn("No chats configured, admin log sync disabled")
	}
	s.jobs = append(s.jobs, service.SessionJob(uc.Sessions, gateway.SelfID, schedule.SessionInterval))

	return s
}

// Start starts the gateway, the flush scheduler, the jobs and the status API
func (s *Server) Start(ctx context.Context) error {
	if err := s.gateway.Start(ctx); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}
	s.log.Info("Gateway started", "self", s.gateway.SelfID())

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.flush.Start(s.ctx)
	for _, job := range s.jobs {
		job.Start(s.ctx)
	}

	go func() {
		if err := s.api.Start(); err != nil {
			s.log.Error("API server error", "err", err)
		}
	}()

	s.loopWg.Add(1)
	go s.eventLoop()

	return nil
}

// Done is closed when the gateway's update stream ends
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) eventLoop() {
	defer s.loopWg.Done()
	defer close(s.done)

	for ev := range s.gateway.Events() {
		s.events.Dispatch(s.ctx, ev)
	}
	s.log.Info("Update stream closed")
}

// Stop shuts down in dependency order: jobs, gateway, in-flight handlers,
// final flush, store.
func (s *Server) Stop() {
	s.log.Info("Shutting down...")

	for _, job := range s.jobs {
		job.Stop()
	}

	if err := s.api.Stop(); err != nil {
		s.log.Warn("API server shutdown failed", "err", err)
	}

	s.gateway.Stop()
	s.loopWg.Wait()
	s.events.Wait()

	s.flush.Stop()
	if s.cancel != nil {
		s.cancel()
	}

	if err := s.logRepo.Close(); err != nil {
		s.log.Warn("Failed to close store", "err", err)
	}
	s.log.Info("Stopped")
}
