package biz

import (
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Buffers  *usecase.Buffers
	Resolver *usecase.Resolver
	Topics   *usecase.TopicCache
	AdminLog *usecase.AdminLogUsecase
	Sessions *usecase.SessionUsecase
}

// NewUsecases builds the usecases on top of the gateway and the message log
func NewUsecases(gateway repo.GatewayRepo, logRepo repo.MessageLogRepo, adminLog usecase.AdminLogConfig) *Usecases {
	buffers := usecase.NewBuffers(logRepo)
	return &Usecases{
		Buffers:  buffers,
		Resolver: usecase.NewResolver(buffers, logRepo),
		Topics:   usecase.NewTopicCache(gateway),
		AdminLog: usecase.NewAdminLogUsecase(gateway, logRepo, adminLog),
		Sessions: usecase.NewSessionUsecase(gateway, logRepo),
	}
}
