package data

import (
	"context"

	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/conf"
	"github.com/tgarchive/chatlog/internal/infra/feishu"
	"github.com/tgarchive/chatlog/internal/infra/gateway"
)

// Repositories contains all repositories
type Repositories struct {
	Log      repo.MessageLogRepo
	Gateway  repo.GatewayRepo
	Notifier repo.Notifier
}

// NewStore opens the message log selected by cfg.Driver
func NewStore(ctx context.Context, cfg conf.StoreConfig) (repo.MessageLogRepo, error) {
	if cfg.Driver == conf.DriverSQLite {
		return NewSQLiteRepo(ctx, cfg.Path)
	}
	return NewClickHouseRepo(ctx, cfg.URL, cfg.User, cfg.Password, cfg.Database)
}

// NewRepositories creates all repositories. The gateway is created but not started.
func NewRepositories(ctx context.Context, cfg *conf.Config) (*Repositories, error) {
	logRepo, err := NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	notifier := NewNopNotifier()
	if cfg.Feishu.Enabled() {
		notifier = NewFeishuNotifier(feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret), cfg.Feishu.NotifyChatID)
	}

	return &Repositories{
		Log:      logRepo,
		Gateway:  NewGatewayRepo(gateway.NewClient(cfg.Gateway.Command, cfg.Gateway.Dir)),
		Notifier: notifier,
	}, nil
}
