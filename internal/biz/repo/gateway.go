package repo

import (
	"context"

	"github.com/tgarchive/chatlog/internal/biz/domain"
)

// AdminLogSource fetches audit-log pages
type AdminLogSource interface {
	// AdminLog returns up to limit events with minID < id < maxID, newest
	// first. maxID 0 means no upper bound.
	AdminLog(ctx context.Context, chatID, minID, maxID int64, limit int) (*domain.AdminLogPage, error)
}

// TopicSource resolves forum topic titles
type TopicSource interface {
	TopicTitle(ctx context.Context, chatID, topicID int64) (string, error)
}

// SessionSource lists the authorized sessions of the account
type SessionSource interface {
	Authorizations(ctx context.Context) ([]domain.Authorization, error)
}

// GatewayRepo is the chat platform gateway: a stream of updates plus
// request/response calls.
type GatewayRepo interface {
	AdminLogSource
	TopicSource
	SessionSource

	// Start spawns the gateway and performs the handshake
	Start(ctx context.Context) error

	// SelfID returns the id of the logged-in account, valid after Start
	SelfID() int64

	// Events gets the update channel; it is closed when the gateway stops
	Events() <-chan domain.Event

	Stop()
}
