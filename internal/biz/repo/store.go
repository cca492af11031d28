package repo

import (
	"context"

	"github.com/tgarchive/chatlog/internal/biz/domain"
)

// BatchWriter performs bulk inserts into destination tables
type BatchWriter interface {
	// WriteBatch inserts rows into table in one batch. Either all rows are
	// written or none, in which case the error is returned.
	WriteBatch(ctx context.Context, table string, rows []domain.Row) (int, error)
}

// MessageLogRepo is the durable message log. Lookup methods return
// ("", false, nil) when nothing matches.
type MessageLogRepo interface {
	BatchWriter

	// LastEditedText returns the newest non-empty edit history text of a message
	LastEditedText(ctx context.Context, key domain.MessageKey) (string, bool, error)

	// LastIncomingText returns the newest logged text of a received message
	LastIncomingText(ctx context.Context, key domain.MessageKey) (string, bool, error)

	// LastOutgoingText returns the newest logged text of a sent message
	LastOutgoingText(ctx context.Context, key domain.MessageKey) (string, bool, error)

	// LastChatTitle returns the newest chat title seen in received messages
	LastChatTitle(ctx context.Context, chatID int64) (string, bool, error)

	// MaxAdminEventID returns the highest stored audit-log event id of a chat, 0 if none
	MaxAdminEventID(ctx context.Context, chatID int64) (int64, error)

	// EnsureSchema creates missing tables
	EnsureSchema(ctx context.Context) error

	Close() error
}
