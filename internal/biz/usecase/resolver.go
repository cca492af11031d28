package usecase

import (
	"context"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/logger"
)

// Source names where a resolved text came from
type Source string

const (
	SourceEditBuffer     Source = "edit_buffer"
	SourceEditStore      Source = "edit_store"
	SourceIncomingStore  Source = "incoming_store"
	SourceIncomingBuffer Source = "incoming_buffer"
	SourceOutgoingBuffer Source = "outgoing_buffer"
	SourceOutgoingStore  Source = "outgoing_store"
)

// Resolution is the result of a successful lookup
type Resolution struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// Resolver answers "what does this message currently say" across the
// unflushed buffers and the durable log.
type Resolver struct {
	buffers *Buffers
	logRepo repo.MessageLogRepo
	log     *log.Logger
}

// NewResolver creates a new resolver
func NewResolver(buffers *Buffers, logRepo repo.MessageLogRepo) *Resolver {
	return &Resolver{
		buffers: buffers,
		logRepo: logRepo,
		log:     logger.For("Resolver"),
	}
}

// Resolve returns the most recent known content of a message. Precedence:
// unflushed edits, stored edits, stored incoming messages, unflushed incoming
// messages. Store errors count as a miss for that tier.
func (r *Resolver) Resolve(ctx context.Context, key domain.MessageKey) (Resolution, bool) {
	if text, ok := FindLast(r.buffers.Edited, func(m domain.EditedMessage) (string, bool) {
		return m.Message, m.Key() == key
	}); ok && text != "" {
		return Resolution{Text: text, Source: SourceEditBuffer}, true
	}

	if text, ok := r.query(ctx, "edited", key, r.logRepo.LastEditedText); ok && text != "" {
		return Resolution{Text: text, Source: SourceEditStore}, true
	}

	if text, ok := r.query(ctx, "incoming", key, r.logRepo.LastIncomingText); ok {
		return Resolution{Text: text, Source: SourceIncomingStore}, true
	}

	if text, ok := FindLast(r.buffers.Incoming, func(m domain.IncomingMessage) (string, bool) {
		return m.Message, m.Key() == key
	}); ok {
		return Resolution{Text: text, Source: SourceIncomingBuffer}, true
	}

	return Resolution{}, false
}

// ResolveOrID is Resolve with the numeric message id as placeholder
func (r *Resolver) ResolveOrID(ctx context.Context, key domain.MessageKey) string {
	if res, ok := r.Resolve(ctx, key); ok {
		return res.Text
	}
	return strconv.FormatInt(key.MessageID, 10)
}

// ReplyText looks up the text of a replied-to message: received messages
// first, then the account's own.
func (r *Resolver) ReplyText(ctx context.Context, key domain.MessageKey) (Resolution, bool) {
	if text, ok := FindLast(r.buffers.Incoming, func(m domain.IncomingMessage) (string, bool) {
		return m.Message, m.Key() == key
	}); ok {
		return Resolution{Text: text, Source: SourceIncomingBuffer}, true
	}

	if text, ok := r.query(ctx, "incoming", key, r.logRepo.LastIncomingText); ok {
		return Resolution{Text: text, Source: SourceIncomingStore}, true
	}

	if text, ok := FindLast(r.buffers.Outgoing, func(m domain.OutgoingMessage) (string, bool) {
		return m.Message, m.Key() == key
	}); ok {
		return Resolution{Text: text, Source: SourceOutgoingBuffer}, true
	}

	if text, ok := r.query(ctx, "outgoing", key, r.logRepo.LastOutgoingText); ok {
		return Resolution{Text: text, Source: SourceOutgoingStore}, true
	}

	return Resolution{}, false
}

// ReplyPart formats the " reply to N «text…»" suffix of a log line, or ""
// when the message is not a reply.
func (r *Resolver) ReplyPart(ctx context.Context, msg *domain.Message, limit int) string {
	replyID := msg.ReplyToID()
	if replyID == 0 {
		return ""
	}
	res, ok := r.ReplyText(ctx, domain.MessageKey{ChatID: msg.ChatID, MessageID: replyID})
	if !ok || res.Text == "" {
		return " reply to " + strconv.FormatInt(replyID, 10)
	}
	return " reply to " + strconv.FormatInt(replyID, 10) + " «" + domain.Preview(res.Text, limit) + "»"
}

// ChatTitle returns the latest known title of a chat, or its numeric id
func (r *Resolver) ChatTitle(ctx context.Context, chatID int64) string {
	if title, ok := FindLast(r.buffers.Incoming, func(m domain.IncomingMessage) (string, bool) {
		return m.ChatTitle, m.ChatID == chatID && m.ChatTitle != ""
	}); ok {
		return title
	}

	title, ok, err := r.logRepo.LastChatTitle(ctx, chatID)
	if err != nil {
		r.log.Warn("Chat title lookup failed", "chat", chatID, "err", err)
	}
	if ok && title != "" {
		return title
	}
	return strconv.FormatInt(chatID, 10)
}

func (r *Resolver) query(ctx context.Context, tier string, key domain.MessageKey,
	fn func(context.Context, domain.MessageKey) (string, bool, error)) (string, bool) {
	text, ok, err := fn(ctx, key)
	if err != nil {
		r.log.Warn("Store lookup failed", "tier", tier, "chat", key.ChatID, "message", key.MessageID, "err", err)
		return "", false
	}
	return text, ok
}
