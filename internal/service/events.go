package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/biz/usecase"
	"github.com/tgarchive/chatlog/internal/logger"
)

const (
	previewLength = 80
	titleLength   = 25
)

// EventService turns gateway updates into buffered log rows
type EventService struct {
	buffers  *usecase.Buffers
	resolver *usecase.Resolver
	topics   *usecase.TopicCache
	notifier repo.Notifier
	selfID   func() int64
	now      func() time.Time
	log      *log.Logger

	wg sync.WaitGroup
}

// NewEventService creates a new event service. selfID returns the logged-in
// account id stored as client_id.
func NewEventService(
	buffers *usecase.Buffers,
	resolver *usecase.Resolver,
	topics *usecase.TopicCache,
	notifier repo.Notifier,
	selfID func() int64,
) *EventService {
	return &EventService{
		buffers:  buffers,
		resolver: resolver,
		topics:   topics,
		notifier: notifier,
		selfID:   selfID,
		now:      time.Now,
		log:      logger.For("Events"),
	}
}

// Dispatch handles ev on its own goroutine. A panicking handler is logged and
// does not affect other events.
func (s *EventService) Dispatch(ctx context.Context, ev domain.Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Handler panicked", "event", fmt.Sprintf("%T", ev), "panic", r)
			}
		}()
		s.Handle(ctx, ev)
	}()
}

// Wait blocks until all dispatched handlers have returned
func (s *EventService) Wait() {
	s.wg.Wait()
}

// Handle routes one event to its handler
func (s *EventService) Handle(ctx context.Context, ev domain.Event) {
	switch e := ev.(type) {
	case *domain.NewMessage:
		if e.Message.Outgoing {
			s.HandleOutgoing(ctx, e.Message)
		} else {
			s.HandleIncoming(ctx, e.Message)
		}
	case *domain.MessageEdited:
		s.HandleEdited(ctx, e.Message)
	case *domain.MessagesDeleted:
		s.HandleDeleted(ctx, e)
	default:
		s.log.Warn("Unhandled event", "event", fmt.Sprintf("%T", ev))
	}
}

// HandleIncoming buffers a received group or channel message. Private chats
// and messages without a sender are only logged.
func (s *EventService) HandleIncoming(ctx context.Context, msg *domain.Message) bool {
	if msg.Outgoing {
		return false
	}

	content := msg.Content()
	s.log.Info("incoming",
		"id", msg.ID,
		"chat", domain.Preview(msg.Chat.Name(), titleLength),
		"text", domain.Preview(content, previewLength)+s.resolver.ReplyPart(ctx, msg, previewLength))

	if msg.Chat == nil || msg.Chat.IsUser() || msg.Sender == nil {
		return false
	}

	row := domain.IncomingMessage{
		DateTime:      msg.Date,
		Message:       content,
		ChatTitle:     msg.Chat.Title,
		ChatID:        msg.ChatID,
		MessageID:     msg.ID,
		ChatUsernames: msg.Chat.AllUsernames(),
		ReplyTo:       msg.ReplyToID(),
		ClientID:      s.selfID(),
	}
	if msg.Sender.IsUser() {
		row.Usernames = msg.Sender.AllUsernames()
		row.FirstName = msg.Sender.FirstName
		row.LastName = msg.Sender.LastName
		row.UserID = msg.Sender.ID
	}

	s.buffers.Incoming.Push(row)
	return true
}

// HandleOutgoing buffers a message sent by the account
func (s *EventService) HandleOutgoing(ctx context.Context, msg *domain.Message) bool {
	if !msg.Outgoing || msg.Chat == nil {
		return false
	}

	title, usernames := outgoingTitle(msg)

	var topicName string
	topicID := msg.ReplyTo.TopicID()
	if topicID != 0 {
		topicName = s.topics.Title(ctx, msg.ChatID, topicID)
	}

	// A reply to the topic root is not a reply
	var replyPart string
	if msg.ReplyToID() != topicID {
		replyPart = s.resolver.ReplyPart(ctx, msg, previewLength)
	}
	chat := domain.Preview(title, titleLength)
	if topicName != "" {
		chat += " [" + topicName + "]"
	}
	s.log.Info("outgoing",
		"id", msg.ID,
		"chat", chat,
		"text", domain.Preview(msg.Text, previewLength)+replyPart)

	s.buffers.Outgoing.Push(domain.OutgoingMessage{
		DateTime:      msg.Date,
		Message:       msg.Text,
		ChatTitle:     title,
		ChatID:        msg.ChatID,
		MessageID:     msg.ID,
		ChatUsernames: usernames,
		Raw:           msg.Raw,
		ReplyTo:       msg.ReplyToID(),
		TopicID:       topicID,
		TopicName:     topicName,
		ClientID:      s.selfID(),
	})
	return true
}

// outgoingTitle names the peer of an outgoing message: the username for
// private chats, the title otherwise, falling back to the numeric id.
func outgoingTitle(msg *domain.Message) (string, []string) {
	peer := msg.Chat
	title := peer.Title
	if peer.IsUser() {
		title = peer.Username
	}
	if title == "" {
		title = strconv.FormatInt(msg.ChatID, 10)
	}
	return title, peer.AllUsernames()
}

// HandleEdited buffers an edit together with its diff against the prior
// content. Nothing is written when the prior content is unknown or unchanged.
func (s *EventService) HandleEdited(ctx context.Context, msg *domain.Message) bool {
	if msg.Text == "" {
		return false
	}

	prior, ok := s.resolver.Resolve(ctx, msg.Key())
	if !ok || prior.Text == "" || prior.Text == msg.Text {
		return false
	}

	diff := domain.UnifiedDiff(prior.Text, msg.Text)
	if diff == "" {
		return false
	}
	var userID int64
	if msg.Sender != nil {
		userID = msg.Sender.ID
	}

	s.buffers.Edited.Push(domain.EditedMessage{
		DateTime:        s.now(),
		ChatID:          msg.ChatID,
		MessageID:       msg.ID,
		OriginalMessage: prior.Text,
		Message:         msg.Text,
		Diff:            diff,
		UserID:          userID,
		ClientID:        s.selfID(),
	})

	chat := domain.Preview(msg.Chat.Name(), titleLength)
	s.log.Info("edited", "id", msg.ID, "chat", chat, "source", prior.Source)
	s.log.Debug("edited diff\n" + diff)

	s.notify(ctx, fmt.Sprintf("Edited in %s (#%d):\n%s", chat, msg.ID, diff))
	return true
}

// HandleDeleted buffers one row per deleted message. Deletions outside
// channels carry no chat id and are skipped.
func (s *EventService) HandleDeleted(ctx context.Context, ev *domain.MessagesDeleted) int {
	if ev.ChannelID == 0 {
		s.log.Debug("Skipping deletion without channel", "messages", len(ev.MessageIDs))
		return 0
	}

	title := domain.Preview(s.resolver.ChatTitle(ctx, ev.ChannelID), titleLength)
	date := ev.Date
	if date.IsZero() {
		date = s.now()
	}

	var lines []string
	for _, id := range ev.MessageIDs {
		content := s.resolver.ResolveOrID(ctx, domain.MessageKey{ChatID: ev.ChannelID, MessageID: id})
		preview := domain.Preview(content, previewLength)
		s.log.Info("deleted", "id", id, "chat", title, "text", preview)
		lines = append(lines, fmt.Sprintf("#%d %s", id, preview))

		s.buffers.Deleted.Push(domain.DeletedMessage{
			DateTime:  date,
			ChatID:    ev.ChannelID,
			MessageID: id,
			ClientID:  s.selfID(),
		})
	}

	if len(lines) > 0 {
		s.notify(ctx, fmt.Sprintf("Deleted in %s:\n%s", title, strings.Join(lines, "\n")))
	}
	return len(ev.MessageIDs)
}

func (s *EventService) notify(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Warn("Notify failed", "err", err)
	}
}
