package data

import (
	"context"

	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/infra/feishu"
)

// textSender is the part of the Feishu client the notifier needs
type textSender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// feishuNotifier posts alerts to a fixed Feishu chat
type feishuNotifier struct {
	client textSender
	chatID string
}

// NewFeishuNotifier creates a notifier that posts to chatID
func NewFeishuNotifier(client *feishu.Client, chatID string) repo.Notifier {
	return &feishuNotifier{client: client, chatID: chatID}
}

// Notify sends text to the configured chat
func (n *feishuNotifier) Notify(ctx context.Context, text string) error {
	return n.client.SendText(ctx, n.chatID, text)
}

// nopNotifier is used when Feishu is not configured
type nopNotifier struct{}

// NewNopNotifier returns a notifier that drops everything
func NewNopNotifier() repo.Notifier {
	return nopNotifier{}
}

func (nopNotifier) Notify(ctx context.Context, text string) error { return nil }
