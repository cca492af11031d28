package data

import (
	"context"
	"testing"
)

type mockSender struct {
	chatID string
	text   string
}

func (m *mockSender) SendText(ctx context.Context, chatID, text string) error {
	m.chatID, m.text = chatID, text
	return nil
}

func TestFeishuNotifier(t *testing.T) {
	sender := &mockSender{}
	n := &feishuNotifier{client: sender, chatID: "oc_alerts"}

	if err := n.Notify(context.Background(), "deleted: hi"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sender.chatID != "oc_alerts" || sender.text != "deleted: hi" {
		t.Errorf("Unexpected send: %s %q", sender.chatID, sender.text)
	}

	if err := NewNopNotifier().Notify(context.Background(), "x"); err != nil {
		t.Errorf("Expected nop notifier to succeed, got %v", err)
	}
}
