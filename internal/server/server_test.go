package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/conf"
)

// MockGateway implements repo.GatewayRepo for testing
type MockGateway struct {
	events   chan domain.Event
	startErr error
	stopOnce sync.Once
}

func newMockGateway() *MockGateway {
	return &MockGateway{events: make(chan domain.Event, 10)}
}

func (m *MockGateway) Start(ctx context.Context) error { return m.startErr }
func (m *MockGateway) SelfID() int64                   { return 777 }
func (m *MockGateway) Events() <-chan domain.Event     { return m.events }

func (m *MockGateway) Stop() {
	m.stopOnce.Do(func() { close(m.events) })
}

func (m *MockGateway) AdminLog(ctx context.Context, chatID, minID, maxID int64, limit int) (*domain.AdminLogPage, error) {
	return &domain.AdminLogPage{}, nil
}

func (m *MockGateway) TopicTitle(ctx context.Context, chatID, topicID int64) (string, error) {
	return "", errors.New("no topics")
}

func (m *MockGateway) Authorizations(ctx context.Context) ([]domain.Authorization, error) {
	return nil, nil
}

// MockStore implements repo.MessageLogRepo for testing
type MockStore struct {
	mu     sync.Mutex
	rows   map[string]int
	closed bool
}

func (m *MockStore) WriteBatch(ctx context.Context, table string, rows []domain.Row) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[string]int)
	}
	m.rows[table] += len(rows)
	return len(rows), nil
}

func (m *MockStore) count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[table]
}

func (m *MockStore) LastEditedText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return "", false, nil
}

func (m *MockStore) LastIncomingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return "", false, nil
}

func (m *MockStore) LastOutgoingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return "", false, nil
}

func (m *MockStore) LastChatTitle(ctx context.Context, chatID int64) (string, bool, error) {
	return "", false, nil
}

func (m *MockStore) MaxAdminEventID(ctx context.Context, chatID int64) (int64, error) {
	return 0, nil
}

func (m *MockStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MockNotifier discards notifications
type MockNotifier struct{}

func (MockNotifier) Notify(ctx context.Context, text string) error { return nil }

func testSchedule() conf.ScheduleConfig {
	return conf.ScheduleConfig{
		ChatIDs:          []int64{-100},
		FlushInterval:    time.Hour,
		AdminLogInterval: time.Hour,
		SessionInterval:  time.Hour,
		AdminLogPageSize: 100,
	}
}

func TestServer_StopFlushesHandledEvents(t *testing.T) {
	gw := newMockGateway()
	store := &MockStore{}
	srv := NewServer(gw, store, MockNotifier{}, testSchedule(), 0)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	chat := &domain.Peer{Type: domain.PeerChannel, ID: -100, Title: "News"}
	gw.events <- &domain.NewMessage{Message: &domain.Message{
		ID: 1, ChatID: -100, Text: "hello", Chat: chat,
		Sender: &domain.Peer{Type: domain.PeerUser, ID: 7},
	}}
	gw.events <- &domain.NewMessage{Message: &domain.Message{
		ID: 2, ChatID: -100, Text: "mine", Chat: chat, Outgoing: true,
	}}
	gw.events <- &domain.MessagesDeleted{ChannelID: -100, MessageIDs: []int64{1}}

	srv.Stop()

	select {
	case <-srv.Done():
	default:
		t.Error("Expected Done to be closed after Stop")
	}

	if store.count(domain.TableIncoming) != 1 {
		t.Errorf("Expected 1 incoming row, got %d", store.count(domain.TableIncoming))
	}
	if store.count(domain.TableOutgoing) != 1 {
		t.Errorf("Expected 1 outgoing row, got %d", store.count(domain.TableOutgoing))
	}
	if store.count(domain.TableDeleted) != 1 {
		t.Errorf("Expected 1 deleted row, got %d", store.count(domain.TableDeleted))
	}
	if !store.closed {
		t.Error("Expected store to be closed")
	}
}

func TestServer_DoneWhenGatewayExits(t *testing.T) {
	gw := newMockGateway()
	srv := NewServer(gw, &MockStore{}, MockNotifier{}, testSchedule(), 0)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	gw.Stop()

	select {
	case <-srv.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Done after the update stream closed")
	}
	srv.Stop()
}

func TestServer_StartFails(t *testing.T) {
	gw := newMockGateway()
	gw.startErr = errors.New("gateway binary not found")
	srv := NewServer(gw, &MockStore{}, MockNotifier{}, testSchedule(), 0)

	if err := srv.Start(context.Background()); err == nil {
		t.Error("Expected error when the gateway fails to start")
	}
}
