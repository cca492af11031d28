package service

import (
	"context"
	"errors"
	"sync"

	"github.com/tgarchive/chatlog/internal/biz/domain"
)

// Mock implementations

type mockStore struct {
	mu      sync.Mutex
	rows    map[string][]domain.Row
	writes  int
	failErr error
}

func newMockStore() *mockStore {
	return &mockStore{rows: make(map[string][]domain.Row)}
}

func (m *mockStore) WriteBatch(ctx context.Context, table string, rows []domain.Row) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failErr != nil {
		return 0, m.failErr
	}
	m.rows[table] = append(m.rows[table], rows...)
	return len(rows), nil
}

func (m *mockStore) tableRows(table string) []domain.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Row(nil), m.rows[table]...)
}

func (m *mockStore) LastEditedText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return "", false, nil
}

func (m *mockStore) LastIncomingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[domain.TableIncoming]
	for i := len(rows) - 1; i >= 0; i-- {
		if r := rows[i].(domain.IncomingMessage); r.Key() == key {
			return r.Message, true, nil
		}
	}
	return "", false, nil
}

func (m *mockStore) LastOutgoingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return "", false, nil
}

func (m *mockStore) LastChatTitle(ctx context.Context, chatID int64) (string, bool, error) {
	return "", false, nil
}

func (m *mockStore) MaxAdminEventID(ctx context.Context, chatID int64) (int64, error) {
	return 0, nil
}

func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }
func (m *mockStore) Close() error                           { return nil }

type mockNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (m *mockNotifier) Notify(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return m.err
}

func (m *mockNotifier) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

type mockTopics struct {
	titles map[int64]string
}

func (m *mockTopics) TopicTitle(ctx context.Context, chatID, topicID int64) (string, error) {
	if t, ok := m.titles[topicID]; ok {
		return t, nil
	}
	return "", errors.New("topic not found")
}
