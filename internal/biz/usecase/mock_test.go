package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tgarchive/chatlog/internal/biz/domain"
)

// Mock implementations

type mockLogRepo struct {
	mu      sync.Mutex
	rows    map[string][]domain.Row
	writes  int
	failErr error
	lookErr error
	block   chan struct{} // when set, WriteBatch waits on it
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{rows: make(map[string][]domain.Row)}
}

func (m *mockLogRepo) WriteBatch(ctx context.Context, table string, rows []domain.Row) (int, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failErr != nil {
		return 0, m.failErr
	}
	m.rows[table] = append(m.rows[table], rows...)
	return len(rows), nil
}

func (m *mockLogRepo) count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[table])
}

func (m *mockLogRepo) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *mockLogRepo) last(table string, match func(domain.Row) (string, bool)) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return "", false, m.lookErr
	}
	rows := m.rows[table]
	for i := len(rows) - 1; i >= 0; i-- {
		if v, ok := match(rows[i]); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

func (m *mockLogRepo) LastEditedText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return m.last(domain.TableEdited, func(r domain.Row) (string, bool) {
		e := r.(domain.EditedMessage)
		return e.Message, e.Key() == key && e.Message != ""
	})
}

func (m *mockLogRepo) LastIncomingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return m.last(domain.TableIncoming, func(r domain.Row) (string, bool) {
		e := r.(domain.IncomingMessage)
		return e.Message, e.Key() == key
	})
}

func (m *mockLogRepo) LastOutgoingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	return m.last(domain.TableOutgoing, func(r domain.Row) (string, bool) {
		e := r.(domain.OutgoingMessage)
		return e.Message, e.Key() == key
	})
}

func (m *mockLogRepo) LastChatTitle(ctx context.Context, chatID int64) (string, bool, error) {
	return m.last(domain.TableIncoming, func(r domain.Row) (string, bool) {
		e := r.(domain.IncomingMessage)
		return e.ChatTitle, e.ChatID == chatID
	})
}

func (m *mockLogRepo) MaxAdminEventID(ctx context.Context, chatID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return 0, m.lookErr
	}
	var highest int64
	for _, r := range m.rows[domain.TableAdminActions] {
		a := r.(domain.AdminAction)
		if a.ChatID == chatID && a.EventID > highest {
			highest = a.EventID
		}
	}
	return highest, nil
}

func (m *mockLogRepo) adminIDs(chatID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, r := range m.rows[domain.TableAdminActions] {
		if a := r.(domain.AdminAction); a.ChatID == chatID {
			ids = append(ids, a.EventID)
		}
	}
	return ids
}

func (m *mockLogRepo) EnsureSchema(ctx context.Context) error { return nil }
func (m *mockLogRepo) Close() error                           { return nil }

type adminCall struct {
	chatID, minID, maxID int64
	limit                int
	returned             int
}

// mockAdminSource serves audit-log events the way the platform does:
// newest first, strictly between min and max.
type mockAdminSource struct {
	mu     sync.Mutex
	events map[int64][]int64
	errs   map[int64]error
	calls  []adminCall

	ignoreMin bool // when set, events at or below min_id are returned too
}

func newMockAdminSource() *mockAdminSource {
	return &mockAdminSource{events: make(map[int64][]int64), errs: make(map[int64]error)}
}

func (m *mockAdminSource) addRange(chatID, from, to int64) {
	for id := from; id <= to; id++ {
		m.events[chatID] = append(m.events[chatID], id)
	}
}

func (m *mockAdminSource) AdminLog(ctx context.Context, chatID, minID, maxID int64, limit int) (*domain.AdminLogPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[chatID]; err != nil {
		return nil, err
	}

	ids := append([]int64(nil), m.events[chatID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	page := &domain.AdminLogPage{
		Chats: []domain.Peer{{Type: domain.PeerChannel, ID: chatID, Title: "chat"}},
	}
	for _, id := range ids {
		if (id <= minID && !m.ignoreMin) || (maxID != 0 && id >= maxID) {
			continue
		}
		if len(page.Events) == limit {
			break
		}
		page.Events = append(page.Events, domain.AdminLogEvent{
			ID:     id,
			UserID: 1,
			Action: domain.AdminLogAction{Type: domain.AdminParticipantJoin, Raw: "{}"},
		})
	}
	m.calls = append(m.calls, adminCall{chatID, minID, maxID, limit, len(page.Events)})
	return page, nil
}

func (m *mockAdminSource) callsFor(chatID int64) []adminCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []adminCall
	for _, c := range m.calls {
		if c.chatID == chatID {
			out = append(out, c)
		}
	}
	return out
}

type mockTopicSource struct {
	titles map[int64]string
	err    error
	calls  int
}

func (m *mockTopicSource) TopicTitle(ctx context.Context, chatID, topicID int64) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.titles[topicID], nil
}

type mockSessionSource struct {
	auths []domain.Authorization
	err   error
}

func (m *mockSessionSource) Authorizations(ctx context.Context) ([]domain.Authorization, error) {
	return m.auths, m.err
}

var errStore = errors.New("store unavailable")
