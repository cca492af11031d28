package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/tgarchive/chatlog/internal/biz/domain"
)

func TestAdminLog_PaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	source := newMockAdminSource()
	source.addRange(1, 1, 250)

	uc := NewAdminLogUsecase(source, store, DefaultAdminLogConfig())
	res, err := uc.SyncChat(ctx, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	calls := source.callsFor(1)
	if len(calls) != 3 {
		t.Fatalf("Expected 3 fetches, got %d", len(calls))
	}
	for i, want := range []int{100, 100, 50} {
		if calls[i].returned != want {
			t.Errorf("Fetch %d: expected %d events, got %d", i, want, calls[i].returned)
		}
		if calls[i].minID != 0 {
			t.Errorf("Fetch %d: expected lower bound 0, got %d", i, calls[i].minID)
		}
	}
	if calls[0].maxID != 0 || calls[1].maxID != 151 || calls[2].maxID != 51 {
		t.Errorf("Unexpected upper bounds: %d, %d, %d", calls[0].maxID, calls[1].maxID, calls[2].maxID)
	}

	ids := store.adminIDs(1)
	if len(ids) != 250 {
		t.Fatalf("Expected 250 rows, got %d", len(ids))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("Expected each event exactly once, position %d has %d", i, id)
		}
	}

	if res.Inserted != 250 || res.Watermark != 0 || res.NewWatermark != 250 {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestAdminLog_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	source := newMockAdminSource()
	source.addRange(1, 1, 120)
	uc := NewAdminLogUsecase(source, store, DefaultAdminLogConfig())

	if _, err := uc.SyncChat(ctx, 1); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	res, err := uc.SyncChat(ctx, 1)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if res.Inserted != 0 {
		t.Errorf("Expected second run to insert nothing, got %d", res.Inserted)
	}
	if res.Watermark != 120 {
		t.Errorf("Expected watermark 120, got %d", res.Watermark)
	}
	if n := store.count(domain.TableAdminActions); n != 120 {
		t.Errorf("Expected 120 rows, got %d", n)
	}
}

func TestAdminLog_ResumesFromWatermark(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	for id := int64(1); id <= 150; id++ {
		store.WriteBatch(ctx, domain.TableAdminActions, []domain.Row{domain.AdminAction{ChatID: 1, EventID: id}})
	}
	source := newMockAdminSource()
	source.addRange(1, 1, 200)

	uc := NewAdminLogUsecase(source, store, DefaultAdminLogConfig())
	res, err := uc.SyncChat(ctx, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Inserted != 50 {
		t.Errorf("Expected 50 new rows, got %d", res.Inserted)
	}

	ids := store.adminIDs(1)
	seen := make(map[int64]int)
	for _, id := range ids {
		seen[id]++
	}
	for id := int64(1); id <= 200; id++ {
		if seen[id] != 1 {
			t.Errorf("Expected event %d stored once, got %d", id, seen[id])
		}
	}
	if calls := source.callsFor(1); calls[0].minID != 150 {
		t.Errorf("Expected lower bound 150, got %d", calls[0].minID)
	}
}

func TestAdminLog_PerChatErrorIsolation(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	source := newMockAdminSource()
	source.addRange(1, 1, 10)
	source.addRange(3, 1, 5)
	source.errs[2] = errors.New("channel private")

	uc := NewAdminLogUsecase(source, store, DefaultAdminLogConfig())
	results := uc.SyncAll(ctx, []int64{1, 2, 3})

	if len(results) != 2 {
		t.Fatalf("Expected 2 successful chats, got %d", len(results))
	}
	if len(store.adminIDs(1)) != 10 || len(store.adminIDs(3)) != 5 {
		t.Errorf("Expected chats 1 and 3 synced, got %d and %d rows", len(store.adminIDs(1)), len(store.adminIDs(3)))
	}
}

func TestAdminLog_InsertFailureAbortsChat(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	store.failErr = errStore
	source := newMockAdminSource()
	source.addRange(1, 1, 10)

	uc := NewAdminLogUsecase(source, store, DefaultAdminLogConfig())
	if _, err := uc.SyncChat(ctx, 1); !errors.Is(err, errStore) {
		t.Errorf("Expected store error, got %v", err)
	}
}

func TestAdminLog_RejectsEventsAtWatermark(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	source := newMockAdminSource()
	source.addRange(1, 1, 10)

	uc := NewAdminLogUsecase(source, store, DefaultAdminLogConfig())
	if _, err := uc.SyncChat(ctx, 1); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	source.addRange(1, 11, 12)
	source.ignoreMin = true
	res, err := uc.SyncChat(ctx, 1)
	if err == nil {
		t.Fatal("Expected error for events at or below the watermark")
	}
	if res.Inserted != 0 {
		t.Errorf("Expected nothing inserted, got %d", res.Inserted)
	}
	if n := len(store.adminIDs(1)); n != 10 {
		t.Errorf("Expected 10 stored events, got %d", n)
	}
}

func TestAdminLog_SkipsWhileRunning(t *testing.T) {
	uc := NewAdminLogUsecase(newMockAdminSource(), newMockLogRepo(), AdminLogConfig{})
	if uc.config.PageSize != 100 {
		t.Errorf("Expected default page size 100, got %d", uc.config.PageSize)
	}

	if !uc.acquire(7) {
		t.Fatal("Expected first acquire to succeed")
	}
	if _, err := uc.SyncChat(context.Background(), 7); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("Expected ErrSyncInProgress, got %v", err)
	}
	uc.release(7)
	if _, err := uc.SyncChat(context.Background(), 7); err != nil {
		t.Errorf("Expected sync after release to succeed, got %v", err)
	}
}

func TestAdminLog_CustomPageSize(t *testing.T) {
	store := newMockLogRepo()
	source := newMockAdminSource()
	source.addRange(1, 1, 25)

	uc := NewAdminLogUsecase(source, store, AdminLogConfig{PageSize: 10})
	if _, err := uc.SyncChat(context.Background(), 1); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls := source.callsFor(1); len(calls) != 3 {
		t.Errorf("Expected 3 fetches of 10/10/5, got %d", len(calls))
	}
	if n := store.count(domain.TableAdminActions); n != 25 {
		t.Errorf("Expected 25 rows, got %d", n)
	}
}
