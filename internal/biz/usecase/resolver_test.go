package usecase

import (
	"context"
	"testing"

	"github.com/tgarchive/chatlog/internal/biz/domain"
)

var testKey = domain.MessageKey{ChatID: 100, MessageID: 5}

func edited(k domain.MessageKey, text string) domain.EditedMessage {
	return domain.EditedMessage{ChatID: k.ChatID, MessageID: k.MessageID, Message: text}
}

func TestResolver_Precedence(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	buffers := NewBuffers(store)
	r := NewResolver(buffers, store)

	if _, ok := r.Resolve(ctx, testKey); ok {
		t.Fatal("Expected not found on empty sources")
	}
	if got := r.ResolveOrID(ctx, testKey); got != "5" {
		t.Errorf("Expected numeric placeholder '5', got %q", got)
	}

	// Incoming buffer is the last resort
	buffers.Incoming.Push(incoming(testKey.ChatID, testKey.MessageID, "buffered original"))
	assertResolution(t, r, "buffered original", SourceIncomingBuffer)

	// Stored incoming beats the incoming buffer
	store.WriteBatch(ctx, domain.TableIncoming, []domain.Row{incoming(testKey.ChatID, testKey.MessageID, "stored original")})
	assertResolution(t, r, "stored original", SourceIncomingStore)

	// Stored edit beats stored incoming
	store.WriteBatch(ctx, domain.TableEdited, []domain.Row{edited(testKey, "stored edit")})
	assertResolution(t, r, "stored edit", SourceEditStore)

	// Buffered edit beats everything
	buffers.Edited.Push(edited(testKey, "buffered edit"))
	assertResolution(t, r, "buffered edit", SourceEditBuffer)
}

func TestResolver_EmptyEditFallsThrough(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	buffers := NewBuffers(store)
	r := NewResolver(buffers, store)

	buffers.Edited.Push(edited(testKey, ""))
	store.WriteBatch(ctx, domain.TableIncoming, []domain.Row{incoming(testKey.ChatID, testKey.MessageID, "original")})

	assertResolution(t, r, "original", SourceIncomingStore)
}

func TestResolver_FallsThroughAfterFlush(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	buffers := NewBuffers(store)
	r := NewResolver(buffers, store)

	buffers.Edited.Push(edited(testKey, "edit"))
	assertResolution(t, r, "edit", SourceEditBuffer)

	if n := buffers.Edited.Flush(ctx); n != 1 {
		t.Fatalf("Expected 1 row flushed, got %d", n)
	}
	assertResolution(t, r, "edit", SourceEditStore)
}

func TestResolver_StoreErrorIsAMiss(t *testing.T) {
	store := newMockLogRepo()
	buffers := NewBuffers(store)
	r := NewResolver(buffers, store)

	buffers.Incoming.Push(incoming(testKey.ChatID, testKey.MessageID, "buffered"))
	store.lookErr = errStore

	assertResolution(t, r, "buffered", SourceIncomingBuffer)

	if got := r.ChatTitle(context.Background(), 42); got != "42" {
		t.Errorf("Expected id fallback for chat title, got %q", got)
	}
}

func TestResolver_ReplyText(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	buffers := NewBuffers(store)
	r := NewResolver(buffers, store)

	store.WriteBatch(ctx, domain.TableOutgoing, []domain.Row{domain.OutgoingMessage{
		ChatID: testKey.ChatID, MessageID: testKey.MessageID, Message: "my own message",
	}})
	res, ok := r.ReplyText(ctx, testKey)
	if !ok || res.Source != SourceOutgoingStore {
		t.Fatalf("Expected outgoing store hit, got %+v (found=%v)", res, ok)
	}

	buffers.Incoming.Push(incoming(testKey.ChatID, testKey.MessageID, "someone else"))
	res, _ = r.ReplyText(ctx, testKey)
	if res.Text != "someone else" || res.Source != SourceIncomingBuffer {
		t.Errorf("Expected incoming buffer to win, got %+v", res)
	}
}

func TestResolver_ReplyPart(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	buffers := NewBuffers(store)
	r := NewResolver(buffers, store)

	msg := &domain.Message{ChatID: 100, ID: 9}
	if part := r.ReplyPart(ctx, msg, 5); part != "" {
		t.Errorf("Expected empty part for non-reply, got %q", part)
	}

	msg.ReplyTo = &domain.ReplyHeader{MessageID: 5}
	if part := r.ReplyPart(ctx, msg, 5); part != " reply to 5" {
		t.Errorf("Expected bare reply part, got %q", part)
	}

	buffers.Incoming.Push(incoming(100, 5, "hello world"))
	if part := r.ReplyPart(ctx, msg, 5); part != " reply to 5 «hello…»" {
		t.Errorf("Expected preview, got %q", part)
	}
}

func TestResolver_ChatTitle(t *testing.T) {
	ctx := context.Background()
	store := newMockLogRepo()
	buffers := NewBuffers(store)
	r := NewResolver(buffers, store)

	if got := r.ChatTitle(ctx, 100); got != "100" {
		t.Errorf("Expected id fallback, got %q", got)
	}

	row := incoming(100, 1, "x")
	row.ChatTitle = "Stored Title"
	store.WriteBatch(ctx, domain.TableIncoming, []domain.Row{row})
	if got := r.ChatTitle(ctx, 100); got != "Stored Title" {
		t.Errorf("Expected stored title, got %q", got)
	}

	row.ChatTitle = "Renamed"
	buffers.Incoming.Push(row)
	if got := r.ChatTitle(ctx, 100); got != "Renamed" {
		t.Errorf("Expected buffered title, got %q", got)
	}
}

func assertResolution(t *testing.T, r *Resolver, text string, source Source) {
	t.Helper()
	res, ok := r.Resolve(context.Background(), testKey)
	if !ok {
		t.Fatalf("Expected %q from %s, got not found", text, source)
	}
	if res.Text != text || res.Source != source {
		t.Errorf("Expected %q from %s, got %q from %s", text, source, res.Text, res.Source)
	}
}
