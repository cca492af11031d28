package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/logger"
)

// BufferStats is a point-in-time view of a buffer
type BufferStats struct {
	Table     string    `json:"table"`
	Pending   int       `json:"pending"`
	InFlight  int       `json:"in_flight"`
	Flushed   int64     `json:"flushed"`
	Dropped   int64     `json:"dropped"`
	LastFlush time.Time `json:"last_flush"`
}

// Flusher is the type-erased view of a buffer used by the flush scheduler
type Flusher interface {
	Table() string
	Flush(ctx context.Context) int
	Stats() BufferStats
}

// Buffer is a write-behind buffer for one destination table. Pushed rows are
// visible to FindLast immediately and stay visible until the flush that
// drained them has finished. A failed flush drops its rows.
type Buffer[T domain.Row] struct {
	table  string
	writer repo.BatchWriter
	log    *log.Logger

	mu        sync.Mutex
	pending   []T
	inFlight  []T
	flushed   int64
	dropped   int64
	lastFlush time.Time

	flushMu sync.Mutex // serializes drains
}

// NewBuffer creates an empty buffer writing to T's table
func NewBuffer[T domain.Row](writer repo.BatchWriter) *Buffer[T] {
	var zero T
	return &Buffer[T]{
		table:  zero.Table(),
		writer: writer,
		log:    logger.For("Buffer").With("table", zero.Table()),
	}
}

// Table returns the destination table name
func (b *Buffer[T]) Table() string {
	return b.table
}

// Push appends a row. It never blocks on I/O.
func (b *Buffer[T]) Push(row T) {
	b.mu.Lock()
	b.pending = append(b.pending, row)
	b.mu.Unlock()
}

// Len returns the number of rows not yet written
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending) + len(b.inFlight)
}

// Flush drains the pending rows into one bulk insert and returns how many
// were written. On error the batch is dropped and 0 is returned.
func (b *Buffer[T]) Flush(ctx context.Context) int {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.inFlight = batch
	b.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	rows := make([]domain.Row, len(batch))
	for i, r := range batch {
		rows[i] = r
	}

	n, err := b.writer.WriteBatch(ctx, b.table, rows)

	b.mu.Lock()
	b.inFlight = nil
	b.lastFlush = time.Now()
	if err != nil {
		b.dropped += int64(len(batch))
	} else {
		b.flushed += int64(n)
	}
	b.mu.Unlock()

	if err != nil {
		b.log.Error("Flush failed, dropping batch", "rows", len(batch), "err", err)
		return 0
	}
	return n
}

// Stats returns counters for monitoring
func (b *Buffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Table:     b.table,
		Pending:   len(b.pending),
		InFlight:  len(b.inFlight),
		Flushed:   b.flushed,
		Dropped:   b.dropped,
		LastFlush: b.lastFlush,
	}
}

// FindLast scans the buffer newest-first and returns the first value pick
// accepts. Rows of an in-progress flush are scanned after pending ones.
func FindLast[T domain.Row, R any](b *Buffer[T], pick func(T) (R, bool)) (R, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.pending) - 1; i >= 0; i-- {
		if v, ok := pick(b.pending[i]); ok {
			return v, true
		}
	}
	for i := len(b.inFlight) - 1; i >= 0; i-- {
		if v, ok := pick(b.inFlight[i]); ok {
			return v, true
		}
	}
	var zero R
	return zero, false
}

// Buffers groups the write-behind buffers of the message handlers
type Buffers struct {
	Incoming *Buffer[domain.IncomingMessage]
	Outgoing *Buffer[domain.OutgoingMessage]
	Edited   *Buffer[domain.EditedMessage]
	Deleted  *Buffer[domain.DeletedMessage]
}

// NewBuffers creates one buffer per message table
func NewBuffers(writer repo.BatchWriter) *Buffers {
	return &Buffers{
		Incoming: NewBuffer[domain.IncomingMessage](writer),
		Outgoing: NewBuffer[domain.OutgoingMessage](writer),
		Edited:   NewBuffer[domain.EditedMessage](writer),
		Deleted:  NewBuffer[domain.DeletedMessage](writer),
	}
}

// All returns the buffers in flush order
func (bs *Buffers) All() []Flusher {
	return []Flusher{bs.Incoming, bs.Outgoing, bs.Edited, bs.Deleted}
}
