package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/logger"
)

// messageLogRepo implements the message log on database/sql
type messageLogRepo struct {
	db      *sql.DB
	dialect dialect
}

// NewClickHouseRepo connects to ClickHouse
func NewClickHouseRepo(ctx context.Context, rawURL, user, password, database string) (repo.MessageLogRepo, error) {
	opts, err := clickHouseOptions(rawURL, user, password, database)
	if err != nil {
		return nil, err
	}

	db := clickhouse.OpenDB(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	logger.For("Store").Info("Connected", "driver", "clickhouse", "addr", opts.Addr[0], "database", opts.Auth.Database)
	return &messageLogRepo{db: db, dialect: clickHouseDialect}, nil
}

// NewSQLiteRepo opens (or creates) a SQLite message log
func NewSQLiteRepo(ctx context.Context, dbPath string) (repo.MessageLogRepo, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection avoids SQLITE_BUSY between concurrent flushes
	db.SetMaxOpenConns(1)

	r := &messageLogRepo{db: db, dialect: sqliteDialect}
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.For("Store").Info("Connected", "driver", "sqlite", "path", dbPath)
	return r, nil
}

// WriteBatch inserts rows inside one transaction
func (r *messageLogRepo) WriteBatch(ctx context.Context, table string, rows []domain.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, row := range rows {
		if row.Table() != table {
			return 0, fmt.Errorf("row for %s in batch for %s", row.Table(), table)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin batch for %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, r.dialect.insertSQL(table, rows[0].Columns()))
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to prepare batch for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, r.dialect.args(row)...); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to append row to %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to send batch for %s: %w", table, err)
	}
	return len(rows), nil
}

func (r *messageLogRepo) lastText(ctx context.Context, query string, args ...any) (string, bool, error) {
	var text string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query message log: %w", err)
	}
	return text, true, nil
}

// LastEditedText returns the newest non-empty edit of a message
func (r *messageLogRepo) LastEditedText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	query := `SELECT message FROM edited_log
		WHERE chat_id = ? AND message_id = ? AND message != ''
		ORDER BY ` + r.dialect.latest + ` LIMIT 1`
	return r.lastText(ctx, query, key.ChatID, key.MessageID)
}

// LastIncomingText returns the newest logged text of a received message
func (r *messageLogRepo) LastIncomingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	query := `SELECT message FROM chats_log
		WHERE chat_id = ? AND message_id = ?
		ORDER BY ` + r.dialect.latest + ` LIMIT 1`
	return r.lastText(ctx, query, key.ChatID, key.MessageID)
}

// LastOutgoingText returns the newest logged text of a sent message
func (r *messageLogRepo) LastOutgoingText(ctx context.Context, key domain.MessageKey) (string, bool, error) {
	query := `SELECT message FROM outgoing_log
		WHERE chat_id = ? AND message_id = ?
		ORDER BY ` + r.dialect.latest + ` LIMIT 1`
	return r.lastText(ctx, query, key.ChatID, key.MessageID)
}

// LastChatTitle returns the newest non-empty chat title
func (r *messageLogRepo) LastChatTitle(ctx context.Context, chatID int64) (string, bool, error) {
	query := `SELECT chat_title FROM chats_log
		WHERE chat_id = ? AND chat_title != ''
		ORDER BY ` + r.dialect.latest + ` LIMIT 1`
	return r.lastText(ctx, query, chatID)
}

// MaxAdminEventID returns the audit-log watermark of a chat
func (r *messageLogRepo) MaxAdminEventID(ctx context.Context, chatID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT coalesce(max(event_id), 0) FROM admin_actions WHERE chat_id = ?`, chatID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to query admin log watermark: %w", err)
	}
	return id, nil
}

// EnsureSchema creates missing tables and indexes
func (r *messageLogRepo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s schema: %w", r.dialect.name, err)
		}
	}
	return nil
}

// Close closes the database
func (r *messageLogRepo) Close() error {
	return r.db.Close()
}
