package data

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/tgarchive/chatlog/internal/biz/domain"
)

// dialect captures the differences between the supported SQL backends
type dialect struct {
	name string

	// schema holds idempotent DDL statements
	schema []string

	// latest orders rows newest first
	latest string

	// bind converts a row value into something the driver accepts
	bind func(v any) any

	// values reports whether INSERT statements need an explicit VALUES clause
	values bool
}

func (d dialect) insertSQL(table string, cols []string) string {
	stmt := fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(cols, ", "))
	if !d.values {
		return stmt
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return stmt + " VALUES (" + marks + ")"
}

func (d dialect) args(row domain.Row) []any {
	vals := row.Values()
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = d.bind(v)
	}
	return args
}

var clickHouseDialect = dialect{
	name:   "clickhouse",
	latest: "date_time DESC",
	bind:   func(v any) any { return v },
	schema: []string{
		`CREATE TABLE IF NOT EXISTS chats_log (
			date_time DateTime,
			message String,
			chat_title String,
			chat_id Int64,
			username Array(String),
			first_name String,
			second_name String,
			user_id Int64,
			message_id Int64,
			chat_usernames Array(String),
			reply_to Int64,
			client_id Int64
		) ENGINE = MergeTree ORDER BY (chat_id, message_id, date_time)`,
		`CREATE TABLE IF NOT EXISTS outgoing_log (
			date_time DateTime,
			message String,
			chat_title String,
			chat_id Int64,
			message_id Int64,
			chat_usernames Array(String),
			raw String,
			reply_to Int64,
			topic_id Int64,
			topic_name String,
			client_id Int64
		) ENGINE = MergeTree ORDER BY (chat_id, message_id, date_time)`,
		`CREATE TABLE IF NOT EXISTS edited_log (
			date_time DateTime,
			chat_id Int64,
			message_id Int64,
			original_message String,
			message String,
			diff String,
			user_id Int64,
			client_id Int64
		) ENGINE = MergeTree ORDER BY (chat_id, message_id, date_time)`,
		`CREATE TABLE IF NOT EXISTS deleted_log (
			date_time DateTime,
			chat_id Int64,
			message_id Int64,
			client_id Int64
		) ENGINE = MergeTree ORDER BY (chat_id, message_id, date_time)`,
		`CREATE TABLE IF NOT EXISTS admin_actions (
			date DateTime,
			event_id Int64,
			chat_id Int64,
			action_type String,
			user_id Int64,
			message String,
			log_output String,
			usernames Array(String),
			chat_usernames Array(String),
			chat_title String,
			user_title String
		) ENGINE = MergeTree ORDER BY (chat_id, event_id)`,
		`CREATE TABLE IF NOT EXISTS user_sessions (
			hash Int64,
			device_model String,
			platform String,
			system_version String,
			app_name String,
			app_version String,
			ip String,
			country String,
			region String,
			date_created DateTime,
			date_active DateTime,
			updated_at DateTime,
			client_id Int64
		) ENGINE = ReplacingMergeTree(updated_at) ORDER BY (client_id, hash)`,
	},
}

// SQLite has no array or datetime types: arrays are stored as JSON text and
// times as unix seconds.
var sqliteDialect = dialect{
	name:   "sqlite",
	latest: "date_time DESC, rowid DESC",
	values: true,
	bind:   sqliteBind,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS chats_log (
			date_time INTEGER NOT NULL,
			message TEXT NOT NULL,
			chat_title TEXT NOT NULL,
			chat_id INTEGER NOT NULL,
			username TEXT NOT NULL,
			first_name TEXT NOT NULL,
			second_name TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL,
			chat_usernames TEXT NOT NULL,
			reply_to INTEGER NOT NULL,
			client_id INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_log_key ON chats_log(chat_id, message_id)`,
		`CREATE TABLE IF NOT EXISTS outgoing_log (
			date_time INTEGER NOT NULL,
			message TEXT NOT NULL,
			chat_title TEXT NOT NULL,
			chat_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL,
			chat_usernames TEXT NOT NULL,
			raw TEXT NOT NULL,
			reply_to INTEGER NOT NULL,
			topic_id INTEGER NOT NULL,
			topic_name TEXT NOT NULL,
			client_id INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outgoing_log_key ON outgoing_log(chat_id, message_id)`,
		`CREATE TABLE IF NOT EXISTS edited_log (
			date_time INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL,
			original_message TEXT NOT NULL,
			message TEXT NOT NULL,
			diff TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			client_id INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edited_log_key ON edited_log(chat_id, message_id)`,
		`CREATE TABLE IF NOT EXISTS deleted_log (
			date_time INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL,
			client_id INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admin_actions (
			date INTEGER NOT NULL,
			event_id INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			action_type TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			log_output TEXT NOT NULL,
			usernames TEXT NOT NULL,
			chat_usernames TEXT NOT NULL,
			chat_title TEXT NOT NULL,
			user_title TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_actions_chat ON admin_actions(chat_id, event_id)`,
		`CREATE TABLE IF NOT EXISTS user_sessions (
			hash INTEGER NOT NULL,
			device_model TEXT NOT NULL,
			platform TEXT NOT NULL,
			system_version TEXT NOT NULL,
			app_name TEXT NOT NULL,
			app_version TEXT NOT NULL,
			ip TEXT NOT NULL,
			country TEXT NOT NULL,
			region TEXT NOT NULL,
			date_created INTEGER NOT NULL,
			date_active INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			client_id INTEGER NOT NULL
		)`,
	},
}

func sqliteBind(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.Unix()
	case []string:
		data, _ := json.Marshal(val)
		return string(data)
	default:
		return v
	}
}

// clickHouseOptions turns CLICKHOUSE_URL into driver options. http(s) URLs
// select the HTTP protocol, anything else the native protocol.
func clickHouseOptions(rawURL, user, password, database string) (*clickhouse.Options, error) {
	opts := &clickhouse.Options{
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		Protocol:    clickhouse.Native,
		DialTimeout: 10 * time.Second,
	}

	if !strings.Contains(rawURL, "://") {
		opts.Addr = []string{rawURL}
		return opts, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CLICKHOUSE_URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("CLICKHOUSE_URL has no host: %s", rawURL)
	}
	opts.Addr = []string{u.Host}

	switch u.Scheme {
	case "http":
		opts.Protocol = clickhouse.HTTP
	case "https":
		opts.Protocol = clickhouse.HTTP
		opts.TLS = &tls.Config{ServerName: u.Hostname()}
	case "clickhouse", "tcp":
	case "clickhouses", "tls":
		opts.TLS = &tls.Config{ServerName: u.Hostname()}
	default:
		return nil, fmt.Errorf("unsupported CLICKHOUSE_URL scheme: %s", u.Scheme)
	}

	// A path overrides the database when the variable is empty
	if opts.Auth.Database == "" {
		opts.Auth.Database = strings.Trim(u.Path, "/")
	}
	return opts, nil
}
