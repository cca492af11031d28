package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tgarchive/chatlog/internal/biz/usecase"
)

// Store drivers
const (
	DriverClickHouse = "clickhouse"
	DriverSQLite     = "sqlite"
)

// Config represents application configuration
type Config struct {
	// Durable store
	Store StoreConfig

	// Chat gateway subprocess
	Gateway GatewayConfig

	// Monitored chats and job intervals
	Schedule ScheduleConfig

	// Feishu notifier (optional)
	Feishu FeishuConfig

	// Status API
	API APIConfig

	// Logging
	Log LogConfig

	// Debug mode
	Debug bool
}

// StoreConfig contains store configuration
type StoreConfig struct {
	Driver   string
	URL      string
	User     string
	Password string
	Database string
	Path     string // SQLite file

	missing []string // Required ClickHouse variables that are not set
}

// GatewayConfig contains gateway configuration
type GatewayConfig struct {
	Command []string
	Dir     string
}

// ScheduleConfig contains job configuration
type ScheduleConfig struct {
	ChatIDs          []int64
	FlushInterval    time.Duration
	AdminLogInterval time.Duration
	SessionInterval  time.Duration
	AdminLogPageSize int
}

// FeishuConfig contains Feishu notifier configuration
type FeishuConfig struct {
	AppID        string
	AppSecret    string
	NotifyChatID string
}

// Enabled reports whether deletions and edits should be forwarded to Feishu
func (c *FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.NotifyChatID != ""
}

// APIConfig contains status API configuration
type APIConfig struct {
	Port int
	URL  string // Used by the MCP server to reach the daemon
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string
	TZ    string
}

// LoadFromEnv loads configuration from environment variables on top of the
// YAML tuning file (CHATLOG_CONFIG).
func LoadFromEnv() (*Config, error) {
	tuning, err := LoadTuning(os.Getenv("CHATLOG_CONFIG"))
	if err != nil {
		return nil, err
	}

	// Store
	driver := os.Getenv("STORE_DRIVER")
	if driver == "" {
		driver = DriverClickHouse
	}
	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		homeDir, _ := os.UserHomeDir()
		storePath = filepath.Join(homeDir, ".chatlog", "chatlog.db")
	}

	store := StoreConfig{Driver: driver, Path: storePath}
	for _, v := range []struct {
		name string
		dst  *string
	}{
		{"CLICKHOUSE_URL", &store.URL},
		{"CLICKHOUSE_USER", &store.User},
		{"CLICKHOUSE_PASSWORD", &store.Password},
		{"CLICKHOUSE_DATABASE", &store.Database},
	} {
		val, ok := os.LookupEnv(v.name)
		if !ok {
			store.missing = append(store.missing, v.name)
		}
		*v.dst = val
	}

	// Gateway
	gatewayCmd := strings.Fields(os.Getenv("GATEWAY_COMMAND"))
	if len(gatewayCmd) == 0 {
		gatewayCmd = []string{"tg-gateway"}
	}
	gatewayDir := os.Getenv("GATEWAY_DIR")
	if gatewayDir == "" {
		gatewayDir = "."
	}

	// Schedule
	chatIDs := tuning.AdminLog.Chats
	if val := os.Getenv("TELEGRAM_CHAT_IDS"); val != "" {
		chatIDs = ParseChatIDs(val)
	}

	pageSize := tuning.AdminLog.PageSize
	if val := os.Getenv("ADMIN_LOG_PAGE_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			pageSize = parsed
		}
	}

	// API
	apiPort := 8787
	if val := os.Getenv("API_PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			apiPort = parsed
		}
	}
	apiURL := os.Getenv("CHATLOG_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:" + strconv.Itoa(apiPort)
	}

	return &Config{
		Store: store,
		Gateway: GatewayConfig{
			Command: gatewayCmd,
			Dir:     gatewayDir,
		},
		Schedule: ScheduleConfig{
			ChatIDs:          chatIDs,
			FlushInterval:    envDuration("FLUSH_INTERVAL", tuning.Schedule.FlushInterval),
			AdminLogInterval: envDuration("ADMIN_LOG_INTERVAL", tuning.Schedule.AdminLogInterval),
			SessionInterval:  envDuration("SESSION_INTERVAL", tuning.Schedule.SessionInterval),
			AdminLogPageSize: pageSize,
		},
		Feishu: FeishuConfig{
			AppID:        os.Getenv("FEISHU_APP_ID"),
			AppSecret:    os.Getenv("FEISHU_APP_SECRET"),
			NotifyChatID: os.Getenv("FEISHU_NOTIFY_CHAT_ID"),
		},
		API: APIConfig{
			Port: apiPort,
			URL:  apiURL,
		},
		Log: LogConfig{
			Level: os.Getenv("LOG_LEVEL"),
			TZ:    os.Getenv("TZ"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}, nil
}

// ParseChatIDs parses a comma-separated id list, skipping invalid entries
func ParseChatIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// envDuration reads a Go duration ("10s") or a number of seconds
func envDuration(name string, def time.Duration) time.Duration {
	val := os.Getenv(name)
	if val == "" {
		return def
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// ToAdminLogConfig converts to paginator configuration
func (c *ScheduleConfig) ToAdminLogConfig() usecase.AdminLogConfig {
	return usecase.AdminLogConfig{PageSize: c.AdminLogPageSize}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverClickHouse:
		if len(c.Store.missing) > 0 {
			return &ConfigError{Field: strings.Join(c.Store.missing, "/"), Message: "required"}
		}
	case DriverSQLite:
		if c.Store.Path == "" {
			return &ConfigError{Field: "STORE_PATH", Message: "required"}
		}
	default:
		return &ConfigError{Field: "STORE_DRIVER", Message: "must be clickhouse or sqlite"}
	}

	if c.Schedule.FlushInterval <= 0 || c.Schedule.AdminLogInterval <= 0 || c.Schedule.SessionInterval <= 0 {
		return &ConfigError{Field: "FLUSH_INTERVAL/ADMIN_LOG_INTERVAL/SESSION_INTERVAL", Message: "must be positive"}
	}
	if c.Schedule.AdminLogPageSize < 1 || c.Schedule.AdminLogPageSize > 100 {
		return &ConfigError{Field: "ADMIN_LOG_PAGE_SIZE", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
