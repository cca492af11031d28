package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tgarchive/chatlog/internal/logger"
)

// Tuning holds the optional YAML settings. Environment variables override them.
type Tuning struct {
	Schedule ScheduleTuning `yaml:"schedule"`
	AdminLog AdminLogTuning `yaml:"admin_log"`
}

// ScheduleTuning contains job intervals
type ScheduleTuning struct {
	FlushInterval    time.Duration `yaml:"flush_interval"`
	AdminLogInterval time.Duration `yaml:"admin_log_interval"`
	SessionInterval  time.Duration `yaml:"session_interval"`
}

// AdminLogTuning contains paginator settings
type AdminLogTuning struct {
	PageSize int     `yaml:"page_size"`
	Chats    []int64 `yaml:"chats"`
}

// DefaultTuning returns the built-in settings
func DefaultTuning() *Tuning {
	return &Tuning{
		Schedule: ScheduleTuning{
			FlushInterval:    10 * time.Second,
			AdminLogInterval: 60 * time.Second,
			SessionInterval:  60 * time.Second,
		},
		AdminLog: AdminLogTuning{PageSize: 100},
	}
}

// LoadTuning loads tuning from configPath, or from the usual locations when
// configPath is empty. A missing file yields the defaults.
func LoadTuning(configPath string) (*Tuning, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/chatlog.yaml",
			"/etc/chatlog/chatlog.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "chatlog.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		if b, err := os.ReadFile(p); err == nil {
			data, loadedPath = b, p
			break
		}
	}

	log := logger.For("Config")
	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to read %s", configPath)
		}
		log.Debug("No chatlog.yaml found, using defaults")
		return DefaultTuning(), nil
	}

	log.Info("Loading tuning", "path", loadedPath)

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	t.fillDefaults()
	return &t, nil
}

// fillDefaults fills in default values for empty fields
func (t *Tuning) fillDefaults() {
	defaults := DefaultTuning()

	if t.Schedule.FlushInterval == 0 {
		t.Schedule.FlushInterval = defaults.Schedule.FlushInterval
	}
	if t.Schedule.AdminLogInterval == 0 {
		t.Schedule.AdminLogInterval = defaults.Schedule.AdminLogInterval
	}
	if t.Schedule.SessionInterval == 0 {
		t.Schedule.SessionInterval = defaults.Schedule.SessionInterval
	}
	if t.AdminLog.PageSize == 0 {
		t.AdminLog.PageSize = defaults.AdminLog.PageSize
	}
}
