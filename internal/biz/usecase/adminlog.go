package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/logger"
)

// ErrSyncInProgress is returned when a chat is already being synced
var ErrSyncInProgress = errors.New("admin log sync already in progress")

// AdminLogConfig contains paginator configuration
type AdminLogConfig struct {
	PageSize int // Events per request, default 100
}

// DefaultAdminLogConfig returns default paginator configuration
func DefaultAdminLogConfig() AdminLogConfig {
	return AdminLogConfig{PageSize: 100}
}

// SyncResult summarizes one sync of one chat
type SyncResult struct {
	ChatID       int64 `json:"chat_id"`
	Watermark    int64 `json:"watermark"`     // Highest stored event id before the run
	NewWatermark int64 `json:"new_watermark"` // Highest event id seen in the run
	Fetches      int   `json:"fetches"`
	Inserted     int   `json:"inserted"`
}

// AdminLogUsecase copies audit-log events newer than the stored watermark
// into the store, walking pages from newest to oldest.
type AdminLogUsecase struct {
	source  repo.AdminLogSource
	logRepo repo.MessageLogRepo
	config  AdminLogConfig
	log     *log.Logger

	mu      sync.Mutex
	running map[int64]bool
}

// NewAdminLogUsecase creates a new admin log usecase
func NewAdminLogUsecase(source repo.AdminLogSource, logRepo repo.MessageLogRepo, config AdminLogConfig) *AdminLogUsecase {
	if config.PageSize <= 0 {
		config.PageSize = DefaultAdminLogConfig().PageSize
	}
	return &AdminLogUsecase{
		source:  source,
		logRepo: logRepo,
		config:  config,
		log:     logger.For("AdminLog"),
		running: make(map[int64]bool),
	}
}

// Watermark returns the highest stored event id of a chat
func (uc *AdminLogUsecase) Watermark(ctx context.Context, chatID int64) (int64, error) {
	return uc.logRepo.MaxAdminEventID(ctx, chatID)
}

// SyncChat fetches and stores every event of chatID above the watermark.
// Pages already inserted stay inserted when a later page fails; the next
// run resumes from the new watermark.
func (uc *AdminLogUsecase) SyncChat(ctx context.Context, chatID int64) (*SyncResult, error) {
	if !uc.acquire(chatID) {
		return nil, ErrSyncInProgress
	}
	defer uc.release(chatID)

	lower, err := uc.logRepo.MaxAdminEventID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to read watermark: %w", err)
	}

	result := &SyncResult{ChatID: chatID, Watermark: lower, NewWatermark: lower}
	var upper int64 // 0 = unbounded

	for {
		page, err := uc.source.AdminLog(ctx, chatID, lower, upper, uc.config.PageSize)
		if err != nil {
			return result, fmt.Errorf("failed to fetch admin log: %w", err)
		}
		result.Fetches++

		if len(page.Events) == 0 {
			break
		}

		batchMin, batchMax := page.IDRange()
		if upper != 0 && batchMax >= upper {
			return result, fmt.Errorf("gateway returned events at or above max_id %d", upper)
		}
		if batchMin <= lower {
			return result, fmt.Errorf("gateway returned events at or below min_id %d", lower)
		}

		actions := page.Rows(chatID)
		rows := make([]domain.Row, len(actions))
		for i, a := range actions {
			rows[i] = a
		}
		n, err := uc.logRepo.WriteBatch(ctx, domain.TableAdminActions, rows)
		if err != nil {
			return result, fmt.Errorf("failed to insert admin actions: %w", err)
		}
		result.Inserted += n

		if result.Fetches == 1 {
			result.NewWatermark = batchMax
		}

		if len(page.Events) < uc.config.PageSize {
			break
		}
		upper = batchMin
	}

	if result.Inserted > 0 {
		uc.log.Info("Admin actions stored", "chat", chatID, "inserted", result.Inserted,
			"from", result.Watermark, "to", result.NewWatermark)
	}
	return result, nil
}

// SyncAll syncs each chat in turn. A failing chat is logged and skipped.
func (uc *AdminLogUsecase) SyncAll(ctx context.Context, chatIDs []int64) []*SyncResult {
	var results []*SyncResult
	for _, chatID := range chatIDs {
		if ctx.Err() != nil {
			break
		}
		res, err := uc.SyncChat(ctx, chatID)
		if err != nil {
			if errors.Is(err, ErrSyncInProgress) {
				uc.log.Debug("Sync still running, skipping", "chat", chatID)
			} else {
				uc.log.Error("Admin log sync failed", "chat", chatID, "err", err)
			}
			continue
		}
		results = append(results, res)
	}
	return results
}

func (uc *AdminLogUsecase) acquire(chatID int64) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.running[chatID] {
		return false
	}
	uc.running[chatID] = true
	return true
}

func (uc *AdminLogUsecase) release(chatID int64) {
	uc.mu.Lock()
	delete(uc.running, chatID)
	uc.mu.Unlock()
}
