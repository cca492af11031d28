package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/repo"
)

// SessionUsecase snapshots the account's authorized sessions
type SessionUsecase struct {
	source repo.SessionSource
	writer repo.BatchWriter
	now    func() time.Time
}

// NewSessionUsecase creates a new session usecase
func NewSessionUsecase(source repo.SessionSource, writer repo.BatchWriter) *SessionUsecase {
	return &SessionUsecase{source: source, writer: writer, now: time.Now}
}

// Snapshot stores every session except the current one and returns the
// number of rows written.
func (uc *SessionUsecase) Snapshot(ctx context.Context, clientID int64) (int, error) {
	auths, err := uc.source.Authorizations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list authorizations: %w", err)
	}

	now := uc.now()
	var rows []domain.Row
	for _, a := range auths {
		if a.Current {
			continue
		}
		rows = append(rows, domain.UserSession{
			Hash:          a.Hash,
			DeviceModel:   a.DeviceModel,
			Platform:      a.Platform,
			SystemVersion: a.SystemVersion,
			AppName:       a.AppName,
			AppVersion:    a.AppVersion,
			IP:            a.IP,
			Country:       a.Country,
			Region:        a.Region,
			DateCreated:   a.DateCreated,
			DateActive:    a.DateActive,
			UpdatedAt:     now,
			ClientID:      clientID,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := uc.writer.WriteBatch(ctx, domain.TableUserSessions, rows)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sessions: %w", err)
	}
	return n, nil
}
