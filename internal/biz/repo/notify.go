package repo

import "context"

// Notifier forwards notable changes to a chat outside the logged platform
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
