package usecase

import (
	"context"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/logger"
)

type topicKey struct {
	chatID  int64
	topicID int64
}

// TopicCache memoizes forum topic titles for the lifetime of the process.
// Failed lookups are not cached.
type TopicCache struct {
	source repo.TopicSource
	log    *log.Logger

	mu     sync.RWMutex
	titles map[topicKey]string
}

// NewTopicCache creates an empty cache backed by source
func NewTopicCache(source repo.TopicSource) *TopicCache {
	return &TopicCache{
		source: source,
		log:    logger.For("Topics"),
		titles: make(map[topicKey]string),
	}
}

// Title returns the title of a topic, or "topic <id>" if it cannot be resolved
func (c *TopicCache) Title(ctx context.Context, chatID, topicID int64) string {
	key := topicKey{chatID, topicID}

	c.mu.RLock()
	title, ok := c.titles[key]
	c.mu.RUnlock()
	if ok {
		return title
	}

	title, err := c.source.TopicTitle(ctx, chatID, topicID)
	if err != nil || title == "" {
		if err != nil {
			c.log.Warn("Topic lookup failed", "chat", chatID, "topic", topicID, "err", err)
		}
		return "topic " + strconv.FormatInt(topicID, 10)
	}

	c.mu.Lock()
	c.titles[key] = title
	c.mu.Unlock()
	return title
}

// Len returns the number of cached titles
func (c *TopicCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.titles)
}
