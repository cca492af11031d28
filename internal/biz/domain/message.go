package domain

import (
	"strconv"
	"strings"
	"time"
)

// PeerType distinguishes users from basic groups and channels
type PeerType int

const (
	PeerUser PeerType = iota
	PeerGroup
	PeerChannel
)

// Username is one of the collectible usernames of a peer
type Username struct {
	Username string
	Active   bool
}

// Peer represents a user, basic group or channel as reported by the gateway
type Peer struct {
	Type      PeerType
	ID        int64
	Title     string // Groups and channels
	FirstName string // Users
	LastName  string
	Username  string
	Usernames []Username
}

// IsUser returns true for private-chat peers
func (p *Peer) IsUser() bool {
	return p != nil && p.Type == PeerUser
}

// Name returns the display name of the peer, falling back to its numeric id
func (p *Peer) Name() string {
	if p == nil {
		return ""
	}
	if p.Type != PeerUser {
		if p.Title != "" {
			return p.Title
		}
		return strconv.FormatInt(p.ID, 10)
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return strconv.FormatInt(p.ID, 10)
	}
	return name
}

// AllUsernames returns the primary username followed by the active collectible ones
func (p *Peer) AllUsernames() []string {
	if p == nil {
		return nil
	}
	var out []string
	if p.Username != "" {
		out = append(out, p.Username)
	}
	for _, u := range p.Usernames {
		if u.Active && u.Username != p.Username {
			out = append(out, u.Username)
		}
	}
	return out
}

// ReplyHeader describes what a message replies to
type ReplyHeader struct {
	MessageID  int64
	TopID      int64
	ForumTopic bool
}

// TopicID returns the forum topic the message belongs to, or 0
func (r *ReplyHeader) TopicID() int64 {
	if r == nil || !r.ForumTopic {
		return 0
	}
	if r.TopID != 0 {
		return r.TopID
	}
	return r.MessageID
}

// Message represents a chat message delivered by the gateway
type Message struct {
	ID       int64
	ChatID   int64
	Date     time.Time
	Outgoing bool
	Text     string
	Chat     *Peer
	Sender   *Peer
	ReplyTo  *ReplyHeader
	Media    *Media
	Action   *ServiceAction
	Raw      string // Raw gateway payload as JSON
}

// Key returns the (chat, message) identity of the message
func (m *Message) Key() MessageKey {
	return MessageKey{ChatID: m.ChatID, MessageID: m.ID}
}

// ReplyToID returns the id of the replied-to message, or 0
func (m *Message) ReplyToID() int64 {
	if m.ReplyTo == nil {
		return 0
	}
	return m.ReplyTo.MessageID
}

// Content returns the loggable content of the message: text, then a media or
// service-action description, then the raw payload.
func (m *Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	if m.Media != nil {
		return m.Media.Describe()
	}
	if m.Action != nil {
		return m.Action.Describe()
	}
	return m.Raw
}

// Preview truncates s to limit runes, appending an ellipsis when cut
func Preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
