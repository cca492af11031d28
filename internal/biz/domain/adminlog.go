package domain

import (
	"strings"
	"time"
)

// Admin-log action types with dedicated log output
const (
	AdminEditMessage      = "EditMessage"
	AdminDeleteMessage    = "DeleteMessage"
	AdminParticipantJoin  = "ParticipantJoin"
	AdminParticipantLeave = "ParticipantLeave"
)

// AdminLogAction is the action of an audit-log event
type AdminLogAction struct {
	Type string // Action name, e.g. "EditMessage"

	PrevText string // EditMessage
	NewText  string

	DeletedText string // DeleteMessage
	DeletedRaw  string

	Raw string // Whole action payload as JSON
}

// LogOutput renders the action for the log_output column
func (a *AdminLogAction) LogOutput() string {
	switch a.Type {
	case AdminEditMessage:
		return UnifiedDiff(a.PrevText, a.NewText)
	case AdminDeleteMessage:
		if a.DeletedText != "" {
			return a.DeletedText
		}
		return a.DeletedRaw
	case AdminParticipantJoin, AdminParticipantLeave:
		return ""
	default:
		return a.Raw
	}
}

// AdminLogEvent is one audit-log entry
type AdminLogEvent struct {
	ID     int64
	Date   time.Time
	UserID int64
	Action AdminLogAction
}

// AdminLogPage is one page of audit-log events, newest first, with the users
// and chats they reference.
type AdminLogPage struct {
	Events []AdminLogEvent
	Users  []Peer
	Chats  []Peer
}

// IDRange returns the smallest and largest event id of the page
func (p *AdminLogPage) IDRange() (lo, hi int64) {
	for i, ev := range p.Events {
		if i == 0 || ev.ID < lo {
			lo = ev.ID
		}
		if i == 0 || ev.ID > hi {
			hi = ev.ID
		}
	}
	return lo, hi
}

// Rows converts the page into admin_actions rows for chatID
func (p *AdminLogPage) Rows(chatID int64) []AdminAction {
	chat := findPeer(p.Chats, chatID)
	var chatTitle string
	var chatUsernames []string
	if chat != nil {
		chatTitle = chat.Title
		if chat.Type == PeerChannel {
			chatUsernames = chat.AllUsernames()
		}
	}

	rows := make([]AdminAction, 0, len(p.Events))
	for i := range p.Events {
		ev := &p.Events[i]
		var userTitle string
		var usernames []string
		if user := findPeer(p.Users, ev.UserID); user != nil {
			userTitle = strings.TrimSpace(user.FirstName + " " + user.LastName)
			usernames = user.AllUsernames()
		}
		rows = append(rows, AdminAction{
			Date:          ev.Date,
			EventID:       ev.ID,
			ChatID:        chatID,
			ActionType:    ev.Action.Type,
			UserID:        ev.UserID,
			Message:       ev.Action.Raw,
			LogOutput:     ev.Action.LogOutput(),
			Usernames:     usernames,
			ChatUsernames: chatUsernames,
			ChatTitle:     chatTitle,
			UserTitle:     userTitle,
		})
	}
	return rows
}

func findPeer(peers []Peer, id int64) *Peer {
	for i := range peers {
		if peers[i].ID == id {
			return &peers[i]
		}
	}
	return nil
}

// Authorization is one active session of the logged-in account
type Authorization struct {
	Hash          int64
	Current       bool
	DeviceModel   string
	Platform      string
	SystemVersion string
	AppName       string
	AppVersion    string
	IP            string
	Country       string
	Region        string
	DateCreated   time.Time
	DateActive    time.Time
}
