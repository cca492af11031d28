package domain

import "time"

// Destination tables
const (
	TableIncoming     = "chats_log"
	TableOutgoing     = "outgoing_log"
	TableEdited       = "edited_log"
	TableDeleted      = "deleted_log"
	TableAdminActions = "admin_actions"
	TableUserSessions = "user_sessions"
)

// Row is one record of a destination table. Columns and Values line up by index.
type Row interface {
	Table() string
	Columns() []string
	Values() []any
}

// MessageKey identifies a message within the platform
type MessageKey struct {
	ChatID    int64
	MessageID int64
}

// IncomingMessage is a message received in a group or channel
type IncomingMessage struct {
	DateTime      time.Time
	Message       string
	ChatTitle     string
	ChatID        int64
	Usernames     []string
	FirstName     string
	LastName      string
	UserID        int64
	MessageID     int64
	ChatUsernames []string
	ReplyTo       int64
	ClientID      int64
}

func (IncomingMessage) Table() string { return TableIncoming }

func (IncomingMessage) Columns() []string {
	return []string{"date_time", "message", "chat_title", "chat_id", "username", "first_name",
		"second_name", "user_id", "message_id", "chat_usernames", "reply_to", "client_id"}
}

func (r IncomingMessage) Values() []any {
	return []any{r.DateTime, r.Message, r.ChatTitle, r.ChatID, strs(r.Usernames), r.FirstName,
		r.LastName, r.UserID, r.MessageID, strs(r.ChatUsernames), r.ReplyTo, r.ClientID}
}

// Key returns the message identity
func (r IncomingMessage) Key() MessageKey { return MessageKey{r.ChatID, r.MessageID} }

// OutgoingMessage is a message sent by the logged-in account
type OutgoingMessage struct {
	DateTime      time.Time
	Message       string
	ChatTitle     string
	ChatID        int64
	MessageID     int64
	ChatUsernames []string
	Raw           string
	ReplyTo       int64
	TopicID       int64
	TopicName     string
	ClientID      int64
}

func (OutgoingMessage) Table() string { return TableOutgoing }

func (OutgoingMessage) Columns() []string {
	return []string{"date_time", "message", "chat_title", "chat_id", "message_id", "chat_usernames",
		"raw", "reply_to", "topic_id", "topic_name", "client_id"}
}

func (r OutgoingMessage) Values() []any {
	return []any{r.DateTime, r.Message, r.ChatTitle, r.ChatID, r.MessageID, strs(r.ChatUsernames),
		r.Raw, r.ReplyTo, r.TopicID, r.TopicName, r.ClientID}
}

// Key returns the message identity
func (r OutgoingMessage) Key() MessageKey { return MessageKey{r.ChatID, r.MessageID} }

// EditedMessage records one edit of a message together with its diff
type EditedMessage struct {
	DateTime        time.Time
	ChatID          int64
	MessageID       int64
	OriginalMessage string
	Message         string
	Diff            string
	UserID          int64
	ClientID        int64
}

func (EditedMessage) Table() string { return TableEdited }

func (EditedMessage) Columns() []string {
	return []string{"date_time", "chat_id", "message_id", "original_message", "message", "diff",
		"user_id", "client_id"}
}

func (r EditedMessage) Values() []any {
	return []any{r.DateTime, r.ChatID, r.MessageID, r.OriginalMessage, r.Message, r.Diff,
		r.UserID, r.ClientID}
}

// Key returns the message identity
func (r EditedMessage) Key() MessageKey { return MessageKey{r.ChatID, r.MessageID} }

// DeletedMessage records a channel message deletion
type DeletedMessage struct {
	DateTime  time.Time
	ChatID    int64
	MessageID int64
	ClientID  int64
}

func (DeletedMessage) Table() string { return TableDeleted }

func (DeletedMessage) Columns() []string {
	return []string{"date_time", "chat_id", "message_id", "client_id"}
}

func (r DeletedMessage) Values() []any {
	return []any{r.DateTime, r.ChatID, r.MessageID, r.ClientID}
}

// Key returns the message identity
func (r DeletedMessage) Key() MessageKey { return MessageKey{r.ChatID, r.MessageID} }

// AdminAction is one audit-log event of a monitored chat
type AdminAction struct {
	Date          time.Time
	EventID       int64
	ChatID        int64
	ActionType    string
	UserID        int64
	Message       string // Raw action payload as JSON
	LogOutput     string
	Usernames     []string
	ChatUsernames []string
	ChatTitle     string
	UserTitle     string
}

func (AdminAction) Table() string { return TableAdminActions }

func (AdminAction) Columns() []string {
	return []string{"date", "event_id", "chat_id", "action_type", "user_id", "message", "log_output",
		"usernames", "chat_usernames", "chat_title", "user_title"}
}

func (r AdminAction) Values() []any {
	return []any{r.Date, r.EventID, r.ChatID, r.ActionType, r.UserID, r.Message, r.LogOutput,
		strs(r.Usernames), strs(r.ChatUsernames), r.ChatTitle, r.UserTitle}
}

// UserSession is a snapshot of one authorized session of the account
type UserSession struct {
	Hash          int64
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
	UpdatedAt     time.Time
	ClientID      int64
}

func (UserSession) Table() string { return TableUserSessions }

func (UserSession) Columns() []string {
	return []string{"hash", "device_model", "platform", "system_version", "app_name", "app_version",
		"ip", "country", "region", "date_created", "date_active", "updated_at", "client_id"}
}

func (r UserSession) Values() []any {
	return []any{r.Hash, r.DeviceModel, r.Platform, r.SystemVersion, r.AppName, r.AppVersion,
		r.IP, r.Country, r.Region, r.DateCreated, r.DateActive, r.UpdatedAt, r.ClientID}
}

// strs keeps array columns non-nil so drivers never see a typed nil slice
func strs(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
