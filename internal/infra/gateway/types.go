package gateway

import "encoding/json"

// Gateway methods
const (
	MethodInitialize        = "initialize"
	MethodInitialized       = "initialized"
	MethodGetAdminLog       = "channels/getAdminLog"
	MethodGetForumTopic     = "messages/getForumTopic"
	MethodGetAuthorizations = "account/getAuthorizations"
)

// Update notifications
const (
	NotifyNewMessage     = "update/newMessage"
	NotifyEditMessage    = "update/editMessage"
	NotifyDeleteMessages = "update/deleteMessages"
)

// ============ JSON-RPC Base Types ============

// Request is a JSON-RPC request
type Request struct {
	ID     int64       `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is a JSON-RPC response
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is a JSON-RPC notification from the gateway
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ============ Handshake ============

// ClientInfo identifies this process to the gateway
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is sent with initialize
type InitializeParams struct {
	ClientInfo ClientInfo `json:"clientInfo"`
}

// InitializeResult carries the logged-in account
type InitializeResult struct {
	SelfID  int64  `json:"self_id"`
	Version string `json:"version,omitempty"`
}

// ============ Platform Objects ============

// Username is one of the public usernames of a peer
type Username struct {
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// Peer is a user, group or channel. Type is "user", "group" or "channel".
type Peer struct {
	Type      string     `json:"type"`
	ID        int64      `json:"id"`
	Title     string     `json:"title,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Username  string     `json:"username,omitempty"`
	Usernames []Username `json:"usernames,omitempty"`
}

// ReplyHeader describes what a message replies to
type ReplyHeader struct {
	MessageID  int64 `json:"reply_to_msg_id"`
	TopID      int64 `json:"reply_to_top_id,omitempty"`
	ForumTopic bool  `json:"forum_topic,omitempty"`
}

// DocumentAttribute describes a document. Type is "filename", "sticker",
// "audio" or "video"; others are passed through and ignored.
type DocumentAttribute struct {
	Type         string  `json:"type"`
	FileName     string  `json:"file_name,omitempty"`
	Alt          string  `json:"alt,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Voice        bool    `json:"voice,omitempty"`
	RoundMessage bool    `json:"round_message,omitempty"`
	NoSound      bool    `json:"nosound,omitempty"`
	Title        string  `json:"title,omitempty"`
	Performer    string  `json:"performer,omitempty"`
}

// Document is a file attached to a message
type Document struct {
	MimeType   string              `json:"mime_type,omitempty"`
	Attributes []DocumentAttribute `json:"attributes,omitempty"`
}

// GeoPoint is a location
type GeoPoint struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Media is the attachment of a message. Type is the lowerCamel media name,
// e.g. "photo", "document", "geoLive", "giveawayResults".
type Media struct {
	Type      string    `json:"type"`
	Spoiler   bool      `json:"spoiler,omitempty"`
	Document  *Document `json:"document,omitempty"`
	Geo       *GeoPoint `json:"geo,omitempty"`
	Title     string    `json:"title,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone_number,omitempty"`
	Question  string    `json:"question,omitempty"`
	Quiz      bool      `json:"quiz,omitempty"`
	Emoticon  string    `json:"emoticon,omitempty"`
	Value     int       `json:"value,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Stars     int64     `json:"stars_amount,omitempty"`
}

// Action is the payload of a service message
type Action struct {
	Type           string  `json:"type"`
	Title          string  `json:"title,omitempty"`
	Users          []int64 `json:"users,omitempty"`
	UserID         int64   `json:"user_id,omitempty"`
	ChannelID      int64   `json:"channel_id,omitempty"`
	ChatID         int64   `json:"chat_id,omitempty"`
	Message        string  `json:"message,omitempty"`
	Score          int     `json:"score,omitempty"`
	GameID         int64   `json:"game_id,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	TotalAmount    int64   `json:"total_amount,omitempty"`
	Stars          int64   `json:"stars,omitempty"`
	Days           int     `json:"days,omitempty"`
	Boosts         int     `json:"boosts,omitempty"`
	Distance       int     `json:"distance,omitempty"`
	Period         int     `json:"period,omitempty"`
	WinnersCount   int     `json:"winners_count,omitempty"`
	UnclaimedCount int     `json:"unclaimed_count,omitempty"`
	Video          bool    `json:"video,omitempty"`
	ForBoth        bool    `json:"for_both,omitempty"`
	Duration       *int    `json:"duration,omitempty"`
	Closed         *bool   `json:"closed,omitempty"`
	Hidden         *bool   `json:"hidden,omitempty"`
	ScheduleDate   int64   `json:"schedule_date,omitempty"`
}

// Message is a chat message
type Message struct {
	ID      int64        `json:"id"`
	ChatID  int64        `json:"chat_id"`
	Date    int64        `json:"date"`
	Out     bool         `json:"out,omitempty"`
	Text    string       `json:"message,omitempty"`
	Chat    *Peer        `json:"chat,omitempty"`
	Sender  *Peer        `json:"sender,omitempty"`
	ReplyTo *ReplyHeader `json:"reply_to,omitempty"`
	Media   *Media       `json:"media,omitempty"`
	Action  *Action      `json:"action,omitempty"`
}

// ============ Update Notifications ============

// MessageParams is the payload of update/newMessage and update/editMessage
type MessageParams struct {
	Message json.RawMessage `json:"message"`
}

// DeleteMessagesParams is the payload of update/deleteMessages. ChannelID is
// zero for private chats and basic groups.
type DeleteMessagesParams struct {
	ChannelID  int64   `json:"channel_id,omitempty"`
	MessageIDs []int64 `json:"message_ids"`
	Date       int64   `json:"date,omitempty"`
}

// ============ Requests ============

// AdminLogParams requests a page of a chat's admin log
type AdminLogParams struct {
	ChannelID int64 `json:"channel_id"`
	MinID     int64 `json:"min_id"`
	MaxID     int64 `json:"max_id"`
	Limit     int   `json:"limit"`
}

// AdminLogAction is the action of an admin log event
type AdminLogAction struct {
	Type        string   `json:"type"`
	PrevMessage *Message `json:"prev_message,omitempty"`
	NewMessage  *Message `json:"new_message,omitempty"`
	Message     *Message `json:"message,omitempty"`
}

// AdminLogEvent is one admin log entry
type AdminLogEvent struct {
	ID     int64           `json:"id"`
	Date   int64           `json:"date"`
	UserID int64           `json:"user_id"`
	Action json.RawMessage `json:"action"`
}

// AdminLogResult is a page of admin log events, newest first
type AdminLogResult struct {
	Events []AdminLogEvent `json:"events"`
	Users  []Peer          `json:"users,omitempty"`
	Chats  []Peer          `json:"chats,omitempty"`
}

// ForumTopicParams requests a forum topic
type ForumTopicParams struct {
	ChatID  int64 `json:"chat_id"`
	TopicID int64 `json:"topic_id"`
}

// ForumTopic is a topic of a forum chat
type ForumTopic struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Authorization is an authorized session of the account
type Authorization struct {
	Hash          int64  `json:"hash"`
	Current       bool   `json:"current,omitempty"`
	DeviceModel   string `json:"device_model"`
	Platform      string `json:"platform"`
	SystemVersion string `json:"system_version"`
	AppName       string `json:"app_name"`
	AppVersion    string `json:"app_version"`
	IP            string `json:"ip"`
	Country       string `json:"country"`
	Region        string `json:"region"`
	DateCreated   int64  `json:"date_created"`
	DateActive    int64  `json:"date_active"`
}

// AuthorizationsResult lists the sessions of the account
type AuthorizationsResult struct {
	Authorizations []Authorization `json:"authorizations"`
}
