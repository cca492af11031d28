package data

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/infra/gateway"
	"github.com/tgarchive/chatlog/internal/logger"
)

func newTestGatewayRepo() *gatewayRepo {
	return &gatewayRepo{
		eventsCh: make(chan domain.Event, 10),
		log:      logger.For("Gateway"),
	}
}

func TestConvertEvent_NewMessage(t *testing.T) {
	r := newTestGatewayRepo()

	raw := `{"id":5,"chat_id":-1001,"date":1700000000,"message":"hi there",` +
		`"chat":{"type":"channel","id":-1001,"title":"News","username":"news"},` +
		`"sender":{"type":"user","id":7,"first_name":"Ann","usernames":[{"username":"ann","active":true}]},` +
		`"reply_to":{"reply_to_msg_id":3,"reply_to_top_id":2,"forum_topic":true}}`
	params, _ := json.Marshal(gateway.MessageParams{Message: json.RawMessage(raw)})

	result := r.convertEvent(gateway.Event{Method: gateway.NotifyNewMessage, Params: params})

	ev, ok := result.(*domain.NewMessage)
	if !ok {
		t.Fatalf("Expected *domain.NewMessage, got %T", result)
	}
	msg := ev.Message
	if msg.ID != 5 || msg.ChatID != -1001 {
		t.Errorf("Expected message -1001/5, got %d/%d", msg.ChatID, msg.ID)
	}
	if msg.Text != "hi there" {
		t.Errorf("Expected text 'hi there', got '%s'", msg.Text)
	}
	if msg.Chat == nil || msg.Chat.Type != domain.PeerChannel || msg.Chat.Title != "News" {
		t.Errorf("Unexpected chat: %+v", msg.Chat)
	}
	if msg.Sender == nil || msg.Sender.Name() != "Ann" {
		t.Errorf("Unexpected sender: %+v", msg.Sender)
	}
	if got := msg.Sender.AllUsernames(); len(got) != 1 || got[0] != "ann" {
		t.Errorf("Expected [ann], got %v", got)
	}
	if msg.ReplyToID() != 3 || msg.ReplyTo.TopicID() != 2 {
		t.Errorf("Unexpected reply header: %+v", msg.ReplyTo)
	}
	if msg.Date.Unix() != 1700000000 {
		t.Errorf("Expected date 1700000000, got %d", msg.Date.Unix())
	}
	if msg.Raw != raw {
		t.Errorf("Expected raw JSON to be kept, got %s", msg.Raw)
	}
}

func TestConvertEvent_EditMessage(t *testing.T) {
	r := newTestGatewayRepo()

	params, _ := json.Marshal(map[string]any{"message": gateway.Message{ID: 9, ChatID: 1, Text: "v2", Out: true}})
	result := r.convertEvent(gateway.Event{Method: gateway.NotifyEditMessage, Params: params})

	ev, ok := result.(*domain.MessageEdited)
	if !ok {
		t.Fatalf("Expected *domain.MessageEdited, got %T", result)
	}
	if !ev.Message.Outgoing || ev.Message.Text != "v2" {
		t.Errorf("Unexpected message: %+v", ev.Message)
	}
}

func TestConvertEvent_DeleteMessages(t *testing.T) {
	r := newTestGatewayRepo()

	params, _ := json.Marshal(gateway.DeleteMessagesParams{ChannelID: -1002, MessageIDs: []int64{4, 5}, Date: 1700000000})
	result := r.convertEvent(gateway.Event{Method: gateway.NotifyDeleteMessages, Params: params})

	ev, ok := result.(*domain.MessagesDeleted)
	if !ok {
		t.Fatalf("Expected *domain.MessagesDeleted, got %T", result)
	}
	if ev.ChannelID != -1002 || len(ev.MessageIDs) != 2 {
		t.Errorf("Unexpected deletion: %+v", ev)
	}
	if ev.Date.Unix() != 1700000000 {
		t.Errorf("Expected date from payload, got %v", ev.Date)
	}
}

func TestConvertEvent_Unknown(t *testing.T) {
	r := newTestGatewayRepo()

	if result := r.convertEvent(gateway.Event{Method: "update/userStatus"}); result != nil {
		t.Errorf("Expected nil for unknown method, got %T", result)
	}
	if result := r.convertEvent(gateway.Event{Method: gateway.NotifyNewMessage, Params: []byte(`{"message":5}`)}); result != nil {
		t.Errorf("Expected nil for malformed message, got %T", result)
	}
}

func TestToDomainMedia(t *testing.T) {
	media := toDomainMedia(&gateway.Media{
		Type: "document",
		Document: &gateway.Document{Attributes: []gateway.DocumentAttribute{
			{Type: "audio", Voice: true, Duration: 7},
		}},
	})
	if got := media.Describe(); got != "[voice, 0:07]" {
		t.Errorf("Expected '[voice, 0:07]', got '%s'", got)
	}

	geo := toDomainMedia(&gateway.Media{Type: "geo", Geo: &gateway.GeoPoint{Lat: 1.5, Long: 2.25}})
	if got := geo.Describe(); got != "[location, 1.50000, 2.25000]" {
		t.Errorf("Unexpected geo description: %s", got)
	}

	if unknown := toDomainMedia(&gateway.Media{Type: "hologram"}); unknown.Kind != domain.MediaUnsupported {
		t.Errorf("Expected unsupported kind, got %v", unknown.Kind)
	}
}

func TestToDomainAction(t *testing.T) {
	action := toDomainAction(&gateway.Action{Type: "chatEditTitle", Title: "New name"})
	if got := action.Describe(); got != `[title changed to "New name"]` {
		t.Errorf("Unexpected description: %s", got)
	}
}

func TestConvertAdminLog(t *testing.T) {
	result := &gateway.AdminLogResult{
		Events: []gateway.AdminLogEvent{
			{ID: 12, Date: 1700000000, UserID: 7, Action: json.RawMessage(
				`{"type":"EditMessage","prev_message":{"id":1,"chat_id":-1001,"date":0,"message":"old"},"new_message":{"id":1,"chat_id":-1001,"date":0,"message":"new"}}`)},
			{ID: 11, UserID: 7, Action: json.RawMessage(
				`{"type":"DeleteMessage","message":{"id":2,"chat_id":-1001,"date":0,"message":"gone"}}`)},
			{ID: 10, UserID: 8, Action: json.RawMessage(`{"type":"ChangeTitle","new_value":"x"}`)},
		},
		Users: []gateway.Peer{{Type: "user", ID: 7, FirstName: "Ann", LastName: "Lee", Username: "ann"}},
		Chats: []gateway.Peer{{Type: "channel", ID: -1001, Title: "News", Username: "news"}},
	}

	page := convertAdminLog(result)
	lo, hi := page.IDRange()
	if lo != 10 || hi != 12 {
		t.Errorf("Expected range 10..12, got %d..%d", lo, hi)
	}

	rows := page.Rows(-1001)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if !strings.Contains(rows[0].LogOutput, "-old") || !strings.Contains(rows[0].LogOutput, "+new") {
		t.Errorf("Expected diff output, got %q", rows[0].LogOutput)
	}
	if rows[0].UserTitle != "Ann Lee" || rows[0].ChatTitle != "News" {
		t.Errorf("Unexpected titles: %q / %q", rows[0].UserTitle, rows[0].ChatTitle)
	}
	if rows[1].LogOutput != "gone" {
		t.Errorf("Expected deleted text, got %q", rows[1].LogOutput)
	}
	if rows[2].LogOutput != `{"type":"ChangeTitle","new_value":"x"}` {
		t.Errorf("Expected raw payload for other actions, got %q", rows[2].LogOutput)
	}
	if rows[2].UserTitle != "" {
		t.Errorf("Expected empty user title for unknown user, got %q", rows[2].UserTitle)
	}
}
