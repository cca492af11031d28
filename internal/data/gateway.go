package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/repo"
	"github.com/tgarchive/chatlog/internal/infra/gateway"
	"github.com/tgarchive/chatlog/internal/logger"
)

// gatewayRepo implements the gateway repository
type gatewayRepo struct {
	client   *gateway.Client
	eventsCh chan domain.Event
	log      *log.Logger
}

// NewGatewayRepo creates a new gateway repository
func NewGatewayRepo(client *gateway.Client) repo.GatewayRepo {
	return &gatewayRepo{
		client:   client,
		eventsCh: make(chan domain.Event, 100),
		log:      logger.For("Gateway"),
	}
}

// Start starts the gateway and forwards its updates
func (r *gatewayRepo) Start(ctx context.Context) error {
	if err := r.client.Start(ctx); err != nil {
		return err
	}
	go r.forwardEvents()
	return nil
}

// SelfID returns the logged-in account id
func (r *gatewayRepo) SelfID() int64 {
	return r.client.SelfID()
}

// Events returns the event channel
func (r *gatewayRepo) Events() <-chan domain.Event {
	return r.eventsCh
}

// Stop stops the gateway; the event channel closes once pending updates are forwarded
func (r *gatewayRepo) Stop() {
	r.client.Stop()
}

// AdminLog fetches one admin log page
func (r *gatewayRepo) AdminLog(ctx context.Context, chatID, minID, maxID int64, limit int) (*domain.AdminLogPage, error) {
	result, err := r.client.GetAdminLog(ctx, gateway.AdminLogParams{
		ChannelID: chatID,
		MinID:     minID,
		MaxID:     maxID,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return convertAdminLog(result), nil
}

// TopicTitle fetches the title of a forum topic
func (r *gatewayRepo) TopicTitle(ctx context.Context, chatID, topicID int64) (string, error) {
	topic, err := r.client.GetForumTopic(ctx, chatID, topicID)
	if err != nil {
		return "", err
	}
	return topic.Title, nil
}

// Authorizations lists the account sessions
func (r *gatewayRepo) Authorizations(ctx context.Context) ([]domain.Authorization, error) {
	auths, err := r.client.GetAuthorizations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Authorization, 0, len(auths))
	for _, a := range auths {
		out = append(out, domain.Authorization{
			Hash:          a.Hash,
			Current:       a.Current,
			DeviceModel:   a.DeviceModel,
			Platform:      a.Platform,
			SystemVersion: a.SystemVersion,
			AppName:       a.AppName,
			AppVersion:    a.AppVersion,
			IP:            a.IP,
			Country:       a.Country,
			Region:        a.Region,
			DateCreated:   unixTime(a.DateCreated),
			DateActive:    unixTime(a.DateActive),
		})
	}
	return out, nil
}

// forwardEvents converts gateway notifications until the gateway exits
func (r *gatewayRepo) forwardEvents() {
	defer close(r.eventsCh)
	for event := range r.client.Events() {
		if e := r.convertEvent(event); e != nil {
			r.eventsCh <- e
		}
	}
}

// convertEvent converts a gateway notification to a domain event
func (r *gatewayRepo) convertEvent(event gateway.Event) domain.Event {
	switch event.Method {
	case gateway.NotifyNewMessage, gateway.NotifyEditMessage:
		var params gateway.MessageParams
		if err := json.Unmarshal(event.Params, &params); err != nil {
			r.log.Warn("Bad update", "method", event.Method, "err", err)
			return nil
		}
		msg, err := convertMessage(params.Message)
		if err != nil {
			r.log.Warn("Bad message", "method", event.Method, "err", err)
			return nil
		}
		if event.Method == gateway.NotifyEditMessage {
			return &domain.MessageEdited{Message: msg}
		}
		return &domain.NewMessage{Message: msg}

	case gateway.NotifyDeleteMessages:
		var params gateway.DeleteMessagesParams
		if err := json.Unmarshal(event.Params, &params); err != nil {
			r.log.Warn("Bad update", "method", event.Method, "err", err)
			return nil
		}
		date := time.Now()
		if params.Date != 0 {
			date = unixTime(params.Date)
		}
		return &domain.MessagesDeleted{
			ChannelID:  params.ChannelID,
			MessageIDs: params.MessageIDs,
			Date:       date,
		}

	default:
		r.log.Debug("Ignoring notification", "method", event.Method)
		return nil
	}
}

// convertMessage decodes a wire message, keeping the raw JSON
func convertMessage(raw json.RawMessage) (*domain.Message, error) {
	var m gateway.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	msg := toDomainMessage(&m)
	msg.Raw = string(raw)
	return msg, nil
}

func toDomainMessage(m *gateway.Message) *domain.Message {
	msg := &domain.Message{
		ID:       m.ID,
		ChatID:   m.ChatID,
		Date:     unixTime(m.Date),
		Outgoing: m.Out,
		Text:     m.Text,
		Chat:     toDomainPeer(m.Chat),
		Sender:   toDomainPeer(m.Sender),
	}
	if m.ReplyTo != nil {
		msg.ReplyTo = &domain.ReplyHeader{
			MessageID:  m.ReplyTo.MessageID,
			TopID:      m.ReplyTo.TopID,
			ForumTopic: m.ReplyTo.ForumTopic,
		}
	}
	if m.Media != nil {
		msg.Media = toDomainMedia(m.Media)
	}
	if m.Action != nil {
		msg.Action = toDomainAction(m.Action)
	}
	return msg
}

func toDomainPeer(p *gateway.Peer) *domain.Peer {
	if p == nil {
		return nil
	}
	peer := convertPeer(*p)
	return &peer
}

func convertPeer(p gateway.Peer) domain.Peer {
	peer := domain.Peer{
		ID:        p.ID,
		Title:     p.Title,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Username:  p.Username,
	}
	switch p.Type {
	case "channel":
		peer.Type = domain.PeerChannel
	case "group":
		peer.Type = domain.PeerGroup
	default:
		peer.Type = domain.PeerUser
	}
	for _, u := range p.Usernames {
		peer.Usernames = append(peer.Usernames, domain.Username{Username: u.Username, Active: u.Active})
	}
	return peer
}

var mediaKinds = map[string]domain.MediaKind{
	"empty":           domain.MediaEmpty,
	"photo":           domain.MediaPhoto,
	"document":        domain.MediaDocument,
	"contact":         domain.MediaContact,
	"geo":             domain.MediaGeo,
	"geoLive":         domain.MediaGeoLive,
	"venue":           domain.MediaVenue,
	"poll":            domain.MediaPoll,
	"dice":            domain.MediaDice,
	"webPage":         domain.MediaWebPage,
	"game":            domain.MediaGame,
	"invoice":         domain.MediaInvoice,
	"story":           domain.MediaStory,
	"giveaway":        domain.MediaGiveaway,
	"giveawayResults": domain.MediaGiveawayResults,
	"paidMedia":       domain.MediaPaidMedia,
	"toDo":            domain.MediaToDo,
	"videoStream":     domain.MediaVideoStream,
}

var attributeKinds = map[string]domain.AttributeKind{
	"filename": domain.AttrFilename,
	"sticker":  domain.AttrSticker,
	"audio":    domain.AttrAudio,
	"video":    domain.AttrVideo,
}

func toDomainMedia(m *gateway.Media) *domain.Media {
	media := &domain.Media{
		Kind:      mediaKinds[m.Type], // unknown types map to MediaUnsupported
		Spoiler:   m.Spoiler,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Phone:     m.Phone,
		Title:     m.Title,
		Question:  m.Question,
		Quiz:      m.Quiz,
		Emoticon:  m.Emoticon,
		Value:     m.Value,
		Quantity:  m.Quantity,
		Stars:     m.Stars,
	}
	if m.Document != nil {
		media.HasDocument = true
		for _, a := range m.Document.Attributes {
			media.Attributes = append(media.Attributes, domain.DocumentAttribute{
				Kind:      attributeKinds[a.Type],
				FileName:  a.FileName,
				Alt:       a.Alt,
				Duration:  a.Duration,
				Voice:     a.Voice,
				Round:     a.RoundMessage,
				NoSound:   a.NoSound,
				Title:     a.Title,
				Performer: a.Performer,
			})
		}
	}
	if m.Geo != nil {
		media.HasPoint = true
		media.Lat = m.Geo.Lat
		media.Long = m.Geo.Long
	}
	return media
}

func toDomainAction(a *gateway.Action) *domain.ServiceAction {
	action := &domain.ServiceAction{
		Kind:        domain.ActionKind(a.Type),
		Title:       a.Title,
		Users:       a.Users,
		UserID:      a.UserID,
		ChannelID:   a.ChannelID,
		ChatID:      a.ChatID,
		Message:     a.Message,
		Score:       a.Score,
		GameID:      a.GameID,
		Currency:    a.Currency,
		TotalAmount: a.TotalAmount,
		Stars:       a.Stars,
		Days:        a.Days,
		Boosts:      a.Boosts,
		Distance:    a.Distance,
		Period:      a.Period,
		Winners:     a.WinnersCount,
		Unclaimed:   a.UnclaimedCount,
		Video:       a.Video,
		ForBoth:     a.ForBoth,
		Duration:    a.Duration,
		Closed:      a.Closed,
		Hidden:      a.Hidden,
	}
	if a.ScheduleDate != 0 {
		action.Scheduled = unixTime(a.ScheduleDate)
	}
	return action
}

// convertAdminLog converts a wire page, decoding the message texts needed
// for log output.
func convertAdminLog(result *gateway.AdminLogResult) *domain.AdminLogPage {
	page := &domain.AdminLogPage{
		Events: make([]domain.AdminLogEvent, 0, len(result.Events)),
	}
	for _, ev := range result.Events {
		var wire gateway.AdminLogAction
		json.Unmarshal(ev.Action, &wire) // Type stays empty on malformed payloads

		action := domain.AdminLogAction{
			Type: wire.Type,
			Raw:  string(ev.Action),
		}
		if wire.PrevMessage != nil {
			action.PrevText = wire.PrevMessage.Text
		}
		if wire.NewMessage != nil {
			action.NewText = wire.NewMessage.Text
		}
		if wire.Message != nil {
			action.DeletedText = wire.Message.Text
			if raw, err := json.Marshal(wire.Message); err == nil {
				action.DeletedRaw = string(raw)
			}
		}

		page.Events = append(page.Events, domain.AdminLogEvent{
			ID:     ev.ID,
			Date:   unixTime(ev.Date),
			UserID: ev.UserID,
			Action: action,
		})
	}
	for _, p := range result.Users {
		page.Users = append(page.Users, convertPeer(p))
	}
	for _, p := range result.Chats {
		page.Chats = append(page.Chats, convertPeer(p))
	}
	return page
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
