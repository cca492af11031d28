package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActionKind names a service action as reported by the gateway
type ActionKind string

const (
	ActionEmpty             ActionKind = "empty"
	ActionChatCreate        ActionKind = "chatCreate"
	ActionChatEditTitle     ActionKind = "chatEditTitle"
	ActionChatEditPhoto     ActionKind = "chatEditPhoto"
	ActionChatDeletePhoto   ActionKind = "chatDeletePhoto"
	ActionChatAddUser       ActionKind = "chatAddUser"
	ActionChatDeleteUser    ActionKind = "chatDeleteUser"
	ActionChatJoinedByLink  ActionKind = "chatJoinedByLink"
	ActionChatJoinedByReq   ActionKind = "chatJoinedByRequest"
	ActionChannelCreate     ActionKind = "channelCreate"
	ActionChatMigrateTo     ActionKind = "chatMigrateTo"
	ActionChannelMigrate    ActionKind = "channelMigrateFrom"
	ActionPinMessage        ActionKind = "pinMessage"
	ActionHistoryClear      ActionKind = "historyClear"
	ActionGameScore         ActionKind = "gameScore"
	ActionPaymentSentMe     ActionKind = "paymentSentMe"
	ActionPaymentSent       ActionKind = "paymentSent"
	ActionPaymentRefunded   ActionKind = "paymentRefunded"
	ActionPhoneCall         ActionKind = "phoneCall"
	ActionScreenshotTaken   ActionKind = "screenshotTaken"
	ActionCustom            ActionKind = "customAction"
	ActionBotAllowed        ActionKind = "botAllowed"
	ActionContactSignUp     ActionKind = "contactSignUp"
	ActionGeoProximity      ActionKind = "geoProximityReached"
	ActionGroupCall         ActionKind = "groupCall"
	ActionInviteToGroupCall ActionKind = "inviteToGroupCall"
	ActionSetMessagesTTL    ActionKind = "setMessagesTTL"
	ActionGroupCallSched    ActionKind = "groupCallScheduled"
	ActionTopicCreate       ActionKind = "topicCreate"
	ActionTopicEdit         ActionKind = "topicEdit"
	ActionGiftPremium       ActionKind = "giftPremium"
	ActionGiftStars         ActionKind = "giftStars"
	ActionGiveawayLaunch    ActionKind = "giveawayLaunch"
	ActionGiveawayResults   ActionKind = "giveawayResults"
	ActionBoostApply        ActionKind = "boostApply"
	ActionSetChatWallPaper  ActionKind = "setChatWallPaper"
	ActionChangeCreator     ActionKind = "changeCreator"
)

// ServiceAction is the payload of a service message. Only the fields used by
// Kind are set; optional flags are pointers so "unset" differs from false.
type ServiceAction struct {
	Kind ActionKind

	Title     string
	Users     []int64
	UserID    int64
	ChannelID int64
	ChatID    int64
	Message   string // Custom action text, bot domain

	Score       int
	GameID      int64
	Currency    string
	TotalAmount int64
	Stars       int64
	Days        int
	Boosts      int
	Distance    int
	Period      int
	Winners     int
	Unclaimed   int

	Video     bool
	ForBoth   bool
	Duration  *int
	Closed    *bool
	Hidden    *bool
	Scheduled time.Time
}

// Describe renders the action in brackets, e.g. `[title changed to "x"]`
func (a *ServiceAction) Describe() string {
	switch a.Kind {
	case ActionEmpty:
		return "[service message]"
	case ActionChatCreate:
		return fmt.Sprintf("[chat created: %q, members: %s]", a.Title, formatIDs(a.Users))
	case ActionChatEditTitle:
		return fmt.Sprintf("[title changed to %q]", a.Title)
	case ActionChatEditPhoto:
		return "[chat photo updated]"
	case ActionChatDeletePhoto:
		return "[chat photo removed]"
	case ActionChatAddUser:
		return fmt.Sprintf("[users added: %s]", formatIDs(a.Users))
	case ActionChatDeleteUser:
		return fmt.Sprintf("[user removed: %d]", a.UserID)
	case ActionChatJoinedByLink:
		return fmt.Sprintf("[joined via invite link from %d]", a.UserID)
	case ActionChatJoinedByReq:
		return "[joined by request]"
	case ActionChannelCreate:
		return fmt.Sprintf("[channel created: %q]", a.Title)
	case ActionChatMigrateTo:
		return fmt.Sprintf("[migrated to supergroup %d]", a.ChannelID)
	case ActionChannelMigrate:
		return fmt.Sprintf("[supergroup created from chat %q, chat %d]", a.Title, a.ChatID)
	case ActionPinMessage:
		return "[message pinned]"
	case ActionHistoryClear:
		return "[history cleared]"
	case ActionGameScore:
		return fmt.Sprintf("[game score: %d in game %d]", a.Score, a.GameID)
	case ActionPaymentSentMe:
		return fmt.Sprintf("[payment received: %d %s]", a.TotalAmount, a.Currency)
	case ActionPaymentSent:
		return fmt.Sprintf("[payment sent: %d %s]", a.TotalAmount, a.Currency)
	case ActionPaymentRefunded:
		return fmt.Sprintf("[payment refunded: %d %s]", a.TotalAmount, a.Currency)
	case ActionPhoneCall:
		kind := "call"
		if a.Video {
			kind = "video call"
		}
		if a.Duration == nil {
			return fmt.Sprintf("[%s, no answer]", kind)
		}
		return fmt.Sprintf("[%s, %d sec]", kind, *a.Duration)
	case ActionScreenshotTaken:
		return "[screenshot taken]"
	case ActionCustom:
		return fmt.Sprintf("[%s]", a.Message)
	case ActionBotAllowed:
		if a.Message == "" {
			return "[bot allowed]"
		}
		return fmt.Sprintf("[bot allowed, domain: %s]", a.Message)
	case ActionContactSignUp:
		return "[joined Telegram]"
	case ActionGeoProximity:
		return fmt.Sprintf("[proximity alert: %d m]", a.Distance)
	case ActionGroupCall:
		if a.Duration == nil {
			return "[group call started]"
		}
		return fmt.Sprintf("[group call, %d sec]", *a.Duration)
	case ActionInviteToGroupCall:
		return fmt.Sprintf("[invited to group call: %s]", formatIDs(a.Users))
	case ActionSetMessagesTTL:
		if a.Period == 0 {
			return "[auto-delete disabled]"
		}
		return fmt.Sprintf("[auto-delete: %d sec]", a.Period)
	case ActionGroupCallSched:
		return fmt.Sprintf("[group call scheduled at %d]", a.Scheduled.Unix())
	case ActionTopicCreate:
		return fmt.Sprintf("[topic created: %q]", a.Title)
	case ActionTopicEdit:
		return a.describeTopicEdit()
	case ActionGiftPremium:
		return fmt.Sprintf("[gift Premium, %d days, %d %s]", a.Days, a.TotalAmount, a.Currency)
	case ActionGiftStars:
		return fmt.Sprintf("[gift %d stars, %d %s]", a.Stars, a.TotalAmount, a.Currency)
	case ActionGiveawayLaunch:
		if a.Stars == 0 {
			return "[giveaway launched]"
		}
		return fmt.Sprintf("[giveaway launched, %d stars]", a.Stars)
	case ActionGiveawayResults:
		return fmt.Sprintf("[giveaway results: %d winners, %d unclaimed]", a.Winners, a.Unclaimed)
	case ActionBoostApply:
		return fmt.Sprintf("[boost x%d]", a.Boosts)
	case ActionSetChatWallPaper:
		if a.ForBoth {
			return "[wallpaper changed, for both]"
		}
		return "[wallpaper changed]"
	case ActionChangeCreator:
		return fmt.Sprintf("[ownership transferred to %d]", a.UserID)
	default:
		return fmt.Sprintf("[service message: %s]", a.Kind)
	}
}

func (a *ServiceAction) describeTopicEdit() string {
	var parts []string
	if a.Title != "" {
		parts = append(parts, fmt.Sprintf("title: %q", a.Title))
	}
	if a.Closed != nil {
		if *a.Closed {
			parts = append(parts, "closed")
		} else {
			parts = append(parts, "reopened")
		}
	}
	if a.Hidden != nil {
		if *a.Hidden {
			parts = append(parts, "hidden")
		} else {
			parts = append(parts, "unhidden")
		}
	}
	if len(parts) == 0 {
		return "[topic edited]"
	}
	return "[topic edited: " + strings.Join(parts, ", ") + "]"
}

func formatIDs(ids []int64) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(out, ", ")
}
