package domain

import (
	"fmt"
	"math"
	"strings"
)

// MediaKind enumerates the media payloads a message can carry
type MediaKind int

const (
	MediaUnsupported MediaKind = iota
	MediaEmpty
	MediaPhoto
	MediaDocument
	MediaContact
	MediaGeo
	MediaGeoLive
	MediaVenue
	MediaPoll
	MediaDice
	MediaWebPage
	MediaGame
	MediaInvoice
	MediaStory
	MediaGiveaway
	MediaGiveawayResults
	MediaPaidMedia
	MediaToDo
	MediaVideoStream
)

// AttributeKind enumerates document attributes relevant for descriptions
type AttributeKind int

const (
	AttrOther AttributeKind = iota
	AttrFilename
	AttrSticker
	AttrAudio
	AttrVideo
)

// DocumentAttribute is one attribute of a document
type DocumentAttribute struct {
	Kind      AttributeKind
	FileName  string
	Alt       string // Sticker emoji
	Duration  float64
	Voice     bool
	Round     bool
	NoSound   bool
	Title     string
	Performer string
}

// Media is the media payload of a message. Only the fields for Kind are set.
type Media struct {
	Kind    MediaKind
	Spoiler bool

	// Document
	HasDocument bool
	Attributes  []DocumentAttribute

	// Contact
	FirstName string
	LastName  string
	Phone     string

	// Geo, live geo
	HasPoint bool
	Lat      float64
	Long     float64

	// Venue, game, invoice title; poll question
	Title    string
	Question string
	Quiz     bool

	// Dice
	Emoticon string
	Value    int

	Quantity int   // Giveaway winners
	Stars    int64 // Paid media price
}

// Describe renders a short human-readable description such as "[voice, 0:07]"
func (m *Media) Describe() string {
	switch m.Kind {
	case MediaEmpty:
		return "[empty media]"
	case MediaPhoto:
		if m.Spoiler {
			return "[photo, spoiler]"
		}
		return "[photo]"
	case MediaDocument:
		return m.describeDocument()
	case MediaContact:
		name := strings.TrimSpace(m.FirstName + " " + m.LastName)
		if name == "" {
			return fmt.Sprintf("[contact, %s]", m.Phone)
		}
		return fmt.Sprintf("[contact, %s, %s]", name, m.Phone)
	case MediaGeo:
		if !m.HasPoint {
			return "[location]"
		}
		return fmt.Sprintf("[location, %.5f, %.5f]", m.Lat, m.Long)
	case MediaGeoLive:
		if !m.HasPoint {
			return "[live location]"
		}
		return fmt.Sprintf("[live location, %.5f, %.5f]", m.Lat, m.Long)
	case MediaVenue:
		return fmt.Sprintf("[venue, %s]", m.Title)
	case MediaPoll:
		if m.Quiz {
			return fmt.Sprintf("[quiz: %s]", m.Question)
		}
		return fmt.Sprintf("[poll: %s]", m.Question)
	case MediaDice:
		return fmt.Sprintf("[%s = %d]", m.Emoticon, m.Value)
	case MediaWebPage:
		return "[web page]"
	case MediaGame:
		return fmt.Sprintf("[game, %s]", m.Title)
	case MediaInvoice:
		return fmt.Sprintf("[invoice, %s]", m.Title)
	case MediaStory:
		return "[story]"
	case MediaGiveaway:
		return fmt.Sprintf("[giveaway, %d winners]", m.Quantity)
	case MediaGiveawayResults:
		return "[giveaway results]"
	case MediaPaidMedia:
		return fmt.Sprintf("[paid media, %d stars]", m.Stars)
	case MediaToDo:
		return "[todo list]"
	case MediaVideoStream:
		return "[video stream]"
	default:
		return "[unsupported media]"
	}
}

func (m *Media) describeDocument() string {
	if !m.HasDocument {
		return "[document]"
	}

	var (
		sticker, voice, round, gif bool
		emoji, filename           string
		title, performer          string
		audio, video              *DocumentAttribute
	)
	for i := range m.Attributes {
		attr := &m.Attributes[i]
		switch attr.Kind {
		case AttrAudio:
			audio = attr
			voice = attr.Voice
			title, performer = attr.Title, attr.Performer
		case AttrVideo:
			video = attr
			round = attr.Round
			gif = attr.NoSound
		case AttrSticker:
			sticker = true
			emoji = attr.Alt
		case AttrFilename:
			filename = attr.FileName
		}
	}

	switch {
	case sticker:
		return fmt.Sprintf("[sticker %s]", emoji)
	case voice:
		return fmt.Sprintf("[voice, %s]", formatDuration(audio.Duration))
	case round:
		return fmt.Sprintf("[video message, %s]", formatDuration(video.Duration))
	case audio != nil:
		parts := []string{"audio"}
		switch {
		case performer != "" && title != "":
			parts = append(parts, performer+" — "+title)
		case performer != "":
			parts = append(parts, performer)
		case title != "":
			parts = append(parts, title)
		}
		parts = append(parts, formatDuration(audio.Duration))
		return "[" + strings.Join(parts, ", ") + "]"
	case video != nil:
		if gif {
			return "[GIF]"
		}
		return fmt.Sprintf("[video, %s]", formatDuration(video.Duration))
	case filename != "":
		return fmt.Sprintf("[file, %s]", filename)
	default:
		return "[document]"
	}
}

// formatDuration renders seconds as m:ss
func formatDuration(seconds float64) string {
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
