package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const messagesField = "messages"

// ParseBytes decodes a raw webhook body and parses it. Only a body that is
// not valid JSON, or whose envelope has the wrong shape, is an error; a
// malformed message or status is parsed as far as it goes.
func ParseBytes(raw []byte) ([]ParsedEvent, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return Parse(payload), nil
}

// Parse flattens the entry/change/value nesting into events, messages
// before statuses within each change. It never fails; shapes it does not
// recognize become unknown events or unknown content.
func Parse(payload Payload) []ParsedEvent {
	events := make([]ParsedEvent, 0)

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			phoneNumberID := change.Value.Metadata.PhoneNumberID

			if change.Field != messagesField {
				events = append(events, ParsedEvent{Type: EventUnknown, PhoneNumberID: phoneNumberID, Field: change.Field})
				continue
			}

			for _, msg := range change.Value.Messages {
				events = append(events, ParsedEvent{
					Type:          EventMessage,
					PhoneNumberID: phoneNumberID,
					Field:         change.Field,
					Message:       parseMessage(msg),
					Contact:       findContact(change.Value.Contacts, msg.From),
				})
			}

			for _, status := range change.Value.Statuses {
				if status.invalid {
					events = append(events, ParsedEvent{Type: EventUnknown, PhoneNumberID: phoneNumberID, Field: change.Field})
					continue
				}
				events = append(events, ParsedEvent{
					Type:          EventStatus,
					PhoneNumberID: phoneNumberID,
					Field:         change.Field,
					Status:        parseStatus(status),
				})
			}
		}
	}

	return events
}

func findContact(contacts []Contact, waID string) *ParsedContact {
	for _, c := range contacts {
		if c.WaID == waID {
			return &ParsedContact{Name: c.Profile.Name, WaID: c.WaID}
		}
	}
	return nil
}

func parseMessage(msg InboundMessage) *ParsedMessage {
	parsed := &ParsedMessage{
		ID:        msg.ID,
		From:      msg.From,
		Timestamp: parseUnix(msg.Timestamp),
		Type:      msg.Type,
		Content:   parseContent(msg),
	}
	if msg.Context != nil {
		parsed.Context = &ReplyContext{From: msg.Context.From, ID: msg.Context.ID}
	}
	return parsed
}

// parseContent checks the tagged sub-objects in a fixed order. Upstream
// never sets two at once; the order only keeps malformed input deterministic.
func parseContent(msg InboundMessage) MessageContent {
	switch {
	case msg.Text != nil:
		return TextContent{Body: msg.Text.Body}
	case msg.Button != nil:
		return ButtonContent{Payload: msg.Button.Payload, Text: msg.Button.Text}
	case msg.Interactive != nil:
		return parseInteractive(msg.Interactive)
	case msg.Image != nil:
		return mediaContent(MediaImage, msg.Image)
	case msg.Video != nil:
		return mediaContent(MediaVideo, msg.Video)
	case msg.Audio != nil:
		return mediaContent(MediaAudio, msg.Audio)
	case msg.Document != nil:
		return mediaContent(MediaDocument, msg.Document)
	case msg.Sticker != nil:
		return StickerContent{StickerID: msg.Sticker.ID, MimeType: msg.Sticker.MimeType, Animated: msg.Sticker.Animated}
	case msg.Location != nil:
		return LocationContent{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
			Name:      msg.Location.Name,
			Address:   msg.Location.Address,
			URL:       msg.Location.URL,
		}
	case msg.Reaction != nil:
		return ReactionContent{Emoji: msg.Reaction.Emoji, MessageID: msg.Reaction.MessageID}
	case len(msg.Contacts) > 0:
		return parseContacts(msg.Contacts)
	default:
		return UnknownContent{RawType: msg.Type}
	}
}

func parseInteractive(in *InteractivePayload) MessageContent {
	reply := in.ButtonReply
	if reply == nil {
		reply = in.ListReply
	}
	out := InteractiveContent{ReplyType: in.Type}
	if reply != nil {
		out.ReplyID = reply.ID
		out.ReplyTitle = reply.Title
		out.ReplyDescription = reply.Description
	}
	return out
}

func mediaContent(kind MediaKind, m *MediaPayload) MessageContent {
	return MediaContent{
		MediaType: kind,
		MediaID:   m.ID,
		MimeType:  m.MimeType,
		Sha256:    m.Sha256,
		Caption:   m.Caption,
		Filename:  m.Filename,
	}
}

func parseContacts(in []ContactPayload) MessageContent {
	cards := make([]ContactCard, 0, len(in))
	for _, c := range in {
		card := ContactCard{
			FormattedName: c.Name.FormattedName,
			FirstName:     c.Name.FirstName,
			LastName:      c.Name.LastName,
		}
		for _, p := range c.Phones {
			card.Phones = append(card.Phones, ContactPhone{Phone: p.Phone, Type: p.Type})
		}
		cards = append(cards, card)
	}
	return ContactsContent{Contacts: cards}
}

func parseStatus(status StatusUpdate) *ParsedStatus {
	parsed := &ParsedStatus{
		MessageID:   status.ID,
		Status:      StatusType(status.Status),
		RecipientID: status.RecipientID,
		Timestamp:   parseUnix(status.Timestamp),
	}

	if len(status.Errors) > 0 {
		first := status.Errors[0]
		message := first.Title
		if message == "" {
			message = first.Message
		}
		parsed.Error = &StatusErrorInfo{Code: first.Code, Message: message}
	}

	if conv := status.Conversation; conv != nil {
		info := &ConversationInfo{ID: conv.ID, Origin: conv.Origin.Type}
		if conv.ExpirationTimestamp != "" {
			if expires := parseUnix(conv.ExpirationTimestamp); !expires.IsZero() {
				info.ExpiresAt = &expires
			}
		}
		parsed.Conversation = info
	}

	if pricing := status.Pricing; pricing != nil {
		parsed.Pricing = &PricingInfo{Billable: pricing.Billable, Category: pricing.Category, Model: pricing.PricingModel}
	}

	return parsed
}

// parseUnix converts platform epoch seconds; anything unparsable yields the zero time.
func parseUnix(value string) time.Time {
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
