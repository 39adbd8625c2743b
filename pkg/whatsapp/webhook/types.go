package webhook

import (
	"bytes"
	"encoding/json"
)

// Payload mirrors the structure sent by Meta's WhatsApp Cloud API webhook callbacks.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one entry payload within the webhook body.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change captures the actual notification contents.
type Change struct {
	Value Value  `json:"value"`
	Field string `json:"field"`
}

// Value contains message metadata, contacts, messages and statuses.
type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         Metadata         `json:"metadata"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []StatusUpdate   `json:"statuses,omitempty"`
}

// Metadata contains WhatsApp phone identifiers for the business account.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact represents the WhatsApp user initiating the conversation.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

type ContactProfile struct {
	Name string `json:"name"`
}

// InboundMessage aggregates every inbound message shape. Upstream sets at
// most one of the typed sub-objects per message.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Context     *MessageContext     `json:"context,omitempty"`
	Text        *TextPayload        `json:"text,omitempty"`
	Button      *ButtonPayload      `json:"button,omitempty"`
	Interactive *InteractivePayload `json:"interactive,omitempty"`
	Image       *MediaPayload       `json:"image,omitempty"`
	Video       *MediaPayload       `json:"video,omitempty"`
	Audio       *MediaPayload       `json:"audio,omitempty"`
	Document    *MediaPayload       `json:"document,omitempty"`
	Sticker     *StickerPayload     `json:"sticker,omitempty"`
	Location    *LocationPayload    `json:"location,omitempty"`
	Reaction    *ReactionPayload    `json:"reaction,omitempty"`
	Contacts    []ContactPayload    `json:"contacts,omitempty"`
}

// UnmarshalJSON decodes one message without failing its siblings. When the
// strict decode fails, the header fields are recovered loosely and each
// sub-object is kept only if it decodes on its own; a dropped sub-object
// leaves the message with unknown content.
func (m *InboundMessage) UnmarshalJSON(data []byte) error {
	type strict InboundMessage
	var s strict
	if err := json.Unmarshal(data, &s); err == nil {
		*m = InboundMessage(s)
		return nil
	}

	*m = InboundMessage{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	m.From = looseString(fields["from"])
	m.ID = looseString(fields["id"])
	m.Timestamp = looseString(fields["timestamp"])
	m.Type = looseString(fields["type"])
	decodeField(fields["context"], &m.Context)
	decodeField(fields["text"], &m.Text)
	decodeField(fields["button"], &m.Button)
	decodeField(fields["interactive"], &m.Interactive)
	decodeField(fields["image"], &m.Image)
	decodeField(fields["video"], &m.Video)
	decodeField(fields["audio"], &m.Audio)
	decodeField(fields["document"], &m.Document)
	decodeField(fields["sticker"], &m.Sticker)
	decodeField(fields["location"], &m.Location)
	decodeField(fields["reaction"], &m.Reaction)
	decodeField(fields["contacts"], &m.Contacts)
	return nil
}

// MessageContext links a message to the one it replies to.
type MessageContext struct {
	From string `json:"from,omitempty"`
	ID   string `json:"id,omitempty"`
}

type TextPayload struct {
	Body string `json:"body"`
}

// ButtonPayload is a tap on a template quick-reply button.
type ButtonPayload struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

// InteractivePayload represents button/list replies.
type InteractivePayload struct {
	Type        string      `json:"type"`
	ButtonReply *ReplyEntry `json:"button_reply,omitempty"`
	ListReply   *ReplyEntry `json:"list_reply,omitempty"`
}

type ReplyEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// MediaPayload represents media attachments minimal metadata.
type MediaPayload struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Sha256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type StickerPayload struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Sha256   string `json:"sha256,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
	URL       string  `json:"url,omitempty"`
}

type ReactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji,omitempty"`
}

type ContactPayload struct {
	Name   ContactNamePayload    `json:"name"`
	Phones []ContactPhonePayload `json:"phones,omitempty"`
}

type ContactNamePayload struct {
	FormattedName string `json:"formatted_name"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
}

type ContactPhonePayload struct {
	Phone string `json:"phone"`
	Type  string `json:"type,omitempty"`
	WaID  string `json:"wa_id,omitempty"`
}

// StatusUpdate represents delivery/read receipts coming from WhatsApp.
type StatusUpdate struct {
	ID           string               `json:"id"`
	Status       string               `json:"status"`
	Timestamp    string               `json:"timestamp"`
	RecipientID  string               `json:"recipient_id"`
	Conversation *ConversationPayload `json:"conversation,omitempty"`
	Pricing      *PricingPayload      `json:"pricing,omitempty"`
	Errors       []StatusError        `json:"errors,omitempty"`

	// invalid marks an element that was not a JSON object at all.
	invalid bool
}

// UnmarshalJSON is the status counterpart of InboundMessage.UnmarshalJSON.
// Conversation, pricing and errors are dropped individually when they do
// not decode.
func (s *StatusUpdate) UnmarshalJSON(data []byte) error {
	type strict StatusUpdate
	var st strict
	if err := json.Unmarshal(data, &st); err == nil {
		*s = StatusUpdate(st)
		return nil
	}

	*s = StatusUpdate{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		s.invalid = true
		return nil
	}

	s.ID = looseString(fields["id"])
	s.Status = looseString(fields["status"])
	s.Timestamp = looseString(fields["timestamp"])
	s.RecipientID = looseString(fields["recipient_id"])
	decodeField(fields["conversation"], &s.Conversation)
	decodeField(fields["pricing"], &s.Pricing)
	decodeField(fields["errors"], &s.Errors)
	return nil
}

type ConversationPayload struct {
	ID                  string        `json:"id"`
	ExpirationTimestamp string        `json:"expiration_timestamp,omitempty"`
	Origin              OriginPayload `json:"origin"`
}

type OriginPayload struct {
	Type string `json:"type"`
}

type PricingPayload struct {
	Billable     bool   `json:"billable"`
	PricingModel string `json:"pricing_model,omitempty"`
	Category     string `json:"category"`
}

// StatusError exposes errors returned from Meta on a status notification.
type StatusError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// looseString accepts a JSON string or a bare scalar (numbers, booleans)
// and returns its text. Objects, arrays and null yield "".
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return ""
		}
		return v
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

func decodeField[T any](raw json.RawMessage, dst *T) {
	if len(raw) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}
