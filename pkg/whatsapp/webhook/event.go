package webhook

import "time"

// EventType discriminates ParsedEvent.
type EventType string

const (
	EventMessage EventType = "message"
	EventStatus  EventType = "status"
	EventUnknown EventType = "unknown"
)

// ParsedEvent is one normalized notification. Message is set for
// EventMessage, Status for EventStatus; EventUnknown carries only Field.
type ParsedEvent struct {
	Type          EventType
	PhoneNumberID string
	Field         string
	Message       *ParsedMessage
	Status        *ParsedStatus
	Contact       *ParsedContact
}

// ParsedContact is the sender profile attached to an inbound message.
type ParsedContact struct {
	Name string
	WaID string
}

// ParsedMessage is an inbound message with its content normalized.
type ParsedMessage struct {
	ID        string
	From      string
	Timestamp time.Time
	Type      string
	Content   MessageContent
	Context   *ReplyContext
}

// ReplyContext identifies the message being replied to.
type ReplyContext struct {
	From string
	ID   string
}

// ContentKind names the MessageContent variants.
type ContentKind string

const (
	ContentText        ContentKind = "text"
	ContentButton      ContentKind = "button"
	ContentInteractive ContentKind = "interactive"
	ContentMedia       ContentKind = "media"
	ContentLocation    ContentKind = "location"
	ContentSticker     ContentKind = "sticker"
	ContentReaction    ContentKind = "reaction"
	ContentContacts    ContentKind = "contacts"
	ContentUnknown     ContentKind = "unknown"
)

// MessageContent is the closed set of inbound content variants. Switch on
// the concrete type to handle each one.
type MessageContent interface {
	Kind() ContentKind
	isContent()
}

type TextContent struct {
	Body string
}

// ButtonContent is a template quick-reply tap.
type ButtonContent struct {
	Payload string
	Text    string
}

// InteractiveContent is a reply to an interactive button or list message.
type InteractiveContent struct {
	ReplyType        string
	ReplyID          string
	ReplyTitle       string
	ReplyDescription string
}

// MediaKind names the attachment type of MediaContent.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

type MediaContent struct {
	MediaType MediaKind
	MediaID   string
	MimeType  string
	Sha256    string
	Caption   string
	Filename  string
}

type LocationContent struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
	URL       string
}

type StickerContent struct {
	StickerID string
	MimeType  string
	Animated  bool
}

// ReactionContent targets MessageID; an empty Emoji means the reaction was removed.
type ReactionContent struct {
	Emoji     string
	MessageID string
}

type ContactsContent struct {
	Contacts []ContactCard
}

type ContactCard struct {
	FormattedName string
	FirstName     string
	LastName      string
	Phones        []ContactPhone
}

type ContactPhone struct {
	Phone string
	Type  string
}

// UnknownContent carries the raw type tag of an unrecognized message.
type UnknownContent struct {
	RawType string
}

func (TextContent) Kind() ContentKind        { return ContentText }
func (ButtonContent) Kind() ContentKind      { return ContentButton }
func (InteractiveContent) Kind() ContentKind { return ContentInteractive }
func (MediaContent) Kind() ContentKind       { return ContentMedia }
func (LocationContent) Kind() ContentKind    { return ContentLocation }
func (StickerContent) Kind() ContentKind     { return ContentSticker }
func (ReactionContent) Kind() ContentKind    { return ContentReaction }
func (ContactsContent) Kind() ContentKind    { return ContentContacts }
func (UnknownContent) Kind() ContentKind     { return ContentUnknown }

func (TextContent) isContent()        {}
func (ButtonContent) isContent()      {}
func (InteractiveContent) isContent() {}
func (MediaContent) isContent()       {}
func (LocationContent) isContent()    {}
func (StickerContent) isContent()     {}
func (ReactionContent) isContent()    {}
func (ContactsContent) isContent()    {}
func (UnknownContent) isContent()     {}

// StatusType is a delivery lifecycle state reported by the platform.
type StatusType string

const (
	StatusSent      StatusType = "sent"
	StatusDelivered StatusType = "delivered"
	StatusRead      StatusType = "read"
	StatusFailed    StatusType = "failed"
)

// ParsedStatus is a normalized delivery notification for an outbound message.
type ParsedStatus struct {
	MessageID    string
	Status       StatusType
	RecipientID  string
	Timestamp    time.Time
	Error        *StatusErrorInfo
	Conversation *ConversationInfo
	Pricing      *PricingInfo
}

type StatusErrorInfo struct {
	Code    int
	Message string
}

// ConversationInfo describes the billable conversation window a message belongs to.
type ConversationInfo struct {
	ID        string
	Origin    string
	ExpiresAt *time.Time
}

type PricingInfo struct {
	Billable bool
	Category string
	Model    string
}
