package models

import "time"

// Direction tells whether a stored message was sent or received.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Category is the platform billing category of a message.
type Category string

const (
	CategoryMarketing      Category = "marketing"
	CategoryUtility        Category = "utility"
	CategoryAuthentication Category = "authentication"
	CategoryService        Category = "service"
)

// ConversationOrigin classifies who opened a billable conversation window.
type ConversationOrigin string

const (
	OriginBusinessInitiated ConversationOrigin = "business_initiated"
	OriginUserInitiated     ConversationOrigin = "user_initiated"
	OriginReferral          ConversationOrigin = "referral_conversion"
)

// Status is a delivery lifecycle stage.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// Response is an RSVP-style answer to a template.
type Response string

const (
	ResponseApproved Response = "approved"
	ResponseDeclined Response = "declined"
)

// StoredMessageRecord is one row of the whatsapp_messages table. Each *At
// column is nil until the corresponding event has happened; rows are only
// ever filled in, never cleared.
type StoredMessageRecord struct {
	ID                    int64              `bson:"-" db:"id" json:"id,omitempty"`
	MessageID             string             `bson:"message_id" db:"message_id" json:"messageId"`
	ContactID             *int64             `bson:"contact_id,omitempty" db:"contact_id" json:"contactId,omitempty"`
	Phone                 string             `bson:"phone" db:"phone" json:"phone"`
	Direction             Direction          `bson:"direction" db:"direction" json:"direction"`
	Category              Category           `bson:"category,omitempty" db:"category" json:"category,omitempty"`
	MessageType           string             `bson:"message_type" db:"message_type" json:"messageType"`
	TemplateName          string             `bson:"template_name,omitempty" db:"template_name" json:"templateName,omitempty"`
	Content               string             `bson:"message_content,omitempty" db:"message_content" json:"content,omitempty"`
	ContextMessageID      string             `bson:"context_message_id,omitempty" db:"context_message_id" json:"contextMessageId,omitempty"`
	ConversationID        string             `bson:"conversation_id,omitempty" db:"conversation_id" json:"conversationId,omitempty"`
	ConversationOrigin    ConversationOrigin `bson:"conversation_origin,omitempty" db:"conversation_origin" json:"conversationOrigin,omitempty"`
	ConversationExpiresAt *time.Time         `bson:"conversation_expires_at,omitempty" db:"conversation_expires_at" json:"conversationExpiresAt,omitempty"`
	Billable              *bool              `bson:"billable,omitempty" db:"billable" json:"billable,omitempty"`
	ErrorCode             *int               `bson:"error_code,omitempty" db:"error_code" json:"errorCode,omitempty"`
	ErrorMessage          string             `bson:"error_message,omitempty" db:"error_message" json:"errorMessage,omitempty"`
	SentAt                *time.Time         `bson:"sent_at" db:"sent_at" json:"sentAt,omitempty"`
	DeliveredAt           *time.Time         `bson:"delivered_at" db:"delivered_at" json:"deliveredAt,omitempty"`
	ReadAt                *time.Time         `bson:"read_at" db:"read_at" json:"readAt,omitempty"`
	FailedAt              *time.Time         `bson:"failed_at" db:"failed_at" json:"failedAt,omitempty"`
	ApprovedAt            *time.Time         `bson:"approved_at" db:"approved_at" json:"approvedAt,omitempty"`
	DeclinedAt            *time.Time         `bson:"declined_at" db:"declined_at" json:"declinedAt,omitempty"`
	ReceivedAt            *time.Time         `bson:"received_at" db:"received_at" json:"receivedAt,omitempty"`
	CreatedAt             time.Time          `bson:"created_at" db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updated_at" db:"updated_at" json:"updatedAt"`
}

// ConversationUpdate carries the billing metadata of a status event.
type ConversationUpdate struct {
	ConversationID string
	Origin         ConversationOrigin
	ExpiresAt      *time.Time
	Category       Category
	Billable       *bool
}
