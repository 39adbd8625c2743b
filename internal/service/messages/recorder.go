// Package messages maps outbound sends and parsed webhook events onto the
// message store.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/repository"
	"github.com/mamadbah2/wacloud/pkg/whatsapp"
	"github.com/mamadbah2/wacloud/pkg/whatsapp/webhook"
)

const maxContentLength = 4096

// RSVPPayloads are the button payloads (or interactive reply ids) that
// count as an answer to the message being replied to.
type RSVPPayloads struct {
	Approve string
	Decline string
}

// Recorder writes message lifecycle events to a MessageStore.
type Recorder struct {
	store  repository.MessageStore
	rsvp   RSVPPayloads
	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(store repository.MessageStore, rsvp RSVPPayloads, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:  store,
		rsvp:   rsvp,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SaveOutgoingMessage stores a successfully sent request. Failed sends have
// no message id and are not stored.
func (r *Recorder) SaveOutgoingMessage(ctx context.Context, req whatsapp.Request, result whatsapp.SendResult, category models.Category) error {
	if !result.Success || result.MessageID == "" {
		return nil
	}

	content, templateName := describeRequest(req)
	if category == "" {
		category = defaultCategory(req.Kind())
	}

	record := &models.StoredMessageRecord{
		MessageID:    result.MessageID,
		Phone:        req.Recipient(),
		Direction:    models.DirectionOutbound,
		Category:     category,
		MessageType:  string(req.Kind()),
		TemplateName: templateName,
		Content:      truncate(content),
	}
	if err := r.store.Create(ctx, record); err != nil {
		return fmt.Errorf("save outgoing message: %w", err)
	}
	return nil
}

// SaveIncomingMessage stores an inbound message once; redelivered webhooks
// for the same message id are ignored. RSVP replies also stamp the
// referenced outbound message.
func (r *Recorder) SaveIncomingMessage(ctx context.Context, msg *webhook.ParsedMessage) error {
	if msg == nil {
		return nil
	}

	_, err := r.store.FindByMessageID(ctx, msg.ID)
	switch {
	case err == nil:
		r.logger.Debug("inbound message already stored", zap.String("message_id", msg.ID))
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("lookup incoming message: %w", err)
	}

	receivedAt := r.stamp(msg.Timestamp)
	record := &models.StoredMessageRecord{
		MessageID:   msg.ID,
		Phone:       msg.From,
		Direction:   models.DirectionInbound,
		Category:    models.CategoryService,
		MessageType: msg.Type,
		Content:     truncate(describeContent(msg.Content)),
		ReceivedAt:  &receivedAt,
	}
	if msg.Context != nil {
		record.ContextMessageID = msg.Context.ID
	}
	if err := r.store.Create(ctx, record); err != nil {
		return fmt.Errorf("save incoming message: %w", err)
	}

	return r.applyResponse(ctx, msg, receivedAt)
}

// ApplyStatus stamps the delivery stage, then records any error and the
// conversation/pricing metadata. Statuses outside the four lifecycle stages
// are ignored.
func (r *Recorder) ApplyStatus(ctx context.Context, status *webhook.ParsedStatus) error {
	if status == nil {
		return nil
	}

	stage, ok := lifecycleStatus(status.Status)
	if !ok {
		r.logger.Debug("ignoring non-lifecycle status", zap.String("status", string(status.Status)))
		return nil
	}

	if err := r.store.UpdateStatus(ctx, status.MessageID, stage, r.stamp(status.Timestamp)); err != nil {
		return fmt.Errorf("apply %s status: %w", stage, err)
	}

	if status.Error != nil {
		if err := r.store.RecordError(ctx, status.MessageID, status.Error.Code, status.Error.Message); err != nil {
			return fmt.Errorf("record status error: %w", err)
		}
	}

	if update, ok := conversationUpdate(status); ok {
		if err := r.store.UpdateConversation(ctx, status.MessageID, update); err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}
	}
	return nil
}

// Record dispatches a parsed event to the matching save operation.
func (r *Recorder) Record(ctx context.Context, event webhook.ParsedEvent) error {
	switch event.Type {
	case webhook.EventMessage:
		return r.SaveIncomingMessage(ctx, event.Message)
	case webhook.EventStatus:
		return r.ApplyStatus(ctx, event.Status)
	default:
		return nil
	}
}

func (r *Recorder) applyResponse(ctx context.Context, msg *webhook.ParsedMessage, at time.Time) error {
	if msg.Context == nil || msg.Context.ID == "" {
		return nil
	}

	var payload string
	switch c := msg.Content.(type) {
	case webhook.ButtonContent:
		payload = c.Payload
	case webhook.InteractiveContent:
		payload = c.ReplyID
	default:
		return nil
	}

	var response models.Response
	switch {
	case r.rsvp.Approve != "" && payload == r.rsvp.Approve:
		response = models.ResponseApproved
	case r.rsvp.Decline != "" && payload == r.rsvp.Decline:
		response = models.ResponseDeclined
	default:
		return nil
	}

	err := r.store.UpdateResponse(ctx, msg.Context.ID, response, at)
	if errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn("rsvp reply to unknown message", zap.String("context_id", msg.Context.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("record %s response: %w", response, err)
	}
	return nil
}

func (r *Recorder) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return r.now()
	}
	return t
}

func lifecycleStatus(s webhook.StatusType) (models.Status, bool) {
	switch s {
	case webhook.StatusSent:
		return models.StatusSent, true
	case webhook.StatusDelivered:
		return models.StatusDelivered, true
	case webhook.StatusRead:
		return models.StatusRead, true
	case webhook.StatusFailed:
		return models.StatusFailed, true
	default:
		return "", false
	}
}

func conversationUpdate(s *webhook.ParsedStatus) (models.ConversationUpdate, bool) {
	if s.Conversation == nil && s.Pricing == nil {
		return models.ConversationUpdate{}, false
	}

	var u models.ConversationUpdate
	if s.Conversation != nil {
		u.ConversationID = s.Conversation.ID
		u.Origin = models.ConversationOrigin(s.Conversation.Origin)
		u.ExpiresAt = s.Conversation.ExpiresAt
	}
	if s.Pricing != nil {
		u.Category = models.Category(s.Pricing.Category)
		billable := s.Pricing.Billable
		u.Billable = &billable
	}
	return u, true
}

func defaultCategory(kind whatsapp.MessageType) models.Category {
	if kind == whatsapp.TypeTemplate {
		return models.CategoryMarketing
	}
	return models.CategoryService
}

// describeRequest returns the human-readable content of an outbound request
// and, for templates, its name.
func describeRequest(req whatsapp.Request) (content, templateName string) {
	switch p := req.(type) {
	case whatsapp.SendTextParams:
		return p.Body, ""
	case whatsapp.SendTemplateParams:
		var params []string
		for _, c := range p.Components {
			if c.Type != "body" {
				continue
			}
			for _, param := range c.Parameters {
				params = append(params, param.Text)
			}
		}
		return strings.Join(params, " | "), p.TemplateName
	case whatsapp.SendImageParams:
		return mediaSummary(p.Image, p.Caption), ""
	case whatsapp.SendVideoParams:
		return mediaSummary(p.Video, p.Caption), ""
	case whatsapp.SendAudioParams:
		return mediaSummary(p.Audio, ""), ""
	case whatsapp.SendDocumentParams:
		if p.Caption != "" {
			return p.Caption, ""
		}
		if p.Filename != "" {
			return p.Filename, ""
		}
		return mediaSummary(p.Document, ""), ""
	case whatsapp.SendStickerParams:
		return mediaSummary(p.Sticker, ""), ""
	case whatsapp.SendLocationParams:
		return locationSummary(p.Latitude, p.Longitude, p.Name), ""
	case whatsapp.SendReactionParams:
		return p.Emoji, ""
	case whatsapp.SendContactsParams:
		names := make([]string, 0, len(p.Contacts))
		for _, c := range p.Contacts {
			names = append(names, c.Name.FormattedName)
		}
		return strings.Join(names, ", "), ""
	case whatsapp.SendInteractiveButtonsParams:
		return p.Body, ""
	case whatsapp.SendInteractiveListParams:
		return p.Body, ""
	default:
		return "", ""
	}
}

func describeContent(c webhook.MessageContent) string {
	switch v := c.(type) {
	case webhook.TextContent:
		return v.Body
	case webhook.ButtonContent:
		return v.Text
	case webhook.InteractiveContent:
		return v.ReplyTitle
	case webhook.MediaContent:
		if v.Caption != "" {
			return v.Caption
		}
		if v.Filename != "" {
			return v.Filename
		}
		return fmt.Sprintf("[%s %s]", v.MediaType, v.MediaID)
	case webhook.LocationContent:
		return locationSummary(v.Latitude, v.Longitude, v.Name)
	case webhook.StickerContent:
		return fmt.Sprintf("[sticker %s]", v.StickerID)
	case webhook.ReactionContent:
		return v.Emoji
	case webhook.ContactsContent:
		names := make([]string, 0, len(v.Contacts))
		for _, card := range v.Contacts {
			names = append(names, card.FormattedName)
		}
		return strings.Join(names, ", ")
	case webhook.UnknownContent:
		return fmt.Sprintf("[%s]", v.RawType)
	default:
		return ""
	}
}

func mediaSummary(ref whatsapp.MediaRef, caption string) string {
	switch {
	case caption != "":
		return caption
	case ref.Link != "":
		return ref.Link
	default:
		return ref.ID
	}
}

func locationSummary(lat, lng float64, name string) string {
	if name != "" {
		return fmt.Sprintf("%s (%.6f, %.6f)", name, lat, lng)
	}
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxContentLength {
		return s
	}
	return string([]rune(s)[:maxContentLength])
}
