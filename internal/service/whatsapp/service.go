package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/metrics"
	"github.com/mamadbah2/wacloud/internal/repository"
	"github.com/mamadbah2/wacloud/pkg/whatsapp"
	"github.com/mamadbah2/wacloud/pkg/whatsapp/webhook"
)

const sendTimeout = 10 * time.Second

var (
	// ErrInvalidSignature means the webhook body does not match X-Hub-Signature-256.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrInvalidRequest wraps every caller-side validation failure.
	ErrInvalidRequest = errors.New("invalid request")
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhook(params webhook.VerifyParams) webhook.VerifyResult
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	Send(ctx context.Context, req models.OutboundMessageRequest) (whatsapp.SendResult, error)
	Broadcast(ctx context.Context, req models.BroadcastRequest) (whatsapp.BatchResult, error)
	GetMessage(ctx context.Context, messageID string) (*models.StoredMessageRecord, error)
}

// Client is the part of the Cloud API client the service needs.
type Client interface {
	Send(ctx context.Context, req whatsapp.Request) (whatsapp.SendResult, error)
	MarkAsRead(ctx context.Context, messageID string) bool
}

// Recorder persists outbound sends and webhook events.
type Recorder interface {
	SaveOutgoingMessage(ctx context.Context, req whatsapp.Request, result whatsapp.SendResult, category models.Category) error
	Record(ctx context.Context, event webhook.ParsedEvent) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg      config.WhatsAppConfig
	batch    config.BatchConfig
	client   Client
	recorder Recorder
	store    repository.MessageStore
	logger   *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, batch config.BatchConfig, client Client, recorder Recorder, store repository.MessageStore, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:      cfg,
		batch:    batch,
		client:   client,
		recorder: recorder,
		store:    store,
		logger:   logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhook answers the subscription handshake.
func (s *MetaWhatsAppService) VerifyWebhook(params webhook.VerifyParams) webhook.VerifyResult {
	result := webhook.Verify(params, s.cfg.VerifyToken)
	if !result.Valid {
		s.logger.Warn("webhook verification rejected", zap.String("mode", params.Mode))
	}
	return result
}

// HandleWebhook checks the signature (when an app secret is configured),
// parses the body and records every event. Recording continues past
// individual failures; the first unexpected one is returned.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.cfg.AppSecret != "" && !webhook.VerifySignature(body, signature, s.cfg.AppSecret) {
		metrics.SignatureFailure()
		return ErrInvalidSignature
	}

	events, err := webhook.ParseBytes(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var firstErr error

	for _, event := range events {
		metrics.WebhookEvent(string(event.Type))

		switch event.Type {
		case webhook.EventStatus:
			metrics.StatusUpdate(string(event.Status.Status))
		case webhook.EventUnknown:
			s.logger.Debug("ignoring webhook change", zap.String("field", event.Field))
			continue
		}

		if err := s.recorder.Record(ctx, event); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Debug("webhook event for unknown message", zap.String("type", string(event.Type)), zap.Error(err))
			} else {
				s.logger.Error("failed to record webhook event", zap.String("type", string(event.Type)), zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		if event.Type == webhook.EventMessage && s.cfg.MarkRead {
			if !s.client.MarkAsRead(ctx, event.Message.ID) {
				s.logger.Warn("failed to mark message as read", zap.String("message_id", event.Message.ID))
			}
		}
	}

	return firstErr
}

// Send delivers one typed outbound message and records it when accepted.
func (s *MetaWhatsAppService) Send(ctx context.Context, req models.OutboundMessageRequest) (whatsapp.SendResult, error) {
	request, err := req.ToRequest()
	if err != nil {
		return whatsapp.SendResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.sendAndRecord(ctx, request, req.Category)
}

// Broadcast sends one template to every recipient, throttled by the batch
// settings.
func (s *MetaWhatsAppService) Broadcast(ctx context.Context, req models.BroadcastRequest) (whatsapp.BatchResult, error) {
	if req.Template.Name == "" {
		return whatsapp.BatchResult{}, fmt.Errorf("%w: template name is required", ErrInvalidRequest)
	}

	category := req.Category
	if category == "" {
		category = models.CategoryMarketing
	}

	s.logger.Info("broadcast started",
		zap.String("template", req.Template.Name),
		zap.Int("recipients", len(req.Recipients)))

	result, err := whatsapp.BatchSend(ctx, req.Recipients,
		func(ctx context.Context, to string) (whatsapp.SendResult, error) {
			return s.sendAndRecord(ctx, req.Template.ToParams(to), category)
		},
		whatsapp.BatchOptions[string]{
			BatchSize: s.batch.Size,
			Delay:     batchDelay(s.batch.Delay),
			OnProgress: func(completed, total int) {
				s.logger.Debug("broadcast progress", zap.Int("completed", completed), zap.Int("total", total))
			},
			OnError: func(result whatsapp.SendResult, to string, index int) {
				s.logger.Warn("broadcast recipient rejected",
					zap.String("to", to),
					zap.Int("index", index),
					zap.Int("code", result.Error.Code),
					zap.String("reason", result.Error.Message))
			},
		})
	if err != nil {
		return result, fmt.Errorf("broadcast %s: %w", req.Template.Name, err)
	}

	s.logger.Info("broadcast finished",
		zap.String("template", req.Template.Name),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *MetaWhatsAppService) GetMessage(ctx context.Context, messageID string) (*models.StoredMessageRecord, error) {
	return s.store.FindByMessageID(ctx, messageID)
}

func (s *MetaWhatsAppService) sendAndRecord(ctx context.Context, request whatsapp.Request, category models.Category) (whatsapp.SendResult, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	kind := string(request.Kind())
	result, err := s.client.Send(ctxWithTimeout, request)
	if err != nil {
		metrics.MessageSent(kind, metrics.ResultError)
		return whatsapp.SendResult{}, err
	}
	if !result.Success {
		metrics.MessageSent(kind, metrics.ResultRejected)
		return result, nil
	}
	metrics.MessageSent(kind, metrics.ResultSuccess)

	// The message is already out; a storage failure must not turn it into a send failure.
	if err := s.recorder.SaveOutgoingMessage(ctx, request, result, category); err != nil {
		s.logger.Error("failed to record outgoing message", zap.String("message_id", result.MessageID), zap.Error(err))
	}
	return result, nil
}

// batchDelay maps BATCH_DELAY_MS=0 to "no pause"; BatchSend reads a zero
// Delay as its default.
func batchDelay(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// OnAPIError logs API rejections; it is handed to the client as its error observer.
func OnAPIError(logger *zap.Logger) whatsapp.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ec whatsapp.ErrorContext) {
		logger.Warn("whatsapp api rejected message",
			zap.Int("code", ec.Code),
			zap.String("message", ec.Message),
			zap.String("to", ec.Recipient),
			zap.String("type", string(ec.MessageType)))
	}
}
