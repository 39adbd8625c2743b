package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/wacloud/internal/domain/models"
)

// ErrNotFound is returned when no stored message matches the message id.
var ErrNotFound = errors.New("message not found")

// MessageStore persists StoredMessageRecords keyed by message id. Lifecycle
// columns are only ever filled in: setting a later stage also fills any
// earlier stage that is still empty, and an already-set column keeps its
// first value.
type MessageStore interface {
	Create(ctx context.Context, record *models.StoredMessageRecord) error
	FindByMessageID(ctx context.Context, messageID string) (*models.StoredMessageRecord, error)
	UpdateStatus(ctx context.Context, messageID string, status models.Status, at time.Time) error
	UpdateResponse(ctx context.Context, messageID string, response models.Response, at time.Time) error
	RecordError(ctx context.Context, messageID string, code int, message string) error
	UpdateConversation(ctx context.Context, messageID string, update models.ConversationUpdate) error
	CountByStatus(ctx context.Context, from, to time.Time) (models.DeliveryCounts, error)
}
