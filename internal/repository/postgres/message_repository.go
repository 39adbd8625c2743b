package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/repository"
)

// DBTX is the subset of *pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema creates the whatsapp_messages table and its lookup indexes.
const Schema = `CREATE TABLE IF NOT EXISTS whatsapp_messages (
	id BIGSERIAL PRIMARY KEY,
	message_id VARCHAR(255) NOT NULL UNIQUE,
	contact_id BIGINT,
	phone VARCHAR(20) NOT NULL,
	direction VARCHAR(10) NOT NULL,
	category VARCHAR(20),
	message_type VARCHAR(20) NOT NULL,
	template_name VARCHAR(100),
	message_content VARCHAR(4096),
	context_message_id VARCHAR(255),
	conversation_id VARCHAR(255),
	conversation_origin VARCHAR(32),
	conversation_expires_at TIMESTAMPTZ,
	billable BOOLEAN,
	error_code INTEGER,
	error_message TEXT,
	sent_at TIMESTAMPTZ,
	delivered_at TIMESTAMPTZ,
	read_at TIMESTAMPTZ,
	failed_at TIMESTAMPTZ,
	approved_at TIMESTAMPTZ,
	declined_at TIMESTAMPTZ,
	received_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS whatsapp_messages_contact_id_idx ON whatsapp_messages (contact_id);
CREATE INDEX IF NOT EXISTS whatsapp_messages_phone_idx ON whatsapp_messages (phone);
CREATE INDEX IF NOT EXISTS whatsapp_messages_direction_idx ON whatsapp_messages (direction);
CREATE INDEX IF NOT EXISTS whatsapp_messages_category_idx ON whatsapp_messages (category);
CREATE INDEX IF NOT EXISTS whatsapp_messages_conversation_id_idx ON whatsapp_messages (conversation_id);`

const (
	insertMessage = `INSERT INTO whatsapp_messages (message_id, contact_id, phone, direction, category, message_type, template_name, message_content, context_message_id, sent_at, received_at) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11) RETURNING id, created_at, updated_at`

	selectMessage = `SELECT id, message_id, contact_id, phone, direction, COALESCE(category, ''), message_type, COALESCE(template_name, ''), COALESCE(message_content, ''), COALESCE(context_message_id, ''), COALESCE(conversation_id, ''), COALESCE(conversation_origin, ''), conversation_expires_at, billable, error_code, COALESCE(error_message, ''), sent_at, delivered_at, read_at, failed_at, approved_at, declined_at, received_at, created_at, updated_at FROM whatsapp_messages WHERE message_id = $1 LIMIT 1`

	markSent      = `UPDATE whatsapp_messages SET sent_at = COALESCE(sent_at, $2), updated_at = now() WHERE message_id = $1`
	markDelivered = `UPDATE whatsapp_messages SET sent_at = COALESCE(sent_at, $2), delivered_at = COALESCE(delivered_at, $2), updated_at = now() WHERE message_id = $1`
	markRead      = `UPDATE whatsapp_messages SET sent_at = COALESCE(sent_at, $2), delivered_at = COALESCE(delivered_at, $2), read_at = COALESCE(read_at, $2), updated_at = now() WHERE message_id = $1`
	markFailed    = `UPDATE whatsapp_messages SET failed_at = COALESCE(failed_at, $2), updated_at = now() WHERE message_id = $1`

	markApproved = `UPDATE whatsapp_messages SET approved_at = COALESCE(approved_at, $2), updated_at = now() WHERE message_id = $1`
	markDeclined = `UPDATE whatsapp_messages SET declined_at = COALESCE(declined_at, $2), updated_at = now() WHERE message_id = $1`

	recordError = `UPDATE whatsapp_messages SET error_code = $2, error_message = $3, updated_at = now() WHERE message_id = $1`

	updateConversation = `UPDATE whatsapp_messages SET conversation_id = COALESCE(NULLIF($2, ''), conversation_id), conversation_origin = COALESCE(NULLIF($3, ''), conversation_origin), conversation_expires_at = COALESCE($4, conversation_expires_at), category = COALESCE(NULLIF($5, ''), category), billable = COALESCE($6, billable), updated_at = now() WHERE message_id = $1`

	countByStatus = `SELECT COUNT(*) FILTER (WHERE direction = 'outbound'), COUNT(sent_at), COUNT(delivered_at), COUNT(read_at), COUNT(failed_at), COUNT(approved_at), COUNT(declined_at), COUNT(*) FILTER (WHERE direction = 'inbound') FROM whatsapp_messages WHERE created_at >= $1 AND created_at < $2`
)

// MessageRepository is the Postgres MessageStore.
type MessageRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewMessageRepository wraps a pool (or anything shaped like one).
func NewMessageRepository(db DBTX, logger *zap.Logger) *MessageRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageRepository{db: db, logger: logger}
}

// NewDBPool opens and pings a pgx connection pool.
func NewDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema applies Schema. It is idempotent.
func (r *MessageRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply whatsapp_messages schema: %w", err)
	}
	return nil
}

// Create inserts record and fills its generated id and timestamps.
func (r *MessageRepository) Create(ctx context.Context, record *models.StoredMessageRecord) error {
	row := r.db.QueryRow(ctx, insertMessage,
		record.MessageID,
		record.ContactID,
		record.Phone,
		string(record.Direction),
		string(record.Category),
		record.MessageType,
		record.TemplateName,
		record.Content,
		record.ContextMessageID,
		record.SentAt,
		record.ReceivedAt,
	)
	if err := row.Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert message %s: %w", record.MessageID, err)
	}
	return nil
}

func (r *MessageRepository) FindByMessageID(ctx context.Context, messageID string) (*models.StoredMessageRecord, error) {
	var (
		rec       models.StoredMessageRecord
		direction string
		category  string
		origin    string
	)
	err := r.db.QueryRow(ctx, selectMessage, messageID).Scan(
		&rec.ID,
		&rec.MessageID,
		&rec.ContactID,
		&rec.Phone,
		&direction,
		&category,
		&rec.MessageType,
		&rec.TemplateName,
		&rec.Content,
		&rec.ContextMessageID,
		&rec.ConversationID,
		&origin,
		&rec.ConversationExpiresAt,
		&rec.Billable,
		&rec.ErrorCode,
		&rec.ErrorMessage,
		&rec.SentAt,
		&rec.DeliveredAt,
		&rec.ReadAt,
		&rec.FailedAt,
		&rec.ApprovedAt,
		&rec.DeclinedAt,
		&rec.ReceivedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load message %s: %w", messageID, err)
	}
	rec.Direction = models.Direction(direction)
	rec.Category = models.Category(category)
	rec.ConversationOrigin = models.ConversationOrigin(origin)
	return &rec, nil
}

// UpdateStatus stamps the lifecycle column of status, backfilling earlier
// stages. Failed only touches failed_at.
func (r *MessageRepository) UpdateStatus(ctx context.Context, messageID string, status models.Status, at time.Time) error {
	var query string
	switch status {
	case models.StatusSent:
		query = markSent
	case models.StatusDelivered:
		query = markDelivered
	case models.StatusRead:
		query = markRead
	case models.StatusFailed:
		query = markFailed
	default:
		return fmt.Errorf("unknown message status %q", status)
	}
	return r.execUpdate(ctx, "status "+string(status), query, messageID, at)
}

func (r *MessageRepository) UpdateResponse(ctx context.Context, messageID string, response models.Response, at time.Time) error {
	var query string
	switch response {
	case models.ResponseApproved:
		query = markApproved
	case models.ResponseDeclined:
		query = markDeclined
	default:
		return fmt.Errorf("unknown response %q", response)
	}
	return r.execUpdate(ctx, "response "+string(response), query, messageID, at)
}

func (r *MessageRepository) RecordError(ctx context.Context, messageID string, code int, message string) error {
	return r.execUpdate(ctx, "error", recordError, messageID, code, message)
}

func (r *MessageRepository) UpdateConversation(ctx context.Context, messageID string, update models.ConversationUpdate) error {
	return r.execUpdate(ctx, "conversation", updateConversation, messageID,
		update.ConversationID,
		string(update.Origin),
		update.ExpiresAt,
		string(update.Category),
		update.Billable,
	)
}

// CountByStatus tallies rows created in [from, to).
func (r *MessageRepository) CountByStatus(ctx context.Context, from, to time.Time) (models.DeliveryCounts, error) {
	var c models.DeliveryCounts
	err := r.db.QueryRow(ctx, countByStatus, from, to).Scan(
		&c.Total, &c.Sent, &c.Delivered, &c.Read, &c.Failed, &c.Approved, &c.Declined, &c.Inbound,
	)
	if err != nil {
		return models.DeliveryCounts{}, fmt.Errorf("failed to count messages: %w", err)
	}
	return c, nil
}

func (r *MessageRepository) execUpdate(ctx context.Context, what, query, messageID string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, append([]any{messageID}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update %s of message %s: %w", what, messageID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Debug("no stored message to update", zap.String("message_id", messageID), zap.String("update", what))
		return repository.ErrNotFound
	}
	return nil
}
