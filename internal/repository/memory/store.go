// Package memory is a process-local MessageStore for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/repository"
)

type Store struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[string]*models.StoredMessageRecord
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		byID: make(map[string]*models.StoredMessageRecord),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Create(_ context.Context, record *models.StoredMessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.MessageID]; exists {
		return fmt.Errorf("message %s already stored", record.MessageID)
	}
	s.nextID++
	now := s.now()
	record.ID = s.nextID
	record.CreatedAt = now
	record.UpdatedAt = now

	stored := *record
	s.byID[record.MessageID] = &stored
	return nil
}

// FindByMessageID returns a copy; callers cannot mutate stored rows.
func (s *Store) FindByMessageID(_ context.Context, messageID string) (*models.StoredMessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[messageID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *Store) UpdateStatus(_ context.Context, messageID string, status models.Status, at time.Time) error {
	return s.update(messageID, func(rec *models.StoredMessageRecord) error {
		switch status {
		case models.StatusRead:
			fill(&rec.ReadAt, at)
			fallthrough
		case models.StatusDelivered:
			fill(&rec.DeliveredAt, at)
			fallthrough
		case models.StatusSent:
			fill(&rec.SentAt, at)
		case models.StatusFailed:
			fill(&rec.FailedAt, at)
		default:
			return fmt.Errorf("unknown message status %q", status)
		}
		return nil
	})
}

func (s *Store) UpdateResponse(_ context.Context, messageID string, response models.Response, at time.Time) error {
	return s.update(messageID, func(rec *models.StoredMessageRecord) error {
		switch response {
		case models.ResponseApproved:
			fill(&rec.ApprovedAt, at)
		case models.ResponseDeclined:
			fill(&rec.DeclinedAt, at)
		default:
			return fmt.Errorf("unknown response %q", response)
		}
		return nil
	})
}

func (s *Store) RecordError(_ context.Context, messageID string, code int, message string) error {
	return s.update(messageID, func(rec *models.StoredMessageRecord) error {
		rec.ErrorCode = &code
		rec.ErrorMessage = message
		return nil
	})
}

func (s *Store) UpdateConversation(_ context.Context, messageID string, u models.ConversationUpdate) error {
	return s.update(messageID, func(rec *models.StoredMessageRecord) error {
		if u.ConversationID != "" {
			rec.ConversationID = u.ConversationID
		}
		if u.Origin != "" {
			rec.ConversationOrigin = u.Origin
		}
		if u.ExpiresAt != nil {
			expires := *u.ExpiresAt
			rec.ConversationExpiresAt = &expires
		}
		if u.Category != "" {
			rec.Category = u.Category
		}
		if u.Billable != nil {
			billable := *u.Billable
			rec.Billable = &billable
		}
		return nil
	})
}

func (s *Store) CountByStatus(_ context.Context, from, to time.Time) (models.DeliveryCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c models.DeliveryCounts
	for _, rec := range s.byID {
		if rec.CreatedAt.Before(from) || !rec.CreatedAt.Before(to) {
			continue
		}
		if rec.Direction == models.DirectionInbound {
			c.Inbound++
			continue
		}
		c.Total++
		c.Sent += set(rec.SentAt)
		c.Delivered += set(rec.DeliveredAt)
		c.Read += set(rec.ReadAt)
		c.Failed += set(rec.FailedAt)
		c.Approved += set(rec.ApprovedAt)
		c.Declined += set(rec.DeclinedAt)
	}
	return c, nil
}

func (s *Store) update(messageID string, apply func(*models.StoredMessageRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[messageID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := apply(rec); err != nil {
		return err
	}
	rec.UpdatedAt = s.now()
	return nil
}

func fill(col **time.Time, at time.Time) {
	if *col == nil {
		t := at
		*col = &t
	}
}

func set(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return 1
}
