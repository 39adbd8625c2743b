package reporting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/repository"
	repo "github.com/mamadbah2/wacloud/internal/repository/sheets"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Service aggregates stored messages into delivery digests.
type Service struct {
	store  repository.MessageStore
	sheets repo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. sheets may be nil, in
// which case Export is a no-op.
func NewService(store repository.MessageStore, sheets repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		sheets: sheets,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate counts messages created in [from, to).
func (s *Service) Generate(ctx context.Context, from, to time.Time) (models.DeliveryDigest, error) {
	if !to.After(from) {
		return models.DeliveryDigest{}, fmt.Errorf("digest window is empty: %s to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	counts, err := s.store.CountByStatus(ctx, from, to)
	if err != nil {
		return models.DeliveryDigest{}, fmt.Errorf("count messages: %w", err)
	}

	return models.DeliveryDigest{
		From:        from,
		To:          to,
		Counts:      counts,
		GeneratedAt: s.now(),
	}, nil
}

// GenerateDaily builds the digest for the calendar day (in end's location)
// that end falls in. An end at exactly midnight closes the previous day.
func (s *Service) GenerateDaily(ctx context.Context, end time.Time) (models.DeliveryDigest, error) {
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	if !end.Equal(to) {
		to = to.AddDate(0, 0, 1)
	}
	return s.Generate(ctx, to.AddDate(0, 0, -1), to)
}

// Format renders a digest as a WhatsApp-friendly text message.
func (s *Service) Format(d models.DeliveryDigest) string {
	c := d.Counts
	var b strings.Builder

	fmt.Fprintf(&b, "*Delivery digest* (%s to %s)\n", d.From.Format(dateTimeLayout), d.To.Format(dateTimeLayout))

	if c.Total == 0 && c.Inbound == 0 {
		b.WriteString("No messages in this period.")
		return b.String()
	}

	fmt.Fprintf(&b, "Sent: %d\n", c.Total)
	fmt.Fprintf(&b, "Delivered: %d (%s)\n", c.Delivered, percent(c.Delivered, c.Total))
	fmt.Fprintf(&b, "Read: %d (%s of delivered)\n", c.Read, percent(c.Read, c.Delivered))
	fmt.Fprintf(&b, "Failed: %d\n", c.Failed)
	if c.Approved > 0 || c.Declined > 0 {
		fmt.Fprintf(&b, "RSVP: %d approved, %d declined\n", c.Approved, c.Declined)
	}
	fmt.Fprintf(&b, "Received: %d", c.Inbound)

	return b.String()
}

// Export appends the digest as one row of the Digests sheet.
func (s *Service) Export(ctx context.Context, d models.DeliveryDigest) error {
	if s.sheets == nil {
		return nil
	}

	c := d.Counts
	row := []interface{}{
		d.From.Format(dateLayout),
		d.To.Format(dateLayout),
		c.Total,
		c.Sent,
		c.Delivered,
		c.Read,
		c.Failed,
		c.Approved,
		c.Declined,
		c.Inbound,
		round(d.ReadRate()*100, 2),
	}

	if err := s.sheets.AppendDigest(ctx, row); err != nil {
		return fmt.Errorf("export digest: %w", err)
	}

	s.logger.Debug("digest exported", zap.String("from", d.From.Format(dateLayout)), zap.Int64("total", c.Total))
	return nil
}

func percent(part, whole int64) string {
	if whole == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
