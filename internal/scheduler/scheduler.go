package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/pkg/whatsapp"
)

const jobTimeout = 2 * time.Minute

// DigestService is the reporting surface the digest job needs.
type DigestService interface {
	GenerateDaily(ctx context.Context, end time.Time) (models.DeliveryDigest, error)
	Format(d models.DeliveryDigest) string
	Export(ctx context.Context, d models.DeliveryDigest) error
}

// Sender delivers the formatted digest.
type Sender interface {
	Send(ctx context.Context, req models.OutboundMessageRequest) (whatsapp.SendResult, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	digests  DigestService
	sender   Sender
	cfg      config.ReportingConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance running in cfg.Timezone.
func NewScheduler(cfg config.ReportingConfig, digests DigestService, sender Sender, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
		digests:  digests,
		sender:   sender,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start registers the digest job and starts the cron loop. The job is
// skipped when no recipient is configured.
func (s *Scheduler) Start() error {
	if s.cfg.Recipient == "" {
		s.logger.Info("digest recipient not configured; scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendDigest); err != nil {
		return fmt.Errorf("schedule digest %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunDigest(ctx); err != nil {
		s.logger.Error("digest job failed", zap.Error(err))
	}
}

// RunDigest generates today's digest, sends it to the configured recipient
// and exports it. Export failures are logged; they do not fail the job.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	s.logger.Info("generating delivery digest")

	digest, err := s.digests.GenerateDaily(ctx, s.now().In(s.location))
	if err != nil {
		return fmt.Errorf("generate digest: %w", err)
	}

	req := models.OutboundMessageRequest{
		To:       s.cfg.Recipient,
		Type:     string(whatsapp.TypeText),
		Category: models.CategoryUtility,
		Text:     &models.TextPayload{Body: s.digests.Format(digest)},
	}

	result, err := s.sender.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	if !result.Success {
		if result.Error != nil {
			return fmt.Errorf("send digest: %w", result.Error)
		}
		return errors.New("send digest: rejected")
	}
	s.logger.Info("digest sent", zap.String("message_id", result.MessageID))

	if err := s.digests.Export(ctx, digest); err != nil {
		s.logger.Warn("failed to export digest", zap.Error(err))
	}
	return nil
}
