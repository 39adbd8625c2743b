package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/pkg/whatsapp"
)

type fakeDigests struct {
	ends      []time.Time
	exported  int
	exportErr error
}

func (f *fakeDigests) GenerateDaily(_ context.Context, end time.Time) (models.DeliveryDigest, error) {
	f.ends = append(f.ends, end)
	return models.DeliveryDigest{Counts: models.DeliveryCounts{Total: 3}}, nil
}

func (f *fakeDigests) Format(d models.DeliveryDigest) string {
	return "digest"
}

func (f *fakeDigests) Export(context.Context, models.DeliveryDigest) error {
	f.exported++
	return f.exportErr
}

type fakeSender struct {
	reqs   []models.OutboundMessageRequest
	result whatsapp.SendResult
	err    error
}

func (f *fakeSender) Send(_ context.Context, req models.OutboundMessageRequest) (whatsapp.SendResult, error) {
	f.reqs = append(f.reqs, req)
	return f.result, f.err
}

func reportingConfig() config.ReportingConfig {
	return config.ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC", Recipient: "224620000000"}
}

func TestRunDigestSendsAndExports(t *testing.T) {
	digests := &fakeDigests{}
	sender := &fakeSender{result: whatsapp.SendResult{Success: true, MessageID: "wamid.D"}}

	s, err := NewScheduler(reportingConfig(), digests, sender, zap.NewNop())
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 2, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.RunDigest(context.Background()))

	require.Len(t, sender.reqs, 1)
	req := sender.reqs[0]
	assert.Equal(t, "224620000000", req.To)
	assert.Equal(t, "text", req.Type)
	assert.Equal(t, models.CategoryUtility, req.Category)
	assert.Equal(t, "digest", req.Text.Body)

	require.Len(t, digests.ends, 1)
	assert.Equal(t, time.UTC, digests.ends[0].Location())
	assert.Equal(t, 1, digests.exported)
}

func TestRunDigestRejectedSend(t *testing.T) {
	digests := &fakeDigests{}
	sender := &fakeSender{result: whatsapp.SendResult{Error: &whatsapp.APIError{Code: 131047, Message: "re-engagement required"}}}

	s, err := NewScheduler(reportingConfig(), digests, sender, nil)
	require.NoError(t, err)

	err = s.RunDigest(context.Background())
	require.ErrorContains(t, err, "re-engagement required")
	assert.Zero(t, digests.exported)
}

func TestRunDigestExportFailureIsNotFatal(t *testing.T) {
	digests := &fakeDigests{exportErr: errors.New("sheets down")}
	sender := &fakeSender{result: whatsapp.SendResult{Success: true, MessageID: "wamid.D"}}

	s, err := NewScheduler(reportingConfig(), digests, sender, nil)
	require.NoError(t, err)
	require.NoError(t, s.RunDigest(context.Background()))
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	cfg := reportingConfig()
	cfg.Timezone = "Mars/Olympus"

	_, err := NewScheduler(cfg, &fakeDigests{}, &fakeSender{}, nil)
	require.Error(t, err)
}

func TestStartValidatesSchedule(t *testing.T) {
	cfg := reportingConfig()
	cfg.CronSchedule = "every tuesday"

	s, err := NewScheduler(cfg, &fakeDigests{}, &fakeSender{}, nil)
	require.NoError(t, err)
	require.Error(t, s.Start())
}

func TestStartIdleWithoutRecipient(t *testing.T) {
	cfg := reportingConfig()
	cfg.Recipient = ""

	s, err := NewScheduler(cfg, &fakeDigests{}, &fakeSender{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()
}
