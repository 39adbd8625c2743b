package whatsapp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/repository"
	"github.com/mamadbah2/wacloud/internal/repository/memory"
	"github.com/mamadbah2/wacloud/internal/service/messages"
	"github.com/mamadbah2/wacloud/pkg/whatsapp"
	"github.com/mamadbah2/wacloud/pkg/whatsapp/webhook"
)

var _ MessagingService = (*MetaWhatsAppService)(nil)

type fakeClient struct {
	mu       sync.Mutex
	sent     []whatsapp.Request
	read     []string
	reject   map[string]bool
	failWith error
	nextID   int
}

func (f *fakeClient) Send(_ context.Context, req whatsapp.Request) (whatsapp.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return whatsapp.SendResult{}, f.failWith
	}
	f.sent = append(f.sent, req)
	if f.reject[req.Recipient()] {
		return whatsapp.SendResult{Error: &whatsapp.APIError{Code: 131026, Message: "undeliverable"}}, nil
	}
	f.nextID++
	return whatsapp.SendResult{Success: true, MessageID: "wamid.OUT" + string(rune('0'+f.nextID))}, nil
}

func (f *fakeClient) MarkAsRead(_ context.Context, messageID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, messageID)
	return true
}

const appSecret = "shh"

func newService(t *testing.T, cfg config.WhatsAppConfig) (*MetaWhatsAppService, *fakeClient, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	client := &fakeClient{reject: map[string]bool{}}
	recorder := messages.NewRecorder(store, messages.RSVPPayloads{Approve: "approve", Decline: "decline"}, zap.NewNop())
	svc := NewMetaWhatsAppService(cfg, config.BatchConfig{Size: 2}, client, recorder, store, zap.NewNop())
	return svc, client, store
}

const inboundPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550000000", "phone_number_id": "PNID"},
        "contacts": [{"profile": {"name": "Awa"}, "wa_id": "224620000000"}],
        "messages": [{
          "from": "224620000000",
          "id": "wamid.IN1",
          "timestamp": "1700000000",
          "type": "text",
          "text": {"body": "hello"}
        }]
      }
    }]
  }]
}`

func statusPayload(id, status string) []byte {
	return []byte(`{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550000000", "phone_number_id": "PNID"},
        "statuses": [{"id": "` + id + `", "status": "` + status + `", "timestamp": "1700000100", "recipient_id": "224620000000"}]
      }
    }]
  }]
}`)
}

func TestVerifyWebhook(t *testing.T) {
	svc, _, _ := newService(t, config.WhatsAppConfig{VerifyToken: "tok"})

	ok := svc.VerifyWebhook(webhook.VerifyParams{Mode: "subscribe", Token: "tok", Challenge: "42"})
	assert.True(t, ok.Valid)
	assert.Equal(t, "42", ok.Challenge)

	bad := svc.VerifyWebhook(webhook.VerifyParams{Mode: "subscribe", Token: "nope", Challenge: "42"})
	assert.False(t, bad.Valid)
	assert.Empty(t, bad.Challenge)
}

func TestHandleWebhookStoresInboundAndMarksRead(t *testing.T) {
	ctx := context.Background()
	svc, client, store := newService(t, config.WhatsAppConfig{AppSecret: appSecret, MarkRead: true})

	body := []byte(inboundPayload)
	require.NoError(t, svc.HandleWebhook(ctx, body, webhook.Sign(body, appSecret)))

	rec, err := store.FindByMessageID(ctx, "wamid.IN1")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionInbound, rec.Direction)
	assert.Equal(t, "hello", rec.Content)
	assert.Equal(t, []string{"wamid.IN1"}, client.read)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc, _, store := newService(t, config.WhatsAppConfig{AppSecret: appSecret})

	err := svc.HandleWebhook(context.Background(), []byte(inboundPayload), "sha256=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = store.FindByMessageID(context.Background(), "wamid.IN1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHandleWebhookWithoutSecretSkipsSignature(t *testing.T) {
	svc, client, _ := newService(t, config.WhatsAppConfig{})

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(inboundPayload), ""))
	assert.Empty(t, client.read)
}

func TestHandleWebhookInvalidJSON(t *testing.T) {
	svc, _, _ := newService(t, config.WhatsAppConfig{})

	err := svc.HandleWebhook(context.Background(), []byte("{not json"), "")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHandleWebhookStatusForUnknownMessageIsNotAnError(t *testing.T) {
	svc, _, _ := newService(t, config.WhatsAppConfig{})

	require.NoError(t, svc.HandleWebhook(context.Background(), statusPayload("wamid.GHOST", "delivered"), ""))
}

func TestSendRecordsAcceptedMessagesAndStatuses(t *testing.T) {
	ctx := context.Background()
	svc, client, store := newService(t, config.WhatsAppConfig{})

	result, err := svc.Send(ctx, models.OutboundMessageRequest{
		To:   "224620000000",
		Type: "text",
		Text: &models.TextPayload{Body: "Your order shipped"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, client.sent, 1)

	rec, err := store.FindByMessageID(ctx, result.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryService, rec.Category)
	assert.Nil(t, rec.DeliveredAt)

	require.NoError(t, svc.HandleWebhook(ctx, statusPayload(result.MessageID, "read"), ""))

	rec, err = svc.GetMessage(ctx, result.MessageID)
	require.NoError(t, err)
	want := time.Unix(1700000100, 0).UTC()
	require.NotNil(t, rec.ReadAt)
	assert.Equal(t, want, rec.ReadAt.UTC())
	assert.NotNil(t, rec.DeliveredAt)
	assert.NotNil(t, rec.SentAt)
}

func TestSendRejectedIsNotStored(t *testing.T) {
	ctx := context.Background()
	svc, client, store := newService(t, config.WhatsAppConfig{})
	client.reject["000"] = true

	result, err := svc.Send(ctx, models.OutboundMessageRequest{To: "000", Type: "text", Text: &models.TextPayload{Body: "x"}})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, 131026, result.Error.Code)

	counts, err := store.CountByStatus(ctx, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
}

func TestSendInvalidRequest(t *testing.T) {
	svc, client, _ := newService(t, config.WhatsAppConfig{})

	_, err := svc.Send(context.Background(), models.OutboundMessageRequest{To: "1", Type: "text"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, client.sent)
}

func TestSendTransportError(t *testing.T) {
	svc, client, _ := newService(t, config.WhatsAppConfig{})
	client.failWith = errors.New("connection refused")

	_, err := svc.Send(context.Background(), models.OutboundMessageRequest{To: "1", Type: "text", Text: &models.TextPayload{Body: "x"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()
	svc, client, store := newService(t, config.WhatsAppConfig{})
	client.reject["2"] = true

	result, err := svc.Broadcast(ctx, models.BroadcastRequest{
		Recipients: []string{"1", "2", "3"},
		Template:   models.TemplatePayload{Name: "promo", BodyParams: []string{"20%"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[1].Success)

	for _, req := range client.sent {
		tpl, ok := req.(whatsapp.SendTemplateParams)
		require.True(t, ok)
		assert.Equal(t, "promo", tpl.TemplateName)
	}

	rec, err := store.FindByMessageID(ctx, result.Results[0].MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryMarketing, rec.Category)
}

func TestBroadcastRequiresTemplateName(t *testing.T) {
	svc, client, _ := newService(t, config.WhatsAppConfig{})

	_, err := svc.Broadcast(context.Background(), models.BroadcastRequest{Recipients: []string{"1"}})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, client.sent)
}

func TestHandleWebhookKeepsSiblingsOfMalformedMessage(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newService(t, config.WhatsAppConfig{AppSecret: appSecret})

	body := []byte(`{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550000000", "phone_number_id": "PNID"},
        "messages": [
          {"from": "224", "id": "wamid.GOOD", "timestamp": "1700000000", "type": "text", "text": {"body": "hi"}},
          {"from": "224", "id": "wamid.BAD", "timestamp": 1700000000, "type": "location", "location": {"latitude": "12.5"}}
        ]
      }
    }]
  }]
}`)
	require.NoError(t, svc.HandleWebhook(ctx, body, webhook.Sign(body, appSecret)))

	good, err := store.FindByMessageID(ctx, "wamid.GOOD")
	require.NoError(t, err)
	assert.Equal(t, "hi", good.Content)

	bad, err := store.FindByMessageID(ctx, "wamid.BAD")
	require.NoError(t, err)
	assert.Equal(t, "location", bad.MessageType)
}

func TestBatchDelay(t *testing.T) {
	assert.Less(t, batchDelay(0), time.Duration(0))
	assert.Equal(t, 250*time.Millisecond, batchDelay(250*time.Millisecond))
}
