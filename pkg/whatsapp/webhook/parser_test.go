package webhook

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageEnvelope(messageJSON string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "WABA_ID",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "15550000000", "phone_number_id": "PNID"},
					"contacts": [{"profile": {"name": "Mamadou"}, "wa_id": "224620000000"}],
					"messages": [%s]
				}
			}]
		}]
	}`, messageJSON))
}

func parseSingleMessage(t *testing.T, messageJSON string) *ParsedMessage {
	t.Helper()
	events, err := ParseBytes(messageEnvelope(messageJSON))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventMessage, events[0].Type)
	require.NotNil(t, events[0].Message)
	return events[0].Message
}

func TestParseMessageEnvelope(t *testing.T) {
	events, err := ParseBytes(messageEnvelope(`{
		"from": "224620000000", "id": "wamid.IN1", "timestamp": "1700000000", "type": "text",
		"context": {"from": "15550000000", "id": "wamid.OUT1"},
		"text": {"body": "hello"}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, EventMessage, ev.Type)
	assert.Equal(t, "PNID", ev.PhoneNumberID)
	require.NotNil(t, ev.Contact)
	assert.Equal(t, ParsedContact{Name: "Mamadou", WaID: "224620000000"}, *ev.Contact)

	msg := ev.Message
	assert.Equal(t, "wamid.IN1", msg.ID)
	assert.Equal(t, "224620000000", msg.From)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), msg.Timestamp)
	assert.Equal(t, "text", msg.Type)
	assert.Equal(t, TextContent{Body: "hello"}, msg.Content)
	require.NotNil(t, msg.Context)
	assert.Equal(t, ReplyContext{From: "15550000000", ID: "wamid.OUT1"}, *msg.Context)
}

func TestParseContentVariants(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    MessageContent
	}{
		{
			name:    "button",
			message: `{"id":"m","from":"f","timestamp":"1","type":"button","button":{"payload":"approve","text":"Yes"}}`,
			want:    ButtonContent{Payload: "approve", Text: "Yes"},
		},
		{
			name:    "interactive button reply",
			message: `{"id":"m","from":"f","timestamp":"1","type":"interactive","interactive":{"type":"button_reply","button_reply":{"id":"b1","title":"Yes"}}}`,
			want:    InteractiveContent{ReplyType: "button_reply", ReplyID: "b1", ReplyTitle: "Yes"},
		},
		{
			name:    "interactive list reply",
			message: `{"id":"m","from":"f","timestamp":"1","type":"interactive","interactive":{"type":"list_reply","list_reply":{"id":"r1","title":"First","description":"the first"}}}`,
			want:    InteractiveContent{ReplyType: "list_reply", ReplyID: "r1", ReplyTitle: "First", ReplyDescription: "the first"},
		},
		{
			name:    "image",
			message: `{"id":"m","from":"f","timestamp":"1","type":"image","image":{"id":"img1","mime_type":"image/jpeg","sha256":"abc","caption":"sunset"}}`,
			want:    MediaContent{MediaType: MediaImage, MediaID: "img1", MimeType: "image/jpeg", Sha256: "abc", Caption: "sunset"},
		},
		{
			name:    "video",
			message: `{"id":"m","from":"f","timestamp":"1","type":"video","video":{"id":"v1","mime_type":"video/mp4"}}`,
			want:    MediaContent{MediaType: MediaVideo, MediaID: "v1", MimeType: "video/mp4"},
		},
		{
			name:    "audio",
			message: `{"id":"m","from":"f","timestamp":"1","type":"audio","audio":{"id":"a1","mime_type":"audio/ogg"}}`,
			want:    MediaContent{MediaType: MediaAudio, MediaID: "a1", MimeType: "audio/ogg"},
		},
		{
			name:    "document",
			message: `{"id":"m","from":"f","timestamp":"1","type":"document","document":{"id":"d1","mime_type":"application/pdf","filename":"invoice.pdf","caption":"March"}}`,
			want:    MediaContent{MediaType: MediaDocument, MediaID: "d1", MimeType: "application/pdf", Filename: "invoice.pdf", Caption: "March"},
		},
		{
			name:    "sticker",
			message: `{"id":"m","from":"f","timestamp":"1","type":"sticker","sticker":{"id":"s1","mime_type":"image/webp","animated":true}}`,
			want:    StickerContent{StickerID: "s1", MimeType: "image/webp", Animated: true},
		},
		{
			name:    "location",
			message: `{"id":"m","from":"f","timestamp":"1","type":"location","location":{"latitude":9.51,"longitude":-13.71,"name":"Farm","address":"Conakry","url":"https://maps"}}`,
			want:    LocationContent{Latitude: 9.51, Longitude: -13.71, Name: "Farm", Address: "Conakry", URL: "https://maps"},
		},
		{
			name:    "reaction",
			message: `{"id":"m","from":"f","timestamp":"1","type":"reaction","reaction":{"message_id":"wamid.OUT","emoji":"👍"}}`,
			want:    ReactionContent{Emoji: "👍", MessageID: "wamid.OUT"},
		},
		{
			name:    "reaction removed",
			message: `{"id":"m","from":"f","timestamp":"1","type":"reaction","reaction":{"message_id":"wamid.OUT"}}`,
			want:    ReactionContent{MessageID: "wamid.OUT"},
		},
		{
			name:    "contacts",
			message: `{"id":"m","from":"f","timestamp":"1","type":"contacts","contacts":[{"name":{"formatted_name":"Ada Lovelace","first_name":"Ada","last_name":"Lovelace"},"phones":[{"phone":"+15550001","type":"CELL","wa_id":"15550001"}]}]}`,
			want: ContactsContent{Contacts: []ContactCard{{
				FormattedName: "Ada Lovelace", FirstName: "Ada", LastName: "Lovelace",
				Phones: []ContactPhone{{Phone: "+15550001", Type: "CELL"}},
			}}},
		},
		{
			name:    "unknown",
			message: `{"id":"m","from":"f","timestamp":"1","type":"order","order":{"catalog_id":"c"}}`,
			want:    UnknownContent{RawType: "order"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := parseSingleMessage(t, tt.message)
			assert.Equal(t, tt.want, msg.Content)
			assert.Equal(t, tt.want.Kind(), msg.Content.Kind())
		})
	}
}

func TestParseContentPriorityIsDeterministic(t *testing.T) {
	msg := parseSingleMessage(t, `{"id":"m","from":"f","timestamp":"1","type":"image",
		"image":{"id":"img1","mime_type":"image/jpeg"},
		"location":{"latitude":1,"longitude":2},
		"text":{"body":"both"}}`)
	assert.Equal(t, TextContent{Body: "both"}, msg.Content)

	msg = parseSingleMessage(t, `{"id":"m","from":"f","timestamp":"1","type":"video",
		"audio":{"id":"a1","mime_type":"audio/ogg"},
		"video":{"id":"v1","mime_type":"video/mp4"}}`)
	assert.Equal(t, MediaVideo, msg.Content.(MediaContent).MediaType)
}

func TestParseStatuses(t *testing.T) {
	raw := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "W", "changes": [{"field": "messages", "value": {
			"messaging_product": "whatsapp",
			"metadata": {"phone_number_id": "PNID"},
			"statuses": [
				{"id": "wamid.OUT1", "status": "delivered", "timestamp": "1700000100", "recipient_id": "2246",
				 "conversation": {"id": "conv-1", "expiration_timestamp": "1700086400", "origin": {"type": "business_initiated"}},
				 "pricing": {"billable": true, "pricing_model": "CBP", "category": "marketing"}},
				{"id": "wamid.OUT2", "status": "failed", "timestamp": "1700000200", "recipient_id": "2246",
				 "errors": [{"code": 131026, "title": "Message undeliverable"}, {"code": 1, "title": "second"}]},
				{"id": "wamid.OUT3", "status": "sent", "timestamp": "not-a-number", "recipient_id": "2246",
				 "errors": [{"code": 131000, "title": "", "message": "Something went wrong"}]}
			]
		}}]}]
	}`)

	events, err := ParseBytes(raw)
	require.NoError(t, err)
	require.Len(t, events, 3)

	delivered := events[0].Status
	require.NotNil(t, delivered)
	assert.Equal(t, EventStatus, events[0].Type)
	assert.Equal(t, StatusDelivered, delivered.Status)
	assert.Equal(t, time.Unix(1700000100, 0).UTC(), delivered.Timestamp)
	assert.Nil(t, delivered.Error)
	require.NotNil(t, delivered.Conversation)
	assert.Equal(t, "conv-1", delivered.Conversation.ID)
	assert.Equal(t, "business_initiated", delivered.Conversation.Origin)
	require.NotNil(t, delivered.Conversation.ExpiresAt)
	assert.Equal(t, time.Unix(1700086400, 0).UTC(), *delivered.Conversation.ExpiresAt)
	assert.Equal(t, &PricingInfo{Billable: true, Category: "marketing", Model: "CBP"}, delivered.Pricing)

	failed := events[1].Status
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, &StatusErrorInfo{Code: 131026, Message: "Message undeliverable"}, failed.Error)
	assert.Nil(t, failed.Conversation)
	assert.Nil(t, failed.Pricing)

	sent := events[2].Status
	assert.True(t, sent.Timestamp.IsZero())
	assert.Equal(t, "Something went wrong", sent.Error.Message)
}

func TestParseMessagesBeforeStatusesAndSkipsOtherFields(t *testing.T) {
	raw := []byte(`{"entry": [
		{"id": "A", "changes": [
			{"field": "account_update", "value": {"metadata": {"phone_number_id": "PNID"}}},
			{"field": "messages", "value": {
				"metadata": {"phone_number_id": "PNID"},
				"statuses": [{"id": "wamid.S", "status": "read", "timestamp": "5", "recipient_id": "r"}],
				"messages": [{"id": "wamid.M", "from": "f", "timestamp": "4", "type": "text", "text": {"body": "x"}}]
			}}
		]},
		{"id": "B", "changes": []}
	]}`)

	events, err := ParseBytes(raw)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, EventUnknown, events[0].Type)
	assert.Equal(t, "account_update", events[0].Field)
	assert.Equal(t, EventMessage, events[1].Type)
	assert.Nil(t, events[1].Contact)
	assert.Equal(t, EventStatus, events[2].Type)
}

func TestParseEmptyShapes(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"entry": []}`,
		`{"entry": [{"id": "A", "changes": []}]}`,
		`{"entry": [{"id": "A", "changes": [{"field": "messages", "value": {"messages": [], "statuses": []}}]}]}`,
	} {
		events, err := ParseBytes([]byte(raw))
		require.NoError(t, err, raw)
		assert.NotNil(t, events, raw)
		assert.Empty(t, events, raw)
	}
}

func TestParseBytesRejectsInvalidJSON(t *testing.T) {
	_, err := ParseBytes([]byte(`{"entry": [`))
	require.Error(t, err)
}

func TestParseMalformedElementDoesNotDropSiblings(t *testing.T) {
	raw := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "WABA_ID",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "15550000000", "phone_number_id": "PNID"},
					"messages": [
						{"id": "good", "from": "224", "timestamp": "1700000000", "type": "text", "text": {"body": "hi"}},
						{"id": "bad", "from": "224", "timestamp": 1700000000, "type": "location",
						 "context": {"id": "wamid.OUT1"},
						 "location": {"latitude": "12.5", "longitude": -13.7}},
						{"id": "sticker", "from": "224", "timestamp": "1700000001", "type": "sticker",
						 "sticker": {"id": "s1", "animated": "yes"}}
					],
					"statuses": [
						{"id": "wamid.OUT1", "status": "delivered", "timestamp": 1700000100, "recipient_id": "224",
						 "pricing": {"billable": "true", "category": "service"}},
						42,
						{"id": "wamid.OUT2", "status": "read", "timestamp": "1700000200", "recipient_id": "224"}
					]
				}
			}]
		}]
	}`)

	events, err := ParseBytes(raw)
	require.NoError(t, err)
	require.Len(t, events, 6)

	good := events[0].Message
	require.NotNil(t, good)
	assert.Equal(t, "good", good.ID)
	assert.Equal(t, TextContent{Body: "hi"}, good.Content)

	bad := events[1].Message
	require.NotNil(t, bad)
	assert.Equal(t, EventMessage, events[1].Type)
	assert.Equal(t, "bad", bad.ID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), bad.Timestamp)
	assert.Equal(t, UnknownContent{RawType: "location"}, bad.Content)
	require.NotNil(t, bad.Context)
	assert.Equal(t, "wamid.OUT1", bad.Context.ID)

	assert.Equal(t, UnknownContent{RawType: "sticker"}, events[2].Message.Content)

	delivered := events[3]
	require.Equal(t, EventStatus, delivered.Type)
	assert.Equal(t, "wamid.OUT1", delivered.Status.MessageID)
	assert.Equal(t, StatusDelivered, delivered.Status.Status)
	assert.Equal(t, time.Unix(1700000100, 0).UTC(), delivered.Status.Timestamp)
	assert.Nil(t, delivered.Status.Pricing)

	assert.Equal(t, EventUnknown, events[4].Type)
	assert.Equal(t, "messages", events[4].Field)

	require.Equal(t, EventStatus, events[5].Type)
	assert.Equal(t, StatusRead, events[5].Status.Status)
}

func TestParseBytesRejectsMalformedEnvelope(t *testing.T) {
	_, err := ParseBytes([]byte(`{"entry": [{"changes": [{"field": "messages", "value": {"messages": "nope"}}]}]}`))
	require.Error(t, err)
}
