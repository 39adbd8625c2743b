package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/wacloud/pkg/whatsapp"
)

func TestToRequestKinds(t *testing.T) {
	tests := []struct {
		name string
		req  OutboundMessageRequest
		want whatsapp.Request
	}{
		{
			name: "text",
			req:  OutboundMessageRequest{To: "224", Type: "text", Text: &TextPayload{Body: "hi", PreviewURL: true}},
			want: whatsapp.SendTextParams{To: "224", Body: "hi", PreviewURL: true},
		},
		{
			name: "document",
			req:  OutboundMessageRequest{To: "224", Type: "document", Document: &MediaPayload{Link: "https://x/a.pdf", Filename: "a.pdf"}},
			want: whatsapp.SendDocumentParams{To: "224", Document: whatsapp.MediaRef{Link: "https://x/a.pdf"}, Filename: "a.pdf"},
		},
		{
			name: "reaction",
			req:  OutboundMessageRequest{To: "224", Type: "reaction", Reaction: &ReactionPayload{MessageID: "wamid.1", Emoji: "🔥"}},
			want: whatsapp.SendReactionParams{To: "224", MessageID: "wamid.1", Emoji: "🔥"},
		},
		{
			name: "location",
			req:  OutboundMessageRequest{To: "224", Type: "location", Location: &LocationPayload{Latitude: 1.5, Longitude: 2.5}},
			want: whatsapp.SendLocationParams{To: "224", Latitude: 1.5, Longitude: 2.5},
		},
		{
			name: "interactive list",
			req: OutboundMessageRequest{To: "224", Type: "interactive", Interactive: &InteractivePayload{
				Kind: "list", Body: "pick", ButtonText: "Menu",
				Sections: []whatsapp.ListSection{{Rows: []whatsapp.ListRow{{ID: "1", Title: "One"}}}},
			}},
			want: whatsapp.SendInteractiveListParams{
				To: "224", Body: "pick", ButtonText: "Menu",
				Sections: []whatsapp.ListSection{{Rows: []whatsapp.ListRow{{ID: "1", Title: "One"}}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.ToRequest()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, whatsapp.MessageType(tt.req.Type), got.Kind())
		})
	}
}

func TestToRequestInteractiveButtonsHeader(t *testing.T) {
	got, err := OutboundMessageRequest{To: "224", Type: "interactive", Interactive: &InteractivePayload{
		Kind: "button", Body: "Coming?", Header: "RSVP",
		Buttons: []whatsapp.ReplyButton{{ID: "approve", Title: "Yes"}},
	}}.ToRequest()
	require.NoError(t, err)

	params := got.(whatsapp.SendInteractiveButtonsParams)
	assert.Equal(t, whatsapp.TextHeader("RSVP"), params.Header)
}

func TestToRequestErrors(t *testing.T) {
	_, err := OutboundMessageRequest{To: "224", Type: "carousel"}.ToRequest()
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = OutboundMessageRequest{To: "224", Type: "text"}.ToRequest()
	require.Error(t, err)

	_, err = OutboundMessageRequest{To: "224", Type: "interactive", Interactive: &InteractivePayload{Kind: "button", Body: "b"}}.ToRequest()
	require.Error(t, err)

	_, err = OutboundMessageRequest{To: "224", Type: "interactive", Interactive: &InteractivePayload{Kind: "flow", Body: "b"}}.ToRequest()
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestTemplatePayloadToParams(t *testing.T) {
	params := TemplatePayload{
		Name:         "event_invite",
		HeaderType:   "image",
		HeaderValue:  "https://cdn/banner.png",
		BodyParams:   []string{"Awa", "Friday"},
		QuickReplies: []string{"approve", "decline"},
	}.ToParams("224")

	assert.Equal(t, "event_invite", params.TemplateName)
	assert.Equal(t, "en_US", params.LanguageCode)
	require.Len(t, params.Components, 4)
	assert.Equal(t, "header", params.Components[0].Type)
	assert.Equal(t, "quick_reply", params.Components[1].SubType)
	assert.Equal(t, "body", params.Components[3].Type)
	assert.Len(t, params.Components[3].Parameters, 2)

	explicit := []whatsapp.TemplateComponent{{Type: "body"}}
	params = TemplatePayload{Name: "n", Language: "fr", Components: explicit, BodyParams: []string{"ignored"}}.ToParams("224")
	assert.Equal(t, explicit, params.Components)
	assert.Equal(t, "fr", params.LanguageCode)
}

func TestReadRate(t *testing.T) {
	assert.Zero(t, DeliveryDigest{}.ReadRate())
	assert.InDelta(t, 0.5, DeliveryDigest{Counts: DeliveryCounts{Delivered: 4, Read: 2}}.ReadRate(), 1e-9)
}
