package models

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/wacloud/pkg/whatsapp"
)

// ErrUnsupportedType is returned for an outbound request whose type has no
// matching payload.
var ErrUnsupportedType = errors.New("unsupported message type")

// OutboundMessageRequest represents requests to send a message manually via
// the API. Type selects which of the kind fields is read.
type OutboundMessageRequest struct {
	To          string                 `json:"to" binding:"required"`
	Type        string                 `json:"type" binding:"required"`
	Category    Category               `json:"category,omitempty"`
	Text        *TextPayload           `json:"text,omitempty"`
	Template    *TemplatePayload       `json:"template,omitempty"`
	Image       *MediaPayload          `json:"image,omitempty"`
	Video       *MediaPayload          `json:"video,omitempty"`
	Audio       *MediaPayload          `json:"audio,omitempty"`
	Document    *MediaPayload          `json:"document,omitempty"`
	Sticker     *MediaPayload          `json:"sticker,omitempty"`
	Location    *LocationPayload       `json:"location,omitempty"`
	Reaction    *ReactionPayload       `json:"reaction,omitempty"`
	Contacts    []whatsapp.ContactCard `json:"contacts,omitempty"`
	Interactive *InteractivePayload    `json:"interactive,omitempty"`
}

type TextPayload struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"previewUrl"`
}

// TemplatePayload is either raw components or the shorthand fields that
// feed a whatsapp.TemplateBuilder.
type TemplatePayload struct {
	Name         string                       `json:"name"`
	Language     string                       `json:"language"`
	Components   []whatsapp.TemplateComponent `json:"components,omitempty"`
	HeaderType   string                       `json:"headerType,omitempty"`
	HeaderValue  string                       `json:"headerValue,omitempty"`
	BodyParams   []string                     `json:"bodyParams,omitempty"`
	QuickReplies []string                     `json:"quickReplies,omitempty"`
}

type MediaPayload struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// InteractivePayload covers both reply-button and list messages; Kind is
// "button" or "list".
type InteractivePayload struct {
	Kind       string                 `json:"kind"`
	Body       string                 `json:"body"`
	Header     string                 `json:"header,omitempty"`
	Footer     string                 `json:"footer,omitempty"`
	Buttons    []whatsapp.ReplyButton `json:"buttons,omitempty"`
	ButtonText string                 `json:"buttonText,omitempty"`
	Sections   []whatsapp.ListSection `json:"sections,omitempty"`
}

// BroadcastRequest sends one template to many recipients.
type BroadcastRequest struct {
	Recipients []string        `json:"recipients" binding:"required,min=1"`
	Template   TemplatePayload `json:"template"`
	Category   Category        `json:"category,omitempty"`
}

// ToRequest converts the HTTP payload into a typed send request.
func (r OutboundMessageRequest) ToRequest() (whatsapp.Request, error) {
	missing := func() error {
		return fmt.Errorf("%s payload is required for type %q", r.Type, r.Type)
	}

	switch whatsapp.MessageType(r.Type) {
	case whatsapp.TypeText:
		if r.Text == nil || r.Text.Body == "" {
			return nil, missing()
		}
		return whatsapp.SendTextParams{To: r.To, Body: r.Text.Body, PreviewURL: r.Text.PreviewURL}, nil
	case whatsapp.TypeTemplate:
		if r.Template == nil || r.Template.Name == "" {
			return nil, missing()
		}
		return r.Template.ToParams(r.To), nil
	case whatsapp.TypeImage:
		if r.Image == nil {
			return nil, missing()
		}
		return whatsapp.SendImageParams{To: r.To, Image: r.Image.ref(), Caption: r.Image.Caption}, nil
	case whatsapp.TypeVideo:
		if r.Video == nil {
			return nil, missing()
		}
		return whatsapp.SendVideoParams{To: r.To, Video: r.Video.ref(), Caption: r.Video.Caption}, nil
	case whatsapp.TypeAudio:
		if r.Audio == nil {
			return nil, missing()
		}
		return whatsapp.SendAudioParams{To: r.To, Audio: r.Audio.ref()}, nil
	case whatsapp.TypeDocument:
		if r.Document == nil {
			return nil, missing()
		}
		return whatsapp.SendDocumentParams{
			To:       r.To,
			Document: r.Document.ref(),
			Filename: r.Document.Filename,
			Caption:  r.Document.Caption,
		}, nil
	case whatsapp.TypeSticker:
		if r.Sticker == nil {
			return nil, missing()
		}
		return whatsapp.SendStickerParams{To: r.To, Sticker: r.Sticker.ref()}, nil
	case whatsapp.TypeLocation:
		if r.Location == nil {
			return nil, missing()
		}
		return whatsapp.SendLocationParams{
			To:        r.To,
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Name:      r.Location.Name,
			Address:   r.Location.Address,
		}, nil
	case whatsapp.TypeReaction:
		if r.Reaction == nil || r.Reaction.MessageID == "" {
			return nil, missing()
		}
		return whatsapp.SendReactionParams{To: r.To, MessageID: r.Reaction.MessageID, Emoji: r.Reaction.Emoji}, nil
	case whatsapp.TypeContacts:
		if len(r.Contacts) == 0 {
			return nil, missing()
		}
		return whatsapp.SendContactsParams{To: r.To, Contacts: r.Contacts}, nil
	case whatsapp.TypeInteractive:
		if r.Interactive == nil || r.Interactive.Body == "" {
			return nil, missing()
		}
		return r.Interactive.toParams(r.To)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, r.Type)
	}
}

// ToParams builds template params for one recipient. Explicit Components
// win over the shorthand fields.
func (t TemplatePayload) ToParams(to string) whatsapp.SendTemplateParams {
	components := t.Components
	if len(components) == 0 {
		b := whatsapp.NewTemplateBuilder()
		switch t.HeaderType {
		case "":
		case "text":
			b.AddTextHeader(t.HeaderValue)
		default:
			b.AddHeader(t.HeaderType, t.HeaderValue)
		}
		for i, payload := range t.QuickReplies {
			b.AddQuickReplyButton(i, payload)
		}
		for _, p := range t.BodyParams {
			b.AddBodyParam(p)
		}
		components = b.Build()
	}

	language := t.Language
	if language == "" {
		language = "en_US"
	}

	return whatsapp.SendTemplateParams{
		To:           to,
		TemplateName: t.Name,
		LanguageCode: language,
		Components:   components,
	}
}

func (m MediaPayload) ref() whatsapp.MediaRef {
	return whatsapp.MediaRef{ID: m.ID, Link: m.Link}
}

func (p InteractivePayload) toParams(to string) (whatsapp.Request, error) {
	switch p.Kind {
	case "button":
		if len(p.Buttons) == 0 {
			return nil, errors.New("interactive button message needs at least one button")
		}
		var header *whatsapp.InteractiveHeader
		if p.Header != "" {
			header = whatsapp.TextHeader(p.Header)
		}
		return whatsapp.SendInteractiveButtonsParams{
			To:      to,
			Body:    p.Body,
			Buttons: p.Buttons,
			Header:  header,
			Footer:  p.Footer,
		}, nil
	case "list":
		if len(p.Sections) == 0 || p.ButtonText == "" {
			return nil, errors.New("interactive list message needs a button text and sections")
		}
		return whatsapp.SendInteractiveListParams{
			To:         to,
			Body:       p.Body,
			ButtonText: p.ButtonText,
			Sections:   p.Sections,
			Header:     p.Header,
			Footer:     p.Footer,
		}, nil
	default:
		return nil, fmt.Errorf("%w: interactive kind %q", ErrUnsupportedType, p.Kind)
	}
}
