package whatsapp

// Request is the closed set of outbound message kinds. Every Send*Params
// type in this package implements it.
type Request interface {
	Kind() MessageType
	Recipient() string
	toMessage() messageRequest
}

type messageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             MessageType      `json:"type"`
	Text             *textBody        `json:"text,omitempty"`
	Template         *templateBody    `json:"template,omitempty"`
	Image            *mediaBody       `json:"image,omitempty"`
	Video            *mediaBody       `json:"video,omitempty"`
	Audio            *mediaBody       `json:"audio,omitempty"`
	Document         *mediaBody       `json:"document,omitempty"`
	Sticker          *mediaBody       `json:"sticker,omitempty"`
	Location         *locationBody    `json:"location,omitempty"`
	Reaction         *reactionBody    `json:"reaction,omitempty"`
	Contacts         []ContactCard    `json:"contacts,omitempty"`
	Interactive      *interactiveBody `json:"interactive,omitempty"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type templateBody struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []TemplateComponent `json:"components,omitempty"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type mediaBody struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type locationBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type reactionBody struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type interactiveBody struct {
	Type   string             `json:"type"`
	Header *InteractiveHeader `json:"header,omitempty"`
	Body   interactiveText    `json:"body"`
	Footer *interactiveText   `json:"footer,omitempty"`
	Action interactiveAction  `json:"action"`
}

type interactiveText struct {
	Text string `json:"text"`
}

type interactiveAction struct {
	Button   string              `json:"button,omitempty"`
	Buttons  []interactiveButton `json:"buttons,omitempty"`
	Sections []ListSection       `json:"sections,omitempty"`
}

type interactiveButton struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func media(ref MediaRef) *mediaBody {
	return &mediaBody{ID: ref.ID, Link: ref.Link}
}

func footer(text string) *interactiveText {
	if text == "" {
		return nil
	}
	return &interactiveText{Text: text}
}

func (p SendTextParams) Kind() MessageType { return TypeText }
func (p SendTextParams) Recipient() string { return p.To }
func (p SendTextParams) toMessage() messageRequest {
	return messageRequest{To: p.To, Type: TypeText, Text: &textBody{PreviewURL: p.PreviewURL, Body: p.Body}}
}

func (p SendTemplateParams) Kind() MessageType { return TypeTemplate }
func (p SendTemplateParams) Recipient() string { return p.To }
func (p SendTemplateParams) toMessage() messageRequest {
	return messageRequest{To: p.To, Type: TypeTemplate, Template: &templateBody{
		Name:       p.TemplateName,
		Language:   templateLanguage{Code: p.LanguageCode},
		Components: p.Components,
	}}
}

func (p SendImageParams) Kind() MessageType { return TypeImage }
func (p SendImageParams) Recipient() string { return p.To }
func (p SendImageParams) toMessage() messageRequest {
	body := media(p.Image)
	body.Caption = p.Caption
	return messageRequest{To: p.To, Type: TypeImage, Image: body}
}

func (p SendVideoParams) Kind() MessageType { return TypeVideo }
func (p SendVideoParams) Recipient() string { return p.To }
func (p SendVideoParams) toMessage() messageRequest {
	body := media(p.Video)
	body.Caption = p.Caption
	return messageRequest{To: p.To, Type: TypeVideo, Video: body}
}

func (p SendAudioParams) Kind() MessageType { return TypeAudio }
func (p SendAudioParams) Recipient() string { return p.To }
func (p SendAudioParams) toMessage() messageRequest {
	return messageRequest{To: p.To, Type: TypeAudio, Audio: media(p.Audio)}
}

func (p SendDocumentParams) Kind() MessageType { return TypeDocument }
func (p SendDocumentParams) Recipient() string { return p.To }
func (p SendDocumentParams) toMessage() messageRequest {
	body := media(p.Document)
	body.Filename = p.Filename
	body.Caption = p.Caption
	return messageRequest{To: p.To, Type: TypeDocument, Document: body}
}

func (p SendStickerParams) Kind() MessageType { return TypeSticker }
func (p SendStickerParams) Recipient() string { return p.To }
func (p SendStickerParams) toMessage() messageRequest {
	return messageRequest{To: p.To, Type: TypeSticker, Sticker: media(p.Sticker)}
}

func (p SendLocationParams) Kind() MessageType { return TypeLocation }
func (p SendLocationParams) Recipient() string { return p.To }
func (p SendLocationParams) toMessage() messageRequest {
	return messageRequest{To: p.To, Type: TypeLocation, Location: &locationBody{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Name:      p.Name,
		Address:   p.Address,
	}}
}

func (p SendReactionParams) Kind() MessageType { return TypeReaction }
func (p SendReactionParams) Recipient() string { return p.To }
func (p SendReactionParams) toMessage() messageRequest {
	return messageRequest{To: p.To, Type: TypeReaction, Reaction: &reactionBody{MessageID: p.MessageID, Emoji: p.Emoji}}
}

func (p SendContactsParams) Kind() MessageType { return TypeContacts }
func (p SendContactsParams) Recipient() string { return p.To }
func (p SendContactsParams) toMessage() messageRequest {
	return messageRequest{To: p.To, Type: TypeContacts, Contacts: p.Contacts}
}

func (p SendInteractiveButtonsParams) Kind() MessageType { return TypeInteractive }
func (p SendInteractiveButtonsParams) Recipient() string { return p.To }
func (p SendInteractiveButtonsParams) toMessage() messageRequest {
	buttons := make([]interactiveButton, 0, len(p.Buttons))
	for _, btn := range p.Buttons {
		buttons = append(buttons, interactiveButton{Type: "reply", Reply: buttonReply{ID: btn.ID, Title: btn.Title}})
	}
	return messageRequest{To: p.To, Type: TypeInteractive, Interactive: &interactiveBody{
		Type:   "button",
		Header: p.Header,
		Body:   interactiveText{Text: p.Body},
		Footer: footer(p.Footer),
		Action: interactiveAction{Buttons: buttons},
	}}
}

func (p SendInteractiveListParams) Kind() MessageType { return TypeInteractive }
func (p SendInteractiveListParams) Recipient() string { return p.To }
func (p SendInteractiveListParams) toMessage() messageRequest {
	var header *InteractiveHeader
	if p.Header != "" {
		header = TextHeader(p.Header)
	}
	return messageRequest{To: p.To, Type: TypeInteractive, Interactive: &interactiveBody{
		Type:   "list",
		Header: header,
		Body:   interactiveText{Text: p.Body},
		Footer: footer(p.Footer),
		Action: interactiveAction{Button: p.ButtonText, Sections: p.Sections},
	}}
}
