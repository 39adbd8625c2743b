package whatsapp

// MessageType names the outbound message kinds supported by the Cloud API.
type MessageType string

const (
	TypeText        MessageType = "text"
	TypeTemplate    MessageType = "template"
	TypeImage       MessageType = "image"
	TypeVideo       MessageType = "video"
	TypeAudio       MessageType = "audio"
	TypeDocument    MessageType = "document"
	TypeSticker     MessageType = "sticker"
	TypeLocation    MessageType = "location"
	TypeReaction    MessageType = "reaction"
	TypeContacts    MessageType = "contacts"
	TypeInteractive MessageType = "interactive"
)

// MediaRef points at media either by an uploaded media ID or by a public link.
type MediaRef struct {
	ID   string `json:"id,omitempty"`
	Link string `json:"link,omitempty"`
}

// SendTextParams describes a plain text message.
type SendTextParams struct {
	To         string
	Body       string
	PreviewURL bool
}

// SendTemplateParams describes a pre-approved template message.
type SendTemplateParams struct {
	To           string
	TemplateName string
	LanguageCode string
	Components   []TemplateComponent
}

// TemplateComponent fills one header, body or button slot of a template.
type TemplateComponent struct {
	Type       string              `json:"type"`
	SubType    string              `json:"sub_type,omitempty"`
	Index      *int                `json:"index,omitempty"`
	Parameters []TemplateParameter `json:"parameters,omitempty"`
}

// TemplateParameter is a single substitution value of a template component.
type TemplateParameter struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	Image    *MediaLink   `json:"image,omitempty"`
	Video    *MediaLink   `json:"video,omitempty"`
	Document *DocumentRef `json:"document,omitempty"`
}

// MediaLink references template media by URL.
type MediaLink struct {
	Link string `json:"link"`
}

// DocumentRef references a template document by URL.
type DocumentRef struct {
	Link     string `json:"link"`
	Filename string `json:"filename,omitempty"`
}

// SendImageParams describes an image message.
type SendImageParams struct {
	To      string
	Image   MediaRef
	Caption string
}

// SendVideoParams describes a video message.
type SendVideoParams struct {
	To      string
	Video   MediaRef
	Caption string
}

// SendAudioParams describes an audio message.
type SendAudioParams struct {
	To    string
	Audio MediaRef
}

// SendDocumentParams describes a document message.
type SendDocumentParams struct {
	To       string
	Document MediaRef
	Filename string
	Caption  string
}

// SendStickerParams describes a sticker message.
type SendStickerParams struct {
	To      string
	Sticker MediaRef
}

// SendLocationParams describes a location pin.
type SendLocationParams struct {
	To        string
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

// SendReactionParams reacts to a previously exchanged message. An empty
// Emoji removes an existing reaction.
type SendReactionParams struct {
	To        string
	MessageID string
	Emoji     string
}

// SendContactsParams shares one or more contact cards.
type SendContactsParams struct {
	To       string
	Contacts []ContactCard
}

// ContactCard mirrors the platform contact-card schema.
type ContactCard struct {
	Name   ContactName    `json:"name"`
	Phones []ContactPhone `json:"phones,omitempty"`
	Emails []ContactEmail `json:"emails,omitempty"`
	Org    *ContactOrg    `json:"org,omitempty"`
	URLs   []ContactURL   `json:"urls,omitempty"`
}

type ContactName struct {
	FormattedName string `json:"formatted_name"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
}

type ContactPhone struct {
	Phone string `json:"phone"`
	Type  string `json:"type,omitempty"`
	WaID  string `json:"wa_id,omitempty"`
}

type ContactEmail struct {
	Email string `json:"email"`
	Type  string `json:"type,omitempty"`
}

type ContactOrg struct {
	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
	Title      string `json:"title,omitempty"`
}

type ContactURL struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// ReplyButton is one quick-reply button of an interactive message.
type ReplyButton struct {
	ID    string
	Title string
}

// InteractiveHeader is the optional header of an interactive button message.
// Exactly one of Text, Image, Video or Document should be set, matching Type.
type InteractiveHeader struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Image    *MediaRef `json:"image,omitempty"`
	Video    *MediaRef `json:"video,omitempty"`
	Document *MediaRef `json:"document,omitempty"`
}

// TextHeader builds a text interactive header.
func TextHeader(text string) *InteractiveHeader {
	return &InteractiveHeader{Type: "text", Text: text}
}

// ImageHeader builds an image interactive header.
func ImageHeader(ref MediaRef) *InteractiveHeader {
	return &InteractiveHeader{Type: "image", Image: &ref}
}

// VideoHeader builds a video interactive header.
func VideoHeader(ref MediaRef) *InteractiveHeader {
	return &InteractiveHeader{Type: "video", Video: &ref}
}

// DocumentHeader builds a document interactive header.
func DocumentHeader(ref MediaRef) *InteractiveHeader {
	return &InteractiveHeader{Type: "document", Document: &ref}
}

// SendInteractiveButtonsParams describes a reply-button message (max three buttons upstream).
type SendInteractiveButtonsParams struct {
	To      string
	Body    string
	Buttons []ReplyButton
	Header  *InteractiveHeader
	Footer  string
}

// SendInteractiveListParams describes a list menu message.
type SendInteractiveListParams struct {
	To         string
	Body       string
	ButtonText string
	Sections   []ListSection
	Header     string
	Footer     string
}

type ListSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []ListRow `json:"rows"`
}

type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
