package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v22.0"
	defaultTimeout    = 15 * time.Second
)

// Config carries the credentials and endpoint options of a Client.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	Timeout       time.Duration
	// OnError, when set, observes every API-level rejection.
	OnError ErrorHandler
}

// Client is a resty-backed WhatsApp Cloud API client. It holds no mutable
// state and is safe for concurrent use.
type Client struct {
	httpClient    *resty.Client
	phoneNumberID string
	onError       ErrorHandler
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg Config) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/%s", base, version)).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.AccessToken)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
		onError:       cfg.OnError,
	}
}

// Send posts any supported request kind. API rejections come back as a
// failed SendResult; only transport faults and malformed responses are errors.
func (c *Client) Send(ctx context.Context, req Request) (SendResult, error) {
	body := req.toMessage()
	body.MessagingProduct = "whatsapp"
	body.RecipientType = "individual"

	result := new(sendResponse)
	apiErr := new(apiErrorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post(c.messagesPath())
	if err != nil {
		return SendResult{}, fmt.Errorf("send whatsapp %s message: %w", body.Type, err)
	}

	if !resp.IsSuccess() {
		rejection := apiErr.normalize(resp.StatusCode())
		if c.onError != nil {
			c.onError(ErrorContext{
				Code:        rejection.Code,
				Message:     rejection.Message,
				Recipient:   body.To,
				MessageType: body.Type,
			})
		}
		return SendResult{MessageID: "", Success: false, Error: rejection}, nil
	}

	if len(result.Messages) == 0 || result.Messages[0].ID == "" {
		return SendResult{}, fmt.Errorf("send whatsapp %s message: %w", body.Type, ErrMalformedResponse)
	}

	return SendResult{MessageID: result.Messages[0].ID, Success: true}, nil
}

func (c *Client) SendText(ctx context.Context, params SendTextParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendTemplate(ctx context.Context, params SendTemplateParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendImage(ctx context.Context, params SendImageParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendVideo(ctx context.Context, params SendVideoParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendAudio(ctx context.Context, params SendAudioParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendDocument(ctx context.Context, params SendDocumentParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendSticker(ctx context.Context, params SendStickerParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendLocation(ctx context.Context, params SendLocationParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendReaction(ctx context.Context, params SendReactionParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendContacts(ctx context.Context, params SendContactsParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendInteractiveButtons(ctx context.Context, params SendInteractiveButtonsParams) (SendResult, error) {
	return c.Send(ctx, params)
}

func (c *Client) SendInteractiveList(ctx context.Context, params SendInteractiveListParams) (SendResult, error) {
	return c.Send(ctx, params)
}

type markReadRequest struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// MarkAsRead flags an inbound message as read. Every failure, transport or
// API, is reported as false.
func (c *Client) MarkAsRead(ctx context.Context, messageID string) bool {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(markReadRequest{MessagingProduct: "whatsapp", Status: "read", MessageID: messageID}).
		Post(c.messagesPath())
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}

func (c *Client) messagesPath() string {
	return fmt.Sprintf("%s/messages", c.phoneNumberID)
}
