package whatsapp

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the API answers 2xx without a message id.
var ErrMalformedResponse = errors.New("whatsapp: malformed send response")

// SendResult is the uniform outcome of every send operation. Success=false
// always comes with an empty MessageID and a populated Error.
type SendResult struct {
	MessageID string    `json:"messageId"`
	Success   bool      `json:"success"`
	Error     *APIError `json:"error,omitempty"`
}

// APIError is the normalized error envelope of a rejected request.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", e.Code, e.Message)
}

// ErrorContext is handed to the optional error observer on every API rejection.
type ErrorContext struct {
	Code        int
	Message     string
	Recipient   string
	MessageType MessageType
}

// ErrorHandler observes API rejections. It runs synchronously before the
// failed SendResult is returned.
type ErrorHandler func(ec ErrorContext)

// apiErrorEnvelope represents a WhatsApp Cloud API error payload.
type apiErrorEnvelope struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

func (e *apiErrorEnvelope) normalize(status int) *APIError {
	out := &APIError{Code: status, Message: "Unknown error"}
	if e == nil {
		return out
	}
	if e.Error.Code != 0 {
		out.Code = e.Error.Code
	}
	if e.Error.Message != "" {
		out.Message = e.Error.Message
	}
	return out
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}
