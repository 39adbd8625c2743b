// Package preview renders an HTML approximation of how a WhatsApp template
// message looks on a phone, for review before submitting it for approval.
package preview

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Header kinds.
const (
	HeaderImage    = "image"
	HeaderVideo    = "video"
	HeaderDocument = "document"
	HeaderText     = "text"
)

// Button kinds.
const (
	ButtonQuickReply  = "quick_reply"
	ButtonURL         = "url"
	ButtonPhoneNumber = "phone_number"
)

const defaultWidth = "380px"

// Header is the optional top section of a template. Fields beyond Type are
// read according to Type.
type Header struct {
	Type     string `json:"type" binding:"required,oneof=image video document text"`
	URL      string `json:"url,omitempty"`
	Alt      string `json:"alt,omitempty"`
	Poster   string `json:"poster,omitempty"`
	Filename string `json:"filename,omitempty"`
	Text     string `json:"text,omitempty"`
}

type Button struct {
	Type        string `json:"type" binding:"required,oneof=quick_reply url phone_number"`
	Text        string `json:"text" binding:"required"`
	URL         string `json:"url,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Template describes the message to preview. Body may contain {{n}}
// placeholders filled from BodyVariables.
type Template struct {
	Header        *Header           `json:"header,omitempty"`
	Body          string            `json:"body" binding:"required"`
	BodyVariables map[string]string `json:"bodyVariables,omitempty"`
	Footer        string            `json:"footer,omitempty"`
	Buttons       []Button          `json:"buttons,omitempty" binding:"omitempty,dive"`
	Timestamp     string            `json:"timestamp,omitempty"`
	Language      string            `json:"language,omitempty"`
	Direction     string            `json:"direction,omitempty" binding:"omitempty,oneof=ltr rtl"`
	Width         string            `json:"width,omitempty"`
}

var rtlLanguages = map[string]struct{}{
	"ar": {}, "he": {}, "fa": {}, "ur": {}, "ps": {}, "sd": {},
	"yi": {}, "ku": {}, "ckb": {}, "syr": {}, "dv": {},
}

// IsRTLLanguage reports whether the base of a language tag ("ar_EG" → "ar")
// is written right to left.
func IsRTLLanguage(language string) bool {
	if language == "" {
		return false
	}
	parts := strings.FieldsFunc(language, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return false
	}
	_, ok := rtlLanguages[strings.ToLower(parts[0])]
	return ok
}

// Direction returns override when set, otherwise derives it from language.
func Direction(language, override string) string {
	if override == "ltr" || override == "rtl" {
		return override
	}
	if IsRTLLanguage(language) {
		return "rtl"
	}
	return "ltr"
}

var placeholder = regexp.MustCompile(`\{\{(\d+)\}\}`)

// SubstituteVariables replaces {{n}} with variables["n"], leaving unknown
// placeholders untouched.
func SubstituteVariables(text string, variables map[string]string) string {
	if len(variables) == 0 {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		if v, ok := variables[key]; ok {
			return v
		}
		return match
	})
}

type view struct {
	Template
	Dir      string
	Text     string
	Width    string
	Palette  palette
	TextEnd  string
	HasStamp bool
}

// Render writes the preview markup for t to w.
func Render(w io.Writer, t Template) error {
	dir := Direction(t.Language, t.Direction)
	textEnd := "left"
	if dir == "rtl" {
		textEnd = "right"
	}
	width := t.Width
	if width == "" {
		width = defaultWidth
	}

	v := view{
		Template: t,
		Dir:      dir,
		Text:     SubstituteVariables(t.Body, t.BodyVariables),
		Width:    width,
		Palette:  styles,
		TextEnd:  textEnd,
		HasStamp: t.Timestamp != "",
	}
	if err := pageTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render template preview: %w", err)
	}
	return nil
}

// RenderString is Render into a string.
func RenderString(t Template) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, t); err != nil {
		return "", err
	}
	return buf.String(), nil
}
