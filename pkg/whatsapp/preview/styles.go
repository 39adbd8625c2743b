package preview

import "html/template"

// Colors of the WhatsApp light theme.
const (
	colorTextPrimary      = "#111b21"
	colorFooterText       = "#8696a0"
	colorTimestampText    = "#667781"
	colorButtonText       = "#00a5f4"
	colorButtonBorder     = "#e0e0e0"
	colorButtonBackground = "#ffffff"
	colorHeaderBackground = "#e2e2e2"
	colorWallpaper        = "#efeae2"
	colorBubble           = "#ffffff"
)

// palette holds the pre-built inline styles of every preview element. The
// values are compile-time constants, so marking them template.CSS is safe.
type palette struct {
	Container   template.CSS
	Wallpaper   template.CSS
	Bubble      template.CSS
	HeaderMedia template.CSS
	HeaderText  template.CSS
	Document    template.CSS
	Body        template.CSS
	StampSpacer template.CSS
	Footer      template.CSS
	Timestamp   template.CSS
	Buttons     template.CSS
	Button      template.CSS
}

var styles = palette{
	Container: `font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; ` +
		`font-size: 14.2px; line-height: 1.45; color: ` + colorTextPrimary + `; box-sizing: border-box;`,
	Wallpaper:   `background-color: ` + colorWallpaper + `; padding: 16px;`,
	Bubble:      `background-color: ` + colorBubble + `; border-radius: 8px; max-width: 100%; overflow: hidden; box-shadow: 0 1px 0.5px rgba(11, 20, 26, 0.13);`,
	HeaderMedia: `display: block; width: 100%; border-radius: 8px 8px 0 0; object-fit: cover;`,
	HeaderText:  `padding: 6px 16px 0; font-size: 15px; font-weight: 700; color: ` + colorTextPrimary + `;`,
	Document: `display: flex; align-items: center; gap: 10px; padding: 10px 12px; margin: 7px 7px 0; ` +
		`background-color: ` + colorHeaderBackground + `; border-radius: 6px; overflow: hidden; white-space: nowrap;`,
	Body:        `padding: 6px 16px; white-space: pre-wrap; word-wrap: break-word;`,
	StampSpacer: `display: inline-block; width: 70px; height: 0;`,
	Footer:      `padding: 0 16px 6px; font-size: 12px; color: ` + colorFooterText + `;`,
	Timestamp:   `position: absolute; bottom: 4px; right: 16px; font-size: 11px; color: ` + colorTimestampText + `;`,
	Buttons:     `display: flex; flex-direction: column; gap: 4px; padding: 4px 7px 7px;`,
	Button: `display: flex; align-items: center; justify-content: center; padding: 8px 16px; ` +
		`background-color: ` + colorButtonBackground + `; border: 1px solid ` + colorButtonBorder + `; border-radius: 6px; ` +
		`color: ` + colorButtonText + `; font-size: 14px; font-weight: 500; text-decoration: none;`,
}

var pageTemplate = template.Must(template.New("preview").Parse(
	`<div class="wa-template" dir="{{.Dir}}" style="width: {{.Width}}; {{.Palette.Container}}">` +
		`<div class="wa-wallpaper" style="{{.Palette.Wallpaper}}">` +
		`<div class="wa-bubble" style="{{.Palette.Bubble}}">` +
		`{{with .Header}}` +
		`{{if eq .Type "image"}}<img class="wa-header" src="{{.URL}}" alt="{{.Alt}}" style="{{$.Palette.HeaderMedia}}">` +
		`{{else if eq .Type "video"}}<video class="wa-header" src="{{.URL}}" poster="{{.Poster}}" controls style="{{$.Palette.HeaderMedia}}"></video>` +
		`{{else if eq .Type "document"}}<div class="wa-header wa-document" style="{{$.Palette.Document}}">{{.Filename}}</div>` +
		`{{else if eq .Type "text"}}<div class="wa-header" style="{{$.Palette.HeaderText}}">{{.Text}}</div>` +
		`{{end}}` +
		`{{end}}` +
		`<div style="position: relative;">` +
		`<div class="wa-body" style="{{.Palette.Body}} text-align: {{.TextEnd}};">{{.Text}}` +
		`{{if .HasStamp}}<span style="{{.Palette.StampSpacer}}"></span>{{end}}</div>` +
		`{{if .Footer}}<div class="wa-footer" style="{{.Palette.Footer}}">{{.Footer}}</div>{{end}}` +
		`{{if .HasStamp}}<span class="wa-timestamp" style="{{.Palette.Timestamp}}">{{.Timestamp}}</span>{{end}}` +
		`</div>` +
		`{{if .Buttons}}<div class="wa-buttons" style="{{.Palette.Buttons}}">` +
		`{{range .Buttons}}` +
		`{{if eq .Type "url"}}<a class="wa-button wa-button-url" href="{{.URL}}" style="{{$.Palette.Button}}">{{.Text}}</a>` +
		`{{else if eq .Type "phone_number"}}<a class="wa-button wa-button-phone" href="tel:{{.PhoneNumber}}" style="{{$.Palette.Button}}">{{.Text}}</a>` +
		`{{else}}<div class="wa-button wa-button-reply" style="{{$.Palette.Button}}">{{.Text}}</div>` +
		`{{end}}` +
		`{{end}}` +
		`</div>{{end}}` +
		`</div></div></div>`,
))
