package whatsapp

// TemplateBuilder assembles template components fluently. Body parameters
// are collected separately and emitted as a single trailing body component.
type TemplateBuilder struct {
	components []TemplateComponent
	bodyParams []TemplateParameter
}

// NewTemplateBuilder returns an empty builder.
func NewTemplateBuilder() *TemplateBuilder {
	return &TemplateBuilder{}
}

// AddHeader adds a media header. kind is one of "image", "video" or "document".
func (b *TemplateBuilder) AddHeader(kind, url string) *TemplateBuilder {
	param := TemplateParameter{Type: kind}
	switch kind {
	case "image":
		param.Image = &MediaLink{Link: url}
	case "video":
		param.Video = &MediaLink{Link: url}
	case "document":
		param.Document = &DocumentRef{Link: url}
	}
	b.components = append(b.components, TemplateComponent{
		Type:       "header",
		Parameters: []TemplateParameter{param},
	})
	return b
}

func (b *TemplateBuilder) AddTextHeader(text string) *TemplateBuilder {
	b.components = append(b.components, TemplateComponent{
		Type:       "header",
		Parameters: []TemplateParameter{{Type: "text", Text: text}},
	})
	return b
}

func (b *TemplateBuilder) AddBodyParam(text string) *TemplateBuilder {
	b.bodyParams = append(b.bodyParams, TemplateParameter{Type: "text", Text: text})
	return b
}

func (b *TemplateBuilder) AddQuickReplyButton(index int, payload string) *TemplateBuilder {
	return b.addButton("quick_reply", index, payload)
}

// AddURLButton fills the dynamic suffix of a URL button.
func (b *TemplateBuilder) AddURLButton(index int, suffix string) *TemplateBuilder {
	return b.addButton("url", index, suffix)
}

func (b *TemplateBuilder) addButton(subType string, index int, text string) *TemplateBuilder {
	idx := index
	b.components = append(b.components, TemplateComponent{
		Type:       "button",
		SubType:    subType,
		Index:      &idx,
		Parameters: []TemplateParameter{{Type: "text", Text: text}},
	})
	return b
}

// Build returns a fresh slice; the builder can keep being used afterwards.
func (b *TemplateBuilder) Build() []TemplateComponent {
	out := make([]TemplateComponent, 0, len(b.components)+1)
	out = append(out, b.components...)
	if len(b.bodyParams) > 0 {
		params := make([]TemplateParameter, len(b.bodyParams))
		copy(params, b.bodyParams)
		out = append(out, TemplateComponent{Type: "body", Parameters: params})
	}
	return out
}
