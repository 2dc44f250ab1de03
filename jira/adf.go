package jira

import (
	"encoding/json"
	"strings"
)

// ADFDocument is an Atlassian Document Format document. Cloud's v3 API
// uses ADF for rich-text fields where v2 uses plain strings.
type ADFDocument struct {
	Version int       `json:"version"`
	Type    string    `json:"type"`
	Content []ADFNode `json:"content"`
}

// ADFNode is one node of an ADF document.
type ADFNode struct {
	Type    string    `json:"type"`
	Content []ADFNode `json:"content,omitempty"`
	Text    string    `json:"text,omitempty"`
}

// NewADFText builds an ADF document from plain text. Blank lines separate
// paragraphs.
func NewADFText(text string) *ADFDocument {
	doc := &ADFDocument{Version: 1, Type: "doc"}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		doc.Content = append(doc.Content, ADFNode{
			Type: "paragraph",
			Content: []ADFNode{
				{Type: "text", Text: para},
			},
		})
	}
	return doc
}

// PlainText extracts readable text from a rich-text field value, which is
// a plain string under v2 and an ADF document under v3. Unknown shapes
// yield an empty string.
func PlainText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var doc ADFDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	var b strings.Builder
	for _, node := range doc.Content {
		writeNodeText(&b, node)
	}
	return strings.TrimSpace(b.String())
}

func writeNodeText(b *strings.Builder, node ADFNode) {
	if node.Type == "text" {
		b.WriteString(node.Text)
		return
	}
	for _, child := range node.Content {
		writeNodeText(b, child)
	}
	if node.Type == "paragraph" || node.Type == "heading" {
		b.WriteString("\n\n")
	}
}

// FormatText converts plain text into the rich-text form the client's
// working API version accepts: an ADF document for v3, the string itself
// for v2.
func (c *Client) FormatText(text string) any {
	if c.WorkingVersion() == APIVersionV2 {
		return text
	}
	return NewADFText(text)
}
