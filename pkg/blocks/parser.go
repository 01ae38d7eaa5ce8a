package blocks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Parse decodes a serialized block document.
func Parse(jsonContent string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(jsonContent), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse block json: %w", err)
	}
	return &doc, nil
}

// IsStructured reports whether content is a serialized block document rather
// than flat markdown. Uploaded content may carry interior whitespace, so the
// check decodes rather than sniffing the literal prefix.
func IsStructured(content string) bool {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var envelope struct {
		Blocks *json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return false
	}
	return envelope.Blocks != nil
}

// Flatten is a convenience function that normalizes any stored content to
// flat text. Structured content is rendered to markdown; anything else is
// returned as-is.
func Flatten(content string) string {
	if !IsStructured(content) {
		return content
	}
	doc, err := Parse(strings.TrimSpace(content))
	if err != nil {
		// Fallback to original content if parsing fails
		return content
	}
	return doc.Markdown()
}

// FlattenText is like Flatten but strips markdown syntax entirely, which
// suits embedding input better than rendered markup.
func FlattenText(content string) string {
	if !IsStructured(content) {
		return content
	}
	doc, err := Parse(strings.TrimSpace(content))
	if err != nil {
		return content
	}
	return doc.PlainText()
}

// Serialize encodes the document back to its stored JSON form.
func (d *Document) Serialize() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to serialize block document: %w", err)
	}
	return string(data), nil
}

// FromPlainText builds a block document from flat text with a line-based
// heuristic: markdown headings, list markers and rules are recognized,
// everything else becomes a paragraph. The conversion is lossy (inline styles
// are not reconstructed) and is only meant for importing legacy or foreign
// content — natively structured content must never round-trip through it.
func FromPlainText(text string) *Document {
	doc := &Document{Blocks: []Block{}}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimRight(rawLine, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		block := Block{Id: NewBlockId()}

		switch {
		case strings.HasPrefix(trimmed, "#"):
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			if level <= 6 && level < len(trimmed) && trimmed[level] == ' ' {
				block.Type = TypeHeading
				block.Level = level
				block.Runs = []Run{{Text: strings.TrimSpace(trimmed[level:])}}
			} else {
				block.Type = TypeParagraph
				block.Runs = []Run{{Text: trimmed}}
			}

		case trimmed == "---":
			block.Type = TypeHorizontalRule

		case strings.HasPrefix(trimmed, "- [x] "), strings.HasPrefix(trimmed, "- [ ] "):
			block.Type = TypeListItem
			block.ListType = "check"
			block.Checked = strings.HasPrefix(trimmed, "- [x] ")
			block.Runs = []Run{{Text: trimmed[6:]}}

		case strings.HasPrefix(trimmed, "- "):
			block.Type = TypeListItem
			block.ListType = "bullet"
			block.Runs = []Run{{Text: trimmed[2:]}}

		case strings.HasPrefix(trimmed, "> "):
			block.Type = TypeQuote
			block.Runs = []Run{{Text: trimmed[2:]}}

		default:
			block.Type = TypeParagraph
			block.Runs = []Run{{Text: trimmed}}
		}

		doc.Blocks = append(doc.Blocks, block)
	}

	return doc
}

// NewBlockId mints an id for a freshly created block. Existing ids are never
// reused or renumbered by any edit operation.
func NewBlockId() string {
	return uuid.NewString()
}
