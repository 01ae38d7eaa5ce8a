package blocks

// Document is the structured representation of a document's content: an
// ordered list of blocks. Order is the document's reading order.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// Block is one addressable unit of content. Ids are stable within a document
// across edits so a single block can be replaced in place without
// reserializing the whole tree.
type Block struct {
	Id   string `json:"id"`
	Type string `json:"type"`

	// Heading specific
	Level int `json:"level,omitempty"`

	// List item specific
	ListType string `json:"listType,omitempty"` // bullet, number, check
	Checked  bool   `json:"checked,omitempty"`
	Indent   int    `json:"indent,omitempty"`

	Runs []Run `json:"runs,omitempty"`
}

// Run is a span of styled text inside a block.
type Run struct {
	Text   string `json:"text"`
	Format int    `json:"format,omitempty"` // bitmask, see constants below
}

// Block types
const (
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeListItem       = "listitem"
	TypeQuote          = "quote"
	TypeCode           = "code"
	TypeHorizontalRule = "horizontalrule"
)

// Constants for the run format bitmask
const (
	FormatBold          = 1
	FormatItalic        = 2
	FormatStrikethrough = 4
	FormatUnderline     = 8
	FormatCode          = 16
)
