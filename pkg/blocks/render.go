package blocks

import (
	"fmt"
	"strings"
)

// Markdown renders the block list to semantic markdown. Always derivable;
// this is the canonical path from structured content to flat text.
func (d *Document) Markdown() string {
	var sb strings.Builder
	listIndex := 0

	for _, block := range d.Blocks {
		if block.Type == TypeListItem && block.ListType == "number" {
			listIndex++
		} else {
			listIndex = 0
		}
		renderBlock(block, listIndex, &sb)
	}

	return sb.String()
}

func renderBlock(block Block, listIndex int, sb *strings.Builder) {
	switch block.Type {
	case TypeHeading:
		level := block.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(" ")
		renderRuns(block.Runs, sb)
		sb.WriteString("\n\n")

	case TypeListItem:
		sb.WriteString(strings.Repeat("  ", block.Indent))
		switch block.ListType {
		case "number":
			sb.WriteString(fmt.Sprintf("%d. ", listIndex))
		case "check":
			if block.Checked {
				sb.WriteString("- [x] ")
			} else {
				sb.WriteString("- [ ] ")
			}
		default:
			sb.WriteString("- ")
		}
		renderRuns(block.Runs, sb)
		sb.WriteString("\n")

	case TypeQuote:
		sb.WriteString("> ")
		renderRuns(block.Runs, sb)
		sb.WriteString("\n\n")

	case TypeCode:
		sb.WriteString("```\n")
		renderRuns(block.Runs, sb)
		sb.WriteString("\n```\n\n")

	case TypeHorizontalRule:
		sb.WriteString("---\n")

	default:
		renderRuns(block.Runs, sb)
		sb.WriteString("\n\n")
	}
}

func renderRuns(runs []Run, sb *strings.Builder) {
	for _, run := range runs {
		renderRun(run, sb)
	}
}

func renderRun(run Run, sb *strings.Builder) {
	isBold := (run.Format & FormatBold) != 0
	isItalic := (run.Format & FormatItalic) != 0
	isUnderline := (run.Format & FormatUnderline) != 0
	isCode := (run.Format & FormatCode) != 0
	isStrike := (run.Format & FormatStrikethrough) != 0

	// Apply wrappers (Code > Bold > Italic > Underline > Strike)
	// Markdown doesn't support underline natively everywhere, using HTML <u>
	if isCode {
		sb.WriteString("`")
	}
	if isBold {
		sb.WriteString("**")
	}
	if isItalic {
		sb.WriteString("_")
	}
	if isUnderline {
		sb.WriteString("<u>")
	}
	if isStrike {
		sb.WriteString("~~")
	}

	sb.WriteString(run.Text)

	if isStrike {
		sb.WriteString("~~")
	}
	if isUnderline {
		sb.WriteString("</u>")
	}
	if isItalic {
		sb.WriteString("_")
	}
	if isBold {
		sb.WriteString("**")
	}
	if isCode {
		sb.WriteString("`")
	}
}

// PlainText renders the block list without any markdown syntax. Used when
// building AI prompts where markers would just waste tokens.
func (d *Document) PlainText() string {
	var sb strings.Builder
	for _, block := range d.Blocks {
		if block.Type == TypeHorizontalRule {
			continue
		}
		for _, run := range block.Runs {
			sb.WriteString(run.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
