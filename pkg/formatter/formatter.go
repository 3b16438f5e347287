package formatter

import (
	"strings"
)

// Kind classifies a display block.
type Kind int

const (
	Paragraph Kind = iota
	ListItem
)

func (k Kind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case ListItem:
		return "list_item"
	default:
		return "unknown"
	}
}

// Block is one formatted unit of a research result, derived from a single line.
type Block struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

var listMarkers = []string{"-", "•"}

// Format splits raw result text into display blocks, one per non-blank line.
// Lines starting with "-" or "•" become list items with the marker and a
// single following space removed; everything else becomes a paragraph.
func Format(raw string) []Block {
	var blocks []Block
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if text, ok := stripMarker(trimmed); ok {
			blocks = append(blocks, Block{Kind: ListItem, Text: text})
			continue
		}
		blocks = append(blocks, Block{Kind: Paragraph, Text: trimmed})
	}
	return blocks
}

func stripMarker(line string) (string, bool) {
	for _, marker := range listMarkers {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimPrefix(rest, " "), true
		}
	}
	return "", false
}

// Section is a run of blocks rendered together: either a single paragraph or
// a list made of adjacent list items.
type Section struct {
	Kind  Kind
	Items []string
}

// Group collapses adjacent list items into one list section.
func Group(blocks []Block) []Section {
	var sections []Section
	for _, b := range blocks {
		if b.Kind == ListItem && len(sections) > 0 && sections[len(sections)-1].Kind == ListItem {
			last := &sections[len(sections)-1]
			last.Items = append(last.Items, b.Text)
			continue
		}
		sections = append(sections, Section{Kind: b.Kind, Items: []string{b.Text}})
	}
	return sections
}

// RenderText renders blocks as plain terminal text. Sections are separated by
// a blank line and list items are prefixed with a bullet.
func RenderText(blocks []Block) string {
	var sb strings.Builder
	for i, section := range Group(blocks) {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, item := range section.Items {
			if section.Kind == ListItem {
				sb.WriteString("  • ")
			}
			sb.WriteString(item)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
