package tui

import (
	"strings"

	"github.com/mikeboe/research-assistant/pkg/formatter"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const bullet = "• "

// renderBlocks lays out formatted blocks for a panel of the given width.
func renderBlocks(blocks []formatter.Block, width int) string {
	if width < 10 {
		width = 10
	}

	var b strings.Builder
	for i, section := range formatter.Group(blocks) {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, item := range section.Items {
			if section.Kind == formatter.ListItem {
				wrapped := wordwrap.String(item, width-len([]rune(bullet)))
				// Continuation lines line up with the text after the bullet.
				body := strings.TrimPrefix(indent.String(wrapped, uint(len([]rune(bullet)))), strings.Repeat(" ", len([]rune(bullet))))
				b.WriteString(StyleBullet.Render(bullet))
				b.WriteString(body)
			} else {
				b.WriteString(wordwrap.String(item, width))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
