package pptx

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/chatdocs/docmd/internal/xmltree"
)

// slideFallback produces a flat text dump of a slide whose structured walk
// failed: all a:t runs concatenated when the XML still parses, otherwise a
// raw token-level tag strip.
func (r *Reader) slideFallback(info slideInfo, number int) string {
	data, err := r.pkg.Part(info.part)
	if err != nil {
		return ""
	}

	text := ""
	if root, parseErr := xmltree.Parse(data); parseErr == nil {
		var sb strings.Builder
		for _, t := range root.FindAll("t") {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(strings.TrimSpace(t.Text))
		}
		text = strings.TrimSpace(sb.String())
	} else {
		text = stripTags(data)
	}

	if text == "" {
		return ""
	}
	return fmt.Sprintf("## Slide %d\n\n%s", number, text)
}

// stripTags recovers visible text from markup too broken for the XML parser.
// The HTML tokenizer never fails; it treats malformed input as text soup.
func stripTags(data []byte) string {
	tok := html.NewTokenizer(bytes.NewReader(data))
	var parts []string
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.TextToken:
			if text := strings.TrimSpace(string(tok.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
}
