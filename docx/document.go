package docx

import (
	"context"
	"strconv"
	"strings"

	"github.com/chatdocs/docmd/internal/xmltree"
	"github.com/chatdocs/docmd/media"
	"github.com/chatdocs/docmd/omml"
)

// Font size thresholds in half-points for the bold-run heading heuristic,
// applied only when no named heading style matched.
const (
	headingSizeH1 = 32
	headingSizeH2 = 28
)

// paragraph converts one w:p element to a Markdown block. Empty paragraphs
// yield the empty string.
func (r *Reader) paragraph(ctx context.Context, p *xmltree.Node) string {
	text := strings.TrimSpace(r.inline(ctx, p))
	if text == "" {
		return ""
	}

	if level := r.headingLevel(p); level > 0 {
		return strings.Repeat("#", level) + " " + text
	}
	if isListParagraph(p) {
		return "- " + text
	}
	return text
}

// headingLevel infers the heading level for a paragraph: a named style
// matching heading(\d) or title wins, else a bold first run with a large
// font size promotes the paragraph.
func (r *Reader) headingLevel(p *xmltree.Node) int {
	if pPr := p.Child("pPr"); pPr != nil {
		if pStyle := pPr.Child("pStyle"); pStyle != nil {
			if level := r.styles.headingLevel(pStyle.Attr("val")); level > 0 {
				return level
			}
		}
	}

	run := p.Child("r")
	if run == nil {
		return 0
	}
	rPr := run.Child("rPr")
	if rPr == nil || !boolProp(rPr, "b") {
		return 0
	}
	sz := rPr.Child("sz")
	if sz == nil {
		return 0
	}
	halfPoints, err := strconv.Atoi(sz.Attr("val"))
	if err != nil {
		return 0
	}
	switch {
	case halfPoints >= headingSizeH1:
		return 1
	case halfPoints >= headingSizeH2:
		return 2
	}
	return 0
}

// boolProp reports whether an on/off run property is set. A bare element
// means on; val="false"/"0"/"none" means off.
func boolProp(rPr *xmltree.Node, name string) bool {
	n := rPr.Child(name)
	if n == nil {
		return false
	}
	switch n.Attr("val") {
	case "false", "0", "none":
		return false
	}
	return true
}

func isListParagraph(p *xmltree.Node) bool {
	pPr := p.Child("pPr")
	return pPr != nil && pPr.Child("numPr") != nil
}

// inline flattens a paragraph subtree into text, dispatching per node type.
// Unknown elements recurse so wrappers (hyperlinks, smart tags, revisions)
// contribute their content.
func (r *Reader) inline(ctx context.Context, n *xmltree.Node) string {
	var sb strings.Builder
	for _, child := range n.Children {
		sb.WriteString(r.inlineNode(ctx, child))
	}
	return sb.String()
}

func (r *Reader) inlineNode(ctx context.Context, n *xmltree.Node) string {
	switch n.Name {
	case "t":
		return n.Text
	case "tab":
		return " "
	case "br", "cr":
		return "\n"
	case "instrText", "delText", "fldChar", "pPr", "rPr":
		// Field plumbing and properties carry no visible text.
		return ""
	case "oMath", "oMathPara":
		if math := strings.TrimSpace(omml.Translate(n)); math != "" {
			return "$" + math + "$"
		}
		return ""
	case "sym":
		return symbolRune(n)
	case "drawing", "pict", "object":
		return r.image(ctx, n)
	default:
		return r.inline(ctx, n)
	}
}

// symbolRune decodes a w:sym char attribute, a hex code point often offset
// into the private-use area.
func symbolRune(n *xmltree.Node) string {
	code, err := strconv.ParseInt(n.Attr("char"), 16, 32)
	if err != nil {
		return ""
	}
	// Symbol fonts map into U+F000..U+F0FF; fold back to the base range.
	if code >= 0xF000 && code <= 0xF0FF {
		code -= 0xF000
	}
	return string(rune(code))
}

// image resolves an embedded image to a content reference, degrading to a
// literal placeholder when resolution fails.
func (r *Reader) image(ctx context.Context, n *xmltree.Node) string {
	ref, ok := media.RefFromNode(n)
	if !ok {
		return r.inline(ctx, n)
	}
	return media.Markdown(ref, r.resolver.Resolve(ctx, ref))
}
