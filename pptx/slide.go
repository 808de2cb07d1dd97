package pptx

import (
	"context"
	"strings"

	"github.com/chatdocs/docmd/internal/mdtable"
	"github.com/chatdocs/docmd/internal/xmltree"
	"github.com/chatdocs/docmd/media"
)

// slideWalker accumulates Markdown blocks for one slide.
type slideWalker struct {
	reader   *Reader
	resolver *media.Resolver
	bullets  *bulletState
	title    string
	blocks   []string
}

// shapeTree walks one p:spTree (or nested p:grpSp) in document order.
func (w *slideWalker) shapeTree(ctx context.Context, tree *xmltree.Node) {
	for _, child := range tree.Children {
		switch child.Name {
		case "sp":
			w.shape(child)
		case "grpSp":
			w.shapeTree(ctx, child)
		case "pic":
			w.picture(ctx, child)
		case "graphicFrame":
			if tbl := child.Find("tbl"); tbl != nil {
				w.table(tbl)
			}
		}
	}
}

// shape renders a text shape. The title placeholder feeds the slide heading
// instead of the body.
func (w *slideWalker) shape(sp *xmltree.Node) {
	body := sp.Find("txBody")
	if body == nil {
		return
	}

	switch placeholderType(sp) {
	case "title", "ctrTitle":
		if w.title == "" {
			w.title = strings.TrimSpace(strings.Join(shapeLines(body), " "))
		}
		return
	}

	var lines []string
	for _, p := range body.ChildrenNamed("p") {
		if line := w.paragraph(p); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		w.blocks = append(w.blocks, strings.Join(lines, "\n"))
	}
}

// paragraph renders one a:p with its bullet or number prefix.
func (w *slideWalker) paragraph(p *xmltree.Node) string {
	text := strings.TrimSpace(paragraphText(p))
	if text == "" {
		// An empty paragraph still interrupts a numbered sequence when it
		// explicitly disables bullets.
		if bulletKind(p) == bulletNone {
			w.bullets.interrupt()
		}
		return ""
	}

	level := paragraphLevel(p)
	prefix := w.bullets.prefix(level, bulletKind(p))
	return strings.Repeat("  ", level) + prefix + text
}

// shapeLines flattens a txBody to one line per paragraph without bullet
// handling.
func shapeLines(body *xmltree.Node) []string {
	var lines []string
	for _, p := range body.ChildrenNamed("p") {
		if text := strings.TrimSpace(paragraphText(p)); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}

// picture resolves a p:pic through the media resolver.
func (w *slideWalker) picture(ctx context.Context, pic *xmltree.Node) {
	ref, ok := media.RefFromNode(pic)
	if !ok {
		return
	}
	w.bullets.interrupt()
	w.blocks = append(w.blocks, media.Markdown(ref, w.resolver.Resolve(ctx, ref)))
}

// table renders an a:tbl with the shared table rules, no bullet formatting.
func (w *slideWalker) table(tbl *xmltree.Node) {
	w.bullets.interrupt()

	var rows [][]string
	for _, tr := range tbl.ChildrenNamed("tr") {
		var cells []string
		for _, tc := range tr.ChildrenNamed("tc") {
			var paras []string
			if body := tc.Find("txBody"); body != nil {
				paras = shapeLines(body)
			}
			cells = append(cells, mdtable.Escape(strings.Join(paras, "\n")))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	if table := mdtable.Render(rows); table != "" {
		w.blocks = append(w.blocks, table)
	}
}
