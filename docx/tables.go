package docx

import (
	"context"
	"strings"

	"github.com/chatdocs/docmd/internal/mdtable"
	"github.com/chatdocs/docmd/internal/xmltree"
)

// table converts a w:tbl element. The first row becomes the header row and
// multi-paragraph cells join with <br>.
func (r *Reader) table(ctx context.Context, tbl *xmltree.Node) string {
	var rows [][]string
	for _, tr := range tbl.ChildrenNamed("tr") {
		var cells []string
		for _, tc := range tr.ChildrenNamed("tc") {
			cells = append(cells, r.cell(ctx, tc))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return mdtable.Render(rows)
}

func (r *Reader) cell(ctx context.Context, tc *xmltree.Node) string {
	var paras []string
	for _, p := range tc.ChildrenNamed("p") {
		if text := strings.TrimSpace(r.inline(ctx, p)); text != "" {
			paras = append(paras, text)
		}
	}
	return mdtable.Escape(strings.Join(paras, "\n"))
}
