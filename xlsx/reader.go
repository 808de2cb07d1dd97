// Package xlsx converts spreadsheets (SpreadsheetML) to Markdown tables.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatdocs/docmd/internal/conv"
	"github.com/chatdocs/docmd/internal/mdtable"
	"github.com/chatdocs/docmd/internal/xmltree"
	"github.com/chatdocs/docmd/ooxml"
)

const workbookPart = "xl/workbook.xml"

// sheetInfo identifies one worksheet in workbook order.
type sheetInfo struct {
	name string
	part string
}

// Reader converts one workbook. It is not safe for concurrent use.
type Reader struct {
	pkg    *ooxml.Package
	sess   *conv.Session
	sheets []sheetInfo
	shared []string
}

// NewReader opens the workbook package and resolves the worksheet list.
func NewReader(data []byte, sess *conv.Session) (*Reader, error) {
	pkg, err := ooxml.OpenPackage(data)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx package: %w", err)
	}
	if !pkg.HasPart(workbookPart) {
		return nil, fmt.Errorf("not an xlsx package: missing %s", workbookPart)
	}

	r := &Reader{pkg: pkg, sess: sess}
	if err := r.loadWorkbook(); err != nil {
		return nil, err
	}
	r.loadSharedStrings()
	return r, nil
}

// loadWorkbook reads the sheet list in workbook order and maps each sheet's
// relationship id to its worksheet part.
func (r *Reader) loadWorkbook() error {
	data, err := r.pkg.Part(workbookPart)
	if err != nil {
		return fmt.Errorf("reading workbook: %w", err)
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing workbook: %w", err)
	}
	rels, err := r.pkg.Relationships(workbookPart)
	if err != nil {
		return fmt.Errorf("parsing workbook relationships: %w", err)
	}

	sheets := root.Find("sheets")
	if sheets == nil {
		return fmt.Errorf("workbook has no sheet list")
	}
	for i, sheet := range sheets.ChildrenNamed("sheet") {
		name := sheet.Attr("name")
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		target := rels.Target(sheet.AttrNS(ooxml.RelationshipsNS, "id"))
		if target == "" {
			r.sess.Logger.Debug("worksheet without relationship", "sheet", name)
			continue
		}
		r.sheets = append(r.sheets, sheetInfo{
			name: name,
			part: ooxml.ResolvePartPath("xl", target),
		})
	}
	return nil
}

// loadSharedStrings reads xl/sharedStrings.xml. The part is optional.
func (r *Reader) loadSharedStrings() {
	data, err := r.pkg.Part("xl/sharedStrings.xml")
	if err != nil {
		return
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		r.sess.Logger.Debug("malformed shared strings", "error", err)
		return
	}
	for _, si := range root.ChildrenNamed("si") {
		r.shared = append(r.shared, si.FullText())
	}
}

// Markdown renders every worksheet as a heading followed by a table.
func (r *Reader) Markdown(ctx context.Context) (string, error) {
	var sections []string
	for _, info := range r.sheets {
		section, err := r.sheetMarkdown(info)
		if err != nil {
			return "", fmt.Errorf("sheet %q: %w", info.name, err)
		}
		sections = append(sections, section)
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("workbook has no worksheets")
	}
	return strings.Join(sections, "\n\n"), nil
}

func (r *Reader) sheetMarkdown(info sheetInfo) (string, error) {
	data, err := r.pkg.Part(info.part)
	if err != nil {
		return "", fmt.Errorf("reading worksheet: %w", err)
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parsing worksheet: %w", err)
	}

	rows := r.grid(root)
	heading := "## " + info.name
	if len(rows) == 0 {
		return heading, nil
	}
	return heading + "\n\n" + mdtable.Render(rows), nil
}

// grid materializes sheetData into dense rows. Cells are placed by their A1
// reference so gaps render as empty cells; cells past the column cap are
// dropped.
func (r *Reader) grid(root *xmltree.Node) [][]string {
	sheetData := root.Find("sheetData")
	if sheetData == nil {
		return nil
	}

	var rows [][]string
	for _, rowNode := range sheetData.ChildrenNamed("row") {
		row := make([]string, 0, len(rowNode.Children))
		next := 0
		for _, c := range rowNode.ChildrenNamed("c") {
			col := next
			if ref := c.Attr("r"); ref != "" {
				if parsed, _, err := ParseCellRef(ref); err == nil {
					col = parsed
				}
			}
			if col >= mdtable.MaxColumns {
				continue
			}
			for len(row) < col {
				row = append(row, "")
			}
			value := mdtable.Escape(r.cellValue(c))
			if col < len(row) {
				row[col] = value
			} else {
				row = append(row, value)
			}
			next = col + 1
		}
		rows = append(rows, row)
	}

	// Drop trailing all-empty rows so sheets with stray formatting do not
	// end in blank table rows.
	for len(rows) > 0 && isEmptyRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// cellValue decodes one c element by its type attribute.
func (r *Reader) cellValue(c *xmltree.Node) string {
	value := ""
	if v := c.Child("v"); v != nil {
		value = v.FullText()
	}

	switch c.Attr("t") {
	case "s":
		idx := -1
		fmt.Sscanf(value, "%d", &idx)
		if idx >= 0 && idx < len(r.shared) {
			return r.shared[idx]
		}
		r.sess.Logger.Debug("shared string index out of range", "index", value)
		return ""
	case "inlineStr":
		if is := c.Child("is"); is != nil {
			return is.FullText()
		}
		return ""
	case "b":
		if value == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		// Numbers, formula results and error literals all carry their
		// display value in v.
		return value
	}
}
