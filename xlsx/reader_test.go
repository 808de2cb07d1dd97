package xlsx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chatdocs/docmd/internal/conv"
)

const workbookXML = `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
	<sheets>
		<sheet name="Data" sheetId="1" r:id="rId1"/>
	</sheets>
</workbook>`

const workbookRels = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
	<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`

// buildXlsx assembles an in-memory workbook around one worksheet body.
func buildXlsx(t *testing.T, sheetData string, extra map[string]string) []byte {
	t.Helper()
	parts := map[string]string{
		"xl/workbook.xml":            workbookXML,
		"xl/_rels/workbook.xml.rels": workbookRels,
		"xl/worksheets/sheet1.xml": `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
			<sheetData>` + sheetData + `</sheetData></worksheet>`,
	}
	for name, content := range extra {
		parts[name] = content
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		w.Write([]byte(content))
	}
	zw.Close()
	return buf.Bytes()
}

func extract(t *testing.T, data []byte) string {
	t.Helper()
	out, err := Extract(context.Background(), data, conv.NewSession("chat", nil, nil))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return out
}

func TestMarkdownBasicSheet(t *testing.T) {
	data := buildXlsx(t, `
		<row r="1"><c r="A1" t="inlineStr"><is><t>Name</t></is></c><c r="B1" t="inlineStr"><is><t>Qty</t></is></c></row>
		<row r="2"><c r="A2" t="inlineStr"><is><t>Bolts</t></is></c><c r="B2"><v>42</v></c></row>`, nil)
	out := extract(t, data)

	want := "## Data\n\n| Name | Qty |\n| --- | --- |\n| Bolts | 42 |"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestMarkdownSharedStrings(t *testing.T) {
	shared := `<sst xmlns="x" count="2" uniqueCount="2">
		<si><t>Header</t></si>
		<si><r><t>rich </t></r><r><t>text</t></r></si>
	</sst>`
	data := buildXlsx(t, `
		<row r="1"><c r="A1" t="s"><v>0</v></c></row>
		<row r="2"><c r="A2" t="s"><v>1</v></c></row>
		<row r="3"><c r="A3" t="s"><v>99</v></c></row>`,
		map[string]string{"xl/sharedStrings.xml": shared})
	out := extract(t, data)

	if !strings.Contains(out, "| Header |") {
		t.Errorf("shared string not resolved:\n%s", out)
	}
	if !strings.Contains(out, "| rich text |") {
		t.Errorf("rich-text shared string not flattened:\n%s", out)
	}
	// Out-of-range index renders as an empty cell, not a panic.
	if strings.Contains(out, "99") {
		t.Errorf("out-of-range index leaked:\n%s", out)
	}
}

func TestMarkdownShortRowPadded(t *testing.T) {
	data := buildXlsx(t, `
		<row r="1"><c r="A1" t="inlineStr"><is><t>A</t></is></c><c r="B1" t="inlineStr"><is><t>B</t></is></c><c r="C1" t="inlineStr"><is><t>C</t></is></c></row>
		<row r="2"><c r="A2"><v>1</v></c></row>`, nil)
	out := extract(t, data)

	lines := strings.Split(out, "\n")
	last := lines[len(lines)-1]
	if last != "| 1 |  |  |" {
		t.Errorf("short row = %q, want padded to header width", last)
	}
}

func TestMarkdownGapAndNewline(t *testing.T) {
	data := buildXlsx(t, `
		<row r="1"><c r="A1" t="inlineStr"><is><t>left</t></is></c><c r="C1" t="inlineStr"><is><t>multi
line</t></is></c></row>`, nil)
	out := extract(t, data)

	if !strings.Contains(out, "| left |  | multi<br>line |") {
		t.Errorf("gap or newline handling wrong:\n%s", out)
	}
}

func TestMarkdownBooleanCells(t *testing.T) {
	data := buildXlsx(t, `
		<row r="1"><c r="A1" t="b"><v>1</v></c><c r="B1" t="b"><v>0</v></c></row>`, nil)
	out := extract(t, data)
	if !strings.Contains(out, "| TRUE | FALSE |") {
		t.Errorf("boolean cells wrong:\n%s", out)
	}
}

func TestMarkdownColumnCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<row r="1">`)
	for col := 0; col < 130; col++ {
		ref := cellRef(col) + "1"
		sb.WriteString(`<c r="` + ref + `"><v>1</v></c>`)
	}
	sb.WriteString(`</row>`)

	out := extract(t, buildXlsx(t, sb.String(), nil))
	header := strings.Split(out, "\n")[2]
	if n := strings.Count(header, "|"); n != 101 {
		t.Errorf("header has %d pipes, want 101", n)
	}
}

// cellRef builds an A1 column reference for a 0-indexed column.
func cellRef(col int) string {
	ref := ""
	for col >= 0 {
		ref = string(rune('A'+col%26)) + ref
		col = col/26 - 1
	}
	return ref
}

func TestExtractFallbackUTF8(t *testing.T) {
	out, err := Extract(context.Background(), []byte("just,plain,text\n1,2,3"),
		conv.NewSession("chat", nil, nil))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out != "just,plain,text\n1,2,3" {
		t.Errorf("got %q", out)
	}
}

func TestExtractFallbackWindows1252(t *testing.T) {
	// "café" with 0xE9, invalid as UTF-8.
	raw := []byte{'c', 'a', 'f', 0xE9}
	out, err := Extract(context.Background(), raw, conv.NewSession("chat", nil, nil))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out != "café" {
		t.Errorf("got %q, want café", out)
	}
}

func TestExtractBinaryFails(t *testing.T) {
	raw := []byte{0x00, 0x01, 0x02, 0xFF, 0x00}
	_, err := Extract(context.Background(), raw, conv.NewSession("chat", nil, nil))
	if err == nil {
		t.Fatal("expected error for binary input")
	}
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("error %v does not wrap ErrEncoding", err)
	}
}
