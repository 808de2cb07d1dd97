package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/chatdocs/docmd/internal/conv"
)

const documentTemplate = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math"
	xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
	<w:body>%BODY%</w:body>
</w:document>`

// buildDocx assembles an in-memory docx package with the given body XML and
// optional extra parts.
func buildDocx(t *testing.T, body string, extra map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := map[string]string{
		"word/document.xml": strings.Replace(documentTemplate, "%BODY%", body, 1),
	}
	for name, content := range extra {
		parts[name] = content
	}
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

func convert(t *testing.T, body string, extra map[string]string) string {
	t.Helper()
	r, err := NewReader(buildDocx(t, body, extra), conv.NewSession("chat", nil, nil))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	out, err := r.Markdown(context.Background())
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	return out
}

func TestMarkdownParagraphs(t *testing.T) {
	out := convert(t, `<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
		<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>`, nil)
	want := "First paragraph.\n\nSecond paragraph."
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestMarkdownHeadingStyle(t *testing.T) {
	styles := `<w:styles xmlns:w="w">
		<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/></w:style>
	</w:styles>`
	out := convert(t,
		`<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Methods</w:t></w:r></w:p>`,
		map[string]string{"word/styles.xml": styles})
	if out != "## Methods" {
		t.Errorf("got %q, want %q", out, "## Methods")
	}
}

func TestMarkdownTitleStyle(t *testing.T) {
	styles := `<w:styles xmlns:w="w">
		<w:style w:type="paragraph" w:styleId="T1"><w:name w:val="Title"/></w:style>
	</w:styles>`
	out := convert(t,
		`<w:p><w:pPr><w:pStyle w:val="T1"/></w:pPr><w:r><w:t>Annual Report</w:t></w:r></w:p>`,
		map[string]string{"word/styles.xml": styles})
	if out != "# Annual Report" {
		t.Errorf("got %q, want %q", out, "# Annual Report")
	}
}

func TestMarkdownBoldSizeHeuristic(t *testing.T) {
	tests := []struct {
		name string
		run  string
		want string
	}{
		{
			"bold 64 half-points is h1",
			`<w:r><w:rPr><w:b/><w:sz w:val="64"/></w:rPr><w:t>Big Title</w:t></w:r>`,
			"# Big Title",
		},
		{
			"bold 28 half-points is h2",
			`<w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>Section</w:t></w:r>`,
			"## Section",
		},
		{
			"bold small size stays body",
			`<w:r><w:rPr><w:b/><w:sz w:val="22"/></w:rPr><w:t>emphasis</w:t></w:r>`,
			"emphasis",
		},
		{
			"large but not bold stays body",
			`<w:r><w:rPr><w:sz w:val="64"/></w:rPr><w:t>large</w:t></w:r>`,
			"large",
		},
		{
			"bold disabled by val",
			`<w:r><w:rPr><w:b w:val="false"/><w:sz w:val="64"/></w:rPr><w:t>off</w:t></w:r>`,
			"off",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := convert(t, "<w:p>"+tt.run+"</w:p>", nil)
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestMarkdownListParagraphs(t *testing.T) {
	body := `<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>
			<w:r><w:t>first item</w:t></w:r></w:p>
		<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>
			<w:r><w:t>second item</w:t></w:r></w:p>`
	out := convert(t, body, nil)
	want := "- first item\n\n- second item"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestMarkdownInlineMath(t *testing.T) {
	body := `<w:p><w:r><w:t>Energy is </w:t></w:r>
		<m:oMath><m:sSup><m:e><m:r><m:t>mc</m:t></m:r></m:e><m:sup><m:r><m:t>2</m:t></m:r></m:sup></m:sSup></m:oMath>
		<w:r><w:t> here.</w:t></w:r></w:p>`
	out := convert(t, body, nil)
	if !strings.Contains(out, "${mc}^{2}$") {
		t.Errorf("math not translated: %q", out)
	}
}

func TestMarkdownSkipsFieldPlumbing(t *testing.T) {
	body := `<w:p>
		<w:r><w:fldChar w:fldCharType="begin"/></w:r>
		<w:r><w:instrText>PAGEREF _Toc1 \h</w:instrText></w:r>
		<w:r><w:fldChar w:fldCharType="separate"/></w:r>
		<w:r><w:t>visible</w:t></w:r>
		<w:r><w:fldChar w:fldCharType="end"/></w:r>
		<w:r><w:delText>deleted</w:delText></w:r>
	</w:p>`
	out := convert(t, body, nil)
	if out != "visible" {
		t.Errorf("got %q, want %q", out, "visible")
	}
}

func TestMarkdownBreaksAndTabs(t *testing.T) {
	body := `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`
	out := convert(t, body, nil)
	if out != "a b\nc" {
		t.Errorf("got %q, want %q", out, "a b\nc")
	}
}

func TestMarkdownSymbol(t *testing.T) {
	body := `<w:p><w:r><w:sym w:font="Wingdings" w:char="F0E0"/><w:t> next</w:t></w:r></w:p>`
	out := convert(t, body, nil)
	// Private-use code points fold back to the base range.
	if out != "à next" {
		t.Errorf("got %q", out)
	}
}

func TestMarkdownImagePlaceholder(t *testing.T) {
	// No store on the session, so resolution degrades to the placeholder.
	body := `<w:p><w:r><w:drawing>
		<a:blip xmlns:a="a" r:embed="rId4"/>
	</w:drawing></w:r></w:p>`
	out := convert(t, body, nil)
	if out != "[Image]" {
		t.Errorf("got %q, want [Image]", out)
	}
}

func TestMarkdownHyperlinkRecursion(t *testing.T) {
	body := `<w:p><w:hyperlink r:id="rId9"><w:r><w:t>linked text</w:t></w:r></w:hyperlink></w:p>`
	out := convert(t, body, nil)
	if out != "linked text" {
		t.Errorf("got %q, want %q", out, "linked text")
	}
}

func TestMarkdownTitleFallback(t *testing.T) {
	core := `<cp:coreProperties xmlns:cp="cp" xmlns:dc="dc">
		<dc:title>Quarterly Review</dc:title>
		<dc:creator>A. Author</dc:creator>
	</cp:coreProperties>`
	extra := map[string]string{"docProps/core.xml": core}

	out := convert(t, `<w:p><w:r><w:t>Body text.</w:t></w:r></w:p>`, extra)
	if !strings.HasPrefix(out, "# Quarterly Review\n\n") {
		t.Errorf("missing title fallback: %q", out)
	}

	// A document that already opens with a heading keeps it.
	styles := `<w:styles xmlns:w="w"><w:style w:styleId="Heading1"><w:name w:val="heading 1"/></w:style></w:styles>`
	extra["word/styles.xml"] = styles
	out = convert(t,
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Own Heading</w:t></w:r></w:p>`,
		extra)
	if strings.Contains(out, "Quarterly Review") {
		t.Errorf("title fallback applied over existing heading: %q", out)
	}
}

func TestMetadata(t *testing.T) {
	core := `<cp:coreProperties xmlns:cp="cp" xmlns:dc="dc" xmlns:dcterms="dcterms">
		<dc:title>Doc</dc:title><dc:creator>Writer</dc:creator><dc:subject>Tests</dc:subject>
		<dcterms:created>2024-01-01T00:00:00Z</dcterms:created>
	</cp:coreProperties>`
	r, err := NewReader(buildDocx(t, `<w:p/>`, map[string]string{"docProps/core.xml": core}),
		conv.NewSession("chat", nil, nil))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	meta := r.Metadata()
	if meta.Title != "Doc" || meta.Author != "Writer" || meta.Subject != "Tests" {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Created != "2024-01-01T00:00:00Z" {
		t.Errorf("created = %q", meta.Created)
	}
}

func TestNewReaderRejectsNonDocx(t *testing.T) {
	if _, err := NewReader([]byte("not a zip"), conv.NewSession("chat", nil, nil)); err == nil {
		t.Error("expected error for non-zip input")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("xl/workbook.xml")
	w.Write([]byte("<workbook/>"))
	zw.Close()
	if _, err := NewReader(buf.Bytes(), conv.NewSession("chat", nil, nil)); err == nil {
		t.Error("expected error for zip without word/document.xml")
	}
}
