package omml

import (
	"strings"
	"testing"
)

// parseMath wraps a fragment in an m:oMath root and parses it.
func parseMath(t *testing.T, inner string) *Node {
	t.Helper()
	src := `<m:oMath xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math">` +
		inner + `</m:oMath>`
	n, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return n
}

func run(t *testing.T, inner string) string {
	t.Helper()
	return Translate(parseMath(t, inner))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  string
	}{
		{
			"plain run",
			`<m:r><m:t>x+y</m:t></m:r>`,
			"x+y",
		},
		{
			"run properties ignored",
			`<m:r><m:rPr><m:sty m:val="i"/></m:rPr><m:t>a</m:t></m:r>`,
			"a",
		},
		{
			"fraction",
			`<m:f><m:num><m:r><m:t>a</m:t></m:r></m:num><m:den><m:r><m:t>b</m:t></m:r></m:den></m:f>`,
			`\frac{a}{b}`,
		},
		{
			"superscript",
			`<m:sSup><m:e><m:r><m:t>x</m:t></m:r></m:e><m:sup><m:r><m:t>2</m:t></m:r></m:sup></m:sSup>`,
			"{x}^{2}",
		},
		{
			"subscript",
			`<m:sSub><m:e><m:r><m:t>a</m:t></m:r></m:e><m:sub><m:r><m:t>n</m:t></m:r></m:sub></m:sSub>`,
			"{a}_{n}",
		},
		{
			"square root",
			`<m:rad><m:radPr/><m:deg/><m:e><m:r><m:t>x</m:t></m:r></m:e></m:rad>`,
			`\sqrt{x}`,
		},
		{
			"cube root",
			`<m:rad><m:deg><m:r><m:t>3</m:t></m:r></m:deg><m:e><m:r><m:t>x</m:t></m:r></m:e></m:rad>`,
			`\sqrt[3]{x}`,
		},
		{
			"matrix",
			`<m:m><m:mr><m:e><m:r><m:t>1</m:t></m:r></m:e><m:e><m:r><m:t>2</m:t></m:r></m:e></m:mr>` +
				`<m:mr><m:e><m:r><m:t>3</m:t></m:r></m:e><m:e><m:r><m:t>4</m:t></m:r></m:e></m:mr></m:m>`,
			`\begin{matrix}1 & 2 \\ 3 & 4\end{matrix}`,
		},
		{
			"vector accent",
			`<m:acc><m:accPr><m:chr m:val="&#8407;"/></m:accPr><m:e><m:r><m:t>v</m:t></m:r></m:e></m:acc>`,
			`\vec{v}`,
		},
		{
			"default accent is hat",
			`<m:acc><m:e><m:r><m:t>x</m:t></m:r></m:e></m:acc>`,
			`\hat{x}`,
		},
		{
			"summation",
			`<m:nary><m:naryPr><m:chr m:val="&#8721;"/></m:naryPr>` +
				`<m:sub><m:r><m:t>i=1</m:t></m:r></m:sub><m:sup><m:r><m:t>n</m:t></m:r></m:sup>` +
				`<m:e><m:r><m:t>i</m:t></m:r></m:e></m:nary>`,
			`\sum_{i=1}^{n} i`,
		},
		{
			"nary defaults to integral",
			`<m:nary><m:e><m:r><m:t>f(x)dx</m:t></m:r></m:e></m:nary>`,
			`\int f(x)dx`,
		},
		{
			"unmapped nary glyph passes through",
			`<m:nary><m:naryPr><m:chr m:val="&#10756;"/></m:naryPr><m:e><m:r><m:t>S</m:t></m:r></m:e></m:nary>`,
			"⨄ S",
		},
		{
			"delimiter",
			`<m:d><m:e><m:r><m:t>a+b</m:t></m:r></m:e></m:d>`,
			"(a+b)",
		},
		{
			"unknown tag concatenates children",
			`<m:mystery><m:r><m:t>q</m:t></m:r><m:r><m:t>r</m:t></m:r></m:mystery>`,
			"qr",
		},
		{
			"property suffix tags vanish",
			`<m:fPr><m:r><m:t>hidden</m:t></m:r></m:fPr><m:r><m:t>shown</m:t></m:r>`,
			"shown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, tt.inner); got != tt.want {
				t.Errorf("Translate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslateNilNode(t *testing.T) {
	if got := Translate(nil); got != "" {
		t.Errorf("Translate(nil) = %q, want empty", got)
	}
}

func TestTranslateMalformedNeverPanics(t *testing.T) {
	cases := []string{
		`<m:f></m:f>`,
		`<m:f><m:num/></m:f>`,
		`<m:sSup><m:sup/></m:sSup>`,
		`<m:rad/>`,
		`<m:m/>`,
		`<m:m><m:mr/></m:m>`,
		`<m:acc/>`,
		`<m:nary/>`,
	}

	for _, c := range cases {
		got := run(t, c)
		// Output may be degenerate but must be produced without panicking
		// and without leaking raw markup.
		if strings.Contains(got, "<") {
			t.Errorf("Translate(%q) leaked markup: %q", c, got)
		}
	}
}

func TestTranslateDeeplyNested(t *testing.T) {
	inner := `<m:f><m:num><m:sSup><m:e><m:r><m:t>x</m:t></m:r></m:e><m:sup><m:r><m:t>2</m:t></m:r></m:sup></m:sSup></m:num>` +
		`<m:den><m:rad><m:e><m:r><m:t>y</m:t></m:r></m:e></m:rad></m:den></m:f>`
	want := `\frac{{x}^{2}}{\sqrt{y}}`
	if got := run(t, inner); got != want {
		t.Errorf("Translate = %q, want %q", got, want)
	}
}
