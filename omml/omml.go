// Package omml translates Office Math Markup (OMML) subtrees into LaTeX
// fragments. Translation is deliberately lossy and total: malformed or
// unrecognized markup degrades to concatenated child output or literal text,
// never an error, so a broken equation cannot abort a document conversion.
package omml

import (
	"strings"

	"github.com/chatdocs/docmd/internal/xmltree"
)

// Node is the math-markup element the translator walks. It is an alias for
// the generic XML tree node the readers already produce.
type Node = xmltree.Node

// Parse builds a math node tree from raw OMML bytes.
func Parse(data []byte) (*Node, error) {
	return xmltree.Parse(data)
}

// Tags that carry formatting or bookkeeping and contribute no output.
var ignoredTags = map[string]bool{
	"ctrlPr":    true,
	"argSz":     true,
	"brk":       true,
	"align":     true,
	"alnScr":    true,
	"phantShow": true,
}

// naryGlyphs maps n-ary operator characters to LaTeX macros. Unmapped glyphs
// pass through literally.
var naryGlyphs = map[string]string{
	"∑": `\sum`,
	"∏": `\prod`,
	"∐": `\coprod`,
	"∫": `\int`,
	"∬": `\iint`,
	"∭": `\iiint`,
	"∮": `\oint`,
	"⋃": `\bigcup`,
	"⋂": `\bigcap`,
	"⋁": `\bigvee`,
	"⋀": `\bigwedge`,
}

// accentMacros maps combining accent characters to LaTeX accent macros.
var accentMacros = map[string]string{
	"⃗": `\vec`,
	"̃": `\tilde`,
	"~": `\tilde`,
	"̂": `\hat`,
	"^": `\hat`,
	"̄": `\bar`,
	"¯": `\bar`,
	"̅": `\bar`,
	"̇": `\dot`,
}

// Translate renders a math node tree as a LaTeX fragment. A nil node yields
// the empty string.
func Translate(n *Node) string {
	if n == nil {
		return ""
	}

	switch n.Name {
	case "t":
		return n.FullText()
	case "f":
		return `\frac{` + translateChild(n, "num") + `}{` + translateChild(n, "den") + `}`
	case "sSup":
		return "{" + translateChild(n, "e") + "}^{" + translateChild(n, "sup") + "}"
	case "sSub":
		return "{" + translateChild(n, "e") + "}_{" + translateChild(n, "sub") + "}"
	case "sSubSup":
		return "{" + translateChild(n, "e") + "}_{" + translateChild(n, "sub") + "}^{" + translateChild(n, "sup") + "}"
	case "rad":
		return translateRadical(n)
	case "m":
		return translateMatrix(n)
	case "acc":
		return translateAccent(n)
	case "nary":
		return translateNary(n)
	case "d":
		return "(" + translateChildren(n) + ")"
	}

	if ignoredTags[n.Name] || strings.HasSuffix(n.Name, "Pr") {
		return ""
	}

	// Containers (oMath, oMathPara, r, e, num, den, sub, sup, deg, fName,
	// lim, ...) and anything unrecognized concatenate their children.
	return translateChildren(n)
}

func translateChildren(n *Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(Translate(c))
	}
	return sb.String()
}

func translateChild(n *Node, name string) string {
	return Translate(n.Child(name))
}

func translateRadical(n *Node) string {
	base := translateChild(n, "e")
	if deg := translateChild(n, "deg"); deg != "" {
		return `\sqrt[` + deg + `]{` + base + `}`
	}
	return `\sqrt{` + base + `}`
}

func translateMatrix(n *Node) string {
	var rows []string
	for _, mr := range n.ChildrenNamed("mr") {
		var cells []string
		for _, e := range mr.ChildrenNamed("e") {
			cells = append(cells, Translate(e))
		}
		rows = append(rows, strings.Join(cells, " & "))
	}
	return `\begin{matrix}` + strings.Join(rows, ` \\ `) + `\end{matrix}`
}

func translateAccent(n *Node) string {
	macro := `\hat`
	if pr := n.Child("accPr"); pr != nil {
		if chr := pr.Child("chr"); chr != nil {
			if m, ok := accentMacros[chr.Attr("val")]; ok {
				macro = m
			}
		}
	}
	return macro + "{" + translateChild(n, "e") + "}"
}

func translateNary(n *Node) string {
	// The integral sign is the OMML default when no operator is given.
	op := `\int`
	if pr := n.Child("naryPr"); pr != nil {
		if chr := pr.Child("chr"); chr != nil {
			if val := chr.Attr("val"); val != "" {
				if m, ok := naryGlyphs[val]; ok {
					op = m
				} else {
					op = val
				}
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(op)
	if sub := translateChild(n, "sub"); sub != "" {
		sb.WriteString("_{" + sub + "}")
	}
	if sup := translateChild(n, "sup"); sup != "" {
		sb.WriteString("^{" + sup + "}")
	}
	if body := translateChild(n, "e"); body != "" {
		sb.WriteString(" " + body)
	}
	return sb.String()
}
