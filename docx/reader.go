// Package docx converts Word documents (WordprocessingML) to Markdown.
package docx

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatdocs/docmd/internal/conv"
	"github.com/chatdocs/docmd/internal/xmltree"
	"github.com/chatdocs/docmd/media"
	"github.com/chatdocs/docmd/ooxml"
)

const documentPart = "word/document.xml"

// Metadata holds the document core properties.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Created  string
	Modified string
}

// Reader converts one document. It is not safe for concurrent use.
type Reader struct {
	pkg      *ooxml.Package
	sess     *conv.Session
	rels     ooxml.RelationshipMap
	styles   *styleSheet
	resolver *media.Resolver
	meta     Metadata
}

// NewReader opens the document package and its supporting parts. Styles and
// core properties are optional; their absence is not an error.
func NewReader(data []byte, sess *conv.Session) (*Reader, error) {
	pkg, err := ooxml.OpenPackage(data)
	if err != nil {
		return nil, fmt.Errorf("opening docx package: %w", err)
	}
	if !pkg.HasPart(documentPart) {
		return nil, fmt.Errorf("not a docx package: missing %s", documentPart)
	}

	rels, err := pkg.Relationships(documentPart)
	if err != nil {
		return nil, fmt.Errorf("parsing document relationships: %w", err)
	}

	r := &Reader{
		pkg:      pkg,
		sess:     sess,
		rels:     rels,
		styles:   loadStyles(pkg),
		resolver: media.NewResolver(pkg, rels, "word", sess, media.DefaultOptions()),
	}
	r.meta = loadCoreProperties(pkg)
	return r, nil
}

// Metadata returns the document core properties.
func (r *Reader) Metadata() Metadata {
	return r.meta
}

// Markdown walks the document body in order and returns the converted text.
func (r *Reader) Markdown(ctx context.Context) (string, error) {
	data, err := r.pkg.Part(documentPart)
	if err != nil {
		return "", fmt.Errorf("reading document part: %w", err)
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parsing document xml: %w", err)
	}
	body := root.Find("body")
	if body == nil {
		return "", fmt.Errorf("document has no body")
	}

	var blocks []string
	for _, child := range body.Children {
		switch child.Name {
		case "p":
			if block := r.paragraph(ctx, child); block != "" {
				blocks = append(blocks, block)
			}
		case "tbl":
			if block := r.table(ctx, child); block != "" {
				blocks = append(blocks, block)
			}
		case "sectPr":
			// Section properties carry no content.
		default:
			// Structured document tags and similar wrappers still hold
			// paragraphs; recurse through them.
			for _, p := range child.FindAll("p") {
				if block := r.paragraph(ctx, p); block != "" {
					blocks = append(blocks, block)
				}
			}
		}
	}

	out := strings.Join(blocks, "\n\n")
	if out != "" && !strings.HasPrefix(out, "#") && r.meta.Title != "" {
		out = "# " + r.meta.Title + "\n\n" + out
	}
	return out, nil
}

// loadCoreProperties reads docProps/core.xml. Missing or malformed parts
// yield empty metadata.
func loadCoreProperties(pkg *ooxml.Package) Metadata {
	data, err := pkg.Part("docProps/core.xml")
	if err != nil {
		return Metadata{}
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return Metadata{}
	}

	text := func(name string) string {
		if n := root.Find(name); n != nil {
			return strings.TrimSpace(n.FullText())
		}
		return ""
	}
	return Metadata{
		Title:    text("title"),
		Author:   text("creator"),
		Subject:  text("subject"),
		Created:  text("created"),
		Modified: text("modified"),
	}
}
