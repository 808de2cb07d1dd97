// Package pptx converts presentations (PresentationML) to Markdown.
package pptx

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/chatdocs/docmd/internal/conv"
	"github.com/chatdocs/docmd/internal/xmltree"
	"github.com/chatdocs/docmd/media"
	"github.com/chatdocs/docmd/ooxml"
)

const presentationPart = "ppt/presentation.xml"

// slideInfo identifies one slide and its optional notes part.
type slideInfo struct {
	part  string
	notes string
}

// Reader converts one presentation. It is not safe for concurrent use.
type Reader struct {
	pkg    *ooxml.Package
	sess   *conv.Session
	slides []slideInfo
}

// NewReader opens the presentation package and resolves slide order from the
// slide id list.
func NewReader(data []byte, sess *conv.Session) (*Reader, error) {
	pkg, err := ooxml.OpenPackage(data)
	if err != nil {
		return nil, fmt.Errorf("opening pptx package: %w", err)
	}
	if !pkg.HasPart(presentationPart) {
		return nil, fmt.Errorf("not a pptx package: missing %s", presentationPart)
	}

	r := &Reader{pkg: pkg, sess: sess}
	if err := r.loadSlideList(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) loadSlideList() error {
	data, err := r.pkg.Part(presentationPart)
	if err != nil {
		return fmt.Errorf("reading presentation: %w", err)
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing presentation: %w", err)
	}
	rels, err := r.pkg.Relationships(presentationPart)
	if err != nil {
		return fmt.Errorf("parsing presentation relationships: %w", err)
	}

	list := root.Find("sldIdLst")
	if list == nil {
		return fmt.Errorf("presentation has no slide list")
	}
	for _, sld := range list.ChildrenNamed("sldId") {
		// sldId carries both a presentation-local id and the r:id
		// relationship reference; only the latter resolves to a part.
		target := rels.Target(sld.AttrNS(ooxml.RelationshipsNS, "id"))
		if target == "" {
			continue
		}
		part := ooxml.ResolvePartPath("ppt", target)
		r.slides = append(r.slides, slideInfo{
			part:  part,
			notes: r.notesPart(part),
		})
	}
	if len(r.slides) == 0 {
		return fmt.Errorf("presentation has no slides")
	}
	return nil
}

// notesPart resolves the notes slide attached to a slide, if any.
func (r *Reader) notesPart(slidePart string) string {
	rels, err := r.pkg.Relationships(slidePart)
	if err != nil {
		return ""
	}
	rel, ok := rels.ByType("notesSlide")
	if !ok {
		return ""
	}
	return ooxml.ResolvePartPath(path.Dir(slidePart), rel.Target)
}

// Markdown renders each slide under its own heading, in presentation order.
// A slide that fails structured extraction degrades to a flat text dump
// rather than failing the conversion.
func (r *Reader) Markdown(ctx context.Context) (string, error) {
	var sections []string
	for i, info := range r.slides {
		section, err := r.slideMarkdown(ctx, info, i+1)
		if err != nil {
			r.sess.Logger.Warn("slide extraction failed", "slide", i+1, "error", err)
			section = r.slideFallback(info, i+1)
		}
		if section != "" {
			sections = append(sections, section)
		}
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("no slide yielded content")
	}
	return strings.Join(sections, "\n\n"), nil
}

func (r *Reader) slideMarkdown(ctx context.Context, info slideInfo, number int) (section string, err error) {
	// Malformed slides must not take down the whole deck.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("slide walk panicked: %v", rec)
		}
	}()

	data, err := r.pkg.Part(info.part)
	if err != nil {
		return "", fmt.Errorf("reading slide: %w", err)
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parsing slide: %w", err)
	}
	spTree := root.Find("spTree")
	if spTree == nil {
		return "", fmt.Errorf("slide has no shape tree")
	}

	rels, err := r.pkg.Relationships(info.part)
	if err != nil {
		rels = ooxml.RelationshipMap{}
	}
	walker := &slideWalker{
		reader:   r,
		resolver: media.NewResolver(r.pkg, rels, path.Dir(info.part), r.sess, media.DefaultOptions()),
		bullets:  newBulletState(),
	}

	walker.shapeTree(ctx, spTree)

	heading := fmt.Sprintf("## Slide %d", number)
	if walker.title != "" {
		heading += ": " + walker.title
	}

	body := strings.Join(walker.blocks, "\n\n")
	section = heading
	if body != "" {
		section += "\n\n" + body
	}
	if notes := r.notesMarkdown(info.notes); notes != "" {
		section += "\n\n" + notes
	}
	return section, nil
}

// notesMarkdown renders the notes body placeholder as a blockquote. Other
// placeholders on a notes slide (slide image, slide number) are skipped.
func (r *Reader) notesMarkdown(part string) string {
	if part == "" {
		return ""
	}
	data, err := r.pkg.Part(part)
	if err != nil {
		return ""
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		r.sess.Logger.Debug("malformed notes slide", "part", part, "error", err)
		return ""
	}

	var lines []string
	for _, sp := range root.FindAll("sp") {
		if placeholderType(sp) != "body" {
			continue
		}
		for _, p := range sp.FindAll("p") {
			if text := strings.TrimSpace(paragraphText(p)); text != "" {
				lines = append(lines, "> "+text)
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "> **Notes:**\n" + strings.Join(lines, "\n")
}

// placeholderType returns the ph type of a shape, or "" when the shape is
// not a placeholder.
func placeholderType(sp *xmltree.Node) string {
	if ph := sp.Find("ph"); ph != nil {
		return ph.Attr("type")
	}
	return ""
}

// paragraphText flattens one a:p to plain text.
func paragraphText(p *xmltree.Node) string {
	var sb strings.Builder
	for _, t := range p.FindAll("t") {
		sb.WriteString(t.Text)
	}
	return sb.String()
}
