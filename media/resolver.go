// Package media resolves document-embedded image references into stable
// content references. Raster images are read from the package and hashed;
// legacy vector metafiles are rasterized first. Resolved bytes are persisted
// through the content store and referenced in Markdown as "cid:<hash>".
package media

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/chatdocs/docmd/internal/conv"
	"github.com/chatdocs/docmd/internal/xmltree"
	"github.com/chatdocs/docmd/ooxml"
	"github.com/chatdocs/docmd/store"
)

// EMU conversions: 914400 EMU per inch, 9525 EMU per pixel at 96dpi.
const emuPerPixel = 9525

// Options bounds image resolution work.
type Options struct {
	// MaxSide clamps the longest rendered side, preserving aspect ratio.
	MaxSide int
	// DefaultSide is used when the node carries no usable extent.
	DefaultSide int
	// MinBytes discards smaller results as noise (tracking pixels, spacers).
	MinBytes int
	// ByteBudget bounds encoded vector renders; see encodeWithBudget.
	ByteBudget int
}

// DefaultOptions returns the standard resolution limits.
func DefaultOptions() Options {
	return Options{
		MaxSide:     512,
		DefaultSide: 300,
		MinBytes:    256,
		ByteBudget:  300 << 10,
	}
}

// ImageRef is an image reference extracted from a document node.
type ImageRef struct {
	EmbedID string
	// Extent in EMU; zero means unknown.
	CX, CY int64
	Alt    string
}

// RefFromNode extracts an image reference from a drawing/picture/object
// subtree. It supports the DrawingML blip dialect (r:embed, with r:link as
// the historical spelling) and the legacy VML imagedata dialect (r:id).
// The second return value is false when no reference is present.
func RefFromNode(n *xmltree.Node) (ImageRef, bool) {
	var ref ImageRef

	if blip := n.Find("blip"); blip != nil {
		ref.EmbedID = blip.AttrNS(ooxml.RelationshipsNS, "embed")
		if ref.EmbedID == "" {
			ref.EmbedID = blip.AttrNS(ooxml.RelationshipsNS, "link")
		}
	}
	if ref.EmbedID == "" {
		if imagedata := n.Find("imagedata"); imagedata != nil {
			ref.EmbedID = imagedata.AttrNS(ooxml.RelationshipsNS, "id")
			if ref.EmbedID == "" {
				ref.EmbedID = imagedata.Attr("relid")
			}
		}
	}
	if ref.EmbedID == "" {
		return ImageRef{}, false
	}

	if extent := n.Find("extent"); extent != nil {
		ref.CX = parseEMU(extent.Attr("cx"))
		ref.CY = parseEMU(extent.Attr("cy"))
	} else if ext := n.Find("ext"); ext != nil {
		ref.CX = parseEMU(ext.Attr("cx"))
		ref.CY = parseEMU(ext.Attr("cy"))
	}

	ref.Alt = altFromNode(n)
	return ref, true
}

func altFromNode(n *xmltree.Node) string {
	for _, name := range []string{"docPr", "cNvPr"} {
		if meta := n.Find(name); meta != nil {
			for _, attr := range []string{"descr", "title", "name"} {
				if v := strings.TrimSpace(meta.Attr(attr)); v != "" {
					return v
				}
			}
		}
	}
	return "image"
}

func parseEMU(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Resolver resolves image references for one document part. Its cache lives
// on the session, so resolvers for sibling parts of the same conversion share
// it: it prevents redundant package reads and vector re-renders within one
// document, while cross-document deduplication happens in the content store
// by hash.
type Resolver struct {
	pkg     *ooxml.Package
	rels    ooxml.RelationshipMap
	baseDir string
	sess    *conv.Session
	opts    Options

	// Renderer capabilities are decided once at construction, not probed
	// per call.
	renderers map[string]Capability

	cache map[string]string
}

// NewResolver creates a resolver for one document part.
func NewResolver(pkg *ooxml.Package, rels ooxml.RelationshipMap, baseDir string, sess *conv.Session, opts Options) *Resolver {
	return &Resolver{
		pkg:     pkg,
		rels:    rels,
		baseDir: baseDir,
		sess:    sess,
		opts:    opts,
		renderers: map[string]Capability{
			"image/x-wmf": loadMetafileRenderer(metafileWMF),
			"image/x-emf": loadMetafileRenderer(metafileEMF),
		},
		cache: sess.MediaCache(),
	}
}

var mimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".wmf":  "image/x-wmf",
	".emf":  "image/x-emf",
}

func mimeForPath(p string) string {
	if mime, ok := mimeByExt[strings.ToLower(path.Ext(p))]; ok {
		return mime
	}
	return "application/octet-stream"
}

func isVectorMime(mime string) bool {
	return mime == "image/x-wmf" || mime == "image/x-emf"
}

// Resolve turns an image reference into a "cid:<hash>" content reference.
// The empty string means no image could be produced; callers render a
// placeholder instead. Resolve never returns an error; image failures must
// not abort document extraction.
func (r *Resolver) Resolve(ctx context.Context, ref ImageRef) string {
	if ref.EmbedID == "" {
		return ""
	}
	target := r.rels.Target(ref.EmbedID)
	if target == "" {
		r.sess.Logger.Debug("unresolvable image relationship", "embedId", ref.EmbedID)
		return ""
	}

	partPath := ooxml.ResolvePartPath(r.baseDir, target)
	mime := mimeForPath(partPath)
	width, height := r.effectiveSize(ref.CX, ref.CY)

	// Rasterization output depends on target size, so vector cache keys
	// include it. A cached empty string records a failed attempt that must
	// not be retried within this conversion.
	key := partPath
	if isVectorMime(mime) {
		key = fmt.Sprintf("%s|%dx%d|png", partPath, width, height)
	}
	if cached, ok := r.cache[key]; ok {
		return cached
	}

	result := r.resolve(ctx, partPath, mime, width, height)
	r.cache[key] = result
	return result
}

func (r *Resolver) resolve(ctx context.Context, partPath, mime string, width, height int) string {
	data, err := r.pkg.Part(partPath)
	if err != nil {
		r.sess.Logger.Debug("image part missing", "path", partPath, "error", err)
		return ""
	}

	if isVectorMime(mime) {
		data, mime, err = r.rasterize(data, mime, width, height)
		if err != nil {
			r.sess.Logger.Debug("metafile render failed", "path", partPath, "error", err)
			return ""
		}
	}

	return r.saveBytes(ctx, data, mime, width, height)
}

// SaveBytes persists already-materialized image bytes (page renders, etc.)
// and returns their content reference, applying the same noise floor as
// package images.
func (r *Resolver) SaveBytes(ctx context.Context, data []byte, mime string, width, height int) string {
	return r.saveBytes(ctx, data, mime, width, height)
}

func (r *Resolver) saveBytes(ctx context.Context, data []byte, mime string, width, height int) string {
	if len(data) < r.opts.MinBytes {
		r.sess.Logger.Debug("image below noise floor", "bytes", len(data))
		return ""
	}
	if r.sess.Store == nil {
		return ""
	}

	id := store.ContentID(data)
	err := r.sess.Store.Save(ctx, id, data, store.SaveMeta{
		Mime:   mime,
		Width:  width,
		Height: height,
		ChatID: r.sess.ChatID,
	})
	if err != nil {
		r.sess.Logger.Warn("saving image failed", "contentId", id, "error", err)
		return ""
	}
	return "cid:" + id
}

func (r *Resolver) rasterize(data []byte, mime string, width, height int) ([]byte, string, error) {
	cap, ok := r.renderers[mime]
	if !ok || !cap.Available {
		return nil, "", fmt.Errorf("no renderer for %s", mime)
	}
	img, err := cap.Render(data, width, height)
	if err != nil {
		return nil, "", err
	}
	return encodeWithBudget(img, r.opts.ByteBudget)
}

// effectiveSize converts an EMU extent to pixels, clamped so the longest side
// does not exceed MaxSide while preserving aspect ratio. A missing or zero
// extent falls back to a DefaultSide square.
func (r *Resolver) effectiveSize(cx, cy int64) (int, int) {
	w := int(cx / emuPerPixel)
	h := int(cy / emuPerPixel)
	if w <= 0 || h <= 0 {
		return r.opts.DefaultSide, r.opts.DefaultSide
	}

	longest := w
	if h > longest {
		longest = h
	}
	if longest > r.opts.MaxSide {
		scale := float64(r.opts.MaxSide) / float64(longest)
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	return w, h
}

// Markdown renders a content reference as Markdown image syntax, or a literal
// placeholder when the reference is empty.
func Markdown(ref ImageRef, contentRef string) string {
	if contentRef == "" {
		return "[Image]"
	}
	alt := ref.Alt
	if alt == "" {
		alt = "image"
	}
	return fmt.Sprintf("![%s](%s)", alt, contentRef)
}
