// Package pdf converts page-description documents to Markdown from
// positioned text items, with a scanned-page image fallback.
package pdf

import (
	"math"
	"sort"
	"strings"
)

// Item is one positioned text fragment on a page. Coordinates follow PDF
// user space: y grows upward, so reading order is y-descending.
type Item struct {
	X, Y, W float64
	Text    string
}

// LayoutConfig holds the layout heuristics. The defaults were tuned on
// two-column academic papers and office exports; they classify pages as
// one- or two-column only.
type LayoutConfig struct {
	// MinItemsForColumns is the item count below which a page skips column
	// detection and sorts top-to-bottom.
	MinItemsForColumns int
	// BucketWidth is the x-histogram bucket size in user-space units.
	BucketWidth float64
	// GutterBandFrac is the fraction of page width, centered, searched for
	// a column gutter.
	GutterBandFrac float64
	// GutterMaxDensity is the per-bucket item fraction at or below which a
	// bucket counts as a gutter.
	GutterMaxDensity float64
	// ParagraphGap is the vertical jump that ends a paragraph.
	ParagraphGap float64
	// SpaceGap is the horizontal jump that forces a space within a line.
	SpaceGap float64
	// MarginBandFrac is the top/bottom page fraction treated as
	// header/footer and dropped.
	MarginBandFrac float64
	// MinPageChars is the text length under which a page is treated as a
	// scanned image.
	MinPageChars int
}

// DefaultLayoutConfig returns the tuned heuristics.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		MinItemsForColumns: 50,
		BucketWidth:        10,
		GutterBandFrac:     0.30,
		GutterMaxDensity:   0.01,
		ParagraphGap:       10,
		SpaceGap:           10,
		MarginBandFrac:     0.08,
		MinPageChars:       50,
	}
}

// OrderItems sorts page items into reading order. Sparse pages sort
// top-to-bottom; denser pages are first classified as one- or two-column by
// x-histogram, and two-column pages emit the whole left column before the
// right.
func OrderItems(items []Item, pageWidth float64, cfg LayoutConfig) []Item {
	out := make([]Item, len(items))
	copy(out, items)

	if len(out) < cfg.MinItemsForColumns || pageWidth <= 0 {
		sortByPosition(out)
		return out
	}

	gutterX, ok := findGutter(out, pageWidth, cfg)
	if !ok {
		sortByPosition(out)
		return out
	}

	var left, right []Item
	for _, it := range out {
		if it.X < gutterX {
			left = append(left, it)
		} else {
			right = append(right, it)
		}
	}
	sortByPosition(left)
	sortByPosition(right)
	return append(left, right...)
}

func sortByPosition(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Y != items[j].Y {
			return items[i].Y > items[j].Y
		}
		return items[i].X < items[j].X
	})
}

// findGutter histograms item x-positions over the middle band of the page
// and returns the center of the sparsest bucket when its density is low
// enough to be a column gutter.
func findGutter(items []Item, pageWidth float64, cfg LayoutConfig) (float64, bool) {
	bandStart := pageWidth * (0.5 - cfg.GutterBandFrac/2)
	bandEnd := pageWidth * (0.5 + cfg.GutterBandFrac/2)
	buckets := int(math.Ceil((bandEnd - bandStart) / cfg.BucketWidth))
	if buckets <= 0 {
		return 0, false
	}

	counts := make([]int, buckets)
	for _, it := range items {
		if it.X < bandStart || it.X >= bandEnd {
			continue
		}
		counts[int((it.X-bandStart)/cfg.BucketWidth)]++
	}

	sparsest := 0
	for i, c := range counts {
		if c < counts[sparsest] {
			sparsest = i
		}
	}
	density := float64(counts[sparsest]) / float64(len(items))
	if density >= cfg.GutterMaxDensity {
		return 0, false
	}
	return bandStart + (float64(sparsest)+0.5)*cfg.BucketWidth, true
}

// MergeItems flattens ordered items into page text. A vertical jump larger
// than ParagraphGap becomes a line break; a horizontal jump larger than
// SpaceGap within a line becomes a single space. Whether a line break
// survives as a paragraph break or reflows into a space is decided later by
// textnorm, which keeps breaks after sentence-terminal lines and merges
// mid-sentence wraps.
func MergeItems(items []Item, cfg LayoutConfig) string {
	var sb strings.Builder
	var prev *Item

	for i := range items {
		it := items[i]
		if it.Text == "" {
			continue
		}
		if prev != nil {
			switch {
			case math.Abs(prev.Y-it.Y) > cfg.ParagraphGap:
				sb.WriteString("\n")
			case it.X-(prev.X+prev.W) > cfg.SpaceGap:
				sb.WriteString(" ")
			}
		}
		sb.WriteString(it.Text)
		prev = &items[i]
	}
	return strings.TrimSpace(sb.String())
}
