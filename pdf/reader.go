package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/chatdocs/docmd/internal/conv"
	"github.com/chatdocs/docmd/textnorm"
)

// ErrScannedDocument reports a document with no extractable text layer.
var ErrScannedDocument = errors.New("document appears to be scanned; no text layer found")

// Extract converts PDF bytes to Markdown with the default layout heuristics.
func Extract(ctx context.Context, data []byte, sess *conv.Session) (string, error) {
	return ExtractWithConfig(ctx, data, sess, DefaultLayoutConfig())
}

// ExtractWithConfig converts PDF bytes to Markdown. Pages are processed
// independently: a failing page is recorded and skipped, and a page without
// a text layer is emitted as a page image (or OCR text when the engine is
// compiled in).
func ExtractWithConfig(ctx context.Context, data []byte, sess *conv.Session, cfg LayoutConfig) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	scanned := newScannedExtractor(data, sess)

	var blocks []string
	var pageErrs []error
	total := reader.NumPage()
	for pageNr := 1; pageNr <= total; pageNr++ {
		block, err := extractPage(ctx, reader, pageNr, cfg, scanned)
		if err != nil {
			sess.Logger.Warn("page extraction failed", "page", pageNr, "error", err)
			pageErrs = append(pageErrs, fmt.Errorf("page %d: %w", pageNr, err))
			continue
		}
		if block != "" {
			blocks = append(blocks, block)
		}
	}

	if len(blocks) == 0 {
		if total > 0 && len(pageErrs) == total {
			return "", fmt.Errorf("extracting pdf: %w", errors.Join(pageErrs...))
		}
		return "", ErrScannedDocument
	}
	return strings.Join(blocks, "\n\n"), nil
}

// extractPage produces the Markdown block for one page. The pdf library
// panics on malformed structures, so the page walk is isolated.
func extractPage(ctx context.Context, reader *pdf.Reader, pageNr int, cfg LayoutConfig, scanned *scannedExtractor) (block string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page walk panicked: %v", rec)
		}
	}()

	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return "", fmt.Errorf("missing page object")
	}

	width, height := pageSize(page)
	items := pageItems(page, height, cfg)
	ordered := OrderItems(items, width, cfg)
	text := textnorm.Process(MergeItems(ordered, cfg))

	if len([]rune(text)) >= cfg.MinPageChars {
		return text, nil
	}
	// Too little text to be a text page; treat it as scanned.
	return scanned.pageMarkdown(ctx, pageNr)
}

// pageItems collects positioned text items, dropping the header/footer
// margin bands.
func pageItems(page pdf.Page, height float64, cfg LayoutConfig) []Item {
	content := page.Content()
	if height <= 0 {
		for _, t := range content.Text {
			if t.Y > height {
				height = t.Y
			}
		}
	}
	lo := height * cfg.MarginBandFrac
	hi := height * (1 - cfg.MarginBandFrac)

	items := make([]Item, 0, len(content.Text))
	for _, t := range content.Text {
		if height > 0 && (t.Y < lo || t.Y > hi) {
			continue
		}
		items = append(items, Item{X: t.X, Y: t.Y, W: t.W, Text: t.S})
	}
	return items
}

// pageSize reads the page MediaBox, walking up the page tree when the box
// is inherited.
func pageSize(page pdf.Page) (width, height float64) {
	v := page.V
	for !v.IsNull() {
		if box := v.Key("MediaBox"); !box.IsNull() && box.Len() == 4 {
			width = box.Index(2).Float64() - box.Index(0).Float64()
			height = box.Index(3).Float64() - box.Index(1).Float64()
			return width, height
		}
		v = v.Key("Parent")
	}
	return 0, 0
}
