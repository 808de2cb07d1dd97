package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/chatdocs/docmd/internal/conv"
	"github.com/chatdocs/docmd/media"
	"github.com/chatdocs/docmd/ocr"
	"github.com/chatdocs/docmd/ooxml"
)

// scannedExtractor renders pages without a text layer. It pulls the page's
// largest embedded image via pdfcpu and either runs it through OCR (when the
// engine is compiled in) or stores it as a page-image reference.
type scannedExtractor struct {
	data []byte
	sess *conv.Session
	ocr  ocr.Capability

	pdfCtx    *model.Context
	pdfCtxErr error
	loaded    bool
}

func newScannedExtractor(data []byte, sess *conv.Session) *scannedExtractor {
	return &scannedExtractor{data: data, sess: sess, ocr: ocr.Load()}
}

// context lazily parses the document once; the text path never pays for it.
func (s *scannedExtractor) context() (*model.Context, error) {
	if !s.loaded {
		s.loaded = true
		ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(s.data), model.NewDefaultConfiguration())
		if err != nil {
			s.pdfCtxErr = fmt.Errorf("pdfcpu read: %w", err)
		} else {
			s.pdfCtx = ctx
		}
	}
	return s.pdfCtx, s.pdfCtxErr
}

// pageMarkdown emits the Markdown block for a scanned page: OCR text when
// available, else an image reference, else nothing.
func (s *scannedExtractor) pageMarkdown(ctx context.Context, pageNr int) (string, error) {
	img, mime, err := s.largestPageImage(pageNr)
	if err != nil {
		return "", err
	}
	if img == nil {
		// A text-light page with no image either (blank page, cover art
		// drawn with vectors). Nothing to emit.
		return "", nil
	}

	if s.ocr.Available {
		text, err := s.ocr.Recognize(img)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			s.sess.Logger.Warn("ocr failed, storing page image", "page", pageNr, "error", err)
		}
	}

	resolver := media.NewResolver(nil, ooxml.RelationshipMap{}, "", s.sess, media.DefaultOptions())
	contentRef := resolver.SaveBytes(ctx, img, mime, 0, 0)
	if contentRef == "" {
		return "", nil
	}
	return fmt.Sprintf("![page %d](%s)", pageNr, contentRef), nil
}

// largestPageImage returns the biggest embedded image on a page, by byte
// size, with its MIME type. A page without images returns nil bytes.
func (s *scannedExtractor) largestPageImage(pageNr int) ([]byte, string, error) {
	pdfCtx, err := s.context()
	if err != nil {
		return nil, "", err
	}

	images, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
	if err != nil {
		return nil, "", fmt.Errorf("extracting page images: %w", err)
	}

	var best []byte
	var bestType string
	for _, img := range images {
		data, err := io.ReadAll(img)
		if err != nil {
			s.sess.Logger.Debug("unreadable page image", "page", pageNr, "error", err)
			continue
		}
		if len(data) > len(best) {
			best = data
			bestType = img.FileType
		}
	}
	if best == nil {
		return nil, "", nil
	}
	return best, imageMime(bestType), nil
}

func imageMime(fileType string) string {
	switch fileType {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "png", "":
		return "image/png"
	default:
		return "image/" + fileType
	}
}
