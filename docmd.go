// Package docmd converts office documents (docx, xlsx, pptx, pdf) to
// Markdown. Embedded images are deduplicated into a content-addressed store
// and referenced as cid: URIs.
//
// Basic usage:
//
//	res, err := docmd.FromBytes(data).Filename("report.docx").Convert(ctx)
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(res.Text)
//
// With a content store and chat binding:
//
//	res, err := docmd.FromBytes(data).
//	    Chat("chat-42").
//	    Store(st).
//	    Convert(ctx)
package docmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatdocs/docmd/docx"
	"github.com/chatdocs/docmd/internal/conv"
	"github.com/chatdocs/docmd/internal/logger"
	"github.com/chatdocs/docmd/pdf"
	"github.com/chatdocs/docmd/pptx"
	"github.com/chatdocs/docmd/store"
	"github.com/chatdocs/docmd/xlsx"
)

// Sentinel errors surfaced to callers. ErrScannedDocument and ErrEncoding
// are re-exported from the readers that produce them.
var (
	ErrNoContent       = errors.New("document produced no content")
	ErrUnknownFormat   = errors.New("unrecognized document format")
	ErrScannedDocument = pdf.ErrScannedDocument
	ErrEncoding        = xlsx.ErrEncoding
)

// Result is the outcome of a conversion.
type Result struct {
	// Text is the full Markdown document.
	Text string
}

// Converter configures one conversion. Configure it fluently, then call
// Convert. A Converter is single-use and not safe for concurrent use.
type Converter struct {
	data     []byte
	filename string
	options  convertOptions
}

// FromBytes starts a conversion from raw document bytes.
func FromBytes(data []byte) *Converter {
	return &Converter{data: data, options: defaultConvertOptions()}
}

// FromFile reads a document and starts a conversion, keeping the filename
// for extension-based format detection.
func FromFile(path string) (*Converter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return FromBytes(data).Filename(filepath.Base(path)), nil
}

// Filename records the original filename for format detection.
func (c *Converter) Filename(name string) *Converter {
	c.filename = name
	return c
}

// Chat binds the conversion to a chat id; stored images are tracked and
// synced per chat. Without a chat id remote sync stays off.
func (c *Converter) Chat(chatID string) *Converter {
	c.options.chatID = chatID
	return c
}

// Store sets the content store for embedded media. Without a store, images
// render as placeholders.
func (c *Converter) Store(st *store.Store) *Converter {
	c.options.store = st
	return c
}

// Logger overrides the conversion logger. Without an override, Convert uses
// the logger carried by its context, falling back to the package default.
func (c *Converter) Logger(log *slog.Logger) *Converter {
	c.options.logger = log
	return c
}

// Format forces the document format instead of detecting it.
func (c *Converter) Format(f Format) *Converter {
	c.options.format = f
	return c
}

// Layout overrides the PDF layout heuristics.
func (c *Converter) Layout(cfg pdf.LayoutConfig) *Converter {
	c.options.layout = cfg
	return c
}

// Convert runs the conversion and returns the Markdown result.
func (c *Converter) Convert(ctx context.Context) (Result, error) {
	format := c.options.format
	if format == FormatAuto {
		format = DetectFormat(c.filename, c.data)
	}
	if format == FormatAuto {
		return Result{}, ErrUnknownFormat
	}

	log := c.options.logger
	if log == nil {
		log = logger.FromContext(ctx)
	}
	sess := conv.NewSession(c.options.chatID, c.options.store, log)
	sess.Logger.Debug("converting document", "format", format, "bytes", len(c.data))

	var text string
	var err error
	switch format {
	case FormatDocx:
		var r *docx.Reader
		if r, err = docx.NewReader(c.data, sess); err == nil {
			text, err = r.Markdown(ctx)
		}
	case FormatXlsx:
		text, err = xlsx.Extract(ctx, c.data, sess)
	case FormatPptx:
		var r *pptx.Reader
		if r, err = pptx.NewReader(c.data, sess); err == nil {
			text, err = r.Markdown(ctx)
		}
	case FormatPDF:
		text, err = pdf.ExtractWithConfig(ctx, c.data, sess, c.options.layout)
	default:
		return Result{}, ErrUnknownFormat
	}
	if err != nil {
		return Result{}, fmt.Errorf("converting %s: %w", format, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrNoContent
	}
	return Result{Text: text}, nil
}

// Convert is a convenience wrapper for one-shot conversions.
func Convert(ctx context.Context, data []byte, filename string) (Result, error) {
	return FromBytes(data).Filename(filename).Convert(ctx)
}
