package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/chatdocs/docmd/internal/conv"
)

// ErrEncoding reports that fallback decoding could not produce usable text.
var ErrEncoding = errors.New("unrecognized text encoding")

// Extract converts spreadsheet bytes to Markdown. When the bytes are not a
// parseable workbook (CSV exports renamed to .xlsx, legacy dumps), it falls
// back to decoding them as plain text: strict UTF-8 first, Windows-1252
// second.
func Extract(ctx context.Context, data []byte, sess *conv.Session) (string, error) {
	r, err := NewReader(data, sess)
	if err == nil {
		return r.Markdown(ctx)
	}

	sess.Logger.Debug("structured xlsx parse failed, using text fallback", "error", err)
	text, textErr := fallbackText(data)
	if textErr != nil {
		return "", fmt.Errorf("spreadsheet unreadable: %w", errors.Join(err, textErr))
	}
	return text, nil
}

func fallbackText(data []byte) (string, error) {
	// NUL bytes mean binary content, not a text encoding problem we can
	// decode around.
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrEncoding
	}

	if utf8.Valid(data) {
		return strings.TrimSpace(string(data)), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return strings.TrimSpace(string(decoded)), nil
}
