package docmd

import (
	"log/slog"

	"github.com/chatdocs/docmd/pdf"
	"github.com/chatdocs/docmd/store"
)

// convertOptions holds conversion configuration with usable defaults.
type convertOptions struct {
	chatID string
	format Format
	store  *store.Store
	logger *slog.Logger
	layout pdf.LayoutConfig
}

func defaultConvertOptions() convertOptions {
	return convertOptions{
		format: FormatAuto,
		layout: pdf.DefaultLayoutConfig(),
	}
}
