package docmd

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
)

// Format identifies a supported document format.
type Format int

const (
	// FormatAuto selects the format by filename extension and content.
	FormatAuto Format = iota
	FormatDocx
	FormatXlsx
	FormatPptx
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatDocx:
		return "docx"
	case FormatXlsx:
		return "xlsx"
	case FormatPptx:
		return "pptx"
	case FormatPDF:
		return "pdf"
	default:
		return "auto"
	}
}

var pdfMagic = []byte("%PDF")

// DetectFormat picks a format from the filename extension, falling back to
// content sniffing: the %PDF magic for PDFs, characteristic package parts
// for the zip-based OOXML formats. FormatAuto means undetectable.
func DetectFormat(filename string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return FormatDocx
	case ".xlsx":
		return FormatXlsx
	case ".pptx":
		return FormatPptx
	case ".pdf":
		return FormatPDF
	}

	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF
	}
	return detectZipFormat(data)
}

func detectZipFormat(data []byte) Format {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return FormatAuto
	}
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return FormatDocx
		case strings.HasPrefix(f.Name, "xl/"):
			return FormatXlsx
		case strings.HasPrefix(f.Name, "ppt/"):
			return FormatPptx
		}
	}
	return FormatAuto
}
