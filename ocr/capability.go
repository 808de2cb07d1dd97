// Package ocr recognizes text in page images. The Tesseract engine is
// optional: it is compiled in only under the "ocr" build tag, and callers
// consult the capability descriptor instead of probing for the engine.
package ocr

// Capability describes the OCR engine available to this build. Load decides
// availability once; Recognize is non-nil only when Available is true.
type Capability struct {
	Available bool
	Recognize func(image []byte) (string, error)
}
