//go:build ocr

package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps a Tesseract session. Close it to release engine resources.
type Client struct {
	client *gosseract.Client
}

// New creates an OCR client. Requires a system Tesseract installation.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases engine resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// SetLanguage selects recognition languages, "+"-separated (e.g. "eng+deu").
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// RecognizeImage runs OCR over encoded image bytes (PNG, JPEG, TIFF).
func (c *Client) RecognizeImage(image []byte) (string, error) {
	if err := c.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("setting ocr image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Load returns the engine capability for this build. Each Recognize call
// runs in its own short-lived client; Tesseract sessions are cheap relative
// to page rasterization.
func Load() Capability {
	return Capability{
		Available: true,
		Recognize: func(image []byte) (string, error) {
			c, err := New()
			if err != nil {
				return "", err
			}
			defer c.Close()
			return c.RecognizeImage(image)
		},
	}
}
