//go:build !ocr

package ocr

import "errors"

// ErrNotEnabled is returned by builds without the "ocr" tag.
var ErrNotEnabled = errors.New("ocr support not compiled in; rebuild with -tags ocr")

// Client is the stub engine; every operation fails with ErrNotEnabled.
type Client struct{}

func New() (*Client, error)                             { return nil, ErrNotEnabled }
func (c *Client) Close() error                          { return nil }
func (c *Client) SetLanguage(lang string) error         { return ErrNotEnabled }
func (c *Client) RecognizeImage([]byte) (string, error) { return "", ErrNotEnabled }

// Load reports the engine as unavailable.
func Load() Capability {
	return Capability{}
}
