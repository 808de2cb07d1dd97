package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// sessionHeader carries the opaque session credential on remote calls.
const sessionHeader = "X-Session-Token"

// RemoteClient talks to the optional remote media store. A client without a
// session token is disabled: the store then runs in local-only mode. Calls
// carry no client-side timeout beyond the caller's context; slow networks
// degrade latency but never corrupt local state.
type RemoteClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRemoteClient creates a remote client for the given endpoint base URL.
// An empty token disables the client.
func NewRemoteClient(baseURL, token string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		token:   token,
		client:  http.DefaultClient,
	}
}

// Enabled reports whether remote sync is available.
func (c *RemoteClient) Enabled() bool {
	return c != nil && c.token != "" && c.baseURL != ""
}

// Upload pushes blob bytes for (id, chatID) to the remote store.
func (c *RemoteClient) Upload(ctx context.Context, id, chatID, mime string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for field, value := range map[string]string{
		"hash":   id,
		"chatId": chatID,
		"mime":   mime,
	} {
		if err := mw.WriteField(field, value); err != nil {
			return fmt.Errorf("building upload form: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("fileBytes", id)
	if err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media/upload", &body)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(sessionHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", id, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("uploading %s: remote returned %s", id, resp.Status)
	}
	return nil
}

// Fetch retrieves blob bytes and their MIME type for (id, chatID).
func (c *RemoteClient) Fetch(ctx context.Context, id, chatID string) ([]byte, string, error) {
	query := url.Values{"hash": {id}, "chatId": {chatID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/media?"+query.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("building fetch request: %w", err)
	}
	req.Header.Set(sessionHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("fetching %s: remote returned %s", id, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading fetch response for %s: %w", id, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
