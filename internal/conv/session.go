// Package conv carries per-conversion state shared by the format readers.
package conv

import (
	"log/slog"

	"github.com/chatdocs/docmd/store"
)

// Session scopes one document conversion. It owns the media resolution cache
// and the chat binding used for content-store saves. Sessions are not safe
// for concurrent use; each conversion gets its own.
type Session struct {
	ChatID string
	Store  *store.Store
	Logger *slog.Logger

	mediaCache map[string]string
}

// NewSession creates a session bound to a chat. Store may be nil, in which
// case resolved images degrade to empty references.
func NewSession(chatID string, st *store.Store, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		ChatID: chatID,
		Store:  st,
		Logger: log,
	}
}

// MediaCache returns the conversion-scoped media resolution cache, keyed by
// resolver cache key. Resolvers created for different document parts, such as
// the slides of one deck, share it so a reused image or metafile is only
// resolved once per conversion.
func (s *Session) MediaCache() map[string]string {
	if s.mediaCache == nil {
		s.mediaCache = make(map[string]string)
	}
	return s.mediaCache
}
