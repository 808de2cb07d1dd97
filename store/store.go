// Package store provides content-addressed persistence for extracted media.
// Blobs are keyed by a hash of their bytes, deduplicating identical images
// across documents. Durability is local-first: a blob is persisted to the
// local backend and its record database synchronously, then synced to the
// optional remote store best-effort in the background. A remote outage never
// fails a save or a local read.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// ContentID computes the stable identifier for a blob: the SHA-256 hex digest
// of its bytes. Same bytes, same id, regardless of source document.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveMeta carries metadata for a Save call.
type SaveMeta struct {
	Mime   string
	Width  int
	Height int
	ChatID string
	// SuppressUpload skips the background remote sync, used when the bytes
	// were just fetched from the remote store.
	SuppressUpload bool
}

// Store is the content-addressed media store.
type Store struct {
	backend Backend
	records *RecordDB
	remote  *RemoteClient
	logger  *slog.Logger
}

// New assembles a store. remote may be nil or disabled for local-only mode.
func New(backend Backend, records *RecordDB, remote *RemoteClient, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		backend: backend,
		records: records,
		remote:  remote,
		logger:  log.With(slog.String("component", "store")),
	}
}

// Save persists data under id locally and schedules a best-effort remote
// upload. Local persistence is the durability guarantee; upload failures are
// logged and swallowed.
func (s *Store) Save(ctx context.Context, id string, data []byte, meta SaveMeta) error {
	if err := s.backend.Put(ctx, id, data); err != nil {
		return err
	}

	if err := s.records.Merge(ctx, Record{
		ContentID: id,
		Mime:      meta.Mime,
		Width:     meta.Width,
		Height:    meta.Height,
		ByteSize:  int64(len(data)),
	}); err != nil {
		return err
	}

	if !meta.SuppressUpload && s.remote.Enabled() && meta.ChatID != "" {
		// Fire and forget: no cancellation, never joined, errors logged.
		go s.uploadAsync(id, meta.ChatID, meta.Mime, data)
	}
	return nil
}

func (s *Store) uploadAsync(id, chatID, mime string, data []byte) {
	ctx := context.Background()

	uploaded, err := s.records.IsUploaded(ctx, id, chatID)
	if err != nil {
		s.logger.Warn("upload dedup check failed", "contentId", id, "error", err)
		return
	}
	if uploaded {
		return
	}

	if err := s.remote.Upload(ctx, id, chatID, mime, data); err != nil {
		s.logger.Warn("remote upload failed", "contentId", id, "chatId", chatID, "error", err)
		return
	}
	if err := s.records.MarkUploaded(ctx, id, chatID); err != nil {
		s.logger.Warn("marking upload failed", "contentId", id, "chatId", chatID, "error", err)
	}
}

// Get returns the blob bytes for id, consulting local storage first and the
// remote store as fallback. Pure absence is (nil, nil), not an error.
func (s *Store) Get(ctx context.Context, id, chatID string) ([]byte, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		// Never saved locally. Try the remote store and repopulate on hit.
		return s.fetchAndRepopulate(ctx, id, chatID)
	}

	data, err := s.backend.Get(ctx, id)
	if err == nil {
		return data, nil
	}
	s.logger.Warn("local blob read failed, trying remote", "contentId", id, "error", err)

	if repopulated, ferr := s.fetchAndRepopulate(ctx, id, chatID); ferr == nil && repopulated != nil {
		return repopulated, nil
	}
	return nil, nil
}

func (s *Store) fetchAndRepopulate(ctx context.Context, id, chatID string) ([]byte, error) {
	if !s.remote.Enabled() {
		return nil, nil
	}

	data, mime, err := s.remote.Fetch(ctx, id, chatID)
	if err != nil {
		s.logger.Warn("remote fetch failed", "contentId", id, "error", err)
		return nil, nil
	}

	meta := SaveMeta{Mime: mime, ChatID: chatID, SuppressUpload: true}
	if err := s.Save(ctx, id, data, meta); err != nil {
		// The caller still gets the bytes; only repopulation failed.
		s.logger.Warn("repopulating local store failed", "contentId", id, "error", err)
	}
	return data, nil
}

// HasImage reports whether a content record exists locally. It never probes
// the remote store.
func (s *Store) HasImage(ctx context.Context, id string) (bool, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Record returns the metadata record for id, or nil when absent.
func (s *Store) Record(ctx context.Context, id string) (*Record, error) {
	return s.records.Get(ctx, id)
}

// MarkUploadedForChat records that id has been synced for chatID.
func (s *Store) MarkUploadedForChat(ctx context.Context, id, chatID string) error {
	return s.records.MarkUploaded(ctx, id, chatID)
}

// IsUploadedForChat reports whether id has been synced for chatID.
func (s *Store) IsUploadedForChat(ctx context.Context, id, chatID string) (bool, error) {
	return s.records.IsUploaded(ctx, id, chatID)
}

// Delete removes the blob and its record. Missing blobs are tolerated.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return err
	}
	return s.records.Delete(ctx, id)
}
