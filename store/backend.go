package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Backend stores raw content bytes by content id. The variant is chosen once
// at Store construction: FilesystemBackend for deployments with a writable
// data directory, EmbeddedBackend where blobs must live inside the record
// database. Per-call platform branching is deliberately absent.
type Backend interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// ErrBlobNotFound is returned by Backend.Get when no blob exists for the id.
var ErrBlobNotFound = errors.New("blob not found")

// FilesystemBackend stores each blob as a file sharded by hash prefix
// (id[:2]/id), keeping directories small for large stores.
type FilesystemBackend struct {
	root string
}

// NewFilesystemBackend creates the backing directory if needed.
func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating media root: %w", err)
	}
	return &FilesystemBackend{root: root}, nil
}

func (b *FilesystemBackend) blobPath(id string) string {
	shard := id
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(b.root, shard, id)
}

// Put writes the blob, creating the shard directory on demand.
func (b *FilesystemBackend) Put(ctx context.Context, id string, data []byte) error {
	p := b.blobPath(id)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating shard dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("writing blob %s: %w", id, err)
	}
	return nil
}

// Get reads the blob bytes.
func (b *FilesystemBackend) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(b.blobPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the blob. A missing file is not an error.
func (b *FilesystemBackend) Delete(ctx context.Context, id string) error {
	err := os.Remove(b.blobPath(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob %s: %w", id, err)
	}
	return nil
}

// EmbeddedBackend stores blobs in the record database's content_blobs table.
type EmbeddedBackend struct {
	db *sql.DB
}

// NewEmbeddedBackend stores blobs alongside the given record database.
func NewEmbeddedBackend(records *RecordDB) *EmbeddedBackend {
	return &EmbeddedBackend{db: records.db}
}

// Put upserts the blob row.
func (b *EmbeddedBackend) Put(ctx context.Context, id string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO content_blobs (content_id, data) VALUES (?, ?)
		 ON CONFLICT(content_id) DO UPDATE SET data = excluded.data`, id, data)
	if err != nil {
		return fmt.Errorf("writing blob %s: %w", id, err)
	}
	return nil
}

// Get reads the blob row.
func (b *EmbeddedBackend) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT data FROM content_blobs WHERE content_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the blob row. A missing row is not an error.
func (b *EmbeddedBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx,
		`DELETE FROM content_blobs WHERE content_id = ?`, id); err != nil {
		return fmt.Errorf("deleting blob %s: %w", id, err)
	}
	return nil
}
