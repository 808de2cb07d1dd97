package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is the persistent metadata row for one stored content blob.
// ContentID is a deterministic hash of the blob bytes, so identical images
// from different documents share one record. UploadedChats only grows.
type Record struct {
	ContentID     string
	Mime          string
	Width         int
	Height        int
	ByteSize      int64
	CreatedAt     time.Time
	UploadedChats []string
}

// uploadedTo reports whether chatID is already in the record's uploaded set.
func (r *Record) uploadedTo(chatID string) bool {
	for _, c := range r.UploadedChats {
		if c == chatID {
			return true
		}
	}
	return false
}

// RecordDB persists content records in SQLite. Record failures are data-layer
// corruption and propagate to callers; they are never swallowed the way
// remote-sync failures are.
type RecordDB struct {
	db *sql.DB
}

const recordSchema = `
CREATE TABLE IF NOT EXISTS content_records (
	content_id     TEXT PRIMARY KEY,
	mime           TEXT NOT NULL DEFAULT '',
	width          INTEGER NOT NULL DEFAULT 0,
	height         INTEGER NOT NULL DEFAULT 0,
	byte_size      INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL,
	uploaded_chats TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS content_blobs (
	content_id TEXT PRIMARY KEY,
	data       BLOB NOT NULL
);`

// OpenRecordDB opens (creating if needed) the record database at path.
// Use ":memory:" for an ephemeral database.
func OpenRecordDB(path string) (*RecordDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening record db: %w", err)
	}
	// Concurrent conversions share this handle; serialize at the pool level
	// so record merges stay read-modify-write safe.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(recordSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing record schema: %w", err)
	}
	return &RecordDB{db: db}, nil
}

// Close closes the underlying database.
func (r *RecordDB) Close() error {
	return r.db.Close()
}

// Get returns the record for id, or (nil, nil) when absent.
func (r *RecordDB) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT content_id, mime, width, height, byte_size, created_at, uploaded_chats
		 FROM content_records WHERE content_id = ?`, id)

	var rec Record
	var createdAt int64
	var chats string
	err := row.Scan(&rec.ContentID, &rec.Mime, &rec.Width, &rec.Height, &rec.ByteSize, &createdAt, &chats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", id, err)
	}

	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(chats), &rec.UploadedChats); err != nil {
		return nil, fmt.Errorf("decoding uploaded chats for %s: %w", id, err)
	}
	return &rec, nil
}

// Merge upserts rec, preserving any uploaded-chat ids already present in the
// stored row. The read and write happen in one transaction so concurrent
// saves for the same id cannot drop previously recorded chats.
func (r *RecordDB) Merge(ctx context.Context, rec Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting record merge: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT uploaded_chats FROM content_records WHERE content_id = ?`, rec.ContentID).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading existing record %s: %w", rec.ContentID, err)
	}

	chats := rec.UploadedChats
	if existing != "" {
		var prior []string
		if err := json.Unmarshal([]byte(existing), &prior); err != nil {
			return fmt.Errorf("decoding uploaded chats for %s: %w", rec.ContentID, err)
		}
		chats = unionChats(prior, chats)
	}
	if chats == nil {
		chats = []string{}
	}
	encoded, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("encoding uploaded chats: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO content_records (content_id, mime, width, height, byte_size, created_at, uploaded_chats)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(content_id) DO UPDATE SET
			mime = excluded.mime,
			width = excluded.width,
			height = excluded.height,
			byte_size = excluded.byte_size,
			uploaded_chats = excluded.uploaded_chats`,
		rec.ContentID, rec.Mime, rec.Width, rec.Height, rec.ByteSize, createdAt.Unix(), string(encoded))
	if err != nil {
		return fmt.Errorf("writing record %s: %w", rec.ContentID, err)
	}

	return tx.Commit()
}

// MarkUploaded appends chatID to the record's uploaded set.
func (r *RecordDB) MarkUploaded(ctx context.Context, id, chatID string) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no record for content id %s", id)
	}
	if rec.uploadedTo(chatID) {
		return nil
	}
	rec.UploadedChats = append(rec.UploadedChats, chatID)
	return r.Merge(ctx, *rec)
}

// IsUploaded reports whether id has already been synced for chatID.
func (r *RecordDB) IsUploaded(ctx context.Context, id, chatID string) (bool, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.uploadedTo(chatID), nil
}

// Delete removes the record for id. Deleting a missing record is a no-op.
func (r *RecordDB) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM content_records WHERE content_id = ?`, id); err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	return nil
}

func unionChats(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, c := range list {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
