// Package vault stores encrypted payload blobs content-addressed in
// Postgres. The server never sees plaintext: blobs arrive sealed and are
// stored as-is.
package vault

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// URIPrefix is the content-address scheme for stored payloads.
const URIPrefix = "storj://sha256/"

// DB wraps a pgxpool.Pool and provides the payload repository.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// PayloadRecord describes one stored payload.
type PayloadRecord struct {
	ID          uuid.UUID         `json:"id"`
	Identity    string            `json:"identity"`
	Kind        string            `json:"kind"`
	URI         string            `json:"uri"`
	ContentHash string            `json:"content_hash"`
	Size        int64             `json:"size"`
	Tags        map[string]string `json:"tags,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SavePayload stores a sealed blob and returns its record. Content is
// addressed by the sha256 of the ciphertext; storing identical content twice
// is idempotent and returns the existing record.
func (db *DB) SavePayload(ctx context.Context, identityAddr, kind string, tags map[string]string, data []byte) (*PayloadRecord, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	uri := URIPrefix + hash

	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshaling tags: %w", err)
	}

	rec := &PayloadRecord{
		ID:          uuid.New(),
		Identity:    identityAddr,
		Kind:        kind,
		URI:         uri,
		ContentHash: hash,
		Size:        int64(len(data)),
		Tags:        tags,
	}

	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO vault_payloads (id, identity, kind, uri, content_hash, size, tags, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (uri) DO NOTHING`,
		rec.ID, rec.Identity, rec.Kind, rec.URI, rec.ContentHash, rec.Size, tagsJSON, data)
	if err != nil {
		return nil, fmt.Errorf("inserting payload: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return db.GetPayloadRecord(ctx, uri)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT created_at FROM vault_payloads WHERE uri = $1`, uri,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading created_at: %w", err)
	}
	return rec, nil
}

// GetPayloadRecord returns the record (without data) for a URI.
func (db *DB) GetPayloadRecord(ctx context.Context, uri string) (*PayloadRecord, error) {
	var rec PayloadRecord
	var tagsJSON []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT id, identity, kind, uri, content_hash, size, tags, created_at
		 FROM vault_payloads WHERE uri = $1`, uri,
	).Scan(&rec.ID, &rec.Identity, &rec.Kind, &rec.URI, &rec.ContentHash,
		&rec.Size, &tagsJSON, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying payload %s: %w", uri, err)
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &rec.Tags); err != nil {
			return nil, fmt.Errorf("parsing tags: %w", err)
		}
	}
	return &rec, nil
}

// ListPayloads returns records for an identity, newest first, optionally
// filtered by kind.
func (db *DB) ListPayloads(ctx context.Context, identityAddr, kind string) ([]PayloadRecord, error) {
	query := `SELECT id, identity, kind, uri, content_hash, size, tags, created_at
	          FROM vault_payloads WHERE identity = $1`
	args := []any{identityAddr}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payloads: %w", err)
	}
	defer rows.Close()

	var records []PayloadRecord
	for rows.Next() {
		var rec PayloadRecord
		var tagsJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Identity, &rec.Kind, &rec.URI,
			&rec.ContentHash, &rec.Size, &tagsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payload record: %w", err)
		}
		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &rec.Tags); err != nil {
				return nil, fmt.Errorf("parsing tags: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetPayloadData returns the sealed blob for a URI.
func (db *DB) GetPayloadData(ctx context.Context, uri string) ([]byte, error) {
	var data []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT data FROM vault_payloads WHERE uri = $1`, uri,
	).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("querying payload data %s: %w", uri, err)
	}
	return data, nil
}
