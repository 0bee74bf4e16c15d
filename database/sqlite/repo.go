// Package sqlite implements the metadata repo on SQLite for local
// development, mirroring the DynamoDB contract: insert-once per composite
// key and listing in photo_id descending order.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catphotos"
)

type Repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tableName string) (*Repo, error) {
	if tableName == "" {
		return nil, errors.New("new sqlite repo: table name cannot be empty")
	}
	return &Repo{db: db, tableName: tableName}, nil
}

// Insert relies on ON CONFLICT DO NOTHING plus the affected-row count to
// surface duplicates as ErrConflict without overwriting.
func (r *Repo) Insert(ctx context.Context, rec catphotos.PhotoRecord) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (family_id, photo_id, object_key, uploaded_at, title, description, content_type, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (family_id, photo_id) DO NOTHING`, quoteIdentifier(r.tableName))

	result, err := r.db.ExecContext(ctx, query,
		rec.FamilyID, rec.PhotoID, rec.ObjectKey, rec.UploadedAt,
		nullable(rec.Title), nullable(rec.Description), nullable(rec.ContentType), nullable(rec.TakenAt),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("insert %s/%s: %w", rec.FamilyID, rec.PhotoID, catphotos.ErrConflict)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, familyID, photoID string) (catphotos.PhotoRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT family_id, photo_id, object_key, uploaded_at, title, description, content_type, taken_at
		FROM %s
		WHERE family_id = ? AND photo_id = ?`, quoteIdentifier(r.tableName))

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, familyID, photoID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catphotos.PhotoRecord{}, fmt.Errorf("get %s/%s: %w", familyID, photoID, catphotos.ErrNotFound)
		}
		return catphotos.PhotoRecord{}, fmt.Errorf("get %s/%s: %w", familyID, photoID, err)
	}
	return rec, nil
}

func (r *Repo) ListByFamily(ctx context.Context, familyID string) ([]catphotos.PhotoRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT family_id, photo_id, object_key, uploaded_at, title, description, content_type, taken_at
		FROM %s
		WHERE family_id = ?
		ORDER BY photo_id DESC`, quoteIdentifier(r.tableName))

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", familyID, err)
	}
	defer func() { _ = rows.Close() }()

	recs := []catphotos.PhotoRecord{}
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list %s: %w", familyID, scanErr)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: rows: %w", familyID, err)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (catphotos.PhotoRecord, error) {
	var rec catphotos.PhotoRecord
	var title, description, contentType, takenAt sql.NullString

	err := row.Scan(
		&rec.FamilyID, &rec.PhotoID, &rec.ObjectKey, &rec.UploadedAt,
		&title, &description, &contentType, &takenAt,
	)
	if err != nil {
		return catphotos.PhotoRecord{}, err
	}

	rec.Title = title.String
	rec.Description = description.String
	rec.ContentType = contentType.String
	rec.TakenAt = takenAt.String
	return rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
