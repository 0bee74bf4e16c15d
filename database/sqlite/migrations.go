package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the photos table when it does not exist. The composite
// primary key (family_id, photo_id) carries the insert-once constraint and
// the listing order.
func Migrate(ctx context.Context, db *sql.DB, tableName string) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			family_id TEXT NOT NULL,
			photo_id TEXT NOT NULL,
			object_key TEXT NOT NULL,
			uploaded_at TEXT NOT NULL,
			title TEXT,
			description TEXT,
			content_type TEXT,
			taken_at TEXT,
			PRIMARY KEY (family_id, photo_id)
		)
	`, quoteIdentifier(tableName))

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("migrate up %s: %w", tableName, err)
	}
	return nil
}

// DropTable removes the photos table; test helper.
func DropTable(ctx context.Context, db *sql.DB, tableName string) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("migrate down %s: %w", tableName, err)
	}
	return nil
}
