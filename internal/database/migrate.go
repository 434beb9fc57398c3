package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"sort"
)

// Migrate applies every *.sql file in the given filesystem in lexical
// order.  Statements are written to be idempotent (CREATE TABLE IF NOT
// EXISTS, INSERT IGNORE) so the runner can execute the full set on every
// startup without a version table.  Requires a DSN with
// multiStatements=true.
func Migrate(ctx context.Context, db *sql.DB, files fs.FS) error {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Printf("migrate: applied %s", name)
	}
	return nil
}
