package sqlite

import "fmt"

// upsertQuery builds the insert-or-replace statement for one role row.
func upsertQuery(tableName string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (role_id, index_blob, metadata, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(role_id) DO UPDATE SET
			index_blob = excluded.index_blob,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, tableName)
}
