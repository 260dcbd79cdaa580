package pagination

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Apply orders query newest first and positions it after params.Cursor. The
// returned limit includes the one-row lookahead used by Trim.
func Apply(query *gorm.DB, table string, params Params) (*gorm.DB, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	if cursor != nil {
		query = query.Where(
			"("+prefix+"created_at < ?) OR ("+prefix+"created_at = ? AND "+prefix+"id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	return query.
		Order(prefix + "created_at DESC").
		Order(prefix + "id DESC").
		Limit(LimitWithBuffer(params.Limit)), nil
}

// Trim drops the lookahead row and returns the cursor for the next page, or
// "" on the last page. key extracts the cursor columns from a row.
func Trim[T any](rows []T, limit int, key func(T) (time.Time, uuid.UUID)) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	createdAt, id := key(rows[len(rows)-1])
	return rows, EncodeCursor(Cursor{CreatedAt: createdAt, ID: id})
}
