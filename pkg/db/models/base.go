package models

import "github.com/google/uuid"

// ensureID assigns a fresh id when the caller did not pick one. The Postgres
// schema also defaults ids, but test databases do not.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
