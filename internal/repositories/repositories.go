// package repositories provides SQLite implementations of the credential and session stores.
//
// Each repository implements models.Repository[T] for its record type and
// the context-aware store interface the provider layer consumes.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/tunex/internal/shared"
)

// notFound wraps [shared.ErrNotFound] so callers can treat a missing row as absent.
func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, id)
}

// requireAffected turns an UPDATE or DELETE that touched no rows into a not found error.
func requireAffected(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound(what, id)
	}
	return nil
}
