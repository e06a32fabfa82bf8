package models

import (
	"time"
)

// Model is a record kept in the optional store: [AppCredential] and [SessionRecord].
//
// Both are keyed by provider name, so ID returns the provider.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // Validate rejects records that must not be persisted
}

// Repository is the CRUD surface shared by the store's repositories.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
