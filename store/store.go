// Package store defines persistence for named compositions.
//
// A composition is a bound node that has been compiled to its wire
// form and saved under a name so it can be evaluated later, from
// another process, or lowered to XDP.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one stored composition.
type Record struct {
	// ID is assigned on first save and kept across updates.
	ID uuid.UUID
	// Name is the unique key callers use.
	Name string
	// Symbol is the outermost symbol of the node.
	Symbol string
	// Kind is the node's shape, as rendered by lang.Shape.String.
	Kind string
	// Wire is the protobuf encoding produced by transport.Marshal.
	Wire []byte
	// Text is the node's textual form, for display.
	Text string
	// Labels are free-form user metadata.
	Labels map[string]string
	// CreatedAt is the time of the most recent save.
	CreatedAt time.Time
}

// ErrNotFound is returned when no record has the requested name.
type ErrNotFound struct {
	Name string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("composition %q not found", e.Name)
}

// Store persists compositions.
type Store interface {
	// Save inserts rec, or replaces the record with the same name. An
	// existing record keeps its ID.
	Save(ctx context.Context, rec Record) error
	// Get returns the record named name, or ErrNotFound.
	Get(ctx context.Context, name string) (Record, error)
	// List returns every record ordered by name.
	List(ctx context.Context) ([]Record, error)
	// FindByLabel returns the records carrying label key=value, ordered
	// by name.
	FindByLabel(ctx context.Context, key, value string) ([]Record, error)
	// Delete removes the record named name, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error
	// RunInTransaction runs fn against a transactional view of the
	// store. A nil return commits; an error rolls back.
	RunInTransaction(ctx context.Context, fn func(Store) error) error
	// Close releases the underlying database.
	Close() error
}
