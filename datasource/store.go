package datasource

import (
	"context"

	"github.com/kbukum/iotmarket/model"
)

// Record is one stored model instance, keyed by field name. Records read
// back from a store always carry model.IDField.
type Record = map[string]any

// Store is the persistence contract a connector provides for its datasource.
// Missing records are reported with errors.NotFound.
type Store interface {
	// Define prepares storage for a model: a table, collection or key space.
	Define(ctx context.Context, def model.Definition) error
	// Create stores a prepared record under a fresh id and returns it with the id set.
	Create(ctx context.Context, def model.Definition, rec Record) (Record, error)
	Find(ctx context.Context, def model.Definition) ([]Record, error)
	FindByID(ctx context.Context, def model.Definition, id string) (Record, error)
	Delete(ctx context.Context, def model.Definition, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
