// Package store provides the resource storage interface and its BadgerDB and
// in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/stockroom/pkg/types"
)

var (
	// ErrNotFound is wrapped by every lookup of a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is wrapped when creating a resource whose key is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Store defines the interface for state storage operations. Resources are
// addressed by type, namespace and name and serialized as JSON.
type Store interface {
	// Open initializes and opens the store.
	Open(path string) error

	// Close closes the store and releases resources.
	Close() error

	// Create creates a new resource.
	Create(ctx context.Context, resourceType types.ResourceType, namespace string, name string, resource interface{}) error

	// Get retrieves a resource by type, namespace, and name.
	Get(ctx context.Context, resourceType types.ResourceType, namespace string, name string, resource interface{}) error

	// List retrieves all resources of a given type in a namespace into a
	// pointer to a slice. The namespace "*" lists every namespace.
	List(ctx context.Context, resourceType types.ResourceType, namespace string, resource interface{}) error

	// Update replaces an existing resource.
	Update(ctx context.Context, resourceType types.ResourceType, namespace string, name string, resource interface{}) error

	// Delete deletes a resource. Its history is kept.
	Delete(ctx context.Context, resourceType types.ResourceType, namespace string, name string) error

	// Transaction executes multiple operations atomically.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// GetHistory retrieves the stored versions of a resource, newest first.
	GetHistory(ctx context.Context, resourceType types.ResourceType, namespace string, name string) ([]HistoricalVersion, error)
}

// Transaction represents a store transaction.
type Transaction interface {
	Create(resourceType types.ResourceType, namespace string, name string, resource interface{}) error
	Get(resourceType types.ResourceType, namespace string, name string, resource interface{}) error
	Update(resourceType types.ResourceType, namespace string, name string, resource interface{}) error
	Delete(resourceType types.ResourceType, namespace string, name string) error
}

// HistoricalVersion represents a historical version of a resource.
type HistoricalVersion struct {
	// Version is the version identifier.
	Version string `json:"version"`

	// Timestamp is when this version was written.
	Timestamp time.Time `json:"timestamp"`

	// Resource is the resource data for this version, decoded as generic JSON.
	Resource interface{} `json:"resource"`
}
