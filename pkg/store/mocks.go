package store

import (
	"context"

	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/mock"
)

// Validate that MockStore implements the Store interface
var _ Store = &MockStore{}

// MockStore is a testify mock of Store for exercising failure paths.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Open(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStore) Create(ctx context.Context, resourceType types.ResourceType, namespace, name string, resource interface{}) error {
	args := m.Called(ctx, resourceType, namespace, name, resource)
	return args.Error(0)
}

// Get copies a configured resource into resource when the first return
// value is non-nil, then returns the configured error.
func (m *MockStore) Get(ctx context.Context, resourceType types.ResourceType, namespace, name string, resource interface{}) error {
	args := m.Called(ctx, resourceType, namespace, name, resource)
	if src := args.Get(0); src != nil {
		if err := UnmarshalResource(src, resource); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockStore) List(ctx context.Context, resourceType types.ResourceType, namespace string, resource interface{}) error {
	args := m.Called(ctx, resourceType, namespace, resource)
	if src := args.Get(0); src != nil {
		if err := UnmarshalResource(src, resource); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, resourceType types.ResourceType, namespace, name string, resource interface{}) error {
	args := m.Called(ctx, resourceType, namespace, name, resource)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, resourceType types.ResourceType, namespace, name string) error {
	args := m.Called(ctx, resourceType, namespace, name)
	return args.Error(0)
}

func (m *MockStore) Transaction(ctx context.Context, fn func(tx Transaction) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockStore) GetHistory(ctx context.Context, resourceType types.ResourceType, namespace, name string) ([]HistoricalVersion, error) {
	args := m.Called(ctx, resourceType, namespace, name)
	versions, _ := args.Get(0).([]HistoricalVersion)
	return versions, args.Error(1)
}
