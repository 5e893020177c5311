// Package testutil provides mock implementations for the collaborator
// interfaces the bootstrap flow depends on. These mocks isolate interactive
// flows from the network in unit tests.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBucketClient provides a mock implementation of the storage.Client
// interface. Configure expectations using testify/mock methods
// (e.g., .On("GetBucket", ...).Return(...)).
type MockBucketClient struct {
	mock.Mock
}

// ListBuckets mocks the ListBuckets method.
func (m *MockBucketClient) ListBuckets(ctx context.Context, project string) ([]string, error) {
	args := m.Called(ctx, project)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

// GetBucket mocks the GetBucket method.
func (m *MockBucketClient) GetBucket(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	resolved, _ := args.Get(0).(string)
	return resolved, args.Error(1)
}

// CreateBucket mocks the CreateBucket method.
func (m *MockBucketClient) CreateBucket(ctx context.Context, project, name string) (string, error) {
	args := m.Called(ctx, project, name)
	created, _ := args.Get(0).(string)
	return created, args.Error(1)
}
