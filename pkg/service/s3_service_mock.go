package service

import "context"

// MockS3Service implements S3Operations for testing
type MockS3Service struct {
	ListBucketsFunc    func(ctx context.Context) ([]string, error)
	TestConnectionFunc func(ctx context.Context) error
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{}
}

// ListBuckets calls the mock function if set, otherwise returns empty slice
func (m *MockS3Service) ListBuckets(ctx context.Context) ([]string, error) {
	if m.ListBucketsFunc != nil {
		return m.ListBucketsFunc(ctx)
	}
	return []string{}, nil
}

// TestConnection calls the mock function if set, otherwise returns nil
func (m *MockS3Service) TestConnection(ctx context.Context) error {
	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx)
	}
	return nil
}

// NewMockS3ServiceCreator returns a creator that always yields mockService
func NewMockS3ServiceCreator(mockService *MockS3Service) S3ServiceCreator {
	return func(ctx context.Context, cfg S3Config) (S3Operations, error) {
		return mockService, nil
	}
}
