package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
)

// MockCollectionRepository is a mock implementation of CollectionRepository.
type MockCollectionRepository struct {
	mock.Mock
	name string
}

func newMockRepo(name string) *MockCollectionRepository {
	return &MockCollectionRepository{name: name}
}

func (m *MockCollectionRepository) Collection() string { return m.name }
func (m *MockCollectionRepository) Available() bool    { return true }

func (m *MockCollectionRepository) List(ctx context.Context, opts pocketbase.ListOptions) (*pocketbase.ListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pocketbase.ListResult), args.Error(1)
}

func (m *MockCollectionRepository) FullList(ctx context.Context, opts pocketbase.ListOptions) ([]pocketbase.Record, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pocketbase.Record), args.Error(1)
}

func (m *MockCollectionRepository) Get(ctx context.Context, id string, opts pocketbase.RecordOptions) (pocketbase.Record, error) {
	args := m.Called(ctx, id, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pocketbase.Record), args.Error(1)
}

func (m *MockCollectionRepository) First(ctx context.Context, filter string, opts pocketbase.ListOptions) (pocketbase.Record, error) {
	args := m.Called(ctx, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pocketbase.Record), args.Error(1)
}

func (m *MockCollectionRepository) Create(ctx context.Context, body pocketbase.Payload, opts pocketbase.RecordOptions) (pocketbase.Record, error) {
	args := m.Called(ctx, body, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pocketbase.Record), args.Error(1)
}

func (m *MockCollectionRepository) Update(ctx context.Context, id string, body pocketbase.Payload, opts pocketbase.RecordOptions) (pocketbase.Record, error) {
	args := m.Called(ctx, id, body, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pocketbase.Record), args.Error(1)
}

func (m *MockCollectionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCollectionRepository) FileURL(collection, recordID, fileName string) string {
	if fileName == "" {
		return ""
	}
	return "https://pb.test/api/files/" + collection + "/" + recordID + "/" + fileName
}

// MockAuditRecorder is a mock implementation of AuditRecorder.
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, actor *model.User, action, collection, recordID, details string) {
	m.Called(ctx, actor, action, collection, recordID, details)
}

func (m *MockAuditRecorder) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}

func (m *MockAuditRepository) ListByRecord(ctx context.Context, collection, recordID string) ([]model.AuditEntry, error) {
	args := m.Called(ctx, collection, recordID)
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}

var (
	admin  = &model.User{ID: "u-admin", Name: "Admin", Role: "Admin"}
	member = &model.User{ID: "u-member", Name: "Member", Role: "Member", RankBis: []string{"staff"}}
)
