package gateway

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// MockLogCollection is a mock implementation of db.LogCollection
type MockLogCollection struct {
	mock.Mock
}

func (m *MockLogCollection) InsertLog(ctx context.Context, entry models.MaintenanceLog) (*models.MaintenanceLog, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, models.MaintenanceLog) *models.MaintenanceLog); ok {
		return fn(ctx, entry), args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceLog), args.Error(1)
}

func (m *MockLogCollection) FindLogs(ctx context.Context) ([]models.MaintenanceLog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceLog), args.Error(1)
}

// MockManualCollection is a mock implementation of db.ManualCollection
type MockManualCollection struct {
	mock.Mock
}

func (m *MockManualCollection) InsertManual(ctx context.Context, manual models.Manual) (*models.Manual, error) {
	args := m.Called(ctx, manual)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Manual), args.Error(1)
}

func (m *MockManualCollection) FindManuals(ctx context.Context) ([]models.Manual, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Manual), args.Error(1)
}

func (m *MockManualCollection) FindManualByModel(ctx context.Context, model string) (*models.Manual, error) {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Manual), args.Error(1)
}

func (m *MockManualCollection) DeleteManual(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserCollection is a mock implementation of db.UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// memoryBlobs is an in-memory db.BlobStore.
type memoryBlobs struct {
	mu      sync.Mutex
	files   map[string][]byte
	types   map[string]string
	uploads int
	err     error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{files: map[string][]byte{}, types: map[string]string{}}
}

func (b *memoryBlobs) Upload(_ context.Context, key string, content io.Reader, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	if b.err != nil {
		return b.err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	b.files[key] = data
	b.types[key] = contentType
	return nil
}

func (b *memoryBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memoryBlobs) PublicURL(key string) string {
	return "http://files.test/" + key
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) Close() {}
