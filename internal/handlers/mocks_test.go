package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/equipment-diagnostics/internal/diagnosis"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) IsConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockStore) GetLogs(ctx context.Context) []models.MaintenanceLog {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.MaintenanceLog)
}

func (m *MockStore) SaveLog(ctx context.Context, entry models.MaintenanceLog) (*models.MaintenanceLog, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceLog), args.Error(1)
}

func (m *MockStore) GetManuals(ctx context.Context) []models.Manual {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Manual)
}

func (m *MockStore) SaveManual(ctx context.Context, manual models.Manual) (*models.Manual, error) {
	args := m.Called(ctx, manual)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Manual), args.Error(1)
}

func (m *MockStore) DeleteManual(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) FindManualByModel(ctx context.Context, model string) *models.Manual {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Manual)
}

func (m *MockStore) UploadFile(ctx context.Context, fileName string, content io.Reader) (*models.UploadedFile, error) {
	args := m.Called(ctx, fileName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadedFile), args.Error(1)
}

func (m *MockStore) OpenFile(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

// MockAuthStore is a mock implementation of AuthStore
type MockAuthStore struct {
	mock.Mock
}

func (m *MockAuthStore) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAuthStore) SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAuthStore) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthStore) CurrentUser(ctx context.Context, claims *models.Claims) (*models.User, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthStore) UpdatePassword(ctx context.Context, claims *models.Claims, current, next string) error {
	return m.Called(ctx, claims, current, next).Error(0)
}

// MockAnalyzer is a mock implementation of Analyzer
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockAnalyzer) Analyze(ctx context.Context, info models.EquipmentInfo, manualText, history string, image *diagnosis.Image) (*models.DiagnosticResult, error) {
	args := m.Called(ctx, info, manualText, history, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiagnosticResult), args.Error(1)
}

// MockCredentials is a mock implementation of Credentials
type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) Path() string {
	return m.Called().String(0)
}

func (m *MockCredentials) StoreConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockCredentials) AIKey() string {
	return m.Called().String(0)
}

func (m *MockCredentials) SetStoreCredentials(url, key string) error {
	return m.Called(url, key).Error(0)
}

func (m *MockCredentials) SetAIKey(key string) error {
	return m.Called(key).Error(0)
}
