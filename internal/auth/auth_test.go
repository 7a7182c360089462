package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/equipment-diagnostics/internal/config"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(config.AuthConfig{JWTSecret: "test-secret", TokenExpiry: time.Hour})
	require.NoError(t, err)
	return service
}

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Email: "tech@example.com",
		Role:  models.RoleTechnician,
	}
}

func TestNewService(t *testing.T) {
	service, err := NewService(config.AuthConfig{JWTSecret: "s"})
	assert.NoError(t, err)
	assert.NotNil(t, service)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)

	_, err = NewService(config.AuthConfig{})
	assert.Error(t, err)
}

func TestService_HashPassword(t *testing.T) {
	service := newTestService(t)

	password := "testpassword123"
	hash, err := service.HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
}

func TestService_CheckPassword(t *testing.T) {
	service := newTestService(t)

	password := "testpassword123"
	hash, _ := service.HashPassword(password)

	assert.True(t, service.CheckPassword(password, hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_GenerateToken(t *testing.T) {
	service := newTestService(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	token, expiresAt, err := service.GenerateToken(testUser())
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, fixed.Add(time.Hour), expiresAt)

	// Every token gets its own id
	other, _, err := service.GenerateToken(testUser())
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService(t)
	user := testUser()

	token, _, _ := service.GenerateToken(user)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
	assert.NotEmpty(t, claims.TokenID)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)
}

func TestService_ValidateToken_WrongSecret(t *testing.T) {
	service := newTestService(t)
	other, err := NewService(config.AuthConfig{JWTSecret: "another-secret"})
	require.NoError(t, err)

	token, _, _ := other.GenerateToken(testUser())
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	service := newTestService(t)
	start := time.Now()
	service.now = func() time.Time { return start }
	token, _, _ := service.GenerateToken(testUser())

	service.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err := service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_ValidateToken_MissingTokenID(t *testing.T) {
	service := newTestService(t)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u",
		"email":   "e@x.io",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_Revoke(t *testing.T) {
	service := newTestService(t)
	token, _, _ := service.GenerateToken(testUser())
	other, _, _ := service.GenerateToken(testUser())

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)

	service.Revoke(claims)
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrRevokedToken, err)

	// Other sessions of the same user stay valid
	_, err = service.ValidateToken(other)
	assert.NoError(t, err)
}

func TestService_Revoke_PrunesExpired(t *testing.T) {
	service := newTestService(t)
	start := time.Now()
	service.now = func() time.Time { return start }

	service.Revoke(&models.Claims{TokenID: "old", Exp: start.Add(time.Minute).Unix()})
	service.now = func() time.Time { return start.Add(time.Hour) }
	service.Revoke(&models.Claims{TokenID: "new", Exp: start.Add(2 * time.Hour).Unix()})

	assert.False(t, service.isRevoked("old"))
	assert.True(t, service.isRevoked("new"))
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newTestService(t)

	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	for _, header := range []string{"", "InvalidFormat", "Bearer ", "Basic abc"} {
		_, err = service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, header)
	}
}

func TestService_ValidatePassword(t *testing.T) {
	service := newTestService(t)

	assert.NoError(t, service.ValidatePassword("validpassword123"))

	err := service.ValidatePassword("short")
	assert.ErrorIs(t, err, models.ErrValidation)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, service.ValidatePassword(string(long)), models.ErrValidation)
}

func TestService_ValidateEmail(t *testing.T) {
	service := newTestService(t)

	tests := []struct {
		email string
		valid bool
	}{
		{"tech@example.com", true},
		{"a.b@c.co", true},
		{"invalid-email", false},
		{"@example.com", false},
		{"user@nodot", false},
		{"user@example.", false},
		{"", false},
	}

	for _, tt := range tests {
		err := service.ValidateEmail(tt.email)
		if tt.valid {
			assert.NoError(t, err, tt.email)
		} else {
			assert.ErrorIs(t, err, models.ErrValidation, tt.email)
		}
	}
}
