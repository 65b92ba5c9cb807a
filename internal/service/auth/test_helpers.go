package auth

import (
	"context"
	"testing"

	"github.com/phrazzld/doafter-api/internal/config"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// DefaultJWTConfig returns a standard configuration for JWT authentication suitable for testing.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-jwt-secret-that-is-32-chars-long",
		TokenLifetimeMinutes: 60,
		BCryptCost:           MinBcryptCost,
	}
}

// RequireTestJWTService creates a JWT service with DefaultJWTConfig and
// fails the test if that is not possible.
func RequireTestJWTService(t *testing.T) JWTService {
	t.Helper()
	service, err := NewJWTService(DefaultJWTConfig())
	require.NoError(t, err, "Failed to create test JWT service")
	return service
}

// GenerateAuthHeaderForTestingT returns an Authorization header value
// carrying a valid token for user.
func GenerateAuthHeaderForTestingT(t *testing.T, svc JWTService, user *domain.User) string {
	t.Helper()
	token, _, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err, "Failed to generate auth header")
	return "Bearer " + token
}
