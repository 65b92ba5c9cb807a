package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/api/shared"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/mocks"
	"github.com/phrazzld/doafter-api/internal/service/auth"
	"github.com/phrazzld/doafter-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userResolver(users ...*domain.User) *mocks.MockUserService {
	return &mocks.MockUserService{
		GetUserFn: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			for _, u := range users {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, store.ErrUserNotFound
		},
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: uuid.New(), Username: "alice"}
	ghost := uuid.New()

	tests := []struct {
		name            string
		authHeader      string
		validateErr     error
		claims          *auth.Claims
		resolver        UserResolver
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			claims:         &auth.Claims{UserID: user.ID},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "scheme is case-insensitive",
			authHeader:     "bearer valid-token",
			claims:         &auth.Claims{UserID: user.ID},
			expectedStatus: http.StatusOK,
		},
		{
			name:            "missing auth header",
			authHeader:      "",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgMissingCredential,
		},
		{
			name:            "invalid auth format",
			authHeader:      "InvalidFormat",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgInvalidCredential,
		},
		{
			name:            "wrong scheme",
			authHeader:      "Basic dXNlcjpwYXNz",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgInvalidCredential,
		},
		{
			name:            "empty bearer token",
			authHeader:      "Bearer ",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgInvalidCredential,
		},
		{
			name:            "expired token",
			authHeader:      "Bearer expired-token",
			validateErr:     auth.ErrExpiredToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgExpiredCredential,
		},
		{
			name:            "invalid token",
			authHeader:      "Bearer invalid-token",
			validateErr:     auth.ErrInvalidToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgInvalidCredential,
		},
		{
			name:            "token for a deleted user",
			authHeader:      "Bearer orphan-token",
			claims:          &auth.Claims{UserID: ghost},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: MsgInvalidCredential,
		},
		{
			name:       "user lookup failure",
			authHeader: "Bearer valid-token",
			claims:     &auth.Claims{UserID: user.ID},
			resolver: &mocks.MockUserService{
				DefaultError: errors.New("connection reset"),
			},
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: MsgAuthError,
		},
		{
			name:            "unexpected validation failure",
			authHeader:      "Bearer valid-token",
			validateErr:     errors.New("key store offline"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: MsgAuthError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &mocks.MockJWTService{
				ValidateErr: tt.validateErr,
				Claims:      tt.claims,
			}
			resolver := tt.resolver
			if resolver == nil {
				resolver = userResolver(user)
			}

			var captured *domain.User
			var capturedID uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = shared.UserFromContext(r.Context())
				capturedID, _ = shared.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			NewAuthMiddleware(jwtService, resolver).Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				require.NotNil(t, captured)
				assert.Equal(t, user.ID, captured.ID)
				assert.Equal(t, user.ID, capturedID)
				return
			}
			assert.Nil(t, captured, "next handler must not run")
			assert.Equal(t, tt.expectedMessage, decodeError(t, rr))
		})
	}
}

func TestAuthMiddleware_Optional(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: uuid.New(), Username: "alice"}

	tests := []struct {
		name         string
		authHeader   string
		validateErr  error
		claims       *auth.Claims
		wantIdentity bool
	}{
		{"no header", "", nil, nil, false},
		{"valid token", "Bearer good", nil, &auth.Claims{UserID: user.ID}, true},
		{"expired token", "Bearer old", auth.ErrExpiredToken, nil, false},
		{"malformed header", "Token abc", nil, nil, false},
		{"unknown user", "Bearer orphan", nil, &auth.Claims{UserID: uuid.New()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &mocks.MockJWTService{ValidateErr: tt.validateErr, Claims: tt.claims}

			called := false
			hasIdentity := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				_, hasIdentity = shared.UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			NewAuthMiddleware(jwtService, userResolver(user)).Optional(next).ServeHTTP(rr, req)

			assert.True(t, called)
			assert.Equal(t, http.StatusNoContent, rr.Code)
			assert.Equal(t, tt.wantIdentity, hasIdentity)
		})
	}
}
