package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/api/shared"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/platform/logger"
	"github.com/phrazzld/doafter-api/internal/redact"
	"github.com/phrazzld/doafter-api/internal/service/auth"
	"github.com/phrazzld/doafter-api/internal/store"
)

// Messages returned for rejected credentials.
const (
	MsgMissingCredential = "Authorization header required"
	MsgInvalidCredential = "Invalid token"
	MsgExpiredCredential = "Token expired"
	MsgAuthError         = "Authentication error"
)

// UserResolver loads the account a token was issued for.
type UserResolver interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	users      UserResolver
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

// credentialError is a rejected request: the status and message sent to the
// client, plus the underlying cause for the logs.
type credentialError struct {
	status  int
	message string
	cause   error
}

// resolve turns an Authorization header into the user it identifies.
func (m *AuthMiddleware) resolve(r *http.Request) (*domain.User, *credentialError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, &credentialError{http.StatusUnauthorized, MsgMissingCredential, auth.ErrMissingToken}
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, &credentialError{http.StatusUnauthorized, MsgInvalidCredential, auth.ErrInvalidToken}
	}

	claims, err := m.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, &credentialError{http.StatusUnauthorized, MsgExpiredCredential, err}
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrTokenNotYetValid),
			errors.Is(err, auth.ErrMissingToken):
			return nil, &credentialError{http.StatusUnauthorized, MsgInvalidCredential, err}
		default:
			return nil, &credentialError{http.StatusInternalServerError, MsgAuthError, err}
		}
	}

	user, err := m.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &credentialError{http.StatusUnauthorized, MsgInvalidCredential, err}
		}
		return nil, &credentialError{http.StatusInternalServerError, MsgAuthError, err}
	}

	return user, nil
}

// Authenticate validates JWT tokens from the Authorization header, loads the
// user the token was issued for and adds it to the request context.
// Requests without a usable token are rejected with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, cerr := m.resolve(r)
		if cerr != nil {
			shared.RespondWithErrorAndLog(w, r, cerr.status, cerr.message, cerr.cause)
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithUser(r.Context(), user)))
	})
}

// Optional attaches the user to the request context when a usable token is
// present and otherwise lets the request through unauthenticated.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, cerr := m.resolve(r)
		if cerr != nil {
			logger.FromContext(r.Context()).Debug("continuing without identity",
				"reason", cerr.message,
				"error", redact.Error(cerr.cause))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithUser(r.Context(), user)))
	})
}
