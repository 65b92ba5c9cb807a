package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/doafter-api/internal/api/shared"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service"
	"github.com/phrazzld/doafter-api/internal/service/auth"
)

// HandlerOption configures a handler.
type HandlerOption func(*errorResponder)

// WithErrorDetail echoes the redacted cause of failures in error responses.
// Only development deployments enable it.
func WithErrorDetail(enabled bool) HandlerOption {
	return func(e *errorResponder) {
		e.exposeDetail = enabled
	}
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	errorResponder
	userService service.UserService
	jwtService  auth.JWTService
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	logger *slog.Logger,
	opts ...HandlerOption,
) *AuthHandler {
	if logger == nil {
		panic("logger cannot be nil for AuthHandler")
	}
	h := &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		logger:      logger.With("component", "auth_handler"),
	}
	for _, opt := range opts {
		opt(&h.errorResponder)
	}
	return h
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /auth/login. The identifier may be a username or an
// email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Identifier(), req.Password)
	if err != nil {
		h.HandleAPIError(w, r, err, "", shared.WithElevatedLogLevel())
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user, "Login successful")
}

func (h *AuthHandler) respondWithToken(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	user *domain.User,
	message string,
) {
	token, expiresAt, err := h.jwtService.GenerateToken(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to generate token",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		h.HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, status, AuthResponse{
		Message:   message,
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// Me handles GET /auth/me and returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.UserFromContext(r.Context())
	if !ok {
		h.HandleAPIError(w, r, domain.ErrUnauthorized, "Authentication required")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{User: user})
}

// ChangePassword handles PUT /auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		h.HandleAPIError(w, r, domain.ErrUnauthorized, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	h.logger.Info("password changed", slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// UpdateProfile handles PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		h.HandleAPIError(w, r, domain.ErrUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req.ToPatch())
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserResponse{Message: "Profile updated successfully", User: user})
}
