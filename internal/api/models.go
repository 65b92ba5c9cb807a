package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the user login endpoint.
// Username may hold either the username or the email address; Email is
// accepted as an alternative key.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identifier returns the login name the client supplied.
func (r LoginRequest) Identifier() string {
	if id := strings.TrimSpace(r.Username); id != "" {
		return id
	}
	return strings.TrimSpace(r.Email)
}

// Validate implements the self-validation hook used by shared.ValidateRequest.
func (r *LoginRequest) Validate() error {
	verr := &domain.ValidationError{}
	if r.Identifier() == "" {
		verr.Add("username", "is required")
	}
	if r.Password == "" {
		verr.Add("password", "is required")
	}
	return verr.ErrOrNil()
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`

	// Token is the JWT used for API authorization
	Token string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the token expires
	ExpiresAt string `json:"expiresAt"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

// MessageResponse carries a confirmation message only.
type MessageResponse struct {
	Message string `json:"message"`
}

// ChangePasswordRequest defines the payload for the password change endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required"`
}

// UpdateProfileRequest defines the payload for the profile endpoint.
// Optional fields may be set to null to clear them.
type UpdateProfileRequest struct {
	FirstName domain.Optional[string] `json:"firstName"`
	LastName  domain.Optional[string] `json:"lastName"`
	Avatar    domain.Optional[string] `json:"avatar"`
	Email     *string                 `json:"email"`
}

// Profile field limits.
const (
	NameMaxLength   = 50
	AvatarMaxLength = 500
)

// Validate implements the self-validation hook used by shared.ValidateRequest.
func (r *UpdateProfileRequest) Validate() error {
	verr := &domain.ValidationError{}
	checkLength := func(field string, v domain.Optional[string], max int) {
		if v.Value != nil && len([]rune(*v.Value)) > max {
			verr.Add(field, "is too long")
		}
	}
	checkLength("firstName", r.FirstName, NameMaxLength)
	checkLength("lastName", r.LastName, NameMaxLength)
	checkLength("avatar", r.Avatar, AvatarMaxLength)
	return verr.ErrOrNil()
}

// ToPatch converts the request to a domain.ProfilePatch.
func (r UpdateProfileRequest) ToPatch() domain.ProfilePatch {
	return domain.ProfilePatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Avatar:    r.Avatar,
		Email:     r.Email,
	}
}

// DateTime is a timestamp accepted as RFC 3339, as a date-time without a
// zone (read as UTC), or as a plain YYYY-MM-DD date.
type DateTime struct {
	time.Time
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.NewValidationError("dueDate", "must be a date string", err)
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return domain.NewValidationError("dueDate", "must be an ISO 8601 date or date-time", nil)
}

// normalizePriority accepts a priority in any letter case. Unknown values are
// passed through unchanged so that todo validation reports them.
func normalizePriority(raw string) domain.Priority {
	if p, err := domain.ParsePriority(raw); err == nil {
		return p
	}
	return domain.Priority(raw)
}

// CreateTodoRequest defines the payload for creating a todo.
type CreateTodoRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Priority       string    `json:"priority"`
	DueDate        *DateTime `json:"dueDate"`
	Tags           []string  `json:"tags"`
	EstimatedHours *float64  `json:"estimatedHours"`
	ActualHours    *float64  `json:"actualHours"`
}

// ToDraft converts the request to a domain.TodoDraft.
func (r CreateTodoRequest) ToDraft() domain.TodoDraft {
	draft := domain.TodoDraft{
		Title:          r.Title,
		Description:    r.Description,
		Priority:       normalizePriority(r.Priority),
		Tags:           r.Tags,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
	}
	if r.DueDate != nil {
		due := r.DueDate.Time
		draft.DueDate = &due
	}
	return draft
}

// UpdateTodoRequest defines the payload for updating a todo. Absent fields
// are left unchanged; dueDate, estimatedHours and actualHours may be null.
type UpdateTodoRequest struct {
	Title          *string                   `json:"title"`
	Description    *string                   `json:"description"`
	Completed      *bool                     `json:"completed"`
	Priority       *string                   `json:"priority"`
	DueDate        domain.Optional[DateTime] `json:"dueDate"`
	Tags           *[]string                 `json:"tags"`
	EstimatedHours domain.Optional[float64]  `json:"estimatedHours"`
	ActualHours    domain.Optional[float64]  `json:"actualHours"`
}

// ToPatch converts the request to a domain.TodoPatch.
func (r UpdateTodoRequest) ToPatch() domain.TodoPatch {
	patch := domain.TodoPatch{
		Title:          r.Title,
		Description:    r.Description,
		Completed:      r.Completed,
		Tags:           r.Tags,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
	}
	if r.Priority != nil {
		p := normalizePriority(*r.Priority)
		patch.Priority = &p
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			patch.DueDate = domain.Null[time.Time]()
		} else {
			patch.DueDate = domain.Some(r.DueDate.Value.Time)
		}
	}
	return patch
}

// BatchRequest defines the payload for the batch endpoint.
type BatchRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

// TodoResponse wraps a single todo.
type TodoResponse struct {
	Message string       `json:"message,omitempty"`
	Todo    *domain.Todo `json:"todo"`
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// TodoListResponse is one page of todos.
type TodoListResponse struct {
	Todos      []*domain.Todo `json:"todos"`
	Pagination Pagination     `json:"pagination"`
}

// NewTodoListResponse converts a service page to its wire form.
func NewTodoListResponse(page *service.TodoPage) TodoListResponse {
	return TodoListResponse{
		Todos: page.Todos,
		Pagination: Pagination{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	}
}

// BatchResponse reports the outcome of a batch operation.
type BatchResponse struct {
	Message  string `json:"message"`
	Affected int64  `json:"affected"`
}

// StatsResponse summarizes the caller's todos.
type StatsResponse struct {
	Total          int                     `json:"total"`
	Completed      int                     `json:"completed"`
	Pending        int                     `json:"pending"`
	CompletionRate int                     `json:"completionRate"`
	PriorityStats  map[domain.Priority]int `json:"priorityStats"`
}

// NewStatsResponse converts a service summary to its wire form.
func NewStatsResponse(s *service.TodoSummary) StatsResponse {
	return StatsResponse{
		Total:          s.Total,
		Completed:      s.Completed,
		Pending:        s.Pending,
		CompletionRate: s.CompletionRate,
		PriorityStats:  s.PriorityStats,
	}
}
