package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Priority ranks a todo.
type Priority string

// Known priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every known priority in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Limits applied to todo fields.
const (
	TitleMaxLength = 255
	MaxTags        = 20
	TagMaxLength   = 50
	MaxHours       = 999.99
)

// ParsePriority converts a string to a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Todo is a task record owned by a single user.
type Todo struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"userId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Completed      bool       `json:"completed"`
	Priority       Priority   `json:"priority"`
	DueDate        *time.Time `json:"dueDate"`
	Tags           []string   `json:"tags"`
	EstimatedHours *float64   `json:"estimatedHours"`
	ActualHours    *float64   `json:"actualHours"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TodoDraft carries the caller-supplied fields of a new todo.
// The owner is not part of the draft; it is always the requester.
type TodoDraft struct {
	Title          string
	Description    string
	Priority       Priority
	DueDate        *time.Time
	Tags           []string
	EstimatedHours *float64
	ActualHours    *float64
}

// TodoPatch describes a partial update. Nil pointers and unset Optionals leave
// the corresponding field unchanged.
type TodoPatch struct {
	Title          *string
	Description    *string
	Completed      *bool
	Priority       *Priority
	DueDate        Optional[time.Time]
	Tags           *[]string
	EstimatedHours Optional[float64]
	ActualHours    Optional[float64]
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		p.Priority == nil && !p.DueDate.Set && p.Tags == nil &&
		!p.EstimatedHours.Set && !p.ActualHours.Set
}

// NewTodo builds a validated todo for userID, applying defaults for the
// omitted draft fields.
func NewTodo(userID uuid.UUID, draft TodoDraft) (*Todo, error) {
	now := time.Now().UTC()

	priority := draft.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}

	todo := &Todo{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          strings.TrimSpace(draft.Title),
		Description:    draft.Description,
		Priority:       priority,
		DueDate:        utcPtr(draft.DueDate),
		Tags:           normalizeTags(tags),
		EstimatedHours: draft.EstimatedHours,
		ActualHours:    draft.ActualHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}

	return todo, nil
}

// Apply copies the fields present in p onto t and bumps UpdatedAt.
// The caller re-validates afterwards.
func (t *Todo) Apply(p TodoPatch) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate.Set {
		t.DueDate = utcPtr(p.DueDate.Value)
	}
	if p.Tags != nil {
		t.Tags = normalizeTags(*p.Tags)
	}
	if p.EstimatedHours.Set {
		t.EstimatedHours = p.EstimatedHours.Value
	}
	if p.ActualHours.Set {
		t.ActualHours = p.ActualHours.Value
	}
	t.UpdatedAt = time.Now().UTC()
}

// Validate checks every todo field and reports all failures at once.
func (t *Todo) Validate() error {
	verr := &ValidationError{}

	if t.ID == uuid.Nil {
		verr.Add("id", "cannot be empty")
	}
	if t.UserID == uuid.Nil {
		verr.Add("userId", "cannot be empty")
	}

	switch n := utf8.RuneCountInString(t.Title); {
	case n == 0:
		verr.Add("title", "cannot be empty")
	case n > TitleMaxLength:
		verr.Add("title", "must be between 1 and 255 characters")
	}

	if !t.Priority.Valid() {
		verr.Add("priority", "must be one of low, medium, high")
	}

	if len(t.Tags) > MaxTags {
		verr.Add("tags", "cannot contain more than 20 tags")
	}
	for _, tag := range t.Tags {
		if tag == "" || utf8.RuneCountInString(tag) > TagMaxLength {
			verr.Add("tags", "each tag must be between 1 and 50 characters")
			break
		}
	}

	validateHours(verr, "estimatedHours", t.EstimatedHours)
	validateHours(verr, "actualHours", t.ActualHours)

	return verr.ErrOrNil()
}

func validateHours(verr *ValidationError, field string, hours *float64) {
	if hours == nil {
		return
	}
	if *hours < 0 || *hours > MaxHours {
		verr.Add(field, "must be between 0 and 999.99")
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, strings.TrimSpace(tag))
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
