package plan

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Strob0t/PlanForge/internal/domain"
)

// CreateProjectRequest holds the fields needed to create a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest holds optional project fields to change.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// EpicRequest is the body for creating or updating an epic.
type EpicRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
}

// StoryRequest is the body for creating or updating a story.
type StoryRequest struct {
	Title    string   `json:"title"`
	AsA      string   `json:"asA"`
	IWant    string   `json:"iWant"`
	SoThat   string   `json:"soThat"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`
}

// TaskRequest is the body for creating or updating a task.
type TaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Status         Status `json:"status"`
	EstimatedHours *int   `json:"estimatedHours,omitempty"`
}

// ReorderRequest carries the desired permutation of a parent's children.
type ReorderRequest struct {
	OrderedIDs []int64 `json:"orderedIds"`
}

const (
	maxTitleLen       = 255
	maxDescriptionLen = 5000
)

// ValidateCreateProject validates a CreateProjectRequest.
func ValidateCreateProject(req *CreateProjectRequest) error {
	if err := validateTitle("name", req.Name); err != nil {
		return err
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrValidation)
	}
	return nil
}

// ValidateUpdateProject validates an UpdateProjectRequest.
func ValidateUpdateProject(req *UpdateProjectRequest) error {
	if req.Name != nil {
		if err := validateTitle("name", *req.Name); err != nil {
			return err
		}
	}
	if req.Description != nil && len(*req.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrValidation)
	}
	return nil
}

// ValidateEpic validates an EpicRequest and fills in defaults for
// priority and status.
func ValidateEpic(req *EpicRequest) error {
	if err := validateTitle("title", req.Title); err != nil {
		return err
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrValidation)
	}
	return defaults(&req.Priority, &req.Status)
}

// ValidateStory validates a StoryRequest and fills in defaults for
// priority and status.
func ValidateStory(req *StoryRequest) error {
	if err := validateTitle("title", req.Title); err != nil {
		return err
	}
	return defaults(&req.Priority, &req.Status)
}

// ValidateTask validates a TaskRequest and fills in the default status.
func ValidateTask(req *TaskRequest) error {
	if err := validateTitle("title", req.Title); err != nil {
		return err
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrValidation)
	}
	if req.EstimatedHours != nil && *req.EstimatedHours < 1 {
		return fmt.Errorf("estimatedHours must be positive: %w", domain.ErrValidation)
	}
	if req.Status == "" {
		req.Status = StatusTodo
	}
	return ValidateStatus(req.Status)
}

// ValidatePriority checks if a priority value is valid.
func ValidatePriority(p Priority) error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	default:
		return fmt.Errorf("invalid priority %q: %w", p, domain.ErrValidation)
	}
}

// ValidateStatus checks if a status value is valid.
func ValidateStatus(s Status) error {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return nil
	default:
		return fmt.Errorf("invalid status %q: %w", s, domain.ErrValidation)
	}
}

func defaults(p *Priority, s *Status) error {
	if *p == "" {
		*p = PriorityMedium
	}
	if *s == "" {
		*s = StatusTodo
	}
	if err := ValidatePriority(*p); err != nil {
		return err
	}
	return ValidateStatus(*s)
}

func validateTitle(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required: %w", field, domain.ErrValidation)
	}
	if len(v) > maxTitleLen {
		return fmt.Errorf("%s exceeds %d characters: %w", field, maxTitleLen, domain.ErrValidation)
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return fmt.Errorf("%s contains control characters: %w", field, domain.ErrValidation)
		}
	}
	return nil
}
