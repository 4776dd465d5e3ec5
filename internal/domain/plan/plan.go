// Package plan contains the project plan hierarchy: Project → Epic → Story → Task.
package plan

import (
	"strings"
	"time"
)

// Priority ranks an epic or story.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Status is the progress state of an epic, story, or task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Kind names one of the three ordered entity kinds.
type Kind string

const (
	KindEpic  Kind = "epic"
	KindStory Kind = "story"
	KindTask  Kind = "task"
)

// Project is the root of a plan. Epics are only populated when the full
// tree is requested.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Epics       []Epic    `json:"epics,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Epic is a large body of work inside a project.
type Epic struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	OrderIndex  *int      `json:"orderIndex"`
	Stories     []Story   `json:"stories"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Story is a user story inside an epic.
type Story struct {
	ID         int64     `json:"id"`
	EpicID     int64     `json:"epicId"`
	Title      string    `json:"title"`
	AsA        string    `json:"asA,omitempty"`
	IWant      string    `json:"iWant,omitempty"`
	SoThat     string    `json:"soThat,omitempty"`
	Priority   Priority  `json:"priority"`
	Status     Status    `json:"status"`
	OrderIndex *int      `json:"orderIndex"`
	Tasks      []Task    `json:"tasks"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Task is the smallest unit of planned work.
type Task struct {
	ID             int64     `json:"id"`
	StoryID        int64     `json:"storyId"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Status         Status    `json:"status"`
	EstimatedHours *int      `json:"estimatedHours,omitempty"`
	OrderIndex     *int      `json:"orderIndex"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// OrderUpdate assigns a new order index to one entity.
type OrderUpdate struct {
	ID         int64
	OrderIndex int
}

// OrderID and SetOrderIndex let the ordering algorithm work on any of the
// three entity kinds.

func (e *Epic) OrderID() int64      { return e.ID }
func (e *Epic) SetOrderIndex(i int) { e.OrderIndex = &i }

func (s *Story) OrderID() int64      { return s.ID }
func (s *Story) SetOrderIndex(i int) { s.OrderIndex = &i }

func (t *Task) OrderID() int64      { return t.ID }
func (t *Task) SetOrderIndex(i int) { t.OrderIndex = &i }

// NormalizePriority maps free text to a Priority, case-insensitively.
// Anything unrecognized, including blank input, becomes PriorityMedium.
func NormalizePriority(s string) Priority {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// IntPtr returns a pointer to a copy of i.
func IntPtr(i int) *int { return &i }
