package messagequeue

import "time"

// Event is the envelope published on every subject. Data holds one of the
// payload types below.
type Event[T any] struct {
	ID         string    `json:"id"`
	ProjectID  int64     `json:"projectId"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       T         `json:"data"`
}

// PlanReplacedPayload is the data of plans.replaced events.
type PlanReplacedPayload struct {
	Epics   int `json:"epics"`
	Stories int `json:"stories"`
	Tasks   int `json:"tasks"`
}

// PlanReorderedPayload is the data of plans.reordered events.
type PlanReorderedPayload struct {
	Kind     string `json:"kind"`
	ParentID int64  `json:"parentId"`
}

// ChatMessagePayload is the data of chats.message events.
type ChatMessagePayload struct {
	ConversationID int64 `json:"conversationId"`
	MessageID      int64 `json:"messageId"`
}

// ScopeProjectID returns the project the event belongs to.
func (e Event[T]) ScopeProjectID() int64 { return e.ProjectID }
