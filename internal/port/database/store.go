// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/PlanForge/internal/domain/conversation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// Store is the port interface for database operations.
type Store interface {
	// InTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a transactional Store opens a nested scope (a
	// savepoint in PostgreSQL): if the inner fn fails only its writes are
	// undone, and the outer transaction still decides the final outcome.
	InTx(ctx context.Context, fn func(Store) error) error

	// Projects
	ListProjects(ctx context.Context) ([]plan.Project, error)
	GetProject(ctx context.Context, id int64) (*plan.Project, error)
	GetProjectTree(ctx context.Context, id int64) (*plan.Project, error)
	CreateProject(ctx context.Context, req plan.CreateProjectRequest) (*plan.Project, error)
	UpdateProject(ctx context.Context, id int64, req plan.UpdateProjectRequest) (*plan.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	// ReplacePlan deletes every epic of the project (cascading to stories
	// and tasks) and inserts p.Epics, filling in the generated ids.
	ReplacePlan(ctx context.Context, p *plan.Project) error

	// Epics
	ListEpics(ctx context.Context, projectID int64) ([]plan.Epic, error)
	GetEpic(ctx context.Context, id int64) (*plan.Epic, error)
	CreateEpic(ctx context.Context, projectID int64, req plan.EpicRequest) (*plan.Epic, error)
	UpdateEpic(ctx context.Context, id int64, req plan.EpicRequest) (*plan.Epic, error)
	DeleteEpic(ctx context.Context, id int64) error
	EpicExists(ctx context.Context, id int64) (bool, error)

	// Stories
	ListStories(ctx context.Context, epicID int64) ([]plan.Story, error)
	GetStory(ctx context.Context, id int64) (*plan.Story, error)
	CreateStory(ctx context.Context, epicID int64, req plan.StoryRequest) (*plan.Story, error)
	UpdateStory(ctx context.Context, id int64, req plan.StoryRequest) (*plan.Story, error)
	DeleteStory(ctx context.Context, id int64) error
	StoryExists(ctx context.Context, id int64) (bool, error)

	// Tasks
	ListTasks(ctx context.Context, storyID int64) ([]plan.Task, error)
	CreateTask(ctx context.Context, storyID int64, req plan.TaskRequest) (*plan.Task, error)
	UpdateTask(ctx context.Context, id int64, req plan.TaskRequest) (*plan.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	// ProjectExists reports whether a project with the given id exists.
	ProjectExists(ctx context.Context, id int64) (bool, error)

	// UpdateOrderIndexes writes all order indexes of one entity kind in a
	// single round trip.
	UpdateOrderIndexes(ctx context.Context, kind plan.Kind, updates []plan.OrderUpdate) error

	// Conversations
	CreateConversation(ctx context.Context, projectID int64) (*conversation.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*conversation.Conversation, error)
	// ListConversations returns the project's conversations oldest first,
	// without messages.
	ListConversations(ctx context.Context, projectID int64) ([]conversation.Conversation, error)
	CreateMessage(ctx context.Context, conversationID int64, role conversation.Role, content string) (*conversation.Message, error)
	// ListMessages returns all messages of a conversation oldest first.
	ListMessages(ctx context.Context, conversationID int64) ([]conversation.Message, error)
	// ListRecentMessages returns at most limit messages, newest first.
	ListRecentMessages(ctx context.Context, conversationID int64, limit int) ([]conversation.Message, error)
}
