// Package service implements business logic on top of ports.
package service

import (
	"context"
	"fmt"
	"log/slog"

	pfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/database"
)

// PlanService handles projects and the CRUD and ordering of their epics,
// stories and tasks.
type PlanService struct {
	store    database.Store
	notifier *Notifier
	metrics  *pfotel.Metrics
}

// NewPlanService creates a new PlanService. notifier and metrics may be nil.
func NewPlanService(store database.Store, notifier *Notifier, metrics *pfotel.Metrics) *PlanService {
	return &PlanService{store: store, notifier: notifier, metrics: metrics}
}

// --- Projects ---

// ListProjects returns all projects without their plans, newest first.
func (s *PlanService) ListProjects(ctx context.Context) ([]plan.Project, error) {
	return s.store.ListProjects(ctx)
}

// GetProject returns a project with its full plan tree.
func (s *PlanService) GetProject(ctx context.Context, id int64) (*plan.Project, error) {
	return s.store.GetProjectTree(ctx, id)
}

// CreateProject creates a project after validating the request.
func (s *PlanService) CreateProject(ctx context.Context, req plan.CreateProjectRequest) (*plan.Project, error) {
	if err := plan.ValidateCreateProject(&req); err != nil {
		return nil, err
	}
	p, err := s.store.CreateProject(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "project created", "project_id", p.ID)
	return p, nil
}

// UpdateProject applies a partial update to a project.
func (s *PlanService) UpdateProject(ctx context.Context, id int64, req plan.UpdateProjectRequest) (*plan.Project, error) {
	if err := plan.ValidateUpdateProject(&req); err != nil {
		return nil, err
	}
	return s.store.UpdateProject(ctx, id, req)
}

// DeleteProject removes a project with its plan and conversations.
func (s *PlanService) DeleteProject(ctx context.Context, id int64) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "project deleted", "project_id", id)
	return nil
}

// --- Epics ---

func (s *PlanService) ListEpics(ctx context.Context, projectID int64) ([]plan.Epic, error) {
	if err := requireParent(ctx, s.store.ProjectExists, "project", projectID); err != nil {
		return nil, err
	}
	return s.store.ListEpics(ctx, projectID)
}

// CreateEpic appends a new epic to the project.
func (s *PlanService) CreateEpic(ctx context.Context, projectID int64, req plan.EpicRequest) (*plan.Epic, error) {
	if err := plan.ValidateEpic(&req); err != nil {
		return nil, err
	}
	return s.store.CreateEpic(ctx, projectID, req)
}

func (s *PlanService) UpdateEpic(ctx context.Context, id int64, req plan.EpicRequest) (*plan.Epic, error) {
	if err := plan.ValidateEpic(&req); err != nil {
		return nil, err
	}
	return s.store.UpdateEpic(ctx, id, req)
}

func (s *PlanService) DeleteEpic(ctx context.Context, id int64) error {
	return s.store.DeleteEpic(ctx, id)
}

// --- Stories ---

func (s *PlanService) ListStories(ctx context.Context, epicID int64) ([]plan.Story, error) {
	if err := requireParent(ctx, s.store.EpicExists, "epic", epicID); err != nil {
		return nil, err
	}
	return s.store.ListStories(ctx, epicID)
}

// CreateStory appends a new story to the epic.
func (s *PlanService) CreateStory(ctx context.Context, epicID int64, req plan.StoryRequest) (*plan.Story, error) {
	if err := plan.ValidateStory(&req); err != nil {
		return nil, err
	}
	return s.store.CreateStory(ctx, epicID, req)
}

func (s *PlanService) UpdateStory(ctx context.Context, id int64, req plan.StoryRequest) (*plan.Story, error) {
	if err := plan.ValidateStory(&req); err != nil {
		return nil, err
	}
	return s.store.UpdateStory(ctx, id, req)
}

func (s *PlanService) DeleteStory(ctx context.Context, id int64) error {
	return s.store.DeleteStory(ctx, id)
}

// --- Tasks ---

func (s *PlanService) ListTasks(ctx context.Context, storyID int64) ([]plan.Task, error) {
	if err := requireParent(ctx, s.store.StoryExists, "story", storyID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, storyID)
}

// CreateTask appends a new task to the story.
func (s *PlanService) CreateTask(ctx context.Context, storyID int64, req plan.TaskRequest) (*plan.Task, error) {
	if err := plan.ValidateTask(&req); err != nil {
		return nil, err
	}
	return s.store.CreateTask(ctx, storyID, req)
}

func (s *PlanService) UpdateTask(ctx context.Context, id int64, req plan.TaskRequest) (*plan.Task, error) {
	if err := plan.ValidateTask(&req); err != nil {
		return nil, err
	}
	return s.store.UpdateTask(ctx, id, req)
}

func (s *PlanService) DeleteTask(ctx context.Context, id int64) error {
	return s.store.DeleteTask(ctx, id)
}

// --- Ordering ---

// ReorderEpics sets the order of a project's epics.
func (s *PlanService) ReorderEpics(ctx context.Context, projectID int64, orderedIDs []int64) error {
	err := s.store.InTx(ctx, func(tx database.Store) error {
		_, err := Reorder(ctx, tx, EpicOrdering, projectID, orderedIDs)
		return err
	})
	if err != nil {
		return err
	}
	s.reordered(ctx, projectID, plan.KindEpic, projectID)
	return nil
}

// ReorderStories sets the order of an epic's stories.
func (s *PlanService) ReorderStories(ctx context.Context, epicID int64, orderedIDs []int64) error {
	var projectID int64
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if _, err := Reorder(ctx, tx, StoryOrdering, epicID, orderedIDs); err != nil {
			return err
		}
		epic, err := tx.GetEpic(ctx, epicID)
		if err != nil {
			return err
		}
		projectID = epic.ProjectID
		return nil
	})
	if err != nil {
		return err
	}
	s.reordered(ctx, projectID, plan.KindStory, epicID)
	return nil
}

// ReorderTasks sets the order of a story's tasks.
func (s *PlanService) ReorderTasks(ctx context.Context, storyID int64, orderedIDs []int64) error {
	var projectID int64
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if _, err := Reorder(ctx, tx, TaskOrdering, storyID, orderedIDs); err != nil {
			return err
		}
		story, err := tx.GetStory(ctx, storyID)
		if err != nil {
			return err
		}
		epic, err := tx.GetEpic(ctx, story.EpicID)
		if err != nil {
			return err
		}
		projectID = epic.ProjectID
		return nil
	})
	if err != nil {
		return err
	}
	s.reordered(ctx, projectID, plan.KindTask, storyID)
	return nil
}

func (s *PlanService) reordered(ctx context.Context, projectID int64, kind plan.Kind, parentID int64) {
	slog.InfoContext(ctx, "plan reordered", "project_id", projectID, "kind", kind, "parent_id", parentID)
	s.metrics.RecordReorder(ctx, string(kind))
	s.notifier.PlanReordered(ctx, projectID, kind, parentID)
}

func requireParent(ctx context.Context, exists func(context.Context, int64) (bool, error), what string, id int64) error {
	ok, err := exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
