package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/database/dbtest"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
)

func TestPlanServiceProjectValidation(t *testing.T) {
	svc := NewPlanService(dbtest.NewStore(), nil, nil)
	ctx := context.Background()

	if _, err := svc.CreateProject(ctx, plan.CreateProjectRequest{Name: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank name: expected ErrValidation, got %v", err)
	}
	p, err := svc.CreateProject(ctx, plan.CreateProjectRequest{Name: "Shop"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := ""
	if _, err := svc.UpdateProject(ctx, p.ID, plan.UpdateProjectRequest{Name: &empty}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty rename: expected ErrValidation, got %v", err)
	}
	name := "Store"
	if got, err := svc.UpdateProject(ctx, p.ID, plan.UpdateProjectRequest{Name: &name}); err != nil || got.Name != "Store" {
		t.Errorf("rename: %+v, %v", got, err)
	}

	if err := svc.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetProject(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPlanServiceCRUDValidation(t *testing.T) {
	store := dbtest.NewStore()
	svc := NewPlanService(store, nil, nil)
	ctx := context.Background()
	p, e, st := seedProject(t, store)
	negative := -1

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{name: "epic without title", run: func() error {
			_, err := svc.CreateEpic(ctx, p.ID, plan.EpicRequest{Title: ""})
			return err
		}, wantErr: domain.ErrValidation},
		{name: "epic bad priority", run: func() error {
			_, err := svc.CreateEpic(ctx, p.ID, plan.EpicRequest{Title: "x", Priority: "URGENT"})
			return err
		}, wantErr: domain.ErrValidation},
		{name: "epic unknown project", run: func() error {
			_, err := svc.CreateEpic(ctx, 999, plan.EpicRequest{Title: "x"})
			return err
		}, wantErr: domain.ErrNotFound},
		{name: "story bad status", run: func() error {
			_, err := svc.CreateStory(ctx, e.ID, plan.StoryRequest{Title: "x", Status: "BLOCKED"})
			return err
		}, wantErr: domain.ErrValidation},
		{name: "task negative estimate", run: func() error {
			_, err := svc.CreateTask(ctx, st.ID, plan.TaskRequest{Title: "x", EstimatedHours: &negative})
			return err
		}, wantErr: domain.ErrValidation},
		{name: "list stories unknown epic", run: func() error {
			_, err := svc.ListStories(ctx, 999)
			return err
		}, wantErr: domain.ErrNotFound},
		{name: "list tasks unknown story", run: func() error {
			_, err := svc.ListTasks(ctx, 999)
			return err
		}, wantErr: domain.ErrNotFound},
		{name: "delete unknown task", run: func() error {
			return svc.DeleteTask(ctx, 999)
		}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPlanServiceCreateFillsDefaults(t *testing.T) {
	store := dbtest.NewStore()
	svc := NewPlanService(store, nil, nil)
	p, _, _ := seedProject(t, store)

	e, err := svc.CreateEpic(context.Background(), p.ID, plan.EpicRequest{Title: "Checkout"})
	if err != nil {
		t.Fatalf("create epic: %v", err)
	}
	if e.Priority != plan.PriorityMedium || e.Status != plan.StatusTodo {
		t.Errorf("defaults not applied: %+v", e)
	}
	if e.OrderIndex == nil || *e.OrderIndex != 1 {
		t.Errorf("new epic should be appended at index 1, got %v", e.OrderIndex)
	}
}

func TestPlanServiceDeleteClosesGap(t *testing.T) {
	store := dbtest.NewStore()
	svc := NewPlanService(store, nil, nil)
	ctx := context.Background()
	_, _, st := seedProject(t, store)

	var ids []int64
	for _, title := range []string{"a", "b", "c"} {
		task, err := svc.CreateTask(ctx, st.ID, plan.TaskRequest{Title: title})
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		ids = append(ids, task.ID)
	}
	if err := svc.DeleteTask(ctx, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	tasks, _ := svc.ListTasks(ctx, st.ID)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for i, task := range tasks {
		if *task.OrderIndex != i {
			t.Errorf("task %q index %d, want %d", task.Title, *task.OrderIndex, i)
		}
	}
}

func TestPlanServiceReorderEmitsProjectScopedEvents(t *testing.T) {
	store := dbtest.NewStore()
	hub := &recordingHub{}
	svc := NewPlanService(store, NewNotifier(nil, hub), nil)
	ctx := context.Background()
	p, e, st := seedProject(t, store)

	s2, _ := svc.CreateStory(ctx, e.ID, plan.StoryRequest{Title: "Second"})
	t1, _ := svc.CreateTask(ctx, st.ID, plan.TaskRequest{Title: "one"})
	t2, _ := svc.CreateTask(ctx, st.ID, plan.TaskRequest{Title: "two"})

	if err := svc.ReorderEpics(ctx, p.ID, []int64{e.ID}); err != nil {
		t.Fatalf("reorder epics: %v", err)
	}
	if err := svc.ReorderStories(ctx, e.ID, []int64{s2.ID, st.ID}); err != nil {
		t.Fatalf("reorder stories: %v", err)
	}
	if err := svc.ReorderTasks(ctx, st.ID, []int64{t2.ID, t1.ID}); err != nil {
		t.Fatalf("reorder tasks: %v", err)
	}

	wantKinds := []string{"epic", "story", "task"}
	wantParents := []int64{p.ID, e.ID, st.ID}
	if len(hub.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(hub.events))
	}
	for i, he := range hub.events {
		var ev messagequeue.Event[messagequeue.PlanReorderedPayload]
		if err := json.Unmarshal(he.Payload, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.ProjectID != p.ID || ev.Data.Kind != wantKinds[i] || ev.Data.ParentID != wantParents[i] {
			t.Errorf("event %d = %+v", i, ev)
		}
	}

	stories, _ := svc.ListStories(ctx, e.ID)
	if stories[0].ID != s2.ID {
		t.Errorf("stories not reordered: first is %d", stories[0].ID)
	}
}

func TestPlanServiceRejectedReorderEmitsNothing(t *testing.T) {
	store := dbtest.NewStore()
	hub := &recordingHub{}
	svc := NewPlanService(store, NewNotifier(nil, hub), nil)
	p, e, _ := seedProject(t, store)

	err := svc.ReorderEpics(context.Background(), p.ID, []int64{e.ID, e.ID})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(hub.events) != 0 {
		t.Errorf("unexpected events: %v", hub.types())
	}
}
