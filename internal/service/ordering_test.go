package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/database/dbtest"
)

func seedEpics(t *testing.T, store *dbtest.Store, titles ...string) (int64, []int64) {
	t.Helper()
	ctx := context.Background()
	p, err := store.CreateProject(ctx, plan.CreateProjectRequest{Name: "P"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	ids := make([]int64, len(titles))
	for i, title := range titles {
		e, err := store.CreateEpic(ctx, p.ID, plan.EpicRequest{Title: title, Priority: plan.PriorityMedium, Status: plan.StatusTodo})
		if err != nil {
			t.Fatalf("create epic: %v", err)
		}
		ids[i] = e.ID
	}
	return p.ID, ids
}

func epicOrder(t *testing.T, store *dbtest.Store, projectID int64) map[string]int {
	t.Helper()
	epics, err := store.ListEpics(context.Background(), projectID)
	if err != nil {
		t.Fatalf("list epics: %v", err)
	}
	out := make(map[string]int, len(epics))
	for _, e := range epics {
		out[e.Title] = *e.OrderIndex
	}
	return out
}

func TestReorderAssignsPositions(t *testing.T) {
	store := dbtest.NewStore()
	projectID, ids := seedEpics(t, store, "A", "B", "C")
	ctx := context.Background()

	ordered, err := Reorder(ctx, store, EpicOrdering, projectID, []int64{ids[2], ids[0], ids[1]})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if ordered[0].Title != "C" || *ordered[0].OrderIndex != 0 {
		t.Errorf("unexpected first entity: %+v", ordered[0])
	}

	want := map[string]int{"C": 0, "A": 1, "B": 2}
	if diff := cmp.Diff(want, epicOrder(t, store, projectID)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestReorderIsIdempotent(t *testing.T) {
	store := dbtest.NewStore()
	projectID, ids := seedEpics(t, store, "A", "B", "C")
	ctx := context.Background()
	perm := []int64{ids[1], ids[2], ids[0]}

	if _, err := Reorder(ctx, store, EpicOrdering, projectID, perm); err != nil {
		t.Fatalf("first reorder: %v", err)
	}
	once := epicOrder(t, store, projectID)
	if _, err := Reorder(ctx, store, EpicOrdering, projectID, perm); err != nil {
		t.Fatalf("second reorder: %v", err)
	}
	if diff := cmp.Diff(once, epicOrder(t, store, projectID)); diff != "" {
		t.Errorf("second reorder changed indices (-once +twice):\n%s", diff)
	}
}

func TestReorderRejectsInvalidPermutations(t *testing.T) {
	store := dbtest.NewStore()
	projectID, ids := seedEpics(t, store, "A", "B", "C")
	otherProject, otherIDs := seedEpics(t, store, "X")
	_ = otherProject

	tests := []struct {
		name string
		ids  []int64
	}{
		{name: "too short", ids: []int64{ids[0], ids[1]}},
		{name: "too long", ids: []int64{ids[0], ids[1], ids[2], ids[0]}},
		{name: "duplicate", ids: []int64{ids[0], ids[0], ids[1]}},
		{name: "foreign id", ids: []int64{ids[0], ids[1], otherIDs[0]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := epicOrder(t, store, projectID)
			_, err := Reorder(context.Background(), store, EpicOrdering, projectID, tt.ids)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if diff := cmp.Diff(before, epicOrder(t, store, projectID)); diff != "" {
				t.Errorf("rejected reorder changed indices:\n%s", diff)
			}
		})
	}
}

func TestReorderMissingParent(t *testing.T) {
	store := dbtest.NewStore()
	ctx := context.Background()

	scopes := []func() error{
		func() error { _, err := Reorder(ctx, store, EpicOrdering, 999, nil); return err },
		func() error { _, err := Reorder(ctx, store, StoryOrdering, 999, nil); return err },
		func() error { _, err := Reorder(ctx, store, TaskOrdering, 999, nil); return err },
	}
	for i, run := range scopes {
		if err := run(); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("scope %d: expected ErrNotFound, got %v", i, err)
		}
	}
}

func TestReorderEmptySiblingSet(t *testing.T) {
	store := dbtest.NewStore()
	p, err := store.CreateProject(context.Background(), plan.CreateProjectRequest{Name: "Empty"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	ordered, err := Reorder(context.Background(), store, EpicOrdering, p.ID, []int64{})
	if err != nil || len(ordered) != 0 {
		t.Fatalf("expected empty success, got %v, %v", ordered, err)
	}
}

func TestReorderTasksWithinStory(t *testing.T) {
	store := dbtest.NewStore()
	ctx := context.Background()
	_, _, story := seedProject(t, store)

	var ids []int64
	for _, title := range []string{"one", "two"} {
		task, err := store.CreateTask(ctx, story.ID, plan.TaskRequest{Title: title, Status: plan.StatusTodo})
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		ids = append(ids, task.ID)
	}

	if _, err := Reorder(ctx, store, TaskOrdering, story.ID, []int64{ids[1], ids[0]}); err != nil {
		t.Fatalf("reorder tasks: %v", err)
	}
	tasks, _ := store.ListTasks(ctx, story.ID)
	if tasks[0].Title != "two" || tasks[1].Title != "one" {
		t.Errorf("unexpected task order: %q, %q", tasks[0].Title, tasks[1].Title)
	}
}
