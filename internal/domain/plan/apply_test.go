package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustExtract(t *testing.T, raw string) *Document {
	t.Helper()
	doc, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return doc
}

func TestApplyReplacesExistingPlan(t *testing.T) {
	p := &Project{
		ID:   7,
		Name: "Shop",
		Epics: []Epic{{
			ID: 1, ProjectID: 7, Title: "Old Epic", Priority: PriorityLow, Status: StatusDone, OrderIndex: IntPtr(0),
			Stories: []Story{{ID: 2, EpicID: 1, Title: "Old Story", OrderIndex: IntPtr(0)}},
		}},
	}
	doc := mustExtract(t, `{"epics":[{"title":"Auth","priority":"high","userStories":[{"title":"Login","tasks":[{"title":"Form","estimatedHours":0}]}]}]}`)

	Apply(p, doc)

	want := []Epic{{
		ProjectID:  7,
		Title:      "Auth",
		Priority:   PriorityHigh,
		Status:     StatusTodo,
		OrderIndex: IntPtr(0),
		Stories: []Story{{
			Title:      "Login",
			Priority:   PriorityMedium,
			Status:     StatusTodo,
			OrderIndex: IntPtr(0),
			Tasks: []Task{{
				Title:          "Form",
				Status:         StatusTodo,
				EstimatedHours: IntPtr(4),
				OrderIndex:     IntPtr(0),
			}},
		}},
	}}
	if diff := cmp.Diff(want, p.Epics); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDefaults(t *testing.T) {
	p := &Project{ID: 1}
	doc := mustExtract(t, `{"epics":[
		{"title":"  ","description":"Everything about accounts","priority":"urgent","status":"DONE",
		 "userStories":[{"asA":"shopper","iWant":"to log in","soThat":"I can pay","priority":"Low",
		   "tasks":[{"description":"wire the form","estimatedHours":"12"},{"title":"Docs","estimatedHours":-1}]}]},
		{"priority":"LOW"}
	]}`)

	Apply(p, doc)

	want := []Epic{
		{
			ProjectID:   1,
			Title:       "Untitled Epic",
			Description: "Everything about accounts",
			Priority:    PriorityMedium,
			Status:      StatusTodo,
			OrderIndex:  IntPtr(0),
			Stories: []Story{{
				Title:      "Untitled Story",
				AsA:        "shopper",
				IWant:      "to log in",
				SoThat:     "I can pay",
				Priority:   PriorityLow,
				Status:     StatusTodo,
				OrderIndex: IntPtr(0),
				Tasks: []Task{
					{Title: "Untitled Task", Description: "wire the form", Status: StatusTodo, EstimatedHours: IntPtr(12), OrderIndex: IntPtr(0)},
					{Title: "Docs", Status: StatusTodo, EstimatedHours: IntPtr(4), OrderIndex: IntPtr(1)},
				},
			}},
		},
		{
			ProjectID:  1,
			Title:      "Untitled Epic",
			Priority:   PriorityLow,
			Status:     StatusTodo,
			OrderIndex: IntPtr(1),
			Stories:    []Story{},
		},
	}
	if diff := cmp.Diff(want, p.Epics); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyIndicesContiguous(t *testing.T) {
	p := &Project{}
	doc := mustExtract(t, `{"epics":[
		{"userStories":[{"tasks":[{},{},{}]},{"tasks":[]},{}]},
		{"userStories":[{"tasks":[{}]}]},
		{}
	]}`)

	Apply(p, doc)

	if len(p.Epics) != 3 {
		t.Fatalf("expected 3 epics, got %d", len(p.Epics))
	}
	for i, e := range p.Epics {
		if e.OrderIndex == nil || *e.OrderIndex != i {
			t.Errorf("epic %d has order index %v", i, e.OrderIndex)
		}
		for j, s := range e.Stories {
			if s.OrderIndex == nil || *s.OrderIndex != j {
				t.Errorf("story %d.%d has order index %v", i, j, s.OrderIndex)
			}
			for k, task := range s.Tasks {
				if task.OrderIndex == nil || *task.OrderIndex != k {
					t.Errorf("task %d.%d.%d has order index %v", i, j, k, task.OrderIndex)
				}
			}
		}
	}

	epics, stories, tasks := p.Counts()
	if epics != 3 || stories != 4 || tasks != 4 {
		t.Errorf("Counts() = %d, %d, %d; want 3, 4, 4", epics, stories, tasks)
	}
}

func TestApplyEmptyDocumentClearsPlan(t *testing.T) {
	p := &Project{Epics: []Epic{{Title: "Old"}}}
	Apply(p, &Document{})
	if len(p.Epics) != 0 {
		t.Errorf("expected no epics, got %d", len(p.Epics))
	}
}
