package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderSnapshotEmptyProject(t *testing.T) {
	got := RenderSnapshot(&Project{Name: "Shop"})
	want := "PROJECT: Shop\n\nEPICS:\nNo epics defined yet.\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RenderSnapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSnapshotTree(t *testing.T) {
	p := &Project{
		Name:        "Shop",
		Description: "Online store",
		Epics: []Epic{
			{
				Title: "Payments", Priority: PriorityLow, Status: StatusTodo,
			},
			{
				Title: "Auth", Description: "Accounts", Priority: PriorityHigh, Status: StatusInProgress, OrderIndex: IntPtr(0),
				Stories: []Story{
					{Title: "Logout", Priority: PriorityLow, Status: StatusTodo, OrderIndex: IntPtr(1)},
					{
						Title: "Login", AsA: "shopper", IWant: "to log in", SoThat: "  ",
						Priority: PriorityMedium, Status: StatusDone, OrderIndex: IntPtr(0),
						Tasks: []Task{
							{Title: "API", Status: StatusTodo, OrderIndex: IntPtr(1)},
							{Title: "Form", Description: "email + password", Status: StatusDone, EstimatedHours: IntPtr(3), OrderIndex: IntPtr(0)},
						},
					},
				},
			},
		},
	}

	want := `PROJECT: Shop
Description: Online store

EPICS:
- Epic 1: Auth (priority: HIGH, status: IN_PROGRESS)
  Description: Accounts
  User stories:
  - Story 1.1: Login (priority: MEDIUM, status: DONE)
    As a: shopper
    I want: to log in
    Tasks:
    - Task 1.1.1: Form (status: DONE, estimate: 3h)
      Description: email + password
    - Task 1.1.2: API (status: TODO)
  - Story 1.2: Logout (priority: LOW, status: TODO)
    Tasks:
    No tasks defined yet.
- Epic 2: Payments (priority: LOW, status: TODO)
  User stories:
  No user stories defined yet.
`
	got := RenderSnapshot(p)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RenderSnapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSnapshotDoesNotMutateInput(t *testing.T) {
	p := &Project{
		Name: "Shop",
		Epics: []Epic{
			{Title: "B", OrderIndex: IntPtr(1)},
			{Title: "A", OrderIndex: IntPtr(0)},
		},
	}
	first := RenderSnapshot(p)
	if p.Epics[0].Title != "B" {
		t.Error("RenderSnapshot reordered the caller's epics")
	}
	if second := RenderSnapshot(p); first != second {
		t.Error("RenderSnapshot is not deterministic")
	}
}
