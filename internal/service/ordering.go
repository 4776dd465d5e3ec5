package service

import (
	"context"
	"fmt"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/database"
)

// Orderable is an entity with a position among its siblings.
type Orderable interface {
	OrderID() int64
	SetOrderIndex(i int)
}

// OrderingScope binds the reorder algorithm to one kind of sibling set.
type OrderingScope[T Orderable] struct {
	Kind         plan.Kind
	ParentExists func(ctx context.Context, store database.Store, parentID int64) (bool, error)
	Siblings     func(ctx context.Context, store database.Store, parentID int64) ([]T, error)
}

// Reorder assigns orderIndex = position to every sibling under parentID in
// the order given by orderedIDs, then saves all indexes in one bulk write.
// orderedIDs must be a permutation of the current sibling ids; anything
// else fails with domain.ErrValidation and writes nothing.
func Reorder[T Orderable](ctx context.Context, store database.Store, scope OrderingScope[T], parentID int64, orderedIDs []int64) ([]T, error) {
	ok, err := scope.ParentExists(ctx, store, parentID)
	if err != nil {
		return nil, fmt.Errorf("reorder %s: %w", scope.Kind, err)
	}
	if !ok {
		return nil, fmt.Errorf("reorder %s: parent %d: %w", scope.Kind, parentID, domain.ErrNotFound)
	}

	siblings, err := scope.Siblings(ctx, store, parentID)
	if err != nil {
		return nil, fmt.Errorf("reorder %s: %w", scope.Kind, err)
	}
	if len(orderedIDs) != len(siblings) {
		return nil, fmt.Errorf("reorder %s: got %d ids for %d items: %w",
			scope.Kind, len(orderedIDs), len(siblings), domain.ErrValidation)
	}

	seen := make(map[int64]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("reorder %s: duplicate id %d: %w", scope.Kind, id, domain.ErrValidation)
		}
		seen[id] = struct{}{}
	}

	byID := make(map[int64]T, len(siblings))
	for _, s := range siblings {
		byID[s.OrderID()] = s
	}
	ordered := make([]T, len(orderedIDs))
	updates := make([]plan.OrderUpdate, len(orderedIDs))
	for i, id := range orderedIDs {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("reorder %s: id %d does not belong to parent %d: %w",
				scope.Kind, id, parentID, domain.ErrValidation)
		}
		s.SetOrderIndex(i)
		ordered[i] = s
		updates[i] = plan.OrderUpdate{ID: id, OrderIndex: i}
	}

	if err := store.UpdateOrderIndexes(ctx, scope.Kind, updates); err != nil {
		return nil, fmt.Errorf("reorder %s: %w", scope.Kind, err)
	}
	return ordered, nil
}

func pointers[E any](items []E) []*E {
	out := make([]*E, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}

// EpicOrdering reorders the epics of a project.
var EpicOrdering = OrderingScope[*plan.Epic]{
	Kind: plan.KindEpic,
	ParentExists: func(ctx context.Context, store database.Store, projectID int64) (bool, error) {
		return store.ProjectExists(ctx, projectID)
	},
	Siblings: func(ctx context.Context, store database.Store, projectID int64) ([]*plan.Epic, error) {
		epics, err := store.ListEpics(ctx, projectID)
		return pointers(epics), err
	},
}

// StoryOrdering reorders the stories of an epic.
var StoryOrdering = OrderingScope[*plan.Story]{
	Kind: plan.KindStory,
	ParentExists: func(ctx context.Context, store database.Store, epicID int64) (bool, error) {
		return store.EpicExists(ctx, epicID)
	},
	Siblings: func(ctx context.Context, store database.Store, epicID int64) ([]*plan.Story, error) {
		stories, err := store.ListStories(ctx, epicID)
		return pointers(stories), err
	},
}

// TaskOrdering reorders the tasks of a story.
var TaskOrdering = OrderingScope[*plan.Task]{
	Kind: plan.KindTask,
	ParentExists: func(ctx context.Context, store database.Store, storyID int64) (bool, error) {
		return store.StoryExists(ctx, storyID)
	},
	Siblings: func(ctx context.Context, store database.Store, storyID int64) ([]*plan.Task, error) {
		tasks, err := store.ListTasks(ctx, storyID)
		return pointers(tasks), err
	},
}
