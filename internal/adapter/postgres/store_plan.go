package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// --- Epics ---

const epicColumns = `id, project_id, title, description, priority, status, order_index, created_at, updated_at`

func scanEpic(row scannable) (plan.Epic, error) {
	var e plan.Epic
	err := row.Scan(&e.ID, &e.ProjectID, &e.Title, &e.Description, &e.Priority, &e.Status,
		&e.OrderIndex, &e.CreatedAt, &e.UpdatedAt)
	e.Stories = []plan.Story{}
	return e, err
}

func (s *Store) ListEpics(ctx context.Context, projectID int64) ([]plan.Epic, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+epicColumns+` FROM epics WHERE project_id = $1
		 ORDER BY order_index NULLS LAST, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list epics: %w", err)
	}
	defer rows.Close()

	var epics []plan.Epic
	for rows.Next() {
		e, err := scanEpic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan epic: %w", err)
		}
		epics = append(epics, e)
	}
	return orEmpty(epics), rows.Err()
}

func (s *Store) GetEpic(ctx context.Context, id int64) (*plan.Epic, error) {
	e, err := scanEpic(s.db.QueryRow(ctx, `SELECT `+epicColumns+` FROM epics WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get epic %d", id)
	}
	return &e, nil
}

// CreateEpic appends an epic at the end of the project's epics.
func (s *Store) CreateEpic(ctx context.Context, projectID int64, req plan.EpicRequest) (*plan.Epic, error) {
	e, err := scanEpic(s.db.QueryRow(ctx,
		`INSERT INTO epics (project_id, title, description, priority, status, order_index)
		 VALUES ($1, $2, $3, $4, $5, (SELECT COUNT(*) FROM epics WHERE project_id = $1))
		 RETURNING `+epicColumns,
		projectID, req.Title, req.Description, req.Priority, req.Status))
	if err != nil {
		return nil, notFoundWrap(err, "create epic in project %d", projectID)
	}
	return &e, nil
}

func (s *Store) UpdateEpic(ctx context.Context, id int64, req plan.EpicRequest) (*plan.Epic, error) {
	e, err := scanEpic(s.db.QueryRow(ctx,
		`UPDATE epics SET title = $2, description = $3, priority = $4, status = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+epicColumns,
		id, req.Title, req.Description, req.Priority, req.Status))
	if err != nil {
		return nil, notFoundWrap(err, "update epic %d", id)
	}
	return &e, nil
}

func (s *Store) DeleteEpic(ctx context.Context, id int64) error {
	return s.deleteOrdered(ctx, plan.KindEpic, id)
}

func (s *Store) EpicExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM epics WHERE id = $1)`, id)
}

// --- Stories ---

const storyColumns = `id, epic_id, title, as_a, i_want, so_that, priority, status, order_index, created_at, updated_at`

func scanStory(row scannable) (plan.Story, error) {
	var st plan.Story
	err := row.Scan(&st.ID, &st.EpicID, &st.Title, &st.AsA, &st.IWant, &st.SoThat, &st.Priority, &st.Status,
		&st.OrderIndex, &st.CreatedAt, &st.UpdatedAt)
	st.Tasks = []plan.Task{}
	return st, err
}

func (s *Store) queryStories(ctx context.Context, query string, args ...any) ([]plan.Story, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []plan.Story
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, st)
	}
	return orEmpty(stories), rows.Err()
}

func (s *Store) ListStories(ctx context.Context, epicID int64) ([]plan.Story, error) {
	return s.queryStories(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE epic_id = $1
		 ORDER BY order_index NULLS LAST, id`, epicID)
}

func (s *Store) GetStory(ctx context.Context, id int64) (*plan.Story, error) {
	st, err := scanStory(s.db.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get story %d", id)
	}
	return &st, nil
}

// CreateStory appends a story at the end of the epic's stories.
func (s *Store) CreateStory(ctx context.Context, epicID int64, req plan.StoryRequest) (*plan.Story, error) {
	st, err := scanStory(s.db.QueryRow(ctx,
		`INSERT INTO stories (epic_id, title, as_a, i_want, so_that, priority, status, order_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COUNT(*) FROM stories WHERE epic_id = $1))
		 RETURNING `+storyColumns,
		epicID, req.Title, req.AsA, req.IWant, req.SoThat, req.Priority, req.Status))
	if err != nil {
		return nil, notFoundWrap(err, "create story in epic %d", epicID)
	}
	return &st, nil
}

func (s *Store) UpdateStory(ctx context.Context, id int64, req plan.StoryRequest) (*plan.Story, error) {
	st, err := scanStory(s.db.QueryRow(ctx,
		`UPDATE stories
		 SET title = $2, as_a = $3, i_want = $4, so_that = $5, priority = $6, status = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+storyColumns,
		id, req.Title, req.AsA, req.IWant, req.SoThat, req.Priority, req.Status))
	if err != nil {
		return nil, notFoundWrap(err, "update story %d", id)
	}
	return &st, nil
}

func (s *Store) DeleteStory(ctx context.Context, id int64) error {
	return s.deleteOrdered(ctx, plan.KindStory, id)
}

func (s *Store) StoryExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM stories WHERE id = $1)`, id)
}

// --- Tasks ---

const taskColumns = `id, story_id, title, description, status, estimated_hours, order_index, created_at, updated_at`

func scanTask(row scannable) (plan.Task, error) {
	var t plan.Task
	err := row.Scan(&t.ID, &t.StoryID, &t.Title, &t.Description, &t.Status, &t.EstimatedHours,
		&t.OrderIndex, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]plan.Task, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []plan.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return orEmpty(tasks), rows.Err()
}

func (s *Store) ListTasks(ctx context.Context, storyID int64) ([]plan.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE story_id = $1
		 ORDER BY order_index NULLS LAST, id`, storyID)
}

// CreateTask appends a task at the end of the story's tasks.
func (s *Store) CreateTask(ctx context.Context, storyID int64, req plan.TaskRequest) (*plan.Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx,
		`INSERT INTO tasks (story_id, title, description, status, estimated_hours, order_index)
		 VALUES ($1, $2, $3, $4, $5, (SELECT COUNT(*) FROM tasks WHERE story_id = $1))
		 RETURNING `+taskColumns,
		storyID, req.Title, req.Description, req.Status, req.EstimatedHours))
	if err != nil {
		return nil, notFoundWrap(err, "create task in story %d", storyID)
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, req plan.TaskRequest) (*plan.Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx,
		`UPDATE tasks SET title = $2, description = $3, status = $4, estimated_hours = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+taskColumns,
		id, req.Title, req.Description, req.Status, req.EstimatedHours))
	if err != nil {
		return nil, notFoundWrap(err, "update task %d", id)
	}
	return &t, nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.deleteOrdered(ctx, plan.KindTask, id)
}

// --- Ordering ---

// UpdateOrderIndexes writes all updates for one kind in a single batch.
func (s *Store) UpdateOrderIndexes(ctx context.Context, kind plan.Kind, updates []plan.OrderUpdate) error {
	tbl, ok := orderedTables[kind]
	if !ok {
		return fmt.Errorf("update order indexes: unknown kind %q", kind)
	}
	if len(updates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE `+tbl.table+` SET order_index = $2, updated_at = now() WHERE id = $1`,
			u.ID, u.OrderIndex)
	}
	br := s.db.SendBatch(ctx, batch)
	for _, u := range updates {
		tag, err := br.Exec()
		if err := execExpectOne(tag, err, "update order of %s %d", kind, u.ID); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

// deleteOrdered removes one entity and shifts its later siblings down by
// one so the remaining order indexes stay contiguous.
func (s *Store) deleteOrdered(ctx context.Context, kind plan.Kind, id int64) error {
	tbl := orderedTables[kind]
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var (
			parentID int64
			idx      *int
		)
		err := tx.QueryRow(ctx,
			`DELETE FROM `+tbl.table+` WHERE id = $1 RETURNING `+tbl.parent+`, order_index`, id,
		).Scan(&parentID, &idx)
		if err != nil {
			return notFoundWrap(err, "delete %s %d", kind, id)
		}
		if idx == nil {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE `+tbl.table+` SET order_index = order_index - 1, updated_at = now()
			 WHERE `+tbl.parent+` = $1 AND order_index > $2`,
			parentID, *idx)
		if err != nil {
			return fmt.Errorf("close gap after deleting %s %d: %w", kind, id, err)
		}
		return nil
	})
}
