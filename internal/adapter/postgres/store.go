package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/database"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements database.Store using PostgreSQL.
type Store struct {
	db querier
}

var _ database.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// InTx runs fn with a Store bound to one transaction. Nested calls open a
// savepoint on the enclosing transaction.
func (s *Store) InTx(ctx context.Context, fn func(database.Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{db: tx})
	})
}

// --- Projects ---

const projectColumns = `id, name, description, created_at, updated_at`

func scanProject(row scannable) (plan.Project, error) {
	var p plan.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) ListProjects(ctx context.Context) ([]plan.Project, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []plan.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return orEmpty(projects), rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id int64) (*plan.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get project %d", id)
	}
	return &p, nil
}

// GetProjectTree loads a project with all epics, stories and tasks, each
// level ordered by order index (unindexed rows last).
func (s *Store) GetProjectTree(ctx context.Context, id int64) (*plan.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	epics, err := s.ListEpics(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(epics) == 0 {
		p.Epics = epics
		return p, nil
	}

	epicIDs := make([]int64, len(epics))
	for i := range epics {
		epicIDs[i] = epics[i].ID
	}
	stories, err := s.queryStories(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE epic_id = ANY($1)
		 ORDER BY order_index NULLS LAST, id`, epicIDs)
	if err != nil {
		return nil, err
	}

	storyIDs := make([]int64, len(stories))
	for i := range stories {
		storyIDs[i] = stories[i].ID
	}
	tasks, err := s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE story_id = ANY($1)
		 ORDER BY order_index NULLS LAST, id`, storyIDs)
	if err != nil {
		return nil, err
	}

	tasksByStory := make(map[int64][]plan.Task, len(stories))
	for _, t := range tasks {
		tasksByStory[t.StoryID] = append(tasksByStory[t.StoryID], t)
	}
	storiesByEpic := make(map[int64][]plan.Story, len(epics))
	for _, st := range stories {
		st.Tasks = orEmpty(tasksByStory[st.ID])
		storiesByEpic[st.EpicID] = append(storiesByEpic[st.EpicID], st)
	}
	for i := range epics {
		epics[i].Stories = orEmpty(storiesByEpic[epics[i].ID])
	}
	p.Epics = epics
	return p, nil
}

func (s *Store) CreateProject(ctx context.Context, req plan.CreateProjectRequest) (*plan.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx,
		`INSERT INTO projects (name, description) VALUES ($1, $2)
		 RETURNING `+projectColumns,
		req.Name, req.Description))
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateProject(ctx context.Context, id int64, req plan.UpdateProjectRequest) (*plan.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx,
		`UPDATE projects
		 SET name = COALESCE($2, name), description = COALESCE($3, description), updated_at = now()
		 WHERE id = $1
		 RETURNING `+projectColumns,
		id, req.Name, req.Description))
	if err != nil {
		return nil, notFoundWrap(err, "update project %d", id)
	}
	return &p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete project %d", id)
}

func (s *Store) ProjectExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, id)
}

// ReplacePlan clears the project's epics and inserts p.Epics level by
// level, one batch per level. Generated ids and timestamps are written back
// into p. It must run inside the caller's transaction.
func (s *Store) ReplacePlan(ctx context.Context, p *plan.Project) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM epics WHERE project_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear plan of project %d: %w", p.ID, err)
	}

	epicBatch := &pgx.Batch{}
	for i := range p.Epics {
		e := &p.Epics[i]
		e.ProjectID = p.ID
		epicBatch.Queue(
			`INSERT INTO epics (project_id, title, description, priority, status, order_index)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at, updated_at`,
			e.ProjectID, e.Title, e.Description, e.Priority, e.Status, e.OrderIndex,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
		})
	}
	if err := s.db.SendBatch(ctx, epicBatch).Close(); err != nil {
		return fmt.Errorf("insert epics: %w", err)
	}

	storyBatch := &pgx.Batch{}
	for i := range p.Epics {
		for j := range p.Epics[i].Stories {
			st := &p.Epics[i].Stories[j]
			st.EpicID = p.Epics[i].ID
			storyBatch.Queue(
				`INSERT INTO stories (epic_id, title, as_a, i_want, so_that, priority, status, order_index)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING id, created_at, updated_at`,
				st.EpicID, st.Title, st.AsA, st.IWant, st.SoThat, st.Priority, st.Status, st.OrderIndex,
			).QueryRow(func(row pgx.Row) error {
				return row.Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
			})
		}
	}
	if err := s.db.SendBatch(ctx, storyBatch).Close(); err != nil {
		return fmt.Errorf("insert stories: %w", err)
	}

	taskBatch := &pgx.Batch{}
	for i := range p.Epics {
		for j := range p.Epics[i].Stories {
			st := &p.Epics[i].Stories[j]
			for k := range st.Tasks {
				t := &st.Tasks[k]
				t.StoryID = st.ID
				taskBatch.Queue(
					`INSERT INTO tasks (story_id, title, description, status, estimated_hours, order_index)
					 VALUES ($1, $2, $3, $4, $5, $6)
					 RETURNING id, created_at, updated_at`,
					t.StoryID, t.Title, t.Description, t.Status, t.EstimatedHours, t.OrderIndex,
				).QueryRow(func(row pgx.Row) error {
					return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
				})
			}
		}
	}
	if err := s.db.SendBatch(ctx, taskBatch).Close(); err != nil {
		return fmt.Errorf("insert tasks: %w", err)
	}

	if _, err := s.db.Exec(ctx, `UPDATE projects SET updated_at = now() WHERE id = $1`, p.ID); err != nil {
		return fmt.Errorf("touch project %d: %w", p.ID, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, query string, id int64) (bool, error) {
	var ok bool
	if err := s.db.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}
