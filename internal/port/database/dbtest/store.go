// Package dbtest provides an in-memory database.Store for tests. It mirrors
// the ordering, cascade and not-found behaviour of the PostgreSQL adapter.
package dbtest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/conversation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/database"
)

type state struct {
	nextID        int64
	projects      map[int64]plan.Project
	epics         map[int64]plan.Epic
	stories       map[int64]plan.Story
	tasks         map[int64]plan.Task
	conversations map[int64]conversation.Conversation
	messages      map[int64]conversation.Message
}

func (s *state) clone() *state {
	c := *s
	c.projects = cloneMap(s.projects)
	c.epics = cloneMap(s.epics)
	c.stories = cloneMap(s.stories)
	c.tasks = cloneMap(s.tasks)
	c.conversations = cloneMap(s.conversations)
	c.messages = cloneMap(s.messages)
	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is an in-memory database.Store. The zero value is not usable; call
// NewStore.
type Store struct {
	mu    sync.Mutex
	st    *state
	clock time.Time

	// Fail, when set, is consulted at the start of every mutating call with
	// the method name. A non-nil result is returned as the call's error.
	Fail func(op string) error
}

var _ database.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		st: &state{
			nextID:        1,
			projects:      map[int64]plan.Project{},
			epics:         map[int64]plan.Epic{},
			stories:       map[int64]plan.Story{},
			tasks:         map[int64]plan.Task{},
			conversations: map[int64]conversation.Conversation{},
			messages:      map[int64]conversation.Message{},
		},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// id and now must be called with mu held. Timestamps advance by one
// millisecond per call so creation order is always observable.
func (s *Store) id() int64 {
	id := s.st.nextID
	s.st.nextID++
	return id
}

func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

func notFound(format string, args ...any) error {
	return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", domain.ErrNotFound)
}

// InTx snapshots the whole store and restores the snapshot if fn fails.
// Concurrent callers outside the transaction see its uncommitted writes.
func (s *Store) InTx(_ context.Context, fn func(database.Store) error) error {
	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// --- Projects ---

func (s *Store) ListProjects(_ context.Context) ([]plan.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]plan.Project, 0, len(s.st.projects))
	for _, p := range s.st.projects {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b plan.Project) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (s *Store) GetProject(_ context.Context, id int64) (*plan.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.projects[id]
	if !ok {
		return nil, notFound("get project %d", id)
	}
	return &p, nil
}

func (s *Store) GetProjectTree(ctx context.Context, id int64) (*plan.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Epics = s.epicsOf(id)
	for i := range p.Epics {
		p.Epics[i].Stories = s.storiesOf(p.Epics[i].ID)
		for j := range p.Epics[i].Stories {
			p.Epics[i].Stories[j].Tasks = s.tasksOf(p.Epics[i].Stories[j].ID)
		}
	}
	return p, nil
}

func (s *Store) CreateProject(_ context.Context, req plan.CreateProjectRequest) (*plan.Project, error) {
	if err := s.fail("CreateProject"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := plan.Project{ID: s.id(), Name: req.Name, Description: req.Description, CreatedAt: now, UpdatedAt: now}
	s.st.projects[p.ID] = p
	return &p, nil
}

func (s *Store) UpdateProject(_ context.Context, id int64, req plan.UpdateProjectRequest) (*plan.Project, error) {
	if err := s.fail("UpdateProject"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.projects[id]
	if !ok {
		return nil, notFound("update project %d", id)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	p.UpdatedAt = s.now()
	s.st.projects[id] = p
	return &p, nil
}

func (s *Store) DeleteProject(_ context.Context, id int64) error {
	if err := s.fail("DeleteProject"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.projects[id]; !ok {
		return notFound("delete project %d", id)
	}
	delete(s.st.projects, id)
	s.clearEpics(id)
	for cid, c := range s.st.conversations {
		if c.ProjectID == id {
			delete(s.st.conversations, cid)
			for mid, m := range s.st.messages {
				if m.ConversationID == cid {
					delete(s.st.messages, mid)
				}
			}
		}
	}
	return nil
}

func (s *Store) ProjectExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.projects[id]
	return ok, nil
}

func (s *Store) ReplacePlan(_ context.Context, p *plan.Project) error {
	if err := s.fail("ReplacePlan"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.projects[p.ID]; !ok {
		return notFound("replace plan of project %d", p.ID)
	}
	s.clearEpics(p.ID)
	for i := range p.Epics {
		e := &p.Epics[i]
		now := s.now()
		e.ID, e.ProjectID, e.CreatedAt, e.UpdatedAt = s.id(), p.ID, now, now
		stored := *e
		stored.Stories = nil
		s.st.epics[e.ID] = stored
		for j := range e.Stories {
			st := &e.Stories[j]
			st.ID, st.EpicID, st.CreatedAt, st.UpdatedAt = s.id(), e.ID, now, now
			storedStory := *st
			storedStory.Tasks = nil
			s.st.stories[st.ID] = storedStory
			for k := range st.Tasks {
				t := &st.Tasks[k]
				t.ID, t.StoryID, t.CreatedAt, t.UpdatedAt = s.id(), st.ID, now, now
				s.st.tasks[t.ID] = *t
			}
		}
	}
	return nil
}

func (s *Store) clearEpics(projectID int64) {
	for id, e := range s.st.epics {
		if e.ProjectID == projectID {
			s.deleteEpicTree(id)
		}
	}
}

func (s *Store) deleteEpicTree(id int64) {
	delete(s.st.epics, id)
	for sid, st := range s.st.stories {
		if st.EpicID == id {
			s.deleteStoryTree(sid)
		}
	}
}

func (s *Store) deleteStoryTree(id int64) {
	delete(s.st.stories, id)
	for tid, t := range s.st.tasks {
		if t.StoryID == id {
			delete(s.st.tasks, tid)
		}
	}
}

// --- Sorting helpers (mu held) ---

func compareOrder(a, b *int, idA, idB int64) int {
	switch {
	case a == nil && b == nil:
		return cmp.Compare(idA, idB)
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if c := cmp.Compare(*a, *b); c != 0 {
		return c
	}
	return cmp.Compare(idA, idB)
}

func (s *Store) epicsOf(projectID int64) []plan.Epic {
	out := []plan.Epic{}
	for _, e := range s.st.epics {
		if e.ProjectID == projectID {
			e.Stories = []plan.Story{}
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b plan.Epic) int { return compareOrder(a.OrderIndex, b.OrderIndex, a.ID, b.ID) })
	return out
}

func (s *Store) storiesOf(epicID int64) []plan.Story {
	out := []plan.Story{}
	for _, st := range s.st.stories {
		if st.EpicID == epicID {
			st.Tasks = []plan.Task{}
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b plan.Story) int { return compareOrder(a.OrderIndex, b.OrderIndex, a.ID, b.ID) })
	return out
}

func (s *Store) tasksOf(storyID int64) []plan.Task {
	out := []plan.Task{}
	for _, t := range s.st.tasks {
		if t.StoryID == storyID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b plan.Task) int { return compareOrder(a.OrderIndex, b.OrderIndex, a.ID, b.ID) })
	return out
}

// --- Epics ---

func (s *Store) ListEpics(_ context.Context, projectID int64) ([]plan.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epicsOf(projectID), nil
}

func (s *Store) GetEpic(_ context.Context, id int64) (*plan.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.epics[id]
	if !ok {
		return nil, notFound("get epic %d", id)
	}
	e.Stories = []plan.Story{}
	return &e, nil
}

func (s *Store) CreateEpic(_ context.Context, projectID int64, req plan.EpicRequest) (*plan.Epic, error) {
	if err := s.fail("CreateEpic"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.projects[projectID]; !ok {
		return nil, notFound("create epic in project %d", projectID)
	}
	now := s.now()
	e := plan.Epic{
		ID: s.id(), ProjectID: projectID, Title: req.Title, Description: req.Description,
		Priority: req.Priority, Status: req.Status, OrderIndex: plan.IntPtr(len(s.epicsOf(projectID))),
		Stories: []plan.Story{}, CreatedAt: now, UpdatedAt: now,
	}
	s.st.epics[e.ID] = e
	return &e, nil
}

func (s *Store) UpdateEpic(_ context.Context, id int64, req plan.EpicRequest) (*plan.Epic, error) {
	if err := s.fail("UpdateEpic"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.epics[id]
	if !ok {
		return nil, notFound("update epic %d", id)
	}
	e.Title, e.Description, e.Priority, e.Status, e.UpdatedAt = req.Title, req.Description, req.Priority, req.Status, s.now()
	s.st.epics[id] = e
	e.Stories = []plan.Story{}
	return &e, nil
}

func (s *Store) DeleteEpic(_ context.Context, id int64) error {
	if err := s.fail("DeleteEpic"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.epics[id]
	if !ok {
		return notFound("delete epic %d", id)
	}
	s.deleteEpicTree(id)
	for sid, sib := range s.st.epics {
		if sib.ProjectID == e.ProjectID && shiftDown(sib.OrderIndex, e.OrderIndex) {
			sib.OrderIndex = plan.IntPtr(*sib.OrderIndex - 1)
			s.st.epics[sid] = sib
		}
	}
	return nil
}

func (s *Store) EpicExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.epics[id]
	return ok, nil
}

func shiftDown(sibling, removed *int) bool {
	return sibling != nil && removed != nil && *sibling > *removed
}

// --- Stories ---

func (s *Store) ListStories(_ context.Context, epicID int64) ([]plan.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storiesOf(epicID), nil
}

func (s *Store) GetStory(_ context.Context, id int64) (*plan.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.st.stories[id]
	if !ok {
		return nil, notFound("get story %d", id)
	}
	st.Tasks = []plan.Task{}
	return &st, nil
}

func (s *Store) CreateStory(_ context.Context, epicID int64, req plan.StoryRequest) (*plan.Story, error) {
	if err := s.fail("CreateStory"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.epics[epicID]; !ok {
		return nil, notFound("create story in epic %d", epicID)
	}
	now := s.now()
	st := plan.Story{
		ID: s.id(), EpicID: epicID, Title: req.Title, AsA: req.AsA, IWant: req.IWant, SoThat: req.SoThat,
		Priority: req.Priority, Status: req.Status, OrderIndex: plan.IntPtr(len(s.storiesOf(epicID))),
		Tasks: []plan.Task{}, CreatedAt: now, UpdatedAt: now,
	}
	s.st.stories[st.ID] = st
	return &st, nil
}

func (s *Store) UpdateStory(_ context.Context, id int64, req plan.StoryRequest) (*plan.Story, error) {
	if err := s.fail("UpdateStory"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.st.stories[id]
	if !ok {
		return nil, notFound("update story %d", id)
	}
	st.Title, st.AsA, st.IWant, st.SoThat = req.Title, req.AsA, req.IWant, req.SoThat
	st.Priority, st.Status, st.UpdatedAt = req.Priority, req.Status, s.now()
	s.st.stories[id] = st
	st.Tasks = []plan.Task{}
	return &st, nil
}

func (s *Store) DeleteStory(_ context.Context, id int64) error {
	if err := s.fail("DeleteStory"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.st.stories[id]
	if !ok {
		return notFound("delete story %d", id)
	}
	s.deleteStoryTree(id)
	for sid, sib := range s.st.stories {
		if sib.EpicID == st.EpicID && shiftDown(sib.OrderIndex, st.OrderIndex) {
			sib.OrderIndex = plan.IntPtr(*sib.OrderIndex - 1)
			s.st.stories[sid] = sib
		}
	}
	return nil
}

func (s *Store) StoryExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.stories[id]
	return ok, nil
}

// --- Tasks ---

func (s *Store) ListTasks(_ context.Context, storyID int64) ([]plan.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksOf(storyID), nil
}

func (s *Store) CreateTask(_ context.Context, storyID int64, req plan.TaskRequest) (*plan.Task, error) {
	if err := s.fail("CreateTask"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.stories[storyID]; !ok {
		return nil, notFound("create task in story %d", storyID)
	}
	now := s.now()
	t := plan.Task{
		ID: s.id(), StoryID: storyID, Title: req.Title, Description: req.Description, Status: req.Status,
		EstimatedHours: req.EstimatedHours, OrderIndex: plan.IntPtr(len(s.tasksOf(storyID))),
		CreatedAt: now, UpdatedAt: now,
	}
	s.st.tasks[t.ID] = t
	return &t, nil
}

func (s *Store) UpdateTask(_ context.Context, id int64, req plan.TaskRequest) (*plan.Task, error) {
	if err := s.fail("UpdateTask"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.tasks[id]
	if !ok {
		return nil, notFound("update task %d", id)
	}
	t.Title, t.Description, t.Status, t.EstimatedHours, t.UpdatedAt = req.Title, req.Description, req.Status, req.EstimatedHours, s.now()
	s.st.tasks[id] = t
	return &t, nil
}

func (s *Store) DeleteTask(_ context.Context, id int64) error {
	if err := s.fail("DeleteTask"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.tasks[id]
	if !ok {
		return notFound("delete task %d", id)
	}
	delete(s.st.tasks, id)
	for tid, sib := range s.st.tasks {
		if sib.StoryID == t.StoryID && shiftDown(sib.OrderIndex, t.OrderIndex) {
			sib.OrderIndex = plan.IntPtr(*sib.OrderIndex - 1)
			s.st.tasks[tid] = sib
		}
	}
	return nil
}

// --- Ordering ---

func (s *Store) UpdateOrderIndexes(_ context.Context, kind plan.Kind, updates []plan.OrderUpdate) error {
	if err := s.fail("UpdateOrderIndexes"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		switch kind {
		case plan.KindEpic:
			e, ok := s.st.epics[u.ID]
			if !ok {
				return notFound("update order of epic %d", u.ID)
			}
			e.OrderIndex = plan.IntPtr(u.OrderIndex)
			s.st.epics[u.ID] = e
		case plan.KindStory:
			st, ok := s.st.stories[u.ID]
			if !ok {
				return notFound("update order of story %d", u.ID)
			}
			st.OrderIndex = plan.IntPtr(u.OrderIndex)
			s.st.stories[u.ID] = st
		case plan.KindTask:
			t, ok := s.st.tasks[u.ID]
			if !ok {
				return notFound("update order of task %d", u.ID)
			}
			t.OrderIndex = plan.IntPtr(u.OrderIndex)
			s.st.tasks[u.ID] = t
		default:
			return fmt.Errorf("update order indexes: unknown kind %q", kind)
		}
	}
	return nil
}

// --- Conversations ---

func (s *Store) CreateConversation(_ context.Context, projectID int64) (*conversation.Conversation, error) {
	if err := s.fail("CreateConversation"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.projects[projectID]; !ok {
		return nil, notFound("create conversation in project %d", projectID)
	}
	c := conversation.Conversation{ID: s.id(), ProjectID: projectID, CreatedAt: s.now()}
	s.st.conversations[c.ID] = c
	return &c, nil
}

func (s *Store) GetConversation(_ context.Context, id int64) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.conversations[id]
	if !ok {
		return nil, notFound("get conversation %d", id)
	}
	return &c, nil
}

func (s *Store) ListConversations(_ context.Context, projectID int64) ([]conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []conversation.Conversation{}
	for _, c := range s.st.conversations {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b conversation.Conversation) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) CreateMessage(_ context.Context, conversationID int64, role conversation.Role, content string) (*conversation.Message, error) {
	if err := s.fail("CreateMessage"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.conversations[conversationID]; !ok {
		return nil, notFound("create message in conversation %d", conversationID)
	}
	m := conversation.Message{ID: s.id(), ConversationID: conversationID, Role: role, Content: content, CreatedAt: s.now()}
	s.st.messages[m.ID] = m
	return &m, nil
}

func (s *Store) messagesOf(conversationID int64) []conversation.Message {
	out := []conversation.Message{}
	for _, m := range s.st.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b conversation.Message) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (s *Store) ListMessages(_ context.Context, conversationID int64) ([]conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesOf(conversationID), nil
}

func (s *Store) ListRecentMessages(_ context.Context, conversationID int64, limit int) ([]conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messagesOf(conversationID)
	slices.Reverse(msgs)
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}
