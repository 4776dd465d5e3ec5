package plan

const (
	untitledEpic  = "Untitled Epic"
	untitledStory = "Untitled Story"
	untitledTask  = "Untitled Task"

	// DefaultEstimatedHours is used when a task has no usable estimate.
	DefaultEstimatedHours = 4
)

// Apply discards the project's current epics and rebuilds them from doc.
// Every entity gets status TODO and an order index equal to its position
// among its siblings. Persisting the result is the caller's job and must
// happen in the same transaction that cleared the old plan.
func Apply(p *Project, doc *Document) {
	p.Epics = make([]Epic, 0, len(doc.Epics))
	for i, ed := range doc.Epics {
		epic := Epic{
			ProjectID:   p.ID,
			Title:       ed.Title.Or(untitledEpic),
			Description: ed.Description.Value,
			Priority:    NormalizePriority(ed.Priority.Value),
			Status:      StatusTodo,
			OrderIndex:  IntPtr(i),
			Stories:     make([]Story, 0, len(ed.UserStories)),
		}
		for j, sd := range ed.UserStories {
			epic.Stories = append(epic.Stories, buildStory(sd, j))
		}
		p.Epics = append(p.Epics, epic)
	}
}

func buildStory(sd StoryDoc, idx int) Story {
	story := Story{
		Title:      sd.Title.Or(untitledStory),
		AsA:        sd.AsA.Value,
		IWant:      sd.IWant.Value,
		SoThat:     sd.SoThat.Value,
		Priority:   NormalizePriority(sd.Priority.Value),
		Status:     StatusTodo,
		OrderIndex: IntPtr(idx),
		Tasks:      make([]Task, 0, len(sd.Tasks)),
	}
	for k, td := range sd.Tasks {
		story.Tasks = append(story.Tasks, Task{
			Title:          td.Title.Or(untitledTask),
			Description:    td.Description.Value,
			Status:         StatusTodo,
			EstimatedHours: IntPtr(td.EstimatedHours.OrDefault(DefaultEstimatedHours)),
			OrderIndex:     IntPtr(k),
		})
	}
	return story
}

// Counts returns the number of epics, stories and tasks in the project tree.
func (p *Project) Counts() (epics, stories, tasks int) {
	epics = len(p.Epics)
	for i := range p.Epics {
		stories += len(p.Epics[i].Stories)
		for j := range p.Epics[i].Stories {
			tasks += len(p.Epics[i].Stories[j].Tasks)
		}
	}
	return epics, stories, tasks
}
