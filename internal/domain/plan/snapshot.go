package plan

import (
	"embed"
	"slices"
	"strings"
	"text/template"
)

//go:embed templates/snapshot.tmpl
var templateFS embed.FS

var snapshotTmpl = template.Must(
	template.New("").Funcs(template.FuncMap{
		"inc":     func(i int) int { return i + 1 },
		"deref":   func(p *int) int { return *p },
		"present": func(s string) bool { return strings.TrimSpace(s) != "" },
	}).ParseFS(templateFS, "templates/snapshot.tmpl"),
)

// RenderSnapshot renders the project tree as an indented outline for use as
// model context. Siblings are sorted by order index with unindexed entries
// last; empty levels are rendered explicitly.
func RenderSnapshot(p *Project) string {
	var b strings.Builder
	// The template only reads fields of an in-memory value.
	_ = snapshotTmpl.ExecuteTemplate(&b, "snapshot", sortedCopy(p))
	return b.String()
}

func sortedCopy(p *Project) Project {
	out := *p
	out.Epics = slices.Clone(p.Epics)
	slices.SortStableFunc(out.Epics, func(a, b Epic) int { return compareIndex(a.OrderIndex, b.OrderIndex) })
	for i := range out.Epics {
		e := &out.Epics[i]
		e.Stories = slices.Clone(e.Stories)
		slices.SortStableFunc(e.Stories, func(a, b Story) int { return compareIndex(a.OrderIndex, b.OrderIndex) })
		for j := range e.Stories {
			s := &e.Stories[j]
			s.Tasks = slices.Clone(s.Tasks)
			slices.SortStableFunc(s.Tasks, func(a, b Task) int { return compareIndex(a.OrderIndex, b.OrderIndex) })
		}
	}
	return out
}

// compareIndex orders nil after any value.
func compareIndex(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return *a - *b
	}
}
