package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain"
)

// Document is the plan payload a model returns during extraction. Every
// field below the top-level epics array is optional.
type Document struct {
	Epics []EpicDoc
}

// EpicDoc is one element of Document.Epics.
type EpicDoc struct {
	Title       OptText           `json:"title"`
	Description OptText           `json:"description"`
	Priority    OptText           `json:"priority"`
	UserStories OptList[StoryDoc] `json:"userStories"`
}

// StoryDoc is one element of EpicDoc.UserStories.
type StoryDoc struct {
	Title    OptText          `json:"title"`
	AsA      OptText          `json:"asA"`
	IWant    OptText          `json:"iWant"`
	SoThat   OptText          `json:"soThat"`
	Priority OptText          `json:"priority"`
	Tasks    OptList[TaskDoc] `json:"tasks"`
}

// TaskDoc is one element of StoryDoc.Tasks.
type TaskDoc struct {
	Title          OptText  `json:"title"`
	Description    OptText  `json:"description"`
	EstimatedHours OptHours `json:"estimatedHours"`
}

// UnmarshalJSON implements json.Unmarshaler with exact key matching.
func (e *EpicDoc) UnmarshalJSON(b []byte) error {
	*e = EpicDoc{}
	return fields{
		"title":       &e.Title,
		"description": &e.Description,
		"priority":    &e.Priority,
		"userStories": &e.UserStories,
	}.decode(b)
}

// UnmarshalJSON implements json.Unmarshaler with exact key matching.
func (s *StoryDoc) UnmarshalJSON(b []byte) error {
	*s = StoryDoc{}
	return fields{
		"title":    &s.Title,
		"asA":      &s.AsA,
		"iWant":    &s.IWant,
		"soThat":   &s.SoThat,
		"priority": &s.Priority,
		"tasks":    &s.Tasks,
	}.decode(b)
}

// UnmarshalJSON implements json.Unmarshaler with exact key matching.
func (t *TaskDoc) UnmarshalJSON(b []byte) error {
	*t = TaskDoc{}
	return fields{
		"title":          &t.Title,
		"description":    &t.Description,
		"estimatedHours": &t.EstimatedHours,
	}.decode(b)
}

// fields binds JSON object keys to the decoders of their fields.
// encoding/json folds key case when filling structs; models sometimes
// shout, and those keys must not count.
type fields map[string]json.Unmarshaler

func (f fields) decode(b []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	for key, dst := range f {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := dst.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	return nil
}

// Extract locates the JSON object embedded in raw model output and decodes
// it into a Document. Only structural problems fail: no braces, malformed
// JSON, or a missing epics array. Keys match exactly; unknown or
// differently cased keys and wrong-typed optional fields are ignored.
func Extract(raw string) (*Document, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end < start {
		return nil, fmt.Errorf("model response did not contain valid JSON: %w", domain.ErrGeneration)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &top); err != nil {
		return nil, fmt.Errorf("parse model response: %w: %w", err, domain.ErrGeneration)
	}

	epics, ok := top["epics"]
	if !ok || !isArray(epics) {
		return nil, fmt.Errorf("model response did not include epics array: %w", domain.ErrGeneration)
	}

	var list OptList[EpicDoc]
	if err := json.Unmarshal(epics, &list); err != nil {
		return nil, fmt.Errorf("parse epics: %w: %w", err, domain.ErrGeneration)
	}
	return &Document{Epics: list}, nil
}

// OptText is an optional string. Numbers and booleans are kept as their
// literal text; null, objects and arrays decode as absent. NUL characters
// are dropped since PostgreSQL text columns reject them.
type OptText struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (t *OptText) UnmarshalJSON(b []byte) error {
	*t = OptText{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if json.Unmarshal(b, &s) == nil {
			*t = OptText{Value: strings.ReplaceAll(s, "\x00", ""), Valid: true}
		}
	case 'n', '{', '[':
	default:
		*t = OptText{Value: string(b), Valid: true}
	}
	return nil
}

// Or returns the value when it is present and not blank, else fallback.
func (t OptText) Or(fallback string) string {
	if !t.Valid || strings.TrimSpace(t.Value) == "" {
		return fallback
	}
	return t.Value
}

// OptHours is an optional estimate. Integral numbers and numeric strings
// are accepted; fractional numbers are truncated.
type OptHours struct {
	Value int
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (h *OptHours) UnmarshalJSON(b []byte) error {
	*h = OptHours{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	text := string(b)
	if b[0] == '"' {
		if json.Unmarshal(b, &text) != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	*h = OptHours{Value: int(f), Valid: true}
	return nil
}

// OrDefault returns the value when it is at least 1, else def.
func (h OptHours) OrDefault(def int) int {
	if !h.Valid || h.Value < 1 {
		return def
	}
	return h.Value
}

// OptList is an optional array. Anything other than an array decodes as
// empty, and elements that are not objects decode as zero values.
type OptList[T any] []T

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (l *OptList[T]) UnmarshalJSON(b []byte) error {
	*l = nil
	if !isArray(b) {
		return nil
	}
	var raw []json.RawMessage
	if json.Unmarshal(b, &raw) != nil {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, elem := range raw {
		var v T
		if isObject(elem) {
			// Field decoders never fail, so an error here means the
			// element itself was unusable; keep the zero value.
			_ = json.Unmarshal(elem, &v)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

func isArray(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}
