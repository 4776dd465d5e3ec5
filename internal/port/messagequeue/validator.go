package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need to be
// valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var (
		id        string
		projectID int64
		err       error
	)
	switch subject {
	case SubjectPlanReplaced:
		id, projectID, err = decode[PlanReplacedPayload](data)
	case SubjectPlanReordered:
		var ev Event[PlanReorderedPayload]
		if err = json.Unmarshal(data, &ev); err == nil && ev.Data.Kind == "" {
			err = errors.New("missing kind")
		}
		id, projectID = ev.ID, ev.ProjectID
	case SubjectChatMessage:
		id, projectID, err = decode[ChatMessagePayload](data)
	default:
		return nil
	}

	if err == nil && id == "" {
		err = errors.New("missing id")
	}
	if err == nil && projectID <= 0 {
		err = errors.New("missing projectId")
	}
	if err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}

func decode[T any](data []byte) (string, int64, error) {
	var ev Event[T]
	err := json.Unmarshal(data, &ev)
	return ev.ID, ev.ProjectID, err
}
