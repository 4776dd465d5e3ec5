package messagequeue

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		errMsg  string
	}{
		{
			name:    "plan replaced",
			subject: SubjectPlanReplaced,
			data:    `{"id":"e1","projectId":3,"occurredAt":"2026-01-02T03:04:05Z","data":{"epics":1,"stories":2,"tasks":3}}`,
		},
		{
			name:    "plan reordered",
			subject: SubjectPlanReordered,
			data:    `{"id":"e2","projectId":3,"data":{"kind":"story","parentId":9}}`,
		},
		{
			name:    "chat message",
			subject: SubjectChatMessage,
			data:    `{"id":"e3","projectId":3,"data":{"conversationId":4,"messageId":12}}`,
		},
		{
			name:    "unknown subject accepts any JSON",
			subject: "plans.future",
			data:    `{"anything":true}`,
		},
		{
			name:    "invalid JSON",
			subject: SubjectPlanReplaced,
			data:    `{not json`,
			errMsg:  "invalid JSON",
		},
		{
			name:    "wrong field type",
			subject: SubjectPlanReplaced,
			data:    `{"id":"e1","projectId":3,"data":{"epics":"one"}}`,
			errMsg:  "schema validation failed",
		},
		{
			name:    "missing id",
			subject: SubjectChatMessage,
			data:    `{"projectId":3,"data":{}}`,
			errMsg:  "missing id",
		},
		{
			name:    "missing project",
			subject: SubjectChatMessage,
			data:    `{"id":"e3","data":{}}`,
			errMsg:  "missing projectId",
		},
		{
			name:    "reorder without kind",
			subject: SubjectPlanReordered,
			data:    `{"id":"e2","projectId":3,"data":{"parentId":9}}`,
			errMsg:  "missing kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q does not contain %q", err, tt.errMsg)
			}
		})
	}
}
