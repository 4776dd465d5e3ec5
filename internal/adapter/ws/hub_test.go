package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
)

func TestNewHub(t *testing.T) {
	hub := NewHub("")
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
	if hub.originPatterns != nil {
		t.Errorf("expected no origin patterns, got %v", hub.originPatterns)
	}
	if got := NewHub("http://localhost:5173").originPatterns; len(got) != 1 {
		t.Errorf("expected one origin pattern, got %v", got)
	}
}

func TestHubBroadcastEventNoConnections(t *testing.T) {
	hub := NewHub("")

	// BroadcastEvent with no connections should not panic.
	hub.BroadcastEvent(context.Background(), EventPlanReplaced, messagequeue.Event[messagequeue.PlanReplacedPayload]{
		ID: "e1", ProjectID: 1,
	})
}

func TestHubBroadcastEventMarshalError(t *testing.T) {
	hub := NewHub("")

	// A channel cannot be marshaled to JSON; the hub logs instead of panicking.
	hub.BroadcastEvent(context.Background(), "bad", make(chan int))
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub("")

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.remove(&conn{cancel: cancel, projectID: 3})
}

func TestHandleWSRejectsBadProjectID(t *testing.T) {
	hub := NewHub("")
	rec := httptest.NewRecorder()
	hub.HandleWS(rec, httptest.NewRequest("GET", "/ws?projectId=abc", nil))
	if rec.Code != 400 {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func dial(t *testing.T, srvURL, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srvURL, "http")+"/ws"+query, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func waitForConns(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.ConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, got %d", n, hub.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubDeliversProjectScopedEvents(t *testing.T) {
	hub := NewHub("")
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()
	defer hub.Close()

	mine := dial(t, srv.URL, "?projectId=1")
	other := dial(t, srv.URL, "?projectId=2")
	waitForConns(t, hub, 2)

	hub.BroadcastEvent(context.Background(), EventPlanReplaced, messagequeue.Event[messagequeue.PlanReplacedPayload]{
		ID: "e1", ProjectID: 1, Data: messagequeue.PlanReplacedPayload{Epics: 2},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := mine.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != EventPlanReplaced || !strings.Contains(string(msg.Payload), `"epics":2`) {
		t.Errorf("unexpected message: %s", data)
	}

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer shortCancel()
	if _, _, err := other.Read(shortCtx); err == nil {
		t.Error("client of another project received the event")
	}
}
