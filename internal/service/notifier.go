package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/PlanForge/internal/adapter/ws"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/broadcast"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
)

// wsEventTypes maps queue subjects to the WebSocket event names clients see.
var wsEventTypes = map[string]string{
	messagequeue.SubjectPlanReplaced:  ws.EventPlanReplaced,
	messagequeue.SubjectPlanReordered: ws.EventPlanReordered,
	messagequeue.SubjectChatMessage:   ws.EventChatMessage,
}

// Notifier publishes domain events after their transaction has committed.
// With a queue, events go to JetStream and reach WebSocket clients through
// the relay; without one they are broadcast directly. A nil *Notifier
// drops every event.
type Notifier struct {
	queue messagequeue.Queue
	hub   broadcast.Broadcaster
}

// NewNotifier creates a Notifier. Either sink may be a nil interface, in
// which case that sink is skipped. A typed nil pointer wrapped in hub is not
// nil and will be called.
func NewNotifier(queue messagequeue.Queue, hub broadcast.Broadcaster) *Notifier {
	return &Notifier{queue: queue, hub: hub}
}

// PlanReplaced announces a completed plan extraction.
func (n *Notifier) PlanReplaced(ctx context.Context, p *plan.Project) {
	epics, stories, tasks := p.Counts()
	emit(ctx, n, messagequeue.SubjectPlanReplaced, p.ID, messagequeue.PlanReplacedPayload{
		Epics: epics, Stories: stories, Tasks: tasks,
	})
}

// PlanReordered announces a reorder of the kind's siblings under parentID.
func (n *Notifier) PlanReordered(ctx context.Context, projectID int64, kind plan.Kind, parentID int64) {
	emit(ctx, n, messagequeue.SubjectPlanReordered, projectID, messagequeue.PlanReorderedPayload{
		Kind: string(kind), ParentID: parentID,
	})
}

// ChatMessage announces a completed chat turn.
func (n *Notifier) ChatMessage(ctx context.Context, projectID, conversationID, messageID int64) {
	emit(ctx, n, messagequeue.SubjectChatMessage, projectID, messagequeue.ChatMessagePayload{
		ConversationID: conversationID, MessageID: messageID,
	})
}

func emit[T any](ctx context.Context, n *Notifier, subject string, projectID int64, data T) {
	if n == nil {
		return
	}
	ev := messagequeue.Event[T]{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	if n.queue != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			err = n.queue.Publish(ctx, subject, payload)
		}
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "event publish failed, broadcasting locally", "subject", subject, "error", err)
	}
	if n.hub != nil {
		n.hub.BroadcastEvent(ctx, wsEventTypes[subject], ev)
	}
}

// StartRelay subscribes to every event subject and forwards the events to
// the local WebSocket hub. The returned function stops all subscriptions.
func (n *Notifier) StartRelay(ctx context.Context) (func(), error) {
	if n == nil || n.queue == nil || n.hub == nil {
		return func() {}, nil
	}

	var stops []func()
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}
	for subject, eventType := range wsEventTypes {
		stop, err := n.queue.Subscribe(ctx, subject, func(ctx context.Context, _ string, data []byte) error {
			var ev messagequeue.Event[json.RawMessage]
			if err := json.Unmarshal(data, &ev); err != nil {
				return fmt.Errorf("decode %s event: %w", subject, err)
			}
			n.hub.BroadcastEvent(ctx, eventType, ev)
			return nil
		})
		if err != nil {
			stopAll()
			return nil, fmt.Errorf("relay %s: %w", subject, err)
		}
		stops = append(stops, stop)
	}
	return stopAll, nil
}
