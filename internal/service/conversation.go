package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	pfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/conversation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/domain/prompt"
	"github.com/Strob0t/PlanForge/internal/port/database"
)

// Invoker is the model capability used by AIService. *AssistantGateway
// implements it.
type Invoker interface {
	Invoke(ctx context.Context, messages []prompt.Message) (string, error)
}

// AIService runs chat turns and plan extraction. Each operation is one
// transaction; events are sent only after it commits.
type AIService struct {
	store     database.Store
	convs     ConversationContext
	assistant Invoker
	prompts   *PromptLoader
	notifier  *Notifier
	metrics   *pfotel.Metrics
	window    int
}

// NewAIService creates an AIService. notifier and metrics may be nil.
func NewAIService(store database.Store, assistant Invoker, prompts *PromptLoader, notifier *Notifier, metrics *pfotel.Metrics, window int) *AIService {
	if window <= 0 {
		window = conversation.DefaultWindow
	}
	return &AIService{
		store:     store,
		assistant: assistant,
		prompts:   prompts,
		notifier:  notifier,
		metrics:   metrics,
		window:    window,
	}
}

// Chat sends one user message to the assistant with the current plan and
// the recent history, and stores both sides of the exchange. If the
// assistant fails nothing is stored, including a newly created
// conversation.
func (s *AIService) Chat(ctx context.Context, projectID int64, req conversation.ChatRequest) (resp *conversation.ChatResponse, err error) {
	ctx, span := pfotel.StartChatSpan(ctx, projectID)
	defer func() {
		s.metrics.RecordChat(ctx, err)
		pfotel.EndSpan(span, err)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := s.prompts.Load(ctx, PromptChat)
	if err != nil {
		return nil, err
	}

	var reply *conversation.Message
	err = s.store.InTx(ctx, func(tx database.Store) error {
		project, err := tx.GetProjectTree(ctx, projectID)
		if err != nil {
			return err
		}
		conv, err := s.convs.Resolve(ctx, tx, projectID, req.ConversationID)
		if err != nil {
			return err
		}
		history, err := s.convs.RecentWindow(ctx, tx, conv.ID, s.window)
		if err != nil {
			return err
		}
		if _, err := s.convs.Append(ctx, tx, conv, conversation.RoleUser, req.Message); err != nil {
			return err
		}

		messages := prompt.ForChat(tmpl, plan.RenderSnapshot(project), history, req.Message)
		answer, err := s.assistant.Invoke(ctx, messages)
		if err != nil {
			return err
		}

		reply, err = s.convs.Append(ctx, tx, conv, conversation.RoleAssistant, answer)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "chat turn failed", "project_id", projectID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "chat turn completed", "project_id", projectID, "conversation_id", reply.ConversationID)
	s.notifier.ChatMessage(ctx, projectID, reply.ConversationID, reply.ID)
	return &conversation.ChatResponse{
		ConversationID:   reply.ConversationID,
		UserMessage:      req.Message,
		AssistantMessage: reply.Content,
	}, nil
}

// ExtractPlan asks the assistant for a plan covering every conversation of
// the project and replaces the project's epics, stories and tasks with it.
// The existing plan is untouched unless the whole operation succeeds.
func (s *AIService) ExtractPlan(ctx context.Context, projectID int64) (result *plan.Project, err error) {
	ctx, span := pfotel.StartExtractionSpan(ctx, projectID)
	started := time.Now()
	defer func() {
		items := 0
		if result != nil {
			e, st, t := result.Counts()
			items = e + st + t
		}
		s.metrics.RecordExtraction(ctx, started, items, err)
		pfotel.EndSpan(span, err)
	}()

	tmpl, err := s.prompts.Load(ctx, PromptExtraction)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx database.Store) error {
		project, err := tx.GetProjectTree(ctx, projectID)
		if err != nil {
			return err
		}
		convs, err := s.convs.History(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			return fmt.Errorf("project %d has no conversations: %w", projectID, domain.ErrGeneration)
		}
		history := prompt.RenderHistory(convs)
		if history == "" {
			return fmt.Errorf("conversations of project %d have no messages: %w", projectID, domain.ErrGeneration)
		}

		raw, err := s.assistant.Invoke(ctx, prompt.ForExtraction(tmpl, plan.RenderSnapshot(project), history))
		if err != nil {
			return err
		}
		doc, err := plan.Extract(raw)
		if err != nil {
			return err
		}

		plan.Apply(project, doc)
		if err := tx.ReplacePlan(ctx, project); err != nil {
			return fmt.Errorf("replace plan: %w", err)
		}
		result, err = tx.GetProjectTree(ctx, projectID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "plan extraction failed", "project_id", projectID, "error", err)
		return nil, err
	}

	epics, stories, tasks := result.Counts()
	slog.InfoContext(ctx, "plan extracted", "project_id", projectID, "epics", epics, "stories", stories, "tasks", tasks)
	s.notifier.PlanReplaced(ctx, result)
	return result, nil
}

// Conversations returns the project's conversations newest first, each
// with its messages oldest first.
func (s *AIService) Conversations(ctx context.Context, projectID int64) ([]conversation.Conversation, error) {
	ok, err := s.store.ProjectExists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project %d: %w", projectID, domain.ErrNotFound)
	}
	convs, err := s.convs.History(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(convs)
	return convs, nil
}
