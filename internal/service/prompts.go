package service

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/domain/prompt"
	"github.com/Strob0t/PlanForge/internal/port/cache"
)

//go:embed templates/chat_system.txt
var defaultChatTemplate string

//go:embed templates/extraction.txt
var defaultExtractionTemplate string

// PromptKind names one of the two prompt templates.
type PromptKind string

const (
	PromptChat       PromptKind = "chat"
	PromptExtraction PromptKind = "extraction"
)

// PromptLoader serves prompt templates. A template configured by path is
// read from disk and kept in the cache for ttl; without a path the built-in
// template is used.
type PromptLoader struct {
	paths map[PromptKind]string
	cache cache.Cache
	ttl   time.Duration
}

// NewPromptLoader creates a loader. c may be nil, in which case files are
// read on every call.
func NewPromptLoader(cfg config.Prompts, c cache.Cache, ttl time.Duration) *PromptLoader {
	return &PromptLoader{
		paths: map[PromptKind]string{
			PromptChat:       cfg.ChatPath,
			PromptExtraction: cfg.ExtractionPath,
		},
		cache: c,
		ttl:   ttl,
	}
}

// Load returns the template text for kind.
func (l *PromptLoader) Load(ctx context.Context, kind PromptKind) (string, error) {
	path := l.paths[kind]
	if path == "" {
		return builtinTemplate(kind)
	}

	key := "prompt:" + path
	if l.cache != nil {
		if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
			return string(data), nil
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return "", fmt.Errorf("load %s prompt template: %w", kind, err)
	}
	if l.cache != nil {
		if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
			slog.WarnContext(ctx, "prompt template cache set failed", "path", path, "error", err)
		}
	}
	return string(data), nil
}

// Check loads every template once and warns about an extraction template
// without the history placeholder, which would send the model no
// conversation at all.
func (l *PromptLoader) Check(ctx context.Context) error {
	for _, kind := range []PromptKind{PromptChat, PromptExtraction} {
		text, err := l.Load(ctx, kind)
		if err != nil {
			return err
		}
		if kind == PromptExtraction && !strings.Contains(text, prompt.HistoryPlaceholder) {
			slog.Warn("extraction template has no history placeholder",
				"path", l.paths[kind], "placeholder", prompt.HistoryPlaceholder)
		}
	}
	return nil
}

func builtinTemplate(kind PromptKind) (string, error) {
	switch kind {
	case PromptChat:
		return defaultChatTemplate, nil
	case PromptExtraction:
		return defaultExtractionTemplate, nil
	default:
		return "", fmt.Errorf("unknown prompt template %q", kind)
	}
}
