package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/ragcypher-go/internal/translator"
)

// Completer adapts an Eino chat model to translator.ChatCompleter so any
// backend this package can build may drive the Completer stage.
type Completer struct {
	// model is the underlying Eino chat model.
	model model.BaseChatModel
	// backend labels the provider in callback run info.
	backend Backend
}

// NewCompleter wraps m. backend is recorded on every callback run so
// traces can be filtered by provider.
func NewCompleter(m model.BaseChatModel, backend Backend) *Completer {
	return &Completer{model: m, backend: backend}
}

// NewCompleterFromConfig builds the chat model for cfg and wraps it.
func NewCompleterFromConfig(ctx context.Context, cfg *Config) (*Completer, error) {
	m, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewCompleter(m, cfg.Backend), nil
}

// Complete sends req through the wrapped model. Eino models return a single
// message, so the result holds at most one choice; a nil message yields none.
func (c *Completer) Complete(ctx context.Context, req translator.ChatRequest) ([]string, error) {
	msgs := make([]*schema.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case translator.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(m.Content))
		case translator.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		default:
			return nil, fmt.Errorf("provider: unsupported message role %q", m.Role)
		}
	}

	opts := []model.Option{}
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}
	// o-series reasoning models reject any temperature other than the default.
	if !isReasoningModel(req.Model) {
		opts = append(opts, model.WithTemperature(float32(req.Temperature)))
	}

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      "ragcypher.complete",
		Type:      string(c.backend),
		Component: components.ComponentOfChatModel,
	})

	resp, err := c.model.Generate(ctx, msgs, opts...)
	if err != nil {
		return nil, fmt.Errorf("provider: %s generate: %w", c.backend, err)
	}
	if resp == nil {
		return nil, nil
	}
	return []string{resp.Content}, nil
}

// isReasoningModel reports whether name refers to an OpenAI o-series or
// codex-class reasoning model. Matching is case-insensitive and by prefix.
func isReasoningModel(name string) bool {
	n := strings.ToLower(name)
	for _, p := range []string{"o1", "o3", "o4", "codex"} {
		if strings.HasPrefix(n, p) {
			return true
		}
	}
	return false
}
