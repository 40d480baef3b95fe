package translator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/54b3r/ragcypher-go/internal/budget"
)

// Option customises a Translator at construction time.
type Option func(*Translator)

// WithLogger sets the logger used to record successful translations.
// Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(t *Translator) {
		if log != nil {
			t.log = log
		}
	}
}

// WithPromptBudget sets the estimated token count above which an oversized
// prompt is logged as a warning. Zero disables the check. Defaults to
// [budget.DefaultMaxPromptTokens].
func WithPromptBudget(maxTokens int) Option {
	return func(t *Translator) {
		t.maxPromptTokens = maxTokens
	}
}

// Translator turns sentinel-prefixed natural language into Cypher using
// retrieval-augmented generation. It keeps no per-call state and is safe for
// concurrent use as long as its Embedder and ChatCompleter are.
type Translator struct {
	// cfg is the validated, immutable configuration.
	cfg Config
	// embedder produces the query embedding.
	embedder Embedder
	// completer produces the final Cypher text.
	completer ChatCompleter
	// log records successful results.
	log *slog.Logger
	// maxPromptTokens is the warning threshold for the assembled prompt.
	maxPromptTokens int
}

// New validates cfg and constructs a Translator backed by the given services.
func New(cfg Config, embedder Embedder, completer ChatCompleter, opts ...Option) (*Translator, error) {
	if embedder == nil {
		return nil, fmt.Errorf("translator: embedder must not be nil")
	}
	if completer == nil {
		return nil, fmt.Errorf("translator: chat completer must not be nil")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Translator{
		cfg:       cfg,
		embedder:  embedder,
		completer: completer,
		log:       slog.Default(),

		maxPromptTokens: budget.DefaultMaxPromptTokens,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config returns the resolved configuration.
func (t *Translator) Config() Config {
	return t.cfg
}

// Translate converts input into a Cypher statement. Inputs without [Prefix]
// are returned unchanged and no service is contacted. For addressed inputs
// searcher must be non-nil; it is used for exactly one similarity search and
// is not closed. Only a nil interface is reported as ErrPrecondition; a typed
// nil pointer such as (*graph.Neo4jSearcher)(nil) is the caller's bug.
func (t *Translator) Translate(ctx context.Context, input string, searcher SimilaritySearcher) (string, error) {
	query, addressed := Gate(input)
	if !addressed {
		return input, nil
	}
	if searcher == nil {
		return "", ErrPrecondition
	}

	contextBlob, err := t.retrieve(ctx, query, searcher)
	if err != nil {
		return "", err
	}

	result, err := t.complete(ctx, BuildPrompt(contextBlob, query))
	if err != nil {
		return "", err
	}

	t.log.Info("translator: cypher generated", slog.String("cypher", result))
	return result, nil
}

// retrieve embeds query, runs the similarity search, and joins the matched
// documents into the context blob. Zero matches yield an empty blob.
func (t *Translator) retrieve(ctx context.Context, query string, searcher SimilaritySearcher) (string, error) {
	vectors, err := t.embedder.Embed(ctx, EmbeddingRequest{
		Model: t.cfg.EmbeddingModel,
		Input: []string{query},
	})
	if err != nil {
		return "", fmt.Errorf("translator: embedding query failed: %w", err)
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("%w: expected 1 embedding for 1 input, got %d", ErrProtocolViolation, len(vectors))
	}

	contents, err := searcher.Search(ctx, t.cfg.IndexName, vectors[0])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamQuery, err)
	}
	return joinDocuments(contents), nil
}

// complete submits the prompt and returns the first choice.
func (t *Translator) complete(ctx context.Context, prompt Prompt) (string, error) {
	if est, over := budget.Check(prompt.turns(), t.maxPromptTokens); over {
		t.log.Warn("translator: prompt exceeds token budget",
			slog.Int("estimated_tokens", est),
			slog.Int("budget", t.maxPromptTokens),
		)
	}

	choices, err := t.completer.Complete(ctx, ChatRequest{
		Model:       t.cfg.ChatModel,
		Temperature: t.cfg.ChatTemperature,
		Messages:    prompt.Messages(),
	})
	if err != nil {
		return "", fmt.Errorf("translator: chat completion failed: %w", err)
	}
	if len(choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", ErrProtocolViolation)
	}
	return choices[0], nil
}
