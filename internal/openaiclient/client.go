// Package openaiclient adapts the OpenAI REST API to the translator's
// Embedder and ChatCompleter interfaces. A single Client serves both roles
// and is safe for concurrent use.
package openaiclient

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/54b3r/ragcypher-go/internal/translator"
)

// TokenEnv is the environment variable holding the OpenAI credential.
const TokenEnv = "OPEN_AI_TOKEN"

// Config holds the settings for constructing a Client.
type Config struct {
	// APIKey is the Bearer token. An empty key is not rejected here; the
	// service answers with an authentication error on first use.
	APIKey string
	// BaseURL overrides the API base (default: https://api.openai.com/v1).
	BaseURL string
	// OrgID is the optional OpenAI organisation identifier.
	OrgID string

	// Azure switches to Azure OpenAI: BaseURL is the resource endpoint
	// (https://<resource>.openai.azure.com), the key travels in the api-key
	// header and model names are used verbatim as deployment names.
	Azure bool
	// APIVersion is the Azure OpenAI API version. Ignored unless Azure.
	APIVersion string

	// EmbeddingModel is used when an embedding request names no model.
	EmbeddingModel string
	// Dimensions requests a reduced embedding size (0 = model default).
	Dimensions int
}

// Client implements translator.Embedder and translator.ChatCompleter on top
// of the go-openai SDK.
type Client struct {
	// api is the shared, concurrency-safe SDK client.
	api *openai.Client
	// name labels the client in readiness responses.
	name string
	// embeddingModel and dimensions shape embedding requests.
	embeddingModel string
	dimensions     int
}

// New constructs a Client from cfg.
func New(cfg *Config) *Client {
	var c openai.ClientConfig
	name := "openai"
	if cfg.Azure {
		c = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			c.APIVersion = cfg.APIVersion
		}
		// Deployment names like "gpt-4.1" must not lose their dots.
		c.AzureModelMapperFunc = func(model string) string { return model }
		name = "azure"
	} else {
		c = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
		c.OrgID = cfg.OrgID
	}
	return &Client{
		api:            openai.NewClientWithConfig(c),
		name:           name,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     cfg.Dimensions,
	}
}

// NewFromEnv constructs a Client using OPEN_AI_TOKEN and, when set,
// OPENAI_BASE_URL.
func NewFromEnv() *Client {
	return New(&Config{
		APIKey:  os.Getenv(TokenEnv),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	})
}

// Embed sends req to the embeddings endpoint and returns the vectors in input
// order. The service may answer out of order, so results are placed by index.
func (c *Client) Embed(ctx context.Context, req translator.EmbeddingRequest) ([][]float32, error) {
	model := req.Model
	if model == "" {
		model = c.embeddingModel
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      req.Input,
		Model:      openai.EmbeddingModel(model),
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: create embeddings: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(resp.Data) {
			return nil, fmt.Errorf("openai: embedding index %d out of range [0, %d)", d.Index, len(resp.Data))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Complete sends req to the chat-completions endpoint and returns the content
// of every choice.
func (c *Client) Complete(ctx context.Context, req translator.ChatRequest) ([]string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    chatRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: wireTemperature(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: create chat completion: %w", err)
	}

	choices := make([]string, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		choices = append(choices, ch.Message.Content)
	}
	return choices, nil
}

// Name identifies the client in readiness responses.
func (c *Client) Name() string { return c.name }

// Ping lists the available models, which costs no tokens and fails fast on
// a bad credential or an unreachable endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: list models: %w", err)
	}
	return nil
}

// chatRole maps a translator role onto the OpenAI role string.
func chatRole(r translator.Role) string {
	switch r {
	case translator.RoleSystem:
		return openai.ChatMessageRoleSystem
	case translator.RoleUser:
		return openai.ChatMessageRoleUser
	default:
		return string(r)
	}
}

// wireTemperature converts t for the SDK. The request field is omitempty, so
// a literal zero would be dropped and the service would fall back to 1.0;
// the smallest positive float32 is sent instead.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
