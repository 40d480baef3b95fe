// Package embedder provides translator.Embedder implementations for turning a
// question into the query vector used by the Retriever stage. OpenAI and
// Azure OpenAI go through the go-openai client, Gemini through the genai
// SDK, and Ollama over its plain HTTP API.
package embedder

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/54b3r/ragcypher-go/internal/openaiclient"
	"github.com/54b3r/ragcypher-go/internal/translator"
)

// Default embedding models per backend, used when a request names none.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = translator.DefaultEmbeddingModel
	defaultGeminiModel = "text-embedding-004"
)

// Backend returns the effective embedding backend: EMBEDDING_PROVIDER, then
// MODEL_PROVIDER, then "openai".
func Backend() string {
	if b := getEnv("EMBEDDING_PROVIDER"); b != "" {
		return b
	}
	return getEnvOrDefault("MODEL_PROVIDER", "openai")
}

// DefaultModel returns the embedding model used for backend when neither the
// translator nor EMBEDDING_MODEL names one. Unknown backends get "".
func DefaultModel(backend string) string {
	switch backend {
	case "openai", "azure":
		return defaultOpenAIModel
	case "ollama":
		return defaultOllamaModel
	case "gemini":
		return defaultGeminiModel
	default:
		return ""
	}
}

// ModelFromEnv returns EMBEDDING_MODEL, or the default model of the
// effective backend when it is unset.
func ModelFromEnv() string {
	return getEnvOrDefault("EMBEDDING_MODEL", DefaultModel(Backend()))
}

// NewFromEnv constructs a translator.Embedder using cascading defaults that
// inherit from the chat provider configuration when embedding-specific
// overrides are not set.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER, if unset inherits MODEL_PROVIDER (default: openai)
//  2. Per-backend credentials are inherited from the chat provider's env vars
//  3. EMBEDDING_MODEL overrides the fallback model for the resolved backend;
//     a model named in the request (RAG_EMBEDDING_MODEL) wins over both
//  4. EMBEDDING_API_KEY overrides the inherited API key
//  5. EMBEDDING_ENDPOINT overrides the inherited endpoint
//  6. EMBEDDING_DIMENSIONS requests a reduced vector size (openai/azure only)
func NewFromEnv(ctx context.Context) (translator.Embedder, error) {
	switch backend := Backend(); backend {
	case "openai":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv(openaiclient.TokenEnv)
		}
		baseURL := getEnv("EMBEDDING_ENDPOINT")
		if baseURL == "" {
			baseURL = getEnv("OPENAI_BASE_URL")
		}
		return openaiclient.New(&openaiclient.Config{
			APIKey:         apiKey,
			BaseURL:        baseURL,
			EmbeddingModel: ModelFromEnv(),
			Dimensions:     getEnvInt("EMBEDDING_DIMENSIONS", 0),
		}), nil

	case "azure":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("AZURE_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		endpoint := getEnv("EMBEDDING_ENDPOINT")
		if endpoint == "" {
			endpoint = getEnv("AZURE_OPENAI_ENDPOINT")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		return openaiclient.New(&openaiclient.Config{
			APIKey:         apiKey,
			BaseURL:        endpoint,
			Azure:          true,
			APIVersion:     getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-01"),
			EmbeddingModel: ModelFromEnv(),
			Dimensions:     getEnvInt("EMBEDDING_DIMENSIONS", 0),
		}), nil

	case "ollama":
		host := getEnv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  host,
			Model: ModelFromEnv(),
		}), nil

	case "gemini":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: gemini requires GOOGLE_API_KEY or EMBEDDING_API_KEY")
		}
		return NewGeminiEmbedder(ctx, &GeminiConfig{
			APIKey: apiKey,
			Model:  ModelFromEnv(),
		})

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q; valid values: openai, azure, ollama, gemini", backend)
	}
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// modelOr returns requested unless it is empty, in which case fallback.
func modelOr(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}
