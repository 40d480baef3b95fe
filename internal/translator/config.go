package translator

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults applied when a configuration field is left empty.
const (
	DefaultEmbeddingModel  = "text-embedding-ada-002"
	DefaultChatModel       = "gpt-3.5-turbo"
	DefaultChatTemperature = 0.0
)

// Recognised keys of the property map handed to the factory.
const (
	KeyIndexName       = "indexName"
	KeyEmbeddingModel  = "embeddingModel"
	KeyChatModel       = "chatModel"
	KeyChatTemperature = "chatTemperature"
)

// Config holds the translator settings. It is resolved once at construction
// and never mutated afterwards.
type Config struct {
	// IndexName is the vector index to search. Required.
	IndexName string `yaml:"index_name"`

	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string `yaml:"embedding_model"`

	// ChatModel is the chat-completion model identifier.
	ChatModel string `yaml:"chat_model"`

	// ChatTemperature is the sampling temperature for the completion.
	ChatTemperature float64 `yaml:"chat_temperature"`
}

// withDefaults returns a copy of c with empty model identifiers filled in.
func (c Config) withDefaults() Config {
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	return c
}

// Validate reports whether c can drive the retrieval path.
func (c Config) Validate() error {
	if c.IndexName == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, KeyIndexName)
	}
	if c.ChatTemperature < 0 || c.ChatTemperature > 2 {
		return fmt.Errorf("%w: %s must be within [0, 2], got %v", ErrInvalidConfig, KeyChatTemperature, c.ChatTemperature)
	}
	return nil
}

// ConfigFromMap converts the loosely typed property map supplied through the
// factory into a Config. Unknown keys are ignored. Defaults are applied and
// the result is validated.
func ConfigFromMap(props map[string]any) (Config, error) {
	var cfg Config
	var err error

	if cfg.IndexName, err = stringProp(props, KeyIndexName); err != nil {
		return Config{}, err
	}
	if cfg.EmbeddingModel, err = stringProp(props, KeyEmbeddingModel); err != nil {
		return Config{}, err
	}
	if cfg.ChatModel, err = stringProp(props, KeyChatModel); err != nil {
		return Config{}, err
	}
	if cfg.ChatTemperature, err = floatProp(props, KeyChatTemperature, DefaultChatTemperature); err != nil {
		return Config{}, err
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ModelFallbacks names the models the configured backends serve when the
// translator settings name none. Empty fields fall back to the package
// defaults, which are OpenAI model names.
type ModelFallbacks struct {
	// EmbeddingModel replaces DefaultEmbeddingModel.
	EmbeddingModel string
	// ChatModel replaces DefaultChatModel.
	ChatModel string
}

// ConfigFromEnv builds a Config from environment variables:
//
//	RAG_INDEX_NAME        (required)
//	RAG_EMBEDDING_MODEL   (default: text-embedding-ada-002)
//	RAG_CHAT_MODEL        (default: gpt-3.5-turbo)
//	RAG_CHAT_TEMPERATURE  (default: 0.0)
func ConfigFromEnv() (Config, error) {
	return ConfigFromEnvWith(ModelFallbacks{})
}

// ConfigFromEnvWith is ConfigFromEnv with the model defaults taken from fb.
// RAG_EMBEDDING_MODEL and RAG_CHAT_MODEL still win when set.
func ConfigFromEnvWith(fb ModelFallbacks) (Config, error) {
	cfg := Config{
		IndexName:      os.Getenv("RAG_INDEX_NAME"),
		EmbeddingModel: os.Getenv("RAG_EMBEDDING_MODEL"),
		ChatModel:      os.Getenv("RAG_CHAT_MODEL"),
	}
	if v := os.Getenv("RAG_CHAT_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: RAG_CHAT_TEMPERATURE %q is not a number", ErrInvalidConfig, v)
		}
		cfg.ChatTemperature = t
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = fb.EmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = fb.ChatModel
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// stringProp returns the string value stored under key, or "" when absent.
func stringProp(props map[string]any, key string) (string, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidConfig, key, v)
	}
	return s, nil
}

// floatProp returns the numeric value stored under key, or fallback when absent.
// Numeric strings are accepted since property maps are often built from
// connection URLs or environment variables.
func floatProp(props map[string]any, key string, fallback float64) (float64, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidConfig, key, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidConfig, key, v)
	}
}
