package embedder

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/54b3r/ragcypher-go/internal/openaiclient"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are NOT suitable for embedding.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"gemini-",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// Validate is a pre-flight check for the embedding side of a translation.
// embeddingModel is the model the translator will request. It returns an
// error when the resolved backend is clearly unusable and logs a warning when
// the model looks like a chat model or belongs to another provider.
func Validate(log *slog.Logger, embeddingModel string) error {
	backend := Backend()

	switch backend {
	case "openai":
		if os.Getenv("EMBEDDING_API_KEY") == "" && os.Getenv(openaiclient.TokenEnv) == "" {
			return fmt.Errorf("embedder: no OpenAI API key found; set %s or EMBEDDING_API_KEY", openaiclient.TokenEnv)
		}

	case "azure":
		if os.Getenv("EMBEDDING_API_KEY") == "" && os.Getenv("AZURE_OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: no Azure API key found; set AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if os.Getenv("EMBEDDING_ENDPOINT") == "" && os.Getenv("AZURE_OPENAI_ENDPOINT") == "" {
			return fmt.Errorf("embedder: no Azure endpoint found; set AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}

	case "gemini":
		if os.Getenv("EMBEDDING_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("embedder: no Gemini API key found; set GOOGLE_API_KEY or EMBEDDING_API_KEY")
		}

	case "ollama":
		// Local; no credentials.

	default:
		return fmt.Errorf("embedder: unknown backend %q; valid values: openai, azure, ollama, gemini", backend)
	}

	if embeddingModel != "" && looksLikeChatModel(embeddingModel) {
		log.Warn("embedder: embedding model looks like a chat model; "+
			"this will likely produce poor or broken embeddings",
			slog.String("model", embeddingModel),
			slog.String("hint", "use a dedicated embedding model e.g. text-embedding-ada-002, nomic-embed-text"),
		)
	}

	// The OpenAI default is meaningless to the other backends.
	if backend != "openai" && backend != "azure" && strings.HasPrefix(embeddingModel, "text-embedding-ada") {
		log.Warn("embedder: embedding model is an OpenAI model but the backend is not",
			slog.String("backend", backend),
			slog.String("model", embeddingModel),
			slog.String("hint", "set embeddingModel (RAG_EMBEDDING_MODEL) to a model the backend serves"),
		)
	}

	return nil
}
