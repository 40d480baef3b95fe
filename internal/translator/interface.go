// Package translator implements the retrieval-augmented "natural language to
// Cypher" translation step. Inputs addressed to the translator with the
// sentinel prefix are embedded, matched against a vector index, and answered
// by a chat model that is only allowed to use the retrieved documents.
//
// The model services and the similarity search sit behind three narrow
// interfaces so the pipeline can run against deterministic fakes.
package translator

import (
	"context"

	"github.com/54b3r/ragcypher-go/internal/spi"
)

// Role identifies the author of a conversational turn.
type Role string

const (
	// RoleSystem carries the instructions and retrieved documents.
	RoleSystem Role = "system"
	// RoleUser carries the normalised natural-language query.
	RoleUser Role = "user"
)

// Message is a single conversational turn sent to the chat service.
type Message struct {
	// Role is the author of the turn.
	Role Role
	// Content is the text of the turn.
	Content string
}

// EmbeddingRequest is the payload of a single embedding call.
type EmbeddingRequest struct {
	// Model is the embedding model identifier.
	Model string
	// Input holds the texts to embed. The translator always sends exactly one.
	Input []string
}

// ChatRequest is the payload of a single chat-completion call.
type ChatRequest struct {
	// Model is the chat model identifier.
	Model string
	// Temperature is the sampling temperature.
	Temperature float64
	// Messages is the ordered conversation.
	Messages []Message
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed returns one vector per input, parallel to req.Input.
	Embed(ctx context.Context, req EmbeddingRequest) ([][]float32, error)
}

// ChatCompleter submits a conversation to a chat-completion service.
// Implementations must be safe to call from multiple goroutines.
type ChatCompleter interface {
	// Complete returns the message content of every returned choice, in the
	// order the service produced them. An empty slice means no choices.
	Complete(ctx context.Context, req ChatRequest) ([]string, error)
}

// SimilaritySearcher is the per-call query channel the host borrows from its
// graph connection. See [spi.SimilaritySearcher].
type SimilaritySearcher = spi.SimilaritySearcher
