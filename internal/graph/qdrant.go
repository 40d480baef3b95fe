package graph

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// searchLimit matches the k of VectorSearchQuery.
const searchLimit = 10

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantConfigFromEnv resolves a QdrantConfig from QDRANT_HOST, QDRANT_PORT,
// QDRANT_API_KEY and QDRANT_TLS.
func QdrantConfigFromEnv() *QdrantConfig {
	cfg := &QdrantConfig{
		Host:   getEnvOrDefault("QDRANT_HOST", "localhost"),
		APIKey: os.Getenv("QDRANT_API_KEY"),
	}
	if p, err := strconv.Atoi(os.Getenv("QDRANT_PORT")); err == nil {
		cfg.Port = p
	}
	cfg.UseTLS, _ = strconv.ParseBool(os.Getenv("QDRANT_TLS"))
	return cfg
}

// NewQdrantClient opens a gRPC client for cfg. The caller owns the client
// and must Close it.
func NewQdrantClient(cfg *QdrantConfig) (*qdrant.Client, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}
	return client, nil
}

// pointQuerier is the subset of *qdrant.Client used by QdrantSearcher.
type pointQuerier interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// QdrantSearcher implements translator.SimilaritySearcher against a Qdrant
// collection. The index name is used as the collection name and the
// document text is read from the "content" payload field.
type QdrantSearcher struct {
	client pointQuerier
}

// NewQdrantSearcher wraps client. The client stays owned by the caller.
func NewQdrantSearcher(client *qdrant.Client) *QdrantSearcher {
	return &QdrantSearcher{client: client}
}

// Search returns the content payload of the ten nearest points, best first.
func (s *QdrantSearcher) Search(ctx context.Context, indexName string, embedding []float32) ([]string, error) {
	if s == nil {
		return nil, ErrNotConnected
	}
	limit := uint64(searchLimit)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: indexName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayloadInclude(contentColumn),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search on %q failed: %w", indexName, err)
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		var content string
		if v, ok := r.GetPayload()[contentColumn]; ok {
			content = v.GetStringValue()
		}
		docs = append(docs, content)
	}
	return docs, nil
}

// QdrantPinger checks a Qdrant instance using its native HealthCheck RPC.
// It satisfies server.Pinger and is used by GET /api/ready.
type QdrantPinger struct {
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
