// Package graph provides the SimilaritySearcher implementations used by the
// Retriever stage and the helpers that run generated Cypher against Neo4j.
package graph

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// VectorSearchQuery is the fixed Cypher used to fetch the ten documents
// nearest to a query vector from a Neo4j vector index.
const VectorSearchQuery = `CALL db.index.vector.queryNodes($indexName, 10, $embedding)
YIELD node, score
RETURN node.content AS content
ORDER BY score DESC`

// contentColumn is the result column read by Search.
const contentColumn = "content"

// Neo4jConfig holds connection parameters for a Neo4j instance.
type Neo4jConfig struct {
	// URI is the Bolt or neo4j:// URI (default: neo4j://localhost:7687).
	URI string
	// Username is the basic-auth user (default: neo4j).
	Username string
	// Password is the basic-auth password.
	Password string
	// Database selects the target database; empty uses the server default.
	Database string
}

// Neo4jConfigFromEnv resolves a Neo4jConfig from NEO4J_URI, NEO4J_USERNAME,
// NEO4J_PASSWORD and NEO4J_DATABASE.
func Neo4jConfigFromEnv() *Neo4jConfig {
	return &Neo4jConfig{
		URI:      getEnvOrDefault("NEO4J_URI", "neo4j://localhost:7687"),
		Username: getEnvOrDefault("NEO4J_USERNAME", "neo4j"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	}
}

// NewDriver opens a driver for cfg. The caller owns the driver and must
// Close it.
func NewDriver(cfg *Neo4jConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}
	return driver, nil
}

// runFunc executes one Cypher statement and returns every record.
type runFunc func(ctx context.Context, cypher string, params map[string]any, mode neo4j.AccessMode) ([]*neo4j.Record, error)

// Neo4jSearcher implements translator.SimilaritySearcher against a Neo4j
// vector index. Each Search opens and closes its own read session, so one
// searcher may be shared across goroutines.
type Neo4jSearcher struct {
	run runFunc
}

// NewNeo4jSearcher returns a searcher that runs queries through driver in
// database (empty for the server default). The driver stays owned by the
// caller.
func NewNeo4jSearcher(driver neo4j.DriverWithContext, database string) *Neo4jSearcher {
	return &Neo4jSearcher{run: sessionRunner(driver, database)}
}

// Search runs VectorSearchQuery with indexName and embedding bound as
// parameters and returns the content column of every row in result order.
// A null content renders as the empty string.
func (s *Neo4jSearcher) Search(ctx context.Context, indexName string, embedding []float32) ([]string, error) {
	if s == nil {
		return nil, ErrNotConnected
	}
	params := map[string]any{
		"indexName": indexName,
		"embedding": toFloat64s(embedding),
	}
	records, err := s.run(ctx, VectorSearchQuery, params, neo4j.AccessModeRead)
	if err != nil {
		return nil, fmt.Errorf("neo4j: vector search on %q failed: %w", indexName, err)
	}

	docs := make([]string, 0, len(records))
	for _, rec := range records {
		v, ok := rec.Get(contentColumn)
		if !ok {
			return nil, fmt.Errorf("neo4j: vector search result has no %q column", contentColumn)
		}
		docs = append(docs, stringValue(v))
	}
	return docs, nil
}

// ErrNotConnected is returned by a nil searcher, typically a typed nil
// pointer stored in an interface.
var ErrNotConnected = errors.New("graph: searcher is not connected")

// Row is one result record keyed by column name, with columns kept in
// result order in Keys.
type Row struct {
	Keys   []string
	Values map[string]any
}

// Executor runs arbitrary Cypher, typically a generated statement, in write
// mode and returns the rows.
type Executor struct {
	run runFunc
}

// NewExecutor returns an Executor bound to driver and database.
func NewExecutor(driver neo4j.DriverWithContext, database string) *Executor {
	return &Executor{run: sessionRunner(driver, database)}
}

// Execute runs cypher without parameters and returns every row.
func (e *Executor) Execute(ctx context.Context, cypher string) ([]Row, error) {
	records, err := e.run(ctx, cypher, nil, neo4j.AccessModeWrite)
	if err != nil {
		return nil, fmt.Errorf("neo4j: execute failed: %w", err)
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{Keys: rec.Keys, Values: rec.AsMap()})
	}
	return rows, nil
}

// sessionRunner opens a session per call, drains the result and closes the
// session before returning.
func sessionRunner(driver neo4j.DriverWithContext, database string) runFunc {
	return func(ctx context.Context, cypher string, params map[string]any, mode neo4j.AccessMode) (records []*neo4j.Record, err error) {
		session := driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   mode,
			DatabaseName: database,
		})
		defer func() {
			if cerr := session.Close(ctx); cerr != nil && err == nil {
				err = fmt.Errorf("close session: %w", cerr)
			}
		}()

		result, err := session.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	}
}

// Neo4jPinger checks a Neo4j instance with VerifyConnectivity. It satisfies
// server.Pinger and is used by GET /api/ready.
type Neo4jPinger struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jPinger constructs a Neo4jPinger for driver.
func NewNeo4jPinger(driver neo4j.DriverWithContext) *Neo4jPinger {
	return &Neo4jPinger{driver: driver}
}

// Name returns the dependency label used in readiness responses.
func (p *Neo4jPinger) Name() string { return "neo4j" }

// Ping verifies that the driver can reach a server.
func (p *Neo4jPinger) Ping(ctx context.Context) error {
	if err := p.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("verify connectivity failed: %w", err)
	}
	return nil
}

// toFloat64s widens v for the Bolt protocol, which carries floats as
// 64-bit values.
func toFloat64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// stringValue renders a result value as text.
func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
