package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/54b3r/ragcypher-go/internal/embedder"
	"github.com/54b3r/ragcypher-go/internal/graph"
	"github.com/54b3r/ragcypher-go/internal/logging"
	"github.com/54b3r/ragcypher-go/internal/openaiclient"
	"github.com/54b3r/ragcypher-go/internal/provider"
	"github.com/54b3r/ragcypher-go/internal/server"
	"github.com/54b3r/ragcypher-go/internal/spi"
	"github.com/54b3r/ragcypher-go/internal/store"
	"github.com/54b3r/ragcypher-go/internal/translator"
)

// Search backends selectable via SEARCH_BACKEND.
const (
	searchNeo4j  = "neo4j"
	searchQdrant = "qdrant"
)

// historyDisabled is the RAGCYPHER_HISTORY_DB value that turns history off.
const historyDisabled = "disabled"

// buildCompleter returns the chat completer selected by MODEL_PROVIDER and a
// readiness check for it (nil when the backend has no cheap check). The
// default openai backend talks to the service directly through go-openai;
// every other backend goes through an Eino chat model.
func buildCompleter(ctx context.Context, log *slog.Logger, cfg *provider.Config) (translator.ChatCompleter, server.Pinger, error) {
	if cfg.Backend == provider.BackendOpenAI {
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		c := openaiclient.NewFromEnv()
		log.Info("chat completer initialised", slog.String("provider", string(cfg.Backend)))
		return c, c, nil
	}

	c, err := provider.NewCompleterFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("chat completer initialised",
		slog.String("provider", string(cfg.Backend)),
		slog.String("model", cfg.Model()),
	)

	var pinger server.Pinger
	if cfg.Backend == provider.BackendOllama {
		pinger = server.NewHTTPPinger("ollama", strings.TrimRight(cfg.Ollama.Host, "/")+"/api/tags", nil)
	}
	return c, pinger, nil
}

// buildEmbedder validates the embedding setup for embeddingModel and returns
// the embedder selected by EMBEDDING_PROVIDER.
func buildEmbedder(ctx context.Context, log *slog.Logger, embeddingModel string) (translator.Embedder, error) {
	if err := embedder.Validate(log, embeddingModel); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("provider", embedder.Backend()),
		slog.String("model", embeddingModel),
	)
	return emb, nil
}

// backends holds the search-side connections shared by a command.
type backends struct {
	// searcher is handed to every translation.
	searcher spi.SimilaritySearcher
	// pinger checks the search backend for GET /api/ready.
	pinger server.Pinger
	// driver is the Neo4j driver when SEARCH_BACKEND=neo4j, else nil.
	driver neo4j.DriverWithContext
	// closers run in reverse order on close.
	closers []func()
}

// close releases every connection opened by buildBackends.
func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// neo4jDriver returns the shared driver, opening one when the search backend
// is not Neo4j. Used by --execute.
func (b *backends) neo4jDriver(ctx context.Context) (neo4j.DriverWithContext, error) {
	if b.driver != nil {
		return b.driver, nil
	}
	driver, err := graph.NewDriver(graph.Neo4jConfigFromEnv())
	if err != nil {
		return nil, err
	}
	b.driver = driver
	b.closers = append(b.closers, func() { _ = driver.Close(ctx) })
	return driver, nil
}

// buildBackends connects to the similarity search backend chosen by
// SEARCH_BACKEND (default: neo4j).
func buildBackends(ctx context.Context, log *slog.Logger) (*backends, error) {
	b := &backends{}
	backend := strings.ToLower(os.Getenv("SEARCH_BACKEND"))
	if backend == "" {
		backend = searchNeo4j
	}

	switch backend {
	case searchNeo4j:
		cfg := graph.Neo4jConfigFromEnv()
		driver, err := graph.NewDriver(cfg)
		if err != nil {
			return nil, err
		}
		b.driver = driver
		b.closers = append(b.closers, func() { _ = driver.Close(ctx) })
		b.searcher = graph.NewNeo4jSearcher(driver, cfg.Database)
		b.pinger = graph.NewNeo4jPinger(driver)
		log.Info("search backend ready", slog.String("backend", backend), slog.String("uri", cfg.URI))

	case searchQdrant:
		cfg := graph.QdrantConfigFromEnv()
		client, err := graph.NewQdrantClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.searcher = graph.NewQdrantSearcher(client)
		b.pinger = graph.NewQdrantPinger(client)
		log.Info("search backend ready", slog.String("backend", backend),
			slog.String("host", cfg.Host), slog.Int("port", cfg.Port))

	default:
		return nil, fmt.Errorf("unknown SEARCH_BACKEND %q; valid values: %s, %s", backend, searchNeo4j, searchQdrant)
	}
	return b, nil
}

// modelFallbacks returns the chat and embedding models the configured
// backends serve, used when RAG_CHAT_MODEL or RAG_EMBEDDING_MODEL is unset.
// Without them every backend would be asked for OpenAI's default models.
func modelFallbacks(pcfg *provider.Config) translator.ModelFallbacks {
	return translator.ModelFallbacks{
		EmbeddingModel: embedder.ModelFromEnv(),
		ChatModel:      pcfg.Model(),
	}
}

// buildTranslator creates a translator from the RAG_* environment, with
// indexOverride replacing RAG_INDEX_NAME when non-empty. The factory is
// registered under translator.FactoryName the first time through.
func buildTranslator(ctx context.Context, log *slog.Logger, indexOverride string) (spi.Translator, translator.Config, []server.Pinger, error) {
	if indexOverride != "" {
		if err := os.Setenv("RAG_INDEX_NAME", indexOverride); err != nil {
			return nil, translator.Config{}, nil, fmt.Errorf("set RAG_INDEX_NAME: %w", err)
		}
	}
	pcfg := provider.ConfigFromEnv()
	cfg, err := translator.ConfigFromEnvWith(modelFallbacks(pcfg))
	if err != nil {
		return nil, translator.Config{}, nil, err
	}

	emb, err := buildEmbedder(ctx, log, cfg.EmbeddingModel)
	if err != nil {
		return nil, translator.Config{}, nil, err
	}
	comp, compPinger, err := buildCompleter(ctx, log, pcfg)
	if err != nil {
		return nil, translator.Config{}, nil, err
	}

	factory := translator.NewFactory(emb, comp, logging.Component(log, "translator"))
	if _, ok := spi.Lookup(translator.FactoryName); !ok {
		if err := spi.Register(factory); err != nil {
			return nil, translator.Config{}, nil, err
		}
	}
	tr, err := factory.Create(map[string]any{
		translator.KeyIndexName:       cfg.IndexName,
		translator.KeyEmbeddingModel:  cfg.EmbeddingModel,
		translator.KeyChatModel:       cfg.ChatModel,
		translator.KeyChatTemperature: cfg.ChatTemperature,
	})
	if err != nil {
		return nil, translator.Config{}, nil, err
	}
	log.Info("translator ready",
		slog.String("index", cfg.IndexName),
		slog.String("embedding_model", cfg.EmbeddingModel),
		slog.String("chat_model", cfg.ChatModel),
	)

	var pingers []server.Pinger
	if compPinger != nil {
		pingers = append(pingers, compPinger)
	}
	return tr, cfg, pingers, nil
}

// openHistory opens the translation history store. RAGCYPHER_HISTORY_DB
// overrides the default path (~/.ragcypher/history.db); the value
// "disabled" turns history off. Failures are logged and disable history.
func openHistory(log *slog.Logger) (store.HistoryStore, func()) {
	noop := func() {}
	dbPath := os.Getenv("RAGCYPHER_HISTORY_DB")
	if dbPath == historyDisabled {
		log.Info("history: disabled via RAGCYPHER_HISTORY_DB=disabled")
		return nil, noop
	}
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, noop
		}
		dbPath = p
	}
	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, noop
	}
	log.Debug("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// errNoQuery is returned when the translate command receives blank input.
var errNoQuery = errors.New("translate: query must not be empty")
