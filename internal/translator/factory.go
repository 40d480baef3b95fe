package translator

import (
	"log/slog"

	"github.com/54b3r/ragcypher-go/internal/spi"
)

// FactoryName is the fixed name the translator is registered under.
const FactoryName = "RAG to Cypher Translator"

// Factory creates Translators from host property maps. The model services
// are shared by every Translator it creates.
type Factory struct {
	// embedder is handed to every created Translator.
	embedder Embedder
	// completer is handed to every created Translator.
	completer ChatCompleter
	// log is handed to every created Translator.
	log *slog.Logger
}

// NewFactory returns a Factory whose translators use the given services.
func NewFactory(embedder Embedder, completer ChatCompleter, log *slog.Logger) *Factory {
	return &Factory{embedder: embedder, completer: completer, log: log}
}

// Name returns [FactoryName].
func (f *Factory) Name() string {
	return FactoryName
}

// Create converts props into a Config and constructs a Translator.
func (f *Factory) Create(props map[string]any) (spi.Translator, error) {
	cfg, err := ConfigFromMap(props)
	if err != nil {
		return nil, err
	}
	t, err := New(cfg, f.embedder, f.completer, WithLogger(f.log))
	if err != nil {
		return nil, err
	}
	return t, nil
}
