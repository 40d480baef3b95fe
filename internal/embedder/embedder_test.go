package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/54b3r/ragcypher-go/internal/openaiclient"
	"github.com/54b3r/ragcypher-go/internal/translator"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	var gotBody ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	t.Cleanup(srv.Close)

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	vectors, err := e.Embed(context.Background(), translator.EmbeddingRequest{Input: []string{"q"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2, 0.3}}, vectors)
	assert.Equal(t, "nomic-embed-text", gotBody.Model, "fallback model used when request names none")
}

func TestOllamaEmbedder_ErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"x\" not found"}`))
	}))
	t.Cleanup(srv.Close)

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL})
	_, err := e.Embed(context.Background(), translator.EmbeddingRequest{Model: "x", Input: []string{"q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// fakeModels stands in for *genai.Models.
type fakeModels struct {
	gotModel    string
	gotContents []*genai.Content
	resp        *genai.EmbedContentResponse
	err         error
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.gotModel = model
	f.gotContents = contents
	return f.resp, f.err
}

func TestGeminiEmbedder_Embed(t *testing.T) {
	t.Parallel()

	fm := &fakeModels{resp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.7, 0.8}}},
	}}
	e := &GeminiEmbedder{models: fm, model: "text-embedding-004"}

	vectors, err := e.Embed(context.Background(), translator.EmbeddingRequest{Input: []string{"Show nodes"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.7, 0.8}}, vectors)
	assert.Equal(t, "text-embedding-004", fm.gotModel)
	require.Len(t, fm.gotContents, 1)
	require.Len(t, fm.gotContents[0].Parts, 1)
	assert.Equal(t, "Show nodes", fm.gotContents[0].Parts[0].Text)
}

func TestGeminiEmbedder_Error(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("quota")
	e := &GeminiEmbedder{models: &fakeModels{err: sentinel}, model: "m"}
	_, err := e.Embed(context.Background(), translator.EmbeddingRequest{Input: []string{"q"}})
	assert.ErrorIs(t, err, sentinel)
}

func TestNewFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, e translator.Embedder)
	}{
		{
			name: "default is openai client",
			env:  map[string]string{"EMBEDDING_PROVIDER": "", "MODEL_PROVIDER": ""},
			check: func(t *testing.T, e translator.Embedder) {
				assert.IsType(t, &openaiclient.Client{}, e)
			},
		},
		{
			name: "inherits model provider",
			env:  map[string]string{"EMBEDDING_PROVIDER": "", "MODEL_PROVIDER": "ollama"},
			check: func(t *testing.T, e translator.Embedder) {
				assert.IsType(t, &OllamaEmbedder{}, e)
			},
		},
		{
			name:    "azure without key",
			env:     map[string]string{"EMBEDDING_PROVIDER": "azure", "EMBEDDING_API_KEY": "", "AZURE_OPENAI_API_KEY": ""},
			wantErr: "AZURE_OPENAI_API_KEY",
		},
		{
			name: "azure with key and endpoint",
			env: map[string]string{
				"EMBEDDING_PROVIDER":    "azure",
				"AZURE_OPENAI_API_KEY":  "k",
				"AZURE_OPENAI_ENDPOINT": "https://x.openai.azure.com",
			},
			check: func(t *testing.T, e translator.Embedder) {
				c, ok := e.(*openaiclient.Client)
				require.True(t, ok)
				assert.Equal(t, "azure", c.Name())
			},
		},
		{
			name:    "gemini without key",
			env:     map[string]string{"EMBEDDING_PROVIDER": "gemini", "EMBEDDING_API_KEY": "", "GOOGLE_API_KEY": ""},
			wantErr: "GOOGLE_API_KEY",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"EMBEDDING_PROVIDER": "bedrock"},
			wantErr: "unknown backend",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			e, err := NewFromEnv(context.Background())
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, e)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("openai without token", func(t *testing.T) {
		t.Setenv("EMBEDDING_PROVIDER", "openai")
		t.Setenv("EMBEDDING_API_KEY", "")
		t.Setenv(openaiclient.TokenEnv, "")
		err := Validate(slog.New(slog.DiscardHandler), "text-embedding-ada-002")
		require.Error(t, err)
		assert.Contains(t, err.Error(), openaiclient.TokenEnv)
	})

	t.Run("chat model warns", func(t *testing.T) {
		t.Setenv("EMBEDDING_PROVIDER", "ollama")
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))
		require.NoError(t, Validate(log, "llama3"))
		assert.Contains(t, buf.String(), "looks like a chat model")
	})

	t.Run("openai model on ollama warns", func(t *testing.T) {
		t.Setenv("EMBEDDING_PROVIDER", "ollama")
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))
		require.NoError(t, Validate(log, "text-embedding-ada-002"))
		assert.Contains(t, buf.String(), "OpenAI model")
	})
}

func TestLooksLikeChatModel(t *testing.T) {
	t.Parallel()

	assert.True(t, looksLikeChatModel("gpt-3.5-turbo"))
	assert.True(t, looksLikeChatModel("Llama3:8b"))
	assert.False(t, looksLikeChatModel("text-embedding-ada-002"))
	assert.False(t, looksLikeChatModel("nomic-embed-text"))
}

func TestModelFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"openai default", map[string]string{"EMBEDDING_PROVIDER": "", "MODEL_PROVIDER": "", "EMBEDDING_MODEL": ""}, translator.DefaultEmbeddingModel},
		{"ollama inherited from chat provider", map[string]string{"EMBEDDING_PROVIDER": "", "MODEL_PROVIDER": "ollama", "EMBEDDING_MODEL": ""}, "nomic-embed-text"},
		{"gemini", map[string]string{"EMBEDDING_PROVIDER": "gemini", "EMBEDDING_MODEL": ""}, "text-embedding-004"},
		{"explicit model", map[string]string{"EMBEDDING_PROVIDER": "ollama", "EMBEDDING_MODEL": "mxbai-embed-large"}, "mxbai-embed-large"},
		{"unknown backend", map[string]string{"EMBEDDING_PROVIDER": "bedrock", "EMBEDDING_MODEL": ""}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tc.want, ModelFromEnv())
		})
	}
}

func TestOllamaEmbedder_DefaultModelReachesService(t *testing.T) {
	var gotBody ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"embeddings":[[0.5]]}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_ENDPOINT", srv.URL)
	t.Setenv("EMBEDDING_MODEL", "")

	e, err := NewFromEnv(context.Background())
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), translator.EmbeddingRequest{Model: ModelFromEnv(), Input: []string{"q"}})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", gotBody.Model)
}
