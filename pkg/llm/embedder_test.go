package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/brikmate/pkg/llm"
)

// embeddingServer mimics the /embeddings endpoint and returns one vector per
// input, encoding the input position in the first component.
func embeddingServer(t *testing.T, requests *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-ada-002", req.Model)

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(len(req.Input[i])), 1}, Index: i}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestNewEmbedderWithConfig(t *testing.T) {
	_, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{})
	assert.Error(t, err)

	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestEmbedDocumentsInBatches(t *testing.T) {
	var requests int32
	srv := embeddingServer(t, &requests)
	defer srv.Close()

	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		APIKey:    "sk-test",
		BaseURL:   srv.URL + "/v1",
		BatchSize: 2,
	})
	require.NoError(t, err)

	texts := []string{"a", "bb", "ccc"}
	vectors, err := emb.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0])
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}
