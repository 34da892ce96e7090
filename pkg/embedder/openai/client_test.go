package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/vecmem-go/pkg/embedder"
	"github.com/oceanbase/vecmem-go/pkg/embedder/openai"
)

func TestClient_Embed(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25,0.125]}],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	client := openai.NewClient(&openai.Config{APIKey: "sk-test", BaseURL: srv.URL, Dimensions: 2})
	vec, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.25}, vec)
	assert.Equal(t, "text-embedding-3-small", got["model"])
	assert.Equal(t, float64(2), got["dimensions"])
	assert.Equal(t, []interface{}{"hello"}, got["input"])
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := openai.NewClient(&openai.Config{}).Embed(context.Background(), "x")
	assert.ErrorIs(t, err, embedder.ErrNotConfigured)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := openai.NewClient(&openai.Config{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := client.Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestClient_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(&openai.Config{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := client.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, embedder.ErrNoEmbedding)
}
