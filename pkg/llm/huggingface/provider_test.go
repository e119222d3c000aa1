package huggingface

import (
	"care-relay-be/pkg/llm"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var req goopenai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", req.Model)
		assert.Equal(t, 300, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, llm.RoleUser, req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Rest today."}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf_test", srv.URL+"/", "meta-llama/Llama-3.1-8B-Instruct")
	reply, err := p.Generate(context.Background(), "Can I walk?", llm.WithMaxTokens(300))

	require.NoError(t, err)
	assert.Equal(t, "Rest today.", reply)
}

func TestHuggingFaceProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("k", srv.URL, "m").Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad token")
}
