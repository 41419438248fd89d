package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
)

func chatServer(t *testing.T, content string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		assert.Equal(t, "json_object", body.ResponseFormat.Type)
		if assert.Len(t, body.Messages, 2) {
			assert.Contains(t, body.Messages[1].Content, "id=src-1")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func testRequest() domain.OracleRequest {
	return domain.OracleRequest{
		Task:      domain.TaskConflict,
		Prompt:    "Do these conflict?",
		Dimension: domain.DimensionTimeline,
		Documents: []domain.OracleDocument{
			{SourceID: "src-1", Type: "final-pdf", Text: "launch in May"},
			{SourceID: "src-2", Type: "transcript", Text: "launch in June"},
		},
	}
}

func TestOpenAIOracleEvaluate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := chatServer(t, `{"holds": true, "confidence": 0.8, "severity": "severe", "subject": "launch date", "rationale": "May vs June"}`, &calls)
	defer srv.Close()

	o, err := NewOpenAIOracle(config.OpenAIConfig{
		BaseURL: srv.URL + "/v1/",
		Model:   "gpt-test",
		APIKey:  "test-key",
	}, nil)
	require.NoError(t, err)

	v, err := o.Evaluate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, v.Holds)
	assert.Equal(t, 0.8, v.Confidence)
	assert.Equal(t, "severe", v.Severity)
	assert.Equal(t, "launch date", v.Subject)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIOracleRejectsUnparseableReply(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := chatServer(t, "sorry, no idea", &calls)
	defer srv.Close()

	o, err := NewOpenAIOracle(config.OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "gpt-test", APIKey: "test-key"}, nil)
	require.NoError(t, err)

	_, err = o.Evaluate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "openai verdict"))
}

func TestNewOpenAIOracleRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAIOracle(config.OpenAIConfig{Model: "gpt-test"}, nil)
	assert.Error(t, err)
}
