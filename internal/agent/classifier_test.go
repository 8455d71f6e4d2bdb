package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusworks/assistant-platform/internal/llm"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

// fakeLLM returns a canned completion or error.
type fakeLLM struct {
	content string
	err     error
	lastReq *llm.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := cb(f.content, 0); err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

func TestClassifyWeather(t *testing.T) {
	client := &fakeLLM{content: `{"type": "weather", "city": "Paris"}`}
	c := NewClassifier(client, "test-model", logger.NewNop())

	verdict := c.Classify(context.Background(), "What's the weather in Paris?")

	assert.Equal(t, QueryWeather, verdict.Type)
	assert.Equal(t, "Paris", verdict.City)
	assert.False(t, verdict.Fallback)
}

func TestClassifyIncludesQuestionInPrompt(t *testing.T) {
	client := &fakeLLM{content: `{"type": "unknown"}`}
	c := NewClassifier(client, "test-model", logger.NewNop())

	c.Classify(context.Background(), "how tall is the Eiffel Tower")

	require.NotNil(t, client.lastReq)
	require.Len(t, client.lastReq.Messages, 1)
	assert.Contains(t, client.lastReq.Messages[0].Content, "Query: how tall is the Eiffel Tower")
	assert.Zero(t, client.lastReq.Temperature)
}

func TestClassifyDocumentIgnoresCity(t *testing.T) {
	client := &fakeLLM{content: `{"type": "document", "city": "Paris"}`}
	c := NewClassifier(client, "test-model", logger.NewNop())

	verdict := c.Classify(context.Background(), "What does the report say?")

	assert.Equal(t, QueryDocument, verdict.Type)
	assert.Empty(t, verdict.City)
}

func TestClassifyCodeFencedJSON(t *testing.T) {
	client := &fakeLLM{content: "```json\n{\"type\": \"weather\", \"city\": \"Tokyo\"}\n```"}
	c := NewClassifier(client, "test-model", logger.NewNop())

	verdict := c.Classify(context.Background(), "weather in Tokyo?")

	assert.Equal(t, QueryWeather, verdict.Type)
	assert.Equal(t, "Tokyo", verdict.City)
}

func TestClassifyFallsBackOnError(t *testing.T) {
	client := &fakeLLM{err: errors.New("api unavailable")}
	c := NewClassifier(client, "test-model", logger.NewNop())

	verdict := c.Classify(context.Background(), "hello")

	assert.Equal(t, QueryUnknown, verdict.Type)
	assert.True(t, verdict.Fallback)
}

func TestClassifyFallsBackOnGarbage(t *testing.T) {
	client := &fakeLLM{content: "I think this is about the weather."}
	c := NewClassifier(client, "test-model", logger.NewNop())

	verdict := c.Classify(context.Background(), "hello")

	assert.Equal(t, QueryUnknown, verdict.Type)
	assert.True(t, verdict.Fallback)
}

func TestClassifyFallsBackOnUnrecognizedType(t *testing.T) {
	client := &fakeLLM{content: `{"type": "recipe"}`}
	c := NewClassifier(client, "test-model", logger.NewNop())

	verdict := c.Classify(context.Background(), "hello")

	assert.Equal(t, QueryUnknown, verdict.Type)
	assert.True(t, verdict.Fallback)
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"type":"weather"}`, `{"type":"weather"}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stripCodeFence(tc.in))
	}
}
