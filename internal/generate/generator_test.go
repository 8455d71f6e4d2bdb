package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusworks/assistant-platform/internal/llm"
	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

type fakeLLM struct {
	content       string
	err           error
	lastReq       *llm.CompletionRequest
	streamedCalls int
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	f.lastReq = req
	f.streamedCalls++
	if f.err != nil {
		return nil, f.err
	}
	if err := cb(f.content, 0); err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

func TestWeatherAnswerStuffsContext(t *testing.T) {
	client := &fakeLLM{content: "It is mild."}
	g := NewGenerator(client, "test-model", logger.NewNop())

	got, err := g.WeatherAnswer(context.Background(), "Weather in Paris, FR:\n- Temperature: 18.5°C", "how warm is it?", nil)
	require.NoError(t, err)
	assert.Equal(t, "It is mild.", got)

	require.NotNil(t, client.lastReq)
	assert.Contains(t, client.lastReq.System, "Weather in Paris, FR:")
	require.Len(t, client.lastReq.Messages, 1)
	assert.Equal(t, "how warm is it?", client.lastReq.Messages[0].Content)
	assert.Zero(t, client.streamedCalls)
}

func TestDocumentAnswerStuffsPassages(t *testing.T) {
	client := &fakeLLM{content: "Revenue grew 12%."}
	g := NewGenerator(client, "test-model", logger.NewNop())

	passages := []model.RetrievedChunk{
		{Source: "report.txt", Text: "Revenue grew 12%."},
		{Source: "notes.txt", Text: "Costs were flat."},
	}

	_, err := g.DocumentAnswer(context.Background(), passages, "what about revenue?", nil)
	require.NoError(t, err)

	require.NotNil(t, client.lastReq)
	assert.Contains(t, client.lastReq.System, "[report.txt]\nRevenue grew 12%.")
	assert.Contains(t, client.lastReq.System, "[notes.txt]\nCosts were flat.")
	assert.Contains(t, client.lastReq.System, "\n\n---\n\n")
}

func TestGeneratorStreamsWhenCallbackGiven(t *testing.T) {
	client := &fakeLLM{content: "hello"}
	g := NewGenerator(client, "test-model", logger.NewNop())

	var streamed string
	got, err := g.WeatherAnswer(context.Background(), "sunny", "hi", func(token string, index int) error {
		streamed += token
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, client.streamedCalls)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "hello", streamed)
}

func TestGeneratorWrapsErrors(t *testing.T) {
	client := &fakeLLM{err: errors.New("rate limited")}
	g := NewGenerator(client, "test-model", logger.NewNop())

	_, err := g.DocumentAnswer(context.Background(), nil, "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document generation")
}
