// Package generate produces assistant responses from routed context.
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/nimbusworks/assistant-platform/internal/llm"
	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
	"github.com/nimbusworks/assistant-platform/pkg/metrics"
)

// Clarification is the fixed response for queries that could not be routed.
const Clarification = `I'm not sure if you're asking about weather or about information from a document.

Could you please clarify your question?
- For weather information, please ask about the weather in a specific city.
- For document information, please ask about the content of the available documents.`

const weatherSystemPrompt = `You are a helpful assistant that provides weather information.
Below is the weather data for a city:

%s

Based on the above weather data, please answer the user's question.`

const documentSystemPrompt = `You are a helpful assistant that answers questions about uploaded documents.
Use only the following document excerpts to answer. If the excerpts do not
contain the answer, say so.

%s`

// Generator wraps the LLM call that turns routed context into a response.
type Generator struct {
	client llm.Client
	model  string
	logger *logger.Logger
}

// NewGenerator creates a new response generator.
func NewGenerator(client llm.Client, model string, log *logger.Logger) *Generator {
	return &Generator{
		client: client,
		model:  model,
		logger: log,
	}
}

// WeatherAnswer answers a question given a formatted weather block as
// context. When onToken is non-nil the completion is streamed through it.
func (g *Generator) WeatherAnswer(ctx context.Context, weatherText, question string, onToken llm.StreamCallback) (string, error) {
	req := &llm.CompletionRequest{
		Model:       g.model,
		System:      fmt.Sprintf(weatherSystemPrompt, weatherText),
		Messages:    []llm.ChatMessage{{Role: "user", Content: question}},
		Temperature: 0.2,
	}

	return g.complete(ctx, "weather", req, onToken)
}

// DocumentAnswer answers a question given retrieved document passages as
// context, all stuffed into a single prompt.
func (g *Generator) DocumentAnswer(ctx context.Context, passages []model.RetrievedChunk, question string, onToken llm.StreamCallback) (string, error) {
	var sb strings.Builder
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&sb, "[%s]\n%s", p.Source, p.Text)
	}

	req := &llm.CompletionRequest{
		Model:       g.model,
		System:      fmt.Sprintf(documentSystemPrompt, sb.String()),
		Messages:    []llm.ChatMessage{{Role: "user", Content: question}},
		Temperature: 0.2,
	}

	return g.complete(ctx, "document", req, onToken)
}

func (g *Generator) complete(ctx context.Context, mode string, req *llm.CompletionRequest, onToken llm.StreamCallback) (string, error) {
	var resp *llm.CompletionResponse
	var err error

	if onToken != nil {
		resp, err = g.client.CompleteStream(ctx, req, onToken)
	} else {
		resp, err = g.client.Complete(ctx, req)
	}
	if err != nil {
		metrics.RecordLLMCall(g.model, mode, "error", 0)
		return "", fmt.Errorf("%s generation: %w", mode, err)
	}

	metrics.RecordLLMCall(g.model, mode, "success", float64(resp.LatencyMs)/1000.0)
	return resp.Content, nil
}
