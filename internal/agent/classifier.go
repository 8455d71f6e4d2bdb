package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nimbusworks/assistant-platform/internal/llm"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
	"github.com/nimbusworks/assistant-platform/pkg/metrics"
)

const classifyPrompt = `Please determine if the following query is asking about weather or information from a document:

Query: %s

If the query is asking about weather in a specific city, respond with "weather".
If the query is asking for information from a document, respond with "document".
If you're not sure, respond with "unknown".

Also, if it's a weather query, extract the city name from the query.

Format your response as a JSON object with two fields:
- type: Either "weather", "document", or "unknown"
- city: The city name (only if type is "weather")

Respond with the JSON object only.`

// Classification is the outcome of classifying a user message. It is a
// result type, not an error: when the model call or its output cannot be
// used, Fallback is set and the verdict degrades to unknown.
type Classification struct {
	Type     QueryType
	City     string
	Fallback bool
}

// Classifier asks the LLM to label a user message as weather, document, or
// unknown.
type Classifier struct {
	client llm.Client
	model  string
	logger *logger.Logger
}

// NewClassifier creates a new query classifier.
func NewClassifier(client llm.Client, model string, log *logger.Logger) *Classifier {
	return &Classifier{
		client: client,
		model:  model,
		logger: log,
	}
}

type classifierVerdict struct {
	Type string `json:"type"`
	City string `json:"city"`
}

// Classify labels a user message. It never fails: any model error or
// unparseable output degrades to an unknown verdict so the turn continues
// into the clarification path.
func (c *Classifier) Classify(ctx context.Context, question string) Classification {
	fallback := Classification{Type: QueryUnknown, Fallback: true}

	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model:       c.model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: fmt.Sprintf(classifyPrompt, question)}},
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		c.logger.Warn("classification call failed, falling back to unknown")
		metrics.ClassificationsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}

	var verdict classifierVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &verdict); err != nil {
		c.logger.Warn("classification output was not valid JSON, falling back to unknown")
		metrics.ClassificationsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}

	result := Classification{Type: QueryType(verdict.Type)}
	switch result.Type {
	case QueryWeather:
		result.City = strings.TrimSpace(verdict.City)
	case QueryDocument, QueryUnknown:
		// City is meaningless outside the weather path.
	default:
		metrics.ClassificationsTotal.WithLabelValues("fallback").Inc()
		return fallback
	}

	metrics.ClassificationsTotal.WithLabelValues(string(result.Type)).Inc()
	return result
}

// stripCodeFence unwraps a markdown-fenced block, which chat models often
// emit around JSON even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
