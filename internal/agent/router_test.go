package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusworks/assistant-platform/internal/generate"
	"github.com/nimbusworks/assistant-platform/internal/llm"
	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/internal/weather"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

type stubClassifier struct {
	verdict Classification
}

func (s *stubClassifier) Classify(ctx context.Context, question string) Classification {
	return s.verdict
}

type stubWeather struct {
	calls  int
	city   string
	report weather.Report
}

func (s *stubWeather) Current(ctx context.Context, city string) weather.Report {
	s.calls++
	s.city = city
	return s.report
}

type stubRetriever struct {
	calls  int
	query  string
	k      int
	chunks []model.RetrievedChunk
	err    error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedChunk, error) {
	s.calls++
	s.query = query
	s.k = k
	return s.chunks, s.err
}

type stubGenerator struct {
	weatherCalls  int
	documentCalls int
	weatherText   string
	passages      []model.RetrievedChunk
	response      string
	err           error
}

func (s *stubGenerator) WeatherAnswer(ctx context.Context, weatherText, question string, onToken llm.StreamCallback) (string, error) {
	s.weatherCalls++
	s.weatherText = weatherText
	return s.response, s.err
}

func (s *stubGenerator) DocumentAnswer(ctx context.Context, passages []model.RetrievedChunk, question string, onToken llm.StreamCallback) (string, error) {
	s.documentCalls++
	s.passages = passages
	return s.response, s.err
}

func history(contents ...string) []model.Message {
	msgs := make([]model.Message, 0, len(contents))
	for _, c := range contents {
		msgs = append(msgs, model.Message{Role: model.RoleUser, Content: c})
	}
	return msgs
}

func TestRunEmptyHistory(t *testing.T) {
	r := NewRouter(&stubClassifier{}, &stubWeather{}, &stubRetriever{}, &stubGenerator{}, logger.NewNop())

	_, err := r.Run(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrEmptyHistory)
}

func TestRunWeatherPath(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryWeather, City: "Paris"}}
	gateway := &stubWeather{report: weather.Report{Reading: &weather.Reading{
		City: "Paris", Country: "FR", Temp: 18.5, FeelsLike: 17.9, Humidity: 65, WindSpeed: 3.6, Description: "clear sky",
	}}}
	retriever := &stubRetriever{}
	gen := &stubGenerator{response: "It is 18.5°C in Paris."}

	r := NewRouter(classifier, gateway, retriever, gen, logger.NewNop())

	state, err := r.Run(context.Background(), history("What's the weather in Paris?"), nil)
	require.NoError(t, err)

	assert.Equal(t, QueryWeather, state.QueryType)
	assert.Equal(t, "Paris", state.City)
	assert.Equal(t, StageResponded, state.Stage)
	assert.Equal(t, "It is 18.5°C in Paris.", state.Response)

	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, "Paris", gateway.city)

	// The generation context is the formatted conditions block.
	assert.Contains(t, gen.weatherText, "Weather in Paris, FR:")
	assert.Contains(t, gen.weatherText, "- Temperature: 18.5°C")

	// The weather path never touches the retriever.
	assert.Zero(t, retriever.calls)
	assert.Zero(t, gen.documentCalls)
}

func TestRunWeatherPathProviderFailure(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryWeather, City: "Atlantis"}}
	gateway := &stubWeather{report: weather.Report{Err: "city not found"}}
	gen := &stubGenerator{response: "I could not find that city."}

	r := NewRouter(classifier, gateway, &stubRetriever{}, gen, logger.NewNop())

	state, err := r.Run(context.Background(), history("weather in Atlantis"), nil)
	require.NoError(t, err)

	// The failure is generation context, not a turn error.
	assert.Equal(t, "Error: city not found", gen.weatherText)
	assert.Equal(t, StageResponded, state.Stage)
}

func TestRunDocumentPath(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryDocument}}
	gateway := &stubWeather{}
	retriever := &stubRetriever{chunks: []model.RetrievedChunk{
		{Source: "report.txt", Index: 0, Text: "Revenue grew 12%.", Score: 0.91},
	}}
	gen := &stubGenerator{response: "Revenue grew 12%."}

	r := NewRouter(classifier, gateway, retriever, gen, logger.NewNop())

	state, err := r.Run(context.Background(), history("What does the report say about revenue?"), nil)
	require.NoError(t, err)

	assert.Equal(t, QueryDocument, state.QueryType)
	assert.Equal(t, 1, retriever.calls)
	assert.Equal(t, "What does the report say about revenue?", retriever.query)
	assert.Equal(t, 5, retriever.k)
	assert.Equal(t, retriever.chunks, state.Documents)
	assert.Equal(t, retriever.chunks, gen.passages)

	// The document path never touches the weather gateway.
	assert.Zero(t, gateway.calls)
	assert.Zero(t, gen.weatherCalls)
}

func TestRunDocumentPathRetrieverError(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryDocument}}
	retriever := &stubRetriever{err: errors.New("vector store down")}
	gen := &stubGenerator{}

	r := NewRouter(classifier, &stubWeather{}, retriever, gen, logger.NewNop())

	_, err := r.Run(context.Background(), history("what does the report say"), nil)
	require.Error(t, err)
	assert.Zero(t, gen.documentCalls)
}

func TestRunUnknownPath(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryUnknown, Fallback: true}}
	gateway := &stubWeather{}
	retriever := &stubRetriever{}
	gen := &stubGenerator{}

	r := NewRouter(classifier, gateway, retriever, gen, logger.NewNop())

	state, err := r.Run(context.Background(), history("hello"), nil)
	require.NoError(t, err)

	assert.Equal(t, generate.Clarification, state.Response)
	assert.Equal(t, StageResponded, state.Stage)

	// No external call happens on the unknown path.
	assert.Zero(t, gateway.calls)
	assert.Zero(t, retriever.calls)
	assert.Zero(t, gen.weatherCalls)
	assert.Zero(t, gen.documentCalls)
}

func TestRunUnknownPathStreamsClarification(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryUnknown}}
	r := NewRouter(classifier, &stubWeather{}, &stubRetriever{}, &stubGenerator{}, logger.NewNop())

	var streamed string
	_, err := r.Run(context.Background(), history("hello"), func(token string, index int) error {
		streamed += token
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, generate.Clarification, streamed)
}

func TestRunAppendsAssistantMessage(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryWeather, City: "Oslo"}}
	gateway := &stubWeather{report: weather.Report{Reading: &weather.Reading{City: "Oslo", Country: "NO"}}}
	gen := &stubGenerator{response: "Cold."}

	r := NewRouter(classifier, gateway, &stubRetriever{}, gen, logger.NewNop())

	msgs := history("weather in Oslo")
	state, err := r.Run(context.Background(), msgs, nil)
	require.NoError(t, err)

	require.Len(t, state.Messages, 2)
	last := state.Messages[len(state.Messages)-1]
	assert.Equal(t, model.RoleAssistant, last.Role)
	assert.Equal(t, "Cold.", last.Content)
	assert.Equal(t, string(QueryWeather), last.QueryType)
}

func TestRunUsesLatestMessage(t *testing.T) {
	classifier := &stubClassifier{verdict: Classification{Type: QueryDocument}}
	retriever := &stubRetriever{}
	gen := &stubGenerator{response: "ok"}

	r := NewRouter(classifier, &stubWeather{}, retriever, gen, logger.NewNop())

	msgs := history("weather in Paris", "what does the report say")
	_, err := r.Run(context.Background(), msgs, nil)
	require.NoError(t, err)

	assert.Equal(t, "what does the report say", retriever.query)
}
