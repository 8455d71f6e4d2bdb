package agent

import (
	"context"
	"errors"
	"time"

	"github.com/nimbusworks/assistant-platform/internal/generate"
	"github.com/nimbusworks/assistant-platform/internal/llm"
	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/internal/weather"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
	"github.com/nimbusworks/assistant-platform/pkg/metrics"
)

// ErrEmptyHistory is returned when a turn is started with no messages.
var ErrEmptyHistory = errors.New("conversation history is empty")

// QueryClassifier labels the latest user message.
type QueryClassifier interface {
	Classify(ctx context.Context, question string) Classification
}

// WeatherProvider fetches current conditions for a city.
type WeatherProvider interface {
	Current(ctx context.Context, city string) weather.Report
}

// Retriever performs top-k similarity search over stored document chunks.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedChunk, error)
}

// ResponseGenerator turns routed context into assistant text.
type ResponseGenerator interface {
	WeatherAnswer(ctx context.Context, weatherText, question string, onToken llm.StreamCallback) (string, error)
	DocumentAnswer(ctx context.Context, passages []model.RetrievedChunk, question string, onToken llm.StreamCallback) (string, error)
}

// Router drives one conversational turn through the routing state machine:
// classify the latest user message, branch on the verdict, and generate the
// assistant response.
type Router struct {
	classifier QueryClassifier
	weather    WeatherProvider
	retriever  Retriever
	generator  ResponseGenerator
	logger     *logger.Logger
}

// NewRouter creates a query router.
func NewRouter(
	classifier QueryClassifier,
	weatherProvider WeatherProvider,
	retriever Retriever,
	generator ResponseGenerator,
	log *logger.Logger,
) *Router {
	return &Router{
		classifier: classifier,
		weather:    weatherProvider,
		retriever:  retriever,
		generator:  generator,
		logger:     log,
	}
}

// Run executes one turn over the given history. The last message must be
// the user message being answered. On success the returned state is at
// StageResponded with the assistant message appended to Messages. Run must
// be invoked exactly once per turn; re-running the same state would append
// a duplicate assistant message.
func (r *Router) Run(ctx context.Context, messages []model.Message, onToken llm.StreamCallback) (QueryState, error) {
	state := QueryState{
		Messages:  messages,
		QueryType: QueryUnknown,
		Stage:     StageStart,
	}

	if len(messages) == 0 {
		return state, ErrEmptyHistory
	}

	state = r.classify(ctx, state)

	var err error
	switch state.QueryType {
	case QueryWeather:
		state, err = r.fetchWeather(ctx, state, onToken)
	case QueryDocument:
		state, err = r.queryDocuments(ctx, state, onToken)
	case QueryUnknown:
		// Straight to the clarification response.
	}
	if err != nil {
		return state, err
	}
	state.Stage = StageRouted

	state, err = r.respond(state, onToken)
	if err != nil {
		return state, err
	}

	metrics.TurnsTotal.WithLabelValues(string(state.QueryType)).Inc()
	return state, nil
}

// classify consults only the latest user message. Classification failures
// degrade to unknown inside the classifier; this step never fails a turn.
func (r *Router) classify(ctx context.Context, state QueryState) QueryState {
	verdict := r.classifier.Classify(ctx, state.Question())

	state.QueryType = verdict.Type
	state.City = verdict.City
	state.Stage = StageClassified
	return state
}

// fetchWeather is a no-op unless the turn was classified as weather. An
// empty extracted city is passed through to the gateway unchanged: the
// provider rejects it and the error record becomes the generation context.
func (r *Router) fetchWeather(ctx context.Context, state QueryState, onToken llm.StreamCallback) (QueryState, error) {
	if state.QueryType != QueryWeather {
		return state, nil
	}

	report := r.weather.Current(ctx, state.City)
	formatted := weather.Format(report)

	response, err := r.generator.WeatherAnswer(ctx, formatted, state.Question(), onToken)
	if err != nil {
		return state, err
	}

	state.Response = response
	return state, nil
}

// queryDocuments is a no-op unless the turn was classified as document.
func (r *Router) queryDocuments(ctx context.Context, state QueryState, onToken llm.StreamCallback) (QueryState, error) {
	if state.QueryType != QueryDocument {
		return state, nil
	}

	passages, err := r.retriever.Retrieve(ctx, state.Question(), 5)
	if err != nil {
		return state, err
	}
	state.Documents = passages

	response, err := r.generator.DocumentAnswer(ctx, passages, state.Question(), onToken)
	if err != nil {
		return state, err
	}

	state.Response = response
	return state, nil
}

// respond is the terminal step: unknown turns get the fixed clarification
// message, and the assistant message is appended to the history.
func (r *Router) respond(state QueryState, onToken llm.StreamCallback) (QueryState, error) {
	if state.QueryType == QueryUnknown {
		state.Response = generate.Clarification
		if onToken != nil {
			if err := onToken(state.Response, 0); err != nil {
				return state, err
			}
		}
	}

	state.Messages = append(state.Messages, model.Message{
		Role:      model.RoleAssistant,
		Content:   state.Response,
		QueryType: string(state.QueryType),
		CreatedAt: time.Now(),
	})
	state.Stage = StageResponded

	return state, nil
}
