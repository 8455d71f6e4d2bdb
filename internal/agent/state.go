// Package agent routes a user's message to the weather, document, or
// clarification path and drives the per-turn state machine.
package agent

import (
	"github.com/nimbusworks/assistant-platform/internal/model"
)

// QueryType is the classifier's verdict for a user message.
type QueryType string

const (
	QueryWeather  QueryType = "weather"
	QueryDocument QueryType = "document"
	QueryUnknown  QueryType = "unknown"
)

// Stage is the position of a turn inside the routing state machine. A turn
// moves strictly forward: Start, Classified, Routed, Responded.
type Stage int

const (
	StageStart Stage = iota
	StageClassified
	StageRouted
	StageResponded
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageClassified:
		return "classified"
	case StageRouted:
		return "routed"
	case StageResponded:
		return "responded"
	default:
		return "unknown"
	}
}

// QueryState is the per-turn working record threaded through the routing
// steps. It is created fresh at the start of a turn and discarded once the
// assistant message has been appended.
type QueryState struct {
	// Messages is the running conversation history. The terminal step
	// appends the assistant response to it.
	Messages []model.Message

	// QueryType is the classifier's verdict for the latest user message.
	QueryType QueryType

	// City is populated only when QueryType is weather.
	City string

	// Response is the generated assistant text, populated by whichever
	// routed step ran (or the clarification fallback).
	Response string

	// Documents holds the passages retrieved on the document path. They
	// feed generation but are not surfaced to the end user.
	Documents []model.RetrievedChunk

	// Stage is the turn's position in the state machine.
	Stage Stage
}

// Question returns the content of the latest message, which is the one the
// turn is answering.
func (s *QueryState) Question() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}
