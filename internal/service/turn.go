package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nimbusworks/assistant-platform/internal/agent"
	"github.com/nimbusworks/assistant-platform/internal/llm"
	"github.com/nimbusworks/assistant-platform/internal/model"
	natsclient "github.com/nimbusworks/assistant-platform/internal/nats"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
	"github.com/nimbusworks/assistant-platform/pkg/metrics"
)

// historyLimit caps how much conversation history feeds a turn.
const historyLimit = 50

// TurnService executes one conversational turn: it persists the user
// message, runs the query router over the history, and persists the
// assistant response. One user input triggers one complete run to
// completion; turns within a conversation do not interleave.
type TurnService struct {
	streamManager       *natsclient.StreamManager
	conversationService *ConversationService
	router              *agent.Router
	logger              *logger.Logger
}

// NewTurnService creates a new turn service.
func NewTurnService(
	streamManager *natsclient.StreamManager,
	conversationService *ConversationService,
	router *agent.Router,
	log *logger.Logger,
) *TurnService {
	return &TurnService{
		streamManager:       streamManager,
		conversationService: conversationService,
		router:              router,
		logger:              log,
	}
}

// Send runs a full turn. When onToken is non-nil, generated tokens are
// streamed through it before the assistant message is persisted.
func (s *TurnService) Send(
	ctx context.Context,
	tenantID, conversationID string,
	req *model.SendMessageRequest,
	onToken llm.StreamCallback,
) (*model.SendMessageResponse, error) {
	history, _, _, err := s.streamManager.GetMessages(ctx, tenantID, conversationID, 0, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get message history: %w", err)
	}

	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		Role:           model.RoleUser,
		Content:        req.Content,
		CreatedAt:      time.Now(),
	}

	seq, err := s.streamManager.PublishMessage(ctx, userMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to publish user message: %w", err)
	}
	userMsg.Sequence = seq

	s.conversationService.UpdateLastMessage(ctx, tenantID, conversationID, userMsg)
	metrics.MessagesTotal.WithLabelValues(tenantID, string(model.RoleUser)).Inc()

	state, err := s.router.Run(ctx, append(history, *userMsg), onToken)
	if err != nil {
		s.streamManager.PublishEvent(ctx, &model.ConversationEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conversationID,
			TenantID:       tenantID,
			Type:           model.EventTypeError,
			Reason:         err.Error(),
			CreatedAt:      time.Now(),
		})
		return &model.SendMessageResponse{UserMessage: userMsg}, fmt.Errorf("turn failed: %w", err)
	}

	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		Role:           model.RoleAssistant,
		Content:        state.Response,
		QueryType:      string(state.QueryType),
		CreatedAt:      time.Now(),
	}

	seq, err = s.streamManager.PublishMessage(ctx, assistantMsg)
	if err != nil {
		return &model.SendMessageResponse{UserMessage: userMsg}, fmt.Errorf("failed to publish assistant message: %w", err)
	}
	assistantMsg.Sequence = seq

	s.conversationService.UpdateLastMessage(ctx, tenantID, conversationID, assistantMsg)
	metrics.MessagesTotal.WithLabelValues(tenantID, string(model.RoleAssistant)).Inc()

	return &model.SendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// GetMessages retrieves messages for a conversation.
func (s *TurnService) GetMessages(ctx context.Context, tenantID, conversationID string, afterSequence uint64, limit int) (*model.ListMessagesResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	messages, lastSeq, hasMore, err := s.streamManager.GetMessages(ctx, tenantID, conversationID, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	return &model.ListMessagesResponse{
		Messages:     messages,
		HasMore:      hasMore,
		LastSequence: lastSeq,
	}, nil
}
