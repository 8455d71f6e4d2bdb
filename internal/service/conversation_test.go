package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

func seedConversation(svc *ConversationService, tenantID string) *model.Conversation {
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TenantID:  tenantID,
		UserID:    "user-1",
		Title:     "seeded",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	svc.mu.Lock()
	svc.conversations[conv.ID] = conv
	svc.mu.Unlock()
	return conv
}

func TestGetEnforcesTenant(t *testing.T) {
	svc := NewConversationService(nil, logger.NewNop())
	conv := seedConversation(svc, "tenant-a")

	got, err := svc.Get(context.Background(), "tenant-a", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = svc.Get(context.Background(), "tenant-b", conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetUnknownConversation(t *testing.T) {
	svc := NewConversationService(nil, logger.NewNop())

	_, err := svc.Get(context.Background(), "tenant-a", uuid.New().String())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestDeleteHidesConversation(t *testing.T) {
	svc := NewConversationService(nil, logger.NewNop())
	conv := seedConversation(svc, "tenant-a")

	require.NoError(t, svc.Delete(context.Background(), "tenant-a", conv.ID))

	_, err := svc.Get(context.Background(), "tenant-a", conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	resp, err := svc.List(context.Background(), "tenant-a", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Conversations)
}

func TestUpdateTitle(t *testing.T) {
	svc := NewConversationService(nil, logger.NewNop())
	conv := seedConversation(svc, "tenant-a")

	got, err := svc.Update(context.Background(), "tenant-a", conv.ID, &model.UpdateConversationRequest{Title: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	_, err = svc.Update(context.Background(), "tenant-b", conv.ID, &model.UpdateConversationRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListPagination(t *testing.T) {
	svc := NewConversationService(nil, logger.NewNop())
	for i := 0; i < 5; i++ {
		seedConversation(svc, "tenant-a")
	}
	seedConversation(svc, "tenant-b")

	resp, err := svc.List(context.Background(), "tenant-a", 2, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Conversations, 2)
	assert.Equal(t, 5, resp.Total)
	assert.True(t, resp.HasMore)

	resp, err = svc.List(context.Background(), "tenant-a", 10, 4)
	require.NoError(t, err)
	assert.Len(t, resp.Conversations, 1)
	assert.False(t, resp.HasMore)
}

func TestUpdateLastMessage(t *testing.T) {
	svc := NewConversationService(nil, logger.NewNop())
	conv := seedConversation(svc, "tenant-a")

	msg := &model.Message{ID: uuid.New().String(), Content: "hi", Role: model.RoleUser}
	require.NoError(t, svc.UpdateLastMessage(context.Background(), "tenant-a", conv.ID, msg))

	got, err := svc.Get(context.Background(), "tenant-a", conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "hi", got.LastMessage.Content)
	assert.Equal(t, 1, got.MessageCount)
}
