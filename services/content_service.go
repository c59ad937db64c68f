package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgContentValidationFailed = "Validation failed. Please check the fields."
	MsgContentWriteDenied      = "You don't have permission to add content to this workspace."
	MsgConversationNotFound    = "Conversation not found."
)

// CreateDocumentInput registers a placeholder document
type CreateDocumentInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (CreateDocumentInput) ValidationMessages() map[string]string {
	return map[string]string{
		"name.required": "Document name is required.",
		"name.max":      "Document name must not exceed 255 characters.",
	}
}

// CreateConversationInput starts a conversation
type CreateConversationInput struct {
	Topic string `json:"topic" validate:"required,max=200"`
}

func (CreateConversationInput) ValidationMessages() map[string]string {
	return map[string]string{
		"topic.required": "Topic is required.",
		"topic.max":      "Topic must not exceed 200 characters.",
	}
}

// AddMessageInput appends a message to a conversation. Role defaults to user.
type AddMessageInput struct {
	Content string          `json:"content" validate:"required"`
	Role    string          `json:"role" validate:"omitempty,oneof=user assistant"`
	Sources json.RawMessage `json:"sources,omitempty"`
}

func (AddMessageInput) ValidationMessages() map[string]string {
	return map[string]string{
		"content.required": "Message content is required.",
		"role.oneof":       "Role must be either user or assistant.",
	}
}

// ContentService manages the placeholder documents, conversations and messages of
// a workspace. Reads need any workspace role; writes need admin or editor.
type ContentService struct {
	content    repositories.ContentRepository
	workspaces repositories.WorkspaceRepository
	members    repositories.WorkspaceMemberRepository
	cache      WorkspaceListCache
	audit      AuditRecorder
	logger     *zap.Logger
}

// NewContentService creates a new ContentService instance
func NewContentService(repos *repositories.Repositories, cache WorkspaceListCache, audit AuditRecorder, logger *zap.Logger) *ContentService {
	return &ContentService{
		content:    repos.Content,
		workspaces: repos.Workspaces,
		members:    repos.WorkspaceMembers,
		cache:      cache,
		audit:      audit,
		logger:     logger,
	}
}

// CreateDocument registers a pending document in the workspace
func (s *ContentService) CreateDocument(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, input CreateDocumentInput) (*models.Document, error) {
	if err := validateInput(input, MsgContentValidationFailed); err != nil {
		return nil, err
	}
	ws, err := s.authorizeWrite(ctx, id, workspaceID)
	if err != nil {
		return nil, err
	}

	doc := models.NewDocument(workspaceID, id.UserID, input.Name)
	if err := s.content.CreateDocument(ctx, doc); err != nil {
		s.logger.Error("failed to create document", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	s.afterWrite(ctx, id, ws, models.AuditActionDocumentCreated, "document", doc.ID)
	return doc, nil
}

// ListDocuments lists the workspace's documents
func (s *ContentService) ListDocuments(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.Document, error) {
	if err := s.authorizeRead(ctx, id, workspaceID); err != nil {
		return nil, err
	}
	docs, err := s.content.ListDocuments(ctx, workspaceID)
	if err != nil {
		s.logger.Error("failed to list documents", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return docs, nil
}

// CreateConversation starts a conversation in the workspace
func (s *ContentService) CreateConversation(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, input CreateConversationInput) (*models.Conversation, error) {
	if err := validateInput(input, MsgContentValidationFailed); err != nil {
		return nil, err
	}
	ws, err := s.authorizeWrite(ctx, id, workspaceID)
	if err != nil {
		return nil, err
	}

	conv := models.NewConversation(workspaceID, id.UserID, input.Topic)
	if err := s.content.CreateConversation(ctx, conv); err != nil {
		s.logger.Error("failed to create conversation", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}

	s.afterWrite(ctx, id, ws, models.AuditActionConversationCreated, "conversation", conv.ID)
	return conv, nil
}

// ListConversations lists the workspace's conversations
func (s *ContentService) ListConversations(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.Conversation, error) {
	if err := s.authorizeRead(ctx, id, workspaceID); err != nil {
		return nil, err
	}
	convs, err := s.content.ListConversations(ctx, workspaceID)
	if err != nil {
		s.logger.Error("failed to list conversations", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return convs, nil
}

// AddMessage appends a message to a conversation
func (s *ContentService) AddMessage(ctx context.Context, id *auth.Identity, conversationID uuid.UUID, input AddMessageInput) (*models.Message, error) {
	if err := validateInput(input, MsgContentValidationFailed); err != nil {
		return nil, err
	}
	if len(input.Sources) > 0 && !json.Valid(input.Sources) {
		return nil, NewValidationError(MsgContentValidationFailed, map[string]string{"sources": "Sources must be valid JSON."})
	}

	conv, err := s.conversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeWrite(ctx, id, conv.WorkspaceID); err != nil {
		return nil, err
	}

	role := models.MessageRole(input.Role)
	if role == "" {
		role = models.MessageRoleUser
	}

	msg := models.NewMessage(conversationID, role, input.Content, input.Sources)
	if err := s.content.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("failed to create message", zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return msg, nil
}

// ListMessages lists a conversation's messages in order
func (s *ContentService) ListMessages(ctx context.Context, id *auth.Identity, conversationID uuid.UUID) ([]*models.Message, error) {
	conv, err := s.conversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, id, conv.WorkspaceID); err != nil {
		return nil, err
	}

	msgs, err := s.content.ListMessages(ctx, conversationID)
	if err != nil {
		s.logger.Error("failed to list messages", zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return msgs, nil
}

func (s *ContentService) conversation(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.content.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError(MsgConversationNotFound)
		}
		s.logger.Error("failed to load conversation", zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return conv, nil
}

func (s *ContentService) authorizeRead(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) error {
	_, err := s.role(ctx, id, workspaceID)
	return err
}

// authorizeWrite checks the caller can write and returns the workspace
func (s *ContentService) authorizeWrite(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) (*models.Workspace, error) {
	role, err := s.role(ctx, id, workspaceID)
	if err != nil {
		return nil, err
	}
	if !role.CanWrite() {
		return nil, NewForbiddenError(MsgContentWriteDenied)
	}

	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, WrapInternal(MsgUnexpected, err)
	}
	return ws, nil
}

func (s *ContentService) role(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) (models.WorkspaceRole, error) {
	return resolveWorkspaceRole(ctx, s.members, s.logger, id, workspaceID)
}

// afterWrite refreshes listing aggregates and records the audit entry
func (s *ContentService) afterWrite(ctx context.Context, id *auth.Identity, ws *models.Workspace, action models.AuditAction, resourceType string, resourceID uuid.UUID) {
	s.cache.Invalidate(ctx, ws.OrganizationID)
	s.audit.Record(ctx, models.NewAuditLog(action, resourceType).
		WithOrganization(ws.OrganizationID).
		WithUser(id.UserID).
		WithResource(resourceID).
		WithDetails(map[string]string{"workspaceId": ws.ID.String()}).
		WithRequest("", id.IPAddress, id.UserAgent))
}
