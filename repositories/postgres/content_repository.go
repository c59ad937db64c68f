package postgres

import (
	"context"
	"fmt"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContentRepository implements the repositories.ContentRepository interface
type ContentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *DB, logger *zap.Logger) repositories.ContentRepository {
	return &ContentRepository{
		db:     db,
		logger: logger,
	}
}

// CreateDocument registers a document in a workspace
func (r *ContentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, name, status, error_message, workspace_id, uploaded_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		doc.ID,
		doc.Name,
		doc.Status,
		doc.ErrorMessage,
		doc.WorkspaceID,
		doc.UploadedByID,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError("create document", err)
	}

	r.logger.Debug("document created", zap.String("id", doc.ID.String()), zap.String("workspace_id", doc.WorkspaceID.String()))
	return nil
}

// ListDocuments lists a workspace's documents, most recently updated first
func (r *ContentRepository) ListDocuments(ctx context.Context, workspaceID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT id, name, status, error_message, workspace_id, uploaded_by_id, created_at, updated_at
		FROM documents
		WHERE workspace_id = $1
		ORDER BY updated_at DESC
	`

	docs := []*models.Document{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &docs, query, workspaceID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// CreateConversation starts a conversation in a workspace
func (r *ContentRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (id, topic, workspace_id, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		conv.ID,
		conv.Topic,
		conv.WorkspaceID,
		conv.CreatedByID,
		conv.CreatedAt,
	)
	if err != nil {
		return wrapWriteError("create conversation", err)
	}

	r.logger.Debug("conversation created", zap.String("id", conv.ID.String()))
	return nil
}

// GetConversation retrieves a conversation by ID
func (r *ContentRepository) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, topic, workspace_id, created_by_id, created_at
		FROM conversations
		WHERE id = $1
	`

	conv := &models.Conversation{}
	if err := GetExecutor(ctx, r.db).GetContext(ctx, conv, query, id); err != nil {
		return nil, wrapReadError("conversation", id, err)
	}
	return conv, nil
}

// ListConversations lists a workspace's conversations, newest first
func (r *ContentRepository) ListConversations(ctx context.Context, workspaceID uuid.UUID) ([]*models.Conversation, error) {
	query := `
		SELECT id, topic, workspace_id, created_by_id, created_at
		FROM conversations
		WHERE workspace_id = $1
		ORDER BY created_at DESC
	`

	convs := []*models.Conversation{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &convs, query, workspaceID); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// CreateMessage appends a message to a conversation
func (r *ContentRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, content, role, conversation_id, sources, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var sources interface{}
	if len(msg.Sources) > 0 {
		sources = []byte(msg.Sources)
	}

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		msg.ID,
		msg.Content,
		msg.Role,
		msg.ConversationID,
		sources,
		msg.CreatedAt,
	)
	if err != nil {
		return wrapWriteError("create message", err)
	}
	return nil
}

// ListMessages lists a conversation's messages in chronological order
func (r *ContentRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	query := `
		SELECT id, content, role, conversation_id, COALESCE(sources, '[]'::jsonb) AS sources, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	msgs := []*models.Message{}
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &msgs, query, conversationID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}
