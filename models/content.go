package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks a document through upload and processing
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusUploading  DocumentStatus = "uploading"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// MessageRole identifies the author of a conversation message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Document is a file registered in a workspace
type Document struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Status       DocumentStatus `json:"status" db:"status"`
	ErrorMessage *string        `json:"errorMessage,omitempty" db:"error_message"`
	WorkspaceID  uuid.UUID      `json:"workspaceId" db:"workspace_id"`
	UploadedByID *uuid.UUID     `json:"uploadedById,omitempty" db:"uploaded_by_id"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// NewDocument creates a pending document
func NewDocument(workspaceID, uploadedBy uuid.UUID, name string) *Document {
	now := time.Now()
	return &Document{
		ID:           uuid.New(),
		Name:         name,
		Status:       DocumentStatusPending,
		WorkspaceID:  workspaceID,
		UploadedByID: &uploadedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Conversation is a chat thread inside a workspace
type Conversation struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Topic       string     `json:"topic" db:"topic"`
	WorkspaceID uuid.UUID  `json:"workspaceId" db:"workspace_id"`
	CreatedByID *uuid.UUID `json:"createdById,omitempty" db:"created_by_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// NewConversation creates a new Conversation instance
func NewConversation(workspaceID, createdBy uuid.UUID, topic string) *Conversation {
	return &Conversation{
		ID:          uuid.New(),
		Topic:       topic,
		WorkspaceID: workspaceID,
		CreatedByID: &createdBy,
		CreatedAt:   time.Now(),
	}
}

// Message is a single entry in a conversation. Sources holds citation metadata as JSON.
type Message struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Content        string          `json:"content" db:"content"`
	Role           MessageRole     `json:"role" db:"role"`
	ConversationID uuid.UUID       `json:"conversationId" db:"conversation_id"`
	Sources        json.RawMessage `json:"sources,omitempty" db:"sources"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// NewMessage creates a new Message instance
func NewMessage(conversationID uuid.UUID, role MessageRole, content string, sources json.RawMessage) *Message {
	return &Message{
		ID:             uuid.New(),
		Content:        content,
		Role:           role,
		ConversationID: conversationID,
		Sources:        sources,
		CreatedAt:      time.Now(),
	}
}
