package handlers

import (
	"context"
	"net/http"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services"
	"github.com/cogzy/cogzy-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContentService defines the document and conversation operations the handler needs
type ContentService interface {
	CreateDocument(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, input services.CreateDocumentInput) (*models.Document, error)
	ListDocuments(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.Document, error)
	CreateConversation(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID, input services.CreateConversationInput) (*models.Conversation, error)
	ListConversations(ctx context.Context, id *auth.Identity, workspaceID uuid.UUID) ([]*models.Conversation, error)
	AddMessage(ctx context.Context, id *auth.Identity, conversationID uuid.UUID, input services.AddMessageInput) (*models.Message, error)
	ListMessages(ctx context.Context, id *auth.Identity, conversationID uuid.UUID) ([]*models.Message, error)
}

// ContentHandler handles documents, conversations and messages
type ContentHandler struct {
	service ContentService
	logger  *zap.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(service ContentService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ContentHandler) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(r, "workspaceID")
	if !ok {
		_ = utils.WriteNotFound(w, MsgWorkspaceNotFound)
		return
	}
	var input services.CreateDocumentInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	doc, err := h.service.CreateDocument(r.Context(), identity(r), workspaceID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, "", doc)
}

func (h *ContentHandler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(r, "workspaceID")
	if !ok {
		_ = utils.WriteNotFound(w, MsgWorkspaceNotFound)
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), identity(r), workspaceID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, "", docs)
}

func (h *ContentHandler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(r, "workspaceID")
	if !ok {
		_ = utils.WriteNotFound(w, MsgWorkspaceNotFound)
		return
	}
	var input services.CreateConversationInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	conv, err := h.service.CreateConversation(r.Context(), identity(r), workspaceID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, "", conv)
}

func (h *ContentHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := pathUUID(r, "workspaceID")
	if !ok {
		_ = utils.WriteNotFound(w, MsgWorkspaceNotFound)
		return
	}

	convs, err := h.service.ListConversations(r.Context(), identity(r), workspaceID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, "", convs)
}

func (h *ContentHandler) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(r, "conversationID")
	if !ok {
		_ = utils.WriteNotFound(w, services.MsgConversationNotFound)
		return
	}
	var input services.AddMessageInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	msg, err := h.service.AddMessage(r.Context(), identity(r), conversationID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, "", msg)
}

func (h *ContentHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(r, "conversationID")
	if !ok {
		_ = utils.WriteNotFound(w, services.MsgConversationNotFound)
		return
	}

	msgs, err := h.service.ListMessages(r.Context(), identity(r), conversationID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, "", msgs)
}
