package handlers

import (
	"net/http"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/middleware"
	"github.com/cogzy/cogzy-api/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MsgInvalidRequestBody is returned when a request body is not the expected JSON object
const MsgInvalidRequestBody = "Invalid request body."

// identity returns the identity RequireAuth placed on the request, or nil
func identity(r *http.Request) *auth.Identity {
	return middleware.GetIdentityFromContext(r.Context())
}

// decodeBody decodes the JSON body into dst. On failure it writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		logger.Warn("failed to parse request body",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, MsgInvalidRequestBody, nil)
		return false
	}
	return true
}

// pathUUID parses a UUID URL parameter
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
