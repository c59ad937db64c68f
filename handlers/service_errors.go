package handlers

import (
	"net/http"

	"github.com/cogzy/cogzy-api/services"
	"github.com/cogzy/cogzy-api/utils"
	"go.uber.org/zap"
)

const msgUnexpected = "An unexpected error occurred."

// HandleServiceError maps domain errors to action results. Internal and external
// errors are logged in full; the client only sees the operation's public message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := services.PublicMessage(err)

	switch {
	case services.IsValidationError(err):
		_ = utils.WriteBadRequest(w, message, services.GetValidationFields(err))

	case services.IsUnauthorizedError(err):
		_ = utils.WriteUnauthorized(w, message)

	case services.IsForbiddenError(err):
		_ = utils.WriteForbidden(w, message)

	case services.IsNotFoundError(err):
		_ = utils.WriteNotFound(w, message)

	case services.IsConflictError(err):
		_ = utils.WriteConflict(w, message)

	case services.IsRateLimitError(err):
		_ = utils.WriteTooManyRequests(w, message)

	case services.IsExternalError(err):
		logger.Error("external service error", zap.Error(err))
		_ = utils.WriteError(w, http.StatusBadGateway, orDefault(message), nil)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, orDefault(message))

	default:
		logger.Error("unhandled error type", zap.Error(err))
		_ = utils.WriteInternalServerError(w, msgUnexpected)
	}
}

func orDefault(message string) string {
	if message == "" {
		return msgUnexpected
	}
	return message
}
