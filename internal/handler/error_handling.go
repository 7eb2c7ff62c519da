package handler

import (
	"errors"
	"net/http"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"
	"adventure-server/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *GameHandler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, session.ErrEmptyMessage):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrGameNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Game not found"}
	case errors.Is(err, models.ErrNoActiveSession):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeNoSession, Message: "No game has been started"}
	case errors.Is(err, models.ErrGameOver):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeGameOver, Message: "The game is over"}
	case errors.Is(err, session.ErrUnexpectedRequest):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeUnexpectedInput, Message: err.Error()}
	case errors.Is(err, conversation.ErrBackend), errors.Is(err, session.ErrRunFailed), errors.Is(err, session.ErrRunStalled):
		h.logger.Error("AI backend failure", zap.Error(err))
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeBackendFailure, Message: "The story engine did not respond, try again"}
	default:
		h.logger.Error("Unhandled error in game turn", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeTurnFailed, Message: "The turn could not be completed"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
