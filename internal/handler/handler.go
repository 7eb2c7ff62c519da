package handler

import (
	"context"
	"net/http"

	"adventure-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GameAPI - командная поверхность игры, которую обслуживает HTTP слой.
type GameAPI interface {
	StartGame(ctx context.Context, gameID string) (models.GameState, error)
	ReceivePlayerMessage(ctx context.Context, text string) (models.GameState, error)
	ReceiveTradeResponse(ctx context.Context, accept bool) (models.GameState, error)
	EndCharacterInteraction(ctx context.Context) (models.GameState, error)
	Snapshot() (models.GameState, string, error)
}

// GameCatalog перечисляет доступные игры.
type GameCatalog interface {
	List(ctx context.Context) ([]string, error)
}

type GameHandler struct {
	games   GameAPI
	catalog GameCatalog
	logger  *zap.Logger
}

func NewGameHandler(games GameAPI, catalog GameCatalog, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		games:   games,
		catalog: catalog,
		logger:  logger.Named("GameHandler"),
	}
}

// RegisterRoutes регистрирует маршруты игры под /api. auth применяется ко всей группе.
func (h *GameHandler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("/api", auth)
	{
		api.GET("/games", h.listGames)
		api.POST("/games/:game_id/start", h.startGame)

		api.GET("/session", h.getSession)
		api.POST("/session/messages", h.sendMessage)
		api.POST("/session/trade-response", h.tradeResponse)
		api.POST("/session/end-interaction", h.endInteraction)
	}
}

func (h *GameHandler) listGames(c *gin.Context) {
	ids, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gamesResponse{Games: ids})
}

func (h *GameHandler) startGame(c *gin.Context) {
	gs, err := h.games.StartGame(c.Request.Context(), c.Param("game_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondState(c, http.StatusCreated, gs)
}

func (h *GameHandler) getSession(c *gin.Context) {
	gs, state, err := h.games.Snapshot()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{State: state, Game: gs})
}

func (h *GameHandler) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid message request", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "text is required"})
		return
	}
	gs, err := h.games.ReceivePlayerMessage(c.Request.Context(), req.Text)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondState(c, http.StatusOK, gs)
}

func (h *GameHandler) tradeResponse(c *gin.Context) {
	var req tradeResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid trade response request", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "accept is required"})
		return
	}
	gs, err := h.games.ReceiveTradeResponse(c.Request.Context(), *req.Accept)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondState(c, http.StatusOK, gs)
}

func (h *GameHandler) endInteraction(c *gin.Context) {
	gs, err := h.games.EndCharacterInteraction(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondState(c, http.StatusOK, gs)
}

// respondState отвечает состоянием после хода вместе с именем состояния сессии.
func (h *GameHandler) respondState(c *gin.Context, status int, gs models.GameState) {
	_, state, err := h.games.Snapshot()
	if err != nil {
		h.logger.Warn("Session vanished after turn", zap.Error(err))
	}
	c.JSON(status, sessionResponse{State: state, Game: gs})
}
