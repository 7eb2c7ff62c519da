package handler

import "adventure-server/internal/models"

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

type tradeResponseRequest struct {
	// указатель, чтобы отличить false от отсутствующего поля
	Accept *bool `json:"accept" binding:"required"`
}

type sessionResponse struct {
	State string           `json:"state"`
	Game  models.GameState `json:"game"`
}

type gamesResponse struct {
	Games []string `json:"games"`
}
