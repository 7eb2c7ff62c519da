package models

import "errors"

// Общие ошибки приложения
var (
	// Common Resource/Storage Errors
	ErrNotFound = errors.New("resource not found")

	// Game world errors
	ErrGameNotFound      = errors.New("game not found")
	ErrSceneNotFound     = errors.New("scene not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidWorld      = errors.New("game world is invalid")

	// Session errors
	ErrNoActiveSession = errors.New("no active game session")
	ErrGameOver        = errors.New("game is over")

	// General Request/Server Errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
	ErrInvalidInput   = errors.New("invalid input data")
)
