package models

// ErrorResponse - стандартное тело ответа с ошибкой.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Коды ошибок API
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeNoSession       = "NO_ACTIVE_SESSION"
	ErrCodeGameOver        = "GAME_OVER"
	ErrCodeTurnFailed      = "TURN_FAILED"
	ErrCodeBackendFailure  = "AI_BACKEND_FAILURE"
	ErrCodeUnexpectedInput = "UNEXPECTED_INPUT"
)
