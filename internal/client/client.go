// Package client - HTTP и websocket клиент сервера игры для терминального интерфейса.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"adventure-server/internal/hub"
	"adventure-server/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionView - ответ сервера на команду: состояние игры и имя состояния сессии.
type SessionView struct {
	State string           `json:"state"`
	Game  models.GameState `json:"game"`
}

// APIError - ошибка, которую вернул сервер.
type APIError struct {
	Status int
	models.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *resty.Client
	logger     *zap.Logger
}

func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "adventure-play/1.0").
		SetTimeout(timeout)
	if token != "" {
		httpClient.SetAuthToken(token)
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		logger:     logger.Named("Client"),
	}
}

func (c *Client) ListGames(ctx context.Context) ([]string, error) {
	var resp struct {
		Games []string `json:"games"`
	}
	if err := c.do(ctx, "GET", "/api/games", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *Client) StartGame(ctx context.Context, gameID string) (*SessionView, error) {
	return c.command(ctx, "/api/games/"+url.PathEscape(gameID)+"/start", nil)
}

func (c *Client) SendMessage(ctx context.Context, text string) (*SessionView, error) {
	return c.command(ctx, "/api/session/messages", map[string]string{"text": text})
}

func (c *Client) RespondTrade(ctx context.Context, accept bool) (*SessionView, error) {
	return c.command(ctx, "/api/session/trade-response", map[string]bool{"accept": accept})
}

func (c *Client) EndInteraction(ctx context.Context) (*SessionView, error) {
	return c.command(ctx, "/api/session/end-interaction", nil)
}

func (c *Client) Session(ctx context.Context) (*SessionView, error) {
	var view SessionView
	if err := c.do(ctx, "GET", "/api/session", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) command(ctx context.Context, path string, body any) (*SessionView, error) {
	var view SessionView
	if err := c.do(ctx, "POST", path, body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var apiErr models.ErrorResponse
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&apiErr)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		c.logger.Debug("Server returned error", zap.String("path", path), zap.Int("status", resp.StatusCode()), zap.String("code", apiErr.Code))
		return &APIError{Status: resp.StatusCode(), ErrorResponse: apiErr}
	}
	return nil
}

// Subscribe подключается к потоку снимков. Канал закрывается, когда
// соединение обрывается или ctx отменен.
func (c *Client) Subscribe(ctx context.Context) (<-chan models.GameState, error) {
	wsURL, err := c.websocketURL()
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial snapshot stream: %w", err)
	}

	out := make(chan models.GameState, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(out)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("Snapshot stream closed", zap.Error(err))
				}
				return
			}
			var msg hub.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				c.logger.Warn("Malformed snapshot frame", zap.Error(err))
				continue
			}
			if msg.Type != hub.MessageTypeSnapshot {
				continue
			}
			select {
			case out <- msg.State:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
