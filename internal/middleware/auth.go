package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adventure-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// PlayerIDKey - ключ gin.Context с идентификатором игрока из токена.
const PlayerIDKey = "player_id"

// Auth проверяет bearer токен HS256. Пустой secret отключает проверку.
func Auth(secret string, log *zap.Logger) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			log.Warn("Missing or malformed Authorization header", zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			log.Warn("Token verification failed", zap.Error(err))
			abortUnauthorized(c, msg)
			return
		}
		if claims.Subject == "" {
			abortUnauthorized(c, "token has no subject")
			return
		}

		c.Set(PlayerIDKey, claims.Subject)
		c.Next()
	}
}

// bearerToken берет токен из заголовка Authorization, для websocket также из ?token=.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		return token, ok && strings.EqualFold(scheme, "bearer") && token != ""
	}
	token := c.Query("token")
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: msg})
}

// IssueToken подписывает токен игрока.
func IssueToken(secret, playerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
