package handlers

import (
	"net/http"
	"time"

	"motion-monitor/be/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues tokens to the detector that publishes status.
type AuthHandler struct {
	publisher config.PublisherConfig
	jwtConfig config.JWTConfig
}

func NewAuthHandler(publisher config.PublisherConfig, jwtConfig config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		publisher: publisher,
		jwtConfig: jwtConfig,
	}
}

type TokenRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	Secret   string `json:"secret" binding:"required,min=6"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	if h.publisher.SecretHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Publisher login is not configured"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ClientID != h.publisher.ClientID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid client id or secret"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.publisher.SecretHash), []byte(req.Secret)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid client id or secret"})
		return
	}

	tokenString, expiresAt, err := SignPublisherToken(h.jwtConfig, req.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: tokenString, ExpiresAt: expiresAt})
}

// SignPublisherToken creates an HS256 token for clientID. An unparsable
// expiry falls back to 24h.
func SignPublisherToken(cfg config.JWTConfig, clientID string) (string, int64, error) {
	expiry, err := time.ParseDuration(cfg.Expiry)
	if err != nil || expiry <= 0 {
		expiry = 24 * time.Hour
	}
	expiresAt := time.Now().Add(expiry).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"client_id": clientID,
		"role":      "publisher",
		"exp":       expiresAt,
	})
	tokenString, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", 0, err
	}
	return tokenString, expiresAt, nil
}
