package socket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// In production, restrict to your domains
		return true
	},
}

// TokenValidator validates a JWT and returns the subject user ID.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// Handler handles WebSocket connections
type Handler struct {
	Hub    *Hub
	tokens TokenValidator
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, tokens TokenValidator) *Handler {
	return &Handler{Hub: hub, tokens: tokens}
}

// HandleWebSocket handles WebSocket upgrade requests. The token comes
// from a query parameter because the browser WebSocket API cannot set
// custom headers.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		// Also try Authorization header as fallback
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	userID, err := h.tokens.ValidateToken(tokenString)
	if err != nil {
		log.WithError(err).Warn("[WebSocket] Token validation failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Error("[WebSocket] Upgrade error")
		return
	}

	log.WithField("user", userID).Info("[WebSocket] ✅ Client connected")

	client := NewClient(h.Hub, userID, conn)
	h.Hub.register <- client

	// Auto-join the user's personal room for direct notifications
	h.Hub.JoinRoom(client, "user:"+userID)

	go client.WritePump()
	go client.ReadPump()
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan []byte, 256),
		Rooms:  make(map[string]bool),
	}
}
