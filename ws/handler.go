package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/scaffoldr/models"
)

// TokenValidator is satisfied by services.AuthService. Declared here so ws
// does not import services.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by CORS on the REST API; the socket carries its
	// own access token.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades GET /ws?token=<access token>.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	log            *zap.Logger
}

// NewHandler creates the WebSocket endpoint.
func NewHandler(hub *Hub, tokenValidator TokenValidator, log *zap.Logger) *Handler {
	return &Handler{hub: hub, tokenValidator: tokenValidator, log: log}
}

// HandleConnection authenticates, upgrades and serves one connection.
// Browsers cannot set headers on a WebSocket handshake, hence the token
// query parameter.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, claims.UserID, h.log.With(zap.String("user_id", claims.UserID)))

	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	client.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID}})

	go client.WritePump()
	client.ReadPump()
}
