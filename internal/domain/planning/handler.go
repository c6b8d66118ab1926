package planning

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gymplanner/internal/domain"
	"gymplanner/internal/pkg/jwt"
	"gymplanner/internal/pkg/response"
)

type tokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type Handler struct {
	hub      *Hub
	tokens   tokenValidator
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler accepts upgrades from allowedOrigins; "*" or an empty list
// allows any origin.
func NewHandler(hub *Hub, tokens tokenValidator, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Serve handles GET /ws/planning?token=JWT[&coach_id=]
//
// Browsers cannot set headers on a WebSocket handshake, so the token travels
// in the query.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.CustomError(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.logger.Info("planning client connected", zap.String("user_id", claims.UserID))
	staff := claims.Role == string(domain.RoleCoach) || claims.Role == string(domain.RoleAdmin)
	h.hub.ServeWS(conn, claims.UserID, staff, c.Query("coach_id"))
	h.logger.Info("planning client disconnected", zap.String("user_id", claims.UserID))
}
