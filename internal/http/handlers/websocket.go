package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"iamercado/internal/auth"
	"iamercado/pkg/models"
)

// feedEvent is one frame pushed to dashboard clients
type feedEvent struct {
	Type      string      `json:"type"` // order_submitted, order_updated
	Timestamp time.Time   `json:"timestamp"`
	Order     interface{} `json:"order"`
}

// OrderFeed pushes order events to connected staff dashboards over WebSocket.
// Authentication uses the same JWT as the REST API, passed as a query
// parameter since browsers cannot set headers on WebSocket upgrades.
type OrderFeed struct {
	authService *auth.Service
	upgrader    websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewOrderFeed(authService *auth.Service) *OrderFeed {
	return &OrderFeed{
		authService: authService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handle upgrades the connection and keeps it registered until it drops
func (f *OrderFeed) Handle(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
	}
	claims, err := f.authService.ValidateToken(token)
	if err != nil || claims.Type != "access" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := f.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.clients[conn] = struct{}{}
	clientCount := len(f.clients)
	f.mu.Unlock()

	log.Info().Str("user", claims.Email).Int("clients", clientCount).Msg("order feed client connected")

	defer func() {
		f.mu.Lock()
		delete(f.clients, conn)
		f.mu.Unlock()
		conn.Close()
	}()

	// drain the connection; the feed is push-only
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// OrderSubmitted notifies all dashboards of a new order
func (f *OrderFeed) OrderSubmitted(order *models.Order) {
	f.broadcast(feedEvent{Type: "order_submitted", Timestamp: time.Now(), Order: order})
}

// OrderUpdated notifies all dashboards of a revised order
func (f *OrderFeed) OrderUpdated(order *models.Order) {
	f.broadcast(feedEvent{Type: "order_updated", Timestamp: time.Now(), Order: order})
}

func (f *OrderFeed) broadcast(event feedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn := range f.clients {
		if err := conn.WriteJSON(event); err != nil {
			log.Warn().Err(err).Msg("dropping stale order feed client")
			conn.Close()
			delete(f.clients, conn)
		}
	}
}
