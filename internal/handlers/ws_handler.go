package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/broadcast"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// wsObserver adapts one websocket connection to broadcast.Observer.
type wsObserver struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (o *wsObserver) ID() string { return o.id }

// Send bounds every write so a stalled peer fails instead of pinning the
// hub's writer goroutine.
func (o *wsObserver) Send(ev broadcast.Event) error {
	if err := o.conn.SetWriteDeadline(time.Now().Add(o.writeTimeout)); err != nil {
		return err
	}
	return o.conn.WriteJSON(ev)
}

type WSHandler struct {
	hub          *broadcast.Hub
	writeTimeout time.Duration
	storeTimeout time.Duration
}

func NewWSHandler(hub *broadcast.Hub, writeTimeout, storeTimeout time.Duration) *WSHandler {
	return &WSHandler{hub: hub, writeTimeout: writeTimeout, storeTimeout: storeTimeout}
}

// Upgrade rejects plain HTTP requests on the websocket route.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle registers the connection with the hub and blocks reading until
// the client goes away. Inbound messages are ignored.
func (h *WSHandler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		obs := &wsObserver{
			id:           uuid.NewString(),
			conn:         conn,
			writeTimeout: h.writeTimeout,
		}

		ctx, cancel := context.WithTimeout(context.Background(), h.storeTimeout)
		err := h.hub.Register(ctx, obs)
		cancel()
		if errors.Is(err, broadcast.ErrObserverDropped) {
			// Closing the socket makes the client reconnect for a fresh snapshot.
			slog.Warn("observer dropped during registration", "observer", obs.id)
			return
		}
		if err != nil {
			slog.Error("observer registration failed", "observer", obs.id, "error", err.Error())
			return
		}
		defer h.hub.Unregister(obs)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
