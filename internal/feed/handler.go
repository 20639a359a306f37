package feed

import (
	"encoding/json"

	"billmate-backend/internal/auth"
	"billmate-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RecentEventsHandler serves the durable event log for catch-up after a
// reconnect. GET /api/feed/events?limit=100
func RecentEventsHandler(pub *Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		rows, err := pub.RecentEvents(c.Context(), ownerID, c.QueryInt("limit", 100))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Events could not be loaded")
		}
		return c.JSON(rows)
	}
}

// WSUpgradeHandler gates the websocket upgrade behind the JWT middleware and
// stashes the owner id for the stream handler.
func WSUpgradeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}
		c.Locals("feed_owner_id", ownerID)
		return c.Next()
	}
}

// WSHandler streams the authenticated owner's change events over a websocket.
// Other owners' events are filtered out; the client applies them to its mirror.
func WSHandler(pub *Publisher) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ownerID, _ := conn.Locals("feed_owner_id").(uint)

		events, cancel := pub.Subscribe()
		defer cancel()

		// Drain client frames so pings/closes are processed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.OwnerID != ownerID {
					continue
				}
				raw, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
					logger.Log.Debug().Err(err).Msg("feed websocket closed")
					return
				}
			}
		}
	})
}
