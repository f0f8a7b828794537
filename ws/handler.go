package ws

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"group-chat/auth"
	"group-chat/core/notif"
)

// UpgradeRequired gates the websocket route; non-upgrade requests get 426.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// NewHandler upgrades the request and runs the session until the client
// disconnects. The credential travels as a query parameter because browser
// websocket clients cannot set headers.
func NewHandler(dispatcher *notif.Dispatcher, resolver auth.TokenResolver) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		session := NewSession(dispatcher, resolver, conn, conn.Query("token"))
		defer session.Close()

		for {
			var frame SubscribeFrame
			if err := conn.ReadJSON(&frame); err != nil {
				// client went away or sent garbage framing
				return
			}

			if err := session.Subscribe(frame); err != nil {
				slog.Debug("rejecting subscribe frame", "err", err)
				if err := session.writeJSON(ErrorFrame{Error: err.Error()}); err != nil {
					return
				}
			}
		}
	})
}
