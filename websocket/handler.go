package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and registers the client with
// the hub. The caller has already authenticated the request, so the user
// id and role come from verified JWT claims.
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID, role string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID: userID,
		Role:   role,
		Conn:   conn,
	}

	hub.register <- client

	conn.WriteJSON(Event{
		Event: "connected",
		Payload: map[string]string{
			"userId": userID.Hex(),
			"role":   role,
		},
	})

	// Read loop exists only to detect disconnects; clients do not send
	// application messages over this channel.
	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}
