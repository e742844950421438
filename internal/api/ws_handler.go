package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/user/corral/backend/internal/middleware"
	"github.com/user/corral/backend/internal/pubsub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSHandler streams committed-change notices to connected devices. The
// notice is a nudge, not data: the device reacts by pulling the change feed.
type WSHandler struct {
	hub *pubsub.Hub
}

func NewWSHandler(hub *pubsub.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Subscribe handles GET /api/v1/sync/subscribe
func (h *WSHandler) Subscribe(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	deviceID, _ := middleware.GetDeviceID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	notices := make(chan pubsub.ChangeNotice, 16)
	h.hub.Subscribe(userID, notices)
	defer h.hub.Unsubscribe(userID, notices)

	log.Printf("[WSHandler] Device %s subscribed for user %s", deviceID, userID)

	// Reader goroutine only watches for disconnect; clients send nothing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]string{"type": "ka"}); err != nil {
				return
			}
		case notice := <-notices:
			// A device does not need to hear about its own writes.
			if deviceID != "" && notice.DeviceID == deviceID {
				continue
			}
			msg := map[string]interface{}{
				"type":    "change",
				"payload": notice,
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
