package notify

import (
	"log"
	"net/http"
	"sync"
	"time"

	"harvestlink/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Package notify pushes order-status events to connected clients over
// websockets, replacing client-side polling of the orders table.

var (
	clients = struct {
		sync.RWMutex
		m map[string][]*websocket.Conn
	}{m: make(map[string][]*websocket.Conn)}

	upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
)

// Event is one order-status change pushed to the parties involved.
type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	Status     string    `json:"status"`
	PickupTime time.Time `json:"pickupTime,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// HandleWebSocket registers the authenticated caller for push events.
func HandleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clients.Lock()
	clients.m[userID] = append(clients.m[userID], conn)
	clients.Unlock()

	defer func() {
		clients.Lock()
		conns := clients.m[userID]
		for i, c := range conns {
			if c == conn {
				clients.m[userID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(clients.m[userID]) == 0 {
			delete(clients.m, userID)
		}
		clients.Unlock()
		conn.Close()
	}()

	// Drain the connection; the server only ever writes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// OrderEvent publishes a status change to every listed user's open sockets.
func OrderEvent(orderID, status string, pickupTime time.Time, userIDs ...string) {
	event := Event{
		Type:       "order_status",
		OrderID:    orderID,
		Status:     status,
		PickupTime: pickupTime,
		OccurredAt: time.Now(),
	}

	clients.RLock()
	defer clients.RUnlock()
	for _, id := range userIDs {
		for _, conn := range clients.m[id] {
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("notify: dropping write to %s: %v", id, err)
			}
		}
	}
}
