package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBuffer borne les messages encodés en attente pour une connexion
	sendBuffer = 64
)

// inbound est un message envoyé par le tableau de bord
type inbound struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

func decodeInbound(data []byte) (inbound, error) {
	var msg inbound
	err := json.Unmarshal(data, &msg)
	return msg, err
}

// Client est une connexion de tableau de bord authentifiée
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	ManagerID string
}

func newClient(hub *Hub, conn *websocket.Conn, managerID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		ManagerID: managerID,
	}
}

// readPump garde la connexion vivante jusqu'à sa fermeture.
// Le tableau de bord ne fait que recevoir, seul "ping" est attendu.
func (c *Client) readPump() {
	defer c.leave()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ Erreur WebSocket (%s): %v", c.ManagerID, err)
			}
			return
		}

		msg, err := decodeInbound(data)
		switch {
		case err != nil:
			log.Printf("❌ Message WebSocket illisible (%s): %v", c.ManagerID, err)
		case msg.Type != "ping":
			log.Printf("⚠️  Type de message ignoré: %s", msg.Type)
		}
	}
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
	c.conn.Close()
}

// writePump écrit les messages du hub et maintient les pings.
// Seule cette goroutine écrit sur la connexion une fois le client enregistré.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				log.Printf("❌ Erreur écriture WebSocket (%s): %v", c.ManagerID, err)
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
