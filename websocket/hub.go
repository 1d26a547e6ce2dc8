package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// broadcastBuffer borne les messages en attente de diffusion
const broadcastBuffer = 256

// Hub gère les connexions WebSocket des tableaux de bord.
// Un manager peut avoir plusieurs onglets ouverts : chaque connexion reçoit les messages.
type Hub struct {
	// Connexions actives par manager_id
	connections map[string]map[*Client]bool

	// Mutex pour sécuriser les accès concurrents
	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopOnce   sync.Once
}

// Message représente un message WebSocket à diffuser
type Message struct {
	ManagerID string
	Payload   interface{}
}

// NewHub crée un nouveau hub WebSocket
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, broadcastBuffer),
		done:        make(chan struct{}),
	}
}

// Run démarre la boucle principale du hub ; retourne après Shutdown
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.connections[client.ManagerID] == nil {
				h.connections[client.ManagerID] = make(map[*Client]bool)
			}
			h.connections[client.ManagerID][client] = true
			total := len(h.connections[client.ManagerID])
			h.mu.Unlock()
			log.Printf("🔌 Tableau de bord connecté: %s (%d connexion(s))", client.ManagerID, total)

		case client := <-h.unregister:
			h.remove(client)
			log.Printf("👋 Tableau de bord déconnecté: %s", client.ManagerID)

		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// deliver encode le message une fois puis l'envoie à toutes les connexions du manager.
// Une connexion dont le canal est plein est fermée.
func (h *Hub) deliver(message *Message) {
	if !h.IsManagerOnline(message.ManagerID) {
		return
	}

	data, err := json.Marshal(message.Payload)
	if err != nil {
		log.Printf("❌ Message WebSocket non sérialisable pour %s: %v", message.ManagerID, err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for client := range h.connections[message.ManagerID] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Printf("❌ Canal plein pour %s, connexion fermée", client.ManagerID)
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.connections[client.ManagerID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.connections, client.ManagerID)
	}
}

// SendToManager pousse un message à toutes les connexions d'un manager.
// Ne bloque jamais : le message est abandonné si le hub est saturé ou arrêté.
func (h *Hub) SendToManager(managerID string, payload interface{}) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- &Message{ManagerID: managerID, Payload: payload}:
	default:
		log.Printf("⚠️  Hub saturé, message abandonné pour %s", managerID)
	}
}

// IsManagerOnline indique si le manager a au moins un tableau de bord ouvert
func (h *Hub) IsManagerOnline(managerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[managerID]) > 0
}

// Shutdown arrête le hub et ferme toutes les connexions
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		log.Printf("🔄 Arrêt du hub WebSocket...")
		close(h.done)
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for managerID, clients := range h.connections {
		for client := range clients {
			close(client.send)
			client.conn.Close()
		}
		delete(h.connections, managerID)
	}
	h.mu.Unlock()

	log.Printf("✅ Hub WebSocket arrêté")
}
