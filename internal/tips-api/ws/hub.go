package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/pkg/contracts/events"
)

// conn serializa escritas; gorilla/websocket aceita um único writer por vez
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Hub mantém as conexões de /mobile/ws e as assinaturas por pool
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[*conn]struct{} // pool -> conexões
}

func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*conn]struct{}),
	}
}

// HandleWS atende uma conexão até o cliente desconectar
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Pool == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.Pool]; !ok {
				h.subs[msg.Pool] = make(map[*conn]struct{})
			}
			h.subs[msg.Pool][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.remove(msg.Pool, c)
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}

	h.mu.Lock()
	for pool, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, pool)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(pool string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[pool]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, pool)
		}
	}
}

// Broadcast envia o aviso a quem assina o pool do evento
func (h *Hub) Broadcast(ev events.Lifecycle) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.subs[ev.Pool]))
	for c := range h.subs[ev.Pool] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	for _, c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
		}
	}
}

// Subscribers conta conexões inscritas no pool
func (h *Hub) Subscribers(pool string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[pool])
}
