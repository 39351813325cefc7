package hub

import (
	"log"
	"sync"
)

// Hub はWebSocketクライアントの登録と配信をまとめる構造体
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stopChan   chan struct{}
	mutex      sync.RWMutex
}

// NewHub は新しいHubを作成する
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		stopChan:   make(chan struct{}),
	}
}

// Register はクライアントを登録する
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopChan:
	}
}

// Unregister はクライアントを取り除く
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopChan:
	}
}

// Broadcast は全クライアントへメッセージを配る
// Hubが停止している場合は捨てる
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.stopChan:
	}
}

// ClientCount は接続中のクライアント数を返す
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run はHubのメインループを回す
// ゴルーチンとして起動すること
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("クライアントが接続しました (合計: %d)", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("クライアントが切断しました (合計: %d)", total)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// 送信バッファが詰まったクライアントは切り離す
					go h.Unregister(client)
				}
			}
			h.mutex.RUnlock()

		case <-h.stopChan:
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop はメインループを止めて全クライアントを切断する
func (h *Hub) Stop() {
	close(h.stopChan)
}
