package hub

import (
	"github.com/gorilla/websocket"
)

// Client は接続中のWebSocketクライアントを表す構造体
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient はHubに属するクライアントを作成する
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// WritePump は送信チャネルのメッセージを接続へ書き出す
// ゴルーチンとして起動し、チャネルが閉じられると接続も閉じる
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// ReadPump は切断を検出するために受信を読み捨てる
// クライアントからの操作はREST API側で受けるため内容は扱わない
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
