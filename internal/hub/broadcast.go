package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/char5742/gamepad-bridge/internal/intercept"
)

// Broadcaster はエンジンのアクション通知をWebSocketメッセージへ変換して配る
type Broadcaster struct {
	hub *Hub

	mutex     sync.Mutex
	seq       int64
	lastState *StateMessage
}

// NewBroadcaster は新しいBroadcasterを作成する
func NewBroadcaster(h *Hub) *Broadcaster {
	return &Broadcaster{hub: h}
}

// Pump はアクションチャネルを読んで配信し続ける
// チャネルが閉じられると抜けるため、エンジンごとにゴルーチンで起動する
func (b *Broadcaster) Pump(actions <-chan intercept.ActionInput) {
	for action := range actions {
		b.mutex.Lock()
		b.seq++
		msg := NewActionMessage(b.seq, string(action.Name), action.Value)
		b.mutex.Unlock()

		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("アクションメッセージの変換に失敗しました: %v", err)
			continue
		}
		b.hub.Broadcast(data)
	}
}

// PublishState はエンジンの状態変化を配信し、最新状態として控える
func (b *Broadcaster) PublishState(mode string, profile string, connected bool, device string) {
	b.mutex.Lock()
	b.seq++
	msg := NewStateMessage(b.seq, mode, profile, connected, device)
	b.lastState = msg
	b.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("状態メッセージの変換に失敗しました: %v", err)
		return
	}
	b.hub.Broadcast(data)
}

// SendInitialState は接続直後のクライアントに最後の状態を送る
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mutex.Lock()
	last := b.lastState
	b.mutex.Unlock()

	if last == nil {
		return
	}
	data, err := json.Marshal(last)
	if err != nil {
		log.Printf("状態メッセージの変換に失敗しました: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
