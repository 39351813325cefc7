package hub

import "time"

// ActionMessage はUIアクション1件を伝えるメッセージ
type ActionMessage struct {
	Type      string  `json:"type"`      // 常に "action"
	Seq       int64   `json:"seq"`       // 順序づけ用の連番
	Timestamp int64   `json:"timestamp"` // ミリ秒のUNIX時刻
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Pressed   bool    `json:"pressed"`
}

// NewActionMessage はアクションメッセージを作成する
func NewActionMessage(seq int64, name string, value float64) *ActionMessage {
	return &ActionMessage{
		Type:      "action",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Name:      name,
		Value:     value,
		Pressed:   value != 0,
	}
}

// StateMessage はエンジンの現在状態を伝えるメッセージ
// 接続直後のクライアントにも最後の状態が送られる
type StateMessage struct {
	Type      string `json:"type"` // 常に "state"
	Seq       int64  `json:"seq"`
	Timestamp int64  `json:"timestamp"`
	Mode      string `json:"mode"`
	Profile   string `json:"profile"`
	Connected bool   `json:"connected"`
	Device    string `json:"device,omitempty"`
}

// NewStateMessage は状態メッセージを作成する
func NewStateMessage(seq int64, mode string, profile string, connected bool, device string) *StateMessage {
	return &StateMessage{
		Type:      "state",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Mode:      mode,
		Profile:   profile,
		Connected: connected,
		Device:    device,
	}
}
