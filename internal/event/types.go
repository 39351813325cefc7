package event

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// uinput制御チャネルの定数（uinput.hより）
const (
	EvUinput   = 0x0101 // カーネルから仮想デバイスへの制御イベント
	UIFFUpload = 1      // フォースフィードバック効果のアップロード要求
	UIFFErase  = 2      // フォースフィードバック効果の消去要求
)

// Event は物理・仮想デバイス間を流れる生イベントを表す構造体
type Event = evdev.InputEvent

// New は時刻ゼロの生イベントを作成する
func New(typ uint16, code uint16, value int32) Event {
	return Event{Type: typ, Code: code, Value: value}
}

// Normalize は軸の生値を [-1, 1] の範囲に正規化する
// 正の値は最大値で、ゼロ以下の値は最小値で割って符号を反転する
func Normalize(value int32, min int32, max int32) float64 {
	var v float64
	if value > 0 {
		if max == 0 {
			return 0
		}
		v = float64(value) / float64(max)
	} else {
		if min == 0 {
			return 0
		}
		v = -(float64(value) / float64(min))
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
