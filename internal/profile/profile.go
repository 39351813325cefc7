package profile

import (
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/event"
)

// Mapping は入力イベント1つと出力イベント列の対応付け
type Mapping struct {
	Source  event.Mappable
	Outputs []event.Mappable
}

// Profile は名前付きの変換プロファイル
type Profile struct {
	Name     string
	Mappings []Mapping
}

// Translate は入力イベントをプロファイルに従って変換する
// 先頭から走査して最初に一致した対応付けだけを適用する
// 一致する対応付けがない場合は入力をそのまま1要素として返す
// 離し（値ゼロ）のイベントは出力順を反転して返す
func (p *Profile) Translate(in event.Mappable) []event.Mappable {
	if p == nil {
		return []event.Mappable{in}
	}
	for _, m := range p.Mappings {
		if !m.Source.Matches(in) {
			continue
		}
		v := in.Value()
		outs := make([]event.Mappable, 0, len(m.Outputs))
		if v == 0 {
			// 修飾キーを含む組み合わせが逆順で離されるようにする
			for i := len(m.Outputs) - 1; i >= 0; i-- {
				outs = append(outs, m.Outputs[i].WithValue(v))
			}
		} else {
			for _, o := range m.Outputs {
				outs = append(outs, o.WithValue(v))
			}
		}
		return outs
	}
	return []event.Mappable{in}
}

// HasMouseTarget はマウス移動（REL_X/REL_Y）を出力する対応付けがあるかを報告する
func (p *Profile) HasMouseTarget() bool {
	if p == nil {
		return false
	}
	for _, m := range p.Mappings {
		for _, o := range m.Outputs {
			d, ok := o.(*event.DeviceEvent)
			if !ok {
				continue
			}
			if d.Type == evdev.EV_REL && (d.Code == evdev.REL_X || d.Code == evdev.REL_Y) {
				return true
			}
		}
	}
	return false
}

// IsMouseTarget は出力イベントがマウス移動かどうかを報告する
func IsMouseTarget(m event.Mappable) bool {
	d, ok := m.(*event.DeviceEvent)
	if !ok {
		return false
	}
	return d.Type == evdev.EV_REL && (d.Code == evdev.REL_X || d.Code == evdev.REL_Y)
}

// ParseEvent はシンボル名をイベントへ解決する
// 既知のアクション名はActionEventに、それ以外はデバイスイベント表から引く
func ParseEvent(name string) (event.Mappable, error) {
	if event.IsAction(name) {
		return &event.ActionEvent{Name: event.Action(name)}, nil
	}
	if c, ok := event.Lookup(name); ok {
		return &event.DeviceEvent{Type: c.Type, Code: c.Code}, nil
	}
	return nil, fmt.Errorf("未知のイベント名です: %s", name)
}

// EventName はイベントのシンボル名を返す
func EventName(m event.Mappable) (string, error) {
	switch e := m.(type) {
	case *event.ActionEvent:
		return string(e.Name), nil
	case *event.DeviceEvent:
		name := event.NameOf(e.Type, e.Code)
		if name == "" {
			return "", fmt.Errorf("シンボル名が未登録のイベントです: type=%#x code=%#x", e.Type, e.Code)
		}
		return name, nil
	}
	return "", fmt.Errorf("未対応のイベントです: %T", m)
}
