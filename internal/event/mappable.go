package event

// Mappable はプロファイル変換の入出力となるイベント
// 一致判定は種別と識別子のみで行い、値は比較に含めない
type Mappable interface {
	Matches(other Mappable) bool
	Value() float64
	WithValue(v float64) Mappable
}

// DeviceEvent は軸範囲の文脈を保持した生デバイスイベント
type DeviceEvent struct {
	Type uint16
	Code uint16
	Val  int32
	Min  int32 // 軸の最小値（軸イベント以外はゼロ）
	Max  int32 // 軸の最大値（軸イベント以外はゼロ）
}

// Matches は種別とコードが一致するかを報告する
func (e *DeviceEvent) Matches(other Mappable) bool {
	d, ok := other.(*DeviceEvent)
	return ok && d.Type == e.Type && d.Code == e.Code
}

// Value はイベント値を返す
func (e *DeviceEvent) Value() float64 {
	return float64(e.Val)
}

// WithValue は値だけを差し替えたコピーを返す
func (e *DeviceEvent) WithValue(v float64) Mappable {
	c := *e
	c.Val = int32(v)
	return &c
}

// Normalized は軸範囲に基づいて正規化した値を返す
func (e *DeviceEvent) Normalized() float64 {
	return Normalize(e.Val, e.Min, e.Max)
}

// Raw は書き込み用の生イベントに変換する
func (e *DeviceEvent) Raw() Event {
	return New(e.Type, e.Code, e.Val)
}

// Action は外部UIへ通知する論理アクションの名前
type Action string

const (
	ActionGuide     Action = "ui_guide"
	ActionQuickMenu Action = "ui_quick_menu"
	ActionAccept    Action = "ui_accept"
	ActionBack      Action = "ui_back"
	ActionContext   Action = "ui_context"
	ActionOSK       Action = "ui_osk"
	ActionTabLeft   Action = "ui_tab_left"
	ActionTabRight  Action = "ui_tab_right"
	ActionMenu      Action = "ui_menu"
	ActionUp        Action = "ui_up"
	ActionDown      Action = "ui_down"
	ActionLeft      Action = "ui_left"
	ActionRight     Action = "ui_right"

	ActionLeftStickX  Action = "left_stick_x"
	ActionLeftStickY  Action = "left_stick_y"
	ActionRightStickX Action = "right_stick_x"
	ActionRightStickY Action = "right_stick_y"
)

var knownActions = map[Action]bool{
	ActionGuide:       true,
	ActionQuickMenu:   true,
	ActionAccept:      true,
	ActionBack:        true,
	ActionContext:     true,
	ActionOSK:         true,
	ActionTabLeft:     true,
	ActionTabRight:    true,
	ActionMenu:        true,
	ActionUp:          true,
	ActionDown:        true,
	ActionLeft:        true,
	ActionRight:       true,
	ActionLeftStickX:  true,
	ActionLeftStickY:  true,
	ActionRightStickX: true,
	ActionRightStickY: true,
}

// IsAction は既知のアクション名かどうかを報告する
func IsAction(name string) bool {
	return knownActions[Action(name)]
}

// ActionEvent は名前付きの論理アクションイベント
type ActionEvent struct {
	Name Action
	Val  float64
}

// Matches はアクション名が一致するかを報告する
func (e *ActionEvent) Matches(other Mappable) bool {
	a, ok := other.(*ActionEvent)
	return ok && a.Name == e.Name
}

// Value はアクションの論理値を返す
func (e *ActionEvent) Value() float64 {
	return e.Val
}

// WithValue は値だけを差し替えたコピーを返す
func (e *ActionEvent) WithValue(v float64) Mappable {
	c := *e
	c.Val = v
	return &c
}

// Pressed は押下状態かどうかを報告する
func (e *ActionEvent) Pressed() bool {
	return e.Val != 0
}
