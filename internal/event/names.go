package event

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// Code はイベント種別と識別子の組
type Code struct {
	Type uint16
	Code uint16
}

// プロファイルやAPIで使うシンボル名とイベントコードの対応表
var nameToCode = map[string]Code{
	// ゲームパッドのボタン
	"btn_south":      {evdev.EV_KEY, evdev.BTN_A},
	"btn_east":       {evdev.EV_KEY, evdev.BTN_B},
	"btn_north":      {evdev.EV_KEY, evdev.BTN_X},
	"btn_west":       {evdev.EV_KEY, evdev.BTN_Y},
	"btn_tl":         {evdev.EV_KEY, evdev.BTN_TL},
	"btn_tr":         {evdev.EV_KEY, evdev.BTN_TR},
	"btn_tl2":        {evdev.EV_KEY, evdev.BTN_TL2},
	"btn_tr2":        {evdev.EV_KEY, evdev.BTN_TR2},
	"btn_select":     {evdev.EV_KEY, evdev.BTN_SELECT},
	"btn_start":      {evdev.EV_KEY, evdev.BTN_START},
	"btn_mode":       {evdev.EV_KEY, evdev.BTN_MODE},
	"btn_thumbl":     {evdev.EV_KEY, evdev.BTN_THUMBL},
	"btn_thumbr":     {evdev.EV_KEY, evdev.BTN_THUMBR},
	"btn_dpad_up":    {evdev.EV_KEY, evdev.BTN_DPAD_UP},
	"btn_dpad_down":  {evdev.EV_KEY, evdev.BTN_DPAD_DOWN},
	"btn_dpad_left":  {evdev.EV_KEY, evdev.BTN_DPAD_LEFT},
	"btn_dpad_right": {evdev.EV_KEY, evdev.BTN_DPAD_RIGHT},

	// マウスボタン
	"btn_left":   {evdev.EV_KEY, evdev.BTN_LEFT},
	"btn_right":  {evdev.EV_KEY, evdev.BTN_RIGHT},
	"btn_middle": {evdev.EV_KEY, evdev.BTN_MIDDLE},

	// 絶対軸
	"abs_x":     {evdev.EV_ABS, evdev.ABS_X},
	"abs_y":     {evdev.EV_ABS, evdev.ABS_Y},
	"abs_z":     {evdev.EV_ABS, evdev.ABS_Z},
	"abs_rx":    {evdev.EV_ABS, evdev.ABS_RX},
	"abs_ry":    {evdev.EV_ABS, evdev.ABS_RY},
	"abs_rz":    {evdev.EV_ABS, evdev.ABS_RZ},
	"abs_hat0x": {evdev.EV_ABS, evdev.ABS_HAT0X},
	"abs_hat0y": {evdev.EV_ABS, evdev.ABS_HAT0Y},

	// 相対軸
	"rel_x":      {evdev.EV_REL, evdev.REL_X},
	"rel_y":      {evdev.EV_REL, evdev.REL_Y},
	"rel_wheel":  {evdev.EV_REL, evdev.REL_WHEEL},
	"rel_hwheel": {evdev.EV_REL, evdev.REL_HWHEEL},

	// キーボード
	"key_esc":        {evdev.EV_KEY, evdev.KEY_ESC},
	"key_enter":      {evdev.EV_KEY, evdev.KEY_ENTER},
	"key_space":      {evdev.EV_KEY, evdev.KEY_SPACE},
	"key_tab":        {evdev.EV_KEY, evdev.KEY_TAB},
	"key_backspace":  {evdev.EV_KEY, evdev.KEY_BACKSPACE},
	"key_delete":     {evdev.EV_KEY, evdev.KEY_DELETE},
	"key_up":         {evdev.EV_KEY, evdev.KEY_UP},
	"key_down":       {evdev.EV_KEY, evdev.KEY_DOWN},
	"key_left":       {evdev.EV_KEY, evdev.KEY_LEFT},
	"key_right":      {evdev.EV_KEY, evdev.KEY_RIGHT},
	"key_home":       {evdev.EV_KEY, evdev.KEY_HOME},
	"key_end":        {evdev.EV_KEY, evdev.KEY_END},
	"key_pageup":     {evdev.EV_KEY, evdev.KEY_PAGEUP},
	"key_pagedown":   {evdev.EV_KEY, evdev.KEY_PAGEDOWN},
	"key_leftctrl":   {evdev.EV_KEY, evdev.KEY_LEFTCTRL},
	"key_leftshift":  {evdev.EV_KEY, evdev.KEY_LEFTSHIFT},
	"key_leftalt":    {evdev.EV_KEY, evdev.KEY_LEFTALT},
	"key_leftmeta":   {evdev.EV_KEY, evdev.KEY_LEFTMETA},
	"key_volumeup":   {evdev.EV_KEY, evdev.KEY_VOLUMEUP},
	"key_volumedown": {evdev.EV_KEY, evdev.KEY_VOLUMEDOWN},

	"key_a": {evdev.EV_KEY, evdev.KEY_A},
	"key_b": {evdev.EV_KEY, evdev.KEY_B},
	"key_c": {evdev.EV_KEY, evdev.KEY_C},
	"key_d": {evdev.EV_KEY, evdev.KEY_D},
	"key_e": {evdev.EV_KEY, evdev.KEY_E},
	"key_f": {evdev.EV_KEY, evdev.KEY_F},
	"key_g": {evdev.EV_KEY, evdev.KEY_G},
	"key_h": {evdev.EV_KEY, evdev.KEY_H},
	"key_i": {evdev.EV_KEY, evdev.KEY_I},
	"key_j": {evdev.EV_KEY, evdev.KEY_J},
	"key_k": {evdev.EV_KEY, evdev.KEY_K},
	"key_l": {evdev.EV_KEY, evdev.KEY_L},
	"key_m": {evdev.EV_KEY, evdev.KEY_M},
	"key_n": {evdev.EV_KEY, evdev.KEY_N},
	"key_o": {evdev.EV_KEY, evdev.KEY_O},
	"key_p": {evdev.EV_KEY, evdev.KEY_P},
	"key_q": {evdev.EV_KEY, evdev.KEY_Q},
	"key_r": {evdev.EV_KEY, evdev.KEY_R},
	"key_s": {evdev.EV_KEY, evdev.KEY_S},
	"key_t": {evdev.EV_KEY, evdev.KEY_T},
	"key_u": {evdev.EV_KEY, evdev.KEY_U},
	"key_v": {evdev.EV_KEY, evdev.KEY_V},
	"key_w": {evdev.EV_KEY, evdev.KEY_W},
	"key_x": {evdev.EV_KEY, evdev.KEY_X},
	"key_y": {evdev.EV_KEY, evdev.KEY_Y},
	"key_z": {evdev.EV_KEY, evdev.KEY_Z},
	"key_1": {evdev.EV_KEY, evdev.KEY_1},
	"key_2": {evdev.EV_KEY, evdev.KEY_2},
	"key_3": {evdev.EV_KEY, evdev.KEY_3},
	"key_4": {evdev.EV_KEY, evdev.KEY_4},
	"key_5": {evdev.EV_KEY, evdev.KEY_5},
	"key_6": {evdev.EV_KEY, evdev.KEY_6},
	"key_7": {evdev.EV_KEY, evdev.KEY_7},
	"key_8": {evdev.EV_KEY, evdev.KEY_8},
	"key_9": {evdev.EV_KEY, evdev.KEY_9},
	"key_0": {evdev.EV_KEY, evdev.KEY_0},
}

var codeToName = make(map[Code]string, len(nameToCode))

func init() {
	for name, code := range nameToCode {
		codeToName[code] = name
	}
}

// Lookup はシンボル名からイベントコードを引く
func Lookup(name string) (Code, bool) {
	c, ok := nameToCode[name]
	return c, ok
}

// NameOf はイベントコードからシンボル名を引く
// 未登録のコードは空文字列を返す
func NameOf(typ uint16, code uint16) string {
	return codeToName[Code{Type: typ, Code: code}]
}
