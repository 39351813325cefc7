package intercept

import (
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/event"
)

// allKeyActions はModeAllでのボタン→UIアクションの固定対応表
var allKeyActions = map[uint16]event.Action{
	evdev.BTN_A:      event.ActionAccept,
	evdev.BTN_B:      event.ActionBack,
	evdev.BTN_X:      event.ActionContext,
	evdev.BTN_Y:      event.ActionOSK,
	evdev.BTN_TL:     event.ActionTabLeft,
	evdev.BTN_TR:     event.ActionTabRight,
	evdev.BTN_START:  event.ActionMenu,
	evdev.BTN_SELECT: event.ActionQuickMenu,
	evdev.BTN_MODE:   event.ActionGuide,
}

// interceptGuide はガイドボタンとその同時押しを処理する
// 消費した場合はtrueを返し、イベントは仮想デバイスへ届かない
func (g *ManagedGamepad) interceptGuide(ev *event.Event) bool {
	if ev.Type == evdev.EV_KEY && ev.Code == evdev.BTN_MODE {
		switch ev.Value {
		case 1:
			if g.mode == ModePassQAM {
				// 同時押しか単独押しかが確定するまで転送を保留する
				g.chord = chordCaptured
				return true
			}
			g.mode = ModeAll
			g.dispatchAction(event.ActionGuide, 1)
			return true
		case 0:
			if g.mode == ModePassQAM {
				switch g.chord {
				case chordCaptured:
					// 同時押しがなかったので捕獲した押下をそのまま再生する
					g.writeVirtKeyFrame(evdev.BTN_MODE, 1)
					time.Sleep(chordPressDelay)
					g.writeVirtKeyFrame(evdev.BTN_MODE, 0)
				case chordForwarded:
					g.writeVirtKeyFrame(evdev.BTN_MODE, 0)
				}
				g.chord = chordIdle
				return true
			}
			g.dispatchAction(event.ActionGuide, 0)
			return true
		default:
			// キーリピートは捨てる
			return true
		}
	}

	if g.mode == ModePassQAM && g.chord == chordCaptured {
		if ev.Type == evdev.EV_KEY && ev.Code == qamButton && ev.Value == 1 {
			g.dispatchAction(event.ActionQuickMenu, 1)
			g.qamHeld = true
			g.chord = chordConsumed
			return true
		}
		if isChordEvent(ev) {
			// 保留中のガイド押下を流してから同時押し本体を通常転送に回す
			g.writeVirtKeyFrame(evdev.BTN_MODE, 1)
			time.Sleep(chordPressDelay)
			g.chord = chordForwarded
			return false
		}
		return false
	}

	if g.qamHeld && ev.Type == evdev.EV_KEY && ev.Code == qamButton && ev.Value == 0 {
		g.dispatchAction(event.ActionQuickMenu, 0)
		g.qamHeld = false
		return true
	}

	return false
}

// isChordEvent はガイドボタンとの同時押しとして扱うイベントかを報告する
func isChordEvent(ev *event.Event) bool {
	if ev.Type == evdev.EV_KEY && ev.Value == 1 {
		switch ev.Code {
		case evdev.BTN_A, evdev.BTN_B, evdev.BTN_X, evdev.BTN_Y,
			evdev.BTN_TL, evdev.BTN_TR, evdev.BTN_START, evdev.BTN_SELECT:
			return true
		}
	}
	if ev.Type == evdev.EV_ABS && ev.Value != 0 {
		switch ev.Code {
		case evdev.ABS_HAT0X, evdev.ABS_HAT0Y:
			return true
		}
	}
	return false
}

// interceptAll は固定対応表で物理イベントをUIアクションに変換する
// 仮想デバイスへは何も転送しない
func (g *ManagedGamepad) interceptAll(ev *event.Event) {
	switch ev.Type {
	case evdev.EV_KEY:
		if ev.Value == 2 {
			// キーリピートは捨てる
			return
		}
		action, ok := allKeyActions[ev.Code]
		if !ok {
			return
		}
		g.dispatchAction(action, float64(ev.Value))
	case evdev.EV_ABS:
		g.interceptAllAxis(ev)
	}
}

// interceptAllAxis は軸イベントを方向キーと連続軸アクションに変換する
func (g *ManagedGamepad) interceptAllAxis(ev *event.Event) {
	switch ev.Code {
	case evdev.ABS_HAT0X:
		g.updateAxisDirection(dirLeft, dirRight, float64(ev.Value))
	case evdev.ABS_HAT0Y:
		g.updateAxisDirection(dirUp, dirDown, float64(ev.Value))
	case evdev.ABS_X:
		v := g.normalize(ev.Code, ev.Value)
		g.dispatchAction(event.ActionLeftStickX, v)
		g.updateAxisDirection(dirLeft, dirRight, thresholded(v))
	case evdev.ABS_Y:
		v := g.normalize(ev.Code, ev.Value)
		g.dispatchAction(event.ActionLeftStickY, v)
		g.updateAxisDirection(dirUp, dirDown, thresholded(v))
	case evdev.ABS_RX:
		g.dispatchAction(event.ActionRightStickX, g.normalize(ev.Code, ev.Value))
	case evdev.ABS_RY:
		g.dispatchAction(event.ActionRightStickY, g.normalize(ev.Code, ev.Value))
	}
}

// thresholded はしきい値未満の値をゼロに落とす
func thresholded(v float64) float64 {
	if v > -axisPressThreshold && v < axisPressThreshold {
		return 0
	}
	return v
}

// updateAxisDirection は1軸の値から方向フラグを更新する
// 片側が押下中のあいだ反対側は無視し、中立で両側を解放する
func (g *ManagedGamepad) updateAxisDirection(neg int, pos int, v float64) {
	switch {
	case v < 0:
		if !g.dirPressed[neg] && !g.dirPressed[pos] {
			g.pressDir(neg)
		}
	case v > 0:
		if !g.dirPressed[neg] && !g.dirPressed[pos] {
			g.pressDir(pos)
		}
	default:
		if g.dirPressed[neg] {
			g.releaseDir(neg)
		}
		if g.dirPressed[pos] {
			g.releaseDir(pos)
		}
	}
}

func (g *ManagedGamepad) pressDir(i int) {
	g.dirPressed[i] = true
	g.echoTimers[i] = -echoInitialDelay
	g.dispatchAction(dirActions[i], 1)
}

func (g *ManagedGamepad) releaseDir(i int) {
	g.dirPressed[i] = false
	g.echoTimers[i] = -echoInitialDelay
	g.dispatchAction(dirActions[i], 0)
}
