package intercept

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// mouseTick はスティック位置から相対マウス移動を合成する
// 1単位未満の端数は捨てずに次のティックへ繰り越す
func (g *ManagedGamepad) mouseTick(delta float64) {
	x := g.remX + (mouseContribution(g.stickLX)+mouseContribution(g.stickRX))*mouseSpeed*delta
	y := g.remY + (mouseContribution(g.stickLY)+mouseContribution(g.stickRY))*mouseSpeed*delta

	moveX := int32(x)
	moveY := int32(y)
	g.remX = x - float64(moveX)
	g.remY = y - float64(moveY)

	if moveX != 0 {
		g.writePointer(evdev.EV_REL, evdev.REL_X, moveX)
		g.syncPointer()
	}
	if moveY != 0 {
		g.writePointer(evdev.EV_REL, evdev.REL_Y, moveY)
		g.syncPointer()
	}
}

// mouseContribution はデッドゾーン未満の入力をゼロに落とす
func mouseContribution(v float64) float64 {
	if v > -mouseDeadzone && v < mouseDeadzone {
		return 0
	}
	return v
}
