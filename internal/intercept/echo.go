package intercept

// echoTick は押下し続けている方向キーの連打を合成する
// 最初の発火まではechoInitialDelay、以後はechoInterval間隔で発火する
func (g *ManagedGamepad) echoTick(delta float64) {
	for i := range g.dirPressed {
		if !g.dirPressed[i] {
			continue
		}
		g.echoTimers[i] += delta
		if g.echoTimers[i] >= 0 {
			g.dispatchAction(dirActions[i], 1)
			g.echoTimers[i] -= echoInterval
		}
	}
}
