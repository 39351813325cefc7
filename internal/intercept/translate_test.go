package intercept

import (
	"math"
	"testing"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/event"
)

func TestPassGuidePressSwitchesToAll(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()

	feed(g, phys, key(evdev.BTN_MODE, 1), syn())

	if g.Mode() != ModeAll {
		t.Errorf("Mode = %v, want ALL", g.Mode())
	}
	if len(virt.written) != 0 {
		t.Errorf("ガイド押下は転送されないはず: %v", virt.written)
	}
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionGuide, Value: 1})
}

func TestGuideReleaseStaysInAllMode(t *testing.T) {
	g, phys, _, _ := newTestGamepad()

	feed(g, phys, key(evdev.BTN_MODE, 1))
	drainActions(g)

	feed(g, phys, key(evdev.BTN_MODE, 0))
	if g.Mode() != ModeAll {
		t.Errorf("ガイドを離してもALLのまま: %v", g.Mode())
	}
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionGuide, Value: 0})
}

func TestGuideKeyRepeatSwallowed(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()

	feed(g, phys, key(evdev.BTN_MODE, 2))

	if len(virt.written) != 0 {
		t.Errorf("ガイドのキーリピートは捨てられるはず: %v", virt.written)
	}
	if acts := drainActions(g); len(acts) != 0 {
		t.Errorf("アクションも生成されないはず: %v", acts)
	}
	if g.Mode() != ModePass {
		t.Errorf("モードは変わらないはず: %v", g.Mode())
	}
}

func TestQAMSoloGuideReplayedOnRelease(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.SetMode(ModePassQAM)

	feed(g, phys, key(evdev.BTN_MODE, 1))
	if len(virt.written) != 0 {
		t.Fatalf("同時押しが確定するまで押下は保留されるはず: %v", virt.written)
	}

	feed(g, phys, key(evdev.BTN_MODE, 0))
	wantEvents(t, virt.written,
		key(evdev.BTN_MODE, 1), syn(),
		key(evdev.BTN_MODE, 0), syn(),
	)
	if acts := drainActions(g); len(acts) != 0 {
		t.Errorf("単独押しではアクションは生成されないはず: %v", acts)
	}
	if g.Mode() != ModePassQAM {
		t.Errorf("モードは変わらないはず: %v", g.Mode())
	}
}

func TestQAMChordForwardsGuideThenChord(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.SetMode(ModePassQAM)

	feed(g, phys, key(evdev.BTN_MODE, 1))
	feed(g, phys, key(evdev.BTN_X, 1))
	feed(g, phys, key(evdev.BTN_X, 0))
	feed(g, phys, key(evdev.BTN_MODE, 0))

	// 保留したガイド押下が先に流れ、同時押し本体が続く
	wantEvents(t, virt.written,
		key(evdev.BTN_MODE, 1), syn(),
		key(evdev.BTN_X, 1),
		key(evdev.BTN_X, 0),
		key(evdev.BTN_MODE, 0), syn(),
	)
}

func TestQAMChordViaDpad(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.SetMode(ModePassQAM)

	feed(g, phys, key(evdev.BTN_MODE, 1))
	feed(g, phys, abs(evdev.ABS_HAT0Y, -1))
	feed(g, phys, abs(evdev.ABS_HAT0Y, 0))
	feed(g, phys, key(evdev.BTN_MODE, 0))

	wantEvents(t, virt.written,
		key(evdev.BTN_MODE, 1), syn(),
		abs(evdev.ABS_HAT0Y, -1),
		abs(evdev.ABS_HAT0Y, 0),
		key(evdev.BTN_MODE, 0), syn(),
	)
}

func TestQAMQuickMenuConsumesChord(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.SetMode(ModePassQAM)

	feed(g, phys, key(evdev.BTN_MODE, 1))
	feed(g, phys, key(evdev.BTN_A, 1))
	feed(g, phys, key(evdev.BTN_MODE, 0))
	feed(g, phys, key(evdev.BTN_A, 0))

	if len(virt.written) != 0 {
		t.Errorf("クイックメニュー消費時は何も転送されないはず: %v", virt.written)
	}
	wantActions(t, drainActions(g),
		ActionInput{Name: event.ActionQuickMenu, Value: 1},
		ActionInput{Name: event.ActionQuickMenu, Value: 0},
	)
}

func TestQAMQuickMenuReleaseBeforeGuide(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.SetMode(ModePassQAM)

	feed(g, phys, key(evdev.BTN_MODE, 1))
	feed(g, phys, key(evdev.BTN_A, 1))
	feed(g, phys, key(evdev.BTN_A, 0))
	feed(g, phys, key(evdev.BTN_MODE, 0))

	if len(virt.written) != 0 {
		t.Errorf("クイックメニュー消費時は何も転送されないはず: %v", virt.written)
	}
	wantActions(t, drainActions(g),
		ActionInput{Name: event.ActionQuickMenu, Value: 1},
		ActionInput{Name: event.ActionQuickMenu, Value: 0},
	)
}

func TestAllModeMapsButtonsToActions(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.SetMode(ModeAll)

	feed(g, phys,
		key(evdev.BTN_A, 1), key(evdev.BTN_A, 0),
		key(evdev.BTN_START, 1),
		key(evdev.BTN_SELECT, 1),
		// 対応表にないボタンは捨てられる
		key(evdev.BTN_THUMBL, 1),
		syn(),
	)

	if len(virt.written) != 0 {
		t.Errorf("ALLでは仮想デバイスへ何も流れないはず: %v", virt.written)
	}
	wantActions(t, drainActions(g),
		ActionInput{Name: event.ActionAccept, Value: 1},
		ActionInput{Name: event.ActionAccept, Value: 0},
		ActionInput{Name: event.ActionMenu, Value: 1},
		ActionInput{Name: event.ActionQuickMenu, Value: 1},
	)
}

func TestAllModeIgnoresKeyRepeat(t *testing.T) {
	g, phys, _, _ := newTestGamepad()
	g.SetMode(ModeAll)

	feed(g, phys, key(evdev.BTN_B, 1), key(evdev.BTN_B, 2), key(evdev.BTN_B, 2), key(evdev.BTN_B, 0))

	wantActions(t, drainActions(g),
		ActionInput{Name: event.ActionBack, Value: 1},
		ActionInput{Name: event.ActionBack, Value: 0},
	)
}

func TestAllModeStickThreshold(t *testing.T) {
	g, phys, _, _ := newTestGamepad()
	g.SetMode(ModeAll)

	// しきい値未満では連続値だけが流れる
	feed(g, phys, abs(evdev.ABS_X, 8000))
	acts := drainActions(g)
	if len(acts) != 1 || acts[0].Name != event.ActionLeftStickX {
		t.Fatalf("連続値だけのはず: %v", acts)
	}
	if math.Abs(acts[0].Value-8000.0/32767.0) > 1e-9 {
		t.Errorf("正規化値 = %v, want %v", acts[0].Value, 8000.0/32767.0)
	}

	// しきい値を超えると方向押下も出る
	feed(g, phys, abs(evdev.ABS_X, 20000))
	acts = drainActions(g)
	if len(acts) != 2 {
		t.Fatalf("アクション数 = %d, want 2: %v", len(acts), acts)
	}
	if acts[0].Name != event.ActionLeftStickX {
		t.Errorf("1件目 = %v, want %v", acts[0].Name, event.ActionLeftStickX)
	}
	if acts[1].Name != event.ActionRight || acts[1].Value != 1 {
		t.Errorf("2件目 = %v, want {%v 1}", acts[1], event.ActionRight)
	}

	// 押下中は反対方向に振っても無視される
	feed(g, phys, abs(evdev.ABS_X, -32768))
	acts = drainActions(g)
	if len(acts) != 1 || acts[0].Name != event.ActionLeftStickX {
		t.Fatalf("反対方向は押されないはず: %v", acts)
	}

	// 中立で両側が解放される
	feed(g, phys, abs(evdev.ABS_X, 0))
	acts = drainActions(g)
	if len(acts) != 2 {
		t.Fatalf("アクション数 = %d, want 2: %v", len(acts), acts)
	}
	if acts[0].Name != event.ActionLeftStickX || acts[0].Value != 0 {
		t.Errorf("1件目 = %v, want {%v 0}", acts[0], event.ActionLeftStickX)
	}
	if acts[1].Name != event.ActionRight || acts[1].Value != 0 {
		t.Errorf("2件目 = %v, want {%v 0}", acts[1], event.ActionRight)
	}
}

func TestAllModeHatDirections(t *testing.T) {
	g, phys, _, _ := newTestGamepad()
	g.SetMode(ModeAll)

	feed(g, phys, abs(evdev.ABS_HAT0Y, -1))
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionUp, Value: 1})

	feed(g, phys, abs(evdev.ABS_HAT0Y, 0))
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionUp, Value: 0})

	feed(g, phys, abs(evdev.ABS_HAT0X, 1))
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionRight, Value: 1})

	// 右が押されたままの左入力は無視される
	feed(g, phys, abs(evdev.ABS_HAT0X, -1))
	if acts := drainActions(g); len(acts) != 0 {
		t.Errorf("反対方向は無視されるはず: %v", acts)
	}
}

func TestAllModeRightStickContinuousOnly(t *testing.T) {
	g, phys, _, _ := newTestGamepad()
	g.SetMode(ModeAll)

	feed(g, phys, abs(evdev.ABS_RX, 32767), abs(evdev.ABS_RY, -32768))

	acts := drainActions(g)
	if len(acts) != 2 {
		t.Fatalf("連続値のみ2件のはず: %v", acts)
	}
	if acts[0].Name != event.ActionRightStickX || acts[0].Value != 1 {
		t.Errorf("1件目 = %v, want {%v 1}", acts[0], event.ActionRightStickX)
	}
	if acts[1].Name != event.ActionRightStickY || acts[1].Value != -1 {
		t.Errorf("2件目 = %v, want {%v -1}", acts[1], event.ActionRightStickY)
	}
}
