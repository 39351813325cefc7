package intercept

import (
	"testing"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/event"
	"github.com/char5742/gamepad-bridge/internal/profile"
)

func mouseProfile() *profile.Profile {
	return &profile.Profile{
		Name: "mouse",
		Mappings: []profile.Mapping{
			{
				Source:  &event.DeviceEvent{Type: evdev.EV_ABS, Code: evdev.ABS_RX},
				Outputs: []event.Mappable{&event.DeviceEvent{Type: evdev.EV_REL, Code: evdev.REL_X}},
			},
			{
				Source:  &event.DeviceEvent{Type: evdev.EV_ABS, Code: evdev.ABS_RY},
				Outputs: []event.Mappable{&event.DeviceEvent{Type: evdev.EV_REL, Code: evdev.REL_Y}},
			},
		},
	}
}

func TestMouseSynthesisFromStick(t *testing.T) {
	g, phys, virt, pointer := newTestGamepad()
	g.SetProfile(mouseProfile())

	// スティックを右いっぱいに倒す
	phys.queue = []event.Event{abs(evdev.ABS_RX, 32767)}
	g.Process(0)

	// マウス対象の軸イベントは仮想ゲームパッドへ流れない
	if len(virt.written) != 0 {
		t.Fatalf("マウス対象の軸は転送されないはず: %v", virt.written)
	}

	// 50ミリ秒では 1.0 * 800 * 0.05 = 40単位動く
	g.Process(50 * time.Millisecond)
	wantEvents(t, pointer.written, rel(evdev.REL_X, 40), syn())
}

func TestMouseDeadzone(t *testing.T) {
	g, phys, _, pointer := newTestGamepad()
	g.SetProfile(mouseProfile())

	// デッドゾーン内の傾きでは動かない
	phys.queue = []event.Event{abs(evdev.ABS_RX, 4000)}
	g.Process(0)
	g.Process(time.Second)
	if len(pointer.written) != 0 {
		t.Fatalf("デッドゾーン内では動かないはず: %v", pointer.written)
	}

	// デッドゾーンを超えた値は縮尺されずそのまま使われる
	phys.queue = []event.Event{abs(evdev.ABS_RX, 8192)}
	g.Process(0)
	g.Process(time.Second)
	wantEvents(t, pointer.written, rel(evdev.REL_X, 200), syn())
}

func TestMouseRemainderCarried(t *testing.T) {
	g, phys, _, pointer := newTestGamepad()
	g.SetProfile(mouseProfile())

	phys.queue = []event.Event{abs(evdev.ABS_RX, 32767)}
	g.Process(0)

	// 1ミリ秒分(0.8単位)は端数として繰り越される
	g.Process(time.Millisecond)
	if len(pointer.written) != 0 {
		t.Fatalf("1単位未満では書き込まれないはず: %v", pointer.written)
	}

	// 繰り越しと合わせて1単位になった時点で動く
	g.Process(time.Millisecond)
	wantEvents(t, pointer.written, rel(evdev.REL_X, 1), syn())
}

func TestMouseNegativeMovement(t *testing.T) {
	g, phys, _, pointer := newTestGamepad()
	g.SetProfile(mouseProfile())

	phys.queue = []event.Event{abs(evdev.ABS_RY, -32768)}
	g.Process(0)
	g.Process(50 * time.Millisecond)

	wantEvents(t, pointer.written, rel(evdev.REL_Y, -40), syn())
}

func TestMouseBothSticksAdd(t *testing.T) {
	g, phys, _, pointer := newTestGamepad()
	// 左右どちらのスティックも使うプロファイル
	p := mouseProfile()
	p.Mappings = append(p.Mappings, profile.Mapping{
		Source:  &event.DeviceEvent{Type: evdev.EV_ABS, Code: evdev.ABS_X},
		Outputs: []event.Mappable{&event.DeviceEvent{Type: evdev.EV_REL, Code: evdev.REL_X}},
	})
	g.SetProfile(p)

	phys.queue = []event.Event{abs(evdev.ABS_X, 32767), abs(evdev.ABS_RX, 32767)}
	g.Process(0)
	g.Process(50 * time.Millisecond)

	// 両スティックの寄与は加算される
	wantEvents(t, pointer.written, rel(evdev.REL_X, 80), syn())
}

func TestMouseOnlyInPassModes(t *testing.T) {
	g, phys, _, pointer := newTestGamepad()
	g.SetProfile(mouseProfile())

	phys.queue = []event.Event{abs(evdev.ABS_RX, 32767)}
	g.Process(0)

	g.SetMode(ModeAll)
	g.Process(time.Second)
	if len(pointer.written) != 0 {
		t.Errorf("ALLではマウス合成しないはず: %v", pointer.written)
	}

	g.SetMode(ModeNone)
	g.Process(time.Second)
	if len(pointer.written) != 0 {
		t.Errorf("NONEではマウス合成しないはず: %v", pointer.written)
	}

	g.SetMode(ModePassQAM)
	g.Process(50 * time.Millisecond)
	wantEvents(t, pointer.written, rel(evdev.REL_X, 40), syn())
}

func TestSetProfileResetsRemainder(t *testing.T) {
	g, phys, _, pointer := newTestGamepad()
	g.SetProfile(mouseProfile())

	phys.queue = []event.Event{abs(evdev.ABS_RX, 32767)}
	g.Process(0)
	g.Process(time.Millisecond)

	// プロファイル差し替えで繰り越しは破棄される
	g.SetProfile(mouseProfile())
	g.Process(time.Millisecond)
	if len(pointer.written) != 0 {
		t.Errorf("端数は破棄されるはず: %v", pointer.written)
	}
}
