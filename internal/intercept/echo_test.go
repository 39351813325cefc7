package intercept

import (
	"testing"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/event"
)

func TestEchoRepeatsHeldDirection(t *testing.T) {
	g, phys, _, _ := newTestGamepad()
	g.SetMode(ModeAll)

	// deltaゼロで押下だけを処理する
	phys.queue = []event.Event{abs(evdev.ABS_HAT0X, 1)}
	g.Process(0)
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionRight, Value: 1})

	// 初回の連打はおよそ0.6秒後
	g.Process(300 * time.Millisecond)
	if acts := drainActions(g); len(acts) != 0 {
		t.Fatalf("初回遅延の途中では発火しないはず: %v", acts)
	}
	g.Process(300 * time.Millisecond)
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionRight, Value: 1})

	// 以後は0.15秒間隔
	g.Process(150 * time.Millisecond)
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionRight, Value: 1})
	g.Process(100 * time.Millisecond)
	if acts := drainActions(g); len(acts) != 0 {
		t.Fatalf("間隔の途中では発火しないはず: %v", acts)
	}
	g.Process(50 * time.Millisecond)
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionRight, Value: 1})
}

func TestEchoStopsOnRelease(t *testing.T) {
	g, phys, _, _ := newTestGamepad()
	g.SetMode(ModeAll)

	phys.queue = []event.Event{abs(evdev.ABS_HAT0X, 1)}
	g.Process(0)
	g.Process(600 * time.Millisecond)
	drainActions(g)

	phys.queue = []event.Event{abs(evdev.ABS_HAT0X, 0)}
	g.Process(0)
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionRight, Value: 0})

	// 離した後は時間が経っても発火しない
	g.Process(time.Second)
	g.Process(time.Second)
	if acts := drainActions(g); len(acts) != 0 {
		t.Errorf("離した後の連打はないはず: %v", acts)
	}

	// 押し直すと初回遅延からやり直す
	phys.queue = []event.Event{abs(evdev.ABS_HAT0X, 1)}
	g.Process(0)
	wantActions(t, drainActions(g), ActionInput{Name: event.ActionRight, Value: 1})
	g.Process(300 * time.Millisecond)
	if acts := drainActions(g); len(acts) != 0 {
		t.Errorf("初回遅延がやり直されるはず: %v", acts)
	}
}

func TestEchoHandlesMultipleDirections(t *testing.T) {
	g, phys, _, _ := newTestGamepad()
	g.SetMode(ModeAll)

	// 斜め入力は縦横それぞれ独立して連打される
	phys.queue = []event.Event{abs(evdev.ABS_HAT0X, 1), abs(evdev.ABS_HAT0Y, -1)}
	g.Process(0)
	wantActions(t, drainActions(g),
		ActionInput{Name: event.ActionRight, Value: 1},
		ActionInput{Name: event.ActionUp, Value: 1},
	)

	g.Process(600 * time.Millisecond)
	acts := drainActions(g)
	if len(acts) != 2 {
		t.Fatalf("両方向が発火するはず: %v", acts)
	}
}
