package intercept

import (
	"syscall"
	"testing"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/device"
	"github.com/char5742/gamepad-bridge/internal/event"
)

func ffPlay(code uint16, value int32) event.Event {
	return event.New(evdev.EV_FF, code, value)
}

func uiRequest(code uint16, requestID int32) event.Event {
	return event.New(event.EvUinput, code, requestID)
}

func TestFFUploadBridgesToPhysical(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()

	// カーネルが仮想側ID3で採番した効果のアップロード要求
	virt.uploads[7] = &device.FFUpload{
		RequestID: 7,
		Effect:    device.FFEffect{Type: device.FFRumble, ID: 3},
	}
	virt.queue = []event.Event{uiRequest(event.UIFFUpload, 7)}
	g.Process(testTick)

	if len(virt.endedUploads) != 1 {
		t.Fatalf("応答は1件のはず: %d", len(virt.endedUploads))
	}
	if got := virt.endedUploads[0].Retval; got != 0 {
		t.Errorf("Retval = %d, want 0", got)
	}
	// 物理側では物理デバイスの採番で登録される
	if _, ok := phys.effects[5]; !ok {
		t.Errorf("物理デバイスに効果が登録されるはず: %v", phys.effects)
	}
	if got := g.ffEffects[3]; got != 5 {
		t.Errorf("効果IDの対応 = %d, want 5", got)
	}
}

func TestFFPlayTranslatesEffectID(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.ffEffects[3] = 5

	virt.queue = []event.Event{ffPlay(3, 1)}
	g.Process(testTick)
	wantEvents(t, phys.written, ffPlay(5, 1))

	// 対応表にないIDはそのまま流す
	virt.queue = []event.Event{ffPlay(9, 0)}
	g.Process(testTick)
	wantEvents(t, phys.written, ffPlay(5, 1), ffPlay(9, 0))
}

func TestFFReuploadKeepsPhysicalID(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.ffEffects[3] = 5

	// 同じ仮想IDの再アップロードはパラメーター更新として扱う
	virt.uploads[8] = &device.FFUpload{
		RequestID: 8,
		Effect:    device.FFEffect{Type: device.FFRumble, ID: 3},
	}
	virt.queue = []event.Event{uiRequest(event.UIFFUpload, 8)}
	g.Process(testTick)

	if got := g.ffEffects[3]; got != 5 {
		t.Errorf("物理IDは変わらないはず: %d", got)
	}
	if _, ok := phys.effects[5]; !ok {
		t.Errorf("物理側の効果が更新されるはず: %v", phys.effects)
	}
	if got := phys.nextID; got != 5 {
		t.Errorf("新規採番は起きないはず: nextID = %d", got)
	}
}

func TestFFEraseRemovesTrackedEffect(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.ffEffects[3] = 5
	phys.effects[5] = device.FFEffect{Type: device.FFRumble, ID: 5}

	virt.erases[9] = &device.FFErase{RequestID: 9, EffectID: 3}
	virt.queue = []event.Event{uiRequest(event.UIFFErase, 9)}
	g.Process(testTick)

	if len(virt.endedErases) != 1 || virt.endedErases[0].Retval != 0 {
		t.Fatalf("消去応答は成功になるはず: %+v", virt.endedErases)
	}
	if len(phys.erased) != 1 || phys.erased[0] != 5 {
		t.Errorf("物理ID5が消去されるはず: %v", phys.erased)
	}
	if _, ok := g.ffEffects[3]; ok {
		t.Error("対応表から取り除かれるはず")
	}
}

func TestFFEraseUntrackedSucceeds(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()

	virt.erases[10] = &device.FFErase{RequestID: 10, EffectID: 42}
	virt.queue = []event.Event{uiRequest(event.UIFFErase, 10)}
	g.Process(testTick)

	if len(virt.endedErases) != 1 || virt.endedErases[0].Retval != 0 {
		t.Fatalf("追跡していない効果の消去は成功扱いのはず: %+v", virt.endedErases)
	}
	if len(phys.erased) != 0 {
		t.Errorf("物理デバイスには何も要求しないはず: %v", phys.erased)
	}
}

func TestFFUploadWithoutPhysicalDevice(t *testing.T) {
	g, _, virt, _ := newTestGamepad()
	g.Detach()

	virt.uploads[11] = &device.FFUpload{
		RequestID: 11,
		Effect:    device.FFEffect{Type: device.FFRumble, ID: 0},
	}
	virt.queue = []event.Event{uiRequest(event.UIFFUpload, 11)}
	g.Process(testTick)

	if len(virt.endedUploads) != 1 {
		t.Fatalf("切断中でも応答は返るはず: %d", len(virt.endedUploads))
	}
	if got := virt.endedUploads[0].Retval; got != -int32(syscall.ENODEV) {
		t.Errorf("Retval = %d, want %d", got, -int32(syscall.ENODEV))
	}
}

func TestFFPlayDroppedWithoutPhysicalDevice(t *testing.T) {
	g, phys, virt, _ := newTestGamepad()
	g.Detach()

	virt.queue = []event.Event{ffPlay(3, 1)}
	g.Process(testTick)

	if len(phys.written) != 0 {
		t.Errorf("切断中の振動は捨てられるはず: %v", phys.written)
	}
}

func TestDetachClearsEffectTable(t *testing.T) {
	g, _, _, _ := newTestGamepad()
	g.ffEffects[3] = 5

	g.Detach()

	if len(g.ffEffects) != 0 {
		t.Errorf("切断で効果の対応表は破棄されるはず: %v", g.ffEffects)
	}
}
