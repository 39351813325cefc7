package hub

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestActionMessageShape(t *testing.T) {
	msg := NewActionMessage(7, "ui_accept", 1)

	if msg.Type != "action" {
		t.Errorf("Type = %q, want action", msg.Type)
	}
	if msg.Seq != 7 {
		t.Errorf("Seq = %d, want 7", msg.Seq)
	}
	if !msg.Pressed {
		t.Error("値が1ならPressedはtrueのはず")
	}
	if msg.Timestamp == 0 {
		t.Error("Timestampが入っていない")
	}

	released := NewActionMessage(8, "ui_accept", 0)
	if released.Pressed {
		t.Error("値が0ならPressedはfalseのはず")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"type", "seq", "timestamp", "name", "value", "pressed"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("JSONにキー %q がない: %s", key, data)
		}
	}
}

func TestStateMessageOmitsEmptyDevice(t *testing.T) {
	msg := NewStateMessage(1, "PASS", "desktop", false, "")
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"device"`) {
		t.Errorf("デバイス未接続時はdeviceを省略するはず: %s", data)
	}

	msg = NewStateMessage(2, "PASS", "desktop", true, "Xbox Pad")
	data, err = json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"device":"Xbox Pad"`) {
		t.Errorf("接続中はデバイス名が入るはず: %s", data)
	}
}
