package device

import (
	"strings"
	"testing"
	"unsafe"

	evdev "github.com/gvalkov/golang-evdev"
)

// カーネルと共有する構造体はバイト単位でレイアウトが一致している必要がある
// 64ビットLinuxのinput.h/uinput.hのサイズと突き合わせる
func TestKernelStructLayout(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"input_event", unsafe.Sizeof(evdev.InputEvent{}), 24},
		{"ff_effect", unsafe.Sizeof(FFEffect{}), 48},
		{"uinput_ff_upload", unsafe.Sizeof(FFUpload{}), 104},
		{"uinput_ff_erase", unsafe.Sizeof(FFErase{}), 12},
		{"uinput_user_dev", unsafe.Sizeof(UserDev{}), 1116},
		{"input_absinfo", unsafe.Sizeof(AbsInfo{}), 24},
		{"input_id", unsafe.Sizeof(InputID{}), 8},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s のサイズ = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestEVIOCGABS(t *testing.T) {
	if got := EVIOCGABS(0); got != 0x80184540 {
		t.Errorf("EVIOCGABS(0) = %#x, want 0x80184540", got)
	}
	if got := EVIOCGABS(evdev.ABS_RX); got != 0x80184543 {
		t.Errorf("EVIOCGABS(ABS_RX) = %#x, want 0x80184543", got)
	}
	if got := EVIOCGABS(evdev.ABS_HAT0X); got != 0x80184550 {
		t.Errorf("EVIOCGABS(ABS_HAT0X) = %#x, want 0x80184550", got)
	}
}

func TestToUinputName(t *testing.T) {
	got := toUinputName("pad")
	if got[0] != 'p' || got[1] != 'a' || got[2] != 'd' {
		t.Errorf("先頭3バイト = %q", got[:3])
	}
	if got[3] != 0 {
		t.Errorf("残りはゼロ埋めされるはず: %d", got[3])
	}

	// 最大長を超える名前は切り詰められる
	long := strings.Repeat("x", MaxNameSize+20)
	got = toUinputName(long)
	if got[MaxNameSize-1] != 'x' {
		t.Errorf("末尾までコピーされるはず: %d", got[MaxNameSize-1])
	}
}
