package intercept

import "testing"

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeNone, "NONE"},
		{ModePass, "PASS"},
		{ModePassQAM, "PASS_QAM"},
		{ModeAll, "ALL"},
		{Mode(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{ModeNone, ModePass, ModePassQAM, ModeAll} {
		got, err := ParseMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseMode(%q) = (%v, %v), want %v", mode.String(), got, err, mode)
		}
	}

	if _, err := ParseMode("SOMETIMES"); err == nil {
		t.Error("未知のモードはエラーになるはず")
	}
	if _, err := ParseMode("pass"); err == nil {
		t.Error("小文字の表記は受け付けないはず")
	}
}
