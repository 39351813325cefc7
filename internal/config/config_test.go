package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Service.TickRate != 120 {
		t.Errorf("TickRate = %d, want 120", cfg.Service.TickRate)
	}
	if cfg.Service.DefaultMode != "PASS" {
		t.Errorf("DefaultMode = %q, want PASS", cfg.Service.DefaultMode)
	}
	if !cfg.Device.Grab {
		t.Error("デフォルトではデバイスを占有するはず")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.API.Port)
	}

	// ファイルがなければデフォルト設定が書き出される
	if _, err := os.Stat(path); err != nil {
		t.Errorf("設定ファイルが作成されていない: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Service.TickRate = 250
	cfg.Device.Preferred = "My Pad"
	cfg.Profiles.Active = "fps"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Service.TickRate != 250 {
		t.Errorf("TickRate = %d, want 250", loaded.Service.TickRate)
	}
	if loaded.Device.Preferred != "My Pad" {
		t.Errorf("Preferred = %q, want My Pad", loaded.Device.Preferred)
	}
	if loaded.Profiles.Active != "fps" {
		t.Errorf("Active = %q, want fps", loaded.Profiles.Active)
	}
	if loaded.Virtual.Vendor != 0x045e {
		t.Errorf("Vendor = %#x, want 0x045e", loaded.Virtual.Vendor)
	}
}

func TestProfilesDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profiles.Dir = "/tmp/custom-profiles"
	if got := cfg.ProfilesDir(); got != "/tmp/custom-profiles" {
		t.Errorf("ProfilesDir() = %q, want /tmp/custom-profiles", got)
	}

	// 未指定なら設定ディレクトリ配下のprofilesを使う
	cfg.Profiles.Dir = ""
	if got := cfg.ProfilesDir(); !strings.HasSuffix(got, "profiles") {
		t.Errorf("ProfilesDir() = %q, want 末尾がprofiles", got)
	}
}
