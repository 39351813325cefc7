package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Service  ServiceConfig  `toml:"service"`
	Device   DeviceConfig   `toml:"device"`
	Virtual  VirtualConfig  `toml:"virtual"`
	Profiles ProfilesConfig `toml:"profiles"`
	API      APIConfig      `toml:"api"`
}

// ServiceConfig は処理ループの設定
type ServiceConfig struct {
	TickRate    int    `toml:"tick_rate"`    // 1秒あたりの処理回数
	Workers     int    `toml:"workers"`      // 非同期実行のワーカー数（0で同期実行）
	DefaultMode string `toml:"default_mode"` // 起動直後の横取りモード
}

// DeviceConfig は物理デバイスの設定
type DeviceConfig struct {
	Preferred string `toml:"preferred"` // 優先するデバイス名（空なら最初に見つかったもの）
	Grab      bool   `toml:"grab"`      // デバイスを占有して他のプロセスから隠すか
}

// VirtualConfig は仮想デバイスの設定
// ゲーム互換性のため既製コントローラーのIDを名乗る
type VirtualConfig struct {
	Name        string `toml:"name"`
	Vendor      int    `toml:"vendor"`
	Product     int    `toml:"product"`
	Version     int    `toml:"version"`
	PointerName string `toml:"pointer_name"`
}

// ProfilesConfig は変換プロファイルの設定
type ProfilesConfig struct {
	Dir    string `toml:"dir"`    // プロファイル置き場（空なら設定ディレクトリ配下）
	Active string `toml:"active"` // 起動時に適用するプロファイル名
}

// APIConfig はAPIサーバーの設定
type APIConfig struct {
	Port int `toml:"port"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			TickRate:    120,
			Workers:     4,
			DefaultMode: "PASS",
		},
		Device: DeviceConfig{
			Preferred: "",
			Grab:      true,
		},
		Virtual: VirtualConfig{
			Name:        "Microsoft X-Box 360 pad",
			Vendor:      0x045e,
			Product:     0x028e,
			Version:     0x0110,
			PointerName: "Gamepad Bridge Pointer",
		},
		Profiles: ProfilesConfig{
			Dir:    "",
			Active: "default",
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// GetDefaultConfigDir はデフォルトの設定ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gamepad-bridge"), nil
}

// ProfilesDir はプロファイル置き場のパスを決める
// 設定で指定がなければ設定ディレクトリ配下のprofilesを使う
func (c *Config) ProfilesDir() string {
	if c.Profiles.Dir != "" {
		return c.Profiles.Dir
	}
	configDir, err := GetDefaultConfigDir()
	if err != nil {
		return "profiles"
	}
	return filepath.Join(configDir, "profiles")
}

// LoadConfig は設定ファイルから設定を読み込む
func LoadConfig(configPath string) (*Config, error) {
	// デフォルト設定を用意
	config := DefaultConfig()

	// ファイルが存在しない場合はデフォルト設定を保存して返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// 設定ディレクトリの作成
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return config, err
		}

		// デフォルト設定の保存
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}

		return config, nil
	}

	// 設定ファイルの読み込み
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	// 設定ディレクトリの作成
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// ファイルを開く（なければ作成）
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// TOML形式でエンコードして書き込み
	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}
