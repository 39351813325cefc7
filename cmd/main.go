package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/char5742/gamepad-bridge/internal/api"
	"github.com/char5742/gamepad-bridge/internal/config"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	port := flag.Int("port", 0, "APIサーバーのポート番号 (指定しない場合は設定ファイルの値を使用)")
	flag.Parse()

	// デフォルト設定ファイルパスの設定
	defaultConfigPath := ""
	configDir, err := config.GetDefaultConfigDir()
	if err == nil {
		defaultConfigPath = filepath.Join(configDir, "config.toml")
	}

	// 設定ファイルパスの決定
	cfgPath := defaultConfigPath
	if *configPath != "" {
		cfgPath = *configPath
	}

	// 設定ファイルの読み込み
	var cfg *config.Config
	if cfgPath != "" {
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("設定ファイルの読み込みに失敗しました: %v\nデフォルト設定を使用します\n", err)
			cfg = config.DefaultConfig()
		} else {
			fmt.Printf("設定ファイルを読み込みました: %s\n", cfgPath)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// ブリッジサービスを作成
	service := api.NewGamepadService(cfg)

	// シグナルハンドラの設定
	handleSignals(service)

	// APIモードかCLIモードかを判断
	if *useApi {
		// APIモードで実行
		apiPort := cfg.API.Port
		if *port != 0 {
			apiPort = *port
		}
		fmt.Printf("APIサーバーモードで起動します (ポート: %d)...\n", apiPort)
		runApiServer(cfg, apiPort, service)
	} else {
		// CLIモードで実行
		fmt.Println("CLIモードで起動します...")
		runCLI(service)
	}
}

// APIサーバーモードでの実行
func runApiServer(cfg *config.Config, port int, service *api.GamepadService) {
	// サービス開始 (失敗してもAPIサーバーは起動し、API経由で再起動できる)
	if err := service.Start(); err != nil {
		log.Printf("ブリッジサービスの起動に失敗しました: %v", err)
	}

	// APIサーバーを作成
	server := api.NewServer(cfg, port, service)

	// サーバー起動
	if err := server.Start(); err != nil {
		log.Fatalf("APIサーバーの起動に失敗しました: %v", err)
	}
}

// CLIモードでの実行
func runCLI(service *api.GamepadService) {
	// サービス開始
	if err := service.Start(); err != nil {
		fmt.Printf("ブリッジサービスの起動に失敗しました: %v\n", err)
		os.Exit(1)
	}

	// シグナルが来るまで待機（終了処理はhandleSignals内で行われる）
	select {}
}

func handleSignals(service *api.GamepadService) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("シャットダウンします...")
		if service.IsRunning() {
			if err := service.Stop(); err != nil {
				log.Printf("サービスの停止に失敗しました: %v", err)
			}
		}
		os.Exit(0)
	}()
}
