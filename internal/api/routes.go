package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gorilla/websocket"

	"github.com/char5742/gamepad-bridge/internal/config"
	"github.com/char5742/gamepad-bridge/internal/device"
	"github.com/char5742/gamepad-bridge/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// ローカル用途のためすべてのオリジンを許可する
		return true
	},
}

// ルートの設定
func (s *Server) setupRoutes(router *http.ServeMux) {
	// 設定関連のエンドポイント
	router.HandleFunc("GET /api/config", s.handleGetConfig)
	router.HandleFunc("PUT /api/config", s.handleUpdateConfig)
	router.HandleFunc("POST /api/config/save", s.handleSaveConfig)

	// デバイス関連のエンドポイント
	router.HandleFunc("GET /api/devices", s.handleGetDevices)
	router.HandleFunc("PUT /api/devices/preferred", s.handleSetPreferredDevice)

	// 横取りモードとプロファイルのエンドポイント
	router.HandleFunc("GET /api/mode", s.handleGetMode)
	router.HandleFunc("PUT /api/mode", s.handleSetMode)
	router.HandleFunc("GET /api/profiles", s.handleGetProfiles)
	router.HandleFunc("GET /api/profiles/active", s.handleGetActiveProfile)
	router.HandleFunc("PUT /api/profiles/active", s.handleSetActiveProfile)
	router.HandleFunc("POST /api/profiles/reload", s.handleReloadProfiles)

	// サービス関連のエンドポイント
	router.HandleFunc("POST /api/service/start", s.handleStartService)
	router.HandleFunc("POST /api/service/stop", s.handleStopService)
	router.HandleFunc("GET /api/service/status", s.handleServiceStatus)
	router.HandleFunc("GET /api/status", s.handleStatus)

	// WebSocket配信エンドポイント
	router.HandleFunc("GET /ws", s.handleWebSocket)

	// ヘルスチェック用エンドポイント
	router.HandleFunc("GET /api/health", s.handleHealthCheck)
}

// 設定取得ハンドラ
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetConfig())
}

// 設定更新ハンドラ
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var newConfig config.Config

	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		writeError(w, http.StatusBadRequest, "設定の解析に失敗しました")
		return
	}

	s.UpdateConfig(&newConfig)
	s.service.ApplyConfig(&newConfig)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 設定保存ハンドラ
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var saveRequest struct {
		Path string `json:"path"`
	}

	if err := json.NewDecoder(r.Body).Decode(&saveRequest); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	configPath := saveRequest.Path
	if configPath == "" {
		// デフォルトパスを使用
		userConfigDir, err := config.GetDefaultConfigDir()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "デフォルト設定ディレクトリの取得に失敗しました")
			return
		}
		configPath = filepath.Join(userConfigDir, "config.toml")
	}

	if err := config.SaveConfig(configPath, s.GetConfig()); err != nil {
		writeError(w, http.StatusInternalServerError, "設定の保存に失敗しました: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"path":   configPath,
	})
}

// デバイス一覧取得ハンドラ
func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := device.ScanGamepads()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "デバイス一覧の取得に失敗しました: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, devices)
}

// 優先デバイス設定ハンドラ
func (s *Server) handleSetPreferredDevice(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Device string `json:"device"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	cfg := s.GetConfig()
	cfg.Device.Preferred = request.Device
	s.UpdateConfig(cfg)
	s.service.ApplyConfig(cfg)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// モード取得ハンドラ
func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": s.service.Mode()})
}

// モード設定ハンドラ
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Mode string `json:"mode"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	if err := s.service.SetMode(request.Mode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"mode": s.service.Mode()})
}

// プロファイル一覧取得ハンドラ
func (s *Server) handleGetProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"profiles": s.service.ProfileNames(),
		"active":   s.service.ActiveProfile(),
	})
}

// 適用中プロファイル取得ハンドラ
func (s *Server) handleGetActiveProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"name": s.service.ActiveProfile()})
}

// プロファイル切り替えハンドラ
func (s *Server) handleSetActiveProfile(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	if err := s.service.SetActiveProfile(request.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"name": request.Name})
}

// プロファイル再読み込みハンドラ
func (s *Server) handleReloadProfiles(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ReloadProfiles(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"profiles": s.service.ProfileNames(),
		"active":   s.service.ActiveProfile(),
	})
}

// サービス起動ハンドラ
func (s *Server) handleStartService(w http.ResponseWriter, r *http.Request) {
	if s.service.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already_running"})
		return
	}

	if err := s.service.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("サービスの起動に失敗しました: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// サービス停止ハンドラ
func (s *Server) handleStopService(w http.ResponseWriter, r *http.Request) {
	if !s.service.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "not_running"})
		return
	}

	if err := s.service.Stop(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("サービスの停止に失敗しました: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// サービス状態取得ハンドラ
func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	status := "stopped"
	if s.service.IsRunning() {
		status = "running"
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// 詳細状態取得ハンドラ
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

// WebSocket接続ハンドラ
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	h := s.service.Hub()
	b := s.service.Broadcaster()
	if h == nil || b == nil {
		writeError(w, http.StatusServiceUnavailable, "サービスは実行されていません")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocketへの切り替えに失敗しました: %v", err)
		return
	}

	client := hub.NewClient(h, conn)
	h.Register(client)

	// 接続直後に現在の状態を送る
	b.SendInitialState(client)

	go client.WritePump()
	go client.ReadPump()
}

// ヘルスチェックハンドラ
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
