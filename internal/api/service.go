package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/char5742/gamepad-bridge/internal/config"
	"github.com/char5742/gamepad-bridge/internal/device"
	"github.com/char5742/gamepad-bridge/internal/hub"
	"github.com/char5742/gamepad-bridge/internal/intercept"
	"github.com/char5742/gamepad-bridge/internal/profile"
	"github.com/char5742/gamepad-bridge/internal/tasks"
)

// デバイスを開く処理の待ち時間上限
const openTimeout = 10 * time.Second

// GamepadService はゲームパッド変換サービス全体を管理する構造体
type GamepadService struct {
	cfg         *config.Config
	statusMutex sync.RWMutex
	running     bool

	group       *tasks.Group
	executor    *tasks.Executor
	monitor     *device.Monitor
	store       *profile.Store
	hub         *hub.Hub
	broadcaster *hub.Broadcaster

	gamepad       *intercept.ManagedGamepad
	activeProfile string
}

// NewGamepadService は新しい変換サービスを作成する
func NewGamepadService(cfg *config.Config) *GamepadService {
	return &GamepadService{
		cfg: cfg,
	}
}

// Start は変換サービスを開始する
func (s *GamepadService) Start() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.running {
		return fmt.Errorf("サービスは既に実行中です")
	}

	// プロファイル置き場の読み込み
	store := profile.NewStore(s.cfg.ProfilesDir())
	if err := store.Load(); err != nil {
		return fmt.Errorf("プロファイルの読み込みに失敗しました: %v", err)
	}
	s.store = store
	s.activeProfile = s.cfg.Profiles.Active

	// 配信まわりの準備
	s.hub = hub.NewHub()
	s.broadcaster = hub.NewBroadcaster(s.hub)
	go s.hub.Run()

	// ブロックする処理を逃がす実行基盤
	s.executor = tasks.NewExecutor(s.cfg.Service.Workers)

	// デバイスの抜き差し監視
	monitor, err := device.NewMonitor()
	if err != nil {
		s.teardownLocked()
		return fmt.Errorf("デバイスモニターの作成に失敗しました: %v", err)
	}
	s.monitor = monitor
	monitor.RegisterCallback(s.onDeviceChange)
	if err := monitor.Start(); err != nil {
		s.teardownLocked()
		return fmt.Errorf("デバイスモニターの起動に失敗しました: %v", err)
	}

	// プロファイルの変更監視
	if err := store.Watch(s.onProfilesReloaded); err != nil {
		log.Printf("プロファイルの変更監視に失敗しました: %v", err)
	}

	// 処理ループの起動
	s.group = tasks.NewGroup("gamepad", s.cfg.Service.TickRate, false)
	if err := s.group.Register("gamepad", s.tick); err != nil {
		s.teardownLocked()
		return err
	}
	s.group.Start()

	s.running = true

	// 起動時点のデバイスを開く（見つからなくても抜き差しを待ち続ける）
	infos := monitor.Known()
	if picked := s.pickDevice(infos); picked != nil {
		path := picked.Path
		task := s.executor.Submit(func() (any, error) {
			return nil, s.openGamepad(path)
		})
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
			defer cancel()
			if _, err := task.Wait(ctx); err != nil {
				log.Printf("ゲームパッドを開けませんでした: %v", err)
			}
		}()
	} else {
		log.Println("ゲームパッドが見つかりませんでした。接続を待ちます")
	}

	return nil
}

// Stop は変換サービスを停止する
func (s *GamepadService) Stop() error {
	// ティック処理がこのミューテックスを読むため、
	// ロックの中では部品を切り離すだけにして停止待ちは外で行う
	s.statusMutex.Lock()
	if !s.running {
		s.statusMutex.Unlock()
		return fmt.Errorf("サービスは実行されていません")
	}
	s.running = false
	group := s.group
	monitor := s.monitor
	store := s.store
	g := s.gamepad
	executor := s.executor
	h := s.hub
	s.group = nil
	s.monitor = nil
	s.store = nil
	s.gamepad = nil
	s.executor = nil
	s.hub = nil
	s.broadcaster = nil
	s.statusMutex.Unlock()

	if group != nil {
		group.Stop()
	}
	if monitor != nil {
		monitor.Stop()
	}
	if store != nil {
		store.Stop()
	}
	if g != nil {
		_ = g.Close()
	}
	if executor != nil {
		executor.Stop()
	}
	if h != nil {
		h.Stop()
	}
	log.Println("ゲームパッド変換サービスを停止しました")

	return nil
}

// teardownLocked は起動途中に失敗した部品を畳む
// 処理ループの起動前に呼ぶこと
func (s *GamepadService) teardownLocked() {
	s.group = nil
	if s.monitor != nil {
		s.monitor.Stop()
		s.monitor = nil
	}
	if s.store != nil {
		s.store.Stop()
		s.store = nil
	}
	if s.executor != nil {
		s.executor.Stop()
		s.executor = nil
	}
	if s.hub != nil {
		s.hub.Stop()
		s.hub = nil
	}
	s.broadcaster = nil
}

// IsRunning はサービスが実行中かどうかを返す
func (s *GamepadService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// Hub は配信用のHubを返す
// サービスが停止しているときはnil
func (s *GamepadService) Hub() *hub.Hub {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.hub
}

// Broadcaster は状態配信用のBroadcasterを返す
func (s *GamepadService) Broadcaster() *hub.Broadcaster {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.broadcaster
}

// tick は1ティック分の処理を回す
func (s *GamepadService) tick(delta time.Duration) {
	s.statusMutex.RLock()
	g := s.gamepad
	s.statusMutex.RUnlock()

	if g != nil {
		g.Process(delta)
	}
}

// pickDevice は設定の優先デバイスか最初に見つかったゲームパッドを選ぶ
// 自分が作った仮想デバイスは候補から外す
func (s *GamepadService) pickDevice(infos []device.Info) *device.Info {
	var first *device.Info
	for i := range infos {
		info := &infos[i]
		if s.isOwnVirtual(info.Name) {
			continue
		}
		if first == nil {
			first = info
		}
		if s.cfg.Device.Preferred != "" && info.Name == s.cfg.Device.Preferred {
			return info
		}
	}
	return first
}

// isOwnVirtual は自分が作成した仮想デバイスの名前かどうかを報告する
func (s *GamepadService) isOwnVirtual(name string) bool {
	return name == s.cfg.Virtual.Name || name == s.cfg.Virtual.PointerName
}

// openGamepad は物理デバイスを開いてエンジンを組み立てる
func (s *GamepadService) openGamepad(path string) error {
	s.statusMutex.RLock()
	cfg := s.cfg
	already := s.gamepad != nil
	s.statusMutex.RUnlock()

	if already {
		return nil
	}

	g, err := intercept.Open(path, intercept.Options{
		VirtualName: cfg.Virtual.Name,
		Vendor:      uint16(cfg.Virtual.Vendor),
		Product:     uint16(cfg.Virtual.Product),
		Version:     uint16(cfg.Virtual.Version),
		PointerName: cfg.Virtual.PointerName,
		Grab:        cfg.Device.Grab,
	})
	if err != nil {
		return err
	}

	// 起動時の横取りモード
	if mode, err := intercept.ParseMode(cfg.Service.DefaultMode); err == nil {
		g.SetMode(mode)
	} else {
		log.Printf("既定モードの解釈に失敗したためPASSを使います: %v", err)
	}

	// 起動時のプロファイル
	s.applyActiveProfile(g)

	s.statusMutex.Lock()
	if s.gamepad != nil || !s.running {
		// 先に別のデバイスが開かれたか停止済みなら、開いた分を畳む
		s.statusMutex.Unlock()
		_ = g.Close()
		return nil
	}
	s.gamepad = g
	b := s.broadcaster
	s.statusMutex.Unlock()

	if b != nil {
		go b.Pump(g.Actions())
	}
	s.publishState()

	name, _ := g.Identity()
	log.Printf("ゲームパッドを接続しました: %s (%s)", name, path)
	return nil
}

// applyActiveProfile は控えているプロファイル名をエンジンに適用する
func (s *GamepadService) applyActiveProfile(g *intercept.ManagedGamepad) {
	s.statusMutex.RLock()
	store := s.store
	name := s.activeProfile
	s.statusMutex.RUnlock()

	if store == nil || name == "" {
		return
	}
	p, ok := store.Get(name)
	if !ok {
		log.Printf("プロファイル %s が見つかりません", name)
		return
	}
	g.SetProfile(p)
}

// onDeviceChange はデバイスの抜き差しに追従する
func (s *GamepadService) onDeviceChange(change device.Change) {
	s.statusMutex.RLock()
	running := s.running
	g := s.gamepad
	executor := s.executor
	s.statusMutex.RUnlock()

	if !running || executor == nil {
		return
	}

	switch change.Type {
	case device.Removed:
		if g != nil && g.Path() == change.Path && g.Connected() {
			log.Printf("ゲームパッドが切断されました: %s", change.Path)
			g.Detach()
			s.publishState()
		}

	case device.Added:
		if s.isOwnVirtual(change.Info.Name) {
			return
		}

		// 切断中のエンジンがあれば同じ個体かを照合して開き直す
		if g != nil {
			if g.Connected() {
				return
			}
			name, phys := g.Identity()
			if change.Info.Name != name || (phys != "" && change.Info.Phys != phys) {
				return
			}
			path := change.Path
			task := executor.Submit(func() (any, error) {
				return nil, g.Reopen(path)
			})
			ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
			defer cancel()
			if _, err := task.Wait(ctx); err != nil {
				log.Printf("ゲームパッドの再接続に失敗しました: %v", err)
				return
			}
			log.Printf("ゲームパッドが再接続されました: %s", path)
			s.publishState()
			return
		}

		// エンジンがまだないなら新しく開く
		if picked := s.pickDevice([]device.Info{change.Info}); picked != nil {
			path := picked.Path
			task := executor.Submit(func() (any, error) {
				return nil, s.openGamepad(path)
			})
			ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
			defer cancel()
			if _, err := task.Wait(ctx); err != nil {
				log.Printf("ゲームパッドを開けませんでした: %v", err)
			}
		}
	}
}

// onProfilesReloaded はプロファイルの再読み込み後に適用し直す
func (s *GamepadService) onProfilesReloaded() {
	s.statusMutex.RLock()
	g := s.gamepad
	s.statusMutex.RUnlock()

	if g != nil {
		s.applyActiveProfile(g)
		s.publishState()
	}
}

// publishState は現在の状態をWebSocketクライアントへ配信する
func (s *GamepadService) publishState() {
	s.statusMutex.RLock()
	g := s.gamepad
	b := s.broadcaster
	profileName := s.activeProfile
	s.statusMutex.RUnlock()

	if b == nil {
		return
	}

	mode := intercept.ModeNone.String()
	connected := false
	deviceName := ""
	if g != nil {
		mode = g.Mode().String()
		connected = g.Connected()
		deviceName, _ = g.Identity()
	}
	b.PublishState(mode, profileName, connected, deviceName)
}

// SetMode は横取りモードを切り替える
func (s *GamepadService) SetMode(name string) error {
	mode, err := intercept.ParseMode(name)
	if err != nil {
		return err
	}

	s.statusMutex.RLock()
	g := s.gamepad
	s.statusMutex.RUnlock()

	if g == nil {
		return fmt.Errorf("ゲームパッドが接続されていません")
	}
	g.SetMode(mode)
	s.publishState()
	return nil
}

// Mode は現在の横取りモードを返す
func (s *GamepadService) Mode() string {
	s.statusMutex.RLock()
	g := s.gamepad
	s.statusMutex.RUnlock()

	if g == nil {
		return intercept.ModeNone.String()
	}
	return g.Mode().String()
}

// ProfileNames は読み込まれているプロファイル名の一覧を返す
func (s *GamepadService) ProfileNames() []string {
	s.statusMutex.RLock()
	store := s.store
	s.statusMutex.RUnlock()

	if store == nil {
		return nil
	}
	return store.Names()
}

// ActiveProfile は適用中のプロファイル名を返す
func (s *GamepadService) ActiveProfile() string {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.activeProfile
}

// ReloadProfiles はプロファイルディレクトリを読み直して適用し直す
func (s *GamepadService) ReloadProfiles() error {
	s.statusMutex.RLock()
	store := s.store
	s.statusMutex.RUnlock()

	if store == nil {
		return fmt.Errorf("サービスは実行されていません")
	}
	if err := store.Load(); err != nil {
		return err
	}
	s.onProfilesReloaded()
	return nil
}

// SetActiveProfile は適用するプロファイルを切り替える
func (s *GamepadService) SetActiveProfile(name string) error {
	s.statusMutex.RLock()
	store := s.store
	g := s.gamepad
	s.statusMutex.RUnlock()

	if store == nil {
		return fmt.Errorf("サービスは実行されていません")
	}
	p, ok := store.Get(name)
	if !ok {
		return fmt.Errorf("プロファイル %s が見つかりません", name)
	}

	s.statusMutex.Lock()
	s.activeProfile = name
	s.statusMutex.Unlock()

	if g != nil {
		g.SetProfile(p)
	}
	s.publishState()
	return nil
}

// ServiceStatus はサービスの現在状態
type ServiceStatus struct {
	Running    bool   `json:"running"`
	Connected  bool   `json:"connected"`
	Device     string `json:"device,omitempty"`
	DevicePath string `json:"device_path,omitempty"`
	Mode       string `json:"mode"`
	Profile    string `json:"profile"`
	TickRate   int    `json:"tick_rate"`
	Clients    int    `json:"clients"`
}

// Status はサービスの現在状態をまとめて返す
func (s *GamepadService) Status() ServiceStatus {
	s.statusMutex.RLock()
	running := s.running
	g := s.gamepad
	h := s.hub
	group := s.group
	profileName := s.activeProfile
	s.statusMutex.RUnlock()

	status := ServiceStatus{
		Running: running,
		Mode:    intercept.ModeNone.String(),
		Profile: profileName,
	}
	if g != nil {
		status.Connected = g.Connected()
		status.Mode = g.Mode().String()
		status.Device, _ = g.Identity()
		status.DevicePath = g.Path()
	}
	if h != nil {
		status.Clients = h.ClientCount()
	}
	if group != nil {
		status.TickRate = group.Rate()
	}
	return status
}

// ApplyConfig は設定を差し替えて反映できるものを反映する
// ティックレートは即座に、デバイスや仮想デバイスの設定は次の接続から効く
func (s *GamepadService) ApplyConfig(cfg *config.Config) {
	s.statusMutex.Lock()
	s.cfg = cfg
	group := s.group
	s.statusMutex.Unlock()

	if group != nil {
		group.SetRate(cfg.Service.TickRate)
	}
	log.Println("設定を更新しました")
}
