package device

import (
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	evdev "github.com/gvalkov/golang-evdev"
)

// ChangeType はデバイス変更イベントの種類を表す
type ChangeType int

const (
	Added ChangeType = iota
	Removed
)

// Change はゲームパッドの接続状態の変更を表す
type Change struct {
	Type ChangeType
	Path string
	Info Info
}

// ChangeCallback はデバイス変更イベント発生時に呼び出されるコールバック関数の型
type ChangeCallback func(change Change)

// Info は検出したゲームパッドの情報を表す構造体
type Info struct {
	Path    string
	Name    string
	Phys    string
	Vendor  uint16
	Product uint16
}

// ScanGamepads は/dev/input以下を走査してゲームパッドの一覧を返す
func ScanGamepads() ([]Info, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, path := range paths {
		info, ok := probeGamepad(path)
		if !ok {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// probeGamepad はデバイスを開いて能力を調べ、ゲームパッドであれば情報を返す
func probeGamepad(path string) (Info, bool) {
	dev, err := evdev.Open(path)
	if err != nil {
		return Info{}, false
	}
	defer dev.File.Close()

	// ゲームパッド用ボタンと絶対軸の両方を持つデバイスだけを対象にする
	hasGamepadKey := false
	for _, code := range dev.CapabilitiesFlat[evdev.EV_KEY] {
		if code == evdev.BTN_A || code == evdev.BTN_MODE {
			hasGamepadKey = true
			break
		}
	}
	if !hasGamepadKey || len(dev.CapabilitiesFlat[evdev.EV_ABS]) == 0 {
		return Info{}, false
	}

	return Info{
		Path:    path,
		Name:    dev.Name,
		Phys:    dev.Phys,
		Vendor:  dev.Vendor,
		Product: dev.Product,
	}, true
}

// Monitor はゲームパッドの接続状態を監視する構造体
type Monitor struct {
	watcher       *fsnotify.Watcher
	callbacks     []ChangeCallback
	known         map[string]Info // パスをキーにした既知デバイスマップ
	mutex         sync.RWMutex
	stopChan      chan struct{}
	pollingTicker *time.Ticker
	isRunning     bool
}

// NewMonitor は新しいMonitorを作成する
func NewMonitor() (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Monitor{
		watcher:   watcher,
		callbacks: make([]ChangeCallback, 0),
		known:     make(map[string]Info),
		stopChan:  make(chan struct{}),
	}, nil
}

// Start はデバイスの監視を開始する
// 開始時点で接続済みのデバイスは通知せず、以後の変化だけを通知する
func (m *Monitor) Start() error {
	if m.isRunning {
		return nil // すでに実行中
	}

	log.Println("デバイスモニターを開始します")
	m.isRunning = true

	if err := m.watcher.Add("/dev/input"); err != nil {
		log.Printf("ディレクトリの監視に失敗しました: /dev/input - %v", err)
	}

	// 初期デバイス一覧を取得
	infos, err := ScanGamepads()
	if err != nil {
		log.Printf("初期デバイス一覧の取得に失敗しました: %v", err)
	} else {
		log.Printf("初期デバイス検出: %d 個のゲームパッドを検出", len(infos))
		m.mutex.Lock()
		for _, info := range infos {
			m.known[info.Path] = info
		}
		m.mutex.Unlock()
	}

	// イベント取りこぼしに備えたポーリング監視を開始（2秒ごと）
	m.pollingTicker = time.NewTicker(2 * time.Second)

	// イベント監視ゴルーチンを起動
	go m.watchEvents()

	return nil
}

// Stop はデバイスの監視を停止する
func (m *Monitor) Stop() {
	if !m.isRunning {
		return
	}

	log.Println("デバイスモニターを停止します")

	close(m.stopChan)

	if m.pollingTicker != nil {
		m.pollingTicker.Stop()
	}

	m.watcher.Close()

	m.isRunning = false
}

// RegisterCallback はデバイス変更イベントのコールバック関数を登録する
func (m *Monitor) RegisterCallback(callback ChangeCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.callbacks = append(m.callbacks, callback)
}

// Known は現在把握しているゲームパッドのスナップショットを返す
func (m *Monitor) Known() []Info {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	infos := make([]Info, 0, len(m.known))
	for _, info := range m.known {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}

// rescan はデバイス一覧を取得し直し、差分を通知する
func (m *Monitor) rescan() {
	infos, err := ScanGamepads()
	if err != nil {
		log.Printf("デバイス再スキャンに失敗しました: %v", err)
		return
	}

	current := make(map[string]Info, len(infos))
	for _, info := range infos {
		current[info.Path] = info
	}

	var added, removed []Change

	m.mutex.Lock()
	for path, info := range current {
		if _, exists := m.known[path]; !exists {
			m.known[path] = info
			added = append(added, Change{Type: Added, Path: path, Info: info})
		}
	}
	for path, info := range m.known {
		if _, exists := current[path]; !exists {
			delete(m.known, path)
			removed = append(removed, Change{Type: Removed, Path: path, Info: info})
		}
	}
	m.mutex.Unlock()

	for _, change := range removed {
		log.Printf("デバイスが削除されました: %s (%s)", change.Info.Name, change.Path)
		m.notifyCallbacks(change)
	}
	for _, change := range added {
		log.Printf("新しいデバイスを検出: %s (%s)", change.Info.Name, change.Path)
		m.notifyCallbacks(change)
	}
}

// notifyCallbacks は登録されているすべてのコールバックに通知する
func (m *Monitor) notifyCallbacks(change Change) {
	// コピーしてロックを解放した状態でコールバックを呼び出す
	var callbacks []ChangeCallback
	m.mutex.RLock()
	callbacks = append(callbacks, m.callbacks...)
	m.mutex.RUnlock()

	for _, callback := range callbacks {
		go callback(change)
	}
}

// watchEvents はfsnotifyのイベントとポーリングを監視する
func (m *Monitor) watchEvents() {
	// 一時的なファイルシステムイベントを収集してバッチ処理するためのしくみ
	eventDebounceTime := 500 * time.Millisecond
	eventTimer := time.NewTimer(eventDebounceTime)
	eventTimer.Stop() // 初期状態では停止
	pendingRescan := false

	for {
		select {
		case <-m.stopChan:
			log.Println("ファイルシステムイベント監視を停止します")
			return

		case <-eventTimer.C:
			if pendingRescan {
				pendingRescan = false
				m.rescan()
			}

		case <-m.pollingTicker.C:
			m.rescan()

		case ev, ok := <-m.watcher.Events:
			if !ok {
				log.Println("イベントチャネルが閉じられました")
				return
			}

			// イベントノード以外の変化は無視する
			if !strings.Contains(filepath.Base(ev.Name), "event") {
				continue
			}

			if ev.Op&fsnotify.Create == fsnotify.Create ||
				ev.Op&fsnotify.Remove == fsnotify.Remove {
				// タイマーをリセットして複数のイベントをバッチ処理
				if !pendingRescan {
					pendingRescan = true
					eventTimer.Reset(eventDebounceTime)
				}
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				log.Println("エラーチャネルが閉じられました")
				return
			}
			log.Printf("ファイルシステム監視エラー: %v", err)
		}
	}
}
