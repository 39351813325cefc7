package profile

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/char5742/gamepad-bridge/internal/event"
)

// プロファイルディレクトリの変更をまとめて処理するまでの待ち時間
const reloadDebounceTime = 500 * time.Millisecond

// Store はプロファイルディレクトリの読み込みと監視を行う構造体
type Store struct {
	dir      string
	mutex    sync.RWMutex
	profiles map[string]*Profile
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	running  bool
	onReload func()
}

// NewStore は指定ディレクトリのプロファイルストアを作成する
func NewStore(dir string) *Store {
	return &Store{
		dir:      dir,
		profiles: make(map[string]*Profile),
	}
}

// Load はディレクトリ内のTOMLプロファイルをすべて読み込む
// ディレクトリが存在しない場合は作成してサンプルプロファイルを書き出す
// 壊れたファイルは読み飛ばし、エンジンは止めない
func (s *Store) Load() error {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		log.Printf("プロファイルディレクトリを作成します: %s", s.dir)
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return fmt.Errorf("プロファイルディレクトリの作成に失敗しました: %w", err)
		}
		if err := SaveFile(DefaultProfile(), filepath.Join(s.dir, "default.toml")); err != nil {
			log.Printf("サンプルプロファイルの書き出しに失敗しました: %v", err)
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("プロファイルディレクトリの読み込みに失敗しました: %w", err)
	}

	loaded := make(map[string]*Profile)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		p, err := LoadFile(path)
		if err != nil {
			log.Printf("プロファイルを読み飛ばします: %s - %v", path, err)
			continue
		}
		if _, exists := loaded[p.Name]; exists {
			log.Printf("プロファイル名が重複しているため読み飛ばします: %s (%s)", p.Name, path)
			continue
		}
		loaded[p.Name] = p
	}

	s.mutex.Lock()
	s.profiles = loaded
	s.mutex.Unlock()

	log.Printf("プロファイルを読み込みました: %d 件", len(loaded))
	return nil
}

// Get は名前でプロファイルを取得する
func (s *Store) Get(name string) (*Profile, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, ok := s.profiles[name]
	return p, ok
}

// Names は読み込み済みプロファイル名の一覧をソートして返す
func (s *Store) Names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watch はディレクトリの変更監視を開始する
// 変更はデバウンスして再読み込みし、onReloadがあれば呼び出す
func (s *Store) Watch(onReload func()) error {
	if s.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("プロファイル監視の作成に失敗しました: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("プロファイルディレクトリの監視に失敗しました: %w", err)
	}

	s.watcher = watcher
	s.stopChan = make(chan struct{})
	s.onReload = onReload
	s.running = true

	go s.watchEvents()
	log.Printf("プロファイルディレクトリの監視を開始しました: %s", s.dir)
	return nil
}

// Stop は変更監視を停止する
func (s *Store) Stop() {
	if !s.running {
		return
	}
	close(s.stopChan)
	s.watcher.Close()
	s.running = false
	log.Println("プロファイルディレクトリの監視を停止しました")
}

// watchEvents はfsnotifyのイベントをバッチ処理して再読み込みする
func (s *Store) watchEvents() {
	reloadTimer := time.NewTimer(reloadDebounceTime)
	reloadTimer.Stop() // 初期状態では停止
	pendingReload := false

	for {
		select {
		case <-s.stopChan:
			return

		case <-reloadTimer.C:
			if !pendingReload {
				continue
			}
			pendingReload = false
			log.Println("プロファイルの変更を検出したため再読み込みします")
			if err := s.Load(); err != nil {
				log.Printf("プロファイルの再読み込みに失敗しました: %v", err)
				continue
			}
			if s.onReload != nil {
				s.onReload()
			}

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".toml") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// 連続する書き込みをまとめる
			if !pendingReload {
				pendingReload = true
			}
			reloadTimer.Reset(reloadDebounceTime)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("プロファイル監視エラー: %v", err)
		}
	}
}

// DefaultProfile はサンプルとして書き出すデスクトップ操作向けプロファイル
// 右スティックをマウス移動へ、主要ボタンをクリックへ対応付ける
func DefaultProfile() *Profile {
	lookup := func(name string) *event.DeviceEvent {
		c, ok := event.Lookup(name)
		if !ok {
			return &event.DeviceEvent{}
		}
		return &event.DeviceEvent{Type: c.Type, Code: c.Code}
	}
	return &Profile{
		Name: "desktop",
		Mappings: []Mapping{
			{Source: lookup("abs_rx"), Outputs: []event.Mappable{lookup("rel_x")}},
			{Source: lookup("abs_ry"), Outputs: []event.Mappable{lookup("rel_y")}},
			{Source: lookup("btn_south"), Outputs: []event.Mappable{lookup("btn_left")}},
			{Source: lookup("btn_east"), Outputs: []event.Mappable{lookup("btn_right")}},
			{Source: lookup("btn_start"), Outputs: []event.Mappable{&event.ActionEvent{Name: event.ActionMenu}}},
		},
	}
}
