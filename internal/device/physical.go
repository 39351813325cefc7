package device

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"unsafe"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"

	"github.com/char5742/gamepad-bridge/internal/event"
)

// Physical は占有した物理ゲームパッドを表す構造体
// フォースフィードバックの書き込み用に読み書き両用のハンドルを別に持つ
type Physical struct {
	dev     *evdev.InputDevice
	ffFile  *os.File
	path    string
	grabbed bool
}

// OpenPhysical は物理デバイスを開いて非ブロッキングに設定する
func OpenPhysical(path string) (*Physical, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("物理デバイスを開くのに失敗しました %s: %w", path, err)
	}
	if err := unix.SetNonblock(int(dev.File.Fd()), true); err != nil {
		_ = dev.File.Close()
		return nil, fmt.Errorf("非ブロッキング設定に失敗しました: %w", err)
	}
	ffFile, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0660)
	if err != nil {
		_ = dev.File.Close()
		return nil, fmt.Errorf("フォースフィードバック用ハンドルを開くのに失敗しました: %w", err)
	}
	return &Physical{dev: dev, ffFile: ffFile, path: path}, nil
}

// Name はデバイス名を返す
func (p *Physical) Name() string {
	return p.dev.Name
}

// Phys は物理トポロジー文字列を返す
func (p *Physical) Phys() string {
	return p.dev.Phys
}

// Path はデバイスファイルのパスを返す
func (p *Physical) Path() string {
	return p.path
}

// ID はバス種別とベンダー・プロダクト・バージョンを返す
func (p *Physical) ID() InputID {
	return InputID{
		Bustype: p.dev.Bustype,
		Vendor:  p.dev.Vendor,
		Product: p.dev.Product,
		Version: p.dev.Version,
	}
}

// Grab はデバイスを占有して他のプロセスからイベントを隠す
func (p *Physical) Grab() error {
	if p.grabbed {
		return nil
	}
	if err := p.dev.Grab(); err != nil {
		return fmt.Errorf("デバイスの占有に失敗しました: %w", err)
	}
	p.grabbed = true
	return nil
}

// Release はデバイスの占有を解除する
func (p *Physical) Release() error {
	if !p.grabbed {
		return nil
	}
	p.grabbed = false
	if err := p.dev.Release(); err != nil {
		return fmt.Errorf("デバイスの占有解除に失敗しました: %w", err)
	}
	return nil
}

// Keys はデバイスが対応するキーコードの一覧を返す
func (p *Physical) Keys() []int {
	return append([]int(nil), p.dev.CapabilitiesFlat[evdev.EV_KEY]...)
}

// AbsCodes はデバイスが対応する絶対軸コードの一覧を返す
func (p *Physical) AbsCodes() []int {
	return append([]int(nil), p.dev.CapabilitiesFlat[evdev.EV_ABS]...)
}

// HasFF はフォースフィードバックに対応するかどうかを報告する
func (p *Physical) HasFF() bool {
	return len(p.dev.CapabilitiesFlat[evdev.EV_FF]) > 0
}

// AbsInfo は指定した絶対軸の範囲情報を取得する
func (p *Physical) AbsInfo(code uint16) (AbsInfo, error) {
	return GetAbsInfo(p.dev.File, code)
}

// PendingEvents は蓄積されたイベントを読み出す
// 読み残しがなければ空のスライスを返す
func (p *Physical) PendingEvents() ([]event.Event, error) {
	var events []event.Event
	for {
		chunk, err := p.dev.Read()
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				return events, nil
			}
			return events, fmt.Errorf("物理デバイスの読み込みに失敗しました: %w", err)
		}
		if len(chunk) == 0 {
			return events, nil
		}
		events = append(events, chunk...)
	}
}

// UploadEffect は振動効果を物理デバイスに転送する
// idが負の場合はカーネルが空きスロットを割り当てる
func (p *Physical) UploadEffect(effect FFEffect, id int16) (int16, error) {
	effect.ID = id
	if err := IOCtlPtr(p.ffFile, EVIOCSFF, unsafe.Pointer(&effect)); err != nil {
		return -1, fmt.Errorf("振動効果の転送に失敗しました: %w", err)
	}
	return effect.ID, nil
}

// EraseEffect は物理デバイス上の振動効果を消去する
func (p *Physical) EraseEffect(id int16) error {
	if err := IOCtl(p.ffFile, EVIOCRMFF, uintptr(id)); err != nil {
		return fmt.Errorf("振動効果の消去に失敗しました: %w", err)
	}
	return nil
}

// WriteEvent は物理デバイスへイベントを書き込む
// 振動の再生・停止指示に使う
func (p *Physical) WriteEvent(typ uint16, code uint16, value int32) error {
	ev := event.New(typ, code, value)
	return writeEvent(p.ffFile, &ev)
}

// Close は占有を解除してデバイスを閉じる
func (p *Physical) Close() error {
	if p.grabbed {
		p.grabbed = false
		_ = p.dev.Release()
	}
	_ = p.ffFile.Close()
	return p.dev.File.Close()
}
