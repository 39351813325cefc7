package intercept

import (
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/device"
)

const uinputPath = "/dev/uinput"

// Options はエンジン作成時のデバイス設定
type Options struct {
	// 仮想ゲームパッドの名前とID（ゲーム互換性のため既製コントローラーを名乗る）
	VirtualName string
	Vendor      uint16
	Product     uint16
	Version     uint16
	// マウス合成用の仮想ポインターの名前
	PointerName string
	// 物理デバイスを占有して他のプロセスから隠すかどうか
	Grab bool
}

// Open は物理デバイスを開いて占有し、対になる仮想デバイスを作成する
func Open(path string, opts Options) (*ManagedGamepad, error) {
	phys, err := device.OpenPhysical(path)
	if err != nil {
		return nil, err
	}
	if opts.Grab {
		if err := phys.Grab(); err != nil {
			_ = phys.Close()
			return nil, err
		}
	}

	// 軸範囲は開いた時点で取り込み、再接続後も使い回す
	bounds := make(map[uint16]device.AbsInfo)
	for _, code := range phys.AbsCodes() {
		info, err := phys.AbsInfo(uint16(code))
		if err != nil {
			_ = phys.Close()
			return nil, err
		}
		bounds[uint16(code)] = info
	}

	keys := phys.Keys()
	if len(keys) == 0 {
		keys = []int{evdev.BTN_A, evdev.BTN_B, evdev.BTN_X, evdev.BTN_Y, evdev.BTN_MODE}
	}

	effectsMax := uint32(0)
	if phys.HasFF() {
		effectsMax = ffEffectsMax
	}

	virt, err := device.CreateGamepad(uinputPath, device.GamepadSetup{
		Name:       opts.VirtualName,
		Phys:       phys.Phys(),
		Vendor:     opts.Vendor,
		Product:    opts.Product,
		Version:    opts.Version,
		Keys:       keys,
		Abs:        bounds,
		EffectsMax: effectsMax,
	})
	if err != nil {
		_ = phys.Close()
		return nil, fmt.Errorf("仮想ゲームパッドの作成に失敗しました: %w", err)
	}

	pointer, err := device.CreatePointer(uinputPath, opts.PointerName)
	if err != nil {
		_ = virt.Close()
		_ = phys.Close()
		return nil, fmt.Errorf("仮想ポインターの作成に失敗しました: %w", err)
	}

	g := NewManagedGamepad(phys, virt, pointer, bounds)
	g.path = path
	g.physName = phys.Name()
	g.physID = phys.Phys()
	g.grab = opts.Grab
	return g, nil
}

// Reopen は一時的に切断された物理デバイスを開き直す
// 仮想デバイスと取り込み済みの軸範囲はそのまま使い続ける
func (g *ManagedGamepad) Reopen(path string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.closed {
		return fmt.Errorf("エンジンはすでに閉じられています")
	}
	g.detachLocked()

	phys, err := device.OpenPhysical(path)
	if err != nil {
		return fmt.Errorf("物理デバイスの再接続に失敗しました: %w", err)
	}
	if g.grab {
		if err := phys.Grab(); err != nil {
			_ = phys.Close()
			return fmt.Errorf("再接続したデバイスの占有に失敗しました: %w", err)
		}
	}
	g.phys = phys
	g.path = path
	return nil
}
