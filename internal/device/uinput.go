package device

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"syscall"
	"unsafe"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/event"
)

// 生イベント1件のバイト数（64ビット環境で24バイト）
const eventSize = int(unsafe.Sizeof(evdev.InputEvent{}))

// UInput は/dev/uinput上に作成した仮想デバイスを表す構造体
type UInput struct {
	name       string
	deviceFile *os.File
	open       bool
}

// GamepadSetup は仮想ゲームパッド作成時の設定
// キーと絶対軸は物理デバイスの能力をそのまま引き継ぐ
type GamepadSetup struct {
	Name       string
	Phys       string
	Vendor     uint16
	Product    uint16
	Version    uint16
	Keys       []int
	Abs        map[uint16]AbsInfo
	EffectsMax uint32
}

// CreateGamepad は物理デバイスの能力を複製した仮想ゲームパッドを作成する
func CreateGamepad(path string, setup GamepadSetup) (*UInput, error) {
	deviceFile, err := openDeviceFile(path)
	if err != nil {
		return nil, err
	}

	// キー入力イベント(EV_KEY)と物理デバイスの持つキーを登録する
	if err := registerEventType(deviceFile, evdev.EV_KEY); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %v", err)
	}
	for _, code := range setup.Keys {
		if err := IOCtl(deviceFile, SetKeyBit, uintptr(code)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("キー入力種別の登録に失敗しました %v: %v", code, err)
		}
	}

	// 絶対軸イベント(EV_ABS)と物理デバイスの持つ軸を登録する
	if len(setup.Abs) > 0 {
		if err := registerEventType(deviceFile, evdev.EV_ABS); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("絶対軸イベント(EV_ABS)の登録に失敗しました: %v", err)
		}
		for code := range setup.Abs {
			if err := IOCtl(deviceFile, SetAbsBit, uintptr(code)); err != nil {
				_ = deviceFile.Close()
				return nil, fmt.Errorf("絶対軸の登録に失敗しました %v: %v", code, err)
			}
		}
	}

	// フォースフィードバックイベント(EV_FF)と対応する効果種別を登録する
	if setup.EffectsMax > 0 {
		if err := registerEventType(deviceFile, evdev.EV_FF); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("フォースフィードバックイベント(EV_FF)の登録に失敗しました: %v", err)
		}
		for _, code := range []int{FFRumble, FFPeriodic, FFGain} {
			if err := IOCtl(deviceFile, SetFFBit, uintptr(code)); err != nil {
				_ = deviceFile.Close()
				return nil, fmt.Errorf("フォースフィードバック種別の登録に失敗しました %v: %v", code, err)
			}
		}
	}

	// 物理トポロジーを引き継ぐ
	if setup.Phys != "" {
		phys := append([]byte(setup.Phys), 0)
		if err := IOCtlPtr(deviceFile, SetPhys, unsafe.Pointer(&phys[0])); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("物理トポロジーの設定に失敗しました: %v", err)
		}
	}

	userDev := UserDev{
		Name: toUinputName(setup.Name),
		ID: InputID{
			Bustype: BusUsb,
			Vendor:  setup.Vendor,
			Product: setup.Product,
			Version: setup.Version,
		},
		EffectsMax: setup.EffectsMax,
	}
	for code, info := range setup.Abs {
		if int(code) >= AbsSize {
			continue
		}
		userDev.Absmin[code] = info.Min
		userDev.Absmax[code] = info.Max
		userDev.Absfuzz[code] = info.Fuzz
		userDev.Absflat[code] = info.Flat
	}

	if err := createDevice(deviceFile, userDev); err != nil {
		_ = deviceFile.Close()
		return nil, err
	}

	return &UInput{name: setup.Name, deviceFile: deviceFile, open: true}, nil
}

// CreatePointer はマウス合成用の仮想ポインターデバイスを作成する
func CreatePointer(path string, name string) (*UInput, error) {
	deviceFile, err := openDeviceFile(path)
	if err != nil {
		return nil, err
	}

	// マウスボタンを登録する
	if err := registerEventType(deviceFile, evdev.EV_KEY); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %v", err)
	}
	for _, code := range []int{evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE} {
		if err := IOCtl(deviceFile, SetKeyBit, uintptr(code)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("マウスボタンの登録に失敗しました %v: %v", code, err)
		}
	}

	// 相対移動イベント(EV_REL)を登録する
	if err := registerEventType(deviceFile, evdev.EV_REL); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("相対移動イベント(EV_REL)の登録に失敗しました: %v", err)
	}
	for _, code := range []int{evdev.REL_X, evdev.REL_Y, evdev.REL_WHEEL, evdev.REL_HWHEEL} {
		if err := IOCtl(deviceFile, SetRelBit, uintptr(code)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("相対軸の登録に失敗しました %v: %v", code, err)
		}
	}

	userDev := UserDev{
		Name: toUinputName(name),
		ID: InputID{
			Bustype: BusUsb,
			Vendor:  0x4711,
			Product: 0x0818,
			Version: 1,
		},
	}

	if err := createDevice(deviceFile, userDev); err != nil {
		_ = deviceFile.Close()
		return nil, err
	}

	return &UInput{name: name, deviceFile: deviceFile, open: true}, nil
}

// Name はデバイス名を返す
func (u *UInput) Name() string {
	return u.name
}

// IsOpen はデバイスが有効かどうかを報告する
func (u *UInput) IsOpen() bool {
	return u.open
}

// WriteEvent は仮想デバイスへ生イベントを1件書き込む
// 論理的なまとまりの最後に呼び出し側がSyncを書き込むこと
func (u *UInput) WriteEvent(typ uint16, code uint16, value int32) error {
	ev := event.New(typ, code, value)
	return writeEvent(u.deviceFile, &ev)
}

// Sync はイベントのまとまりを確定するSYN_REPORTを書き込む
func (u *UInput) Sync() error {
	ev := event.New(evdev.EV_SYN, evdev.SYN_REPORT, 0)
	return writeEvent(u.deviceFile, &ev)
}

// PendingEvents はカーネルから仮想デバイスへ届いたイベントを読み出す
// フォースフィードバックの再生要求やアップロード・消去要求が含まれる
func (u *UInput) PendingEvents() ([]event.Event, error) {
	var events []event.Event
	buf := make([]byte, eventSize*16)
	for {
		n, err := u.deviceFile.Read(buf)
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				return events, nil
			}
			return events, fmt.Errorf("仮想デバイスの読み込みに失敗しました: %w", err)
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			var ev event.Event
			if err := binary.Read(bytes.NewReader(buf[off:off+eventSize]), binary.LittleEndian, &ev); err != nil {
				return events, fmt.Errorf("イベントの解釈に失敗しました: %w", err)
			}
			events = append(events, ev)
		}
		if n < len(buf) {
			return events, nil
		}
	}
}

// BeginFFUpload はアップロード要求の詳細を取り出す
func (u *UInput) BeginFFUpload(requestID int32) (*FFUpload, error) {
	upload := FFUpload{RequestID: uint32(requestID)}
	if err := IOCtlPtr(u.deviceFile, UIBeginFFUpload, unsafe.Pointer(&upload)); err != nil {
		return nil, fmt.Errorf("アップロード要求の取得に失敗しました: %w", err)
	}
	return &upload, nil
}

// EndFFUpload はアップロード要求への応答を確定する
func (u *UInput) EndFFUpload(upload *FFUpload) error {
	if err := IOCtlPtr(u.deviceFile, UIEndFFUpload, unsafe.Pointer(upload)); err != nil {
		return fmt.Errorf("アップロード応答に失敗しました: %w", err)
	}
	return nil
}

// BeginFFErase は消去要求の詳細を取り出す
func (u *UInput) BeginFFErase(requestID int32) (*FFErase, error) {
	erase := FFErase{RequestID: uint32(requestID)}
	if err := IOCtlPtr(u.deviceFile, UIBeginFFErase, unsafe.Pointer(&erase)); err != nil {
		return nil, fmt.Errorf("消去要求の取得に失敗しました: %w", err)
	}
	return &erase, nil
}

// EndFFErase は消去要求への応答を確定する
func (u *UInput) EndFFErase(erase *FFErase) error {
	if err := IOCtlPtr(u.deviceFile, UIEndFFErase, unsafe.Pointer(erase)); err != nil {
		return fmt.Errorf("消去応答に失敗しました: %w", err)
	}
	return nil
}

// Close は仮想デバイスを破棄して閉じる
func (u *UInput) Close() error {
	if !u.open {
		return nil
	}
	u.open = false
	_ = IOCtl(u.deviceFile, DevDestroy, 0)
	return u.deviceFile.Close()
}

// デバイスファイルを開く
// フォースフィードバック要求を読み取るため読み書き両用で開く
func openDeviceFile(path string) (*os.File, error) {
	deviceFile, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, fmt.Errorf("デバイスファイルを開くのに失敗しました: %w", err)
	}
	return deviceFile, nil
}

// イベントタイプを登録する
func registerEventType(deviceFile *os.File, evType int) error {
	return IOCtl(deviceFile, SetEvBit, uintptr(evType))
}

// ユーザーデバイスを書き込んでデバイスを作成する
func createDevice(deviceFile *os.File, dev UserDev) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, dev); err != nil {
		return fmt.Errorf("ユーザーデバイスバッファの書き込みに失敗しました: %v", err)
	}
	if _, err := deviceFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("デバイス構造体をデバイスファイルに書き込むのに失敗しました: %v", err)
	}
	if err := IOCtl(deviceFile, DevCreate, 0); err != nil {
		return fmt.Errorf("デバイスの作成に失敗しました: %v", err)
	}
	return nil
}

// イベントを書き込む
func writeEvent(deviceFile *os.File, ev *event.Event) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
		return fmt.Errorf("イベントをバッファに書き込むのに失敗しました: %v", err)
	}
	if _, err := deviceFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("イベントの書き込みに失敗しました: %v", err)
	}
	return nil
}

// 名前をuinput用の固定長配列に変換する
func toUinputName(name string) [MaxNameSize]byte {
	var fixedSizeName [MaxNameSize]byte
	copy(fixedSizeName[:], name)
	return fixedSizeName
}
