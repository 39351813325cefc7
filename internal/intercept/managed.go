package intercept

import (
	"log"
	"sync"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/device"
	"github.com/char5742/gamepad-bridge/internal/event"
	"github.com/char5742/gamepad-bridge/internal/profile"
)

const (
	// スティックをデジタル方向として扱う正規化しきい値
	axisPressThreshold = 0.35
	// 方向キーの連打合成を始めるまでの秒数
	echoInitialDelay = 0.6
	// 連打合成の間隔秒数
	echoInterval = 0.15
	// マウス変換で無視する正規化デッドゾーン
	mouseDeadzone = 0.20
	// マウス速度（正規化値1.0あたりの単位毎秒）
	mouseSpeed = 800.0
	// 合成したガイド押下と次のイベントの間に挟む遅延
	// 下流の消費者が別々のエッジとして観測できる値に調整してある
	chordPressDelay = 80 * time.Millisecond
	// 仮想デバイスに広告する振動効果スロット数
	ffEffectsMax = 16
	// ガイド押下中にクイックメニューを開くボタン
	qamButton = evdev.BTN_A
	// アクション通知チャネルのバッファサイズ
	actionQueueSize = 64
)

// 方向フラグの添字
const (
	dirUp = iota
	dirDown
	dirLeft
	dirRight
	dirCount
)

// dirActions は方向フラグに対応するUIアクション
var dirActions = [dirCount]event.Action{
	event.ActionUp,
	event.ActionDown,
	event.ActionLeft,
	event.ActionRight,
}

// ガイドボタン同時押しの処理状態
type chordState int

const (
	chordIdle chordState = iota
	// ガイド押下を捕獲して転送を保留している
	chordCaptured
	// 同時押しを検出して合成済みガイド押下を転送した
	chordForwarded
	// クイックメニューに消費されたのでガイドの離しは捨てる
	chordConsumed
)

// ActionInput はUI層へ通知する論理アクション
type ActionInput struct {
	Name  event.Action
	Value float64
}

// Pressed は押下状態かどうかを報告する
func (a ActionInput) Pressed() bool {
	return a.Value != 0
}

// ManagedGamepad は物理ゲームパッド1台と仮想デバイス2台を束ねる変換エンジン
// Processはスケジューラーの専用スレッドから呼ばれ、モードとプロファイルの
// 差し替えは同じミューテックスで直列化される
type ManagedGamepad struct {
	mutex   sync.Mutex
	phys    PhysicalDevice
	virt    VirtualDevice
	pointer VirtualDevice

	mode           Mode
	profile        *profile.Profile
	hasMouseTarget bool

	// 開いた時点で取り込んだ軸範囲（再接続後も使い回す）
	bounds map[uint16]device.AbsInfo

	path     string
	physName string
	physID   string
	grab     bool
	closed   bool

	chord   chordState
	qamHeld bool

	dirPressed [dirCount]bool
	echoTimers [dirCount]float64

	// 正規化したスティック位置
	stickLX, stickLY float64
	stickRX, stickRY float64
	// マウス変換の端数繰り越し
	remX, remY float64

	// 仮想効果ID→物理効果IDの対応表
	ffEffects map[int16]int16

	actions chan ActionInput
}

// NewManagedGamepad は変換エンジンを作成する
func NewManagedGamepad(phys PhysicalDevice, virt VirtualDevice, pointer VirtualDevice, bounds map[uint16]device.AbsInfo) *ManagedGamepad {
	return &ManagedGamepad{
		phys:      phys,
		virt:      virt,
		pointer:   pointer,
		mode:      ModePass,
		bounds:    bounds,
		ffEffects: make(map[int16]int16),
		actions:   make(chan ActionInput, actionQueueSize),
	}
}

// Process は1ティック分の入出力を処理する
// 物理イベントの取り込み、仮想デバイスからの振動要求の処理、
// 連打合成とマウス合成をこの順で行う
func (g *ManagedGamepad) Process(delta time.Duration) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.closed || g.virt == nil {
		return
	}
	secs := delta.Seconds()

	if g.phys != nil {
		events, err := g.phys.PendingEvents()
		for i := range events {
			g.processPhysEvent(&events[i])
		}
		if err != nil {
			// 読み込みに失敗したデバイスは抜かれたとみなして切り離す
			log.Printf("物理デバイスの読み込みに失敗したため切り離します: %v", err)
			g.detachLocked()
		}
	}

	virtEvents, err := g.virt.PendingEvents()
	if err != nil {
		log.Printf("仮想デバイスの読み込みに失敗しました: %v", err)
	}
	for i := range virtEvents {
		g.processVirtEvent(&virtEvents[i])
	}

	if g.mode == ModeAll {
		g.echoTick(secs)
	}
	if (g.mode == ModePass || g.mode == ModePassQAM) && g.hasMouseTarget {
		g.mouseTick(secs)
	}
}

// processPhysEvent は物理イベント1件を現在のモードに従って処理する
func (g *ManagedGamepad) processPhysEvent(ev *event.Event) {
	// 振動関連が仮想デバイスへ流れ込むと降ってきた要求と衝突する
	if ev.Type == evdev.EV_FF || ev.Type == evdev.EV_FF_STATUS {
		return
	}

	g.trackStick(ev)

	switch g.mode {
	case ModeNone:
		g.writeVirt(ev.Type, ev.Code, ev.Value)
	case ModePass, ModePassQAM:
		if g.interceptGuide(ev) {
			return
		}
		g.forwardTranslated(ev)
	case ModeAll:
		g.interceptAll(ev)
	}
}

// forwardTranslated はプロファイル変換を通してから仮想デバイスへ転送する
func (g *ManagedGamepad) forwardTranslated(ev *event.Event) {
	src := g.wrap(ev)
	for _, out := range g.profile.Translate(src) {
		switch o := out.(type) {
		case *event.ActionEvent:
			g.dispatchAction(o.Name, o.Val)
		case *event.DeviceEvent:
			if profile.IsMouseTarget(o) {
				// マウス出力はスティック位置から毎ティック合成する
				continue
			}
			raw := o.Raw()
			g.writeVirt(raw.Type, raw.Code, raw.Value)
		}
	}
}

// wrap は生イベントを軸範囲付きのイベントに包む
func (g *ManagedGamepad) wrap(ev *event.Event) *event.DeviceEvent {
	d := &event.DeviceEvent{Type: ev.Type, Code: ev.Code, Val: ev.Value}
	if ev.Type == evdev.EV_ABS {
		if info, ok := g.bounds[ev.Code]; ok {
			d.Min = info.Min
			d.Max = info.Max
		}
	}
	return d
}

// trackStick はスティックの現在位置をモードに関係なく追跡する
func (g *ManagedGamepad) trackStick(ev *event.Event) {
	if ev.Type != evdev.EV_ABS {
		return
	}
	switch ev.Code {
	case evdev.ABS_X:
		g.stickLX = g.normalize(ev.Code, ev.Value)
	case evdev.ABS_Y:
		g.stickLY = g.normalize(ev.Code, ev.Value)
	case evdev.ABS_RX:
		g.stickRX = g.normalize(ev.Code, ev.Value)
	case evdev.ABS_RY:
		g.stickRY = g.normalize(ev.Code, ev.Value)
	}
}

// normalize は取り込み済みの軸範囲で値を[-1,1]に正規化する
func (g *ManagedGamepad) normalize(code uint16, value int32) float64 {
	info, ok := g.bounds[code]
	if !ok {
		return 0
	}
	return event.Normalize(value, info.Min, info.Max)
}

// SetMode は横取りモードを差し替える
// 次のティックから有効になり、ModeAllを離れるときは方向フラグを解放する
func (g *ManagedGamepad) SetMode(mode Mode) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.mode == mode {
		return
	}
	g.mode = mode
	g.chord = chordIdle
	if mode != ModeAll {
		for i := range g.dirPressed {
			if g.dirPressed[i] {
				g.releaseDir(i)
			}
		}
	}
}

// Mode は現在の横取りモードを返す
func (g *ManagedGamepad) Mode() Mode {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.mode
}

// SetProfile は変換プロファイルを差し替える
// 次に処理するイベントから有効になる
func (g *ManagedGamepad) SetProfile(p *profile.Profile) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.profile = p
	g.hasMouseTarget = p.HasMouseTarget()
	g.remX = 0
	g.remY = 0
}

// Profile は現在の変換プロファイルを返す
func (g *ManagedGamepad) Profile() *profile.Profile {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.profile
}

// Actions は横取りで生成したUIアクションの通知チャネルを返す
func (g *ManagedGamepad) Actions() <-chan ActionInput {
	return g.actions
}

// Connected は物理デバイスが接続中かどうかを報告する
func (g *ManagedGamepad) Connected() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.phys != nil
}

// Path は最後に開いた物理デバイスのパスを返す
func (g *ManagedGamepad) Path() string {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.path
}

// Identity は開いた時点の物理デバイスの名前と物理トポロジーを返す
// 一時的に切断されても再接続の照合に使えるよう保持している
func (g *ManagedGamepad) Identity() (name string, phys string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.physName, g.physID
}

// Detach は物理デバイスを切り離す
// 仮想デバイスは開いたままにして再接続に備える
func (g *ManagedGamepad) Detach() {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.detachLocked()
}

func (g *ManagedGamepad) detachLocked() {
	if g.phys == nil {
		return
	}
	_ = g.phys.Close()
	g.phys = nil
	// 物理側の効果は失われたので対応表も破棄する
	g.ffEffects = make(map[int16]int16)
}

// Close はすべてのデバイスを閉じてエンジンを破棄する
func (g *ManagedGamepad) Close() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true

	g.detachLocked()
	if g.pointer != nil {
		_ = g.pointer.Close()
	}
	var err error
	if g.virt != nil {
		err = g.virt.Close()
	}
	close(g.actions)
	return err
}

// dispatchAction はUIアクションを通知チャネルへ送る
// 受信側が詰まっている場合は捨てて処理を続ける
func (g *ManagedGamepad) dispatchAction(name event.Action, value float64) {
	select {
	case g.actions <- ActionInput{Name: name, Value: value}:
	default:
	}
}

// writeVirtKeyFrame はキーイベント1件と同期マーカーをまとめて書き込む
func (g *ManagedGamepad) writeVirtKeyFrame(code uint16, value int32) {
	g.writeVirt(evdev.EV_KEY, code, value)
	g.syncVirt()
}

func (g *ManagedGamepad) writeVirt(typ uint16, code uint16, value int32) {
	if err := g.virt.WriteEvent(typ, code, value); err != nil {
		log.Printf("仮想デバイスへの書き込みに失敗しました: %v", err)
	}
}

func (g *ManagedGamepad) syncVirt() {
	if err := g.virt.Sync(); err != nil {
		log.Printf("仮想デバイスの同期に失敗しました: %v", err)
	}
}

func (g *ManagedGamepad) writePointer(typ uint16, code uint16, value int32) {
	if err := g.pointer.WriteEvent(typ, code, value); err != nil {
		log.Printf("仮想ポインターへの書き込みに失敗しました: %v", err)
	}
}

func (g *ManagedGamepad) syncPointer() {
	if err := g.pointer.Sync(); err != nil {
		log.Printf("仮想ポインターの同期に失敗しました: %v", err)
	}
}
