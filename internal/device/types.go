package device

// uinputデバイスの定数（uinput.hより）
const (
	MaxNameSize = 80         // デバイス名の最大サイズ
	DevCreate   = 0x5501     // デバイス作成用のIOCTL
	DevDestroy  = 0x5502     // デバイス破棄用のIOCTL
	SetEvBit    = 0x40045564 // イベントビット設定用のIOCTL
	SetKeyBit   = 0x40045565 // キービット設定用のIOCTL
	SetRelBit   = 0x40045566 // 相対軸ビット設定用のIOCTL
	SetAbsBit   = 0x40045567 // 絶対軸ビット設定用のIOCTL
	SetFFBit    = 0x4004556b // フォースフィードバックビット設定用のIOCTL
	SetPhys     = 0x4008556c // 物理トポロジー設定用のIOCTL
	BusUsb      = 0x03       // USBバスタイプ
	AbsSize     = 64         // 絶対軸の配列サイズ
)

// uinputのフォースフィードバック転送用IOCTL（64ビットレイアウト前提）
const (
	UIBeginFFUpload = 0xc06855c8 // UI_BEGIN_FF_UPLOAD
	UIEndFFUpload   = 0x406855c9 // UI_END_FF_UPLOAD
	UIBeginFFErase  = 0xc00c55ca // UI_BEGIN_FF_ERASE
	UIEndFFErase    = 0x400c55cb // UI_END_FF_ERASE
)

// evdevデバイスの定数（input.hより）
const (
	EVIOCGRAB = 0x40044590 // デバイスの排他制御用のIOCTL
	EVIOCSFF  = 0x40304580 // フォースフィードバック効果の登録用のIOCTL（64ビットレイアウト前提）
	EVIOCRMFF = 0x40044581 // フォースフィードバック効果の消去用のIOCTL

	eviocgabsBase = 0x80184540 // EVIOCGABS(0)
)

// EVIOCGABS は指定軸の範囲取得用のIOCTL番号を返す
func EVIOCGABS(code uint16) uintptr {
	return uintptr(eviocgabsBase + uint32(code))
}

// フォースフィードバック効果種別の定数（input.hより）
const (
	FFRumble   = 0x50 // 振動
	FFPeriodic = 0x51 // 周期波形
	FFConstant = 0x52 // 定常力
	FFSpring   = 0x53 // バネ
	FFFriction = 0x54 // 摩擦
	FFDamper   = 0x55 // ダンパー
	FFInertia  = 0x56 // 慣性
	FFRamp     = 0x57 // ランプ
	FFGain     = 0x60 // ゲイン設定

	// 仮想ゲームパッドが広告する効果スロット数
	FFEffectsDefault = 16
)

// InputID はデバイス識別子を表す構造体
type InputID struct {
	Bustype uint16 // バスタイプ
	Vendor  uint16 // ベンダーID
	Product uint16 // 製品ID
	Version uint16 // バージョン
}

// UserDev はuinputユーザーデバイスの設定を表す構造体
type UserDev struct {
	Name       [MaxNameSize]byte // デバイス名
	ID         InputID           // デバイス識別子
	EffectsMax uint32            // 最大エフェクト数
	Absmax     [AbsSize]int32    // 絶対軸の最大値
	Absmin     [AbsSize]int32    // 絶対軸の最小値
	Absfuzz    [AbsSize]int32    // 絶対軸のファジー値
	Absflat    [AbsSize]int32    // 絶対軸のフラット値
}

// AbsInfo はinput_absinfo構造体のGo表現
type AbsInfo struct {
	Value      int32 // 現在値
	Min        int32 // 最小値
	Max        int32 // 最大値
	Fuzz       int32 // ノイズ除去幅
	Flat       int32 // 中立とみなす幅
	Resolution int32 // 分解能
}

// FFTrigger はフォースフィードバック効果の発動条件
type FFTrigger struct {
	Button   uint16
	Interval uint16
}

// FFReplay はフォースフィードバック効果の再生時間と遅延
type FFReplay struct {
	Length uint16
	Delay  uint16
}

// FFEffect はff_effect構造体のGo表現（64ビット環境で48バイト）
// 効果種別ごとのunion部は解釈せず生のまま物理デバイスへ引き渡す
type FFEffect struct {
	Type      uint16
	ID        int16
	Direction uint16
	Trigger   FFTrigger
	Replay    FFReplay
	_         [2]byte  // union部の8バイト境界合わせ
	Data      [32]byte // 効果種別ごとのペイロード
}

// FFUpload はuinput_ff_upload構造体のGo表現（104バイト）
type FFUpload struct {
	RequestID uint32
	Retval    int32
	Effect    FFEffect
	Old       FFEffect
}

// FFErase はuinput_ff_erase構造体のGo表現（12バイト）
type FFErase struct {
	RequestID uint32
	Retval    int32
	EffectID  uint32
}
