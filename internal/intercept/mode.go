package intercept

import "fmt"

// Mode は物理イベントをどう扱うかを決める横取りモード
type Mode int

const (
	// ModeNone はすべてのイベントをそのまま仮想デバイスへ転送する
	ModeNone Mode = iota
	// ModePass はガイドボタン以外を転送し、ガイド押下でModeAllへ遷移する
	ModePass
	// ModePassQAM はModePassに加えてガイドボタンの同時押しを処理する
	ModePassQAM
	// ModeAll はすべてのイベントを横取りしてUIアクションに変換する
	ModeAll
)

// String はモードの表記を返す
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "NONE"
	case ModePass:
		return "PASS"
	case ModePassQAM:
		return "PASS_QAM"
	case ModeAll:
		return "ALL"
	}
	return "UNKNOWN"
}

// ParseMode は表記からモードを得る
func ParseMode(s string) (Mode, error) {
	switch s {
	case "NONE":
		return ModeNone, nil
	case "PASS":
		return ModePass, nil
	case "PASS_QAM":
		return ModePassQAM, nil
	case "ALL":
		return ModeAll, nil
	}
	return ModeNone, fmt.Errorf("未知の横取りモードです: %s", s)
}
