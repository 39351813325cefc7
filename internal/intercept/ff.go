package intercept

import (
	"log"
	"syscall"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/char5742/gamepad-bridge/internal/event"
)

// processVirtEvent は仮想デバイス側から届いたイベントを処理する
// 振動の再生指示と効果の登録・消去要求だけを扱う
func (g *ManagedGamepad) processVirtEvent(ev *event.Event) {
	switch ev.Type {
	case evdev.EV_FF:
		g.forwardFFPlay(ev)
	case event.EvUinput:
		switch ev.Code {
		case event.UIFFUpload:
			g.handleFFUpload(ev.Value)
		case event.UIFFErase:
			g.handleFFErase(ev.Value)
		}
	}
}

// forwardFFPlay は振動の再生・停止指示を物理デバイスへ転送する
// 効果IDは対応表で物理側のIDに読み替える
func (g *ManagedGamepad) forwardFFPlay(ev *event.Event) {
	if g.phys == nil {
		return
	}
	code := ev.Code
	if physID, ok := g.ffEffects[int16(ev.Code)]; ok {
		code = uint16(physID)
	}
	if err := g.phys.WriteEvent(ev.Type, code, ev.Value); err != nil {
		log.Printf("振動イベントの転送に失敗しました: %v", err)
	}
}

// handleFFUpload は効果の登録要求を物理デバイスへ仲介する
func (g *ManagedGamepad) handleFFUpload(requestID int32) {
	upload, err := g.virt.BeginFFUpload(requestID)
	if err != nil {
		log.Printf("登録要求の受理に失敗しました: %v", err)
		return
	}
	// 要求には必ず応答を返す
	defer func() {
		if err := g.virt.EndFFUpload(upload); err != nil {
			log.Printf("登録応答の送信に失敗しました: %v", err)
		}
	}()

	if g.phys == nil {
		upload.Retval = -int32(syscall.ENODEV)
		return
	}

	virtID := upload.Effect.ID
	physID := int16(-1) // 初出の効果はカーネルに採番させる
	if id, ok := g.ffEffects[virtID]; ok {
		physID = id
	}
	newID, err := g.phys.UploadEffect(upload.Effect, physID)
	if err != nil {
		log.Printf("振動効果の転送に失敗しました: %v", err)
		upload.Retval = -int32(syscall.EIO)
		return
	}
	g.ffEffects[virtID] = newID
	upload.Retval = 0
}

// handleFFErase は効果の消去要求を物理デバイスへ仲介する
func (g *ManagedGamepad) handleFFErase(requestID int32) {
	erase, err := g.virt.BeginFFErase(requestID)
	if err != nil {
		log.Printf("消去要求の受理に失敗しました: %v", err)
		return
	}
	defer func() {
		if err := g.virt.EndFFErase(erase); err != nil {
			log.Printf("消去応答の送信に失敗しました: %v", err)
		}
	}()

	virtID := int16(erase.EffectID)
	physID, ok := g.ffEffects[virtID]
	if !ok {
		// 追跡していない効果は消すものがないので成功扱い
		erase.Retval = 0
		return
	}
	delete(g.ffEffects, virtID)

	if g.phys == nil {
		erase.Retval = -int32(syscall.ENODEV)
		return
	}
	if err := g.phys.EraseEffect(physID); err != nil {
		log.Printf("振動効果の消去に失敗しました: %v", err)
		erase.Retval = -int32(syscall.EIO)
		return
	}
	erase.Retval = 0
}
