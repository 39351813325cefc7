package tasks

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"
)

// Workload は1ティックごとに呼び出される処理
// deltaには前回ティック開始からの経過時間が渡される
type Workload func(delta time.Duration)

type workloadEntry struct {
	name string
	fn   Workload
}

// Group は専用スレッド上で登録済みの処理を目標レートで回すワーカーグループ
// 処理の登録・解除とティック実行は同じミューテックスで直列化される
type Group struct {
	name     string
	autoStop bool

	mutex     sync.Mutex
	rate      int
	workloads []workloadEntry
	running   bool
	stopChan  chan struct{}
	doneChan  chan struct{}

	// 実行スレッドだけが触る
	lastOverrunLog time.Time
}

// NewGroup はワーカーグループを作成する
// autoStopを指定すると最後の処理が解除されたときに自動で停止する
func NewGroup(name string, rate int, autoStop bool) *Group {
	if rate <= 0 {
		rate = 1
	}
	return &Group{
		name:     name,
		rate:     rate,
		autoStop: autoStop,
	}
}

// Register は名前付きの処理を登録する
// 処理は登録順に呼び出される
func (g *Group) Register(name string, fn Workload) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for _, entry := range g.workloads {
		if entry.name == name {
			return fmt.Errorf("処理 %s は既に登録されています", name)
		}
	}
	g.workloads = append(g.workloads, workloadEntry{name: name, fn: fn})
	return nil
}

// Unregister は名前付きの処理を取り除く
// autoStop指定時に最後の処理が取り除かれるとグループを停止するため、
// 処理の中から呼び出してはならない
func (g *Group) Unregister(name string) {
	g.mutex.Lock()
	for i, entry := range g.workloads {
		if entry.name == name {
			g.workloads = append(g.workloads[:i], g.workloads[i+1:]...)
			break
		}
	}
	empty := len(g.workloads) == 0
	g.mutex.Unlock()

	if empty && g.autoStop {
		g.Stop()
	}
}

// SetRate は目標ティックレートを差し替える
// 次のティックから新しいレートが使われる
func (g *Group) SetRate(rate int) {
	if rate <= 0 {
		rate = 1
	}
	g.mutex.Lock()
	g.rate = rate
	g.mutex.Unlock()
}

// Rate は現在の目標ティックレートを返す
func (g *Group) Rate() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.rate
}

// IsRunning はグループが実行中かどうかを報告する
func (g *Group) IsRunning() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.running
}

// Start は実行スレッドを起動する
// すでに実行中の場合は何もしない
func (g *Group) Start() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.running {
		return
	}
	g.running = true
	g.stopChan = make(chan struct{})
	g.doneChan = make(chan struct{})
	go g.run(g.stopChan, g.doneChan)
}

// Stop は実行スレッドを止め、抜けるまで待つ
// すでに停止している場合は何もしない
// ティック処理の中から呼び出してはならない
func (g *Group) Stop() {
	g.mutex.Lock()
	if !g.running {
		g.mutex.Unlock()
		return
	}
	g.running = false
	stopChan := g.stopChan
	doneChan := g.doneChan
	g.mutex.Unlock()

	close(stopChan)
	<-doneChan
}

// run はティックループ本体
func (g *Group) run(stopChan chan struct{}, doneChan chan struct{}) {
	// ティック間隔を安定させるため専用のOSスレッドに固定する
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneChan)

	log.Printf("ワーカーグループ %s を開始します (レート: %d)", g.name, g.Rate())

	lastTick := time.Now()
	for {
		select {
		case <-stopChan:
			log.Printf("ワーカーグループ %s を停止しました", g.name)
			return
		default:
		}

		tickStart := time.Now()
		delta := tickStart.Sub(lastTick)
		lastTick = tickStart

		// レート変更を拾いつつ、登録・解除と競合しないようロックの中で回す
		g.mutex.Lock()
		frame := time.Second / time.Duration(g.rate)
		for _, entry := range g.workloads {
			entry.fn(delta)
		}
		g.mutex.Unlock()

		elapsed := time.Since(tickStart)
		if elapsed < frame {
			time.Sleep(frame - elapsed)
		} else {
			g.logOverrun(elapsed, frame)
		}
	}
}

// logOverrun はティックの超過を1秒あたり1回までに抑えて記録する
func (g *Group) logOverrun(elapsed time.Duration, frame time.Duration) {
	now := time.Now()
	if now.Sub(g.lastOverrunLog) < time.Second {
		return
	}
	g.lastOverrunLog = now
	log.Printf("ワーカーグループ %s のティックが目標を超過しています: %v (目標 %v)", g.name, elapsed, frame)
}
