package tasks

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrStopped は停止後に投入または破棄されたタスクへ返るエラー
var ErrStopped = errors.New("エグゼキューターは停止しています")

// TaskFunc は実行される処理本体
type TaskFunc func() (any, error)

// Task は投入した処理の完了を待ち合わせるためのハンドル
// 完了通知はタスクごとに独立していて、他のタスクの結果と混ざらない
type Task struct {
	fn     TaskFunc
	result any
	err    error
	done   chan struct{}
}

// Wait は処理の完了かコンテキストの取り消しまで待つ
func (t *Task) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done は完了通知チャネルを返す
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) finish(result any, err error) {
	t.result = result
	t.err = err
	close(t.done)
}

// Executor は固定数のワーカーでキューからタスクを順に実行する実行基盤
type Executor struct {
	workers int

	mutex   sync.Mutex
	cond    *sync.Cond
	queue   []*Task
	running bool
	wg      sync.WaitGroup
}

// NewExecutor はワーカー数を指定して実行基盤を作成する
// ワーカー数が0以下の場合、タスクは投入元でそのまま同期実行される
func NewExecutor(workers int) *Executor {
	e := &Executor{
		workers: workers,
		running: true,
	}
	e.cond = sync.NewCond(&e.mutex)
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Submit はタスクを投入して完了待ちのハンドルを返す
func (e *Executor) Submit(fn TaskFunc) *Task {
	task := &Task{fn: fn, done: make(chan struct{})}

	if e.workers <= 0 {
		// ワーカーなしの場合は同期実行
		result, err := fn()
		task.finish(result, err)
		return task
	}

	e.mutex.Lock()
	if !e.running {
		e.mutex.Unlock()
		task.finish(nil, ErrStopped)
		return task
	}
	e.queue = append(e.queue, task)
	e.mutex.Unlock()
	e.cond.Signal()
	return task
}

// worker はキューからタスクを1件ずつ取り出して実行する
func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		e.mutex.Lock()
		for e.running && len(e.queue) == 0 {
			e.cond.Wait()
		}
		if !e.running {
			e.mutex.Unlock()
			return
		}
		task := e.queue[0]
		e.queue = e.queue[1:]
		e.mutex.Unlock()

		result, err := task.fn()
		task.finish(result, err)
	}
}

// Stop はワーカーを止めて全スレッドの終了を待つ
// 実行中のタスクは完了まで待ち、未実行のタスクはエラーで破棄する
func (e *Executor) Stop() {
	e.mutex.Lock()
	if !e.running {
		e.mutex.Unlock()
		return
	}
	e.running = false
	e.mutex.Unlock()

	e.cond.Broadcast()
	e.wg.Wait()

	e.mutex.Lock()
	remaining := e.queue
	e.queue = nil
	e.mutex.Unlock()

	for _, task := range remaining {
		task.finish(nil, ErrStopped)
	}
	if len(remaining) > 0 {
		log.Printf("未実行のタスク %d 件を破棄しました", len(remaining))
	}
}
