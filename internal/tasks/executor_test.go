package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutorCompletionIdentity(t *testing.T) {
	e := NewExecutor(2)
	defer e.Stop()

	release := make(chan struct{})
	slow := e.Submit(func() (any, error) {
		<-release
		return "slow", nil
	})
	fast := e.Submit(func() (any, error) {
		return "fast", nil
	})

	result, err := fast.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result != "fast" {
		t.Errorf("result = %v, want fast", result)
	}

	// 片方が完了しても、もう片方の完了通知は発火しない
	select {
	case <-slow.Done():
		t.Fatal("未完了のタスクが完了扱いになっている")
	default:
	}

	close(release)
	result, err = slow.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result != "slow" {
		t.Errorf("result = %v, want slow", result)
	}
}

func TestExecutorErrorPropagation(t *testing.T) {
	e := NewExecutor(1)
	defer e.Stop()

	wantErr := errors.New("処理に失敗しました")
	task := e.Submit(func() (any, error) {
		return nil, wantErr
	})

	result, err := task.Wait(context.Background())
	if result != nil {
		t.Errorf("result = %v, want nil", result)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestExecutorRunsInlineWithoutWorkers(t *testing.T) {
	e := NewExecutor(0)

	ran := false
	task := e.Submit(func() (any, error) {
		ran = true
		return 42, nil
	})

	// ワーカーなしの場合はSubmitが返った時点で完了している
	if !ran {
		t.Fatal("同期実行されていない")
	}
	select {
	case <-task.Done():
	default:
		t.Fatal("完了通知が発火していない")
	}

	result, err := task.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result != 42 {
		t.Errorf("result = %v, want 42", result)
	}
}

func TestExecutorStopDiscardsQueuedTasks(t *testing.T) {
	e := NewExecutor(1)

	started := make(chan struct{})
	release := make(chan struct{})
	running := e.Submit(func() (any, error) {
		close(started)
		<-release
		return "done", nil
	})
	<-started
	queued := e.Submit(func() (any, error) {
		return "never", nil
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	e.Stop()

	// 実行中だったタスクは完了まで待たれる
	result, err := running.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result != "done" {
		t.Errorf("result = %v, want done", result)
	}

	// 未実行のタスクはエラーで破棄される
	result, err = queued.Wait(context.Background())
	if result != nil {
		t.Errorf("result = %v, want nil", result)
	}
	if !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want %v", err, ErrStopped)
	}
}

func TestExecutorSubmitAfterStop(t *testing.T) {
	e := NewExecutor(1)
	e.Stop()

	task := e.Submit(func() (any, error) {
		return "never", nil
	})
	_, err := task.Wait(context.Background())
	if !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want %v", err, ErrStopped)
	}
}

func TestExecutorStopIdempotent(t *testing.T) {
	e := NewExecutor(2)
	e.Stop()
	e.Stop()
}

func TestTaskWaitHonorsContext(t *testing.T) {
	e := NewExecutor(1)

	release := make(chan struct{})
	task := e.Submit(func() (any, error) {
		<-release
		return "ok", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := task.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want %v", err, context.DeadlineExceeded)
	}

	close(release)
	e.Stop()

	result, err := task.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result != "ok" {
		t.Errorf("result = %v, want ok", result)
	}
}
