package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/andresmejia3/interviewlens/internal/logging"
)

// scriptedSpawn hands out mock workers preloaded with the given responses, failing once
// the script runs out.
func scriptedSpawn(scripts ...[][]byte) (SpawnFunc, *int) {
	calls := 0
	return func(id int) (*PythonWorker, error) {
		if calls >= len(scripts) {
			calls++
			return nil, errors.New("python3: not found")
		}
		w, _ := newMockWorker(scripts[calls]...)
		w.ID = id
		calls++
		return w, nil
	}, &calls
}

func TestPoolDo(t *testing.T) {
	spawn, _ := scriptedSpawn([][]byte{{statusOK}, {statusOK}})
	p, err := NewPool(1, spawn, logging.Discard())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer p.Close()

	for i := 0; i < 2; i++ {
		if err := p.Do(context.Background(), func(w *PythonWorker) error { return w.Ping() }); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if p.Size() != 1 {
		t.Errorf("size = %d, want 1", p.Size())
	}
}

func TestPoolKeepsWorkerOnEngineError(t *testing.T) {
	spawn, calls := scriptedSpawn([][]byte{errorResponse("bad frame"), {statusOK}})
	p, err := NewPool(1, spawn, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	err = p.Do(context.Background(), func(w *PythonWorker) error { return w.Ping() })
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %v", err)
	}
	if err := p.Do(context.Background(), func(w *PythonWorker) error { return w.Ping() }); err != nil {
		t.Fatalf("worker should survive an engine error: %v", err)
	}
	if *calls != 1 {
		t.Errorf("spawn called %d times, want 1", *calls)
	}
}

func TestPoolReplacesCrashedWorker(t *testing.T) {
	// First worker has nothing to say (crashed); its replacement answers.
	spawn, calls := scriptedSpawn(nil, [][]byte{{statusOK}})
	p, err := NewPool(1, spawn, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Do(context.Background(), func(w *PythonWorker) error { return w.Ping() }); err == nil {
		t.Fatal("expected the crashed worker to fail")
	}
	if err := p.Do(context.Background(), func(w *PythonWorker) error { return w.Ping() }); err != nil {
		t.Fatalf("replacement worker failed: %v", err)
	}
	if *calls != 2 {
		t.Errorf("spawn called %d times, want 2", *calls)
	}
}

func TestPoolExhausted(t *testing.T) {
	spawn, _ := scriptedSpawn(nil) // one worker that crashes, no replacement
	p, err := NewPool(1, spawn, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}

	p.Do(context.Background(), func(w *PythonWorker) error { return w.Ping() })
	if p.Size() != 0 {
		t.Fatalf("size = %d, want 0", p.Size())
	}
	err = p.Do(context.Background(), func(w *PythonWorker) error { return nil })
	if !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("expected ErrPoolExhausted, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close on an empty pool: %v", err)
	}
}

func TestNewPoolAllFail(t *testing.T) {
	spawn, _ := scriptedSpawn()
	if _, err := NewPool(3, spawn, logging.Discard()); err == nil {
		t.Fatal("expected error when no worker starts")
	}
}

func TestPoolAcquireHonoursContext(t *testing.T) {
	spawn, _ := scriptedSpawn([][]byte{{statusOK}})
	p, err := NewPool(1, spawn, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}

	hold := make(chan struct{})
	busy := make(chan struct{})
	go p.Do(context.Background(), func(w *PythonWorker) error {
		close(busy)
		<-hold
		return nil
	})
	<-busy

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Do(ctx, func(*PythonWorker) error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(hold)
	p.Close()
}

func TestPoolCloseKillsBusyWorker(t *testing.T) {
	// The engine never answers: reads on its data pipe block until the pipe is closed.
	engineOut, _ := io.Pipe()
	spawn := func(id int) (*PythonWorker, error) {
		return &PythonWorker{ID: id, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: engineOut}, nil
	}
	p, err := NewPool(1, spawn, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- p.Do(context.Background(), func(w *PythonWorker) error {
			close(started)
			return w.Ping()
		})
	}()
	<-started

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close waited for a hung worker")
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("request on a killed worker should fail")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request on a killed worker never returned")
	}
	if p.Size() != 0 {
		t.Errorf("size = %d, want 0", p.Size())
	}
	if err := p.Do(context.Background(), func(*PythonWorker) error { return nil }); !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Do after Close = %v, want ErrPoolExhausted", err)
	}
}
