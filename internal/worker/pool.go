package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrPoolExhausted means every engine process has died and none could be restarted.
var ErrPoolExhausted = errors.New("no engine workers available")

// SpawnFunc starts one engine process.
type SpawnFunc func(id int) (*PythonWorker, error)

// Pool hands out idle engine workers. A worker whose pipe breaks is replaced once; if the
// replacement fails the pool shrinks.
type Pool struct {
	idle      chan *PythonWorker
	exhausted chan struct{} // closed when alive drops to zero
	spawn     SpawnFunc
	log       logrus.FieldLogger

	mu     sync.Mutex
	busy   map[*PythonWorker]struct{}
	alive  int
	nextID int
	closed bool
}

// NewPool starts size workers. It fails only if none of them start.
func NewPool(size int, spawn SpawnFunc, log logrus.FieldLogger) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		idle:      make(chan *PythonWorker, size),
		exhausted: make(chan struct{}),
		busy:      make(map[*PythonWorker]struct{}),
		spawn:     spawn,
		log:       log,
	}

	var firstErr error
	for i := 0; i < size; i++ {
		w, err := spawn(i)
		if err != nil {
			log.WithField("worker", i).WithError(err).Warn("engine worker failed to start")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.alive++
		p.idle <- w
	}
	p.nextID = size
	if p.alive == 0 {
		return nil, errors.Wrap(firstErr, "engine pool")
	}
	return p, nil
}

// Size is the number of live workers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

// Do runs fn on an idle worker. Engine-reported errors leave the worker in the pool;
// any other error is treated as a broken pipe and the worker is replaced.
func (p *Pool) Do(ctx context.Context, fn func(*PythonWorker) error) error {
	w, err := p.acquire(ctx)
	if err != nil {
		return err
	}

	err = fn(w)

	var engineErr *EngineError
	healthy := err == nil || errors.As(err, &engineErr)

	p.mu.Lock()
	delete(p.busy, w)
	closed := p.closed
	if healthy && !closed {
		// idle has room for every live worker, so this never blocks.
		p.idle <- w
	}
	p.mu.Unlock()
	if closed {
		// Close already killed it.
		w.Close()
		p.shrink()
		return err
	}
	if healthy {
		return err
	}

	logs := ""
	if w.Cmd != nil {
		logs = w.Cmd.Logs()
	}
	p.log.WithFields(logrus.Fields{"worker": w.ID, "engine_logs": logs}).WithError(err).Warn("engine worker crashed")
	w.Close()
	p.replace()
	return err
}

func (p *Pool) acquire(ctx context.Context) (*PythonWorker, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolExhausted
	}

	select {
	case w := <-p.idle:
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			w.Close()
			p.shrink()
			return nil, ErrPoolExhausted
		}
		p.busy[w] = struct{}{}
		p.mu.Unlock()
		return w, nil
	case <-p.exhausted:
		return nil, ErrPoolExhausted
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) replace() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		w, err := p.spawn(id)
		if err == nil {
			p.mu.Lock()
			closed = p.closed
			if !closed {
				p.idle <- w
			}
			p.mu.Unlock()
			if !closed {
				return
			}
			w.Close()
		} else {
			p.log.WithField("worker", id).WithError(err).Warn("engine worker restart failed")
		}
	}
	p.shrink()
}

func (p *Pool) shrink() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive--
	if p.alive == 0 {
		close(p.exhausted)
	}
}

// Close stops idle workers and kills checked-out ones without waiting for their
// requests to return.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	busy := make([]*PythonWorker, 0, len(p.busy))
	for w := range p.busy {
		busy = append(busy, w)
	}
	p.mu.Unlock()

	for _, w := range busy {
		p.log.WithField("worker", w.ID).Debug("killing busy engine worker")
		w.Kill()
	}

	var firstErr error
	for {
		select {
		case w := <-p.idle:
			if err := w.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			p.shrink()
		default:
			return firstErr
		}
	}
}
