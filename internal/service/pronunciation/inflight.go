package pronunciation

import (
	"context"
	"sync"
)

// inflight счётчик незавершённых задач и клипов. В отличие от sync.WaitGroup
// допускает add одновременно с wait: ждущий получает момент, когда счётчик
// впервые опустился до нуля.
type inflight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{} // закрывается, когда n падает до нуля
}

func (f *inflight) add() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		f.idle = make(chan struct{})
	}
	f.n++
}

func (f *inflight) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		panic("pronunciation: inflight counter below zero")
	}
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

func (f *inflight) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

func (f *inflight) wait(ctx context.Context) error {
	f.mu.Lock()
	if f.n == 0 {
		f.mu.Unlock()
		return nil
	}
	idle := f.idle
	f.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
