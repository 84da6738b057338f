package session

import (
	"context"
	"sync"
	"time"
)

// loop is a cancellable fixed-interval driver for one room. Stop is
// idempotent and guarantees no tick body runs after it returns observable
// effects: the context is checked again after every ticker fire.
type loop struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// startLoop begins ticking immediately. A panic inside tick stops the loop
// and is handed to onPanic instead of crossing room boundaries.
func startLoop(interval time.Duration, tick func(), onPanic func(recovered interface{})) *loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go l.run(ctx, interval, tick, onPanic)
	return l
}

func (l *loop) run(ctx context.Context, interval time.Duration, tick func(), onPanic func(interface{})) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if !l.safeTick(tick, onPanic) {
				return
			}
		}
	}
}

// safeTick runs one tick and reports whether the loop should continue.
func (l *loop) safeTick(tick func(), onPanic func(interface{})) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			ok = false
			l.Stop()
			if onPanic != nil {
				onPanic(v)
			}
		}
	}()
	tick()
	return true
}

// Stop cancels the loop. Safe to call from inside a tick and from multiple
// goroutines; only the first call has any effect.
func (l *loop) Stop() {
	l.stopOnce.Do(l.cancel)
}

// Done is closed once the loop goroutine has fully exited.
func (l *loop) Done() <-chan struct{} {
	return l.done
}
