package careauth

import (
	"sync"
	"time"
)

// Clock abstracts wall time so cooldown countdowns and redirect delays are
// deterministic under test. The default is the system clock; tests install
// a stepped fake through [Builder.WithClock].
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// timerHandle is one cancellable scheduled callback. Each timer purpose owns
// at most one outstanding handle, so cancellation is unambiguous. Stop is
// idempotent and does not return until the timer goroutine has exited:
// once Stop returns, no callback fires and no flow state is mutated.
type timerHandle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Stop cancels the timer and waits for the goroutine to exit. Safe on nil.
func (h *timerHandle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

func newTimerHandle() *timerHandle {
	return &timerHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// startDelay schedules fn to run exactly once after d, unless stopped first.
func startDelay(clk Clock, d time.Duration, fn func()) *timerHandle {
	h := newTimerHandle()
	go func() {
		defer close(h.done)
		select {
		case <-clk.After(d):
			fn()
		case <-h.stop:
		}
	}()
	return h
}

// startCountdown decrements from start to zero, one tick per interval,
// invoking onTick with the new remaining value after each tick. The
// goroutine exits on its own when remaining reaches zero.
func startCountdown(clk Clock, start int, interval time.Duration, onTick func(remaining int)) *timerHandle {
	h := newTimerHandle()
	go func() {
		defer close(h.done)
		remaining := start
		for remaining > 0 {
			select {
			case <-clk.After(interval):
				remaining--
				onTick(remaining)
			case <-h.stop:
				return
			}
		}
	}()
	return h
}
