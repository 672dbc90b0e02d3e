package confirm

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Clock creates the timers the poller waits on.
type Clock interface {
	NewTimer() backoff.Timer
}

// RealClock uses wall-clock timers.
type RealClock struct{}

func (RealClock) NewTimer() backoff.Timer {
	return &realTimer{}
}

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *realTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}
