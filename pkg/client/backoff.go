package client

import (
	"math/rand"
	"time"
)

// Backoff spaces out read retries. Delay receives the number of retries
// already made for the current read.
type Backoff interface {
	Delay(retry int) time.Duration
}

// ReadBackoff doubles the wait after each failed read, up to Ceiling.
//
// Each wait is then moved by up to Spread of itself in either direction:
// editors that lost the source together (daemon restart, network blip) come
// back at different moments rather than in one burst of GETs.
type ReadBackoff struct {
	Initial time.Duration
	Ceiling time.Duration // must be at least Initial
	Spread  float64       // fraction of the wait; 0 disables
}

// DefaultReadBackoff waits 100ms, 200ms, 400ms ... capped at 2s, each within
// 20%. With the default two retries a failing source costs an editor well
// under a second before fallback values are shown.
func DefaultReadBackoff() ReadBackoff {
	return ReadBackoff{
		Initial: 100 * time.Millisecond,
		Ceiling: 2 * time.Second,
		Spread:  0.2,
	}
}

func (b ReadBackoff) Delay(retry int) time.Duration {
	d := b.Initial
	for i := 0; i < retry && d < b.Ceiling; i++ {
		d *= 2
	}
	d = min(d, b.Ceiling)

	if b.Spread > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * b.Spread * float64(d))
	}
	return max(d, 0)
}
