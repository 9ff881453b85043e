package session

import (
	"sync"
	"time"
)

// countdown is a scoped timer handle. Every exit path of a session funnels
// through stop, so a discarded session can never keep ticking.
type countdown struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func startCountdown(interval time.Duration, tick func()) *countdown {
	c := &countdown{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-c.ticker.C:
				tick()
			case <-c.done:
				return
			}
		}
	}()
	return c
}

// stop is idempotent and safe to call from within tick.
func (c *countdown) stop() {
	c.once.Do(func() {
		c.ticker.Stop()
		close(c.done)
	})
}
