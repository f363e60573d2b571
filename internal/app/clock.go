package app

import (
	"sync"
	"time"
)

// Clock drives the per-question countdown.
type Clock interface {
	Now() time.Time
	// Every calls fn once per interval until stop is called. stop never blocks
	// and may be called from inside fn.
	Every(interval time.Duration, fn func()) (stop func())
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
