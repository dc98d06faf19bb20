//go:build linux

package control

import (
	"time"

	"github.com/ja7ad/sonar/pkg/cadence"
)

// StartTimer runs a dedicated goroutine that sleeps until the next
// wall-clock-aligned fire for d and posts an EventTimer for probe into
// events, repeating forever at the same cadence. It returns a
// stop function.
func StartTimer(events chan<- Event, probe Probe, d cadence.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		for {
			now := time.Now()
			next := cadence.NextFire(now, d)
			wait := next.Sub(now)
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				select {
				case events <- Event{Kind: EventTimer, Probe: probe}:
				case <-done:
					return
				}
			case <-done:
				timer.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
