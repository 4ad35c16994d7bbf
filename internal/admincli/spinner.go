package admincli

import (
	"time"

	"github.com/briandowns/spinner"
)

// AdminOpWaiter shows a spinner while an admin op blocks on SG FSM drain
// (e.g. SHUTDOWN waiting for the oper-list to empty), mirroring the
// teacher's executor spinner used for long-running tool calls.
type AdminOpWaiter struct {
	s *spinner.Spinner
}

// NewAdminOpWaiter builds a waiter with the given status suffix, not yet
// started.
func NewAdminOpWaiter(suffix string) *AdminOpWaiter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	return &AdminOpWaiter{s: s}
}

// Start begins the spinner animation.
func (w *AdminOpWaiter) Start() { w.s.Start() }

// Stop halts the spinner animation.
func (w *AdminOpWaiter) Stop() { w.s.Stop() }

// Await runs poll at the given interval until it returns true or ctx-less
// deadline elapses, animating the spinner the whole time. Returns false on
// timeout.
func (w *AdminOpWaiter) Await(timeout, interval time.Duration, poll func() bool) bool {
	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if poll() {
			return true
		}
		time.Sleep(interval)
	}
	return poll()
}
