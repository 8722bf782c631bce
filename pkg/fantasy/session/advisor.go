package session

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultQuietWindow is how long the advisor waits after the last numeric
// edit before running its plausibility check.
const DefaultQuietWindow = 500 * time.Millisecond

const (
	maxPlausibleWickets = 20
	maxPlausibleRuns    = 500

	warnWickets = "Wickets > 20 is unusual"
	warnRuns    = "Runs > 500 is unrealistic"
)

// Scheduler defers a function by a delay and allows the deferral to be
// cancelled. The production implementation is timer-based; tests substitute
// a manual one to fire deterministically.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules on real timers.
type TimerScheduler struct{}

// Schedule runs fn after d unless the returned cancel is called first.
func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Advisor runs the debounced plausibility check over the draft's numeric
// fields. It is purely informational and never blocks submission. Each edit
// cancels any pending check and schedules a fresh one, so only the state
// after the final keystroke of a burst is ever evaluated.
type Advisor struct {
	scheduler Scheduler
	window    time.Duration

	mu      sync.Mutex
	cancel  func()
	warning string
	onWarn  func(string)
}

// NewAdvisor creates an advisor firing after window of quiet.
func NewAdvisor(scheduler Scheduler, window time.Duration) *Advisor {
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	if window <= 0 {
		window = DefaultQuietWindow
	}
	return &Advisor{scheduler: scheduler, window: window}
}

// OnWarning sets a callback invoked whenever the advisory string changes.
func (a *Advisor) OnWarning(fn func(string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onWarn = fn
}

// Observe notes an edit to the plausibility-checked fields and reschedules
// the check. Values are captured now and evaluated when the window elapses.
func (a *Advisor) Observe(highestRuns, totalWickets string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = a.scheduler.Schedule(a.window, func() {
		a.evaluate(highestRuns, totalWickets)
	})
}

// Warning returns the current advisory, empty when nothing is flagged.
func (a *Advisor) Warning() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.warning
}

// Stop cancels any pending check.
func (a *Advisor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Reset cancels any pending check and silently clears the advisory, e.g.
// when a different match is selected.
func (a *Advisor) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.warning = ""
}

func (a *Advisor) evaluate(highestRuns, totalWickets string) {
	warning := plausibilityWarning(highestRuns, totalWickets)

	a.mu.Lock()
	changed := warning != a.warning
	a.warning = warning
	fn := a.onWarn
	a.mu.Unlock()

	if changed && fn != nil {
		fn(warning)
	}
}

// plausibilityWarning flags implausible values. An unparsable or empty field
// triggers nothing.
func plausibilityWarning(highestRuns, totalWickets string) string {
	var warnings []string
	if n, ok := parseDigits(totalWickets); ok && n > maxPlausibleWickets {
		warnings = append(warnings, warnWickets)
	}
	if n, ok := parseDigits(highestRuns); ok && n > maxPlausibleRuns {
		warnings = append(warnings, warnRuns)
	}
	return strings.Join(warnings, " • ")
}

func parseDigits(s string) (int, bool) {
	if !isDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
