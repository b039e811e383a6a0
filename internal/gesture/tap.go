package gesture

import "time"

// TapDetector recognizes two taps within a window.
type TapDetector struct {
	Window time.Duration
	last   time.Time
	armed  bool
}

// Tap records a tap at now and reports whether it completes a double tap.
func (d *TapDetector) Tap(now time.Time) bool {
	if d.armed {
		gap := now.Sub(d.last)
		if gap >= 0 && gap < d.Window {
			d.armed = false
			return true
		}
	}
	d.last = now
	d.armed = true
	return false
}

// Clear forgets a pending first tap.
func (d *TapDetector) Clear() {
	d.armed = false
}
