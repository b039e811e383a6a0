package gesture

// Arbiter grants exclusive touch capture to one item at a time. All machines
// on a canvas share one Arbiter. It is not safe for concurrent use; the engine
// runs on a single event loop.
type Arbiter struct {
	owner string
}

func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// Acquire gives capture to id unless another item holds it.
func (a *Arbiter) Acquire(id string) bool {
	if a.owner != "" && a.owner != id {
		return false
	}
	a.owner = id
	return true
}

// Release drops capture if id holds it.
func (a *Arbiter) Release(id string) {
	if a.owner == id {
		a.owner = ""
	}
}

// Owner returns the id holding capture.
func (a *Arbiter) Owner() (string, bool) {
	return a.owner, a.owner != ""
}

func (a *Arbiter) Active() bool {
	return a.owner != ""
}
