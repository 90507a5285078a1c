package monitor

// Queue is a single-slot scan request queue. Requests made while one is
// already pending are folded into it, so a burst of notifications during a
// scan yields exactly one follow-up scan.
type Queue struct {
	ch chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ch: make(chan struct{}, 1)}
}

// Request asks for a scan. It never blocks and reports whether a new request
// was queued (false means it was coalesced into a pending one).
func (q *Queue) Request() bool {
	select {
	case q.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// C delivers one value per pending request.
func (q *Queue) C() <-chan struct{} {
	return q.ch
}
