// ABOUTME: Double-ended output queue and cancellation state
// ABOUTME: Both are guarded by the owning environment's mutex
package environment

// outputQueue is an unbounded deque of outputs
type outputQueue struct {
	items []*Output
}

func (q *outputQueue) len() int { return len(q.items) }

func (q *outputQueue) pushBack(o *Output) {
	q.items = append(q.items, o)
}

func (q *outputQueue) pushFront(o *Output) {
	q.items = append(q.items, nil)
	copy(q.items[1:], q.items)
	q.items[0] = o
}

// insertAfter places o directly behind anchor, or at the head when anchor
// is no longer queued
func (q *outputQueue) insertAfter(anchor, o *Output) {
	for i, item := range q.items {
		if item == anchor {
			q.items = append(q.items, nil)
			copy(q.items[i+2:], q.items[i+1:])
			q.items[i+1] = o
			return
		}
	}
	q.pushFront(o)
}

func (q *outputQueue) popFront() *Output {
	if len(q.items) == 0 {
		return nil
	}
	o := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return o
}

// clear empties the queue and returns what it held
func (q *outputQueue) clear() []*Output {
	items := q.items
	q.items = nil
	return items
}

// cancellation is the request to stop the output currently playing.
// The first request in a cycle wins; only the output worker resets it.
type cancellation struct {
	shouldCancel bool
	discard      bool

	// resumeAfter is the output whose request suspended the current one
	resumeAfter *Output
}

func (c *cancellation) request(discard bool, by *Output) bool {
	if c.shouldCancel {
		return false
	}
	c.shouldCancel = true
	c.discard = discard
	c.resumeAfter = by
	return true
}

func (c *cancellation) reset() {
	*c = cancellation{}
}
