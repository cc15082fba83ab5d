package arbor

// DefaultDirtyCapacity is the ring size used when Config leaves it unset.
const DefaultDirtyCapacity = 64

// DirtyRing is a bounded FIFO of repaint requests. Producers never block:
// once the ring holds its capacity, further requests are dropped until the
// render thread drains it.
type DirtyRing struct {
	ch chan Rect
}

// NewDirtyRing returns a ring holding at most capacity rectangles. A
// non-positive capacity selects DefaultDirtyCapacity.
func NewDirtyRing(capacity int) *DirtyRing {
	if capacity <= 0 {
		capacity = DefaultDirtyCapacity
	}
	return &DirtyRing{ch: make(chan Rect, capacity)}
}

// Cap returns the fixed capacity.
func (d *DirtyRing) Cap() int { return cap(d.ch) }

// Len returns the number of pending requests.
func (d *DirtyRing) Len() int { return len(d.ch) }

// Push queues r. It reports false when the ring is full and r was dropped.
// Safe for concurrent use.
func (d *DirtyRing) Push(r Rect) bool {
	select {
	case d.ch <- r:
		return true
	default:
		return false
	}
}

// Drain removes and returns the pending requests in arrival order. Requests
// pushed while draining are left for the next call.
func (d *DirtyRing) Drain() []Rect {
	n := len(d.ch)
	if n == 0 {
		return nil
	}
	out := make([]Rect, 0, n)
	for i := 0; i < n; i++ {
		select {
		case r := <-d.ch:
			out = append(out, r)
		default:
			return out
		}
	}
	return out
}

// unionRects folds rs into their bounding rectangle; empty entries are
// ignored.
func unionRects(rs []Rect) Rect {
	var u Rect
	for _, r := range rs {
		u = u.Union(r)
	}
	return u
}
