package containers

import "errors"

var (
	ErrQueueFull  = errors.New("queue is full")
	ErrQueueEmpty = errors.New("queue is empty")
)

// RingQueue is a fixed capacity FIFO backed by a single slice.
// Callers synchronize access themselves.
type RingQueue[T any] struct {
	buf  []T
	head int
	n    int
}

// NewRingQueue allocates room for size items, at least one.
func NewRingQueue[T any](size int) *RingQueue[T] {
	return &RingQueue[T]{buf: make([]T, max(size, 1))}
}

func (rq *RingQueue[T]) slot(i int) int {
	return (rq.head + i) % len(rq.buf)
}

func (rq *RingQueue[T]) Enqueue(value T) error {
	if rq.IsFull() {
		return ErrQueueFull
	}
	rq.buf[rq.slot(rq.n)] = value
	rq.n++
	return nil
}

// Dequeue pops the oldest item and clears its slot so the queue does not
// keep it reachable.
func (rq *RingQueue[T]) Dequeue() (T, error) {
	value, err := rq.Peek()
	if err != nil {
		return value, err
	}
	var zero T
	rq.buf[rq.head] = zero
	rq.head = rq.slot(1)
	rq.n--
	return value, nil
}

func (rq *RingQueue[T]) Peek() (T, error) {
	if rq.n == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}
	return rq.buf[rq.head], nil
}

// Grow reallocates the queue to hold size items, keeping their order.
// Sizes not above the current capacity are ignored.
func (rq *RingQueue[T]) Grow(size int) {
	if size <= len(rq.buf) {
		return
	}
	buf := make([]T, size)
	for i := 0; i < rq.n; i++ {
		buf[i] = rq.buf[rq.slot(i)]
	}
	rq.buf = buf
	rq.head = 0
}

func (rq *RingQueue[T]) Len() int      { return rq.n }
func (rq *RingQueue[T]) Cap() int      { return len(rq.buf) }
func (rq *RingQueue[T]) IsEmpty() bool { return rq.n == 0 }
func (rq *RingQueue[T]) IsFull() bool  { return rq.n == len(rq.buf) }
