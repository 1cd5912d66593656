package fifoqueue

import (
	"container/list"
	"sync"
)

type FIFOQueue[T any] struct {
	mu    sync.Mutex
	queue *list.List
}

func NewFIFOQueue[T any]() *FIFOQueue[T] {
	return &FIFOQueue[T]{
		mu:    sync.Mutex{},
		queue: list.New(),
	}
}

func (q *FIFOQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.queue.Len()
}

func (q *FIFOQueue[T]) PushBack(val T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.queue.PushBack(&val)
}

func (q *FIFOQueue[T]) pop() (*T, bool) {
	if e := q.queue.Front(); e != nil {
		q.queue.Remove(e)
		return e.Value.(*T), true
	}

	return nil, false
}

// Empty removes every item and returns them oldest first
func (q *FIFOQueue[T]) Empty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	vals := make([]T, 0, q.queue.Len())
	for val, ok := q.pop(); ok; val, ok = q.pop() {
		vals = append(vals, *val)
	}

	return vals
}
