package models

import (
	"container/heap"
	"sync"
)

// Retry is a scheduled re-dispatch attempt for a cooled-down ride request.
type Retry struct {
	DueTick     int
	CreatedTick int
	RideID      string
}

// RetryQueue is a priority queue of pending dispatch retries, ordered by
// due tick, then request creation tick, then ride id, so a replayed input
// sequence always pops retries in the same order.
type RetryQueue struct {
	retries []*Retry
	mutex   sync.Mutex
}

type retryHeap []*Retry

func (h retryHeap) Len() int { return len(h) }
func (h retryHeap) Less(i, j int) bool {
	if h[i].DueTick != h[j].DueTick {
		return h[i].DueTick < h[j].DueTick
	}
	if h[i].CreatedTick != h[j].CreatedTick {
		return h[i].CreatedTick < h[j].CreatedTick
	}
	return h[i].RideID < h[j].RideID
}
func (h retryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *retryHeap) Push(x interface{}) {
	*h = append(*h, x.(*Retry))
}

func (h *retryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func NewRetryQueue() *RetryQueue {
	return &RetryQueue{retries: make([]*Retry, 0)}
}

// Enqueue schedules a retry.
func (q *RetryQueue) Enqueue(r *Retry) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	heap.Push((*retryHeap)(&q.retries), r)
}

// PopDue removes and returns every retry due at or before the given tick.
func (q *RetryQueue) PopDue(tick int) []*Retry {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	due := make([]*Retry, 0)
	for len(q.retries) > 0 && q.retries[0].DueTick <= tick {
		due = append(due, heap.Pop((*retryHeap)(&q.retries)).(*Retry))
	}
	return due
}

func (q *RetryQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.retries)
}

// Reset drops all scheduled retries.
func (q *RetryQueue) Reset() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.retries = q.retries[:0]
}
