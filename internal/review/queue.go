package review

import (
	"container/heap"
	"sync"
	"time"
)

// Key orders pending cases: lower danger rank first, then earlier
// detection time. Kept as its own type so the schema stays pluggable.
type Key struct {
	Danger int
	At     time.Time
}

func (k Key) Less(other Key) bool {
	if k.Danger != other.Danger {
		return k.Danger < other.Danger
	}
	return k.At.Before(other.At)
}

type entry struct {
	key Key
	c   *Case
}

type caseHeap []entry

func (h caseHeap) Len() int            { return len(h) }
func (h caseHeap) Less(i, j int) bool  { return h[i].key.Less(h[j].key) }
func (h caseHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *caseHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *caseHeap) Pop() interface{} {
	old := *h
	n := len(old)
	popped := old[n-1]
	*h = old[:n-1]
	return popped
}

// Queue is the priority-ordered review queue. The dispatch loop is the
// only writer, but the whole mutation is guarded anyway so the queue
// survives being shared.
type Queue struct {
	mu sync.Mutex
	h  caseHeap
}

func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

func (q *Queue) Push(c *Case) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.h, entry{key: Key{Danger: c.DangerRank(), At: c.ReportedAt}, c: c})
}

// Pop removes and returns the highest-priority case, or nil when the
// queue is empty.
func (q *Queue) Pop() *Case {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(entry).c
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}
