package services

import (
	"container/heap"
	"errors"
	"sync"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

// ErrQueueClosed is returned by Push after Close
var ErrQueueClosed = errors.New("work queue closed")

// Priority orders queued messages; higher runs first
type Priority int

const (
	PriorityText Priority = iota
	PriorityDigits
	PriorityMedia
)

// PriorityOf ranks media uploads above menu choices above free text
func PriorityOf(evt *models.InboundEvent) Priority {
	switch {
	case evt.HasAttachments():
		return PriorityMedia
	case utils.IsOnlyDigits(evt.Text):
		return PriorityDigits
	}
	return PriorityText
}

type task struct {
	key      string
	priority Priority
	seq      uint64
	run      func()
}

// taskHeap implements heap.Interface; equal priorities pop in arrival order
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// WorkQueue runs pushed tasks on a fixed number of workers, highest
// priority first. Tasks sharing a key run one at a time in arrival order:
// while a key has a task queued or running, later ones are parked behind it
// instead of occupying a worker.
type WorkQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  taskHeap
	parked map[string][]*task
	active map[string]bool
	seq    uint64
	closed bool
	wg     sync.WaitGroup
}

// NewWorkQueue starts workers goroutines
func NewWorkQueue(workers int) *WorkQueue {
	if workers <= 0 {
		workers = 1
	}
	q := &WorkQueue{
		parked: make(map[string][]*task),
		active: make(map[string]bool),
	}
	q.cond = sync.NewCond(&q.mu)
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work()
	}
	return q
}

// Push queues fn with priority p. An empty key is never serialised.
func (q *WorkQueue) Push(key string, p Priority, fn func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.seq++
	t := &task{key: key, priority: p, seq: q.seq, run: fn}
	if key != "" {
		if q.active[key] {
			q.parked[key] = append(q.parked[key], t)
			return nil
		}
		q.active[key] = true
	}
	heap.Push(&q.tasks, t)
	q.cond.Signal()
	return nil
}

// Len is the number of tasks waiting for a worker, parked ones included
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.tasks.Len()
	for _, p := range q.parked {
		n += len(p)
	}
	return n
}

// Close stops accepting tasks, lets the workers drain what is queued and
// waits for them to exit
func (q *WorkQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *WorkQueue) work() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for q.tasks.Len() == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.tasks.Len() == 0 {
			q.mu.Unlock()
			return
		}
		t := heap.Pop(&q.tasks).(*task)
		q.mu.Unlock()

		t.run()
		q.release(t.key)
	}
}

// release hands key's slot to its oldest parked task, if any
func (q *WorkQueue) release(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	next := q.parked[key]
	if len(next) == 0 {
		delete(q.active, key)
		delete(q.parked, key)
		return
	}
	q.parked[key] = next[1:]
	if len(q.parked[key]) == 0 {
		delete(q.parked, key)
	}
	heap.Push(&q.tasks, next[0])
	q.cond.Signal()
}

// keyedMutex serialises work per key; entries are dropped once unused
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
