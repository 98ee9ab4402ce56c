package bqmqueue

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"bqm/internal/assignment"
)

// Queue is C4: an ordered list of Items, the Assignment that runs over
// every one of them, and the Settings controlling how. A Queue is owned
// by exactly one BatchQueueList slot in the UI model; the Worker Pool
// consumes it through Items()/UpdateState, not by mutating it directly.
type Queue struct {
	ID         string
	Name       string
	Assignment *assignment.Assignment
	Settings   Settings

	mu    sync.Mutex
	items []Item
}

// New creates an empty, named queue with default settings.
func New(name string, asgn *assignment.Assignment) *Queue {
	return &Queue{
		ID:         uuid.NewString(),
		Name:       name,
		Assignment: asgn,
		Settings:   DefaultSettings(),
	}
}

// AddItem appends a pending source path to the queue.
func (q *Queue) AddItem(sourcePath string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, Item{SourcePath: sourcePath, State: ItemPending})
}

// RemoveItem deletes the item at index i.
func (q *Queue) RemoveItem(i int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("bqmqueue: index %d out of range [0,%d)", i, len(q.items))
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	return nil
}

// Items returns a snapshot of the current item list.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

// UpdateState records the outcome of processing the item at i.
func (q *Queue) UpdateState(i int, state ItemState, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("bqmqueue: index %d out of range [0,%d)", i, len(q.items))
	}
	q.items[i].State = state
	q.items[i].Message = message
	return nil
}

// SetDestination records the resolved output path for the item at i,
// set once Task execution has decided where the result will land.
func (q *Queue) SetDestination(i int, dest string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("bqmqueue: index %d out of range [0,%d)", i, len(q.items))
	}
	q.items[i].DestPath = dest
	return nil
}

// PendingCount returns the number of items not yet started.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for _, it := range q.items {
		if it.State == ItemPending {
			count++
		}
	}
	return count
}

// Reset clears every item's state back to pending, the way the UI's
// "Reset Queue" action restarts a run without re-gathering files.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		q.items[i].State = ItemPending
		q.items[i].Message = ""
		q.items[i].DestPath = ""
	}
}
