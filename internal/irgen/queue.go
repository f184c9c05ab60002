package irgen

import (
	"fmt"

	"yulgen/internal/ast"
)

// QueueState tells whether a drain is in progress.
type QueueState uint8

const (
	QueueIdle QueueState = iota
	QueueDraining
)

// String returns the state name.
func (s QueueState) String() string {
	switch s {
	case QueueIdle:
		return "idle"
	case QueueDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// FunctionQueue holds the functions whose calls were discovered but whose
// bodies have not been generated yet. It has set semantics: pushing a pending
// function again is a no-op. Pop order is unspecified.
type FunctionQueue struct {
	pending []ast.FunctionID
	members map[ast.FunctionID]struct{}
	state   QueueState

	// onClear is told about every pending function dropped by Clear.
	onClear func(ast.FunctionID)
}

// NewFunctionQueue creates an empty, idle queue.
func NewFunctionQueue() *FunctionQueue {
	return &FunctionQueue{members: make(map[ast.FunctionID]struct{})}
}

// Push adds fn unless it is already pending.
func (q *FunctionQueue) Push(fn ast.FunctionID) {
	if _, ok := q.members[fn]; ok {
		return
	}
	q.members[fn] = struct{}{}
	q.pending = append(q.pending, fn)
}

// Pop removes and returns one pending function.
func (q *FunctionQueue) Pop() (ast.FunctionID, error) {
	if len(q.pending) == 0 {
		return ast.NoFunctionID, ErrEmptyQueue
	}
	last := len(q.pending) - 1
	fn := q.pending[last]
	q.pending = q.pending[:last]
	delete(q.members, fn)
	return fn, nil
}

// Empty reports whether nothing is pending.
func (q *FunctionQueue) Empty() bool { return len(q.pending) == 0 }

// Size reports the number of pending functions.
func (q *FunctionQueue) Size() int { return len(q.pending) }

// State reports whether a drain is running.
func (q *FunctionQueue) State() QueueState { return q.state }

// Clear discards all pending functions. It is only legal outside a drain.
// Dropped functions can be enqueued again afterwards.
func (q *FunctionQueue) Clear() error {
	if q.state == QueueDraining {
		return fmt.Errorf("%w: clear", ErrQueueDraining)
	}
	if q.onClear != nil {
		for _, fn := range q.pending {
			q.onClear(fn)
		}
	}
	q.pending = nil
	clear(q.members)
	return nil
}

// Drain pops functions and hands them to process until the queue is empty.
// process may push more work; it is picked up by the same drain.
// The queue returns to idle when Drain returns, also on error.
func (q *FunctionQueue) Drain(process func(ast.FunctionID) error) error {
	if q.state == QueueDraining {
		return fmt.Errorf("%w: nested drain", ErrQueueDraining)
	}
	q.state = QueueDraining
	defer func() { q.state = QueueIdle }()

	for !q.Empty() {
		fn, err := q.Pop()
		if err != nil {
			return err
		}
		if err := process(fn); err != nil {
			return err
		}
	}
	return nil
}
