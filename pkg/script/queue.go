package script

import (
	"slices"

	"menuscript/pkg/errs"
)

// Queue is the ordered list of pending operations. Replay consumes it from the
// front; Save and Restore let a stop/start cycle replay the same script again.
// It is not safe for concurrent use.
type Queue struct {
	pending []Operation
	saved   []Operation
}

func NewQueue(ops ...Operation) *Queue {
	q := &Queue{}
	for _, op := range ops {
		q.Enqueue(op)
	}
	return q
}

func (q *Queue) Enqueue(op Operation) {
	q.pending = append(q.pending, op.clone())
}

// Save snapshots the pending operations.
func (q *Queue) Save() {
	q.saved = cloneOps(q.pending)
}

// Restore replaces the pending operations with the last snapshot. An empty
// snapshot leaves the queue untouched.
func (q *Queue) Restore() {
	if len(q.saved) == 0 {
		return
	}
	q.pending = cloneOps(q.saved)
}

func (q *Queue) Len() int {
	return len(q.pending)
}

// Pending returns a copy of the remaining operations.
func (q *Queue) Pending() []Operation {
	return cloneOps(q.pending)
}

// Step pops the next operation and applies it. The operation is consumed even
// when applying it fails.
func (q *Queue) Step(target Target) (Operation, error) {
	if len(q.pending) == 0 {
		return Operation{}, errs.New(errs.Empty, "no pending operations")
	}

	op := q.pending[0]
	q.pending = slices.Delete(q.pending, 0, 1)
	return op, op.Apply(target)
}

// StepN applies up to n operations; -1 or a count beyond the remaining
// operations means all of them. It stops at the first failure and reports how
// many operations applied cleanly.
func (q *Queue) StepN(target Target, n int) (int, error) {
	if n == -1 || n > len(q.pending) {
		n = len(q.pending)
	}

	applied := 0
	for ; applied < n; applied++ {
		if _, err := q.Step(target); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

func cloneOps(ops []Operation) []Operation {
	if len(ops) == 0 {
		return nil
	}
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[i] = op.clone()
	}
	return out
}
