// Package rollback records compensating actions for multi-step writes that
// cannot share a single transaction (database rows plus files on disk).
//
// Every committed side effect pushes its undo; on failure Unwind runs the
// undos newest-first. Undo errors are collected, never returned as the
// primary error of the operation.
package rollback

import (
	"context"
)

type step struct {
	name string
	undo func(ctx context.Context) error
}

// Failure is a compensation that did not succeed.
type Failure struct {
	Step string
	Err  error
}

// Stack is not safe for concurrent use; one stack belongs to one request.
type Stack struct {
	steps []step
}

func New() *Stack {
	return &Stack{}
}

// Push registers undo for a side effect that has just been committed.
func (s *Stack) Push(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, step{name: name, undo: undo})
}

// Names lists the registered steps, oldest first.
func (s *Stack) Names() []string {
	out := make([]string, len(s.steps))
	for i, st := range s.steps {
		out[i] = st.name
	}
	return out
}

// Unwind runs every compensation in reverse order and empties the stack.
// A failing compensation does not stop the ones below it.
func (s *Stack) Unwind(ctx context.Context) []Failure {
	var failures []Failure
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		if err := st.undo(ctx); err != nil {
			failures = append(failures, Failure{Step: st.name, Err: err})
		}
	}
	s.steps = nil
	return failures
}

// Commit forgets all compensations; the operation succeeded.
func (s *Stack) Commit() {
	s.steps = nil
}
