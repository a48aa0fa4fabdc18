package reactive

import (
	"errors"
	"fmt"
	"strings"

	qerrors "github.com/vango-dev/quill/internal/errors"
)

// ErrInvalidHandle is returned when a destroyed signal or computation is used.
var ErrInvalidHandle = errors.New("reactive: invalid handle")

// ErrBudgetExceeded is returned by Flush when Config.MaxEvaluationsPerFlush
// was reached. The remaining dirty computations run on the next flush.
var ErrBudgetExceeded = errors.New("reactive: evaluation budget exceeded")

// ErrReentrantFlush is returned when Flush is called from inside a flush.
var ErrReentrantFlush = errors.New("reactive: flush called during flush")

// NodeInfo describes one node of the graph.
type NodeInfo struct {
	ID    NodeID   `json:"id"`
	Kind  Kind     `json:"kind"`
	Label string   `json:"label,omitempty"`
	Rank  int      `json:"rank"`
	Dirty bool     `json:"dirty,omitempty"`
	Deps  []NodeID `json:"deps,omitempty"`
	Subs  []NodeID `json:"subs,omitempty"`
}

// String returns "kind#id" or "kind#id(label)".
func (i NodeInfo) String() string {
	if i.Label == "" {
		return fmt.Sprintf("%s#%d", i.Kind, i.ID)
	}
	return fmt.Sprintf("%s#%d(%s)", i.Kind, i.ID, i.Label)
}

// CycleError reports computations that were still being invalidated after
// the pass bound of a flush. They stay dirty and are retried next flush.
type CycleError struct {
	Passes       int
	Computations []NodeInfo
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Computations))
	for i, c := range e.Computations {
		names[i] = c.String()
	}
	return fmt.Sprintf("reactive: still dirty after %d passes: %s", e.Passes, strings.Join(names, ", "))
}

// EvalError reports a panic raised while evaluating a computation.
// The computation keeps its previous output.
type EvalError struct {
	Node  NodeInfo
	Value any
	Stack []byte
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("reactive: %s panicked: %v", e.Node, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *EvalError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func invalidHandle(id NodeID) error {
	return qerrors.New("Q003").WithDetailf("node %d", id).Wrap(ErrInvalidHandle)
}
