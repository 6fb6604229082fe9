// Package replay implements the Reset Classifier and the shared
// forward/inverse instruction-dispatch loop that reconstructs a document's
// initial state and then replays its revision history.
package replay

import (
	"errors"
	"fmt"

	"github.com/bolt-blue/c9rev2git/internal/ot"
)

// ErrStateMismatch is the sentinel for OperationDoesNotMatchState: a
// Retain or Delete referenced bytes beyond the current pre-image, or a
// Delete's payload did not match the bytes at the cursor.
var ErrStateMismatch = errors.New("operation does not match document state")

// Direction selects which of Insert/Delete consumes the pre-image read
// cursor. Forward and inverse replay share one dispatch loop and differ
// only in this parameter.
type Direction int

const (
	// Forward applies a revision in its recorded direction: Insert
	// writes to the post-image, Delete consumes the cursor.
	Forward Direction = iota
	// Inverse applies a revision in reverse to recover the state that
	// preceded it: Insert consumes the cursor (the inserted text is
	// already present in the pre-image and must be skipped), Delete
	// writes its own payload to the post-image (the deleted text is
	// restored from the instruction itself).
	Inverse
)

// Classify reports true iff every instruction of the first recorded
// revision is an Insert, which means the document could not have had any
// prior content: there is no byte position for a Retain or Delete to
// refer to.
func Classify(first ot.Operation) bool {
	for _, instr := range first {
		if instr.Kind != ot.Insert {
			return false
		}
	}
	return true
}

// Apply runs one instruction-dispatch pass over pre according to dir,
// returning the resulting post-image.
//
// checkDeleteText, when true, asserts that a Delete instruction's payload
// equals the bytes at the read cursor in the forward direction; callers
// that want this mismatch surfaced as an error enable it.
func Apply(pre []byte, op ot.Operation, dir Direction, checkDeleteText bool) ([]byte, error) {
	post := make([]byte, 0, len(pre))
	cursor := 0

	for _, instr := range op {
		switch instr.Kind {
		case ot.Retain:
			end := cursor + instr.N
			if end > len(pre) {
				return nil, fmt.Errorf("%w: retain of %d bytes at cursor %d exceeds %d-byte pre-image", ErrStateMismatch, instr.N, cursor, len(pre))
			}
			post = append(post, pre[cursor:end]...)
			cursor = end

		case ot.Insert:
			if dir == Forward {
				post = append(post, instr.Text...)
			} else {
				end := cursor + len(instr.Text)
				if end > len(pre) {
					return nil, fmt.Errorf("%w: insert-skip of %d bytes at cursor %d exceeds %d-byte pre-image", ErrStateMismatch, len(instr.Text), cursor, len(pre))
				}
				cursor = end
			}

		case ot.Delete:
			if dir == Forward {
				end := cursor + len(instr.Text)
				if end > len(pre) {
					return nil, fmt.Errorf("%w: delete of %d bytes at cursor %d exceeds %d-byte pre-image", ErrStateMismatch, len(instr.Text), cursor, len(pre))
				}
				if checkDeleteText && string(pre[cursor:end]) != string(instr.Text) {
					return nil, fmt.Errorf("%w: delete payload %q does not match bytes at cursor %d", ErrStateMismatch, instr.Text, cursor)
				}
				cursor = end
			} else {
				post = append(post, instr.Text...)
			}

		default:
			return nil, fmt.Errorf("%w: unknown instruction kind %v", ErrStateMismatch, instr.Kind)
		}
	}
	return post, nil
}

// InverseChain reconstructs the pre-image of the first (chronologically
// earliest) revision by applying every revision from last to first in the
// Inverse direction, starting from the final snapshot.
func InverseChain(final []byte, revisions []ot.Operation) ([]byte, error) {
	state := final
	for i := len(revisions) - 1; i >= 0; i-- {
		var err error
		state, err = Apply(state, revisions[i], Inverse, false)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

// ForwardChain reproduces every intermediate state from initial in
// revision order, invoking onStep after each revision is applied with the
// resulting state and the zero-based index of the revision just applied.
// Replay stops at the first error.
func ForwardChain(initial []byte, revisions []ot.Operation, checkDeleteText bool, onStep func(state []byte, index int) error) error {
	state := initial
	for i, rev := range revisions {
		var err error
		state, err = Apply(state, rev, Forward, checkDeleteText)
		if err != nil {
			return err
		}
		if err := onStep(state, i); err != nil {
			return err
		}
	}
	return nil
}
