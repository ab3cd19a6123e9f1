package cycle

import "errors"

// Size is the number of daily logs that make up one cycle.
const Size = 7

// State is the per-user cycle state. All transitions happen under the
// user's row lock so exactly one writer moves the state at a time.
type State string

const (
	// StateAccumulating: 0-6 logs in the active cycle.
	StateAccumulating State = "accumulating"
	// StateReady: exactly 7 logs, report not yet generated.
	StateReady State = "ready"
	// StateProcessing: a report run has claimed the cycle but has not
	// committed its results yet. The reconciler retries stuck rows.
	StateProcessing State = "processing"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrCycleFull    = errors.New("cycle is full: generate your weekly report first")
)

// OnLogCreated returns the state after one more log lands in a cycle that
// currently holds logsBefore logs. Creation is rejected once the cycle is
// full, whether or not the report has been generated yet.
func OnLogCreated(current State, logsBefore int) (State, error) {
	if current != StateAccumulating {
		return current, ErrCycleFull
	}
	if logsBefore >= Size {
		return current, ErrCycleFull
	}
	if logsBefore+1 == Size {
		return StateReady, nil
	}
	return StateAccumulating, nil
}

// CanGenerate reports whether a report run may claim the cycle from this
// state. Processing is included so an interrupted run can be retried.
func CanGenerate(current State) bool {
	return current == StateReady || current == StateProcessing
}
