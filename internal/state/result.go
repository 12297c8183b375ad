// Package state holds the tri-state result the view layer renders for each
// outbound operation.
package state

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Result is pending, ok(value) or failed(reason). An idle result has never run.
// Value keeps the last good value across a failure so callers can decide
// whether to show it.
type Result[T any] struct {
	Status Status `json:"status"`
	Value  T      `json:"value"`
	Reason string `json:"reason,omitempty"`
}

func Pending[T any](prev T) Result[T] { return Result[T]{Status: StatusPending, Value: prev} }

func OK[T any](v T) Result[T] { return Result[T]{Status: StatusOK, Value: v} }

func Failed[T any](prev T, err error) Result[T] {
	r := Result[T]{Status: StatusFailed, Value: prev}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

// Terminal reports whether the operation has finished one way or the other.
func (r Result[T]) Terminal() bool { return r.Status == StatusOK || r.Status == StatusFailed }
