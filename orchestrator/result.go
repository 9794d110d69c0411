package orchestrator

import (
	"time"

	"github.com/kbukum/taskflow/errors"
)

// Status is the terminal state of a task.
type Status string

const (
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusCanceled Status = "canceled"
	// StatusSkipped marks a task whose capability is not registered.
	StatusSkipped Status = "skipped"
)

// TaskError is the inline error value stored in Result.Values.
type TaskError struct {
	Message string           `json:"error"`
	Code    errors.ErrorCode `json:"code"`
}

func (e *TaskError) Error() string { return e.Message }

// NewTaskError converts an AppError into its inline form.
func NewTaskError(err *errors.AppError) *TaskError {
	return &TaskError{Message: err.Message, Code: err.Code}
}

// AsTaskError reports whether v is a task error.
func AsTaskError(v any) (*TaskError, bool) {
	te, ok := v.(*TaskError)
	return te, ok && te != nil
}

// TaskResult reports how one task resolved.
type TaskResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Batch    int           `json:"batch"`
	Duration time.Duration `json:"-"`
	// DurationMS mirrors Duration in milliseconds for JSON.
	DurationMS int64      `json:"duration_ms"`
	Error      *TaskError `json:"error,omitempty"`
}

// Result is the outcome of one Execute call. Values has exactly one entry
// per submitted task name: the capability's output or a *TaskError.
type Result struct {
	ExecutionID string                `json:"execution_id"`
	Values      map[string]any        `json:"values"`
	Tasks       map[string]TaskResult `json:"tasks"`
	Plan        *Plan                 `json:"plan"`
	Duration    time.Duration         `json:"-"`
	DurationMS  int64                 `json:"duration_ms"`
}

func newResult(executionID string, plan *Plan, size int) *Result {
	return &Result{
		ExecutionID: executionID,
		Values:      make(map[string]any, size),
		Tasks:       make(map[string]TaskResult, size),
		Plan:        plan,
	}
}

func (r *Result) succeed(name string, batch int, output any, d time.Duration) {
	r.Values[name] = output
	r.Tasks[name] = TaskResult{Name: name, Status: StatusDone, Batch: batch, Duration: d, DurationMS: d.Milliseconds()}
}

func (r *Result) fail(name string, batch int, status Status, err *errors.AppError, d time.Duration) {
	te := NewTaskError(err)
	r.Values[name] = te
	r.Tasks[name] = TaskResult{Name: name, Status: status, Batch: batch, Duration: d, DurationMS: d.Milliseconds(), Error: te}
}

func (r *Result) finish(d time.Duration) {
	r.Duration = d
	r.DurationMS = d.Milliseconds()
}

// Errors returns the task errors keyed by name.
func (r *Result) Errors() map[string]*TaskError {
	out := make(map[string]*TaskError)
	for name, v := range r.Values {
		if te, ok := AsTaskError(v); ok {
			out[name] = te
		}
	}
	return out
}

// OK reports whether every task succeeded.
func (r *Result) OK() bool {
	return len(r.Errors()) == 0
}
