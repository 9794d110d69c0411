package orchestrator

import (
	"fmt"
	"time"

	"github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/validation"
)

// Task describes one capability call submitted to the orchestrator.
type Task struct {
	// Name is the capability to invoke. It is also the task's identity
	// within one call: two tasks with the same name are one task.
	Name string `json:"name" yaml:"name" validate:"required,capname"`
	// Params are the explicit arguments. They win over propagated inputs.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	// DependsOn lists task names whose outputs this task consumes.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" validate:"dive,required"`
	// Provides documents the output keys this task produces. Not enforced.
	Provides []string `json:"provides,omitempty" yaml:"provides,omitempty"`
}

// Names returns the distinct task names in submission order.
func Names(tasks []Task) []string {
	seen := make(map[string]bool, len(tasks))
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		names = append(names, t.Name)
	}
	return names
}

// Batch is the wire and file form of a task submission.
type Batch struct {
	Tasks []Task `json:"tasks" yaml:"tasks" validate:"required,min=1,dive"`
	// Timeout overrides the configured per-task deadline, e.g. "5s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Independent runs every task in one batch without propagation.
	Independent bool `json:"independent,omitempty" yaml:"independent,omitempty"`
}

// Validate checks every task descriptor.
func (b *Batch) Validate() error {
	if err := validation.Validate(b); err != nil {
		return err
	}
	return new(validation.Checks).Duration("timeout", b.Timeout).Err()
}

// TimeoutDuration parses Timeout. An empty value yields zero, meaning the
// orchestrator's default.
func (b *Batch) TimeoutDuration() (time.Duration, error) {
	if b.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return 0, errors.InvalidInput("timeout", err.Error())
	}
	if d < 0 {
		return 0, errors.InvalidInput("timeout", fmt.Sprintf("must not be negative (got: %s)", d))
	}
	return d, nil
}
