// Package tracing collects execution traces of hook chains: one task per
// chain invocation and one per middleware step within it.
package tracing

// A Task is one traced unit of hook execution.
type Task struct {
	ID        string  `json:"id"`
	ParentID  string  `json:"parent_id"`
	Kind      string  `json:"kind"`
	What      string  `json:"what"`
	Location  string  `json:"location"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Error     string  `json:"error"`
}

// TaskKindChain marks a task that represents a whole chain invocation.
const TaskKindChain = "chain"

// TaskKindStep marks a task that represents one middleware step.
const TaskKindStep = "step"

// A TaskFilter decides whether a tracer collects a task.
type TaskFilter func(t Task) bool

// TaskKindFilter keeps only tasks of one kind.
func TaskKindFilter(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}

// TaskWhatFilter keeps only tasks of one hook.
func TaskWhatFilter(what string) TaskFilter {
	return func(t Task) bool {
		return t.What == what
	}
}
