package tracing

import (
	"context"

	"github.com/grapnel-io/grapnel/recording"
)

// TaskQuery defines the tasks to be queried. Empty fields are ignored.
type TaskQuery struct {
	// Use ID to select a single task by its ID.
	ID string

	// Use ParentID to select all the tasks that are children of a task.
	ParentID string

	// Use Kind to select all the tasks that are of a kind.
	Kind string

	// Use What to select all the tasks of one hook.
	What string

	// EnableTimeRange enables time range selection.
	EnableTimeRange bool

	// Use StartTime and EndTime to select tasks that overlap with the
	// given time range.
	StartTime, EndTime float64
}

// A TraceReader reads tasks back from a trace database.
type TraceReader struct {
	reader recording.DataReader
}

// NewTraceReader creates a TraceReader over the SQLite file at filename.
func NewTraceReader(filename string) *TraceReader {
	reader := recording.NewReader(filename)
	reader.MapTable(taskTableName, Task{})

	return &TraceReader{reader: reader}
}

// ListHooks returns the distinct hooks that appear in the trace.
func (r *TraceReader) ListHooks(ctx context.Context) ([]string, error) {
	tasks, err := r.ListTasks(ctx, TaskQuery{Kind: TaskKindChain})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var hooks []string
	for _, t := range tasks {
		if seen[t.What] {
			continue
		}
		seen[t.What] = true
		hooks = append(hooks, t.What)
	}

	return hooks, nil
}

// ListTasks returns the tasks that match the query, ordered by start time.
func (r *TraceReader) ListTasks(
	ctx context.Context,
	query TaskQuery,
) ([]Task, error) {
	params := buildQueryParams(query)

	rows, _, err := r.reader.Query(ctx, taskTableName, params)
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, *row.(*Task))
	}

	return tasks, nil
}

// Close closes the underlying database.
func (r *TraceReader) Close() error {
	return r.reader.Close()
}

func buildQueryParams(query TaskQuery) recording.QueryParams {
	params := recording.QueryParams{OrderBy: "StartTime"}

	addClause := func(clause string, arg any) {
		if params.Where != "" {
			params.Where += " AND "
		}
		params.Where += clause
		params.Args = append(params.Args, arg)
	}

	if query.ID != "" {
		addClause("ID = ?", query.ID)
	}

	if query.ParentID != "" {
		addClause("ParentID = ?", query.ParentID)
	}

	if query.Kind != "" {
		addClause("Kind = ?", query.Kind)
	}

	if query.What != "" {
		addClause("What = ?", query.What)
	}

	if query.EnableTimeRange {
		addClause("EndTime >= ?", query.StartTime)
		addClause("StartTime <= ?", query.EndTime)
	}

	return params
}
