package tracing

import "sync"

// TracerBackend is a backend that can store finished tasks.
type TracerBackend interface {
	// Write writes a task to the storage.
	Write(t Task)

	// Flush flushes the tasks to the storage, in case the backend buffers
	// them.
	Flush()
}

// DBTracer stores tasks through a TracerBackend once they complete. Tasks
// still in flight when the process ends are not written.
type DBTracer struct {
	timeTeller TimeTeller
	backend    TracerBackend
	filter     TaskFilter

	mu            sync.Mutex
	inflightTasks map[string]Task
}

// NewDBTracer creates a DBTracer writing through the backend. A nil filter
// collects every task.
func NewDBTracer(
	timeTeller TimeTeller,
	backend TracerBackend,
	filter TaskFilter,
) *DBTracer {
	return &DBTracer{
		timeTeller:    timeTeller,
		backend:       backend,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.taskMustHaveID(task)

	if t.filter != nil && !t.filter(task) {
		return
	}

	if task.StartTime == 0 {
		task.StartTime = t.timeTeller.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.inflightTasks[task.ID] = task
}

// EndTask marks the completion of a task and writes it to the backend.
// Ending a task that was never started is a no-op.
func (t *DBTracer) EndTask(task Task) {
	t.taskMustHaveID(task)

	t.mu.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.inflightTasks, task.ID)
	t.mu.Unlock()

	originalTask.EndTime = task.EndTime
	if originalTask.EndTime == 0 {
		originalTask.EndTime = t.timeTeller.Now()
	}
	originalTask.Error = task.Error

	t.backend.Write(originalTask)
}

// Flush flushes the backend.
func (t *DBTracer) Flush() {
	t.backend.Flush()
}

func (t *DBTracer) taskMustHaveID(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}
}
