package tracing

import "sync"

// TotalTimeTracer collects the total time spent on a certain type of task.
// If the execution of two tasks overlaps, the two task times are simply
// added together.
type TotalTimeTracer struct {
	timeTeller    TimeTeller
	filter        TaskFilter
	lock          sync.Mutex
	totalTime     float64
	inflightTasks map[string]Task
}

// NewTotalTimeTracer creates a new TotalTimeTracer. A nil filter collects
// every task.
func NewTotalTimeTracer(
	timeTeller TimeTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	t := &TotalTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
	return t
}

// TotalTime returns the time, in seconds, spent on the collected tasks so
// far.
func (t *TotalTimeTracer) TotalTime() float64 {
	t.lock.Lock()
	time := t.totalTime
	t.lock.Unlock()
	return time
}

// StartTask records the task start time.
func (t *TotalTimeTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.Now()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// EndTask records the end of the task.
func (t *TotalTimeTracer) EndTask(task Task) {
	task.EndTime = t.timeTeller.Now()

	t.lock.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	t.totalTime += task.EndTime - originalTask.StartTime
	delete(t.inflightTasks, task.ID)
	t.lock.Unlock()
}
