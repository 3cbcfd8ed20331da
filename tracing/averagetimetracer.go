package tracing

import "sync"

// AverageTimeTracer collects the average time spent on a certain type of
// task.
type AverageTimeTracer struct {
	timeTeller    TimeTeller
	filter        TaskFilter
	lock          sync.Mutex
	averageTime   float64
	inflightTasks map[string]Task
	taskCount     uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer. A nil filter
// collects every task.
func NewAverageTimeTracer(
	timeTeller TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	t := &AverageTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
	return t
}

// AverageTime returns the average time, in seconds, spent on the collected
// tasks so far.
func (t *AverageTimeTracer) AverageTime() float64 {
	t.lock.Lock()
	time := t.averageTime
	t.lock.Unlock()
	return time
}

// TotalCount returns the number of collected tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records the task start time.
func (t *AverageTimeTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.Now()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// EndTask records the end of the task.
func (t *AverageTimeTracer) EndTask(task Task) {
	task.EndTime = t.timeTeller.Now()

	t.lock.Lock()
	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	taskTime := task.EndTime - originalTask.StartTime
	t.averageTime = (t.averageTime*float64(t.taskCount) + taskTime) /
		float64(t.taskCount+1)
	t.taskCount++
	delete(t.inflightTasks, task.ID)
	t.lock.Unlock()
}
