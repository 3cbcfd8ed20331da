package tracing

import "github.com/grapnel-io/grapnel/recording"

// taskTableName is the table that holds the finished tasks.
const taskTableName = "trace"

// RecorderBackend is a tracer backend that stores tasks through a
// recording.DataRecorder.
type RecorderBackend struct {
	recorder recording.DataRecorder
}

// NewRecorderBackend creates a RecorderBackend over the given recorder. The
// task table is created immediately.
func NewRecorderBackend(recorder recording.DataRecorder) *RecorderBackend {
	b := &RecorderBackend{
		recorder: recorder,
	}

	b.recorder.CreateTable(taskTableName, Task{})

	return b
}

// Write buffers a task in the recorder.
func (b *RecorderBackend) Write(task Task) {
	b.recorder.InsertData(taskTableName, task)
}

// Flush writes the buffered tasks to storage.
func (b *RecorderBackend) Flush() {
	b.recorder.Flush()
}
