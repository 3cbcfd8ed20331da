package tracing

import "time"

// A Tracer can collect task traces.
type Tracer interface {
	// StartTask marks the beginning of a task.
	StartTask(task Task)

	// EndTask marks the completion of a task started earlier.
	EndTask(task Task)
}

// A TimeTeller tells the current time, in seconds.
type TimeTeller interface {
	Now() float64
}

// NewWallClock returns a TimeTeller reporting seconds elapsed since its
// creation.
func NewWallClock() TimeTeller {
	return &wallClock{start: time.Now()}
}

type wallClock struct {
	start time.Time
}

func (c *wallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
