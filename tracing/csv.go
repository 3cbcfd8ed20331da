package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// CSVTracerBackend is a task tracer backend that stores the tasks into a
// CSV file. The columns are the fields of Task, in declaration order.
type CSVTracerBackend struct {
	path   string
	file   *os.File
	writer *csv.Writer

	tasks      []Task
	bufferSize int
}

// NewCSVTracerBackend creates a new CSVTracerBackend.
func NewCSVTracerBackend(path string) *CSVTracerBackend {
	return &CSVTracerBackend{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the tracing csv file and writes the header row. If the file
// already exists, it will be overwritten.
func (t *CSVTracerBackend) Init() {
	file, err := os.Create(t.path)
	if err != nil {
		panic(err)
	}
	t.file = file
	t.writer = csv.NewWriter(file)

	t.mustWriteRecord(structs.Names(Task{}))

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Write buffers a task for the CSV file.
func (t *CSVTracerBackend) Write(task Task) {
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered tasks to the CSV file.
func (t *CSVTracerBackend) Flush() {
	for _, task := range t.tasks {
		t.mustWriteRecord(taskRecord(task))
	}

	t.tasks = nil

	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		panic(err)
	}
}

func (t *CSVTracerBackend) mustWriteRecord(record []string) {
	if err := t.writer.Write(record); err != nil {
		panic(err)
	}
}

// taskRecord formats a task's field values as one CSV record, in the same
// field order as the header.
func taskRecord(task Task) []string {
	values := structs.Values(task)
	record := make([]string, 0, len(values))

	for _, v := range values {
		switch v := v.(type) {
		case string:
			record = append(record, v)
		case float64:
			record = append(record, strconv.FormatFloat(v, 'f', 10, 64))
		default:
			record = append(record, fmt.Sprint(v))
		}
	}

	return record
}
