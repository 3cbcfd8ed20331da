package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		backend    *MockTracerBackend
		tracer     *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		backend = NewMockTracerBackend(mockCtrl)

		tracer = NewDBTracer(timeTeller, backend, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write a completed task", func() {
		timeTeller.EXPECT().Now().Return(1.0)
		tracer.StartTask(Task{ID: "1", Kind: TaskKindChain, What: "save"})

		timeTeller.EXPECT().Now().Return(2.0)
		backend.EXPECT().Write(Task{
			ID:        "1",
			Kind:      TaskKindChain,
			What:      "save",
			StartTime: 1.0,
			EndTime:   2.0,
		})
		tracer.EndTask(Task{ID: "1"})
	})

	It("should keep the times set by the caller", func() {
		tracer.StartTask(Task{ID: "1", StartTime: 10.0})

		backend.EXPECT().Write(Task{
			ID:        "1",
			StartTime: 10.0,
			EndTime:   12.0,
		})
		tracer.EndTask(Task{ID: "1", EndTime: 12.0})
	})

	It("should carry the task error", func() {
		timeTeller.EXPECT().Now().Return(1.0).Times(2)

		tracer.StartTask(Task{ID: "1"})
		backend.EXPECT().Write(Task{
			ID:        "1",
			StartTime: 1.0,
			EndTime:   1.0,
			Error:     "saving failed",
		})
		tracer.EndTask(Task{ID: "1", Error: "saving failed"})
	})

	It("should ignore ending a task that never started", func() {
		tracer.EndTask(Task{ID: "unknown", EndTime: 1.0})
	})

	It("should apply the filter", func() {
		tracer = NewDBTracer(timeTeller, backend,
			TaskKindFilter(TaskKindChain))

		tracer.StartTask(Task{ID: "1", Kind: TaskKindStep})
		tracer.EndTask(Task{ID: "1"})
	})

	It("should panic on tasks without an ID", func() {
		Expect(func() { tracer.StartTask(Task{}) }).To(Panic())
	})

	It("should flush the backend", func() {
		backend.EXPECT().Flush()
		tracer.Flush()
	})
})
