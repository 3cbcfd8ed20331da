package hooks

import (
	"errors"
	"sync"
)

// stepNotifier lets the engine observe step boundaries inside a chain run.
// err is only set at the step-end position, for steps that failed.
type stepNotifier func(
	pos *ObsPos, index int, m *Middleware, conv Convention, err error)

// chainState tracks one run of a middleware sequence: the series position,
// the outstanding parallel completions, the terminal-completion latch, and
// the external completion handler. It is created fresh per run and
// discarded on completion.
type chainState struct {
	entries []*Middleware
	args    []any
	notify  stepNotifier
	finish  func(err error)

	mu          sync.Mutex
	outstanding int
	seriesDone  bool
	completed   bool
}

// runChain executes the middleware list against args, left to right, using
// each entry's calling convention. finish fires exactly once: with the
// first error any entry signals, or with nil once the series has advanced
// to the end and every parallel completion has arrived. An empty list
// completes immediately.
//
// Series advancement is strictly sequential. Parallel completions may stay
// outstanding while later entries run. An error is delivered immediately
// even if parallel completions are still outstanding; their late signals
// are then ignored by the completion latch.
func runChain(
	entries []*Middleware,
	args []any,
	notify stepNotifier,
	finish func(err error),
) {
	s := &chainState{
		entries: entries,
		args:    args,
		notify:  notify,
		finish:  finish,
	}

	s.step(0)
}

func (s *chainState) step(i int) {
	s.mu.Lock()
	done := s.completed
	s.mu.Unlock()

	if done {
		return
	}

	if i >= len(s.entries) {
		s.seriesFinished()
		return
	}

	m := s.entries[i]
	conv := m.ConventionFor(len(s.args))
	s.notifyStep(ObsPosStepStart, i, m, conv, nil)

	end := s.stepEnder(i, m, conv)

	switch conv {
	case ConventionSync:
		s.runSyncStep(i, m, end)
	case ConventionSeries:
		m.invokeSeries(s.args, s.continuation(i, end))
	case ConventionParallel:
		m.invokeParallel(s.args,
			s.continuation(i, end), s.parallelSignal(end))
	}
}

// stepEnder returns the once-only step-end notification for entry i. Every
// step that started must end, through advancement or through the error
// that failed it, so observers never see a dangling step.
func (s *chainState) stepEnder(
	i int,
	m *Middleware,
	conv Convention,
) func(error) {
	notified := false

	return func(err error) {
		s.mu.Lock()
		if notified {
			s.mu.Unlock()
			return
		}
		notified = true
		s.mu.Unlock()

		s.notifyStep(ObsPosStepEnd, i, m, conv, err)
	}
}

// runSyncStep invokes a sync-convention middleware and inspects its return
// value: a non-nil error fails the step, a Thenable is awaited, anything
// else advances the chain immediately.
func (s *chainState) runSyncStep(i int, m *Middleware, end func(error)) {
	ret := m.invokeSync(s.args)

	if err, ok := ret.(error); ok && err != nil {
		end(err)
		s.fail(err)
		return
	}

	if thenable, ok := AsThenable(ret); ok && thenable != nil {
		next := s.continuation(i, end)
		thenable.Then(
			func(any) { next(nil) },
			func(err error) {
				if err == nil {
					err = errors.New("middleware promise rejected")
				}
				next(err)
			},
		)
		return
	}

	s.advance(i, end)
}

// continuation returns the once-only advance signal for entry i. A second
// invocation is ignored rather than re-entering the chain.
func (s *chainState) continuation(i int, end func(error)) func(error) {
	called := false

	return func(err error) {
		s.mu.Lock()
		if called {
			s.mu.Unlock()
			return
		}
		called = true
		s.mu.Unlock()

		if err != nil {
			end(err)
			s.fail(err)
			return
		}

		s.advance(i, end)
	}
}

func (s *chainState) advance(i int, end func(error)) {
	end(nil)
	s.step(i + 1)
}

// parallelSignal registers an outstanding parallel completion and returns
// the once-only signal that retires it. The last signal to arrive after the
// series has finished triggers terminal success. An error signalled before
// the step has advanced also ends the step, so a parallel middleware that
// fails without ever calling next leaves no dangling step behind.
func (s *chainState) parallelSignal(end func(error)) func(error) {
	s.mu.Lock()
	s.outstanding++
	s.mu.Unlock()

	called := false

	return func(err error) {
		s.mu.Lock()
		if called {
			s.mu.Unlock()
			return
		}
		called = true
		s.outstanding--

		if err != nil {
			s.mu.Unlock()
			end(err)
			s.fail(err)
			return
		}

		finished := s.seriesDone && s.outstanding == 0 && !s.completed
		if finished {
			s.completed = true
		}
		s.mu.Unlock()

		if finished {
			s.finish(nil)
		}
	}
}

func (s *chainState) seriesFinished() {
	s.mu.Lock()
	s.seriesDone = true

	finished := s.outstanding == 0 && !s.completed
	if finished {
		s.completed = true
	}
	s.mu.Unlock()

	if finished {
		s.finish(nil)
	}
}

func (s *chainState) fail(err error) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	s.mu.Unlock()

	s.finish(err)
}

func (s *chainState) notifyStep(
	pos *ObsPos,
	i int,
	m *Middleware,
	conv Convention,
	err error,
) {
	if s.notify == nil {
		return
	}

	s.notify(pos, i, m, conv, err)
}

// runChainSync executes the middleware list without any waiting, for the
// synchronous call flavor. Sync-convention entries run normally, but a
// returned Thenable is not awaited. Series and parallel entries are invoked
// with inert continuations; only an error they signal before returning is
// honored.
func runChainSync(entries []*Middleware, args []any) error {
	for _, m := range entries {
		conv := m.ConventionFor(len(args))

		switch conv {
		case ConventionSync:
			ret := m.invokeSync(args)
			if err, ok := ret.(error); ok && err != nil {
				return err
			}
		case ConventionSeries, ConventionParallel:
			if err := invokeInert(m, conv, args); err != nil {
				return err
			}
		}
	}

	return nil
}

func invokeInert(m *Middleware, conv Convention, args []any) error {
	var mu sync.Mutex
	var stepErr error

	record := func(err error) {
		mu.Lock()
		if err != nil && stepErr == nil {
			stepErr = err
		}
		mu.Unlock()
	}

	if conv == ConventionSeries {
		m.invokeSeries(args, record)
	} else {
		m.invokeParallel(args, record, record)
	}

	mu.Lock()
	defer mu.Unlock()

	return stepErr
}
