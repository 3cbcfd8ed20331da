package hooks

import "errors"

// Thenable is any value that can notify continuations of its settlement.
// The detection is structural: every value implementing Then is treated as
// awaitable, regardless of which promise implementation produced it. A sync
// middleware that returns a Thenable makes the chain wait for it; rejection
// fails the step.
//
// Then must invoke exactly one of the two continuations exactly once.
type Thenable interface {
	Then(onResolve func(v any), onReject func(err error))
}

// PromiseFactory builds a Thenable from an executor function. The factory
// must invoke the executor synchronously so the resolve and reject
// continuations can be captured. No factory is configured by default;
// requesting the promise flavor without one fails with
// ErrNoPromiseFactory.
type PromiseFactory func(
	executor func(resolve func(v any), reject func(err error)),
) Thenable

// ErrNoPromiseFactory reports that a promise-flavor call was made on an
// engine that was not configured with a PromiseFactory.
var ErrNoPromiseFactory = errors.New(
	"hooks: no promise factory configured")

// A Deferred is a pending completion created from a PromiseFactory. It holds
// the promise handed to the caller together with the resolve and reject
// continuations the chain settles it with.
type Deferred struct {
	promise Thenable
	resolve func(v any)
	reject  func(err error)
}

// NewDeferred creates a Deferred through the given factory.
func NewDeferred(factory PromiseFactory) (*Deferred, error) {
	if factory == nil {
		return nil, ErrNoPromiseFactory
	}

	d := &Deferred{}
	d.promise = factory(func(resolve func(any), reject func(error)) {
		d.resolve = resolve
		d.reject = reject
	})

	if d.resolve == nil || d.reject == nil {
		return nil, errors.New(
			"hooks: promise factory did not run the executor synchronously")
	}

	return d, nil
}

// Promise returns the promise observed by the caller.
func (d *Deferred) Promise() Thenable {
	return d.promise
}

// Resolve settles the deferred with a success value.
func (d *Deferred) Resolve(v any) {
	d.resolve(v)
}

// Reject settles the deferred with an error.
func (d *Deferred) Reject(err error) {
	d.reject(err)
}

// AsThenable reports whether v is promise-like.
func AsThenable(v any) (Thenable, bool) {
	t, ok := v.(Thenable)
	return t, ok
}
