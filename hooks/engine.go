package hooks

import (
	"github.com/grapnel-io/grapnel/hooks/id"
)

// Operation is the wrapped operation of a hook call in callback form. It
// must invoke complete exactly once, either with an error or with the
// operation's result values.
type Operation func(args []any, complete func(err error, results ...any))

// AsyncOperation is the wrapped operation of a promise-flavor hook call.
// Its return value is inspected structurally: a Thenable is awaited and its
// settlement value carried to the caller; any other value resolves the call
// immediately.
type AsyncOperation func(args []any) any

// SyncOperation is the wrapped operation of a synchronous hook call.
type SyncOperation func(args []any) any

// Callback receives the terminal completion of a callback-flavor hook call.
type Callback func(err error, results []any)

// An Engine runs the pre middleware, the wrapped operation, and the post
// middleware of a hook as one chain, in the callback, promise, or
// synchronous flavor. Engines are built with EngineBuilder; each engine
// owns its registry.
type Engine struct {
	observableBase

	qualifiers     Qualifiers
	registry       *Registry
	source         MiddlewareSource
	promiseFactory PromiseFactory
	idGen          id.IDGenerator
}

// Registry returns the registry the engine reads middleware from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Qualifiers returns the qualifier pair of the engine.
func (e *Engine) Qualifiers() Qualifiers {
	return e.qualifiers
}

// CallPhase runs the middleware of a single qualified hook name against
// args, with the name's argument policy applied, and delivers the terminal
// completion to complete. A name with no middleware completes immediately.
func (e *Engine) CallPhase(
	name QualifiedName,
	args []any,
	complete func(err error),
) {
	entries := e.source.ListMiddleware(name)
	phaseArgs := e.source.ArgumentPolicy(name).Apply(args)

	runChain(entries, phaseArgs, e.stepNotifier("", name), complete)
}

// CallHook runs the hook in the callback flavor: pre middleware, then the
// operation, then post middleware, with the terminal completion delivered
// to complete. Delivery never happens inside the CallHook call itself, even
// when every step finishes synchronously.
//
// A nil complete installs the default handler, which panics on error since
// a fire-and-forget call offers no other channel. A nil op completes
// immediately with no results.
func (e *Engine) CallHook(
	name string,
	op Operation,
	args []any,
	complete Callback,
) {
	e.callHook("callback", name, op, args, complete)
}

func (e *Engine) callHook(
	flavor string,
	name string,
	op Operation,
	args []any,
	complete Callback,
) {
	if complete == nil {
		complete = defaultCallback
	}

	chainID := e.beginChain(flavor, name)
	preName := e.qualifiers.PreName(name)
	postName := e.qualifiers.PostName(name)

	dezalgofy(func(finish func(err error, results []any)) {
		e.runPhase(chainID, preName, args, func(err error) {
			if err != nil {
				finish(err, nil)
				return
			}

			e.runOperation(op, args, func(err error, results []any) {
				if err != nil {
					finish(err, nil)
					return
				}

				e.runPhase(chainID, postName, args, func(err error) {
					finish(err, results)
				})
			})
		})
	}, func(err error, results []any) {
		e.endChain(chainID, name, flavor, err)
		complete(err, results)
	})
}

// CallHookAsync runs the hook in the promise flavor. The returned Thenable
// settles with the operation's value once the post phase has completed, or
// with the first error of the chain. Calling it on an engine without a
// promise factory fails immediately with ErrNoPromiseFactory.
func (e *Engine) CallHookAsync(
	name string,
	op AsyncOperation,
	args ...any,
) (Thenable, error) {
	deferred, err := NewDeferred(e.promiseFactory)
	if err != nil {
		return nil, err
	}

	chainID := e.beginChain("promise", name)
	preName := e.qualifiers.PreName(name)
	postName := e.qualifiers.PostName(name)

	settle := func(err error, value any) {
		e.endChain(chainID, name, "promise", err)

		if err != nil {
			deferred.Reject(err)
			return
		}

		deferred.Resolve(value)
	}

	var value any

	runPost := func() {
		e.runPhase(chainID, postName, args, func(err error) {
			if err != nil {
				settle(err, nil)
				return
			}

			settle(nil, value)
		})
	}

	e.runPhase(chainID, preName, args, func(err error) {
		if err != nil {
			settle(err, nil)
			return
		}

		if op != nil {
			value = op(args)
		}

		thenable, ok := AsThenable(value)
		if !ok || thenable == nil {
			runPost()
			return
		}

		settled := once()
		thenable.Then(
			func(v any) {
				if settled() {
					return
				}
				value = v
				runPost()
			},
			func(err error) {
				if settled() {
					return
				}
				settle(err, nil)
			},
		)
	})

	return deferred.Promise(), nil
}

// CallHookSync runs the hook synchronously: pre middleware, the operation,
// then post middleware, all through plain iteration with no waiting for
// asynchronous completions. The operation's return value is returned to the
// caller after the post phase has run; post middleware merely execute and
// cannot alter it.
func (e *Engine) CallHookSync(
	name string,
	op SyncOperation,
	args ...any,
) (any, error) {
	chainID := e.beginChain("sync", name)
	preName := e.qualifiers.PreName(name)
	postName := e.qualifiers.PostName(name)

	preArgs := e.source.ArgumentPolicy(preName).Apply(args)
	if err := runChainSync(e.source.ListMiddleware(preName), preArgs); err != nil {
		e.endChain(chainID, name, "sync", err)
		return nil, err
	}

	var result any
	if op != nil {
		result = op(args)
	}

	postArgs := e.source.ArgumentPolicy(postName).Apply(args)
	if err := runChainSync(e.source.ListMiddleware(postName), postArgs); err != nil {
		e.endChain(chainID, name, "sync", err)
		return result, err
	}

	e.endChain(chainID, name, "sync", nil)

	return result, nil
}

// Call dispatches on the trailing argument: when the last argument is a
// Callback the call behaves exactly as CallHook with that callback, and the
// returned Thenable is nil. Otherwise the call behaves as the promise
// flavor, built over the same callback-form operation.
func (e *Engine) Call(
	name string,
	op Operation,
	args ...any,
) (Thenable, error) {
	if n := len(args); n > 0 {
		if cb, ok := trailingCallback(args[n-1]); ok {
			e.CallHook(name, op, args[:n-1], cb)
			return nil, nil
		}
	}

	deferred, err := NewDeferred(e.promiseFactory)
	if err != nil {
		return nil, err
	}

	e.callHook("promise", name, op, args, func(err error, results []any) {
		if err != nil {
			deferred.Reject(err)
			return
		}

		deferred.Resolve(collapseResults(results))
	})

	return deferred.Promise(), nil
}

func trailingCallback(arg any) (Callback, bool) {
	switch cb := arg.(type) {
	case Callback:
		return cb, true
	case func(err error, results []any):
		return cb, true
	}

	return nil, false
}

// collapseResults mirrors how a promise settlement carries the value of a
// callback completion: a single result stands alone, multiple results stay
// a tuple, and no result is nil.
func collapseResults(results []any) any {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	default:
		return results
	}
}

func (e *Engine) runPhase(
	chainID string,
	name QualifiedName,
	args []any,
	complete func(err error),
) {
	entries := e.source.ListMiddleware(name)
	phaseArgs := e.source.ArgumentPolicy(name).Apply(args)

	runChain(entries, phaseArgs, e.stepNotifier(chainID, name), complete)
}

// runOperation formats the wrapped operation as a singleton series-step
// chain, so its completion flows through the same advancement and
// double-invocation rules as any middleware continuation.
func (e *Engine) runOperation(
	op Operation,
	args []any,
	finish func(err error, results []any),
) {
	if op == nil {
		finish(nil, nil)
		return
	}

	var results []any
	step := Series(func(_ []any, next func(error)) {
		op(args, func(err error, res ...any) {
			results = res
			next(err)
		})
	}).Named("operation")

	runChain([]*Middleware{step}, args, nil, func(err error) {
		finish(err, results)
	})
}

func (e *Engine) beginChain(flavor, name string) string {
	chainID := e.idGen.Generate()

	if e.NumObservers() > 0 {
		e.invokeObservers(ObsCtx{
			Engine: e,
			Pos:    ObsPosChainStart,
			Item:   ChainInfo{ID: chainID, Hook: name, Flavor: flavor},
		})
	}

	return chainID
}

func (e *Engine) endChain(chainID, name, flavor string, err error) {
	if e.NumObservers() == 0 {
		return
	}

	e.invokeObservers(ObsCtx{
		Engine: e,
		Pos:    ObsPosChainEnd,
		Item:   ChainInfo{ID: chainID, Hook: name, Flavor: flavor},
		Err:    err,
	})
}

func (e *Engine) stepNotifier(
	chainID string,
	name QualifiedName,
) stepNotifier {
	if e.NumObservers() == 0 {
		return nil
	}

	return func(pos *ObsPos, i int, m *Middleware, conv Convention, err error) {
		e.invokeObservers(ObsCtx{
			Engine: e,
			Pos:    pos,
			Item: StepInfo{
				ChainID:    chainID,
				Hook:       name,
				Index:      i,
				Middleware: m.Name(),
				Convention: conv,
			},
			Err: err,
		})
	}
}

// defaultCallback rethrows the terminal error of a fire-and-forget call.
// There is no callback and no promise to deliver it through.
func defaultCallback(err error, _ []any) {
	if err != nil {
		panic(err)
	}
}

// once returns a guard that reports whether it has been consulted before.
func once() func() bool {
	fired := false

	return func() bool {
		if fired {
			return true
		}
		fired = true

		return false
	}
}
