package hooks

import (
	"fmt"
	"reflect"
)

// Middleware is one callable registered against a qualified hook name. Its
// calling convention is declared at construction time through Sync, Series,
// or Parallel. Legacy wraps an arbitrary function and infers the convention
// from its parameter count at call time instead.
type Middleware struct {
	name   string
	conv   Convention
	legacy bool

	syncFn     func(args ...any) any
	seriesFn   func(args []any, next func(error))
	parallelFn func(args []any, next func(error), done func(error))
	legacyFn   reflect.Value
}

// Sync declares a middleware that follows the sync convention.
func Sync(fn func(args ...any) any) *Middleware {
	mustNotBeNilFn(fn == nil)
	return &Middleware{conv: ConventionSync, syncFn: fn}
}

// Series declares a middleware that follows the series convention. The chain
// advances when next is invoked; a non-nil error fails the chain.
func Series(fn func(args []any, next func(error))) *Middleware {
	mustNotBeNilFn(fn == nil)
	return &Middleware{conv: ConventionSeries, seriesFn: fn}
}

// Parallel declares a middleware that follows the parallel convention. next
// advances the chain; done signals the middleware's independent completion.
func Parallel(
	fn func(args []any, next func(error), done func(error)),
) *Middleware {
	mustNotBeNilFn(fn == nil)
	return &Middleware{conv: ConventionParallel, parallelFn: fn}
}

// Legacy wraps an arbitrary function whose convention is classified per call
// with the arity rule of ClassifyByArity. Domain parameters beyond the
// arguments actually passed receive their zero value. The function's
// continuation parameters must be typed func(error).
func Legacy(fn any) (*Middleware, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("legacy middleware must be a function, got %T", fn)
	}

	return &Middleware{legacy: true, legacyFn: v}, nil
}

func mustNotBeNilFn(isNil bool) {
	if isNil {
		panic("middleware function must not be nil")
	}
}

// Named attaches a diagnostic name to the middleware and returns it. The
// name only surfaces in tracing and monitoring output.
func (m *Middleware) Named(name string) *Middleware {
	m.name = name
	return m
}

// Name returns the diagnostic name of the middleware.
func (m *Middleware) Name() string {
	if m.name == "" {
		return "<anonymous>"
	}

	return m.name
}

// IsLegacy reports whether the middleware's convention is inferred per call
// instead of declared at construction.
func (m *Middleware) IsLegacy() bool {
	return m.legacy
}

// ConventionFor reports the calling convention the middleware follows when
// numArgs domain arguments are passed to it.
func (m *Middleware) ConventionFor(numArgs int) Convention {
	if !m.legacy {
		return m.conv
	}

	conv, err := ClassifyByArity(m.legacyFn.Interface(), numArgs)
	if err != nil {
		panic(err)
	}

	return conv
}

func (m *Middleware) invokeSync(args []any) any {
	if !m.legacy {
		return m.syncFn(args...)
	}

	return m.legacyCall(args)
}

func (m *Middleware) invokeSeries(args []any, next func(error)) {
	if !m.legacy {
		m.seriesFn(args, next)
		return
	}

	m.legacyCall(args, next)
}

func (m *Middleware) invokeParallel(
	args []any,
	next func(error),
	done func(error),
) {
	if !m.legacy {
		m.parallelFn(args, next, done)
		return
	}

	m.legacyCall(args, next, done)
}

// legacyCall invokes the wrapped function through reflection. Domain
// arguments fill the leading parameters, continuations the trailing ones,
// and any parameter left over receives its zero value.
func (m *Middleware) legacyCall(args []any, conts ...func(error)) any {
	t := m.legacyFn.Type()
	in := make([]reflect.Value, t.NumIn())
	domainSlots := t.NumIn() - len(conts)

	for i := 0; i < domainSlots; i++ {
		if i < len(args) && args[i] != nil {
			in[i] = reflect.ValueOf(args[i])
			continue
		}

		in[i] = reflect.Zero(t.In(i))
	}

	for i, cont := range conts {
		in[domainSlots+i] = reflect.ValueOf(cont)
	}

	out := m.legacyFn.Call(in)
	if len(out) == 0 {
		return nil
	}

	return out[0].Interface()
}
