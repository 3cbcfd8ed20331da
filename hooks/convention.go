package hooks

import (
	"fmt"
	"reflect"
)

// Convention is the calling convention of a middleware.
type Convention int

const (
	// ConventionSync middleware are invoked with the domain arguments only.
	// A returned error fails the step, a returned Thenable is awaited, and
	// any other return value lets the chain advance immediately.
	ConventionSync Convention = iota

	// ConventionSeries middleware receive one continuation in addition to
	// the domain arguments. The chain advances only when the continuation
	// is invoked.
	ConventionSeries

	// ConventionParallel middleware receive two continuations. The first
	// advances the chain as in the series convention. The second is an
	// independent completion signal; the chain is not finished until all
	// such signals have fired.
	ConventionParallel
)

func (c Convention) String() string {
	switch c {
	case ConventionSync:
		return "sync"
	case ConventionSeries:
		return "series"
	case ConventionParallel:
		return "parallel"
	}

	return fmt.Sprintf("convention(%d)", int(c))
}

// ClassifyByArity applies the legacy classification rule to an arbitrary
// function: with d being the function's declared parameter count minus the
// number of domain arguments being passed, d <= 0 selects the sync
// convention, d == 1 the series convention, and d >= 2 the parallel
// convention. Offsets beyond 2 clamp to parallel.
//
// Explicit tagging through Sync, Series, and Parallel is the primary way to
// declare a convention. This rule only serves middleware registered through
// Legacy.
func ClassifyByArity(fn any, numArgs int) (Convention, error) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return ConventionSync,
			fmt.Errorf("middleware must be a function, got %T", fn)
	}

	d := t.NumIn() - numArgs
	switch {
	case d <= 0:
		return ConventionSync, nil
	case d == 1:
		return ConventionSeries, nil
	default:
		return ConventionParallel, nil
	}
}
