package hooks

// ObsPos identifies a point in chain execution that observers are notified
// about.
type ObsPos struct {
	Name string
}

// ObsPosChainStart triggers when a hook call starts running its chain.
var ObsPosChainStart = &ObsPos{Name: "ChainStart"}

// ObsPosStepStart triggers before a middleware step runs.
var ObsPosStepStart = &ObsPos{Name: "StepStart"}

// ObsPosStepEnd triggers once a middleware step has advanced the chain or
// failed it.
var ObsPosStepEnd = &ObsPos{Name: "StepEnd"}

// ObsPosChainEnd triggers when a hook call reaches terminal completion.
var ObsPosChainEnd = &ObsPos{Name: "ChainEnd"}

// ChainInfo describes one hook call.
type ChainInfo struct {
	ID     string
	Hook   string
	Flavor string
}

// StepInfo describes one middleware step within a hook call.
type StepInfo struct {
	ChainID    string
	Hook       QualifiedName
	Index      int
	Middleware string
	Convention Convention
}

// ObsCtx holds all the information about the site where an observation is
// triggered. Item is a ChainInfo for chain positions and a StepInfo for
// step positions. Err is only set at the end positions: at ObsPosChainEnd
// for chains that completed with an error, and at ObsPosStepEnd for the
// step that failed its chain.
type ObsCtx struct {
	Engine *Engine
	Pos    *ObsPos
	Item   any
	Err    error
}

// An Observer watches chain execution without taking part in it. Tracing
// and monitoring attach through this interface.
type Observer interface {
	Observe(ctx ObsCtx)
}

// observableBase maintains the observer list of an engine.
type observableBase struct {
	observers []Observer
}

// AcceptObserver registers an observer.
func (b *observableBase) AcceptObserver(o Observer) {
	b.mustNotHaveDuplicatedObserver(o)
	b.observers = append(b.observers, o)
}

func (b *observableBase) mustNotHaveDuplicatedObserver(o Observer) {
	for _, registered := range b.observers {
		if registered == o {
			panic("duplicated observer")
		}
	}
}

// NumObservers returns the number of registered observers.
func (b *observableBase) NumObservers() int {
	return len(b.observers)
}

// Observers returns all the registered observers.
func (b *observableBase) Observers() []Observer {
	return b.observers
}

func (b *observableBase) invokeObservers(ctx ObsCtx) {
	for _, o := range b.observers {
		o.Observe(ctx)
	}
}
