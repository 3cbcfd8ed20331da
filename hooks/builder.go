package hooks

import (
	"github.com/grapnel-io/grapnel/hooks/id"
)

// EngineBuilder can help building hook engines.
type EngineBuilder struct {
	qualifiers     Qualifiers
	strict         bool
	promiseFactory PromiseFactory
	idGen          id.IDGenerator
	observers      []Observer
}

// MakeEngineBuilder creates an EngineBuilder with the default
// configuration: "pre"/"post" qualifiers, lenient mode, no promise factory.
func MakeEngineBuilder() EngineBuilder {
	return EngineBuilder{
		qualifiers: DefaultQualifiers(),
	}
}

// WithQualifiers sets the qualifier pair of the engine.
func (b EngineBuilder) WithQualifiers(q Qualifiers) EngineBuilder {
	b.qualifiers = q
	return b
}

// WithStrictMode makes the engine reject middleware registration against
// hooks that were not declared beforehand.
func (b EngineBuilder) WithStrictMode() EngineBuilder {
	b.strict = true
	return b
}

// WithLenientMode makes registration declare hooks implicitly. This is the
// default.
func (b EngineBuilder) WithLenientMode() EngineBuilder {
	b.strict = false
	return b
}

// WithPromiseFactory equips the engine for the promise call flavor.
func (b EngineBuilder) WithPromiseFactory(f PromiseFactory) EngineBuilder {
	b.promiseFactory = f
	return b
}

// WithIDGenerator sets the generator used to tag chain invocations.
func (b EngineBuilder) WithIDGenerator(g id.IDGenerator) EngineBuilder {
	b.idGen = g
	return b
}

// WithObserver attaches an observer to the engine at build time.
func (b EngineBuilder) WithObserver(o Observer) EngineBuilder {
	b.observers = append(b.observers[:len(b.observers):len(b.observers)], o)
	return b
}

// WithPreset copies a named preset from the registry into the builder.
// Options applied after WithPreset override the preset's values. An unknown
// preset name panics: presets are configuration and misconfiguration must
// surface at build time, not inside a chain.
func (b EngineBuilder) WithPreset(
	presets *PresetRegistry,
	name string,
) EngineBuilder {
	p, ok := presets.Get(name)
	if !ok {
		panic("hook engine preset " + name + " is not defined")
	}

	if p.Qualifiers != (Qualifiers{}) {
		b.qualifiers = p.Qualifiers
	}
	b.strict = p.StrictMode
	if p.PromiseFactory != nil {
		b.promiseFactory = p.PromiseFactory
	}

	return b
}

// Build creates the engine together with its registry.
func (b EngineBuilder) Build() *Engine {
	b.qualifiersMustBeUsable()

	if b.idGen == nil {
		b.idGen = id.NewSequentialIDGenerator()
	}

	registry := NewRegistry(b.qualifiers, b.strict)
	e := &Engine{
		qualifiers:     b.qualifiers,
		registry:       registry,
		source:         registry,
		promiseFactory: b.promiseFactory,
		idGen:          b.idGen,
	}

	for _, o := range b.observers {
		e.AcceptObserver(o)
	}

	return e
}

// BuildWithSource creates an engine that reads middleware from an external
// source instead of an owned registry. The engine's Registry method returns
// nil in this case.
func (b EngineBuilder) BuildWithSource(source MiddlewareSource) *Engine {
	b.qualifiersMustBeUsable()

	if source == nil {
		panic("middleware source must not be nil")
	}

	if b.idGen == nil {
		b.idGen = id.NewSequentialIDGenerator()
	}

	e := &Engine{
		qualifiers:     b.qualifiers,
		source:         source,
		promiseFactory: b.promiseFactory,
		idGen:          b.idGen,
	}

	for _, o := range b.observers {
		e.AcceptObserver(o)
	}

	return e
}

func (b EngineBuilder) qualifiersMustBeUsable() {
	if b.qualifiers.Pre == "" || b.qualifiers.Post == "" {
		panic("hook qualifiers must not be empty")
	}

	if b.qualifiers.Pre == b.qualifiers.Post {
		panic("hook qualifiers must differ")
	}
}
