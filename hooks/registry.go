package hooks

import (
	"fmt"
	"sort"
	"sync"
)

// A MiddlewareSource is what the chain runner and the engine consume: an
// ordered middleware list, an argument policy, and a declaration gate per
// qualified hook name.
type MiddlewareSource interface {
	// ListMiddleware returns the middleware registered against the name, in
	// insertion order. The returned slice is a copy; mutating the registry
	// afterwards does not affect it.
	ListMiddleware(name QualifiedName) []*Middleware

	// ArgumentPolicy returns the argument policy of the name.
	ArgumentPolicy(name QualifiedName) ParamPolicy

	// IsDeclared reports whether the name has been declared.
	IsDeclared(name QualifiedName) bool
}

// A Registry stores the middleware registered on a host, keyed by qualified
// hook name. Under strict mode, middleware can only be registered against
// names that were declared beforehand; under lenient mode, registration
// declares the name implicitly.
//
// The registry is created once per host and lives for the host's lifetime.
type Registry struct {
	qualifiers Qualifiers
	strict     bool

	mu         sync.RWMutex
	middleware map[QualifiedName][]*Middleware
	policies   map[QualifiedName]ParamPolicy
	declared   map[QualifiedName]bool
}

// NewRegistry creates a Registry. strict enables the declaration gate.
func NewRegistry(qualifiers Qualifiers, strict bool) *Registry {
	return &Registry{
		qualifiers: qualifiers,
		strict:     strict,
		middleware: make(map[QualifiedName][]*Middleware),
		policies:   make(map[QualifiedName]ParamPolicy),
		declared:   make(map[QualifiedName]bool),
	}
}

// Strict reports whether the registry enforces hook declaration.
func (r *Registry) Strict() bool {
	return r.strict
}

// Qualifiers returns the qualifier pair the registry validates names with.
func (r *Registry) Qualifiers() Qualifiers {
	return r.qualifiers
}

// Declare declares qualified hook names, making them registrable under
// strict mode. Re-declaring a name is a no-op.
func (r *Registry) Declare(names ...QualifiedName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range names {
		if err := r.validName(n); err != nil {
			return err
		}

		r.declared[n] = true
	}

	return nil
}

// DeclareName declares both qualified forms of an unqualified name.
func (r *Registry) DeclareName(name string) error {
	return r.Declare(r.qualifiers.Expand(name)...)
}

// IsDeclared reports whether the name has been declared, explicitly or
// implicitly.
func (r *Registry) IsDeclared(name QualifiedName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.declared[name]
}

// SetArgumentPolicy sets the argument policy for the name. Under strict
// mode the name must be declared first.
func (r *Registry) SetArgumentPolicy(
	name QualifiedName,
	policy ParamPolicy,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.gate(name); err != nil {
		return err
	}

	r.policies[name] = policy

	return nil
}

// ArgumentPolicy returns the argument policy of the name. Names without an
// explicit policy pass all arguments.
func (r *Registry) ArgumentPolicy(name QualifiedName) ParamPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.policies[name]
}

// Register appends middleware to the name's list, preserving insertion
// order. Under strict mode the name must be declared first.
func (r *Registry) Register(name QualifiedName, ms ...*Middleware) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.gate(name); err != nil {
		return err
	}

	for _, m := range ms {
		if m == nil {
			return fmt.Errorf("cannot register nil middleware on %s", name)
		}
	}

	r.middleware[name] = append(r.middleware[name], ms...)

	return nil
}

// Deregister removes one middleware, identified by pointer identity, from
// the name's list. Removing a middleware that is not registered is a no-op.
func (r *Registry) Deregister(name QualifiedName, m *Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.middleware[name]
	for i, registered := range list {
		if registered == m {
			r.middleware[name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// DeregisterAll removes every middleware registered against the name.
// The name stays declared. Unknown names are a no-op.
func (r *Registry) DeregisterAll(name QualifiedName) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.middleware, name)
}

// Clear removes all middleware from the registry, keeping declarations and
// policies.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middleware = make(map[QualifiedName][]*Middleware)
}

// ListMiddleware returns a copy of the name's middleware list in insertion
// order. Absent names yield an empty list, never an error.
func (r *Registry) ListMiddleware(name QualifiedName) []*Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.middleware[name]
	copied := make([]*Middleware, len(list))
	copy(copied, list)

	return copied
}

// HookNames returns every name that is declared or has middleware
// registered, sorted by textual form.
func (r *Registry) HookNames() []QualifiedName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[QualifiedName]bool)
	for n := range r.declared {
		seen[n] = true
	}
	for n := range r.middleware {
		seen[n] = true
	}

	names := make([]QualifiedName, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}

	sort.Slice(names, func(i, j int) bool {
		return names[i].String() < names[j].String()
	})

	return names
}

func (r *Registry) validName(n QualifiedName) error {
	if !r.qualifiers.Valid(n) {
		return fmt.Errorf("unknown hook qualifier %q in %s", n.Qualifier, n)
	}

	if n.Name == "" {
		return fmt.Errorf("hook name must not be empty")
	}

	return nil
}

// gate validates the name and enforces the strict-mode declaration rule.
// Under lenient mode it implicitly declares the name. Must be called with
// the write lock held.
func (r *Registry) gate(n QualifiedName) error {
	if err := r.validName(n); err != nil {
		return err
	}

	if r.declared[n] {
		return nil
	}

	if r.strict {
		return fmt.Errorf("hook %s is not declared (strict mode)", n)
	}

	r.declared[n] = true

	return nil
}
