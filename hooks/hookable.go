package hooks

// A HookableBase equips a host object with a hook engine by composition:
// the host embeds a HookableBase and the engine's registration surface
// appears on the host. No methods are injected into the host; the base only
// delegates to the engine it owns.
//
//	type Repository struct {
//		hooks.HookableBase
//	}
//
//	repo := Repository{HookableBase: hooks.NewHookableBase(engine)}
//	repo.Pre("save", middleware)
type HookableBase struct {
	engine *Engine
}

// NewHookableBase creates a HookableBase around an engine.
func NewHookableBase(e *Engine) HookableBase {
	if e == nil {
		panic("hookable host requires an engine")
	}

	if e.Registry() == nil {
		panic("hookable host requires an engine with an owned registry")
	}

	return HookableBase{engine: e}
}

// HookEngine returns the engine the host delegates to.
func (h *HookableBase) HookEngine() *Engine {
	return h.engine
}

// AllowHooks declares both qualified forms of each name, making them
// registrable under strict mode.
func (h *HookableBase) AllowHooks(names ...string) error {
	for _, name := range names {
		if err := h.engine.registry.DeclareName(name); err != nil {
			return err
		}
	}

	return nil
}

// Pre registers middleware on the pre phase of an unqualified hook name.
func (h *HookableBase) Pre(name string, ms ...*Middleware) error {
	return h.engine.registry.Register(h.engine.qualifiers.PreName(name), ms...)
}

// Post registers middleware on the post phase of an unqualified hook name.
func (h *HookableBase) Post(name string, ms ...*Middleware) error {
	return h.engine.registry.Register(h.engine.qualifiers.PostName(name), ms...)
}

// Hook registers middleware against a qualified textual name, e.g.
// "pre:save". Unqualified names are rejected here; only Pre, Post, and
// AllowHooks expand them.
func (h *HookableBase) Hook(qualified string, ms ...*Middleware) error {
	name, err := h.engine.qualifiers.Parse(qualified)
	if err != nil {
		return err
	}

	return h.engine.registry.Register(name, ms...)
}

// Unhook removes middleware from a qualified textual name. With no
// middleware given, every middleware of that name is removed. Removing
// middleware that was never registered is a no-op.
func (h *HookableBase) Unhook(qualified string, ms ...*Middleware) error {
	name, err := h.engine.qualifiers.Parse(qualified)
	if err != nil {
		return err
	}

	if len(ms) == 0 {
		h.engine.registry.DeregisterAll(name)
		return nil
	}

	for _, m := range ms {
		h.engine.registry.Deregister(name, m)
	}

	return nil
}
