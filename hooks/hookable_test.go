package hooks

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var host HookableBase

	noop := func() *Middleware {
		return Sync(func(...any) any { return nil })
	}

	BeforeEach(func() {
		host = NewHookableBase(MakeEngineBuilder().WithStrictMode().Build())
	})

	It("should declare both phases through AllowHooks", func() {
		Expect(host.AllowHooks("save")).To(BeNil())

		registry := host.HookEngine().Registry()
		Expect(registry.IsDeclared(
			QualifiedName{Qualifier: "pre", Name: "save"})).To(BeTrue())
		Expect(registry.IsDeclared(
			QualifiedName{Qualifier: "post", Name: "save"})).To(BeTrue())
	})

	It("should register through Pre and Post", func() {
		Expect(host.AllowHooks("save")).To(BeNil())

		Expect(host.Pre("save", noop())).To(BeNil())
		Expect(host.Post("save", noop())).To(BeNil())

		registry := host.HookEngine().Registry()
		Expect(registry.ListMiddleware(
			QualifiedName{Qualifier: "pre", Name: "save"})).To(HaveLen(1))
		Expect(registry.ListMiddleware(
			QualifiedName{Qualifier: "post", Name: "save"})).To(HaveLen(1))
	})

	It("should reject undeclared hooks under strict mode", func() {
		Expect(host.Pre("save", noop())).To(HaveOccurred())
	})

	It("should register against a qualified textual name", func() {
		Expect(host.AllowHooks("save")).To(BeNil())

		Expect(host.Hook("pre:save", noop())).To(BeNil())
	})

	It("should reject an unqualified name in Hook", func() {
		Expect(host.AllowHooks("save")).To(BeNil())

		Expect(host.Hook("save", noop())).To(HaveOccurred())
	})

	It("should round-trip registration and unhooking", func() {
		Expect(host.AllowHooks("save")).To(BeNil())
		m := noop()
		Expect(host.Hook("pre:save", m)).To(BeNil())

		Expect(host.Unhook("pre:save")).To(BeNil())

		registry := host.HookEngine().Registry()
		Expect(registry.ListMiddleware(
			QualifiedName{Qualifier: "pre", Name: "save"})).To(BeEmpty())
	})

	It("should unhook a single middleware by identity", func() {
		Expect(host.AllowHooks("save")).To(BeNil())
		keep, drop := noop(), noop()
		Expect(host.Hook("pre:save", keep, drop)).To(BeNil())

		Expect(host.Unhook("pre:save", drop)).To(BeNil())

		registry := host.HookEngine().Registry()
		Expect(registry.ListMiddleware(
			QualifiedName{Qualifier: "pre", Name: "save"})).To(
			Equal([]*Middleware{keep}))
	})

	It("should treat unhooking an unknown name as a no-op", func() {
		Expect(host.Unhook("pre:never")).To(BeNil())
	})

	It("should panic on a nil engine", func() {
		Expect(func() { NewHookableBase(nil) }).To(Panic())
	})
})
