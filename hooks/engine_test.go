package hooks

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Engine", func() {
	var engine *Engine

	BeforeEach(func() {
		engine = MakeEngineBuilder().
			WithPromiseFactory(testPromiseFactory).
			Build()
	})

	registerPre := func(name string, m *Middleware) {
		err := engine.Registry().Register(
			engine.Qualifiers().PreName(name), m)
		Expect(err).To(BeNil())
	}

	registerPost := func(name string, m *Middleware) {
		err := engine.Registry().Register(
			engine.Qualifiers().PostName(name), m)
		Expect(err).To(BeNil())
	}

	Context("callback flavor", func() {
		It("should run pre, operation, post in order", func() {
			var order []string
			registerPre("save", Sync(func(...any) any {
				order = append(order, "pre")
				return nil
			}))
			registerPost("save", Sync(func(...any) any {
				order = append(order, "post")
				return nil
			}))

			done := make(chan struct{})
			op := func(_ []any, complete func(error, ...any)) {
				order = append(order, "op")
				complete(nil, "saved")
			}

			engine.CallHook("save", op, nil, func(err error, results []any) {
				defer close(done)
				defer GinkgoRecover()

				Expect(err).To(BeNil())
				Expect(results).To(Equal([]any{"saved"}))
			})

			Eventually(done).Should(BeClosed())
			Expect(order).To(Equal([]string{"pre", "op", "post"}))
		})

		It("should never deliver the completion inside the initiating call",
			func() {
				counter := 0
				registerPre("save", Sync(func(...any) any {
					counter++
					return nil
				}))

				op := func(_ []any, complete func(error, ...any)) {
					complete(nil)
				}

				var mu sync.Mutex
				done := make(chan struct{})

				mu.Lock()
				engine.CallHook("save", op, nil, func(error, []any) {
					// Blocks until the initiating call below has finished,
					// proving delivery happens on another goroutine.
					mu.Lock()
					defer mu.Unlock()
					close(done)
				})
				mu.Unlock()

				Eventually(done).Should(BeClosed())
				Expect(counter).To(Equal(1))
			})

		It("should skip the operation and post phase on a pre error", func() {
			opRan := false
			postRan := false
			registerPre("save", Sync(func(...any) any {
				return errors.New("pre failed")
			}))
			registerPost("save", Sync(func(...any) any {
				postRan = true
				return nil
			}))

			done := make(chan struct{})
			op := func(_ []any, complete func(error, ...any)) {
				opRan = true
				complete(nil)
			}

			engine.CallHook("save", op, nil, func(err error, _ []any) {
				defer close(done)
				defer GinkgoRecover()

				Expect(err).To(MatchError("pre failed"))
			})

			Eventually(done).Should(BeClosed())
			Expect(opRan).To(BeFalse())
			Expect(postRan).To(BeFalse())
		})

		It("should deliver an operation error without running post", func() {
			postRan := false
			registerPost("save", Sync(func(...any) any {
				postRan = true
				return nil
			}))

			done := make(chan struct{})
			op := func(_ []any, complete func(error, ...any)) {
				complete(errors.New("op failed"))
			}

			engine.CallHook("save", op, nil, func(err error, _ []any) {
				defer close(done)
				defer GinkgoRecover()

				Expect(err).To(MatchError("op failed"))
			})

			Eventually(done).Should(BeClosed())
			Expect(postRan).To(BeFalse())
		})

		It("should deliver completion once when the operation completes twice",
			func() {
				completions := 0
				var completionsLock sync.Mutex

				done := make(chan struct{})
				op := func(_ []any, complete func(error, ...any)) {
					complete(nil, "first")
					complete(nil, "second")
				}

				engine.CallHook("save", op, nil, func(error, []any) {
					completionsLock.Lock()
					completions++
					completionsLock.Unlock()
					close(done)
				})

				Eventually(done).Should(BeClosed())
				Consistently(func() int {
					completionsLock.Lock()
					defer completionsLock.Unlock()
					return completions
				}).Should(Equal(1))
			})

		It("should treat a hook with no middleware like an empty chain",
			func() {
				done := make(chan struct{})
				var seen []any
				op := func(args []any, complete func(error, ...any)) {
					seen = args
					complete(nil)
				}

				engine.CallHook("missing", op, []any{1, 2, 3},
					func(err error, _ []any) {
						defer close(done)
						defer GinkgoRecover()

						Expect(err).To(BeNil())
					})

				Eventually(done).Should(BeClosed())
				Expect(seen).To(Equal([]any{1, 2, 3}))
			})
	})

	Context("argument policies", func() {
		It("should filter pre/post arguments but not the operation's", func() {
			var preSeen, postSeen, opSeen []any

			preName := engine.Qualifiers().PreName("save")
			postName := engine.Qualifiers().PostName("save")
			Expect(engine.Registry().SetArgumentPolicy(
				preName, PassNone())).To(BeNil())
			Expect(engine.Registry().SetArgumentPolicy(
				postName, PassFirst(2))).To(BeNil())

			registerPre("save", Sync(func(args ...any) any {
				preSeen = args
				return nil
			}))
			registerPost("save", Sync(func(args ...any) any {
				postSeen = args
				return nil
			}))

			done := make(chan struct{})
			op := func(args []any, complete func(error, ...any)) {
				opSeen = args
				complete(nil)
			}

			engine.CallHook("save", op, []any{"a", "b", "c", "d"},
				func(error, []any) { close(done) })

			Eventually(done).Should(BeClosed())
			Expect(preSeen).To(BeEmpty())
			Expect(postSeen).To(Equal([]any{"a", "b"}))
			Expect(opSeen).To(Equal([]any{"a", "b", "c", "d"}))
		})

		It("should re-order arguments under an index policy", func() {
			var seen []any
			preName := engine.Qualifiers().PreName("save")
			Expect(engine.Registry().SetArgumentPolicy(
				preName, PassIndices(2, 0))).To(BeNil())

			registerPre("save", Sync(func(args ...any) any {
				seen = args
				return nil
			}))

			done := make(chan struct{})
			engine.CallHook("save", nil, []any{"a", "b", "c"},
				func(error, []any) { close(done) })

			Eventually(done).Should(BeClosed())
			Expect(seen).To(Equal([]any{"c", "a"}))
		})
	})

	Context("promise flavor", func() {
		It("should resolve with the operation's value after post", func() {
			var order []string
			registerPre("load", Sync(func(...any) any {
				order = append(order, "pre")
				return nil
			}))
			registerPost("load", Sync(func(...any) any {
				order = append(order, "post")
				return nil
			}))

			op := func([]any) any {
				order = append(order, "op")
				p := &testPromise{}
				p.resolve("loaded")
				return p
			}

			thenable, err := engine.CallHookAsync("load", op)
			Expect(err).To(BeNil())

			var value any
			thenable.Then(
				func(v any) { value = v },
				func(error) { Fail("unexpected rejection") },
			)

			Expect(value).To(Equal("loaded"))
			Expect(order).To(Equal([]string{"pre", "op", "post"}))
		})

		It("should reject on a rejected operation promise", func() {
			op := func([]any) any {
				p := &testPromise{}
				p.reject(errors.New("load failed"))
				return p
			}

			thenable, err := engine.CallHookAsync("load", op)
			Expect(err).To(BeNil())

			var rejected error
			thenable.Then(
				func(any) { Fail("unexpected resolution") },
				func(err error) { rejected = err },
			)

			Expect(rejected).To(MatchError("load failed"))
		})

		It("should resolve a non-thenable operation value immediately",
			func() {
				op := func([]any) any { return 99 }

				thenable, err := engine.CallHookAsync("load", op)
				Expect(err).To(BeNil())

				var value any
				thenable.Then(func(v any) { value = v }, nil)

				Expect(value).To(Equal(99))
			})

		It("should fail fast without a promise factory", func() {
			bare := MakeEngineBuilder().Build()

			_, err := bare.CallHookAsync("load", func([]any) any { return nil })

			Expect(err).To(MatchError(ErrNoPromiseFactory))
		})
	})

	Context("sync flavor", func() {
		It("should return the operation's value after post runs", func() {
			var order []string
			registerPre("calc", Sync(func(...any) any {
				order = append(order, "pre")
				return nil
			}))
			registerPost("calc", Sync(func(...any) any {
				order = append(order, "post")
				return nil
			}))

			result, err := engine.CallHookSync("calc", func([]any) any {
				order = append(order, "op")
				return 7
			})

			Expect(err).To(BeNil())
			Expect(result).To(Equal(7))
			Expect(order).To(Equal([]string{"pre", "op", "post"}))
		})

		It("should not run the operation on a pre error", func() {
			registerPre("calc", Sync(func(...any) any {
				return errors.New("pre failed")
			}))

			opRan := false
			result, err := engine.CallHookSync("calc", func([]any) any {
				opRan = true
				return 7
			})

			Expect(err).To(MatchError("pre failed"))
			Expect(result).To(BeNil())
			Expect(opRan).To(BeFalse())
		})

		It("should surface a post error alongside the result", func() {
			registerPost("calc", Sync(func(...any) any {
				return errors.New("post failed")
			}))

			result, err := engine.CallHookSync("calc", func([]any) any {
				return 7
			})

			Expect(err).To(MatchError("post failed"))
			Expect(result).To(Equal(7))
		})
	})

	Context("flexible flavor", func() {
		It("should dispatch to the callback flavor on a trailing callback",
			func() {
				done := make(chan struct{})
				op := func(_ []any, complete func(error, ...any)) {
					complete(nil, "ok")
				}

				thenable, err := engine.Call("save", op, "arg",
					Callback(func(err error, results []any) {
						defer close(done)
						defer GinkgoRecover()

						Expect(err).To(BeNil())
						Expect(results).To(Equal([]any{"ok"}))
					}))

				Expect(err).To(BeNil())
				Expect(thenable).To(BeNil())
				Eventually(done).Should(BeClosed())
			})

		It("should dispatch to the promise flavor otherwise", func() {
			op := func(_ []any, complete func(error, ...any)) {
				complete(nil, "ok")
			}

			thenable, err := engine.Call("save", op, "arg")
			Expect(err).To(BeNil())
			Expect(thenable).NotTo(BeNil())

			value := make(chan any, 1)
			thenable.Then(
				func(v any) { value <- v },
				func(error) { Fail("unexpected rejection") },
			)

			Eventually(value).Should(Receive(Equal("ok")))
		})

		It("should fail fast without a factory when no callback is given",
			func() {
				bare := MakeEngineBuilder().Build()
				op := func(_ []any, complete func(error, ...any)) {
					complete(nil)
				}

				_, err := bare.Call("save", op)

				Expect(err).To(MatchError(ErrNoPromiseFactory))
			})
	})

	Context("end to end", func() {
		It("should increment a pre middleware counter exactly once per call",
			func() {
				counter := 0
				registerPre("save", Sync(func(...any) any {
					counter++
					return nil
				}))

				done := make(chan struct{})
				save := func(_ []any, complete func(error, ...any)) {
					complete(nil)
				}

				engine.CallHook("save", save, nil,
					func(error, []any) { close(done) })

				Eventually(done).Should(BeClosed())
				Expect(counter).To(Equal(1))
			})
	})

	Context("single phase", func() {
		It("should run only the named phase's middleware", func() {
			var log []string
			registerPre("save", Sync(func(...any) any {
				log = append(log, "pre")
				return nil
			}))
			registerPost("save", Sync(func(...any) any {
				log = append(log, "post")
				return nil
			}))

			done := make(chan error, 1)
			engine.CallPhase(
				engine.Qualifiers().PostName("save"),
				nil,
				func(err error) { done <- err })

			Eventually(done).Should(Receive(BeNil()))
			Expect(log).To(Equal([]string{"post"}))
		})

		It("should deliver the phase's first error", func() {
			phaseErr := errors.New("validation failed")
			registerPre("save", Series(func(_ []any, next func(error)) {
				next(phaseErr)
			}))

			done := make(chan error, 1)
			engine.CallPhase(
				engine.Qualifiers().PreName("save"),
				nil,
				func(err error) { done <- err })

			Eventually(done).Should(Receive(MatchError(phaseErr)))
		})
	})

	Context("observation", func() {
		var mockCtrl *gomock.Controller

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should notify chain start and end", func() {
			observer := NewMockObserver(mockCtrl)
			engine.AcceptObserver(observer)

			var positions []string
			var positionsLock sync.Mutex
			observer.EXPECT().Observe(gomock.Any()).Do(func(ctx ObsCtx) {
				positionsLock.Lock()
				positions = append(positions, ctx.Pos.Name)
				positionsLock.Unlock()
			}).AnyTimes()

			done := make(chan struct{})
			op := func(_ []any, complete func(error, ...any)) {
				complete(nil)
			}

			engine.CallHook("save", op, nil,
				func(error, []any) { close(done) })

			Eventually(done).Should(BeClosed())
			Eventually(func() []string {
				positionsLock.Lock()
				defer positionsLock.Unlock()
				return append([]string{}, positions...)
			}).Should(ContainElements("ChainStart", "ChainEnd"))
		})

		It("should end a failing step with its error", func() {
			observer := NewMockObserver(mockCtrl)
			engine.AcceptObserver(observer)

			stepErr := errors.New("validation failed")
			Expect(engine.Registry().Register(
				engine.Qualifiers().PreName("save"),
				Sync(func(...any) any { return stepErr }),
			)).To(Succeed())

			var starts, ends int
			var endErr error
			var obsLock sync.Mutex
			observer.EXPECT().Observe(gomock.Any()).Do(func(ctx ObsCtx) {
				obsLock.Lock()
				switch ctx.Pos {
				case ObsPosStepStart:
					starts++
				case ObsPosStepEnd:
					ends++
					endErr = ctx.Err
				}
				obsLock.Unlock()
			}).AnyTimes()

			done := make(chan struct{})
			engine.CallHook("save", nil, nil,
				func(error, []any) { close(done) })

			Eventually(done).Should(BeClosed())

			obsLock.Lock()
			defer obsLock.Unlock()
			Expect(starts).To(Equal(1))
			Expect(ends).To(Equal(1))
			Expect(endErr).To(MatchError(stepErr))
		})

		It("should panic on a duplicated observer", func() {
			observer := NewMockObserver(mockCtrl)
			engine.AcceptObserver(observer)

			Expect(func() {
				engine.AcceptObserver(observer)
			}).To(Panic())
		})
	})

	Context("external middleware source", func() {
		var mockCtrl *gomock.Controller

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should read middleware and policies from the source", func() {
			source := NewMockMiddlewareSource(mockCtrl)
			e := MakeEngineBuilder().BuildWithSource(source)

			ran := false
			pre := Sync(func(...any) any {
				ran = true
				return nil
			})

			source.EXPECT().
				ListMiddleware(e.Qualifiers().PreName("save")).
				Return([]*Middleware{pre})
			source.EXPECT().
				ListMiddleware(e.Qualifiers().PostName("save")).
				Return(nil)
			source.EXPECT().
				ArgumentPolicy(gomock.Any()).
				Return(PassAll()).
				AnyTimes()

			done := make(chan struct{})
			op := func(_ []any, complete func(error, ...any)) {
				complete(nil)
			}

			e.CallHook("save", op, nil, func(error, []any) { close(done) })

			Eventually(done).Should(BeClosed())
			Expect(ran).To(BeTrue())
		})
	})
})
