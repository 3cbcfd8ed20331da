package hooks

import "sync"

// dezalgofy starts a callback-style operation and guarantees that complete
// never runs inside the call that initiated the operation. If the operation
// finishes before start returns, delivery is handed to a fresh goroutine;
// if it finishes later, complete runs inline on whichever goroutine
// signalled completion.
//
// The wrapping is applied once around the whole pre, operation, post
// sequence, not per middleware.
func dezalgofy(
	start func(finish func(err error, results []any)),
	complete func(err error, results []any),
) {
	var mu sync.Mutex
	returned := false
	finishedEarly := false
	var earlyErr error
	var earlyResults []any

	start(func(err error, results []any) {
		mu.Lock()
		if !returned {
			finishedEarly = true
			earlyErr = err
			earlyResults = results
			mu.Unlock()
			return
		}
		mu.Unlock()

		complete(err, results)
	})

	mu.Lock()
	returned = true
	deliver := finishedEarly
	mu.Unlock()

	if deliver {
		go complete(earlyErr, earlyResults)
	}
}
