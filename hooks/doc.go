// Package hooks lets a host object declare named extension points and
// register ordered middleware against them, then runs that middleware
// around a wrapped operation.
//
// Hook names are qualified with a pre or post qualifier ("pre:save",
// "post:save"). Middleware declare one of three calling conventions at
// registration time: sync, series, or parallel. A single chain runner
// executes pre middleware, the wrapped operation, and post middleware in
// order, short-circuiting on the first error, and supports callback,
// promise, and synchronous call flavors.
//
// Callback-flavor completions are never delivered inside the initiating
// call, even when every middleware finishes synchronously, so callers see
// consistent asynchronous timing.
package hooks
