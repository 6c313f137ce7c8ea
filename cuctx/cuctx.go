// Package cuctx manages the lifecycle and thread-affinity of CUDA contexts.
//
// A context must be "current" on an OS thread before any device operation on
// it is valid, and the driver keeps one native context stack per OS thread.
// This package mirrors that stack in-process and routes every activation
// through a single Manager, so that "what is current on this thread" can be
// answered without a driver round trip and so that activations stay balanced.
//
// Two context families exist:
//
//   - OwnedContext: created with Manager.CreateContext, exclusively owned,
//     destroyed on Destroy (or eventually by its finalizer).
//   - PrimaryContext: the device's shared primary context, obtained with
//     Manager.RetainPrimary. One *PrimaryContext exists per device per
//     process; the native retain is released when the object is finalized.
//
// Both expose the same capability set (flags, limits, cache and shared
// memory configuration, stream priority range), and every such call
// temporarily makes the context current on the calling thread if it isn't
// already -- the driver's stack is left exactly as it was, even when the
// call fails.
//
// Thread affinity: goroutines that push, pop or set contexts current must be
// pinned to their OS thread with runtime.LockOSThread for the duration; the
// Manager keys its stack mirror by OS thread id. A thread must empty its
// stack before exiting: the kernel reuses thread ids, so a mirror left
// non-empty by an exited thread would be inherited by whatever unrelated
// thread the id is handed to next. Mirrors emptied through the Manager are
// pruned from the map automatically.
package cuctx

import "github.com/pkg/errors"

// ErrNoCurrentContext is returned by Manager attribute accessors when no
// context is current on the calling thread. Having one current is a
// precondition of those calls, not something that is silently defaulted.
var ErrNoCurrentContext = errors.New("no CUDA context is current on this thread")

// ErrNotImplemented is returned by operations whose driver semantics are
// deliberately not wired up yet (see PrimaryContext.Reset).
var ErrNotImplemented = errors.New("not implemented")
