// Package driver is the boundary to the CUDA Driver API ("libcuda"), exposing
// exactly the call surface the context-management layer (package cuctx) needs.
//
// It defines the opaque handle and enum types used across the module, the
// Driver interface, and a purego (dlopen) backed implementation of it -- see
// Load. No cgo is involved: the driver library is loaded at runtime and the
// cu* entry points are bound as function pointers.
//
// Streams, memory and kernel launches are deliberately not covered here: this
// package only carries what context lifecycle and thread-affinity require,
// plus the minimal device queries used by the cudactxinfo tool.
package driver

// Device is the ordinal of a physical accelerator, as used by cuDeviceGet.
type Device int32

// Context is an opaque native context handle (CUcontext). The zero value
// means "no context". Handles are never interpreted, only passed back to
// driver calls or compared for identity.
type Context uintptr

// Driver is the call-in surface of the CUDA Driver API used by cuctx.
//
// Every call may fail with a driver-reported *Error; failures are surfaced
// to the caller as-is, with no retry or masking.
//
// The per-thread calls (push/pop/set/get current, synchronize and the
// context-attribute accessors) operate on the calling OS thread's native
// context stack, so callers must be pinned to their OS thread
// (runtime.LockOSThread) for a sequence of such calls to be meaningful.
type Driver interface {
	// Version returns the driver version, e.g. 12040 for CUDA 12.4.
	Version() (int, error)

	// DeviceGetCount returns the number of CUDA-capable devices.
	DeviceGetCount() (int, error)

	// DeviceGet validates ordinal and returns the device handle for it.
	DeviceGet(ordinal int) (Device, error)

	// DeviceGetName returns the human-readable name of dev.
	DeviceGetName(dev Device) (string, error)

	// CtxCreate creates a new context on dev. Unlike the raw cuCtxCreate,
	// the new context is NOT left current on the calling thread -- the
	// calling thread's stack is unchanged.
	CtxCreate(dev Device, flags CtxFlags) (Context, error)

	// CtxDestroy destroys a context created with CtxCreate.
	CtxDestroy(ctx Context) error

	// PrimaryCtxRetain retains the primary context of dev, initializing it
	// if needed, and returns its handle. Each retain must be balanced by a
	// PrimaryCtxRelease.
	PrimaryCtxRetain(dev Device) (Context, error)

	// PrimaryCtxRelease releases one reference on dev's primary context.
	PrimaryCtxRelease(dev Device) error

	// PrimaryCtxGetState reports the flags of dev's primary context and
	// whether it is currently active (initialized).
	PrimaryCtxGetState(dev Device) (flags CtxFlags, active bool, err error)

	// PrimaryCtxSetFlags sets the flags dev's primary context will be
	// initialized with. Only meaningful before the primary context becomes
	// active; the driver reports an error otherwise.
	PrimaryCtxSetFlags(dev Device, flags CtxFlags) error

	// CtxPushCurrent pushes ctx onto the calling thread's context stack.
	CtxPushCurrent(ctx Context) error

	// CtxPopCurrent pops the calling thread's current context and returns
	// it. The driver reports an error if the stack is empty.
	CtxPopCurrent() (Context, error)

	// CtxSetCurrent replaces the calling thread's current context with ctx.
	// A zero ctx clears the thread's current context.
	CtxSetCurrent(ctx Context) error

	// CtxGetCurrent returns the calling thread's current context, zero if
	// none is current.
	CtxGetCurrent() (Context, error)

	// CtxSynchronize blocks until all work on the calling thread's current
	// context has completed.
	CtxSynchronize() error

	// CtxGetFlags returns the flags of the calling thread's current context.
	CtxGetFlags() (CtxFlags, error)

	// CtxGetAPIVersion returns the driver API version ctx was created for.
	CtxGetAPIVersion(ctx Context) (uint32, error)

	// CtxGetStreamPriorityRange returns the [least, greatest] stream
	// priorities supported by the current context. Numerically, greatest
	// is the lower value (higher priority).
	CtxGetStreamPriorityRange() (least, greatest int, err error)

	// CtxGetCacheConfig returns the current context's preferred cache
	// configuration.
	CtxGetCacheConfig() (FuncCache, error)

	// CtxSetCacheConfig sets the current context's preferred cache
	// configuration.
	CtxSetCacheConfig(config FuncCache) error

	// CtxResetPersistingL2Cache resets all persisting L2 cache lines of the
	// current context.
	CtxResetPersistingL2Cache() error

	// CtxGetLimit returns the current context's value for limit.
	CtxGetLimit(limit Limit) (uint64, error)

	// CtxSetLimit sets the current context's value for limit.
	CtxSetLimit(limit Limit, value uint64) error

	// CtxGetSharedMemConfig returns the current context's shared memory
	// bank size configuration.
	CtxGetSharedMemConfig() (SharedMemConfig, error)

	// CtxSetSharedMemConfig sets the current context's shared memory bank
	// size configuration.
	CtxSetSharedMemConfig(config SharedMemConfig) error
}
