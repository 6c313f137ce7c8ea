package cuctx

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/gocuda/driver"
)

// Context is the capability set shared by owned and primary contexts.
//
// None of these methods require the context to be current on the calling
// thread: each temporarily activates the context if needed and restores the
// thread's native stack before returning (see withCurrent).
//
// A Context may be shared across threads (that is what primary contexts are
// for), but then the caller is responsible for synchronizing access to it.
type Context interface {
	// Handle returns the native context handle.
	Handle() driver.Context

	// Device returns the device this context is bound to.
	Device() driver.Device

	// IsPrimary reports whether this is a device's shared primary context.
	IsPrimary() bool

	// APIVersion returns the driver API version the context was created for.
	APIVersion() (uint32, error)

	// Flags returns the flags the context was created with.
	Flags() (driver.CtxFlags, error)

	// StreamPriorityRange returns the least and greatest stream priorities
	// the context supports.
	StreamPriorityRange() (least, greatest int, err error)

	// CacheConfig returns the context's preferred cache configuration.
	CacheConfig() (driver.FuncCache, error)

	// SetCacheConfig sets the context's preferred cache configuration.
	SetCacheConfig(config driver.FuncCache) error

	// ResetPersistingL2Cache resets the context's persisting L2 cache lines.
	ResetPersistingL2Cache() error

	// Limit returns the context's value for the given resource limit.
	Limit(limit driver.Limit) (uint64, error)

	// SetLimit sets the context's value for the given resource limit.
	SetLimit(limit driver.Limit, value uint64) error

	// SharedMemConfig returns the context's shared memory bank size
	// configuration.
	SharedMemConfig() (driver.SharedMemConfig, error)

	// SetSharedMemConfig sets the context's shared memory bank size
	// configuration.
	SetSharedMemConfig(config driver.SharedMemConfig) error

	// AddModule keeps a reference to module for at least the lifetime of
	// the context, so a loaded device program isn't collected while the
	// device may still reference it. It is not a lookup structure.
	AddModule(module any)

	// Synchronize blocks until all work outstanding on the context has
	// completed.
	Synchronize() error
}

// ctxBase carries the handle and implements the capability set for both
// context families.
type ctxBase struct {
	drv     driver.Driver
	handle  driver.Context
	dev     driver.Device
	modules map[any]struct{}
}

func newCtxBase(drv driver.Driver, handle driver.Context, dev driver.Device) ctxBase {
	return ctxBase{drv: drv, handle: handle, dev: dev, modules: make(map[any]struct{})}
}

// withCurrent runs op with the context current on the calling thread. If the
// context is not the driver's current one it is pushed first and popped
// after, on every exit path, so there is never a net change to the thread's
// native stack. The push and pop here are the raw driver primitives on
// purpose: a transient activation must not disturb the Manager's stack
// mirror.
//
// The driver's own notion of "current" is queried rather than the mirror, so
// this works from threads whose mirror is empty or stale.
func (c *ctxBase) withCurrent(op func() error) (err error) {
	cur, err := c.drv.CtxGetCurrent()
	if err != nil {
		return err
	}
	if cur == c.handle {
		return op()
	}
	if err = c.drv.CtxPushCurrent(c.handle); err != nil {
		return err
	}
	defer func() {
		if _, popErr := c.drv.CtxPopCurrent(); popErr != nil && err == nil {
			err = popErr
		}
	}()
	return op()
}

func (c *ctxBase) Handle() driver.Context {
	return c.handle
}

func (c *ctxBase) Device() driver.Device {
	return c.dev
}

func (c *ctxBase) APIVersion() (uint32, error) {
	return c.drv.CtxGetAPIVersion(c.handle)
}

func (c *ctxBase) Flags() (flags driver.CtxFlags, err error) {
	err = c.withCurrent(func() (e error) {
		flags, e = c.drv.CtxGetFlags()
		return
	})
	return
}

func (c *ctxBase) StreamPriorityRange() (least, greatest int, err error) {
	err = c.withCurrent(func() (e error) {
		least, greatest, e = c.drv.CtxGetStreamPriorityRange()
		return
	})
	return
}

func (c *ctxBase) CacheConfig() (config driver.FuncCache, err error) {
	err = c.withCurrent(func() (e error) {
		config, e = c.drv.CtxGetCacheConfig()
		return
	})
	return
}

func (c *ctxBase) SetCacheConfig(config driver.FuncCache) error {
	return c.withCurrent(func() error {
		return c.drv.CtxSetCacheConfig(config)
	})
}

func (c *ctxBase) ResetPersistingL2Cache() error {
	return c.withCurrent(func() error {
		return c.drv.CtxResetPersistingL2Cache()
	})
}

func (c *ctxBase) Limit(limit driver.Limit) (value uint64, err error) {
	err = c.withCurrent(func() (e error) {
		value, e = c.drv.CtxGetLimit(limit)
		return
	})
	return
}

func (c *ctxBase) SetLimit(limit driver.Limit, value uint64) error {
	return c.withCurrent(func() error {
		return c.drv.CtxSetLimit(limit, value)
	})
}

func (c *ctxBase) SharedMemConfig() (config driver.SharedMemConfig, err error) {
	err = c.withCurrent(func() (e error) {
		config, e = c.drv.CtxGetSharedMemConfig()
		return
	})
	return
}

func (c *ctxBase) SetSharedMemConfig(config driver.SharedMemConfig) error {
	return c.withCurrent(func() error {
		return c.drv.CtxSetSharedMemConfig(config)
	})
}

func (c *ctxBase) AddModule(module any) {
	c.modules[module] = struct{}{}
}

func (c *ctxBase) Synchronize() error {
	return c.withCurrent(func() error {
		return c.drv.CtxSynchronize()
	})
}

// OwnedContext is a context created with Manager.CreateContext. It is
// exclusively owned: Destroy releases the native context, and a finalizer
// guarantees eventual release if the owner drops it without calling Destroy
// (with no ordering guarantee relative to other releases).
type OwnedContext struct {
	ctxBase
}

var _ Context = (*OwnedContext)(nil)

func newOwnedContext(drv driver.Driver, dev driver.Device, flags driver.CtxFlags) (*OwnedContext, error) {
	handle, err := drv.CtxCreate(dev, flags)
	if err != nil {
		return nil, errors.WithMessagef(err, "creating context on device %d", dev)
	}
	ctx := &OwnedContext{ctxBase: newCtxBase(drv, handle, dev)}
	runtime.SetFinalizer(ctx, finalizeOwnedContext)
	return ctx, nil
}

func finalizeOwnedContext(ctx *OwnedContext) {
	if err := ctx.Destroy(); err != nil {
		klog.Errorf("OwnedContext.Destroy failed: %+v", err)
	}
}

// IsPrimary implements Context, always false for OwnedContext.
func (ctx *OwnedContext) IsPrimary() bool {
	return false
}

// Destroy destroys the native context and invalidates ctx. It is
// automatically called if the OwnedContext is garbage collected. Destroying
// an already destroyed context is a no-op.
//
// The context must not be current on any thread when destroyed.
func (ctx *OwnedContext) Destroy() error {
	if ctx.handle == 0 {
		return nil
	}
	defer runtime.KeepAlive(ctx)
	err := ctx.drv.CtxDestroy(ctx.handle)
	ctx.handle = 0
	ctx.modules = nil
	return err
}

// String implements fmt.Stringer.
func (ctx *OwnedContext) String() string {
	if ctx.handle == 0 {
		return "OwnedContext(destroyed)"
	}
	return fmt.Sprintf("OwnedContext(device=%d) <%#x>", ctx.dev, uintptr(ctx.handle))
}
