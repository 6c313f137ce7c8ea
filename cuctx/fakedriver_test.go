package cuctx

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/gomlx/gocuda/driver"
)

// fakeDriver simulates the driver's context machinery in-process: handle
// allocation, per-OS-thread current-context stacks, primary-context
// refcounts and per-context attribute state. Tests inject failures through
// failCalls. Like the real thing, it keys "current" by OS thread, so tests
// exercising it must run on a locked thread.
type fakeDriver struct {
	mu         sync.Mutex
	nextHandle uintptr
	contexts   map[driver.Context]*fakeCtxState
	primaries  map[driver.Device]*fakePrimaryState
	stacks     map[int][]driver.Context

	// failCalls makes the named Driver methods fail with the given result.
	failCalls map[string]driver.Result
}

type fakeCtxState struct {
	dev       driver.Device
	flags     driver.CtxFlags
	primary   bool
	destroyed bool
	limits    map[driver.Limit]uint64
	cache     driver.FuncCache
	sharedMem driver.SharedMemConfig
}

type fakePrimaryState struct {
	handle   driver.Context
	refCount int
	flags    driver.CtxFlags
	// activated is set once the primary context is made current; SetFlags
	// is rejected from then on, as the real driver does.
	activated bool
}

var _ driver.Driver = (*fakeDriver)(nil)

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		nextHandle: 0x1000,
		contexts:   make(map[driver.Context]*fakeCtxState),
		primaries:  make(map[driver.Device]*fakePrimaryState),
		stacks:     make(map[int][]driver.Context),
		failCalls:  make(map[string]driver.Result),
	}
}

func (f *fakeDriver) fail(call string) error {
	if r, ok := f.failCalls[call]; ok {
		return errors.WithStack(&driver.Error{Call: call, Result: r})
	}
	return nil
}

func (f *fakeDriver) newContext(dev driver.Device, flags driver.CtxFlags, primary bool) driver.Context {
	f.nextHandle += 0x10
	handle := driver.Context(f.nextHandle)
	f.contexts[handle] = &fakeCtxState{
		dev:   dev,
		flags: flags,
		limits: map[driver.Limit]uint64{
			driver.LimitStackSize:      1024,
			driver.LimitPrintfFIFOSize: 1 << 20,
			driver.LimitMallocHeapSize: 8 << 20,
		},
		primary: primary,
	}
	return handle
}

// curState returns the state of the calling thread's current context.
func (f *fakeDriver) curState() (*fakeCtxState, error) {
	stack := f.stacks[unix.Gettid()]
	if len(stack) == 0 {
		return nil, errors.WithStack(&driver.Error{Call: "fake", Result: driver.ErrorInvalidContext})
	}
	return f.contexts[stack[len(stack)-1]], nil
}

func (f *fakeDriver) Version() (int, error) {
	return 12040, nil
}

func (f *fakeDriver) DeviceGetCount() (int, error) {
	return 2, nil
}

func (f *fakeDriver) DeviceGet(ordinal int) (driver.Device, error) {
	return driver.Device(ordinal), nil
}

func (f *fakeDriver) DeviceGetName(dev driver.Device) (string, error) {
	return fmt.Sprintf("Fake GPU %d", dev), nil
}

func (f *fakeDriver) CtxCreate(dev driver.Device, flags driver.CtxFlags) (driver.Context, error) {
	if err := f.fail("CtxCreate"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newContext(dev, flags, false), nil
}

func (f *fakeDriver) CtxDestroy(ctx driver.Context) error {
	if err := f.fail("CtxDestroy"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.contexts[ctx]
	if !ok || state.destroyed {
		return errors.WithStack(&driver.Error{Call: "cuCtxDestroy", Result: driver.ErrorInvalidContext})
	}
	state.destroyed = true
	return nil
}

func (f *fakeDriver) PrimaryCtxRetain(dev driver.Device) (driver.Context, error) {
	if err := f.fail("PrimaryCtxRetain"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.primaries[dev]
	if !ok {
		p = &fakePrimaryState{handle: f.newContext(dev, 0, true)}
		f.primaries[dev] = p
	}
	p.refCount++
	return p.handle, nil
}

func (f *fakeDriver) PrimaryCtxRelease(dev driver.Device) error {
	if err := f.fail("PrimaryCtxRelease"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.primaries[dev]
	if !ok || p.refCount <= 0 {
		return errors.WithStack(&driver.Error{Call: "cuDevicePrimaryCtxRelease", Result: driver.ErrorInvalidContext})
	}
	p.refCount--
	return nil
}

func (f *fakeDriver) PrimaryCtxGetState(dev driver.Device) (driver.CtxFlags, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.primaries[dev]
	if !ok {
		return 0, false, nil
	}
	return p.flags, p.refCount > 0, nil
}

func (f *fakeDriver) PrimaryCtxSetFlags(dev driver.Device, flags driver.CtxFlags) error {
	if err := f.fail("PrimaryCtxSetFlags"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.primaries[dev]
	if !ok {
		p = &fakePrimaryState{handle: f.newContext(dev, 0, true)}
		f.primaries[dev] = p
	}
	if p.activated {
		return errors.WithStack(&driver.Error{Call: "cuDevicePrimaryCtxSetFlags", Result: driver.ErrorPrimaryContextActive})
	}
	p.flags = flags
	f.contexts[p.handle].flags = flags
	return nil
}

// markActivated flags the primary state of ctx, if it is one. Callers hold mu.
func (f *fakeDriver) markActivated(ctx driver.Context) {
	state, ok := f.contexts[ctx]
	if !ok || !state.primary {
		return
	}
	if p, ok := f.primaries[state.dev]; ok && p.handle == ctx {
		p.activated = true
	}
}

func (f *fakeDriver) CtxPushCurrent(ctx driver.Context) error {
	if err := f.fail("CtxPushCurrent"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.contexts[ctx]
	if !ok || state.destroyed {
		return errors.WithStack(&driver.Error{Call: "cuCtxPushCurrent", Result: driver.ErrorInvalidContext})
	}
	tid := unix.Gettid()
	f.stacks[tid] = append(f.stacks[tid], ctx)
	f.markActivated(ctx)
	return nil
}

func (f *fakeDriver) CtxPopCurrent() (driver.Context, error) {
	if err := f.fail("CtxPopCurrent"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tid := unix.Gettid()
	stack := f.stacks[tid]
	if len(stack) == 0 {
		return 0, errors.WithStack(&driver.Error{Call: "cuCtxPopCurrent", Result: driver.ErrorInvalidContext})
	}
	ctx := stack[len(stack)-1]
	f.stacks[tid] = stack[:len(stack)-1]
	return ctx, nil
}

func (f *fakeDriver) CtxSetCurrent(ctx driver.Context) error {
	if err := f.fail("CtxSetCurrent"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tid := unix.Gettid()
	stack := f.stacks[tid]
	if ctx == 0 {
		if len(stack) > 0 {
			f.stacks[tid] = stack[:len(stack)-1]
		}
		return nil
	}
	state, ok := f.contexts[ctx]
	if !ok || state.destroyed {
		return errors.WithStack(&driver.Error{Call: "cuCtxSetCurrent", Result: driver.ErrorInvalidContext})
	}
	if len(stack) > 0 {
		stack[len(stack)-1] = ctx
	} else {
		stack = append(stack, ctx)
	}
	f.stacks[tid] = stack
	f.markActivated(ctx)
	return nil
}

func (f *fakeDriver) CtxGetCurrent() (driver.Context, error) {
	if err := f.fail("CtxGetCurrent"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stack := f.stacks[unix.Gettid()]
	if len(stack) == 0 {
		return 0, nil
	}
	return stack[len(stack)-1], nil
}

func (f *fakeDriver) CtxSynchronize() error {
	if err := f.fail("CtxSynchronize"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.curState()
	return err
}

func (f *fakeDriver) CtxGetFlags() (driver.CtxFlags, error) {
	if err := f.fail("CtxGetFlags"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.curState()
	if err != nil {
		return 0, err
	}
	return state.flags, nil
}

func (f *fakeDriver) CtxGetAPIVersion(ctx driver.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.contexts[ctx]; !ok {
		return 0, errors.WithStack(&driver.Error{Call: "cuCtxGetApiVersion", Result: driver.ErrorInvalidContext})
	}
	return 3020, nil
}

func (f *fakeDriver) CtxGetStreamPriorityRange() (least, greatest int, err error) {
	if err := f.fail("CtxGetStreamPriorityRange"); err != nil {
		return 0, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.curState(); err != nil {
		return 0, 0, err
	}
	return 0, -5, nil
}

func (f *fakeDriver) CtxGetCacheConfig() (driver.FuncCache, error) {
	if err := f.fail("CtxGetCacheConfig"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.curState()
	if err != nil {
		return 0, err
	}
	return state.cache, nil
}

func (f *fakeDriver) CtxSetCacheConfig(config driver.FuncCache) error {
	if err := f.fail("CtxSetCacheConfig"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.curState()
	if err != nil {
		return err
	}
	state.cache = config
	return nil
}

func (f *fakeDriver) CtxResetPersistingL2Cache() error {
	if err := f.fail("CtxResetPersistingL2Cache"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.curState()
	return err
}

func (f *fakeDriver) CtxGetLimit(limit driver.Limit) (uint64, error) {
	if err := f.fail("CtxGetLimit"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.curState()
	if err != nil {
		return 0, err
	}
	return state.limits[limit], nil
}

func (f *fakeDriver) CtxSetLimit(limit driver.Limit, value uint64) error {
	if err := f.fail("CtxSetLimit"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.curState()
	if err != nil {
		return err
	}
	state.limits[limit] = value
	return nil
}

func (f *fakeDriver) CtxGetSharedMemConfig() (driver.SharedMemConfig, error) {
	if err := f.fail("CtxGetSharedMemConfig"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.curState()
	if err != nil {
		return 0, err
	}
	return state.sharedMem, nil
}

func (f *fakeDriver) CtxSetSharedMemConfig(config driver.SharedMemConfig) error {
	if err := f.fail("CtxSetSharedMemConfig"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.curState()
	if err != nil {
		return err
	}
	state.sharedMem = config
	return nil
}

// depth returns the calling thread's native stack depth.
func (f *fakeDriver) depth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stacks[unix.Gettid()])
}

// refCount returns the primary-context refcount of dev.
func (f *fakeDriver) refCount(dev driver.Device) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.primaries[dev]; ok {
		return p.refCount
	}
	return 0
}
