package cuctx

import (
	"sync"

	"k8s.io/klog/v2"

	"github.com/gomlx/gocuda/driver"
)

// Manager is the single entry point for context creation and activation.
//
// There is one Manager per process (see Get). It owns the per-thread stack
// mirrors and the primary-context registry, and every change to which
// context is current must go through it: mixing Manager calls with direct
// driver push/pop/set-current calls on the same thread desynchronizes the
// mirror from the native stack. The Manager cannot detect that (the native
// stack is opaque once manipulated externally); it is a documented
// precondition. The one cheap check available -- comparing the handle the
// driver pops against the mirror top -- is done in Pop and logged on
// mismatch.
//
// Goroutines calling Push, Pop, SetCurrent, Current or the current-context
// accessors must be pinned to their OS thread with runtime.LockOSThread.
type Manager struct {
	drv driver.Driver

	stacks *threadStacks

	// mu guards the lookup-or-construct path of primary; reads of existing
	// entries also go through it, construction is rare and cheap relative
	// to device work.
	mu      sync.Mutex
	primary map[driver.Device]*PrimaryContext
}

var (
	muManager sync.Mutex
	manager   *Manager
)

// Get returns the process-wide Manager, loading the CUDA driver on first
// call. Construction is serialized; the Manager is never torn down
// explicitly (native resources are reclaimed at process exit).
func Get() (*Manager, error) {
	muManager.Lock()
	defer muManager.Unlock()
	if manager != nil {
		return manager, nil
	}
	drv, err := driver.Load()
	if err != nil {
		return nil, err
	}
	manager = newManager(drv)
	return manager, nil
}

// newManager is used by Get and, with a stand-in driver, by tests.
func newManager(drv driver.Driver) *Manager {
	return &Manager{
		drv:     drv,
		stacks:  newThreadStacks(),
		primary: make(map[driver.Device]*PrimaryContext),
	}
}

// Driver returns the driver boundary the Manager was built on.
func (m *Manager) Driver() driver.Driver {
	return m.drv
}

// CreateContext creates a new owned context on dev. The calling thread's
// current context is unchanged; push or set the returned context current to
// use it.
func (m *Manager) CreateContext(dev driver.Device, flags driver.CtxFlags) (*OwnedContext, error) {
	return newOwnedContext(m.drv, dev, flags)
}

// RetainPrimary returns the primary context of dev, constructing it (and
// taking the native retain) on first call; later calls return the same
// *PrimaryContext for as long as it is alive. A memoized entry whose retain
// was dropped by Release is replaced with a freshly retained one, so
// RetainPrimary never hands out a released object. If flags is nonzero it is
// applied to the possibly pre-existing primary context.
func (m *Manager) RetainPrimary(dev driver.Device, flags driver.CtxFlags) (*PrimaryContext, error) {
	m.mu.Lock()
	pctx, ok := m.primary[dev]
	if !ok || pctx.handle == 0 {
		var err error
		pctx, err = newPrimaryContext(m.drv, dev)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.primary[dev] = pctx
	}
	m.mu.Unlock()

	if flags != 0 {
		if err := pctx.SetFlags(flags); err != nil {
			return nil, err
		}
	}
	return pctx, nil
}

// Current returns the context current on the calling thread, nil if none.
// This reads the thread's stack mirror; no driver round trip.
func (m *Manager) Current() Context {
	if s := m.stacks.peek(); s != nil {
		return s.current()
	}
	return nil
}

// SetCurrent replaces the calling thread's current context with ctx and
// returns the previously current context (nil if none), so callers can
// restore it later. A nil ctx clears the thread's current context.
func (m *Manager) SetCurrent(ctx Context) (Context, error) {
	s := m.stacks.get()
	prev := s.pop()
	if ctx == nil {
		if err := m.drv.CtxSetCurrent(0); err != nil {
			return prev, err
		}
		m.stacks.pruneEmpty()
		return prev, nil
	}
	if err := m.drv.CtxSetCurrent(ctx.Handle()); err != nil {
		return prev, err
	}
	s.push(ctx)
	return prev, nil
}

// Push makes ctx current on the calling thread, stacking it on top of
// whatever was current. The native stack and the mirror move in lockstep.
func (m *Manager) Push(ctx Context) error {
	if err := m.drv.CtxPushCurrent(ctx.Handle()); err != nil {
		return err
	}
	m.stacks.get().push(ctx)
	return nil
}

// Pop undoes the last Push on the calling thread and returns the popped
// context, or nil (with no driver call and no error) if the thread's stack
// is empty.
func (m *Manager) Pop() (Context, error) {
	s := m.stacks.peek()
	if s == nil {
		return nil, nil
	}
	top := s.current()
	if top == nil {
		return nil, nil
	}
	popped, err := m.drv.CtxPopCurrent()
	if err != nil {
		return nil, err
	}
	if popped != top.Handle() {
		klog.Warningf("cuctx: driver popped context %#x but this thread's mirror expected %#x; "+
			"the native context stack was manipulated outside the Manager", uintptr(popped), uintptr(top.Handle()))
	}
	ctx := s.pop()
	m.stacks.pruneEmpty()
	return ctx, nil
}

// StreamPriorityRange returns the stream priority range of the context
// current on the calling thread. Precondition: a context is current
// (ErrNoCurrentContext otherwise).
func (m *Manager) StreamPriorityRange() (least, greatest int, err error) {
	if m.Current() == nil {
		return 0, 0, ErrNoCurrentContext
	}
	return m.drv.CtxGetStreamPriorityRange()
}

// CacheConfig returns the preferred cache configuration of the context
// current on the calling thread. Precondition: a context is current.
func (m *Manager) CacheConfig() (driver.FuncCache, error) {
	if m.Current() == nil {
		return 0, ErrNoCurrentContext
	}
	return m.drv.CtxGetCacheConfig()
}

// SetCacheConfig sets the preferred cache configuration of the context
// current on the calling thread. Precondition: a context is current.
func (m *Manager) SetCacheConfig(config driver.FuncCache) error {
	if m.Current() == nil {
		return ErrNoCurrentContext
	}
	return m.drv.CtxSetCacheConfig(config)
}

// ResetPersistingL2Cache resets the persisting L2 cache lines of the context
// current on the calling thread. Precondition: a context is current.
func (m *Manager) ResetPersistingL2Cache() error {
	if m.Current() == nil {
		return ErrNoCurrentContext
	}
	return m.drv.CtxResetPersistingL2Cache()
}

// Limit returns the given resource limit of the context current on the
// calling thread. Precondition: a context is current.
func (m *Manager) Limit(limit driver.Limit) (uint64, error) {
	if m.Current() == nil {
		return 0, ErrNoCurrentContext
	}
	return m.drv.CtxGetLimit(limit)
}

// SetLimit sets the given resource limit of the context current on the
// calling thread. Precondition: a context is current.
func (m *Manager) SetLimit(limit driver.Limit, value uint64) error {
	if m.Current() == nil {
		return ErrNoCurrentContext
	}
	return m.drv.CtxSetLimit(limit, value)
}

// SharedMemConfig returns the shared memory bank configuration of the
// context current on the calling thread. Precondition: a context is current.
func (m *Manager) SharedMemConfig() (driver.SharedMemConfig, error) {
	if m.Current() == nil {
		return 0, ErrNoCurrentContext
	}
	return m.drv.CtxGetSharedMemConfig()
}

// SetSharedMemConfig sets the shared memory bank configuration of the
// context current on the calling thread. Precondition: a context is current.
func (m *Manager) SetSharedMemConfig(config driver.SharedMemConfig) error {
	if m.Current() == nil {
		return ErrNoCurrentContext
	}
	return m.drv.CtxSetSharedMemConfig(config)
}

// Flags returns the creation flags of the context current on the calling
// thread. Precondition: a context is current.
func (m *Manager) Flags() (driver.CtxFlags, error) {
	if m.Current() == nil {
		return 0, ErrNoCurrentContext
	}
	return m.drv.CtxGetFlags()
}

// AddModule registers module with the context current on the calling thread,
// pinning its lifetime to the context's. No-op if no context is current.
func (m *Manager) AddModule(module any) {
	if current := m.Current(); current != nil {
		current.AddModule(module)
	}
}

// Synchronize blocks the calling thread until all outstanding work on its
// current context completes. No-op if no context is current.
func (m *Manager) Synchronize() error {
	if m.Current() == nil {
		return nil
	}
	return m.drv.CtxSynchronize()
}
