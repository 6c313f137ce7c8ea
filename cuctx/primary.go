package cuctx

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/gocuda/driver"
)

// PrimaryContext is a device's shared primary context, obtained with
// Manager.RetainPrimary. At most one *PrimaryContext exists per device per
// process -- the Manager's registry is the single source of truth -- and it
// is conceptually shared by every caller that retains the same device.
//
// The native retain taken on construction is released by Release, or
// eventually by the finalizer. A released PrimaryContext is dead: the
// Manager replaces it with a freshly retained one on the next RetainPrimary
// for the same device. Absent an explicit Release the registry keeps its
// entries reachable for the life of the process; primary contexts are
// coarse, process-scoped resources and are meant to be.
type PrimaryContext struct {
	ctxBase
}

var _ Context = (*PrimaryContext)(nil)

func newPrimaryContext(drv driver.Driver, dev driver.Device) (*PrimaryContext, error) {
	handle, err := drv.PrimaryCtxRetain(dev)
	if err != nil {
		return nil, errors.WithMessagef(err, "retaining primary context of device %d", dev)
	}
	pctx := &PrimaryContext{ctxBase: newCtxBase(drv, handle, dev)}
	runtime.SetFinalizer(pctx, finalizePrimaryContext)
	return pctx, nil
}

func finalizePrimaryContext(pctx *PrimaryContext) {
	if err := pctx.Release(); err != nil {
		klog.Errorf("PrimaryContext.Release failed: %+v", err)
	}
}

// IsPrimary implements Context, always true for PrimaryContext.
func (pctx *PrimaryContext) IsPrimary() bool {
	return true
}

// Release releases the retain taken when the PrimaryContext was constructed
// and invalidates pctx. It is automatically called if the PrimaryContext is
// garbage collected. Releasing twice is a no-op.
func (pctx *PrimaryContext) Release() error {
	if pctx.handle == 0 {
		return nil
	}
	defer runtime.KeepAlive(pctx)
	err := pctx.drv.PrimaryCtxRelease(pctx.dev)
	pctx.handle = 0
	pctx.modules = nil
	return err
}

// SetFlags sets the flags the device's primary context is initialized with.
// The driver only honors this before the primary context becomes active
// (first activation); afterwards it reports an error. That is a driver-level
// constraint, not enforced here.
func (pctx *PrimaryContext) SetFlags(flags driver.CtxFlags) error {
	return pctx.drv.PrimaryCtxSetFlags(pctx.dev, flags)
}

// State returns the primary context's flags and whether it is active on the
// device.
func (pctx *PrimaryContext) State() (flags driver.CtxFlags, active bool, err error) {
	return pctx.drv.PrimaryCtxGetState(pctx.dev)
}

// Reset is meant to destroy all allocations and reset all state on the
// device's primary context. Its semantics are not wired up yet -- notably
// what happens to other holders of the same primary context and to
// registered modules -- so it surfaces ErrNotImplemented instead of
// pretending to work.
func (pctx *PrimaryContext) Reset() error {
	return errors.WithMessage(ErrNotImplemented, "PrimaryContext.Reset")
}

// String implements fmt.Stringer.
func (pctx *PrimaryContext) String() string {
	if pctx.handle == 0 {
		return "PrimaryContext(released)"
	}
	return fmt.Sprintf("PrimaryContext(device=%d) <%#x>", pctx.dev, uintptr(pctx.handle))
}
