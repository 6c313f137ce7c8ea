package driver

import "strings"

// CtxFlags are the scheduling and resource flags a context is created (or a
// primary context initialized) with. Values match the CUctx_flags enum.
type CtxFlags uint32

const (
	// SchedAuto lets the driver pick a scheduling policy based on the number
	// of contexts vs. logical processors. The zero (default) value.
	SchedAuto CtxFlags = 0x0

	// SchedSpin spin-waits on results from the device.
	SchedSpin CtxFlags = 0x1

	// SchedYield yields the thread while waiting for results.
	SchedYield CtxFlags = 0x2

	// SchedBlockingSync blocks the thread on a synchronization primitive.
	SchedBlockingSync CtxFlags = 0x4

	// MapHost enables mapped pinned allocations.
	MapHost CtxFlags = 0x8

	// LmemResizeToMax keeps local memory allocations resized for the
	// largest kernel launched so far.
	LmemResizeToMax CtxFlags = 0x10
)

const schedMask CtxFlags = SchedSpin | SchedYield | SchedBlockingSync

// String renders the flags the way nvidia-smi style tools do, one name per
// set flag.
func (f CtxFlags) String() string {
	var parts []string
	switch f & schedMask {
	case SchedSpin:
		parts = append(parts, "SchedSpin")
	case SchedYield:
		parts = append(parts, "SchedYield")
	case SchedBlockingSync:
		parts = append(parts, "SchedBlockingSync")
	default:
		parts = append(parts, "SchedAuto")
	}
	if f&MapHost != 0 {
		parts = append(parts, "MapHost")
	}
	if f&LmemResizeToMax != 0 {
		parts = append(parts, "LmemResizeToMax")
	}
	return strings.Join(parts, "|")
}

// Limit identifies a per-context resource limit (CUlimit).
type Limit int32

//go:generate go tool enumer -type=Limit enums.go

const (
	// LimitStackSize is the stack size in bytes of each GPU thread.
	LimitStackSize Limit = 0

	// LimitPrintfFIFOSize is the size in bytes of the FIFO used by device
	// printf.
	LimitPrintfFIFOSize Limit = 1

	// LimitMallocHeapSize is the size in bytes of the heap used by device
	// malloc and free.
	LimitMallocHeapSize Limit = 2

	// LimitDevRuntimeSyncDepth is the maximum grade depth at which a thread
	// can issue a device runtime synchronization.
	LimitDevRuntimeSyncDepth Limit = 3

	// LimitDevRuntimePendingLaunchCount is the maximum number of
	// outstanding device runtime launches.
	LimitDevRuntimePendingLaunchCount Limit = 4

	// LimitMaxL2FetchGranularity is the L2 fetch granularity hint, in
	// bytes.
	LimitMaxL2FetchGranularity Limit = 5

	// LimitPersistingL2CacheSize is the size in bytes of the persisting L2
	// cache.
	LimitPersistingL2CacheSize Limit = 6
)

// FuncCache is a context's preferred on-chip split between L1 cache and
// shared memory (CUfunc_cache).
type FuncCache int32

//go:generate go tool enumer -type=FuncCache enums.go

const (
	FuncCachePreferNone   FuncCache = 0
	FuncCachePreferShared FuncCache = 1
	FuncCachePreferL1     FuncCache = 2
	FuncCachePreferEqual  FuncCache = 3
)

// SharedMemConfig is a context's shared memory bank size configuration
// (CUsharedconfig).
type SharedMemConfig int32

//go:generate go tool enumer -type=SharedMemConfig enums.go

const (
	SharedMemDefaultBankSize   SharedMemConfig = 0
	SharedMemFourByteBankSize  SharedMemConfig = 1
	SharedMemEightByteBankSize SharedMemConfig = 2
)
