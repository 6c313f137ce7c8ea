package driver

import (
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LibcudaPathEnv is the environment variable that overrides where the CUDA
// driver library is searched. It may be a ":" separated list of candidate
// paths (or sonames); the first one that dlopen accepts wins.
const LibcudaPathEnv = "GOCUDA_LIBCUDA_PATH"

// defaultLibcudaNames are tried in order when LibcudaPathEnv is not set.
// The driver ships its own stub loader paths, so plain sonames resolved by
// the dynamic linker are the right default.
var defaultLibcudaNames = []string{"libcuda.so.1", "libcuda.so"}

// Function pointers into libcuda, registered by Load. CUDA renamed several
// entry points when it grew 64-bit variants; the "_v2" symbols are the
// current ones.
var (
	cuInit             func(flags uint32) Result
	cuDriverGetVersion func(version *int32) Result

	cuDeviceGet      func(device *int32, ordinal int32) Result
	cuDeviceGetCount func(count *int32) Result
	cuDeviceGetName  func(name *byte, length int32, dev int32) Result

	cuCtxCreate  func(pctx *uintptr, flags uint32, dev int32) Result
	cuCtxDestroy func(ctx uintptr) Result

	cuDevicePrimaryCtxRetain   func(pctx *uintptr, dev int32) Result
	cuDevicePrimaryCtxRelease  func(dev int32) Result
	cuDevicePrimaryCtxGetState func(dev int32, flags *uint32, active *int32) Result
	cuDevicePrimaryCtxSetFlags func(dev int32, flags uint32) Result

	cuCtxPushCurrent func(ctx uintptr) Result
	cuCtxPopCurrent  func(pctx *uintptr) Result
	cuCtxSetCurrent  func(ctx uintptr) Result
	cuCtxGetCurrent  func(pctx *uintptr) Result

	cuCtxSynchronize            func() Result
	cuCtxGetFlags               func(flags *uint32) Result
	cuCtxGetApiVersion          func(ctx uintptr, version *uint32) Result
	cuCtxGetStreamPriorityRange func(least, greatest *int32) Result
	cuCtxGetCacheConfig         func(config *int32) Result
	cuCtxSetCacheConfig         func(config int32) Result
	cuCtxResetPersistingL2Cache func() Result
	cuCtxGetLimit               func(value *uint64, limit int32) Result
	cuCtxSetLimit               func(limit int32, value uint64) Result
	cuCtxGetSharedMemConfig     func(config *int32) Result
	cuCtxSetSharedMemConfig     func(config int32) Result
)

// Libcuda implements Driver over the real CUDA driver library, loaded with
// dlopen (no cgo). Use Load to get the process-wide instance.
type Libcuda struct {
	path string
}

var _ Driver = (*Libcuda)(nil)

var (
	// loadedLibcuda caches the loaded driver. Protected by muLibcuda.
	muLibcuda     sync.Mutex
	loadedLibcuda *Libcuda
)

// libcudaCandidates returns the dlopen candidates, honoring LibcudaPathEnv.
func libcudaCandidates() []string {
	if paths, found := os.LookupEnv(LibcudaPathEnv); found {
		candidates := slices.DeleteFunc(strings.Split(paths, ":"), func(p string) bool {
			return p == "" // Remove empty paths.
		})
		if len(candidates) > 0 {
			return candidates
		}
	}
	return defaultLibcudaNames
}

// Load opens the CUDA driver library, binds the cu* entry points and calls
// cuInit. The loaded driver is a singleton and cached: repeated calls return
// the same *Libcuda.
//
// It uses a mutex to serialize (make it safe) calls from different
// goroutines.
func Load() (*Libcuda, error) {
	muLibcuda.Lock()
	defer muLibcuda.Unlock()
	if loadedLibcuda != nil {
		return loadedLibcuda, nil
	}

	candidates := libcudaCandidates()
	var lib uintptr
	var path string
	var err error
	for _, candidate := range candidates {
		lib, err = purego.Dlopen(candidate, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err == nil {
			path = candidate
			break
		}
		klog.V(1).Infof("dlopen(%q): %v", candidate, err)
	}
	if path == "" {
		return nil, errors.Wrapf(err, "can't load the CUDA driver library, tried %v: is the NVIDIA driver "+
			"installed? Set %s to the path of libcuda.so to override the search", candidates, LibcudaPathEnv)
	}

	registerFuncs(lib)
	if err := toError("cuInit", cuInit(0)); err != nil {
		return nil, errors.WithMessagef(err, "initializing the CUDA driver loaded from %q", path)
	}
	loadedLibcuda = &Libcuda{path: path}
	klog.V(1).Infof("Loaded CUDA driver from %q", path)
	return loadedLibcuda, nil
}

func registerFuncs(lib uintptr) {
	purego.RegisterLibFunc(&cuInit, lib, "cuInit")
	purego.RegisterLibFunc(&cuDriverGetVersion, lib, "cuDriverGetVersion")
	purego.RegisterLibFunc(&cuDeviceGet, lib, "cuDeviceGet")
	purego.RegisterLibFunc(&cuDeviceGetCount, lib, "cuDeviceGetCount")
	purego.RegisterLibFunc(&cuDeviceGetName, lib, "cuDeviceGetName")
	purego.RegisterLibFunc(&cuCtxCreate, lib, "cuCtxCreate_v2")
	purego.RegisterLibFunc(&cuCtxDestroy, lib, "cuCtxDestroy_v2")
	purego.RegisterLibFunc(&cuDevicePrimaryCtxRetain, lib, "cuDevicePrimaryCtxRetain")
	purego.RegisterLibFunc(&cuDevicePrimaryCtxRelease, lib, "cuDevicePrimaryCtxRelease_v2")
	purego.RegisterLibFunc(&cuDevicePrimaryCtxGetState, lib, "cuDevicePrimaryCtxGetState")
	purego.RegisterLibFunc(&cuDevicePrimaryCtxSetFlags, lib, "cuDevicePrimaryCtxSetFlags_v2")
	purego.RegisterLibFunc(&cuCtxPushCurrent, lib, "cuCtxPushCurrent_v2")
	purego.RegisterLibFunc(&cuCtxPopCurrent, lib, "cuCtxPopCurrent_v2")
	purego.RegisterLibFunc(&cuCtxSetCurrent, lib, "cuCtxSetCurrent")
	purego.RegisterLibFunc(&cuCtxGetCurrent, lib, "cuCtxGetCurrent")
	purego.RegisterLibFunc(&cuCtxSynchronize, lib, "cuCtxSynchronize")
	purego.RegisterLibFunc(&cuCtxGetFlags, lib, "cuCtxGetFlags")
	purego.RegisterLibFunc(&cuCtxGetApiVersion, lib, "cuCtxGetApiVersion")
	purego.RegisterLibFunc(&cuCtxGetStreamPriorityRange, lib, "cuCtxGetStreamPriorityRange")
	purego.RegisterLibFunc(&cuCtxGetCacheConfig, lib, "cuCtxGetCacheConfig")
	purego.RegisterLibFunc(&cuCtxSetCacheConfig, lib, "cuCtxSetCacheConfig")
	purego.RegisterLibFunc(&cuCtxResetPersistingL2Cache, lib, "cuCtxResetPersistingL2Cache")
	purego.RegisterLibFunc(&cuCtxGetLimit, lib, "cuCtxGetLimit")
	purego.RegisterLibFunc(&cuCtxSetLimit, lib, "cuCtxSetLimit")
	purego.RegisterLibFunc(&cuCtxGetSharedMemConfig, lib, "cuCtxGetSharedMemConfig")
	purego.RegisterLibFunc(&cuCtxSetSharedMemConfig, lib, "cuCtxSetSharedMemConfig")
}

// Path returns the path (or soname) libcuda was loaded from.
func (l *Libcuda) Path() string {
	return l.path
}

// Version implements Driver.
func (l *Libcuda) Version() (int, error) {
	var version int32
	if err := toError("cuDriverGetVersion", cuDriverGetVersion(&version)); err != nil {
		return 0, err
	}
	return int(version), nil
}

// DeviceGetCount implements Driver.
func (l *Libcuda) DeviceGetCount() (int, error) {
	var count int32
	if err := toError("cuDeviceGetCount", cuDeviceGetCount(&count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeviceGet implements Driver.
func (l *Libcuda) DeviceGet(ordinal int) (Device, error) {
	var dev int32
	if err := toError("cuDeviceGet", cuDeviceGet(&dev, int32(ordinal))); err != nil {
		return 0, err
	}
	return Device(dev), nil
}

// DeviceGetName implements Driver.
func (l *Libcuda) DeviceGetName(dev Device) (string, error) {
	buf := make([]byte, 256)
	if err := toError("cuDeviceGetName", cuDeviceGetName(&buf[0], int32(len(buf)), int32(dev))); err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}

// CtxCreate implements Driver. cuCtxCreate leaves the new context current on
// the calling thread; it is popped right away so the caller's context stack
// is unchanged.
func (l *Libcuda) CtxCreate(dev Device, flags CtxFlags) (Context, error) {
	var ctx uintptr
	if err := toError("cuCtxCreate", cuCtxCreate(&ctx, uint32(flags), int32(dev))); err != nil {
		return 0, err
	}
	var popped uintptr
	if err := toError("cuCtxPopCurrent", cuCtxPopCurrent(&popped)); err != nil {
		return 0, err
	}
	return Context(ctx), nil
}

// CtxDestroy implements Driver.
func (l *Libcuda) CtxDestroy(ctx Context) error {
	return toError("cuCtxDestroy", cuCtxDestroy(uintptr(ctx)))
}

// PrimaryCtxRetain implements Driver.
func (l *Libcuda) PrimaryCtxRetain(dev Device) (Context, error) {
	var ctx uintptr
	if err := toError("cuDevicePrimaryCtxRetain", cuDevicePrimaryCtxRetain(&ctx, int32(dev))); err != nil {
		return 0, err
	}
	return Context(ctx), nil
}

// PrimaryCtxRelease implements Driver.
func (l *Libcuda) PrimaryCtxRelease(dev Device) error {
	return toError("cuDevicePrimaryCtxRelease", cuDevicePrimaryCtxRelease(int32(dev)))
}

// PrimaryCtxGetState implements Driver.
func (l *Libcuda) PrimaryCtxGetState(dev Device) (CtxFlags, bool, error) {
	var flags uint32
	var active int32
	if err := toError("cuDevicePrimaryCtxGetState", cuDevicePrimaryCtxGetState(int32(dev), &flags, &active)); err != nil {
		return 0, false, err
	}
	return CtxFlags(flags), active != 0, nil
}

// PrimaryCtxSetFlags implements Driver.
func (l *Libcuda) PrimaryCtxSetFlags(dev Device, flags CtxFlags) error {
	return toError("cuDevicePrimaryCtxSetFlags", cuDevicePrimaryCtxSetFlags(int32(dev), uint32(flags)))
}

// CtxPushCurrent implements Driver.
func (l *Libcuda) CtxPushCurrent(ctx Context) error {
	return toError("cuCtxPushCurrent", cuCtxPushCurrent(uintptr(ctx)))
}

// CtxPopCurrent implements Driver.
func (l *Libcuda) CtxPopCurrent() (Context, error) {
	var ctx uintptr
	if err := toError("cuCtxPopCurrent", cuCtxPopCurrent(&ctx)); err != nil {
		return 0, err
	}
	return Context(ctx), nil
}

// CtxSetCurrent implements Driver.
func (l *Libcuda) CtxSetCurrent(ctx Context) error {
	return toError("cuCtxSetCurrent", cuCtxSetCurrent(uintptr(ctx)))
}

// CtxGetCurrent implements Driver.
func (l *Libcuda) CtxGetCurrent() (Context, error) {
	var ctx uintptr
	if err := toError("cuCtxGetCurrent", cuCtxGetCurrent(&ctx)); err != nil {
		return 0, err
	}
	return Context(ctx), nil
}

// CtxSynchronize implements Driver.
func (l *Libcuda) CtxSynchronize() error {
	return toError("cuCtxSynchronize", cuCtxSynchronize())
}

// CtxGetFlags implements Driver.
func (l *Libcuda) CtxGetFlags() (CtxFlags, error) {
	var flags uint32
	if err := toError("cuCtxGetFlags", cuCtxGetFlags(&flags)); err != nil {
		return 0, err
	}
	return CtxFlags(flags), nil
}

// CtxGetAPIVersion implements Driver.
func (l *Libcuda) CtxGetAPIVersion(ctx Context) (uint32, error) {
	var version uint32
	if err := toError("cuCtxGetApiVersion", cuCtxGetApiVersion(uintptr(ctx), &version)); err != nil {
		return 0, err
	}
	return version, nil
}

// CtxGetStreamPriorityRange implements Driver.
func (l *Libcuda) CtxGetStreamPriorityRange() (least, greatest int, err error) {
	var cLeast, cGreatest int32
	if err := toError("cuCtxGetStreamPriorityRange", cuCtxGetStreamPriorityRange(&cLeast, &cGreatest)); err != nil {
		return 0, 0, err
	}
	return int(cLeast), int(cGreatest), nil
}

// CtxGetCacheConfig implements Driver.
func (l *Libcuda) CtxGetCacheConfig() (FuncCache, error) {
	var config int32
	if err := toError("cuCtxGetCacheConfig", cuCtxGetCacheConfig(&config)); err != nil {
		return 0, err
	}
	return FuncCache(config), nil
}

// CtxSetCacheConfig implements Driver.
func (l *Libcuda) CtxSetCacheConfig(config FuncCache) error {
	return toError("cuCtxSetCacheConfig", cuCtxSetCacheConfig(int32(config)))
}

// CtxResetPersistingL2Cache implements Driver.
func (l *Libcuda) CtxResetPersistingL2Cache() error {
	return toError("cuCtxResetPersistingL2Cache", cuCtxResetPersistingL2Cache())
}

// CtxGetLimit implements Driver.
func (l *Libcuda) CtxGetLimit(limit Limit) (uint64, error) {
	var value uint64
	if err := toError("cuCtxGetLimit", cuCtxGetLimit(&value, int32(limit))); err != nil {
		return 0, err
	}
	return value, nil
}

// CtxSetLimit implements Driver.
func (l *Libcuda) CtxSetLimit(limit Limit, value uint64) error {
	return toError("cuCtxSetLimit", cuCtxSetLimit(int32(limit), value))
}

// CtxGetSharedMemConfig implements Driver.
func (l *Libcuda) CtxGetSharedMemConfig() (SharedMemConfig, error) {
	var config int32
	if err := toError("cuCtxGetSharedMemConfig", cuCtxGetSharedMemConfig(&config)); err != nil {
		return 0, err
	}
	return SharedMemConfig(config), nil
}

// CtxSetSharedMemConfig implements Driver.
func (l *Libcuda) CtxSetSharedMemConfig(config SharedMemConfig) error {
	return toError("cuCtxSetSharedMemConfig", cuCtxSetSharedMemConfig(int32(config)))
}
