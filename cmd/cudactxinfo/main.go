// cudactxinfo prints the context configuration of every CUDA device visible
// to the driver: primary context state and flags, resource limits, cache and
// shared memory configuration, and the stream priority range.
//
// It retains each device's primary context through the cuctx Manager, so it
// doubles as an end-to-end check of the driver binding on a real machine.
// Device names and memory sizes come from NVML when available.
package main

import (
	"flag"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/gomlx/gocuda/cuctx"
	"github.com/gomlx/gocuda/driver"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	manager := must.M1(cuctx.Get())
	drv := manager.Driver()
	version := must.M1(drv.Version())
	fmt.Printf("CUDA driver version %d.%d\n", version/1000, (version%1000)/10)

	nvmlOK := nvml.Init() == nvml.SUCCESS
	if !nvmlOK {
		klog.Warning("NVML not available, device names will be omitted")
	} else {
		defer func() { _ = nvml.Shutdown() }()
	}

	count := must.M1(drv.DeviceGetCount())
	fmt.Printf("%d device(s)\n", count)
	for ordinal := range count {
		dev := must.M1(drv.DeviceGet(ordinal))
		name := must.M1(drv.DeviceGetName(dev))
		if nvmlOK {
			if handle, ret := nvml.DeviceGetHandleByIndex(ordinal); ret == nvml.SUCCESS {
				if memory, ret := handle.GetMemoryInfo(); ret == nvml.SUCCESS {
					name = fmt.Sprintf("%s, %d MiB", name, memory.Total/(1<<20))
				}
			}
		}
		fmt.Printf("\nDevice %d: %s\n", dev, name)
		printDevice(manager, dev)
	}
}

func printDevice(manager *cuctx.Manager, dev driver.Device) {
	pctx := must.M1(manager.RetainPrimary(dev, 0))
	flags, active, err := pctx.State()
	must.M(err)
	fmt.Printf("  primary context: active=%v flags=%s\n", active, flags)
	fmt.Printf("  API version: %d\n", must.M1(pctx.APIVersion()))

	least, greatest, err := pctx.StreamPriorityRange()
	must.M(err)
	fmt.Printf("  stream priorities: %d (least) .. %d (greatest)\n", least, greatest)

	fmt.Printf("  cache config: %s\n", must.M1(pctx.CacheConfig()))
	fmt.Printf("  shared memory: %s\n", must.M1(pctx.SharedMemConfig()))

	for _, limit := range driver.LimitValues() {
		value, err := pctx.Limit(limit)
		if err != nil {
			// Older devices don't support every limit.
			fmt.Printf("  %s: unavailable (%v)\n", limit, err)
			continue
		}
		fmt.Printf("  %s: %d\n", limit, value)
	}
}
