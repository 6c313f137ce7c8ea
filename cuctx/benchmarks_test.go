package cuctx

import (
	"runtime"
	"testing"

	"github.com/gomlx/gocuda/driver"
)

// Benchmarks run against the fake driver, so they measure this package's
// bookkeeping (mirror lookup, guard push/pop), not device latency.

func BenchmarkCurrent(b *testing.B) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	m := newManager(newFakeDriver())
	ctx := must1(m.CreateContext(0, 0))
	must(m.Push(ctx))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Current()
	}
}

func BenchmarkGuardAlreadyCurrent(b *testing.B) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	m := newManager(newFakeDriver())
	ctx := must1(m.CreateContext(0, 0))
	must(m.Push(ctx))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = must1(ctx.Limit(driver.LimitStackSize))
	}
}

func BenchmarkGuardPushPop(b *testing.B) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	m := newManager(newFakeDriver())
	ctx := must1(m.CreateContext(0, 0))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = must1(ctx.Limit(driver.LimitStackSize))
	}
}

func BenchmarkPushPop(b *testing.B) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	m := newManager(newFakeDriver())
	ctx := must1(m.CreateContext(0, 0))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		must(m.Push(ctx))
		_ = must1(m.Pop())
	}
}
