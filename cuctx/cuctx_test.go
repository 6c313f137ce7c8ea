package cuctx

// Common initialization and helpers for all test files.

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("Failed: %+v", errors.WithStack(err)))
	}
}

func must1[T any](t T, err error) T {
	must(err)
	return t
}
