// Package stacktrace trims goroutine stacks down to this module's frames.
package stacktrace

import (
	"fmt"
	"runtime"
	"strings"
)

const maxDepth = 64

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// the calling goroutine that lives under an internal/ directory, innermost
// first. skip counts frames above the caller, as in runtime.Callers.
func InternalPaths(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var paths []string
	for {
		frame, more := frames.Next()
		if _, rel, ok := strings.Cut(frame.File, "/internal/"); ok {
			paths = append(paths, fmt.Sprintf("internal/%s:%d", rel, frame.Line))
		}
		if !more {
			break
		}
	}
	return paths
}
