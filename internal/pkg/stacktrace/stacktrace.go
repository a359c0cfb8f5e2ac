// Package stacktrace trims raw goroutine stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame
// under an internal/ directory, in stack order.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)

		_, rest, ok := strings.Cut(line, "/internal/")
		if !ok || !strings.Contains(rest, ".go:") {
			continue
		}

		// drop the " +0x1f" pc offset
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			rest = rest[:i]
		}
		paths = append(paths, "internal/"+rest)
	}

	return paths
}
