//go:build meshdebug

package kernel

import "fmt"

// assertIndices panics when a triangle references a vertex that has not
// been emitted yet. Only compiled in with -tags=meshdebug.
func assertIndices(n int, idx ...uint32) {
	for _, i := range idx {
		if int(i) >= n {
			panic(fmt.Sprintf("kernel: triangle index %d out of range (%d vertices emitted)", i, n))
		}
	}
}
