/*package thread contains small helpers for sizing worker pools.*/
package thread

import (
	"runtime"
)

// Workers converts a configured thread count into a worker count that can
// be handed to a pool: values below 1 mean one worker per CPU, and requests
// beyond the CPU count are clamped rather than oversubscribed.
func Workers(n int) int {
	max := runtime.NumCPU()
	if n < 1 || n > max { return max }
	return n
}

// Set clamps n the same way as Workers and applies it to GOMAXPROCS,
// returning the count that was applied.
func Set(n int) int {
	n = Workers(n)
	runtime.GOMAXPROCS(n)
	return n
}
