//go:build !unix

package watch

// processAlive cannot probe for a process on this platform. Any
// recorded pid is treated as live, so a stale pidfile errs on the side
// of refusing a second daemon rather than starting two.
func processAlive(pid int) bool {
	return pid > 0
}
