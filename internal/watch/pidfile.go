package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrDaemonRunning reports a pidfile owned by a process that is still
// alive.
var ErrDaemonRunning = errors.New("watch daemon already running")

// WritePIDFile records the current process's pid at path. It refuses
// when the file already names a live process; stale files left by
// crashed daemons are replaced.
func WritePIDFile(path string) error {
	if pid, err := ReadPIDFile(path); err == nil && processAlive(pid) {
		return fmt.Errorf("%w: pid %d (%s)", ErrDaemonRunning, pid, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create pidfile directory: %w", err)
		}
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pidfile %s: %w", path, err)
	}
	return nil
}

// ReadPIDFile returns the pid recorded at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pidfile %s: %w", path, err)
	}
	return pid, nil
}

// RemovePIDFile deletes the pidfile. A missing file is not an error.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pidfile %s: %w", path, err)
	}
	return nil
}
