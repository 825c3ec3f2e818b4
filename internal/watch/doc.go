// Package watch provides the daemon that keeps compiled pack stores
// synchronized with their YAML source trees.
//
// The daemon:
//  1. Watches the source root recursively for YAML file changes
//  2. Debounces changes per pack so rapid saves batch into one compile
//  3. Recompiles each settled pack through the pipeline
//  4. Records every run in a fixed-capacity operation log
//
// # Architecture
//
// The package is composed of:
//
//   - Watcher: recursive fsnotify monitoring with ignore patterns and
//     content hashing that drops writes which changed nothing
//   - Daemon: per-pack debouncing and recompilation
//   - Log: ring buffer of recent operations, served over the reload API
//   - Pidfile helpers: single-instance guard for the daemon process
//
// # Usage
//
//	p := pipeline.New(m, pipeline.Options{RootDir: root})
//	d, err := watch.New(p, nil, nil)
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	return d.Run(ctx)
//
// # Event Mapping
//
// fsnotify operations translate as follows:
//
//   - Create → OpCreate (new directories join the watch set, and files
//     found inside them are reported as creates)
//   - Write → OpModify
//   - Remove → OpDelete
//   - Rename → OpDelete (the new name raises its own create)
//
// Chmod events and writes that left the content byte-identical are
// dropped.
//
// # Thread Safety
//
// The watcher's channels are safe for one consumer; the daemon is that
// consumer. The operation log is safe for concurrent use, which is how
// the reload server reads it while the daemon appends.
//
// # Graceful Shutdown
//
// Run blocks until its context is cancelled, then stops the watcher and
// returns. Pending queued changes are abandoned; the next start's
// initial compile covers them.
package watch
