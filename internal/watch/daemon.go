package watch

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cdmessin/grim-hollow-pack/internal/pipeline"
)

// Config holds configuration for the watch daemon.
type Config struct {
	// Debounce is how long a pack's changes must settle before it is
	// recompiled. Rapid saves within the window batch into one compile.
	Debounce time.Duration

	// InitialCompile compiles every pack once before watching begins,
	// so the stores match the tree from the first second.
	InitialCompile bool

	// OpLogSize caps the in-memory operation log.
	OpLogSize int

	// OnOperation, when set, observes every recorded operation. The
	// reload server uses it to broadcast rebuilds.
	OnOperation func(Operation)

	// Logger receives daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns the default daemon configuration.
func DefaultConfig() *Config {
	return &Config{
		Debounce:       400 * time.Millisecond,
		InitialCompile: true,
		OpLogSize:      256,
		Logger:         log.New(os.Stderr),
	}
}

// Daemon recompiles packs as their YAML sources change. Changes are
// queued per pack and compiled only after the debounce window passes
// without further edits.
type Daemon struct {
	pipe    *pipeline.Pipeline
	watcher *Watcher
	config  *Config
	oplog   *Log

	queueMu sync.Mutex
	queue   map[string]time.Time
}

// New creates a daemon driving the given pipeline. Ignore patterns are
// passed through to the source watcher.
func New(pipe *pipeline.Pipeline, ignore []string, config *Config) (*Daemon, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr)
	}
	if config.Debounce <= 0 {
		config.Debounce = 400 * time.Millisecond
	}

	watcher, err := NewWatcher(pipe.SourceRoot(), ignore)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		pipe:    pipe,
		watcher: watcher,
		config:  config,
		oplog:   NewLog(config.OpLogSize),
		queue:   make(map[string]time.Time),
	}, nil
}

// OpLog returns the daemon's operation log.
func (d *Daemon) OpLog() *Log {
	return d.oplog
}

// Run blocks, recompiling settled packs until ctx is cancelled. Compile
// failures are recorded and logged but do not stop the daemon; the next
// save gets another chance.
func (d *Daemon) Run(ctx context.Context) error {
	if d.config.InitialCompile {
		d.compileAll(ctx)
	}

	if err := d.watcher.Start(); err != nil {
		return err
	}
	defer d.watcher.Stop()

	d.config.Logger.Info("watching for changes",
		"root", d.watcher.Root(),
		"debounce", d.config.Debounce)

	ticker := time.NewTicker(d.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.config.Logger.Info("watch daemon stopping")
			return nil
		case change, ok := <-d.watcher.Events():
			if !ok {
				return nil
			}
			d.config.Logger.Debug("source change",
				"pack", change.Pack,
				"op", change.Op.String(),
				"path", change.Path)
			d.queueChange(change.Pack)
		case err, ok := <-d.watcher.Errors():
			if !ok {
				return nil
			}
			d.config.Logger.Warn("watcher error", "err", err)
		case <-ticker.C:
			d.compileSettled(ctx)
		}
	}
}

// queueChange marks a pack dirty, restarting its debounce window.
func (d *Daemon) queueChange(pack string) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.queue[pack] = time.Now()
}

// compileSettled recompiles every queued pack whose debounce window has
// elapsed.
func (d *Daemon) compileSettled(ctx context.Context) {
	d.queueMu.Lock()
	now := time.Now()
	var due []string
	for pack, queuedAt := range d.queue {
		if now.Sub(queuedAt) < d.config.Debounce {
			continue
		}
		due = append(due, pack)
		delete(d.queue, pack)
	}
	d.queueMu.Unlock()

	sort.Strings(due)
	for _, pack := range due {
		d.compilePack(ctx, pack)
	}
}

// compileAll compiles every manifest pack and records the results.
func (d *Daemon) compileAll(ctx context.Context) {
	start := time.Now()
	results, err := d.pipe.CompileAll(ctx, nil)
	for _, result := range results {
		d.record(Operation{
			Pack:      result.Pack,
			Event:     "compile",
			Documents: result.Documents,
			Skipped:   result.Skipped,
			At:        start,
			Duration:  time.Since(start),
		})
	}
	if err != nil {
		d.record(Operation{
			Event:    "compile",
			Err:      err.Error(),
			At:       start,
			Duration: time.Since(start),
		})
		d.config.Logger.Error("initial compile failed", "err", err)
	}
}

// compilePack recompiles one pack. Change events from directories the
// manifest does not list are reported once and dropped.
func (d *Daemon) compilePack(ctx context.Context, name string) {
	if _, err := d.pipe.Manifest().Pack(name); err != nil {
		d.config.Logger.Warn("change in unmanaged directory", "dir", name)
		return
	}

	start := time.Now()
	results, err := d.pipe.CompileAll(ctx, []string{name})
	op := Operation{
		Pack:     name,
		Event:    "compile",
		At:       start,
		Duration: time.Since(start),
	}
	if err != nil {
		op.Err = err.Error()
		d.config.Logger.Error("recompile failed", "pack", name, "err", err)
	} else if len(results) == 1 {
		op.Documents = results[0].Documents
		op.Skipped = results[0].Skipped
	}
	d.record(op)
}

// record appends the operation to the log and notifies the observer.
func (d *Daemon) record(op Operation) {
	op = d.oplog.Append(op)
	if d.config.OnOperation != nil {
		d.config.OnOperation(op)
	}
}
