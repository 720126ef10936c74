package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultSettle is how long Run waits after the last file event before
// reloading. Editors often save in several writes.
const DefaultSettle = 100 * time.Millisecond

// Change is one top-level difference between two configurations.
type Change struct {
	Field      string
	Reloadable bool
}

// Diff lists what changed from old to new. Connections and the log level
// apply on reload; models, the log format and metrics need a restart.
func Diff(old, new *Config) []Change {
	var changes []Change
	add := func(field string, reloadable bool, differs bool) {
		if differs {
			changes = append(changes, Change{Field: field, Reloadable: reloadable})
		}
	}

	add("connections", true, !reflect.DeepEqual(old.Connections, new.Connections))
	add("logging.level", true, old.Logging.Level != new.Logging.Level)
	add("models", false, !reflect.DeepEqual(old.Models, new.Models))
	add("logging.format", false, old.Logging.Format != new.Logging.Format)
	add("metrics.enabled", false, old.Metrics.Enabled != new.Metrics.Enabled)
	return changes
}

// Holder keeps the current configuration of one file and reloads it on
// demand, on file change or on SIGHUP.
type Holder struct {
	mu        sync.RWMutex
	config    *Config
	path      string
	logger    zerolog.Logger
	listeners []func(*Config)

	// Settle defaults to DefaultSettle.
	Settle time.Duration
}

// NewHolder loads path and returns a holder for it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		config: cfg,
		path:   abs,
		logger: logger.With().Str("path", abs).Logger(),
		Settle: DefaultSettle,
	}, nil
}

// Get returns the current configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Path returns the absolute path of the watched file.
func (h *Holder) Path() string {
	return h.path
}

// OnChange registers fn to run after every reload that changed something.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload reads the file again. An invalid file keeps the current
// configuration and returns the error. Listeners are not called when the
// file content is equivalent to the current configuration.
func (h *Holder) Reload() ([]Change, error) {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping current config")
		return nil, fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.config
	changes := Diff(prev, next)
	if len(changes) > 0 {
		h.config = next
	}
	listeners := append([]func(*Config){}, h.listeners...)
	h.mu.Unlock()

	if len(changes) == 0 {
		h.logger.Debug().Msg("configuration unchanged")
		return nil, nil
	}

	for _, c := range changes {
		ev := h.logger.Info()
		if !c.Reloadable {
			ev = h.logger.Warn()
		}
		ev.Str("field", c.Field).Bool("reloadable", c.Reloadable).Msg("config changed")
	}

	for _, fn := range listeners {
		fn(next)
	}
	return changes, nil
}

// Run reloads on writes to the file and on SIGHUP until ctx is done.
// It returns nil on cancellation.
func (h *Holder) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// The directory, not the file: atomic saves replace the inode.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	settle := h.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	h.logger.Info().Msg("watching configuration")
	name := filepath.Base(h.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			h.logger.Debug().Str("op", ev.Op.String()).Msg("config file event")
			timer.Reset(settle)

		case <-timer.C:
			_, _ = h.Reload()

		case <-hup:
			h.logger.Info().Msg("received SIGHUP")
			_, _ = h.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}
