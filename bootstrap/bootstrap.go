// Package bootstrap wires configuration into connections and model
// collections.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artpar/basemodel/adapters/file"
	"github.com/artpar/basemodel/adapters/memory"
	"github.com/artpar/basemodel/adapters/metrics"
	"github.com/artpar/basemodel/adapters/remote"
	"github.com/artpar/basemodel/adapters/rest"
	"github.com/artpar/basemodel/adapters/yamlfile"
	"github.com/artpar/basemodel/app"
	"github.com/artpar/basemodel/config"
	"github.com/artpar/basemodel/domain/model"
)

// Options configures application initialization.
type Options struct {
	// ConfigPath is the YAML file to load. Without it, or if it does not
	// exist, configuration comes from the environment.
	ConfigPath string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
}

// App holds the wired components.
type App struct {
	Logger   zerolog.Logger
	Registry *remote.Registry
	Metrics  *metrics.Collector

	mu          sync.RWMutex
	config      *config.Config
	gatherer    *prometheus.Registry
	collections map[string]app.Collection
	order       []string
	configPath  string
	onReload    []func(*config.Config)
	stopWatch   context.CancelFunc
	shutdown    bool
}

// New loads configuration and builds the application.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	a, err := NewFromConfig(cfg, opts.LogOutput)
	if err != nil {
		return nil, err
	}
	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			a.configPath = opts.ConfigPath
		}
	}
	return a, nil
}

// NewFromConfig builds the application from an already loaded configuration.
func NewFromConfig(cfg *config.Config, out io.Writer) (*App, error) {
	if out == nil {
		out = os.Stderr
	}

	logger := setupLogger(cfg.Logging, out)

	a := &App{
		Logger:      logger,
		Registry:    remote.NewRegistry(),
		config:      cfg,
		collections: make(map[string]app.Collection, len(cfg.Models)),
	}

	if cfg.Metrics.Enabled {
		a.gatherer = prometheus.NewRegistry()
		a.Metrics = metrics.New(a.gatherer)
		logger.Debug().Msg("prometheus metrics enabled")
	}

	// Connections created on demand from the environment share the
	// logger and metrics of configured ones.
	a.Registry.SetResolver(func() *remote.Connection {
		url := os.Getenv(config.EnvEndpointURL)
		if url == "" {
			return nil
		}
		return remote.NewConnection(url, remote.Options{Logger: &a.Logger, Metrics: a.Metrics})
	})

	a.ApplyConnections(cfg.Connections)

	for _, m := range cfg.Models {
		c, err := a.buildCollection(m)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
		a.collections[m.Name] = c
		a.order = append(a.order, m.Name)
	}

	logger.Debug().
		Int("connections", len(cfg.Connections)).
		Int("models", len(cfg.Models)).
		Msg("application initialized")

	return a, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// Gatherer returns the metrics registry, or nil when metrics are disabled.
func (a *App) Gatherer() prometheus.Gatherer {
	if a.gatherer == nil {
		return nil
	}
	return a.gatherer
}

// Collection returns the collection of the named model.
func (a *App) Collection(name string) (app.Collection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	c, ok := a.collections[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	return c, nil
}

// Collections returns every collection in configuration order.
func (a *App) Collections() []app.Collection {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]app.Collection, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.collections[name])
	}
	return out
}

// ApplyConnections registers every configured connection, replacing
// existing ones by name, and removes connections no longer configured.
func (a *App) ApplyConnections(conns []config.ConnectionConfig) {
	keep := make(map[string]bool, len(conns))
	for _, c := range conns {
		keep[c.Name] = true
		a.Registry.Register(remote.NewConnection(c.URL, remote.Options{
			Name:    c.Name,
			Headers: c.Headers,
			Timeout: c.Timeout,
			Retry:   remote.RetryPolicy{MaxAttempts: c.MaxAttempts},
			Logger:  &a.Logger,
			Metrics: a.Metrics,
		}))
		a.Logger.Debug().Str("connection", c.Name).Str("url", c.URL).Msg("connection registered")
	}

	for _, name := range a.Registry.Names() {
		if !keep[name] {
			a.Registry.Remove(name)
			a.Logger.Info().Str("connection", name).Msg("connection removed")
		}
	}
}

// Reload applies the reloadable fields of cfg: connections and log level.
// Collections keep the models they were built with.
func (a *App) Reload(cfg *config.Config) {
	a.mu.Lock()
	a.config = cfg
	listeners := append([]func(*config.Config){}, a.onReload...)
	a.mu.Unlock()

	setLevel(cfg.Logging.Level)
	a.ApplyConnections(cfg.Connections)

	for _, fn := range listeners {
		fn(cfg)
	}
}

// OnReload registers fn to run after each Reload.
func (a *App) OnReload(fn func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onReload = append(a.onReload, fn)
}

// Watch reloads the configuration file on change and on SIGHUP until ctx
// is done or Shutdown is called. It returns at once when the configuration
// did not come from a file.
func (a *App) Watch(ctx context.Context) error {
	if a.configPath == "" {
		return nil
	}

	h, err := config.NewHolder(a.configPath, a.Logger)
	if err != nil {
		return err
	}
	h.OnChange(a.Reload)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return nil
	}
	a.stopWatch = cancel
	a.mu.Unlock()

	return h.Run(ctx)
}

// Shutdown stops a running Watch.
func (a *App) Shutdown() error {
	a.mu.Lock()
	stop := a.stopWatch
	a.stopWatch = nil
	a.shutdown = true
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	return nil
}

func (a *App) buildCollection(m config.ModelConfig) (app.Collection, error) {
	logger := a.Logger.With().Str("model", m.Name).Logger()

	switch m.Backend {
	case config.BackendMemory:
		b := memory.New(memory.Config{
			Name:       m.Name,
			PrimaryKey: m.PrimaryKey,
			Columns:    m.Columns,
		})
		repo := app.NewRepository[*model.Record](b, logger)
		for i, row := range m.Rows {
			if _, err := repo.Create(context.Background(), row); err != nil {
				return nil, fmt.Errorf("seed row %d: %w", i, err)
			}
		}
		return app.Erase(repo), nil

	case config.BackendFile:
		b, err := file.New(file.Config{
			Source:    m.Source,
			Extension: m.Extension,
			Name:      m.Name,
			Columns:   m.Columns,
			Logger:    &logger,
		})
		if err != nil {
			return nil, err
		}
		return app.Erase(app.NewRepository[*file.Record](b, logger)), nil

	case config.BackendYAML:
		b, err := yamlfile.New(yamlfile.Config{
			Source:    m.Source,
			Extension: m.Extension,
			Name:      m.Name,
			Columns:   m.Columns,
			Logger:    &logger,
		})
		if err != nil {
			return nil, err
		}
		return app.Erase(app.NewRepository[*yamlfile.Record](b, logger)), nil

	case config.BackendREST:
		b, err := rest.New(rest.Config{
			Source:         m.Source,
			Name:           m.Name,
			PrimaryKey:     m.PrimaryKey,
			Columns:        m.Columns,
			ConnectionName: m.Connection,
			Registry:       a.Registry,
			Logger:         &logger,
		})
		if err != nil {
			return nil, err
		}
		return app.Erase(app.NewRepository[*model.Record](b, logger)), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", m.Backend)
	}
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	setLevel(cfg.Level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}

func setLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
