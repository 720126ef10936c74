package config_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/basemodel/config"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Connections[0].URL != "http://localhost:3000" {
		t.Errorf("URL = %s, want http://localhost:3000", got.Connections[0].URL)
	}
	if !filepath.IsAbs(h.Path()) {
		t.Errorf("Path = %s, want absolute", h.Path())
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}

	if h.Get().Connections[0].MaxAttempts != 2 {
		t.Errorf("initial MaxAttempts = %d, want 2", h.Get().Connections[0].MaxAttempts)
	}

	newContent := validConfig() + `
logging:
  level: debug
`
	newContent = strings.Replace(newContent, `url: "http://localhost:3000"`, `url: "http://localhost:3000"
    max_attempts: 4`, 1)
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	changes, err := h.Reload()
	if err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	want := []config.Change{
		{Field: "connections", Reloadable: true},
		{Field: "logging.level", Reloadable: true},
	}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("changes = %+v, want %+v", changes, want)
	}
	if h.Get().Connections[0].MaxAttempts != 4 {
		t.Errorf("reloaded MaxAttempts = %d, want 4", h.Get().Connections[0].MaxAttempts)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}

	var mu sync.Mutex
	var received []*config.Config
	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		received = append(received, cfg)
		mu.Unlock()
	})

	// Same content: no listener call.
	if _, err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	newContent := `
connections:
  - url: "http://localhost:4000"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}
	if _, err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("OnChange called %d times, want 1", len(received))
	}
	if received[0].Connections[0].URL != "http://localhost:4000" {
		t.Errorf("callback received URL = %s, want http://localhost:4000", received[0].Connections[0].URL)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}

	invalidContent := `
models:
  - backend: "rest"
`
	if err := os.WriteFile(path, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if _, err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}

	if h.Get().Connections[0].URL != "http://localhost:3000" {
		t.Errorf("should keep old config, got URL = %s", h.Get().Connections[0].URL)
	}
}

func TestHolder_Run(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.Settle = 20 * time.Millisecond

	changed := make(chan string, 8)
	h.OnChange(func(cfg *config.Config) {
		changed <- firstURL(cfg)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	newContent := `
connections:
  - url: "http://localhost:5000"
`
	// Write until the watcher is surely registered and a reload lands.
	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for firstURL(h.Get()) != "http://localhost:5000" {
		select {
		case <-tick.C:
			if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
				t.Fatalf("write new config: %v", err)
			}
		case <-deadline:
			t.Fatal("file watcher did not trigger reload")
		}
	}

	select {
	case got := <-changed:
		if got != "http://localhost:5000" {
			t.Errorf("listener got URL = %s, want http://localhost:5000", got)
		}
	case <-time.After(time.Second):
		t.Fatal("listener was not called")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnChange(func(*config.Config) {})
			_, _ = h.Reload()
		}()
	}

	wg.Wait()
}

func TestDiff(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Connections: []config.ConnectionConfig{{Name: "default", URL: "http://a"}},
			Models:      []config.ModelConfig{{Name: "Post", Backend: "memory"}},
			Logging:     config.LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []config.Change
	}{
		{"identical", func(*config.Config) {}, nil},
		{"connection url", func(c *config.Config) { c.Connections[0].URL = "http://b" },
			[]config.Change{{Field: "connections", Reloadable: true}}},
		{"connection header", func(c *config.Config) { c.Connections[0].Headers = map[string]string{"X": "1"} },
			[]config.Change{{Field: "connections", Reloadable: true}}},
		{"model added", func(c *config.Config) {
			c.Models = append(c.Models, config.ModelConfig{Name: "Doc"})
		}, []config.Change{{Field: "models", Reloadable: false}}},
		{"format and metrics", func(c *config.Config) {
			c.Logging.Format = "console"
			c.Metrics.Enabled = true
		}, []config.Change{
			{Field: "logging.format", Reloadable: false},
			{Field: "metrics.enabled", Reloadable: false},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base()
			tt.mutate(next)
			if got := config.Diff(base(), next); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Helpers

func firstURL(cfg *config.Config) string {
	if len(cfg.Connections) == 0 {
		return ""
	}
	return cfg.Connections[0].URL
}

func validConfig() string {
	return `
connections:
  - url: "http://localhost:3000"

models:
  - name: "Post"
    columns: ["title"]
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
