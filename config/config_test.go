package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/basemodel/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
connections:
  - name: "inventory"
    url: "http://localhost:3000/api"
    timeout: 5s
    max_attempts: 3
    headers:
      Authorization: "Bearer abc"

models:
  - name: "Widget"
    backend: "rest"
    source: "/widgets"
    columns: ["name", "color"]
    connection: "inventory"
  - name: "Doc"
    backend: "yaml"
    source: "./docs"
  - name: "Note"
    backend: "file"
    source: "./notes"
    extension: "txt"

logging:
  level: "debug"
  format: "console"

metrics:
  enabled: true
`

	cfg := writeAndLoad(t, content)

	if len(cfg.Connections) != 1 {
		t.Fatalf("len(Connections) = %d, want 1", len(cfg.Connections))
	}
	conn := cfg.Connections[0]
	if conn.Name != "inventory" {
		t.Errorf("Name = %s, want inventory", conn.Name)
	}
	if conn.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", conn.Timeout)
	}
	if conn.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", conn.MaxAttempts)
	}
	if conn.Headers["Authorization"] != "Bearer abc" {
		t.Errorf("Headers = %v", conn.Headers)
	}

	if len(cfg.Models) != 3 {
		t.Fatalf("len(Models) = %d, want 3", len(cfg.Models))
	}
	widget, ok := cfg.Model("Widget")
	if !ok {
		t.Fatal("Model(Widget) not found")
	}
	if widget.Backend != config.BackendREST || widget.Connection != "inventory" {
		t.Errorf("Widget = %+v", widget)
	}
	if note, _ := cfg.Model("Note"); note.Extension != "txt" {
		t.Errorf("Note.Extension = %s, want txt", note.Extension)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
connections:
  - url: "http://localhost:3000"
models:
  - name: "Post"
    columns: ["title"]
`

	cfg := writeAndLoad(t, content)

	conn := cfg.Connections[0]
	if conn.Name != config.DefaultConnectionName {
		t.Errorf("default Name = %s, want default", conn.Name)
	}
	if conn.Timeout != 30*time.Second {
		t.Errorf("default Timeout = %v, want 30s", conn.Timeout)
	}
	if conn.MaxAttempts != 2 {
		t.Errorf("default MaxAttempts = %d, want 2", conn.MaxAttempts)
	}
	if cfg.Models[0].Backend != config.BackendMemory {
		t.Errorf("default Backend = %s, want memory", cfg.Models[0].Backend)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("default Logging.Format = %s, want json", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("default Metrics.Enabled = true, want false")
	}
}

func TestLoad_EmptyIsValid(t *testing.T) {
	cfg := writeAndLoad(t, "logging:\n  level: warn\n")
	if len(cfg.Connections) != 0 || len(cfg.Models) != 0 {
		t.Errorf("cfg = %+v, want no connections or models", cfg)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_API_TOKEN", "s3cret")

	cfg := writeAndLoad(t, `
connections:
  - url: "http://localhost:3000"
    headers:
      Authorization: "Bearer ${TEST_API_TOKEN}"
`)

	if got := cfg.Connections[0].Headers["Authorization"]; got != "Bearer s3cret" {
		t.Errorf("Authorization = %s, want expanded token", got)
	}
}

func TestLoad_URLFallsBackToEnv(t *testing.T) {
	t.Setenv(config.EnvEndpointURL, "http://env.example.com")

	cfg := writeAndLoad(t, `
connections:
  - name: "primary"
`)

	if cfg.Connections[0].URL != "http://env.example.com" {
		t.Errorf("URL = %s, want env fallback", cfg.Connections[0].URL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"connection without url", `
connections:
  - name: "a"
`, "connections[0].url is required"},
		{"duplicate connection", `
connections:
  - url: "http://a"
  - url: "http://b"
`, "duplicate name \"default\""},
		{"negative attempts", `
connections:
  - url: "http://a"
    max_attempts: -1
`, "max_attempts"},
		{"model without name", `
models:
  - backend: "memory"
`, "models[0].name is required"},
		{"duplicate model", `
models:
  - name: "A"
  - name: "A"
`, "duplicate name \"A\""},
		{"unknown backend", `
models:
  - name: "A"
    backend: "sql"
`, "models[0].backend"},
		{"file without source", `
models:
  - name: "A"
    backend: "file"
`, "source is required"},
		{"rest without columns", `
models:
  - name: "A"
    backend: "rest"
    source: "/a"
`, "columns is required"},
		{"rest with unknown connection", `
models:
  - name: "A"
    backend: "rest"
    source: "/a"
    columns: ["x"]
    connection: "missing"
`, "connection \"missing\" is not configured"},
		{"bad log level", `
logging:
  level: "verbose"
`, "logging.level"},
		{"bad log format", `
logging:
  format: "xml"
`, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeAndLoadErr(t, tt.content)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoad_RESTSourceIsOptional(t *testing.T) {
	cfg := writeAndLoad(t, `
connections:
  - url: "http://localhost:3000"
models:
  - name: "Widget"
    backend: "rest"
    columns: ["name"]
`)
	if m, ok := cfg.Model("Widget"); !ok || m.Source != "" {
		t.Errorf("Model(Widget) = %+v, %v; want empty source", m, ok)
	}
}

func TestLoad_BackendIsCaseInsensitive(t *testing.T) {
	cfg := writeAndLoad(t, `
models:
  - name: "A"
    backend: "YAML"
    source: "./docs"
`)
	if cfg.Models[0].Backend != config.BackendYAML {
		t.Errorf("Backend = %s, want yaml", cfg.Models[0].Backend)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := writeAndLoadErr(t, "connections: [unclosed")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(config.EnvEndpointURL, "http://api.example.com")
	t.Setenv("BASEMODEL_TIMEOUT", "10s")
	t.Setenv("BASEMODEL_MAX_ATTEMPTS", "4")
	t.Setenv("BASEMODEL_LOG_LEVEL", "debug")
	t.Setenv("BASEMODEL_LOG_FORMAT", "console")
	t.Setenv("BASEMODEL_METRICS_ENABLED", "yes")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if len(cfg.Connections) != 1 {
		t.Fatalf("len(Connections) = %d, want 1", len(cfg.Connections))
	}
	conn := cfg.Connections[0]
	if conn.Name != "default" || conn.URL != "http://api.example.com" {
		t.Errorf("connection = %+v", conn)
	}
	if conn.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", conn.Timeout)
	}
	if conn.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", conn.MaxAttempts)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BASEMODEL_LOG_LEVEL", "error")
	t.Setenv("BASEMODEL_MAX_ATTEMPTS", "5")
	t.Setenv(config.EnvEndpointURL, "http://ignored.example.com")

	cfg := writeAndLoad(t, `
connections:
  - url: "http://file.example.com"
logging:
  level: "debug"
`)

	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want env override", cfg.Logging.Level)
	}
	if cfg.Connections[0].MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want env override", cfg.Connections[0].MaxAttempts)
	}
	if len(cfg.Connections) != 1 || cfg.Connections[0].URL != "http://file.example.com" {
		t.Errorf("Connections = %+v, want file connection only", cfg.Connections)
	}
}

func TestEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("BASEMODEL_TIMEOUT", "soon")
	t.Setenv("BASEMODEL_MAX_ATTEMPTS", "many")

	cfg := writeAndLoad(t, `
connections:
  - url: "http://a"
`)

	if cfg.Connections[0].Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default", cfg.Connections[0].Timeout)
	}
	if cfg.Connections[0].MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want default", cfg.Connections[0].MaxAttempts)
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("BASEMODEL_METRICS_ENABLED", tt.value)
			cfg := writeAndLoad(t, "{}")
			if cfg.Metrics.Enabled != tt.want {
				t.Errorf("Metrics.Enabled = %v, want %v", cfg.Metrics.Enabled, tt.want)
			}
		})
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Run("file exists", func(t *testing.T) {
		path := writeConfig(t, validConfig())
		cfg, err := config.LoadWithFallback(path)
		if err != nil {
			t.Fatalf("LoadWithFallback error: %v", err)
		}
		if cfg.Connections[0].URL != "http://localhost:3000" {
			t.Errorf("URL = %s, want file value", cfg.Connections[0].URL)
		}
	})

	t.Run("env only", func(t *testing.T) {
		t.Setenv(config.EnvEndpointURL, "http://env.example.com")
		cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("LoadWithFallback error: %v", err)
		}
		if cfg.Connections[0].URL != "http://env.example.com" {
			t.Errorf("URL = %s, want env value", cfg.Connections[0].URL)
		}
	})

	t.Run("nothing", func(t *testing.T) {
		t.Setenv(config.EnvEndpointURL, "")
		if _, err := config.LoadWithFallback(""); err == nil {
			t.Error("expected error without file or env")
		}
	})
}

func TestHasEnvConfig(t *testing.T) {
	t.Setenv(config.EnvEndpointURL, "")
	if config.HasEnvConfig() {
		t.Error("HasEnvConfig = true with empty env")
	}

	t.Setenv(config.EnvEndpointURL, "http://x")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig = false with REST_ENDPOINT_URL set")
	}
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return config.Load(path)
}
