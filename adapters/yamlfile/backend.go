// Package yamlfile stores one YAML mapping per file. It extends the file
// backend with a parsed view of the content whose top-level keys are
// readable and writable as attributes.
package yamlfile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/artpar/basemodel/adapters/file"
	"github.com/artpar/basemodel/domain/model"
	"github.com/artpar/basemodel/ports"
)

// DefaultExtension is the extension matched when none is configured.
const DefaultExtension = "yaml"

// Config configures a YAML backend.
type Config struct {
	// Source is the directory holding the files. It must exist.
	Source string

	// Extension defaults to "yaml".
	Extension string

	// Name is the model name. Defaults to the directory name.
	Name string

	// Columns are top-level keys declared in addition to the file columns.
	Columns []string

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Backend is a file backend whose records parse their content as YAML.
type Backend struct {
	files  *file.Backend
	logger zerolog.Logger
}

// New creates a YAML backend over cfg.Source.
func New(cfg Config) (*Backend, error) {
	ext := cfg.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	files, err := file.New(file.Config{
		Source:    cfg.Source,
		Extension: ext,
		Name:      cfg.Name,
		Columns:   cfg.Columns,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Backend{files: files, logger: files.Logger()}, nil
}

// Schema returns the schema shared with the underlying file backend.
func (b *Backend) Schema() *model.Schema {
	return b.files.Schema()
}

// Files returns the underlying file backend.
func (b *Backend) Files() *file.Backend {
	return b.files
}

// New returns an empty record.
func (b *Backend) New() *Record {
	return b.wrap(b.files.New())
}

// Dataset returns one record per matching file.
func (b *Backend) Dataset(ctx context.Context) ([]*Record, error) {
	files, err := b.files.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Record, len(files))
	for i, f := range files {
		out[i] = b.wrap(f)
	}
	return out, nil
}

// Lookup returns the record for the file named pk.
func (b *Backend) Lookup(ctx context.Context, pk any) (*Record, error) {
	f, err := b.files.Lookup(ctx, pk)
	if err != nil {
		return nil, err
	}
	return b.wrap(f), nil
}

// Persist serializes the parsed mapping, if it was loaded, and writes it
// through the file backend. Otherwise the raw content is written as-is.
func (b *Backend) Persist(ctx context.Context, r *Record) error {
	if r.parsedLoaded && r.parsed != nil {
		data, err := yaml.Marshal(r.parsed)
		if err != nil {
			return fmt.Errorf("yamlfile: encode %s: %w", r.Filename(), err)
		}
		if err := r.Record.SetContent(data); err != nil {
			return err
		}
	}
	return b.files.Persist(ctx, r.Record)
}

// Remove deletes the record's file.
func (b *Backend) Remove(ctx context.Context, r *Record) error {
	if err := b.files.Remove(ctx, r.Record); err != nil {
		return err
	}
	r.resetParsed()
	return nil
}

func (b *Backend) wrap(f *file.Record) *Record {
	return &Record{Record: f, logger: b.logger}
}

// Ensure interface compliance.
var _ ports.Backend[*Record] = (*Backend)(nil)
