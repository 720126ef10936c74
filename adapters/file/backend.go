// Package file stores one record per file in a directory.
// The filename is the primary key and the raw bytes are the content.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/artpar/basemodel/domain/model"
	"github.com/artpar/basemodel/ports"
)

// Column names shared by every file-backed schema.
const (
	ColumnID       = "id"
	ColumnFilename = "filename"
	ColumnContent  = "content"
)

// DefaultExtension matches every file that has an extension.
const DefaultExtension = "*"

// Config configures a file backend.
type Config struct {
	// Source is the directory holding the files. It must exist.
	Source string

	// Extension selects files named *.<Extension>. Defaults to "*".
	Extension string

	// Name is the model name. Defaults to the titleized directory name.
	Name string

	// Columns are declared in addition to id, filename and content.
	Columns []string

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Backend lists, reads and writes the files of one directory.
type Backend struct {
	schema    *model.Schema
	dir       string
	extension string
	logger    zerolog.Logger
}

// New creates a file backend over cfg.Source.
func New(cfg Config) (*Backend, error) {
	if cfg.Source == "" {
		return nil, errors.New("file: source directory is required")
	}

	dir, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("file: resolve source: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("file: folder does not exist: %s", cfg.Source)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file: source is not a directory: %s", cfg.Source)
	}

	ext := strings.TrimPrefix(cfg.Extension, ".")
	if ext == "" {
		ext = DefaultExtension
	}

	name := cfg.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	cols := append([]string{ColumnID, ColumnFilename, ColumnContent}, cfg.Columns...)

	return &Backend{
		schema:    model.NewSchema(name, ColumnFilename, cols...),
		dir:       dir,
		extension: ext,
		logger:    logger.With().Str("model", name).Logger(),
	}, nil
}

// Schema returns the file schema. The primary key is "filename".
func (b *Backend) Schema() *model.Schema {
	return b.schema
}

// Dir returns the absolute source directory.
func (b *Backend) Dir() string {
	return b.dir
}

// Extension returns the matched extension.
func (b *Backend) Extension() string {
	return b.extension
}

// Logger returns the backend logger.
func (b *Backend) Logger() zerolog.Logger {
	return b.logger
}

// New returns an empty record bound to the source directory.
func (b *Backend) New() *Record {
	return &Record{Record: model.NewRecord(b.schema), dir: b.dir}
}

// Dataset returns one record per matching file, sorted by filename.
func (b *Backend) Dataset(ctx context.Context) ([]*Record, error) {
	names, err := b.Glob()
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := b.New()
		r.assignID(name)
		out = append(out, r)
	}
	return out, nil
}

// Glob returns the sorted basenames matching *.<extension>.
func (b *Backend) Glob() ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(b.dir), "*."+b.extension, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("file: list %s: %w", b.dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// Lookup returns the record for the file named pk.
func (b *Backend) Lookup(ctx context.Context, pk any) (*Record, error) {
	name, ok := pk.(string)
	if !ok || name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("%w: %s %v", model.ErrNotFound, b.schema.Name, pk)
	}

	r := b.New()
	r.assignID(name)
	if r.meta == nil {
		return nil, fmt.Errorf("%w: %s %s", model.ErrNotFound, b.schema.Name, name)
	}
	return r, nil
}

// Persist writes the buffered content to the record's path. A record with
// nothing buffered creates the file if it does not exist yet.
func (b *Backend) Persist(ctx context.Context, r *Record) error {
	if r.path == "" {
		return fmt.Errorf("file: %s record has no filename", b.schema.Name)
	}

	var err error
	switch {
	case r.pending != nil:
		err = write(r.path, r.pending)
	case r.meta == nil:
		err = os.WriteFile(r.path, nil, 0o644)
	}
	if err != nil {
		return fmt.Errorf("file: write %s: %w", r.path, err)
	}

	r.pending = nil
	r.Invalidate()

	b.logger.Debug().Str("path", r.path).Interface("size", r.metaValue(AttrSize)).Msg("file written")
	return nil
}

// Remove deletes the record's file.
func (b *Backend) Remove(ctx context.Context, r *Record) error {
	if r.path == "" {
		return fmt.Errorf("file: %s record has no filename", b.schema.Name)
	}

	if err := os.Remove(r.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s %s", model.ErrNotFound, b.schema.Name, r.Filename())
		}
		return fmt.Errorf("file: remove %s: %w", r.path, err)
	}

	r.Invalidate()
	b.logger.Debug().Str("path", r.path).Msg("file removed")
	return nil
}

// write replaces the file at path with content. Readers are rewound first
// when they support seeking, then streamed.
func write(path string, content any) error {
	switch c := content.(type) {
	case []byte:
		return os.WriteFile(path, c, 0o644)
	case string:
		return os.WriteFile(path, []byte(c), 0o644)
	case io.Reader:
		if s, ok := c.(io.Seeker); ok {
			if _, err := s.Seek(0, io.SeekStart); err != nil {
				return err
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, c); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported content type %T", content)
	}
}

// Ensure interface compliance.
var _ ports.Backend[*Record] = (*Backend)(nil)
