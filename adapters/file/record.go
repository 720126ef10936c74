package file

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artpar/basemodel/core/convention"
	"github.com/artpar/basemodel/domain/model"
)

// Attribute keys derived from the filesystem. They are readable through Get
// and can never be set.
const (
	AttrPath  = "path"
	AttrStat  = "stat"
	AttrSize  = "size"
	AttrMode  = "mode"
	AttrMtime = "mtime"
	AttrIsDir = "is_dir"
)

// Metadata is the filesystem information captured when identity is assigned.
type Metadata struct {
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

func newMetadata(info fs.FileInfo) *Metadata {
	return &Metadata{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}

// Record is one file. Content is read lazily and writes are buffered
// until the record is persisted.
type Record struct {
	*model.Record

	dir  string
	path string
	meta *Metadata

	content []byte
	loaded  bool

	// pending is a string, []byte or io.Reader waiting to be written.
	pending any
}

// Filename returns the basename, or "" when identity is unset.
func (r *Record) Filename() string {
	v, _ := r.Record.Get(ColumnFilename)
	s, _ := v.(string)
	return s
}

// Path returns the absolute path, or "" when identity is unset.
func (r *Record) Path() string {
	return r.path
}

// Metadata returns the captured filesystem metadata, or nil if the file
// did not exist when identity was last assigned or the record last saved.
func (r *Record) Metadata() *Metadata {
	return r.meta
}

// Name is a human-readable label derived from the filename.
func (r *Record) Name() string {
	base := r.Filename()
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return convention.Titleize(convention.Humanize(base))
}

// SetID assigns identity. The path is recomputed and metadata captured if
// the file exists. An empty name clears both.
func (r *Record) SetID(name string) {
	r.Record.Touch(ColumnFilename)
	r.assignID(name)
}

func (r *Record) assignID(name string) {
	r.content, r.loaded = nil, false
	if name == "" {
		r.Record.Store(ColumnFilename, nil)
		r.path, r.meta = "", nil
		return
	}
	r.Record.Store(ColumnFilename, name)
	r.path = filepath.Join(r.dir, name)
	r.stat()
}

func (r *Record) stat() {
	r.meta = nil
	if r.path == "" {
		return
	}
	if info, err := os.Stat(r.path); err == nil {
		r.meta = newMetadata(info)
	}
}

// Content returns the buffered content if it is a string or []byte,
// otherwise the file's bytes, read once and cached.
func (r *Record) Content() ([]byte, error) {
	switch p := r.pending.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	}

	if r.loaded {
		return r.content, nil
	}
	if r.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("file: read %s: %w", r.path, err)
	}
	r.content, r.loaded = data, true
	return data, nil
}

// SetContent buffers content until the record is persisted. Accepts a
// string, []byte or io.Reader (typically a temporary *os.File).
func (r *Record) SetContent(content any) error {
	switch content.(type) {
	case string, []byte, io.Reader:
	default:
		return fmt.Errorf("file: unsupported content type %T", content)
	}
	r.Record.Touch(ColumnContent)
	r.pending = content
	return nil
}

// HasPending reports whether content is buffered.
func (r *Record) HasPending() bool {
	return r.pending != nil
}

// Invalidate drops buffered and cached content and refreshes the metadata.
func (r *Record) Invalidate() {
	r.pending = nil
	r.content, r.loaded = nil, false
	r.stat()
}

// Get resolves identity aliases, content and filesystem metadata before
// falling back to the stored values.
func (r *Record) Get(key string) (any, bool) {
	switch key {
	case ColumnID, ColumnFilename:
		return r.Record.Get(ColumnFilename)
	case ColumnContent:
		data, err := r.Content()
		if err != nil || data == nil {
			return nil, true
		}
		return string(data), true
	case AttrPath:
		return r.path, true
	case AttrStat:
		return r.meta, true
	case AttrSize, AttrMode, AttrMtime, AttrIsDir:
		return r.metaValue(key), true
	}
	return r.Record.Get(key)
}

func (r *Record) metaValue(key string) any {
	if r.meta == nil {
		return nil
	}
	switch key {
	case AttrSize:
		return r.meta.Size
	case AttrMode:
		return r.meta.Mode
	case AttrMtime:
		return r.meta.ModTime
	default:
		return r.meta.IsDir
	}
}

// Set guards the derived attributes, routes identity through SetID and
// content through SetContent.
func (r *Record) Set(key string, value any) error {
	switch key {
	case AttrPath, AttrStat, AttrSize, AttrMode, AttrMtime, AttrIsDir:
		return fmt.Errorf("%w: %s", model.ErrReadOnly, key)
	case ColumnID, ColumnFilename:
		name, err := toName(value)
		if err != nil {
			return err
		}
		r.SetID(name)
		return nil
	case ColumnContent:
		return r.SetContent(value)
	}
	return r.Record.Set(key, value)
}

func toName(v any) (string, error) {
	switch n := v.(type) {
	case nil:
		return "", nil
	case string:
		if n != "" && filepath.Base(n) != n {
			return "", fmt.Errorf("file: filename %q must not contain a directory", n)
		}
		return n, nil
	default:
		return "", fmt.Errorf("file: filename must be a string, got %T", v)
	}
}
