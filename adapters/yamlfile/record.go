package yamlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/artpar/basemodel/adapters/file"
)

// Record is a file whose content is a YAML mapping.
type Record struct {
	*file.Record

	parsed       map[string]any
	parsedLoaded bool
	logger       zerolog.Logger
}

// ParsedContent returns the content parsed as a mapping with string keys.
// The result is memoized until Invalidate or a write to the identity or the
// content. A file not written yet yields nil. Content that is malformed or
// not a mapping yields nil and a warning.
func (r *Record) ParsedContent() map[string]any {
	if r.parsedLoaded {
		return r.parsed
	}
	r.parsedLoaded = true
	r.parsed = nil

	data, err := r.Content()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("filename", r.Filename()).Msg("read yaml content")
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		r.logger.Warn().Err(err).Str("filename", r.Filename()).Msg("parse yaml content")
		return nil
	}

	m, ok := normalize(doc).(map[string]any)
	if !ok {
		r.logger.Warn().
			Str("filename", r.Filename()).
			Str("type", fmt.Sprintf("%T", doc)).
			Msg("yaml content is not a mapping")
		return nil
	}

	r.parsed = m
	return m
}

// Invalidate drops the parsed mapping along with the file caches.
func (r *Record) Invalidate() {
	r.Record.Invalidate()
	r.resetParsed()
}

// SetID renames the record. The parsed mapping is dropped.
func (r *Record) SetID(name string) {
	r.Record.SetID(name)
	r.resetParsed()
}

// SetContent buffers raw content. The parsed mapping is dropped.
func (r *Record) SetContent(content any) error {
	if err := r.Record.SetContent(content); err != nil {
		return err
	}
	r.resetParsed()
	return nil
}

func (r *Record) resetParsed() {
	r.parsed, r.parsedLoaded = nil, false
}

// Get reads file attributes first, then the stored value of a declared
// column, then the top-level keys of the parsed content.
func (r *Record) Get(key string) (any, bool) {
	if isFileKey(key) {
		return r.Record.Get(key)
	}
	if v, ok := r.ParsedContent()[key]; ok {
		return v, true
	}
	return r.Record.Get(key)
}

// Set writes file attributes through the file record. Any other key is
// written to both the attribute store and the parsed mapping.
func (r *Record) Set(key string, value any) error {
	if isFileKey(key) {
		if err := r.Record.Set(key, value); err != nil {
			return err
		}
		// A new identity or new content both point at a different document.
		r.resetParsed()
		return nil
	}

	base := r.Base()
	if base.Schema().Has(key) {
		if err := base.Set(key, value); err != nil {
			return err
		}
	} else {
		base.Touch(key)
	}

	if r.ParsedContent() == nil {
		r.parsed = make(map[string]any)
	}
	r.parsed[key] = value
	return nil
}

func isFileKey(key string) bool {
	switch key {
	case file.ColumnID, file.ColumnFilename, file.ColumnContent,
		file.AttrPath, file.AttrStat, file.AttrSize, file.AttrMode, file.AttrMtime, file.AttrIsDir:
		return true
	}
	return false
}

// normalize converts every mapping key to a string, recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
