// Package archive writes export output under a per-run dated directory,
// mirroring the upstream API responses verbatim as JSON.
package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lathrop-navisite/slack-exporter/internal/domain"
)

// dirLayout is the date format for run directory names, e.g. "30August2026".
const dirLayout = "02January2006"

// Writer is a filesystem archive for a single export run. The run directory
// is created lazily on the first write, so a run that fails before
// producing data leaves nothing behind.
type Writer struct {
	base    string
	pretty  bool
	clock   func() time.Time
	touched map[string]bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithPrettyJSON toggles indented output for WriteJSON.
func WithPrettyJSON(pretty bool) Option {
	return func(w *Writer) {
		w.pretty = pretty
	}
}

// WithClock overrides the time source used to name the run directory.
func WithClock(clock func() time.Time) Option {
	return func(w *Writer) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// New creates a Writer rooted at root (typically "archives"). Nothing is
// created on disk until the first write.
func New(root string, opts ...Option) *Writer {
	w := &Writer{
		clock:   time.Now,
		touched: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.base = filepath.Join(root, w.clock().Format(dirLayout))
	return w
}

// Dir returns the run directory path.
func (w *Writer) Dir() string {
	return w.base
}

// WriteJSON writes v as one JSON document at the given relative path.
func (w *Writer) WriteJSON(name string, v any) error {
	data, err := w.marshal(v)
	if err != nil {
		return &domain.WriteError{Path: name, Err: err}
	}
	path, err := w.prepare(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &domain.WriteError{Path: name, Err: err}
	}
	return nil
}

// AppendJSONL appends v as a single compact JSON line to the file at the
// given relative path. The first use of a path within a run truncates any
// leftover from an earlier run in the same dated directory; later uses
// append.
func (w *Writer) AppendJSONL(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &domain.WriteError{Path: name, Err: err}
	}
	path, err := w.prepare(name)
	if err != nil {
		return err
	}
	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if !w.touched[name] {
		flags = os.O_TRUNC | os.O_CREATE | os.O_WRONLY
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return &domain.WriteError{Path: name, Err: err}
	}
	defer f.Close()
	w.touched[name] = true

	if _, err := f.Write(append(data, '\n')); err != nil {
		return &domain.WriteError{Path: name, Err: err}
	}
	return nil
}

// CreateFile opens a file for streaming binary content, truncating any
// previous copy.
func (w *Writer) CreateFile(name string) (io.WriteCloser, error) {
	path, err := w.prepare(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &domain.WriteError{Path: name, Err: err}
	}
	return f, nil
}

// prepare resolves name inside the run directory and makes sure its parent
// directories exist.
func (w *Writer) prepare(name string) (string, error) {
	path := filepath.Join(w.base, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &domain.WriteError{Path: name, Err: err}
	}
	return path, nil
}

func (w *Writer) marshal(v any) ([]byte, error) {
	if w.pretty {
		return json.MarshalIndent(v, "", "    ")
	}
	return json.Marshal(v)
}
