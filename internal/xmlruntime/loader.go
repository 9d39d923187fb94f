package xmlruntime

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/configtree"
)

// Loader limits.
const (
	// DefaultMaxIncludeDepth is the default nesting limit for xi:include.
	DefaultMaxIncludeDepth = 16

	// DefaultMaxFileSize is the default size limit for each document (16MB).
	DefaultMaxFileSize = 16 << 20
)

// Logger receives one debug record per entity found in a document.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// FileSystem reads documents. It allows tests to serve documents from memory.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Options configures a Loader. The zero value is usable.
type Options struct {
	// Logger receives entity debug records. Nil discards them.
	Logger Logger

	// FS reads the document and its inclusions. Nil uses OSFS.
	FS FileSystem

	// Platform provides the compiled schema. Nil uses DefaultPlatform.
	Platform *Platform

	// Entities adds replacement text for entity references beyond the
	// predefined XML entities.
	Entities map[string]string

	// MaxIncludeDepth limits xi:include nesting. Zero uses the default,
	// negative disables the limit.
	MaxIncludeDepth int

	// MaxFileSize limits each document in bytes. Zero uses the default,
	// negative disables the limit.
	MaxFileSize int64
}

// Loader reads runtime configuration documents.
//
// A Loader holds a reference on its Platform from New until Close.
//
// Thread Safety:
//   - Load may be called from multiple goroutines; each call is an
//     independent, synchronous pass.
type Loader struct {
	opts     Options
	platform *Platform
	schema   *Schema
	closed   atomic.Bool
}

// New creates a loader and acquires its parser platform.
func New(opts Options) (*Loader, error) {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.FS == nil {
		opts.FS = OSFS{}
	}
	if opts.Platform == nil {
		opts.Platform = DefaultPlatform()
	}
	switch {
	case opts.MaxIncludeDepth == 0:
		opts.MaxIncludeDepth = DefaultMaxIncludeDepth
	case opts.MaxIncludeDepth < 0:
		opts.MaxIncludeDepth = 0
	}
	switch {
	case opts.MaxFileSize == 0:
		opts.MaxFileSize = DefaultMaxFileSize
	case opts.MaxFileSize < 0:
		opts.MaxFileSize = 0
	}

	schema, err := opts.Platform.Acquire()
	if err != nil {
		return nil, err
	}

	return &Loader{
		opts:     opts,
		platform: opts.Platform,
		schema:   schema,
	}, nil
}

// Close releases the loader's platform reference. It is safe to call twice.
func (l *Loader) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		l.platform.Release()
	}
	return nil
}

// Load reads, validates and extracts the document at path.
//
// The result is either a complete, frozen configuration or an error:
//   - ErrUnreadable when the file cannot be read
//   - ErrDocumentInvalid (*InvalidDocumentError) for well-formedness or
//     schema violations
//   - configtree.ErrDuplicateKey when two entities share a name in one scope
func (l *Loader) Load(path string) (*configtree.Configuration, error) {
	cfg, _, err := l.LoadWithDiagnostics(path)
	return cfg, err
}

// LoadWithDiagnostics is Load that also returns every diagnostic recorded,
// including warnings of a successful load.
func (l *Loader) LoadWithDiagnostics(path string) (*configtree.Configuration, []Diagnostic, error) {
	if l.closed.Load() {
		return nil, nil, ErrClosed
	}

	systemID := filepath.Clean(path)
	data, err := l.opts.FS.ReadFile(systemID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if l.opts.MaxFileSize > 0 && int64(len(data)) > l.opts.MaxFileSize {
		return nil, nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrUnreadable, systemID, len(data), l.opts.MaxFileSize)
	}

	// Validating: the aggregate is checked once, before the tree is touched.
	diags := &Diagnostics{}
	root := l.readTree(systemID, data, diags)
	if diags.HasErrors() {
		return nil, diags.All(), &InvalidDocumentError{Path: systemID, Diagnostics: diags.All()}
	}

	// Extracting.
	x := &extractor{log: l.opts.Logger}
	cfg, err := x.configuration(root)
	if err != nil {
		return nil, diags.All(), err
	}
	return cfg, diags.All(), nil
}

// readTree parses the document, expands its inclusions and validates the
// result against the schema.
func (l *Loader) readTree(systemID string, data []byte, diags *Diagnostics) *Element {
	root := parseDocument(data, systemID, l.opts.Entities, diags)
	if root == nil {
		return nil
	}
	if isXInclude(root, xiInclude) {
		diags.Errorf(root, "xi:include cannot be the document root")
		return nil
	}

	inc := &includer{
		fs:       l.opts.FS,
		entities: l.opts.Entities,
		maxDepth: l.opts.MaxIncludeDepth,
		maxSize:  l.opts.MaxFileSize,
		diags:    diags,
	}
	inc.expand(root, []string{systemID})

	l.schema.Validate(root, diags)
	return root
}

// Load reads the document at path with a short-lived loader on the default
// platform. log may be nil.
func Load(path string, log Logger) (*configtree.Configuration, error) {
	loader, err := New(Options{Logger: log})
	if err != nil {
		return nil, err
	}
	defer loader.Close() //nolint:errcheck // Close never fails

	return loader.Load(path)
}
