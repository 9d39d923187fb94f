package xmlruntime

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
)

const testNS = "urn:graylogic:xmlruntime:1"

// memFS serves documents from memory, keyed by cleaned path.
type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(data), nil
}

// logRecord is one captured Debug call.
type logRecord struct {
	msg  string
	args []any
}

func (r logRecord) attr(key string) string {
	for i := 0; i+1 < len(r.args); i += 2 {
		if r.args[i] == key {
			return fmt.Sprint(r.args[i+1])
		}
	}
	return ""
}

// recordingLogger captures debug records.
type recordingLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{msg: msg, args: args})
}

func (l *recordingLogger) scopes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r.attr("scope"))
	}
	return out
}

// newTestLoader creates a loader on a private platform over files.
func newTestLoader(t *testing.T, files memFS, log Logger) *Loader {
	t.Helper()
	loader, err := New(Options{
		Logger:   log,
		FS:       files,
		Platform: NewPlatform(DefaultSchema),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = loader.Close() })
	return loader
}

// configDoc wraps body in a Configuration root element.
func configDoc(name, body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<Configuration xmlns="` + testNS + `" xmlns:xi="` + XIncludeNamespace + `" name="` + name + `">
` + body + `
</Configuration>
`
}

// countErrors returns the number of error and fatal diagnostics.
func countErrors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity >= SeverityError {
			n++
		}
	}
	return n
}
