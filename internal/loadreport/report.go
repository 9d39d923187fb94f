package loadreport

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/configtree"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/xmlruntime"
)

// Outcome classifies a load attempt.
type Outcome string

// Load outcomes. The values are stored in load history and published as-is.
const (
	OutcomeLoaded       Outcome = "loaded"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeDuplicateKey Outcome = "duplicate_key"
	OutcomeUnreadable   Outcome = "unreadable"
	OutcomeFailed       Outcome = "failed"
)

// Classify maps a Load error to its outcome. A nil error is OutcomeLoaded.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeLoaded
	case errors.Is(err, xmlruntime.ErrDocumentInvalid):
		return OutcomeInvalid
	case errors.Is(err, configtree.ErrDuplicateKey):
		return OutcomeDuplicateKey
	case errors.Is(err, xmlruntime.ErrUnreadable):
		return OutcomeUnreadable
	default:
		return OutcomeFailed
	}
}

// Report describes one load attempt.
type Report struct {
	ID              string                  `json:"id"`
	Path            string                  `json:"path"`
	ConfigurationID string                  `json:"configuration_id,omitempty"`
	Outcome         Outcome                 `json:"outcome"`
	Error           string                  `json:"error,omitempty"`
	Diagnostics     []xmlruntime.Diagnostic `json:"diagnostics,omitempty"`
	Stats           configtree.Stats        `json:"stats"`
	Snapshot        *configtree.Snapshot    `json:"snapshot,omitempty"`
	Duration        time.Duration           `json:"duration_ns"`
	LoadedAt        time.Time               `json:"loaded_at"`
}

// OK reports whether the load produced a configuration.
func (r *Report) OK() bool {
	return r.Outcome == OutcomeLoaded
}

// ErrorCount returns the number of error and fatal diagnostics.
func (r *Report) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity >= xmlruntime.SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning diagnostics.
func (r *Report) WarningCount() int {
	return len(r.Diagnostics) - r.ErrorCount()
}

// Subject names the configuration the report is about: its ID when the
// load succeeded, otherwise the document's base name without extension.
func (r *Report) Subject() string {
	if r.ConfigurationID != "" {
		return r.ConfigurationID
	}
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
