package xmlruntime

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for loading runtime configuration documents.
//
// Duplicate names are reported with configtree.ErrDuplicateKey.
var (
	// ErrUnreadable indicates the document file could not be read.
	ErrUnreadable = errors.New("xmlruntime: document unreadable")

	// ErrDocumentInvalid indicates a well-formedness or schema violation.
	// The full list is available through *InvalidDocumentError.
	ErrDocumentInvalid = errors.New("xmlruntime: configuration invalid")

	// ErrInvalidSchema indicates the schema description itself is broken.
	ErrInvalidSchema = errors.New("xmlruntime: invalid schema")

	// ErrClosed indicates a Loader was used after Close.
	ErrClosed = errors.New("xmlruntime: loader closed")
)

// InvalidDocumentError carries every diagnostic of a failed load.
type InvalidDocumentError struct {
	Path        string
	Diagnostics []Diagnostic
}

// Error implements the error interface.
func (e *InvalidDocumentError) Error() string {
	errs := 0
	var first string
	for _, d := range e.Diagnostics {
		if d.Severity < SeverityError {
			continue
		}
		if errs == 0 {
			first = d.String()
		}
		errs++
	}
	switch errs {
	case 0:
		return fmt.Sprintf("%s: %s", ErrDocumentInvalid, e.Path)
	case 1:
		return fmt.Sprintf("%s: %s", ErrDocumentInvalid, first)
	default:
		return fmt.Sprintf("%s: %d errors, first: %s", ErrDocumentInvalid, errs, first)
	}
}

// Unwrap returns ErrDocumentInvalid.
func (e *InvalidDocumentError) Unwrap() error {
	return ErrDocumentInvalid
}

// Detail returns one diagnostic per line.
func (e *InvalidDocumentError) Detail() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}
