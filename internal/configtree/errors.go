package configtree

import (
	"errors"
	"fmt"
)

// Domain errors for the configtree package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, configtree.ErrDuplicateKey) {
//	    // two entities share a name within one scope
//	}
var (
	// ErrDuplicateKey is returned when a name is inserted twice into one scope.
	ErrDuplicateKey = errors.New("configtree: duplicate key")

	// ErrAlreadyOwned is returned when an entity is inserted while another
	// scope already owns it.
	ErrAlreadyOwned = errors.New("configtree: entity already owned")

	// ErrFrozen is returned when inserting into a scope of a frozen tree.
	ErrFrozen = errors.New("configtree: scope is frozen")
)

// DuplicateKeyError reports a name collision within a single scope.
type DuplicateKeyError struct {
	// Scope is the kind of scope the collision happened in (e.g. "settings").
	Scope string

	// Key is the name that was already present.
	Key string
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("configtree: duplicate key %q in %s", e.Key, e.Scope)
}

// Is reports whether target is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}
