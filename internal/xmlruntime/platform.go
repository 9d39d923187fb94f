package xmlruntime

import (
	"fmt"
	"sync"
)

// Platform is the process-wide parser resource shared by loaders: the
// compiled schema. The first Acquire compiles it, later calls share it and the
// last Release drops it, so concurrent or nested loaders never race on set-up
// or teardown.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Platform struct {
	source []byte

	mu     sync.Mutex
	refs   int
	schema *Schema
}

// defaultPlatform serves loaders that do not bring their own.
var defaultPlatform = NewPlatform(DefaultSchema)

// DefaultPlatform returns the platform for the embedded schema.
func DefaultPlatform() *Platform {
	return defaultPlatform
}

// NewPlatform creates a platform for a YAML schema description.
// Nothing is compiled until the first Acquire.
func NewPlatform(schemaSource []byte) *Platform {
	return &Platform{source: schemaSource}
}

// Acquire takes a reference and returns the compiled schema.
// Every successful Acquire must be paired with one Release.
func (p *Platform) Acquire() (*Schema, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refs == 0 {
		schema, err := CompileSchema(p.source)
		if err != nil {
			return nil, fmt.Errorf("initialising parser platform: %w", err)
		}
		p.schema = schema
	}
	p.refs++
	return p.schema, nil
}

// Release drops a reference. The compiled schema is discarded with the last one.
func (p *Platform) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refs == 0 {
		return
	}
	p.refs--
	if p.refs == 0 {
		p.schema = nil
	}
}

// Refs returns the number of live references.
func (p *Platform) Refs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}
