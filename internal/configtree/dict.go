package configtree

import "iter"

// Entity is implemented by every value a Dict can own.
// The unexported method restricts it to the entity types of this package.
type Entity interface {
	Name() string
	adopt() error
}

// ownership is embedded in every entity and records whether a scope has
// taken it over. Ownership transfer happens once.
type ownership struct {
	owned bool
}

func (o *ownership) adopt() error {
	if o.owned {
		return ErrAlreadyOwned
	}
	o.owned = true
	return nil
}

// Dict is an insertion-ordered mapping from a unique name to an entity it
// owns exclusively.
//
// The zero value is not usable; scopes are created by the owning entity's
// constructor.
//
// Thread Safety:
//   - Not safe for concurrent Insert. After Freeze all methods are read-only
//     and safe for concurrent use.
type Dict[T Entity] struct {
	scope  string
	keys   []string
	items  map[string]T
	frozen bool
}

func newDict[T Entity](scope string) *Dict[T] {
	return &Dict[T]{
		scope: scope,
		items: make(map[string]T),
	}
}

// Insert records entity under name and takes exclusive ownership of it.
//
// It fails, leaving the dictionary unchanged, when:
//   - the dictionary is frozen (ErrFrozen)
//   - name is already present (*DuplicateKeyError, matches ErrDuplicateKey)
//   - entity is owned by another scope (ErrAlreadyOwned)
func (d *Dict[T]) Insert(name string, entity T) error {
	if d.frozen {
		return ErrFrozen
	}
	if _, exists := d.items[name]; exists {
		return &DuplicateKeyError{Scope: d.scope, Key: name}
	}
	if err := entity.adopt(); err != nil {
		return err
	}

	d.keys = append(d.keys, name)
	d.items[name] = entity
	return nil
}

// Lookup returns the entity stored under name.
func (d *Dict[T]) Lookup(name string) (T, bool) {
	v, ok := d.items[name]
	return v, ok
}

// Len returns the number of entities in the scope.
func (d *Dict[T]) Len() int {
	return len(d.keys)
}

// Scope returns the kind of scope, e.g. "plugins".
func (d *Dict[T]) Scope() string {
	return d.scope
}

// Keys returns the names in insertion order. The slice is a copy.
func (d *Dict[T]) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Values returns the entities in insertion order.
func (d *Dict[T]) Values() []T {
	out := make([]T, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, d.items[k])
	}
	return out
}

// All iterates name/entity pairs in insertion order.
func (d *Dict[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, k := range d.keys {
			if !yield(k, d.items[k]) {
				return
			}
		}
	}
}

// Frozen reports whether the scope still accepts inserts.
func (d *Dict[T]) Frozen() bool {
	return d.frozen
}

func (d *Dict[T]) freeze() {
	d.frozen = true
}
