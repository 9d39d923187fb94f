// Package configtree holds the in-memory runtime configuration tree that the
// XML runtime loader materialises for a hosting runtime.
//
// # Structure
//
//	Configuration
//	├── Settings         Dict[*Setting]
//	└── Plugins          Dict[*Plugin]
//	    └── Plugin
//	        ├── Settings      Dict[*Setting]
//	        └── Instances     Dict[*Instance]
//	            └── Instance
//	                ├── ClientEndPoints  Dict[*ClientEndPoint]
//	                ├── ServerEndPoints  Dict[*ServerEndPoint]
//	                └── Settings         Dict[*Setting]
//
// # Ownership
//
// Every scope is a Dict: an insertion-ordered map from a unique name to an
// entity it owns exclusively. Insert never overwrites; a repeated name fails
// with ErrDuplicateKey and an entity that already belongs to a scope fails
// with ErrAlreadyOwned.
//
// Entities are value holders. They carry no behaviour beyond their attributes
// and the scopes they own.
//
// # Immutability
//
// Once a loader has finished building a tree it calls Configuration.Freeze.
// From then on every scope rejects Insert with ErrFrozen, so the tree can be
// shared between goroutines without locking.
//
// # Usage
//
//	cfg, err := xmlruntime.Load("runtime.xml", log)
//	if err != nil {
//	    return err
//	}
//	for name, plugin := range cfg.Plugins().All() {
//	    log.Info("plugin", "name", name, "file", plugin.File())
//	}
package configtree
