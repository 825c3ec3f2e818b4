package packdb

import (
	"sort"
	"sync"
)

// Constructor is a function that creates a driver instance.
type Constructor func() Driver

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]Constructor)
)

// Register makes a pack driver available by type name.
// If Register is called twice with the same name or if constructor is
// nil, it panics.
//
// This follows the same pattern as database/sql drivers:
//
//	func init() {
//	    packdb.Register(packdb.TypeSQLite, func() packdb.Driver { return &Driver{} })
//	}
func Register(driverType Type, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if constructor == nil {
		panic("packdb: Register constructor is nil")
	}
	if _, dup := registry[driverType]; dup {
		panic("packdb: Register called twice for driver " + string(driverType))
	}
	registry[driverType] = constructor
}

// getConstructor returns the constructor for a driver type, or nil if
// the type is not registered.
func getConstructor(driverType Type) Constructor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[driverType]
}

// IsRegistered returns true if a driver type has been registered.
func IsRegistered(driverType Type) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[driverType]
	return ok
}

// RegisteredTypes returns the sorted names of all registered drivers.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// UnregisterAll removes all registered drivers. Only for use in tests.
func UnregisterAll() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Type]Constructor)
}
