package packdb

import (
	"fmt"
	"strings"
)

// New returns a fresh driver instance of the named type.
// Returns ErrDriverUnknown if no driver with that name is registered.
func New(driverType Type) (Driver, error) {
	constructor := getConstructor(driverType)
	if constructor == nil {
		return nil, fmt.Errorf("%w: %q (registered: %s)",
			ErrDriverUnknown, driverType, typeList())
	}
	return constructor(), nil
}

// ForPack returns the driver to use for a pack path. An explicit
// preferred type wins; with an empty preference the path shape decides.
//
// Example:
//
//	drv, err := packdb.ForPack("packs/spells", cfg.Driver)
func ForPack(packPath string, preferred Type) (Driver, error) {
	if preferred != "" {
		return New(preferred)
	}
	return New(Detect(packPath).Type)
}

// typeList formats the registered driver names for error messages.
func typeList() string {
	types := RegisteredTypes()
	if len(types) == 0 {
		return "none"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
