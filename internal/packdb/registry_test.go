package packdb

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
)

// mockDriver is a minimal driver implementation for testing.
type mockDriver struct {
	name Type
}

func (m *mockDriver) Name() Type { return m.name }

func (m *mockDriver) Exists(packPath string) bool { return false }

func (m *mockDriver) Count(ctx context.Context, packPath string) (int, error) { return 0, nil }

func (m *mockDriver) Compile(ctx context.Context, packPath string, docs []*document.Document) error {
	return nil
}

func (m *mockDriver) Extract(ctx context.Context, packPath string, opts ExtractOptions) error {
	return nil
}

// newMockDriver creates a mock driver constructor.
func newMockDriver(name Type) Constructor {
	return func() Driver {
		return &mockDriver{name: name}
	}
}

// testTypeCounter generates unique test type names
var testTypeCounter int64

func uniqueTestType(prefix string) Type {
	n := atomic.AddInt64(&testTypeCounter, 1)
	return Type(fmt.Sprintf("%s-%d", prefix, n))
}

func TestRegister(t *testing.T) {
	typeName := uniqueTestType("register-test")

	Register(typeName, newMockDriver(typeName))

	if !IsRegistered(typeName) {
		t.Error("Expected type to be registered")
	}

	constructor := getConstructor(typeName)
	if constructor == nil {
		t.Fatal("Expected to get constructor for registered type")
	}

	drv := constructor()
	if drv.Name() != typeName {
		t.Errorf("Expected driver name '%s', got '%s'", typeName, drv.Name())
	}
}

func TestRegisterPanicsOnNil(t *testing.T) {
	typeName := uniqueTestType("nil-test")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when registering nil constructor")
		}
	}()

	Register(typeName, nil)
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	typeName := uniqueTestType("dup-test")

	Register(typeName, newMockDriver(typeName))

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when registering duplicate type")
		}
	}()

	Register(typeName, newMockDriver(typeName))
}

func TestIsRegistered(t *testing.T) {
	typeName := uniqueTestType("isreg-test")
	unknownType := uniqueTestType("unknown-test")

	if IsRegistered(typeName) {
		t.Error("Expected type to not be registered initially")
	}

	Register(typeName, newMockDriver(typeName))

	if !IsRegistered(typeName) {
		t.Error("Expected type to be registered after Register()")
	}

	if IsRegistered(unknownType) {
		t.Error("Expected unknown type to not be registered")
	}
}

func TestRegisteredTypes(t *testing.T) {
	typeName := uniqueTestType("types-test")
	beforeCount := len(RegisteredTypes())

	Register(typeName, newMockDriver(typeName))

	types := RegisteredTypes()
	if len(types) <= beforeCount {
		t.Error("Expected type count to increase after registration")
	}

	sorted := sort.SliceIsSorted(types, func(i, j int) bool { return types[i] < types[j] })
	if !sorted {
		t.Errorf("Expected RegisteredTypes to be sorted, got %v", types)
	}

	found := false
	for _, typ := range types {
		if typ == typeName {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s in registered types %v", typeName, types)
	}
}

func TestGetConstructor(t *testing.T) {
	unknownType := uniqueTestType("getconst-unknown")

	constructor := getConstructor(unknownType)
	if constructor != nil {
		t.Error("Expected nil constructor for unregistered type")
	}

	typeName := uniqueTestType("getconst-test")
	Register(typeName, newMockDriver(typeName))
	constructor = getConstructor(typeName)
	if constructor == nil {
		t.Error("Expected non-nil constructor for registered type")
	}
}

// TestConcurrentRegistration verifies thread-safety of registration
func TestConcurrentRegistration(t *testing.T) {
	done := make(chan bool)
	basePrefix := uniqueTestType("concurrent")

	for i := 0; i < 10; i++ {
		go func(n int) {
			defer func() { done <- true }()

			typeName := Type(fmt.Sprintf("%s-%d", basePrefix, n))
			Register(typeName, newMockDriver(typeName))

			_ = IsRegistered(typeName)
			_ = RegisteredTypes()
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
