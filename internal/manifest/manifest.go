// Package manifest reads the host application's module manifest, the
// read-only document that names each pack and the path of its binary
// store. Extraction uses it to map pack names to stores; nothing here
// ever writes it.
package manifest

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"golang.org/x/mod/semver"
)

// ErrPackNotListed marks a pack name the manifest does not declare.
var ErrPackNotListed = errors.New("pack not listed in manifest")

// Pack is one manifest pack declaration.
type Pack struct {
	Name   string `json:"name"`
	Label  string `json:"label,omitempty"`
	Path   string `json:"path"`
	Type   string `json:"type,omitempty"`
	System string `json:"system,omitempty"`
}

// Manifest is the subset of module.json this tool consumes.
type Manifest struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version,omitempty"`
	Packs   []Pack `json:"packs"`
}

// Load reads and parses the manifest at path. A missing or malformed
// manifest is fatal to the whole command, so errors carry the path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	for i, p := range m.Packs {
		if p.Name == "" {
			return nil, fmt.Errorf("manifest %s: pack %d has no name", path, i)
		}
		if p.Path == "" {
			return nil, fmt.Errorf("manifest %s: pack %q has no path", path, p.Name)
		}
	}

	return &m, nil
}

// Pack returns the declaration for name, or ErrPackNotListed.
func (m *Manifest) Pack(name string) (*Pack, error) {
	for i := range m.Packs {
		if m.Packs[i].Name == name {
			return &m.Packs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPackNotListed, name)
}

// VersionValid reports whether the manifest version parses as semver.
// Advisory only; the host application does not enforce it either.
func (m *Manifest) VersionValid() bool {
	return semver.IsValid("v" + m.Version)
}
