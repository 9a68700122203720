package pluginhost

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestEntry records one installed plugin: the prefix it answers for and
// the .so file it was loaded from, either absolute or relative to the
// manifest's own directory.
type ManifestEntry struct {
	Prefix uint64 `yaml:"prefix"`
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
}

// Manifest is the on-disk record of every plugin installed into a plugin
// directory, persisted as manifest.yaml alongside the .so files themselves
// so a restarted process can rebuild its Registry without operator input.
type Manifest struct {
	Entries []ManifestEntry `yaml:"plugins"`
}

func manifestPath(dir string) string {
	return filepath.Join(dir, "manifest.yaml")
}

// LoadManifest reads a plugin directory's manifest, returning an empty one
// if the directory has none yet.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath(dir))
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pluginhost: failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("pluginhost: failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest back to dir, creating dir if necessary.
func (m *Manifest) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pluginhost: failed to create plugin dir: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("pluginhost: failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath(dir), data, 0o644); err != nil {
		return fmt.Errorf("pluginhost: failed to write manifest: %w", err)
	}
	return nil
}

// Put adds or replaces the entry for prefix.
func (m *Manifest) Put(entry ManifestEntry) {
	for i, e := range m.Entries {
		if e.Prefix == entry.Prefix {
			m.Entries[i] = entry
			return
		}
	}
	m.Entries = append(m.Entries, entry)
}

// Remove deletes prefix's entry, if present.
func (m *Manifest) Remove(prefix uint64) {
	out := m.Entries[:0]
	for _, e := range m.Entries {
		if e.Prefix != prefix {
			out = append(out, e)
		}
	}
	m.Entries = out
}

// Populate registers every manifest entry's .so path into reg, resolving
// relative paths against dir.
func (m *Manifest) Populate(reg *Registry, dir string) error {
	for _, e := range m.Entries {
		path := e.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if err := reg.Register(Prefix(e.Prefix), path); err != nil {
			return fmt.Errorf("pluginhost: failed to register prefix %d (%s): %w", e.Prefix, e.Name, err)
		}
	}
	return nil
}
