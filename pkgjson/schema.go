// Package pkgjson defines the parsed form of a package manifest
// (package.json) and the helpers the resolver needs to interpret one:
// dependency table merging, parser override validation, and label
// formatting.
//
// A Manifest is immutable once parsed. The resolver caches manifests per
// location for the lifetime of one resolution run.
package pkgjson

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Manifest represents the information extracted from a package.json file.
// Only fields that participate in dependency resolution and module-map
// construction are modeled; unknown fields are ignored.
type Manifest struct {
	// Name is the package's self-declared name. It is not guaranteed to
	// match the directory the package was discovered under.
	Name string `json:"name"`

	// Version is the package version string. Not validated; versions play
	// no role in resolution, which is keyed by physical location.
	Version string `json:"version"`

	// Type selects the language for .js files: "module" or "commonjs".
	// Empty means "commonjs".
	Type string `json:"type,omitempty"`

	// Main is the legacy entry module, used when Exports is absent.
	Main string `json:"main,omitempty"`

	// Exports is the raw exports declaration. Its shape varies (string,
	// conditions object, subpath map); interpretation is deferred to the
	// exports inference step.
	Exports json.RawMessage `json:"exports,omitempty"`

	// Imports declares internal (#-prefixed) aliases.
	Imports map[string]json.RawMessage `json:"imports,omitempty"`

	// Dependencies lists regular runtime dependencies.
	Dependencies map[string]string `json:"dependencies,omitempty"`

	// PeerDependencies lists dependencies expected to be provided by the
	// consumer. Resolved like regular dependencies.
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`

	// PeerDependenciesMeta marks individual peer dependencies as optional.
	PeerDependenciesMeta map[string]PeerMeta `json:"peerDependenciesMeta,omitempty"`

	// BundleDependencies lists dependencies shipped inside the package.
	// Both the "bundleDependencies" and "bundledDependencies" spellings
	// occur in the wild; see UnmarshalJSON.
	BundleDependencies NameList `json:"bundleDependencies,omitempty"`

	// BundledDependencies is the alternate spelling.
	BundledDependencies NameList `json:"bundledDependencies,omitempty"`

	// OptionalDependencies lists dependencies whose absence is tolerated.
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`

	// DevDependencies lists development-only dependencies. Considered only
	// for the entry package, and only when dev mode is requested.
	DevDependencies map[string]string `json:"devDependencies,omitempty"`

	// Parsers overrides language assignment. Keys are either bare file
	// extensions ("cjs") or ./-prefixed module paths ("./data.bin");
	// values name a recognized language.
	Parsers map[string]json.RawMessage `json:"parsers,omitempty"`
}

// PeerMeta carries per-peer-dependency metadata.
type PeerMeta struct {
	Optional bool `json:"optional"`
}

// NameList is a list of package names that tolerates the boolean form
// npm accepts for bundleDependencies ("bundleDependencies": true).
type NameList []string

// UnmarshalJSON accepts either a JSON array of strings or a boolean.
// The boolean form carries no names and decodes to an empty list.
func (l *NameList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "true" || trimmed == "false" || trimmed == "null" {
		*l = nil
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("bundle dependencies must be a list of names: %w", err)
	}
	*l = names
	return nil
}

// Parse parses package.json data into a Manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	return &m, nil
}

// DependencySpec describes one name in a package's merged dependency set.
type DependencySpec struct {
	// Name is the dependency name as it will be searched on disk.
	Name string

	// Optional indicates the dependency's absence is tolerated even under
	// strict resolution.
	Optional bool
}

// MergedDependencies merges the manifest's dependency tables into a single
// name set, in priority order: common dependencies, dependencies, peer
// dependencies (with peerDependenciesMeta optionality), bundle
// dependencies, optional dependencies, and finally dev dependencies when
// includeDev is set. Later tables override earlier ones on name collision.
//
// commonDependencies maps an alias name to the real dependency name the
// administrator injected; the real names enter the merged set.
//
// The result is sorted by name so that traversal order is deterministic.
func (m *Manifest) MergedDependencies(commonDependencies map[string]string, includeDev bool) []DependencySpec {
	merged := make(map[string]bool)

	for _, realName := range commonDependencies {
		merged[realName] = false
	}
	for name := range m.Dependencies {
		merged[name] = false
	}
	for name := range m.PeerDependencies {
		merged[name] = m.PeerDependenciesMeta[name].Optional
	}
	for _, name := range m.BundleDependencies {
		merged[name] = false
	}
	for _, name := range m.BundledDependencies {
		merged[name] = false
	}
	for name := range m.OptionalDependencies {
		merged[name] = true
	}
	if includeDev {
		for name := range m.DevDependencies {
			merged[name] = false
		}
	}

	specs := make([]DependencySpec, 0, len(merged))
	for name, optional := range merged {
		specs = append(specs, DependencySpec{Name: name, Optional: optional})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}
