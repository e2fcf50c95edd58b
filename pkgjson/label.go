package pkgjson

import (
	"github.com/Masterminds/semver/v3"
)

// Label returns the human-readable label for the manifest: the package
// name joined with its version as "name-v1.2.3".
//
// The version is normalized through semver parsing when possible (so
// "v1.2.3" and "1.2.3" label identically); unparsable versions pass
// through verbatim, since package managers do not require manifests to
// carry valid semver. Labels are informational and not guaranteed unique:
// two physically distinct installs of the same release share one label.
func (m *Manifest) Label() string {
	name := m.Name
	if name == "" {
		name = "unknown"
	}
	version := m.Version
	if version == "" {
		return name
	}
	if v, err := semver.NewVersion(version); err == nil {
		version = v.String()
	}
	return name + "-v" + version
}
