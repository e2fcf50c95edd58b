// Package names provides strongly-typed, validated package name components.
//
// All types in this package are immutable and validate their values at
// construction time. Zero values are generally invalid - use the constructor
// functions (NewPackageName, NewScope) to create valid instances.
//
// # Validation Patterns
//
// Unscoped names must match: [a-z0-9]([a-z0-9._-]*[a-z0-9])?
// Scoped names take the form @scope/name where both parts match the
// unscoped pattern.
package names

import (
	"fmt"
	"regexp"
	"strings"
)

// PackageName represents a validated package name, optionally scoped.
// Examples: "lodash", "@acme/tools".
type PackageName struct {
	scope string
	name  string
}

var namePartRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]*[a-z0-9])?$`)

// NewPackageName creates a validated PackageName from a string.
func NewPackageName(raw string) (PackageName, error) {
	if raw == "" {
		return PackageName{}, fmt.Errorf("package name cannot be empty")
	}
	if strings.HasPrefix(raw, "@") {
		scope, name, ok := strings.Cut(raw[1:], "/")
		if !ok {
			return PackageName{}, fmt.Errorf("invalid scoped package name %q: missing /", raw)
		}
		if !namePartRegex.MatchString(scope) {
			return PackageName{}, fmt.Errorf("invalid package scope %q in %q", scope, raw)
		}
		if !namePartRegex.MatchString(name) {
			return PackageName{}, fmt.Errorf("invalid package name %q in %q", name, raw)
		}
		return PackageName{scope: scope, name: name}, nil
	}
	if !namePartRegex.MatchString(raw) {
		return PackageName{}, fmt.Errorf("invalid package name %q: must match [a-z0-9]([a-z0-9._-]*[a-z0-9])?", raw)
	}
	return PackageName{name: raw}, nil
}

// MustPackageName creates a PackageName or panics. Use only for constants/tests.
func MustPackageName(raw string) PackageName {
	n, err := NewPackageName(raw)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the full package name, including the scope if present.
func (n PackageName) String() string {
	if n.scope != "" {
		return "@" + n.scope + "/" + n.name
	}
	return n.name
}

// Scoped reports whether the name carries a scope.
func (n PackageName) Scoped() bool {
	return n.scope != ""
}

// Scope returns the scope without the leading @, or "" for unscoped names.
func (n PackageName) Scope() string {
	return n.scope
}

// PathSegments returns the directory segments a package manager uses when
// installing this package. Scoped packages occupy two levels:
// "@acme/tools" installs under "@acme/tools/".
func (n PackageName) PathSegments() []string {
	if n.scope != "" {
		return []string{"@" + n.scope, n.name}
	}
	return []string{n.name}
}

// PathSegments splits a raw specifier name into install directory segments
// without validating it. Dependency names observed in manifests are not
// guaranteed to be well formed; resolution is lenient about them.
func PathSegments(raw string) []string {
	if strings.HasPrefix(raw, "@") {
		if scope, name, ok := strings.Cut(raw, "/"); ok {
			return []string{scope, name}
		}
	}
	return []string{raw}
}
