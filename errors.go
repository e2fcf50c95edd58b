package compartmap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPackage indicates the entry location does not contain a package
// manifest. Missing manifests elsewhere are signaled as absence, not
// errors.
var ErrNoPackage = errors.New("no package manifest")

// DependencyUnresolvedError is returned under strict resolution when a
// required dependency cannot be found by the ascending directory search.
type DependencyUnresolvedError struct {
	// Dependency is the name of the missing dependency.
	Dependency string

	// Package is the name of the requesting package.
	Package string

	// Location is the canonical location of the requesting package.
	Location string
}

func (e *DependencyUnresolvedError) Error() string {
	return fmt.Sprintf("cannot find dependency %q for package %q at %s", e.Dependency, e.Package, e.Location)
}

// CommonDependencyError is returned when an administrator-declared common
// dependency was never actually resolved for some package. Common
// dependency aliases must always land on a resolved location.
type CommonDependencyError struct {
	// Alias is the injected alias name.
	Alias string

	// Dependency is the real dependency name the alias points at.
	Dependency string

	// Location is the canonical location of the package missing it.
	Location string
}

func (e *CommonDependencyError) Error() string {
	return fmt.Sprintf("common dependency %q (for alias %q) was not resolved for package at %s", e.Dependency, e.Alias, e.Location)
}

// AliasTargetError is returned when an internal alias points at a
// dependency specifier that was never resolved.
type AliasTargetError struct {
	// Specifier is the internal alias specifier ("#util").
	Specifier string

	// Target is the alias target that failed to resolve.
	Target string

	// Location is the canonical location of the package declaring it.
	Location string
}

func (e *AliasTargetError) Error() string {
	return fmt.Sprintf("alias %q targets unresolved dependency specifier %q in package at %s", e.Specifier, e.Target, e.Location)
}

// PolicyFragmentError is returned when an active policy fails to resolve
// a fragment for a package. Policy resolution must be total: every real
// package must resolve to some fragment once a policy is active, so this
// is an internal invariant violation.
type PolicyFragmentError struct {
	// Package is the name of the package without a fragment.
	Package string

	// Path is the package's logical path from the entry.
	Path []string

	// Location is the package's canonical location.
	Location string
}

func (e *PolicyFragmentError) Error() string {
	return fmt.Sprintf("policy resolved no fragment for package %q (path %s) at %s",
		e.Package, strings.Join(e.Path, ">"), e.Location)
}

// ReservedNameError is returned when a real package claims the reserved
// attenuators compartment name.
type ReservedNameError struct {
	// Location is the canonical location of the offending package.
	Location string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("package at %s claims the reserved compartment name %q", e.Location, AttenuatorsCompartment)
}
