// Package compartmap resolves a package's full transitive dependency set
// from an on-disk package layout and compiles it into a deterministic,
// serializable compartment map: a description of every reachable package
// (a "compartment"), the module-visibility rules between compartments,
// and the security policy governing cross-compartment access.
//
// The map is consumed by a separate linking/execution stage; this package
// performs no source parsing, archiving, or code execution.
//
// # Quick Start
//
//	powers := compartmap.NewOSReadPowers()
//	descriptor, err := compartmap.CompartmentMapForPath(ctx, powers, "/app", compartmap.ResolveOptions{})
//
// # Determinism
//
// For a fixed layout and fixed options, two resolutions produce
// byte-identical compartment maps: all iteration keys are sorted, and a
// package reachable through several dependency paths is named by the
// lexicographically least path.
//
// # Thread Safety
//
// Each call to CompartmentMapForPath runs an isolated resolution with its
// own caches; concurrent unrelated resolutions cannot interfere.
package compartmap

import (
	"context"
	"fmt"
)

// CompartmentMapForPath resolves the package at packageLocation and every
// package transitively reachable from it into a compartment map.
//
// packageLocation must be the directory of a package containing a
// manifest; a missing entry manifest is an error (wrapping ErrNoPackage),
// unlike missing manifests encountered during the ascending search,
// which merely terminate a probe.
//
// Dependency recursions overlap in flight; the method respects context
// cancellation, and the first fatal error unwinds the whole in-flight
// tree. There is no partial-success result.
func CompartmentMapForPath(ctx context.Context, powers ReadPowers, packageLocation string, opts ResolveOptions) (*CompartmentMapDescriptor, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	entryLocation, err := powers.Canonicalize(ctx, packageLocation)
	if err != nil {
		return nil, fmt.Errorf("canonicalize entry location %s: %w", packageLocation, err)
	}

	c := newResolution(powers, opts)

	manifest, err := c.reader.Read(ctx, entryLocation)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, fmt.Errorf("%w at %s", ErrNoPackage, entryLocation)
	}

	// The entry package's preferred logical path is the empty path; no
	// dependency path can improve on it.
	c.preferPath(entryLocation, []string{})

	if err := c.graphPackage(ctx, manifest.Name, entryLocation, manifest, nil, true); err != nil {
		return nil, fmt.Errorf("build dependency graph: %w", err)
	}

	descriptor, err := translate(c, entryLocation, opts.EntryModuleSpecifier)
	if err != nil {
		return nil, fmt.Errorf("translate dependency graph: %w", err)
	}
	return descriptor, nil
}
