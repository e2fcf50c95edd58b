package compartmap

import (
	"context"
	"path"

	"github.com/hardenedjs/go-compartmap/names"
	"github.com/hardenedjs/go-compartmap/pkgjson"
)

// reservedDirectory is the subdirectory package managers nest installed
// dependencies in.
const reservedDirectory = "node_modules"

// foundPackage is a successful finder probe.
type foundPackage struct {
	location string
	manifest *pkgjson.Manifest
}

// findPackage searches for a named dependency by walking upward from the
// requester's directory: at each ancestor, probe
// <ancestor>/node_modules/<name>/ and return the package if a manifest
// exists there. Returns (nil, nil) when the filesystem root is reached
// without a hit.
//
// If a candidate directory's own basename is the reserved subdirectory
// name, it is skipped without probing: installed layouts never nest a
// probe directly inside another node_modules level without ascending
// past both.
//
// Every probe location is canonicalized first, so two nominally different
// paths aliasing one physical package are treated as a single location.
func findPackage(ctx context.Context, reader *manifestReader, powers ReadPowers, directory, name string) (*foundPackage, error) {
	segments := names.PathSegments(name)

	for candidate := path.Clean(directory); ; {
		if path.Base(candidate) != reservedDirectory {
			probe := path.Join(append([]string{candidate, reservedDirectory}, segments...)...)
			location, err := powers.Canonicalize(ctx, probe)
			if err != nil {
				return nil, err
			}
			manifest, err := reader.Read(ctx, location)
			if err != nil {
				return nil, err
			}
			if manifest != nil {
				return &foundPackage{location: location, manifest: manifest}, nil
			}
		}

		parent := path.Dir(candidate)
		if parent == candidate {
			return nil, nil
		}
		candidate = parent
	}
}

// insideReservedDirectory reports whether a location sits inside a
// node_modules tree. Packages outside it (workspace-local) use
// source-oriented language defaults rather than build-output defaults.
func insideReservedDirectory(location string) bool {
	for dir := path.Clean(location); ; {
		if path.Base(dir) == reservedDirectory {
			return true
		}
		parent := path.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}
