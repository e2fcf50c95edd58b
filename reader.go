package compartmap

import (
	"context"
	"fmt"
	"path"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hardenedjs/go-compartmap/pkgjson"
)

// manifestFile is the name of the package manifest within a package root.
const manifestFile = "package.json"

// manifestReader fetches and parses package manifests, memoized per exact
// location string for the lifetime of one resolution run.
//
// Memoization is essential to correctness, not just performance:
// concurrent resolution requests for one location observe a single
// in-flight read instead of issuing duplicates, which is also what breaks
// potential infinite recursion through shared ancestors.
type manifestReader struct {
	powers ReadPowers

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]manifestResult
}

// manifestResult caches one read outcome. A nil manifest with a nil error
// means "no manifest at that location", which is memoized like any other
// outcome.
type manifestResult struct {
	manifest *pkgjson.Manifest
	err      error
}

func newManifestReader(powers ReadPowers) *manifestReader {
	return &manifestReader{
		powers: powers,
		cache:  make(map[string]manifestResult),
	}
}

// Read returns the manifest at location, or (nil, nil) if none exists
// there. Callers use absence to decide whether a directory is a real
// package root.
func (r *manifestReader) Read(ctx context.Context, location string) (*pkgjson.Manifest, error) {
	r.mu.Lock()
	if cached, ok := r.cache[location]; ok {
		r.mu.Unlock()
		return cached.manifest, cached.err
	}
	r.mu.Unlock()

	value, err, _ := r.group.Do(location, func() (any, error) {
		result := r.read(ctx, location)
		r.mu.Lock()
		r.cache[location] = result
		r.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	result := value.(manifestResult)
	return result.manifest, result.err
}

func (r *manifestReader) read(ctx context.Context, location string) manifestResult {
	data, err := r.powers.MaybeRead(ctx, path.Join(location, manifestFile))
	if err != nil {
		return manifestResult{err: fmt.Errorf("read %s at %s: %w", manifestFile, location, err)}
	}
	if data == nil {
		return manifestResult{}
	}
	manifest, err := pkgjson.Parse(data)
	if err != nil {
		return manifestResult{err: fmt.Errorf("at %s: %w", location, err)}
	}
	return manifestResult{manifest: manifest}
}
