package compartmap

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hardenedjs/go-compartmap/exports"
	"github.com/hardenedjs/go-compartmap/pkgjson"
)

// graphNode records the resolution state of one package, keyed in the
// graph by canonical location. A node is created exactly once, by its
// first visitor, and mutated only during its own construction.
type graphNode struct {
	// name is the package name: the manifest's declared name, falling
	// back to the discovery name.
	name string

	// label is the human-readable "name-vVersion" tag.
	label string

	// explicitExports reports whether the manifest declared an exports
	// map. Consumers of packages without one get an open scope.
	explicitExports bool

	// externalAliases maps exported specifiers to target paths within
	// the package.
	externalAliases map[string]string

	// internalAliases maps "#name" specifiers to relative targets within
	// the package. Aliases with bare-specifier targets are moved to
	// internalRedirects during post-processing.
	internalAliases map[string]string

	// internalRedirects maps "#name" specifiers to resolved dependency
	// locations.
	internalRedirects map[string]redirect

	// dependencyLocations maps each dependency name (including common
	// dependency aliases) to the canonical location it resolved to.
	// Every value is a key in the graph.
	dependencyLocations map[string]string

	// languageForExtension assigns a language to each file extension.
	languageForExtension map[string]string

	// moduleLanguages assigns languages to individual module paths,
	// overriding languageForExtension.
	moduleLanguages map[string]string
}

// redirect is a post-processed internal alias pointing into a dependency.
type redirect struct {
	location string
	subpath  string
}

func newGraphNode() *graphNode {
	return &graphNode{
		internalRedirects:   make(map[string]redirect),
		dependencyLocations: make(map[string]string),
	}
}

// resolution carries the shared state of one resolution run. Caches are
// scoped to the run, never process-wide, so concurrent unrelated
// resolutions cannot interfere.
type resolution struct {
	reader *manifestReader
	powers ReadPowers
	opts   ResolveOptions
	tags   map[string]bool
	log    *slog.Logger

	mu sync.Mutex
	// graph holds every discovered package, keyed by canonical location.
	graph map[string]*graphNode
	// preferred maps each location to the lexicographically least
	// logical path seen so far, used to choose canonical names when one
	// physical package is reachable via multiple paths.
	preferred map[string][]string
}

func newResolution(powers ReadPowers, opts ResolveOptions) *resolution {
	return &resolution{
		reader:    newManifestReader(powers),
		powers:    powers,
		opts:      opts,
		tags:      opts.conditionTags(),
		log:       opts.logger(),
		graph:     make(map[string]*graphNode),
		preferred: make(map[string][]string),
	}
}

// graphPackage discovers one package and, mutually recursively with
// gatherDependency, every package transitively reachable from it.
//
// The node is registered in the graph before any recursion, so a
// dependency cycle back to this location is an idempotent no-op on
// re-entry rather than an infinite recursion. Subsequent visitors of a
// location observe "already present" and do not re-enter.
func (c *resolution) graphPackage(ctx context.Context, discoveredName, location string, manifest *pkgjson.Manifest, logicalPath []string, isEntry bool) error {
	c.mu.Lock()
	if _, ok := c.graph[location]; ok {
		c.mu.Unlock()
		return nil
	}
	node := newGraphNode()
	c.graph[location] = node
	c.mu.Unlock()

	// Package managers do not guarantee name/location correspondence
	// (aliased installs), so a mismatch only warrants a warning.
	if discoveredName != "" && manifest.Name != "" && manifest.Name != discoveredName {
		c.log.Warn("package name does not match the name it was discovered under",
			"declared", manifest.Name, "discovered", discoveredName, "location", location)
	}
	node.name = manifest.Name
	if node.name == "" {
		node.name = discoveredName
	}
	node.label = manifest.Label()

	// Dev dependencies never propagate past the entry package.
	specs := manifest.MergedDependencies(c.opts.CommonDependencies, isEntry && c.opts.Dev)

	children, err := c.gatherDependencies(ctx, node, location, logicalPath, specs)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, child := range children {
		child := child
		group.Go(func() error {
			return c.graphPackage(groupCtx, child.name, child.location, child.manifest, child.logicalPath, false)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if err := c.inferNodeAliases(node, location, manifest); err != nil {
		return err
	}
	return c.postProcessNode(node, location)
}

// gatheredDependency is one resolved edge, queued for recursion.
type gatheredDependency struct {
	name        string
	location    string
	manifest    *pkgjson.Manifest
	logicalPath []string
}

// gatherDependencies resolves the merged dependency set of one package,
// in lexicographic name order. Missing optional dependencies (and, under
// non-strict resolution, any missing dependencies) are silently skipped;
// a missing required dependency under strict resolution is fatal.
func (c *resolution) gatherDependencies(ctx context.Context, node *graphNode, location string, logicalPath []string, specs []pkgjson.DependencySpec) ([]gatheredDependency, error) {
	var children []gatheredDependency
	for _, spec := range specs {
		found, err := findPackage(ctx, c.reader, c.powers, location, spec.Name)
		if err != nil {
			return nil, err
		}
		if found == nil {
			if spec.Optional || !c.opts.Strict {
				c.log.Debug("skipping unresolved dependency",
					"dependency", spec.Name, "package", node.name, "location", location, "optional", spec.Optional)
				continue
			}
			return nil, &DependencyUnresolvedError{Dependency: spec.Name, Package: node.name, Location: location}
		}

		node.dependencyLocations[spec.Name] = found.location

		childPath := append(slices.Clone(logicalPath), spec.Name)
		c.preferPath(found.location, childPath)
		children = append(children, gatheredDependency{
			name:        spec.Name,
			location:    found.location,
			manifest:    found.manifest,
			logicalPath: childPath,
		})
	}
	return children, nil
}

// preferPath records candidate as the preferred logical path for a
// location if it is lexicographically less than the incumbent. The
// update is improve-only, hence commutative and order-independent under
// concurrent completion.
func (c *resolution) preferPath(location string, candidate []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	incumbent, ok := c.preferred[location]
	if !ok || slices.Compare(candidate, incumbent) < 0 {
		c.preferred[location] = candidate
	}
}

// inferNodeAliases computes the package's alias maps and per-extension
// language table.
func (c *resolution) inferNodeAliases(node *graphNode, location string, manifest *pkgjson.Manifest) error {
	aliases := exports.Infer(manifest, c.tags)
	node.externalAliases = aliases.External
	node.internalAliases = aliases.Internal
	node.explicitExports = aliases.Explicit

	perExtension, perPath, err := manifest.ParserOverrides()
	if err != nil {
		return err
	}

	languages := exports.DefaultLanguageForExtension(manifest.Type)
	overrides := c.opts.WorkspaceLanguageForExtension
	if insideReservedDirectory(location) {
		overrides = c.opts.LanguageForExtension
	}
	for extension, language := range overrides {
		languages[extension] = language
	}
	for extension, language := range perExtension {
		languages[extension] = language
	}
	node.languageForExtension = languages
	node.moduleLanguages = perPath
	return nil
}

// postProcessNode applies the two post-hoc rewrites: common-dependency
// aliases land on the already-resolved common dependency's location, and
// internal aliases with bare-specifier targets are redirected to the
// target dependency's resolved location. Relative-to-relative aliases
// are left for the translator to resolve structurally.
func (c *resolution) postProcessNode(node *graphNode, location string) error {
	for _, alias := range sortedKeys(c.opts.CommonDependencies) {
		realName := c.opts.CommonDependencies[alias]
		resolved, ok := node.dependencyLocations[realName]
		if !ok {
			return &CommonDependencyError{Alias: alias, Dependency: realName, Location: location}
		}
		node.dependencyLocations[alias] = resolved
	}

	for _, specifier := range sortedKeys(node.internalAliases) {
		target := node.internalAliases[specifier]
		if relativeSpecifier(target) {
			continue
		}
		depName, subpath := splitSpecifier(target)
		resolved, ok := node.dependencyLocations[depName]
		if !ok {
			return &AliasTargetError{Specifier: specifier, Target: target, Location: location}
		}
		node.internalRedirects[specifier] = redirect{location: resolved, subpath: subpath}
		delete(node.internalAliases, specifier)
	}
	return nil
}

// relativeSpecifier reports whether a specifier is relative to the
// package root rather than a bare dependency specifier.
func relativeSpecifier(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// splitSpecifier splits a bare specifier into the dependency name and
// the subpath within it. Scoped names keep their two leading segments.
func splitSpecifier(specifier string) (depName, subpath string) {
	nameSegments := 1
	if strings.HasPrefix(specifier, "@") {
		nameSegments = 2
	}
	parts := strings.Split(specifier, "/")
	if len(parts) <= nameSegments {
		return specifier, "."
	}
	return strings.Join(parts[:nameSegments], "/"), "./" + strings.Join(parts[nameSegments:], "/")
}

// sortedKeys returns a map's keys in lexicographic order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
