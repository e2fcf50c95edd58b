package compartmap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hardenedjs/go-compartmap/names"
)

// Default condition tags. These are always present in the effective
// condition set, in addition to any caller-supplied tags; downstream
// consumers assume them.
const (
	conditionImport  = "import"
	conditionDefault = "default"
	// productCondition is the product-specific tag packages may target in
	// conditional exports.
	productCondition = "compartmap"
)

// ResolveOptions configures compartment map resolution.
type ResolveOptions struct {
	// Conditions lists additional condition tags for selecting
	// conditional exports (e.g. "node", "browser"). The tags "import",
	// "default", and "compartmap" are always included and cannot be
	// disabled.
	Conditions []string

	// Dev includes the entry package's devDependencies in resolution.
	// Dev mode never propagates past the entry package.
	Dev bool

	// Strict makes a missing non-optional dependency a fatal resolution
	// error. When false, missing dependencies are silently treated as
	// absent, allowing partial graphs for best-effort tooling.
	Strict bool

	// CommonDependencies maps administrator-injected alias names to real
	// dependency names. The real dependencies are merged into every
	// package's dependency set at the lowest priority, and every alias is
	// rewritten to the resolved dependency's location afterward.
	CommonDependencies map[string]string

	// EntryModuleSpecifier selects the entry module within the entry
	// compartment. When empty, the entry package's root export is used,
	// falling back to "./index.js".
	EntryModuleSpecifier string

	// LanguageForExtension overrides per-extension language assignment
	// for packages inside the reserved dependency subdirectory
	// (build-output defaults).
	LanguageForExtension map[string]string

	// WorkspaceLanguageForExtension overrides per-extension language
	// assignment for packages outside the reserved dependency
	// subdirectory, e.g. workspace-local packages (source-oriented
	// defaults).
	WorkspaceLanguageForExtension map[string]string

	// Policy governs cross-compartment access. Nil means every package
	// may import all of its dependencies.
	Policy Policy

	// Logger receives non-fatal warnings (for example, a manifest whose
	// declared name disagrees with its discovery name). If nil, logging
	// is disabled (silent mode).
	//
	// Design decision: We use *slog.Logger (Go 1.21+ stdlib) rather than
	// a custom interface because slog provides frontend/backend
	// separation by design. Users can plug in any backend via slog
	// handlers. See: https://go.dev/blog/slog
	Logger *slog.Logger
}

// validate rejects malformed caller-supplied package names before
// resolution starts. Common dependencies are administrator input, not
// manifest content, so they are held to the strict name grammar;
// manifest-declared names stay lenient.
func (o ResolveOptions) validate() error {
	for _, alias := range sortedKeys(o.CommonDependencies) {
		if _, err := names.NewPackageName(alias); err != nil {
			return fmt.Errorf("common dependency alias: %w", err)
		}
		if _, err := names.NewPackageName(o.CommonDependencies[alias]); err != nil {
			return fmt.Errorf("common dependency for alias %q: %w", alias, err)
		}
	}
	return nil
}

// conditionTags returns the effective condition set, always including the
// fixed default tags.
func (o ResolveOptions) conditionTags() map[string]bool {
	tags := map[string]bool{
		conditionImport:  true,
		conditionDefault: true,
		productCondition: true,
	}
	for _, tag := range o.Conditions {
		if tag != "" {
			tags[tag] = true
		}
	}
	return tags
}

// sortedTags flattens a condition set into a sorted slice for the
// compartment map's Tags field.
func sortedTags(tags map[string]bool) []string {
	out := make([]string, 0, len(tags))
	for tag := range tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// logger returns the configured logger or a silent one.
func (o ResolveOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(discardHandler{})
}

// discardHandler drops all records. slog.DiscardHandler exists in newer
// toolchains; carrying our own keeps the floor at go1.21.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
