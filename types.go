package compartmap

import "encoding/json"

// CompartmentMapDescriptor is the serializable description of every
// reachable package (compartment), the module-visibility rules between
// compartments, and the policy governing cross-compartment access.
//
// The descriptor is the sole hand-off artifact to a linking stage: it is
// losslessly JSON-serializable and deterministic for a fixed on-disk
// layout and fixed options.
type CompartmentMapDescriptor struct {
	// Tags echoes the final resolved condition set, sorted. Informational
	// only: tags do not affect resolution, only what downstream tooling
	// decides is in effect.
	Tags []string `json:"tags"`

	// Entry names the entry compartment and its entry module.
	Entry EntryDescriptor `json:"entry"`

	// Compartments contains every compartment, keyed by canonical
	// location. The reserved attenuators compartment, when present, is
	// keyed by its reserved name.
	Compartments map[string]*CompartmentDescriptor `json:"compartments"`
}

// EntryDescriptor names the compartment and module where linking starts.
type EntryDescriptor struct {
	// Compartment is the key of the entry compartment in Compartments.
	Compartment string `json:"compartment"`

	// Module is the specifier of the entry module within that
	// compartment; it is always present in the compartment's Modules.
	Module string `json:"module"`
}

// CompartmentDescriptor describes one compartment: a single physical
// package and the rules for what it may import.
type CompartmentDescriptor struct {
	// Name is the package's name. Not guaranteed unique across the map;
	// two different locations can share a name. Canonical renaming is a
	// later stage's concern.
	Name string `json:"name"`

	// Label is a human-readable "name-vVersion" tag. Not unique.
	Label string `json:"label"`

	// Path is the preferred logical path: the lexicographically least
	// sequence of dependency names leading from the entry package to this
	// one. Empty for the entry compartment.
	Path []string `json:"path,omitempty"`

	// Location is the canonical location of the package, and its key in
	// the compartment map.
	Location string `json:"location"`

	// Modules maps every importable specifier to its target module. Keys
	// are dependency-name-prefixed export paths ("dep", "dep/sub"),
	// internal aliases ("#util"), and the compartment's own exported
	// names.
	Modules map[string]ModuleDescriptor `json:"modules,omitempty"`

	// Scopes maps dependency names with no explicit export map to an open
	// scope: any module path under that dependency is importable.
	Scopes map[string]ScopeDescriptor `json:"scopes,omitempty"`

	// Parsers maps file extensions to language tags for this compartment.
	Parsers map[string]string `json:"parsers,omitempty"`

	// Types maps individual module paths to language tags, overriding
	// Parsers.
	Types map[string]string `json:"types,omitempty"`

	// Policy is the resolved policy fragment for this compartment,
	// opaque to this layer. Nil when no policy is active and for the
	// policy-exempt attenuators compartment.
	Policy json.RawMessage `json:"policy,omitempty"`

	// CompartmentNames lists the compartment keys this one may import
	// from, sorted. Module entries never reference a compartment outside
	// this set, except the compartment's own self-references.
	CompartmentNames []string `json:"compartments,omitempty"`
}

// ModuleDescriptor names one importable module: a compartment key and a
// module path within that compartment.
type ModuleDescriptor struct {
	// Compartment is the key of the compartment hosting the module.
	Compartment string `json:"compartment"`

	// Module is the module path within that compartment. Wildcard
	// entries preserve the "*" for the linker to substitute.
	Module string `json:"module"`
}

// ScopeDescriptor grants open access to every module path under one
// compartment.
type ScopeDescriptor struct {
	// Compartment is the key of the compartment the scope opens into.
	Compartment string `json:"compartment"`
}

// AttenuatorsCompartment is the reserved name of the synthetic,
// policy-exempt compartment that hosts policy-declared trust-boundary
// modules. It is a fatal error for a real package to claim this name.
const AttenuatorsCompartment = "<ATTENUATORS>"
