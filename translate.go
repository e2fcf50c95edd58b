package compartmap

import (
	"fmt"
	"strings"
)

// translate converts a completed resolution graph into a compartment map
// descriptor. Every iteration is over lexicographically sorted keys so
// that two runs over the same graph produce identical maps.
func translate(c *resolution, entryLocation, entryModule string) (*CompartmentMapDescriptor, error) {
	gate := gateFor(c.opts.Policy)

	identities := make(map[string]PackageIdentity, len(c.graph))
	for location, node := range c.graph {
		identities[location] = PackageIdentity{
			Name:     node.name,
			Path:     c.preferred[location],
			Location: location,
			IsEntry:  location == entryLocation,
		}
	}

	compartments := make(map[string]*CompartmentDescriptor, len(c.graph))
	for _, location := range sortedKeys(c.graph) {
		node := c.graph[location]

		fragment, err := gate.fragmentFor(identities[location])
		if err != nil {
			return nil, err
		}

		modules := make(map[string]ModuleDescriptor)
		scopes := make(map[string]ScopeDescriptor)
		reachable := make(map[string]bool)

		for _, depName := range sortedKeys(node.dependencyLocations) {
			depLocation := node.dependencyLocations[depName]
			if depLocation != location && !gate.allows(identities[depLocation], fragment) {
				continue
			}
			importAliases(modules, scopes, depName, depLocation, c.graph[depLocation])
			if depLocation != location {
				reachable[depLocation] = true
			}
		}

		// Self-reference is never subject to policy: a package may always
		// import its own exports by its own name. Nameless packages have
		// no name to import themselves under.
		if node.name != "" {
			importAliases(modules, scopes, node.name, location, node)
		}

		// Internal aliases with relative targets land in this
		// compartment; redirected aliases land in the dependency they
		// were rewritten to, unless policy removed that dependency.
		for _, specifier := range sortedKeys(node.internalAliases) {
			modules[specifier] = ModuleDescriptor{Compartment: location, Module: node.internalAliases[specifier]}
		}
		for _, specifier := range sortedKeys(node.internalRedirects) {
			target := node.internalRedirects[specifier]
			if target.location != location && !reachable[target.location] {
				continue
			}
			modules[specifier] = ModuleDescriptor{
				Compartment: target.location,
				Module:      resolveThroughExports(c.graph[target.location], target.subpath),
			}
		}

		compartments[location] = &CompartmentDescriptor{
			Name:             node.name,
			Label:            node.label,
			Path:             c.preferred[location],
			Location:         location,
			Modules:          modules,
			Scopes:           scopes,
			Parsers:          node.languageForExtension,
			Types:            node.moduleLanguages,
			Policy:           fragment,
			CompartmentNames: sortedKeys(reachable),
		}
	}

	entryModule, err := resolveEntryModule(compartments[entryLocation], entryLocation, entryModule)
	if err != nil {
		return nil, err
	}

	if c.opts.Policy != nil {
		if err := synthesizeAttenuators(compartments, entryLocation); err != nil {
			return nil, err
		}
	}

	return &CompartmentMapDescriptor{
		Tags:         sortedTags(c.tags),
		Entry:        EntryDescriptor{Compartment: entryLocation, Module: entryModule},
		Compartments: compartments,
	}, nil
}

// importAliases composes one visible package's external aliases into a
// consumer's module table: each exported specifier becomes
// "<name>/<subpath>" mapped to the target module in the exporting
// compartment. A package with no explicit export map additionally opens
// a scope, granting access to any module path under it rather than
// enumerating every file.
func importAliases(modules map[string]ModuleDescriptor, scopes map[string]ScopeDescriptor, name, location string, node *graphNode) {
	for _, exported := range sortedKeys(node.externalAliases) {
		specifier := name
		if exported != "." {
			specifier = name + "/" + strings.TrimPrefix(exported, "./")
		}
		modules[specifier] = ModuleDescriptor{
			Compartment: location,
			Module:      node.externalAliases[exported],
		}
	}
	if !node.explicitExports {
		scopes[name] = ScopeDescriptor{Compartment: location}
	}
}

// resolveThroughExports maps a subpath of a dependency through its export
// map when one exists; packages without explicit exports accept any
// module path verbatim.
func resolveThroughExports(node *graphNode, subpath string) string {
	if target, ok := node.externalAliases[subpath]; ok {
		return target
	}
	return subpath
}

// resolveEntryModule settles the entry module specifier and guarantees it
// is present in the entry compartment's module table.
func resolveEntryModule(entry *CompartmentDescriptor, entryLocation, entryModule string) (string, error) {
	if entryModule == "" {
		if descriptor, ok := entry.Modules[entry.Name]; ok && descriptor.Compartment == entryLocation {
			entryModule = descriptor.Module
		} else {
			entryModule = "./index.js"
		}
	}
	if _, ok := entry.Modules[entryModule]; ok {
		return entryModule, nil
	}
	if relativeSpecifier(entryModule) {
		entry.Modules[entryModule] = ModuleDescriptor{Compartment: entryLocation, Module: entryModule}
		return entryModule, nil
	}
	return "", fmt.Errorf("entry module %q is not importable from the entry compartment at %s", entryModule, entryLocation)
}

// synthesizeAttenuators adds the reserved, policy-exempt compartment that
// hosts policy-declared trust-boundary modules. Its shape is cloned from
// the entry compartment with cleared aliases. A real package claiming
// the reserved name is a fatal collision.
func synthesizeAttenuators(compartments map[string]*CompartmentDescriptor, entryLocation string) error {
	for _, location := range sortedKeys(compartments) {
		if compartments[location].Name == AttenuatorsCompartment {
			return &ReservedNameError{Location: location}
		}
	}
	entry := compartments[entryLocation]
	compartments[AttenuatorsCompartment] = &CompartmentDescriptor{
		Name:             AttenuatorsCompartment,
		Label:            AttenuatorsCompartment,
		Location:         AttenuatorsCompartment,
		Modules:          make(map[string]ModuleDescriptor),
		Scopes:           make(map[string]ScopeDescriptor),
		Parsers:          entry.Parsers,
		Types:            entry.Types,
		CompartmentNames: append([]string(nil), entry.CompartmentNames...),
	}
	return nil
}
