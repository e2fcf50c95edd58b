package compartmap

import "encoding/json"

// PackageIdentity identifies one package to a policy: its name, the
// logical path from the entry package, its canonical location, and
// whether it is the entry itself.
type PackageIdentity struct {
	// Name is the package name.
	Name string

	// Path is the preferred logical path from the entry to the package.
	// Empty for the entry.
	Path []string

	// Location is the package's canonical location.
	Location string

	// IsEntry reports whether this is the entry package.
	IsEntry bool
}

// Policy is the capability governing cross-compartment access. Policy
// application is in scope here; validating the shape of a policy
// document is the caller's concern.
//
// Once a policy is active, ResolveFragment must be total over real
// packages: failing to resolve a fragment for a reachable package is an
// internal invariant violation and aborts resolution.
type Policy interface {
	// ResolveFragment returns the policy fragment applicable to a
	// package, or false if none applies.
	ResolveFragment(identity PackageIdentity) (json.RawMessage, bool)

	// IsDependencyAllowed reports whether a package governed by the
	// given fragment may import the identified dependency.
	IsDependencyAllowed(dependency PackageIdentity, consumer json.RawMessage) bool
}

// dependencyGate is the translator's single enforcement point. Two
// variants exist so the translator body never branches on policy
// nullability: allowAllGate when no policy is supplied, and policyGate
// delegating to the Policy capability.
type dependencyGate interface {
	// fragmentFor resolves the fragment for a compartment, or errors if
	// resolution is not total.
	fragmentFor(identity PackageIdentity) (json.RawMessage, error)

	// allows reports whether the consumer fragment permits the
	// dependency.
	allows(dependency PackageIdentity, consumer json.RawMessage) bool
}

type allowAllGate struct{}

func (allowAllGate) fragmentFor(PackageIdentity) (json.RawMessage, error) { return nil, nil }

func (allowAllGate) allows(PackageIdentity, json.RawMessage) bool { return true }

type policyGate struct {
	policy Policy
}

func (g policyGate) fragmentFor(identity PackageIdentity) (json.RawMessage, error) {
	fragment, ok := g.policy.ResolveFragment(identity)
	if !ok {
		return nil, &PolicyFragmentError{
			Package:  identity.Name,
			Path:     identity.Path,
			Location: identity.Location,
		}
	}
	return fragment, nil
}

func (g policyGate) allows(dependency PackageIdentity, consumer json.RawMessage) bool {
	return g.policy.IsDependencyAllowed(dependency, consumer)
}

// gateFor selects the enforcement variant for a possibly-nil policy.
func gateFor(policy Policy) dependencyGate {
	if policy == nil {
		return allowAllGate{}
	}
	return policyGate{policy: policy}
}
