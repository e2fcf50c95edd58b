package compartmap

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

// listPolicy is a test policy: every package resolves to a fragment, and
// a consumer may import only the dependencies listed for its name.
type listPolicy struct {
	// allowed maps consumer package name to importable dependency names.
	allowed map[string][]string
	// silent, when set, makes ResolveFragment fail for every package.
	silent bool
}

func (p listPolicy) ResolveFragment(identity PackageIdentity) (json.RawMessage, bool) {
	if p.silent {
		return nil, false
	}
	fragment, _ := json.Marshal(map[string]any{"consumer": identity.Name})
	return fragment, true
}

func (p listPolicy) IsDependencyAllowed(dependency PackageIdentity, consumer json.RawMessage) bool {
	var fragment struct {
		Consumer string `json:"consumer"`
	}
	if err := json.Unmarshal(consumer, &fragment); err != nil {
		return false
	}
	return slices.Contains(p.allowed[fragment.Consumer], dependency.Name)
}

func policyFixture() map[string]string {
	return map[string]string{
		"/app/package.json": `{
			"name": "app", "version": "1.0.0",
			"dependencies": {"p": "*"}
		}`,
		"/app/node_modules/p/package.json": `{
			"name": "p", "version": "1.0.0",
			"dependencies": {"r": "*"},
			"exports": {".": "./p.js"}
		}`,
		"/app/node_modules/r/package.json": `{
			"name": "r", "version": "1.0.0",
			"exports": {".": "./r.js", "./extra": "./extra.js"}
		}`,
	}
}

func TestPolicyExclusion(t *testing.T) {
	policy := listPolicy{allowed: map[string][]string{
		"app": {"p"},
		"p":   {}, // p may not import r
	}}
	descriptor, err := resolveTree(t, policyFixture(), ResolveOptions{Strict: true, Policy: policy})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	rLocation := "/app/node_modules/r"
	if _, ok := descriptor.Compartments[rLocation]; !ok {
		t.Fatal("r is still a real package and must remain in the map")
	}

	p := descriptor.Compartments["/app/node_modules/p"]
	for specifier, module := range p.Modules {
		if module.Compartment == rLocation {
			t.Errorf("policy forbids p -> r, but module %q resolves into r", specifier)
		}
	}
	if slices.Contains(p.CompartmentNames, rLocation) {
		t.Errorf("p's reachable compartments %v must not include r", p.CompartmentNames)
	}
	if p.Policy == nil {
		t.Error("p should carry its resolved policy fragment")
	}
}

func TestPolicyFragmentMustBeTotal(t *testing.T) {
	_, err := resolveTree(t, policyFixture(), ResolveOptions{
		Strict: true,
		Policy: listPolicy{silent: true},
	})
	var fragmentErr *PolicyFragmentError
	if !errors.As(err, &fragmentErr) {
		t.Fatalf("error = %v, want *PolicyFragmentError", err)
	}
}

func TestAttenuatorsCompartment(t *testing.T) {
	policy := listPolicy{allowed: map[string][]string{
		"app": {"p", "r"},
		"p":   {"r"},
	}}
	descriptor, err := resolveTree(t, policyFixture(), ResolveOptions{Strict: true, Policy: policy})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	attenuators := descriptor.Compartments[AttenuatorsCompartment]
	if attenuators == nil {
		t.Fatal("an active policy must synthesize the attenuators compartment")
	}
	if attenuators.Name != AttenuatorsCompartment {
		t.Errorf("attenuators name = %q", attenuators.Name)
	}
	if len(attenuators.Modules) != 0 || len(attenuators.Scopes) != 0 {
		t.Error("attenuators compartment must have cleared aliases")
	}
	if attenuators.Policy != nil {
		t.Error("attenuators compartment is policy-exempt")
	}

	// Without a policy no attenuators compartment is synthesized.
	plain, err := resolveTree(t, policyFixture(), ResolveOptions{Strict: true})
	if err != nil {
		t.Fatalf("resolve without policy: %v", err)
	}
	if _, ok := plain.Compartments[AttenuatorsCompartment]; ok {
		t.Error("no policy, no attenuators compartment")
	}
}

func TestReservedNameCollision(t *testing.T) {
	files := policyFixture()
	files["/app/node_modules/r/package.json"] = `{
		"name": "<ATTENUATORS>", "version": "1.0.0", "exports": {".": "./r.js"}
	}`
	policy := listPolicy{allowed: map[string][]string{
		"app":           {"p"},
		"p":             {"r", "<ATTENUATORS>"},
		"<ATTENUATORS>": {},
	}}
	_, err := resolveTree(t, files, ResolveOptions{Strict: true, Policy: policy})
	var reserved *ReservedNameError
	if !errors.As(err, &reserved) {
		t.Fatalf("error = %v, want *ReservedNameError", err)
	}
	if reserved.Location != "/app/node_modules/r" {
		t.Errorf("collision location = %q", reserved.Location)
	}
}

func TestSelfAliasRoundTrip(t *testing.T) {
	descriptor, err := resolveTree(t, map[string]string{
		"/app/package.json": `{
			"name": "app", "version": "1.0.0",
			"exports": {".": "./index.js"}
		}`,
	}, ResolveOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	app := descriptor.Compartments["/app"]
	module, ok := app.Modules["app"]
	if !ok {
		t.Fatal("package must be able to import its own exports by its own name")
	}
	if module.Compartment != "/app" || module.Module != "./index.js" {
		t.Errorf("self alias = %+v, want own compartment ./index.js", module)
	}
	if _, scoped := app.Scopes["app"]; scoped {
		t.Error("explicit exports leave no open scope")
	}
}

func TestOpenScopeFallback(t *testing.T) {
	descriptor, err := resolveTree(t, map[string]string{
		"/app/package.json": `{
			"name": "app", "version": "1.0.0",
			"dependencies": {"legacy": "*"}
		}`,
		"/app/node_modules/legacy/package.json": `{
			"name": "legacy", "version": "0.1.0", "main": "./legacy.js"
		}`,
	}, ResolveOptions{Strict: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	app := descriptor.Compartments["/app"]
	legacyLocation := "/app/node_modules/legacy"
	scope, ok := app.Scopes["legacy"]
	if !ok {
		t.Fatal("a dependency with no export map must yield an open scope entry")
	}
	if scope.Compartment != legacyLocation {
		t.Errorf("scope compartment = %q, want %q", scope.Compartment, legacyLocation)
	}
	// The legacy main module is still importable by name.
	if module, ok := app.Modules["legacy"]; !ok || module.Module != "./legacy.js" {
		t.Errorf("legacy main entry = %+v, want ./legacy.js", app.Modules["legacy"])
	}
}

func TestInternalAliases(t *testing.T) {
	descriptor, err := resolveTree(t, map[string]string{
		"/app/package.json": `{
			"name": "app", "version": "1.0.0",
			"dependencies": {"dep": "*"},
			"exports": {".": "./index.js"},
			"imports": {
				"#local": "./src/local.js",
				"#remote": "dep/feature"
			}
		}`,
		"/app/node_modules/dep/package.json": `{
			"name": "dep", "version": "1.0.0",
			"exports": {".": "./main.js", "./feature": "./lib/feature.js"}
		}`,
	}, ResolveOptions{Strict: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	app := descriptor.Compartments["/app"]
	local, ok := app.Modules["#local"]
	if !ok || local.Compartment != "/app" || local.Module != "./src/local.js" {
		t.Errorf("#local = %+v, want self ./src/local.js", app.Modules["#local"])
	}
	remote, ok := app.Modules["#remote"]
	if !ok {
		t.Fatal("#remote alias missing")
	}
	if remote.Compartment != "/app/node_modules/dep" || remote.Module != "./lib/feature.js" {
		t.Errorf("#remote = %+v, want dep ./lib/feature.js", remote)
	}
}

func TestAliasTargetMissing(t *testing.T) {
	_, err := resolveTree(t, map[string]string{
		"/app/package.json": `{
			"name": "app", "version": "1.0.0",
			"imports": {"#broken": "never-installed/x"}
		}`,
	}, ResolveOptions{})
	var aliasErr *AliasTargetError
	if !errors.As(err, &aliasErr) {
		t.Fatalf("error = %v, want *AliasTargetError", err)
	}
	if aliasErr.Specifier != "#broken" || aliasErr.Target != "never-installed/x" {
		t.Errorf("alias error = %+v", aliasErr)
	}
}
