package compartmap

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiffMaps(t *testing.T) {
	old := sampleMap()
	updated := sampleMap()

	// dep gains a module entry and a policy fragment; a new compartment
	// appears.
	dep := updated.Compartments["/app/node_modules/dep"]
	dep.Modules = map[string]ModuleDescriptor{
		"extra": {Compartment: "/app/node_modules/extra", Module: "./main.js"},
	}
	dep.Policy = json.RawMessage(`{"builtins":{}}`)
	updated.Compartments["/app/node_modules/extra"] = &CompartmentDescriptor{
		Name:     "extra",
		Label:    "extra-v1.0.0",
		Location: "/app/node_modules/extra",
	}

	diff := DiffMaps(old, updated)
	if diff.IsEmpty() {
		t.Fatal("diff must not be empty")
	}
	if diff.TotalChanges() != 2 {
		t.Errorf("TotalChanges = %d, want 2", diff.TotalChanges())
	}

	wantAdded := []CompartmentChange{{Location: "/app/node_modules/extra", Label: "extra-v1.0.0"}}
	if got := cmp.Diff(wantAdded, diff.Added); got != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", got)
	}
	wantUpdated := []CompartmentUpdate{{
		Location:       "/app/node_modules/dep",
		ModulesChanged: true,
		PolicyChanged:  true,
	}}
	if got := cmp.Diff(wantUpdated, diff.Updated); got != "" {
		t.Errorf("Updated mismatch (-want +got):\n%s", got)
	}
	if len(diff.Removed) != 0 {
		t.Errorf("Removed = %v, want none", diff.Removed)
	}
}

func TestDiffMapsRemoved(t *testing.T) {
	old := sampleMap()
	pruned := sampleMap()
	delete(pruned.Compartments, "/app/node_modules/dep")

	diff := DiffMaps(old, pruned)
	wantRemoved := []CompartmentChange{{Location: "/app/node_modules/dep", Label: "dep-v2.0.0"}}
	if got := cmp.Diff(wantRemoved, diff.Removed); got != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", got)
	}
}

func TestDiffMapsIdentical(t *testing.T) {
	diff := DiffMaps(sampleMap(), sampleMap())
	if !diff.IsEmpty() {
		t.Errorf("identical maps must diff empty, got %+v", diff)
	}
}

func TestDiffMapsNil(t *testing.T) {
	diff := DiffMaps(nil, sampleMap())
	if len(diff.Added) != 2 {
		t.Errorf("nil old: Added = %d compartments, want 2", len(diff.Added))
	}
	if !DiffMaps(nil, nil).IsEmpty() {
		t.Error("two nil maps must diff empty")
	}
}
