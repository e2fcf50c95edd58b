package compartmap

import (
	"reflect"
	"sort"
)

// CompartmentChange represents an added or removed compartment in a map
// diff.
type CompartmentChange struct {
	// Location is the compartment's key in the map.
	Location string `json:"location"`

	// Label is the compartment's human-readable label.
	Label string `json:"label"`
}

// CompartmentUpdate represents a compartment present in both maps whose
// visibility rules changed.
type CompartmentUpdate struct {
	// Location is the compartment's key in the map.
	Location string `json:"location"`

	// ModulesChanged reports a difference in the module table.
	ModulesChanged bool `json:"modules_changed,omitempty"`

	// ScopesChanged reports a difference in the scope table.
	ScopesChanged bool `json:"scopes_changed,omitempty"`

	// PolicyChanged reports a difference in the resolved policy
	// fragment.
	PolicyChanged bool `json:"policy_changed,omitempty"`
}

// MapDiff describes the differences between two compartment maps.
//
// This is useful for:
//   - Reviewing the effect of dependency installs before relinking
//   - Auditing what a policy change removed from a package's view
//   - CI checks that a committed map matches the on-disk layout
type MapDiff struct {
	// Added contains compartments present in new but not in old.
	Added []CompartmentChange `json:"added,omitempty"`

	// Removed contains compartments present in old but not in new.
	Removed []CompartmentChange `json:"removed,omitempty"`

	// Updated contains compartments present in both whose module,
	// scope, or policy content changed.
	Updated []CompartmentUpdate `json:"updated,omitempty"`
}

// IsEmpty returns true if there are no differences between the maps.
func (d *MapDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// TotalChanges returns the total number of changed compartments.
func (d *MapDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Updated)
}

// DiffMaps computes the difference between two compartment maps.
// Nil maps are treated as empty. Results are sorted by location for
// consistent output.
func DiffMaps(old, new *CompartmentMapDescriptor) *MapDiff {
	diff := &MapDiff{}

	oldCompartments := map[string]*CompartmentDescriptor{}
	newCompartments := map[string]*CompartmentDescriptor{}
	if old != nil {
		oldCompartments = old.Compartments
	}
	if new != nil {
		newCompartments = new.Compartments
	}

	for location, descriptor := range newCompartments {
		before, existedBefore := oldCompartments[location]
		if !existedBefore {
			diff.Added = append(diff.Added, CompartmentChange{Location: location, Label: descriptor.Label})
			continue
		}
		update := CompartmentUpdate{
			Location:       location,
			ModulesChanged: !reflect.DeepEqual(before.Modules, descriptor.Modules),
			ScopesChanged:  !reflect.DeepEqual(before.Scopes, descriptor.Scopes),
			PolicyChanged:  string(before.Policy) != string(descriptor.Policy),
		}
		if update.ModulesChanged || update.ScopesChanged || update.PolicyChanged {
			diff.Updated = append(diff.Updated, update)
		}
	}

	for location, descriptor := range oldCompartments {
		if _, stillPresent := newCompartments[location]; !stillPresent {
			diff.Removed = append(diff.Removed, CompartmentChange{Location: location, Label: descriptor.Label})
		}
	}

	sort.Slice(diff.Added, func(i, j int) bool { return diff.Added[i].Location < diff.Added[j].Location })
	sort.Slice(diff.Removed, func(i, j int) bool { return diff.Removed[i].Location < diff.Removed[j].Location })
	sort.Slice(diff.Updated, func(i, j int) bool { return diff.Updated[i].Location < diff.Updated[j].Location })

	return diff
}
