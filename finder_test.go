package compartmap

import (
	"context"
	"testing"

	"github.com/spf13/afero"
)

func finderFixture(t *testing.T, files map[string]string) (*manifestReader, ReadPowers) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeTree(t, fsys, files)
	powers := NewFilesystemReadPowers(fsys)
	return newManifestReader(powers), powers
}

func TestFindPackageAscends(t *testing.T) {
	reader, powers := finderFixture(t, map[string]string{
		"/repo/node_modules/shared/package.json": `{"name": "shared", "version": "1.0.0"}`,
	})

	// The requester sits two levels below the directory that hosts the
	// installed dependency.
	found, err := findPackage(context.Background(), reader, powers, "/repo/packages/web", "shared")
	if err != nil {
		t.Fatalf("findPackage: %v", err)
	}
	if found == nil {
		t.Fatal("expected to find shared in an ancestor's node_modules")
	}
	if found.location != "/repo/node_modules/shared" {
		t.Errorf("location = %q", found.location)
	}
	if found.manifest.Name != "shared" {
		t.Errorf("manifest name = %q", found.manifest.Name)
	}
}

func TestFindPackagePrefersNearest(t *testing.T) {
	reader, powers := finderFixture(t, map[string]string{
		"/repo/node_modules/dep/package.json":                  `{"name": "dep", "version": "1.0.0"}`,
		"/repo/packages/web/node_modules/dep/package.json":     `{"name": "dep", "version": "2.0.0"}`,
		"/repo/packages/web/node_modules/consumer/package.json": `{"name": "consumer", "version": "1.0.0"}`,
	})

	found, err := findPackage(context.Background(), reader, powers, "/repo/packages/web", "dep")
	if err != nil {
		t.Fatalf("findPackage: %v", err)
	}
	if found == nil || found.location != "/repo/packages/web/node_modules/dep" {
		t.Fatalf("found = %+v, want the nearest installation", found)
	}
}

func TestFindPackageSkipsReservedBasename(t *testing.T) {
	// A doubly nested node_modules/node_modules/dep must never satisfy a
	// probe: candidates whose own basename is node_modules are skipped.
	reader, powers := finderFixture(t, map[string]string{
		"/repo/node_modules/node_modules/dep/package.json": `{"name": "dep", "version": "1.0.0"}`,
	})

	found, err := findPackage(context.Background(), reader, powers, "/repo/node_modules/consumer", "dep")
	if err != nil {
		t.Fatalf("findPackage: %v", err)
	}
	if found != nil {
		t.Errorf("found = %+v, want nil: probes must not nest inside a reserved directory", found)
	}
}

func TestFindPackageScopedName(t *testing.T) {
	reader, powers := finderFixture(t, map[string]string{
		"/app/node_modules/@scope/tool/package.json": `{"name": "@scope/tool", "version": "1.0.0"}`,
	})

	found, err := findPackage(context.Background(), reader, powers, "/app", "@scope/tool")
	if err != nil {
		t.Fatalf("findPackage: %v", err)
	}
	if found == nil || found.location != "/app/node_modules/@scope/tool" {
		t.Fatalf("found = %+v, want the scoped package directory", found)
	}
}

func TestFindPackageNotFound(t *testing.T) {
	reader, powers := finderFixture(t, map[string]string{
		"/app/package.json": `{"name": "app", "version": "1.0.0"}`,
	})

	found, err := findPackage(context.Background(), reader, powers, "/app", "ghost")
	if err != nil {
		t.Fatalf("findPackage: %v", err)
	}
	if found != nil {
		t.Errorf("found = %+v, want nil at filesystem root", found)
	}
}

func TestInsideReservedDirectory(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"/app/node_modules/dep", true},
		{"/app/node_modules/@scope/dep", true},
		{"/app", false},
		{"/repo/packages/web", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := insideReservedDirectory(tt.location); got != tt.want {
			t.Errorf("insideReservedDirectory(%q) = %v, want %v", tt.location, got, tt.want)
		}
	}
}
