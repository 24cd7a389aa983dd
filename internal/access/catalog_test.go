package access

import (
	"strings"
	"testing"
)

func TestCatalogKeysAreUniqueAndWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Catalog() {
		if p.Key == "" || p.Label == "" {
			t.Fatalf("catalog entry missing key or label: %+v", p)
		}
		if seen[p.Key] {
			t.Fatalf("duplicate catalog key %q", p.Key)
		}
		seen[p.Key] = true
		if p.Key != strings.ToLower(p.Key) || strings.ContainsAny(p.Key, " \t") {
			t.Fatalf("malformed catalog key %q", p.Key)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known("customer.read") {
		t.Fatal("expected customer.read to be known")
	}
	if Known("customer.levitate") {
		t.Fatal("unexpected key reported as known")
	}
}

func TestGroupsCoverWholeCatalog(t *testing.T) {
	total := 0
	for _, g := range Groups() {
		if g.Module == "" {
			t.Fatal("group with empty module")
		}
		for _, p := range g.Permissions {
			if !strings.HasPrefix(p.Key, g.Module) {
				t.Fatalf("key %q filed under module %q", p.Key, g.Module)
			}
		}
		total += len(g.Permissions)
	}
	if total != len(Catalog()) {
		t.Fatalf("groups cover %d permissions, catalog has %d", total, len(Catalog()))
	}
}
