package cmd

import (
	"testing"

	"github.com/propstack/reconcilo/loader"
)

// The catalog that init writes must always load cleanly: a forward
// reference, a typo'd type or a bad expression index in the blob would
// ship an init whose output immediately fails plan and validate.
func TestExampleCatalogLoads(t *testing.T) {
	cat, err := loader.ParseCatalog([]byte(exampleCatalog))
	if err != nil {
		t.Fatalf("example catalog failed to load: %v", err)
	}

	entities := cat.Entities()
	wantEntities := []string{
		"users", "api_usage", "properties", "user_sessions", "market_alerts",
		"property_comparisons", "user_preferences", "portfolio_analytics", "saved_searches",
	}
	if len(entities) != len(wantEntities) {
		t.Fatalf("got %d entities, want %d", len(entities), len(wantEntities))
	}
	for i, want := range wantEntities {
		if entities[i].Name != want {
			t.Errorf("entity %d = %q, want %q", i, entities[i].Name, want)
		}
	}

	indexes, policies := 0, 0
	for _, e := range entities {
		indexes += len(cat.IndexesFor(e.Name))
		policies += len(cat.PoliciesFor(e.Name))
	}
	if indexes != 8 {
		t.Errorf("got %d indexes, want 8", indexes)
	}
	if policies != 9 {
		t.Errorf("got %d policies, want 9", policies)
	}

	if got := len(cat.IndexesFor("properties")); got != 5 {
		t.Errorf("IndexesFor(properties) = %d indexes, want 5", got)
	}
	if got := len(cat.PoliciesFor("properties")); got != 4 {
		t.Errorf("PoliciesFor(properties) = %d policies, want 4", got)
	}
}
