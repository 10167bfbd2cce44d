package openapi

import "testing"

func TestDocumentPrunerKeepsOnlyReachableSchemaClosure(t *testing.T) {
	doc := &Spec{
		OpenAPI: "3.0.0",
		Info:    Info{Title: "billing", Version: "1.0.0"},
		Tags:    []Tag{{Name: "kept"}, {Name: "dropped"}},
		Components: Components{
			Schemas: map[string]*Schema{
				"Invoice": {
					Type: "object",
					Properties: map[string]*Schema{
						"customer": {Ref: "#/components/schemas/Customer"},
					},
				},
				"Customer": {Type: "object"},
				"Orphan":   {Type: "object"},
			},
		},
	}

	reachable := map[string]ReachablePathInfo{
		"/invoices/{id}": {
			GatewayPath: "/invoices/{id}",
			Operations: map[string]*Operation{
				"get": {
					Tags:      []string{"kept"},
					Responses: map[string]Response{"200": {Content: map[string]MediaType{"application/json": {Schema: &Schema{Ref: "#/components/schemas/Invoice"}}}}},
				},
			},
		},
	}
	result := &PathReachabilityResult{Reachable: reachable, Unreachable: map[string]UnreachablePathInfo{}}

	pruned := NewDocumentPruner().Prune(doc, result)

	if len(pruned.Paths) != 1 {
		t.Fatalf("len(Paths) = %d, want 1", len(pruned.Paths))
	}
	if _, ok := pruned.Paths["/invoices/{id}"]; !ok {
		t.Fatalf("pruned paths missing /invoices/{id}: %+v", pruned.Paths)
	}
	if _, ok := pruned.Components.Schemas["Invoice"]; !ok {
		t.Fatalf("Invoice schema should be kept (directly referenced)")
	}
	if _, ok := pruned.Components.Schemas["Customer"]; !ok {
		t.Fatalf("Customer schema should be kept (transitively referenced through Invoice)")
	}
	if _, ok := pruned.Components.Schemas["Orphan"]; ok {
		t.Fatalf("Orphan schema should have been pruned: nothing references it")
	}
	if len(pruned.Tags) != 1 || pruned.Tags[0].Name != "kept" {
		t.Fatalf("Tags = %+v, want only [kept]", pruned.Tags)
	}
}

func TestDocumentPrunerCycleSafe(t *testing.T) {
	doc := &Spec{
		Components: Components{
			Schemas: map[string]*Schema{
				"A": {Properties: map[string]*Schema{"b": {Ref: "#/components/schemas/B"}}},
				"B": {Properties: map[string]*Schema{"a": {Ref: "#/components/schemas/A"}}},
			},
		},
	}
	reachable := map[string]ReachablePathInfo{
		"/a": {
			GatewayPath: "/a",
			Operations: map[string]*Operation{
				"get": {Responses: map[string]Response{"200": {Content: map[string]MediaType{"application/json": {Schema: &Schema{Ref: "#/components/schemas/A"}}}}}},
			},
		},
	}
	result := &PathReachabilityResult{Reachable: reachable, Unreachable: map[string]UnreachablePathInfo{}}

	pruned := NewDocumentPruner().Prune(doc, result)

	if len(pruned.Components.Schemas) != 2 {
		t.Fatalf("len(Schemas) = %d, want 2 (mutual cycle must not hang or drop either schema)", len(pruned.Components.Schemas))
	}
}

func TestDocumentPrunerEmptyReachableYieldsEmptyDoc(t *testing.T) {
	doc := &Spec{
		Components: Components{Schemas: map[string]*Schema{"Unused": {Type: "object"}}},
	}
	result := &PathReachabilityResult{Reachable: map[string]ReachablePathInfo{}, Unreachable: map[string]UnreachablePathInfo{}}

	pruned := NewDocumentPruner().Prune(doc, result)

	if len(pruned.Paths) != 0 {
		t.Fatalf("Paths = %+v, want empty", pruned.Paths)
	}
	if len(pruned.Components.Schemas) != 0 {
		t.Fatalf("Schemas = %+v, want empty", pruned.Components.Schemas)
	}
}
