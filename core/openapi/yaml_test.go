package openapi

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestToYAMLRoundTripsAndSortsKeys(t *testing.T) {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Info:    Info{Title: "billing", Version: "1.0.0"},
		Paths: map[string]PathItem{
			"/invoices": {Get: &Operation{OperationID: "listInvoices"}},
		},
		Components: Components{
			Schemas: map[string]*Schema{"Invoice": {Type: "object"}},
		},
	}

	out, err := ToYAML(spec)
	if err != nil {
		t.Fatalf("ToYAML() error: %v", err)
	}
	if !strings.Contains(string(out), "openapi:") || !strings.Contains(string(out), "billing") {
		t.Fatalf("rendered yaml missing expected content: %s", out)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("rendered yaml does not parse: %v", err)
	}
	if decoded["openapi"] != "3.0.3" {
		t.Fatalf("decoded openapi field = %v, want 3.0.3", decoded["openapi"])
	}
}

func TestToYAMLDeterministic(t *testing.T) {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Components: Components{
			Schemas: map[string]*Schema{"Zeta": {Type: "object"}, "Alpha": {Type: "object"}},
		},
	}

	first, err := ToYAML(spec)
	if err != nil {
		t.Fatalf("ToYAML() error: %v", err)
	}
	second, err := ToYAML(spec)
	if err != nil {
		t.Fatalf("ToYAML() error: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("ToYAML() is not deterministic across repeated calls")
	}
}
