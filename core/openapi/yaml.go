package openapi

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToYAML renders spec as YAML with deterministic key ordering.
//
// encoding/json already sorts map keys alphabetically, guaranteeing
// deterministic JSON; yaml.v3 does not sort maps on its own when marshaling
// a Go map directly. To get the same deterministic ordering in YAML, we
// marshal to JSON first, decode that into a yaml.Node (which preserves
// encounter order — i.e. the already-sorted JSON order — rather than
// re-sorting or randomizing), and marshal the node.
func ToYAML(spec *Spec) ([]byte, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("openapi: marshal spec to json: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("openapi: decode json into yaml node: %w", err)
	}
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("openapi: marshal yaml node: %w", err)
	}
	return out, nil
}
