package openapi

// DocumentPruner builds a new document containing only reachable paths and
// the components transitively referenced from them. The input document is
// never mutated.
type DocumentPruner struct{}

// NewDocumentPruner constructs a DocumentPruner.
func NewDocumentPruner() *DocumentPruner {
	return &DocumentPruner{}
}

// Prune builds D' per the original document D and reachability result R:
// copy top-level metadata, insert each reachable path at its gateway key,
// then retain only the schemas (and tags) reachable from the retained
// operations.
func (p *DocumentPruner) Prune(d *Spec, r *PathReachabilityResult) *Spec {
	out := &Spec{
		OpenAPI:      d.OpenAPI,
		Info:         d.Info,
		Servers:      append([]Server(nil), d.Servers...),
		Paths:        make(map[string]PathItem),
		Security:     append([]SecurityRequirement(nil), d.Security...),
		ExternalDocs: d.ExternalDocs,
		Components: Components{
			Schemas:         make(map[string]*Schema),
			SecuritySchemes: d.Components.SecuritySchemes,
			Responses:       d.Components.Responses,
			Parameters:      d.Components.Parameters,
			RequestBodies:   d.Components.RequestBodies,
			Headers:         d.Components.Headers,
			Examples:        d.Components.Examples,
			Links:           d.Components.Links,
			Callbacks:       d.Components.Callbacks,
		},
	}

	usedTags := make(map[string]struct{})
	directSchemaNames := make(map[string]struct{})

	for gatewayPath, info := range r.Reachable {
		var item PathItem
		for method, op := range info.Operations {
			clone := *op
			item.SetOperation(method, &clone)
			for _, tag := range op.Tags {
				usedTags[tag] = struct{}{}
			}
			collectOperationSchemaRefs(op, directSchemaNames)
		}
		out.Paths[info.GatewayPath] = item
		_ = gatewayPath
	}

	usedSchemas := closeSchemaRefs(d.Components.Schemas, directSchemaNames)
	for name := range usedSchemas {
		if s, ok := d.Components.Schemas[name]; ok {
			out.Components.Schemas[name] = s
		}
	}

	for _, tag := range d.Tags {
		if _, ok := usedTags[tag.Name]; ok {
			out.Tags = append(out.Tags, tag)
		}
	}

	return out
}

// collectOperationSchemaRefs enqueues every schema name directly referenced
// by op's parameters, request body, and responses.
func collectOperationSchemaRefs(op *Operation, into map[string]struct{}) {
	for _, param := range op.Parameters {
		addSchemaRef(param.Schema, into)
	}
	if op.RequestBody != nil {
		for _, mt := range op.RequestBody.Content {
			addSchemaRef(mt.Schema, into)
		}
	}
	for _, resp := range op.Responses {
		for _, mt := range resp.Content {
			addSchemaRef(mt.Schema, into)
		}
	}
}

func addSchemaRef(s *Schema, into map[string]struct{}) {
	if s == nil {
		return
	}
	if s.Ref != "" {
		if name, ok := schemaNameFromRef(s.Ref); ok {
			into[name] = struct{}{}
		}
		return
	}
	// Inline schema: it may itself nest references.
	for name := range schemaRefsWithin(s) {
		into[name] = struct{}{}
	}
}

// closeSchemaRefs computes the reference closure of seeds over schemas:
// starting from seeds, repeatedly expand each newly-seen name's own
// references until the queue is dry. Cycle-safe via the visited set.
func closeSchemaRefs(schemas map[string]*Schema, seeds map[string]struct{}) map[string]struct{} {
	visited := make(map[string]struct{})
	queue := make([]string, 0, len(seeds))
	for name := range seeds {
		queue = append(queue, name)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := visited[name]; ok {
			continue
		}
		visited[name] = struct{}{}
		schema, ok := schemas[name]
		if !ok {
			continue
		}
		for ref := range schemaRefsWithin(schema) {
			if _, seen := visited[ref]; !seen {
				queue = append(queue, ref)
			}
		}
	}
	return visited
}

// schemaRefsWithin returns the set of schema names directly referenced
// anywhere inside s: items, properties, additionalProperties, not,
// allOf/oneOf/anyOf.
func schemaRefsWithin(s *Schema) map[string]struct{} {
	refs := make(map[string]struct{})
	if s == nil {
		return refs
	}
	visit := func(child *Schema) {
		if child == nil {
			return
		}
		if child.Ref != "" {
			if name, ok := schemaNameFromRef(child.Ref); ok {
				refs[name] = struct{}{}
			}
			return
		}
		for name := range schemaRefsWithin(child) {
			refs[name] = struct{}{}
		}
	}
	visit(s.Items)
	visit(s.Not)
	visit(s.AdditionalProperties)
	for _, prop := range s.Properties {
		visit(prop)
	}
	for _, sub := range s.AllOf {
		visit(sub)
	}
	for _, sub := range s.OneOf {
		visit(sub)
	}
	for _, sub := range s.AnyOf {
		visit(sub)
	}
	return refs
}

const schemaRefPrefix = "#/components/schemas/"

func schemaNameFromRef(ref string) (string, bool) {
	if len(ref) <= len(schemaRefPrefix) || ref[:len(schemaRefPrefix)] != schemaRefPrefix {
		return "", false
	}
	return ref[len(schemaRefPrefix):], true
}
