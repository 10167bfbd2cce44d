package openapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// DocumentMerger unions an ordered list of already-pruned-and-renamed
// documents into a single merged document for one service.
type DocumentMerger struct {
	logger zerolog.Logger
}

// NewDocumentMerger constructs a DocumentMerger.
func NewDocumentMerger(logger zerolog.Logger) *DocumentMerger {
	return &DocumentMerger{logger: logger}
}

// InfoDecorator transforms the merger's derived Info before it is used.
type InfoDecorator func(Info) Info

// ServersDecorator supplies (or overrides) the merged document's servers.
type ServersDecorator func() []Server

// Merge unions docs (in order) into one document named for service.
func (m *DocumentMerger) Merge(service string, docs []*Spec, infoDecorator InfoDecorator, serversDecorator ServersDecorator) *Spec {
	out := &Spec{
		OpenAPI: "3.0.3",
		Paths:   make(map[string]PathItem),
		Components: Components{
			Schemas:         make(map[string]*Schema),
			SecuritySchemes: make(map[string]SecurityScheme),
		},
	}

	out.Info = m.mergeInfo(service, docs)
	if infoDecorator != nil {
		out.Info = infoDecorator(out.Info)
	}

	seenTags := make(map[string]struct{})
	seenServers := make(map[string]struct{})

	for _, d := range docs {
		if d == nil {
			continue
		}
		m.mergePaths(out, d)
		m.mergeSchemas(out, d)
		m.mergeRawComponents(out, d)

		for _, tag := range d.Tags {
			if _, ok := seenTags[tag.Name]; ok {
				continue
			}
			seenTags[tag.Name] = struct{}{}
			out.Tags = append(out.Tags, tag)
		}
		for _, srv := range d.Servers {
			if _, ok := seenServers[srv.URL]; ok {
				continue
			}
			seenServers[srv.URL] = struct{}{}
			out.Servers = append(out.Servers, srv)
		}
		out.Security = append(out.Security, d.Security...)
		if out.ExternalDocs == nil && d.ExternalDocs != nil {
			out.ExternalDocs = d.ExternalDocs
		}
	}

	if serversDecorator != nil {
		out.Servers = serversDecorator()
	}

	return out
}

func (m *DocumentMerger) mergeInfo(service string, docs []*Spec) Info {
	info := Info{
		Title:       service,
		Description: fmt.Sprintf("Aggregated OpenAPI specification for %s, merged from %d source document(s).", service, len(docs)),
		Version:     "aggregated",
	}

	highest := ""
	for _, d := range docs {
		if d == nil {
			continue
		}
		if info.Contact == nil && d.Info.Contact != nil {
			info.Contact = d.Info.Contact
		}
		if d.Info.Version != "" && versionGreater(d.Info.Version, highest) {
			highest = d.Info.Version
		}
	}
	if highest != "" {
		info.Version = highest
	}
	return info
}

func (m *DocumentMerger) mergePaths(out *Spec, d *Spec) {
	for pathKey, item := range d.Paths {
		existing, ok := out.Paths[pathKey]
		if !ok {
			out.Paths[pathKey] = item
			continue
		}
		for method, op := range item.Operations() {
			if existingOps := existing.Operations(); existingOps[method] != nil {
				m.logger.Warn().Str("path", pathKey).Str("method", method).Msg("openapi: merge method collision, keeping first occurrence")
				continue
			}
			existing.SetOperation(method, op)
		}
		out.Paths[pathKey] = existing
	}
}

func (m *DocumentMerger) mergeSchemas(out *Spec, d *Spec) {
	for name, schema := range d.Components.Schemas {
		if _, exists := out.Components.Schemas[name]; exists {
			m.logger.Warn().Str("schema", name).Msg("openapi: merge schema name collision, keeping first occurrence")
			continue
		}
		out.Components.Schemas[name] = schema
	}
	for name, scheme := range d.Components.SecuritySchemes {
		if _, exists := out.Components.SecuritySchemes[name]; exists {
			continue
		}
		out.Components.SecuritySchemes[name] = scheme
	}
}

func (m *DocumentMerger) mergeRawComponents(out *Spec, d *Spec) {
	out.Components.Responses = mergeRawMap(out.Components.Responses, d.Components.Responses, m.logger, "response")
	out.Components.Parameters = mergeRawMap(out.Components.Parameters, d.Components.Parameters, m.logger, "parameter")
	out.Components.RequestBodies = mergeRawMap(out.Components.RequestBodies, d.Components.RequestBodies, m.logger, "requestBody")
	out.Components.Headers = mergeRawMap(out.Components.Headers, d.Components.Headers, m.logger, "header")
	out.Components.Examples = mergeRawMap(out.Components.Examples, d.Components.Examples, m.logger, "example")
	out.Components.Links = mergeRawMap(out.Components.Links, d.Components.Links, m.logger, "link")
	out.Components.Callbacks = mergeRawMap(out.Components.Callbacks, d.Components.Callbacks, m.logger, "callback")
}

// versionGreater reports whether a should be preferred over b as the
// "highest" version: numeric dotted segments compare numerically, with a
// lexicographic fallback for anything that doesn't parse.
func versionGreater(a, b string) bool {
	if b == "" {
		return true
	}
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		var aok, bok bool
		if i < len(as) {
			av, aok = atoiOK(as[i])
		}
		if i < len(bs) {
			bv, bok = atoiOK(bs[i])
		}
		if aok && bok {
			if av != bv {
				return av > bv
			}
			continue
		}
		return a > b
	}
	return false
}

func atoiOK(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// mergeRawMap unions src into dst (creating dst if nil), keeping the first
// occurrence of any colliding key and logging the collision.
func mergeRawMap(dst, src map[string]json.RawMessage, logger zerolog.Logger, kind string) map[string]json.RawMessage {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]json.RawMessage, len(src))
	}
	for k, v := range src {
		if _, exists := dst[k]; exists {
			logger.Warn().Str("kind", kind).Str("name", k).Msg("openapi: merge component name collision, keeping first occurrence")
			continue
		}
		dst[k] = v
	}
	return dst
}
