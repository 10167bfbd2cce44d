package openapi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adagateway/apigate/domain/route"
)

// TransformRecord is one classified entry of a route's transform pipeline.
type TransformRecord struct {
	Kind  route.PathTransformKind
	Value string
}

// RouteTransformAnalysis is the result of classifying a route's transforms.
type RouteTransformAnalysis struct {
	RouteID        string
	MatchPattern   string
	Classification route.PathTransformKind
	IsAnalyzable   bool
	Transforms     []TransformRecord
	Warnings       []string
}

// TransformAnalyzer classifies route transform pipelines and computes
// reverse (backend→gateway) path mappings.
type TransformAnalyzer struct{}

// NewTransformAnalyzer constructs a TransformAnalyzer. It holds no state:
// analysis is a pure function of the route passed in.
func NewTransformAnalyzer() *TransformAnalyzer {
	return &TransformAnalyzer{}
}

// Analyze classifies r's transform pipeline.
func (a *TransformAnalyzer) Analyze(r route.Route) RouteTransformAnalysis {
	pattern := r.PathPattern
	if pattern == "" {
		pattern = "/"
	}
	analysis := RouteTransformAnalysis{
		RouteID:      r.ID,
		MatchPattern: pattern,
		IsAnalyzable: true,
	}
	if len(r.PathTransforms) == 0 {
		analysis.Classification = route.PathTransformDirect
		return analysis
	}
	analysis.Classification = r.PathTransforms[0].Kind
	for _, t := range r.PathTransforms {
		analysis.Transforms = append(analysis.Transforms, TransformRecord{Kind: t.Kind, Value: t.Value})
		if t.Kind == route.PathTransformUnknown {
			analysis.IsAnalyzable = false
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("route %s: unrecognized transform %q", r.ID, t.Raw))
		}
	}
	return analysis
}

// IsPathReachable reports whether backendPath reverse-maps to a gateway
// path for r. A true result means MapBackendToGatewayPath would succeed.
func (a *TransformAnalyzer) IsPathReachable(r route.Route, backendPath string) bool {
	_, ok := a.MapBackendToGatewayPath(r, backendPath)
	return ok
}

// MapBackendToGatewayPath reverses r's transform pipeline to recover the
// gateway path that would have produced backendPath, applying transforms in
// reverse order with each step inverted. Any single failure aborts the
// whole mapping.
func (a *TransformAnalyzer) MapBackendToGatewayPath(r route.Route, backendPath string) (string, bool) {
	analysis := a.Analyze(r)
	if !analysis.IsAnalyzable {
		return "", false
	}

	path := backendPath
	requiresMatchCheck := len(r.PathTransforms) == 0

	for i := len(r.PathTransforms) - 1; i >= 0; i-- {
		t := r.PathTransforms[i]
		switch t.Kind {
		case route.PathTransformDirect:
			requiresMatchCheck = true
		case route.PathTransformPathPrefix:
			if !strings.HasPrefix(path, t.Value) {
				return "", false
			}
			stripped := path[len(t.Value):]
			if !strings.HasPrefix(stripped, "/") {
				stripped = "/" + stripped
			}
			path = stripped
		case route.PathTransformPathRemovePrefix:
			path = t.Value + path
		case route.PathTransformPathSet:
			if path != t.Value {
				return "", false
			}
		case route.PathTransformPathPattern:
			params, ok := extractPathParams(t.Value, path)
			if !ok {
				return "", false
			}
			gateway, ok := substitutePathParams(analysis.MatchPattern, params)
			if !ok {
				return "", false
			}
			path = gateway
			requiresMatchCheck = true
		default:
			return "", false
		}
	}

	if requiresMatchCheck && !matchesPathTemplate(analysis.MatchPattern, path) {
		return "", false
	}
	return path, true
}

// pathTemplateRegex compiles a route match pattern (literal segments,
// "{name}" single-segment captures, and a terminal "{**name}" catch-all)
// into a regular expression and the ordered list of captured names.
func pathTemplateRegex(tmpl string) (*regexp.Regexp, []string) {
	segments := strings.Split(strings.Trim(tmpl, "/"), "/")
	var names []string
	var out strings.Builder
	out.WriteString("^/")
	for i, seg := range segments {
		if i > 0 {
			out.WriteString("/")
		}
		switch {
		case strings.HasPrefix(seg, "{**") && strings.HasSuffix(seg, "}"):
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{**"), "}")
			names = append(names, name)
			out.WriteString("(.*)")
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
			names = append(names, name)
			out.WriteString("([^/]+)")
		default:
			out.WriteString(regexp.QuoteMeta(seg))
		}
	}
	out.WriteString("$")
	re, err := regexp.Compile(out.String())
	if err != nil {
		// A template cannot fail to compile given the construction above;
		// fall back to a pattern that matches nothing.
		return regexp.MustCompile(`$^`), nil
	}
	return re, names
}

// matchesPathTemplate reports whether path conforms to tmpl.
func matchesPathTemplate(tmpl, path string) bool {
	re, _ := pathTemplateRegex(tmpl)
	return re.MatchString(path)
}

// extractPathParams matches path against tmpl and returns the captured
// {name}/{**name} values by name, or false if path does not match.
func extractPathParams(tmpl, path string) (map[string]string, bool) {
	re, names := pathTemplateRegex(tmpl)
	m := re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(names))
	for i, name := range names {
		params[name] = m[i+1]
	}
	return params, true
}

// substitutePathParams replaces every {name}/{**name} placeholder in tmpl
// with its captured value. Returns false if tmpl references a name absent
// from params.
func substitutePathParams(tmpl string, params map[string]string) (string, bool) {
	segments := strings.Split(strings.Trim(tmpl, "/"), "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch {
		case strings.HasPrefix(seg, "{**") && strings.HasSuffix(seg, "}"):
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{**"), "}")
			val, ok := params[name]
			if !ok {
				return "", false
			}
			out = append(out, val)
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
			val, ok := params[name]
			if !ok {
				return "", false
			}
			out = append(out, val)
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), true
}
