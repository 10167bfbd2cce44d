package openapi

import (
	"strings"
)

// NonAnalyzableStrategy governs how the ReachabilityAnalyzer treats a
// binding whose route carries an Unknown transform.
type NonAnalyzableStrategy string

const (
	// IncludeWithWarning treats the path as reachable, using the backend
	// path verbatim as the gateway path, and accumulates a warning.
	IncludeWithWarning NonAnalyzableStrategy = "IncludeWithWarning"
	// ExcludeWithWarning records a warning and tries the next binding.
	ExcludeWithWarning NonAnalyzableStrategy = "ExcludeWithWarning"
	// SkipService drops the entire service: the whole document yields an
	// empty PathReachabilityResult with a warning.
	SkipService NonAnalyzableStrategy = "SkipService"
)

// ReachablePathInfo describes one path the gateway actually exposes.
type ReachablePathInfo struct {
	BackendPath string
	GatewayPath string
	Operations  map[string]*Operation
	RouteID     string
	Analysis    RouteTransformAnalysis
}

// UnreachablePathInfo describes a backend path no route exposes.
type UnreachablePathInfo struct {
	BackendPath string
	Reason      string
	Operations  map[string]*Operation
}

// PathReachabilityResult is the outcome of analyzing one document against
// a service's bindings.
type PathReachabilityResult struct {
	// Reachable is keyed by gateway path, case-insensitively: lookups and
	// insertions both normalize through strings.ToLower.
	Reachable   map[string]ReachablePathInfo
	Unreachable map[string]UnreachablePathInfo
	Warnings    []string
}

func newPathReachabilityResult() *PathReachabilityResult {
	return &PathReachabilityResult{
		Reachable:   make(map[string]ReachablePathInfo),
		Unreachable: make(map[string]UnreachablePathInfo),
	}
}

// ReachabilityAnalyzer computes, for one document and the ordered bindings
// of a single service, which backend paths are reachable through the
// gateway and at what gateway path.
type ReachabilityAnalyzer struct {
	analyzer *TransformAnalyzer
	strategy NonAnalyzableStrategy
}

// NewReachabilityAnalyzer constructs a ReachabilityAnalyzer applying the
// given non-analyzable-transform policy.
func NewReachabilityAnalyzer(analyzer *TransformAnalyzer, strategy NonAnalyzableStrategy) *ReachabilityAnalyzer {
	if strategy == "" {
		strategy = IncludeWithWarning
	}
	return &ReachabilityAnalyzer{analyzer: analyzer, strategy: strategy}
}

// Analyze walks every (backendPath, PathItem) in doc, deciding reachability
// against bindings in order; the first binding that proves reachability
// wins (tie-break = input order). Duplicate gateway paths keep the first
// recorded entry.
func (a *ReachabilityAnalyzer) Analyze(doc *Spec, bindings []RouteClusterBinding) *PathReachabilityResult {
	result := newPathReachabilityResult()
	if doc == nil {
		return result
	}

	for backendPath, item := range doc.Paths {
		if backendPath == "" {
			continue
		}
		ops := item.Operations()
		if len(ops) == 0 {
			continue
		}

		claimed := false
		for _, binding := range bindings {
			analysis := a.analyzer.Analyze(binding.Route)
			if !analysis.IsAnalyzable {
				switch a.strategy {
				case SkipService:
					empty := newPathReachabilityResult()
					empty.Warnings = append(empty.Warnings,
						"service dropped: route "+binding.Route.ID+" has a non-analyzable transform under SkipService policy")
					return empty
				case ExcludeWithWarning:
					result.Warnings = append(result.Warnings,
						"route "+binding.Route.ID+" excluded: non-analyzable transform")
					continue
				default: // IncludeWithWarning
					result.Warnings = append(result.Warnings,
						"route "+binding.Route.ID+" included verbatim: non-analyzable transform")
					a.record(result, backendPath, backendPath, ops, binding.Route.ID, analysis)
					claimed = true
				}
				if claimed {
					break
				}
				continue
			}

			if !a.analyzer.IsPathReachable(binding.Route, backendPath) {
				continue
			}
			gateway, ok := a.analyzer.MapBackendToGatewayPath(binding.Route, backendPath)
			if !ok {
				continue
			}
			a.record(result, backendPath, gateway, ops, binding.Route.ID, analysis)
			claimed = true
			break
		}

		if !claimed {
			result.Unreachable[backendPath] = UnreachablePathInfo{
				BackendPath: backendPath,
				Reason:      "No route configuration makes this path accessible",
				Operations:  ops,
			}
		}
	}

	return result
}

func (a *ReachabilityAnalyzer) record(result *PathReachabilityResult, backendPath, gatewayPath string, ops map[string]*Operation, routeID string, analysis RouteTransformAnalysis) {
	key := strings.ToLower(gatewayPath)
	if _, exists := result.Reachable[key]; exists {
		return
	}
	result.Reachable[key] = ReachablePathInfo{
		BackendPath: backendPath,
		GatewayPath: gatewayPath,
		Operations:  ops,
		RouteID:     routeID,
		Analysis:    analysis,
	}
}
