package openapi

import (
	"context"
	"strings"

	"github.com/adagateway/apigate/domain/route"
	"github.com/rs/zerolog"
)

// RouteClusterBinding pairs one route with the cluster (upstream) it
// targets and both sides' parsed OpenAPI configuration. Lifetime is a
// single aggregation run; never persisted.
type RouteClusterBinding struct {
	Route          route.Route
	Upstream       route.Upstream
	RouteConfig    RouteOpenAPIConfig
	ClusterConfig  ClusterOpenAPIConfig
}

// ServiceSpecification groups every binding that contributes to one
// logical aggregated service.
type ServiceSpecification struct {
	ServiceName string
	Bindings    []RouteClusterBinding
}

// ServiceGrouper buckets routes into ServiceSpecifications by the
// serviceName declared in each route's Ada.OpenApi metadata.
type ServiceGrouper struct {
	reader *ConfigReader
	logger zerolog.Logger
}

// NewServiceGrouper constructs a ServiceGrouper over reader.
func NewServiceGrouper(reader *ConfigReader, logger zerolog.Logger) *ServiceGrouper {
	return &ServiceGrouper{reader: reader, logger: logger}
}

// Group implements the ServiceGrouper algorithm: build a case-insensitive
// cluster lookup, then for each route parse its metadata, validate its
// cluster reference, and bucket the resulting binding by service name.
// All "skip" conditions are per-route and recoverable; a service
// specification may end up with zero bindings if every route skips.
func (g *ServiceGrouper) Group(ctx context.Context) ([]ServiceSpecification, error) {
	routes, err := g.reader.Routes(ctx)
	if err != nil {
		return nil, err
	}
	clusters, err := g.reader.Clusters(ctx)
	if err != nil {
		return nil, err
	}

	clusterByID := make(map[string]route.Upstream, len(clusters))
	for _, u := range clusters {
		clusterByID[strings.ToLower(u.ID)] = u
	}

	buckets := make(map[string]*ServiceSpecification)
	order := make([]string, 0)

	for _, r := range routes {
		cfg := g.reader.RouteOpenAPI(r)
		if cfg == nil {
			continue
		}
		if !cfg.Enabled {
			g.logger.Debug().Str("route_id", r.ID).Msg("openapi: route disabled for aggregation")
			continue
		}
		serviceName := strings.TrimSpace(cfg.ServiceName)
		if serviceName == "" {
			g.logger.Debug().Str("route_id", r.ID).Msg("openapi: route has no serviceName, skipping")
			continue
		}
		if strings.TrimSpace(r.UpstreamID) == "" {
			g.logger.Warn().Str("route_id", r.ID).Msg("openapi: route has no cluster reference, skipping")
			continue
		}
		upstream, ok := clusterByID[strings.ToLower(r.UpstreamID)]
		if !ok {
			g.logger.Warn().Str("route_id", r.ID).Str("upstream_id", r.UpstreamID).Msg("openapi: route references unknown cluster, skipping")
			continue
		}
		clusterCfg := g.reader.ClusterOpenAPI(upstream)

		key := strings.ToLower(serviceName)
		spec, ok := buckets[key]
		if !ok {
			spec = &ServiceSpecification{ServiceName: serviceName}
			buckets[key] = spec
			order = append(order, key)
		}
		spec.Bindings = append(spec.Bindings, RouteClusterBinding{
			Route:         r,
			Upstream:      upstream,
			RouteConfig:   *cfg,
			ClusterConfig: *clusterCfg,
		})
	}

	result := make([]ServiceSpecification, 0, len(order))
	for _, key := range order {
		result = append(result, *buckets[key])
	}
	return result, nil
}
