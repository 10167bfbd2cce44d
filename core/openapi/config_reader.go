package openapi

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/adagateway/apigate/domain/route"
	"github.com/adagateway/apigate/ports"
	"github.com/rs/zerolog"
)

// metadataKey is the route/cluster metadata entry the aggregation pipeline
// reads its per-route and per-cluster OpenAPI options from.
const metadataKey = "Ada.OpenApi"

// RouteOpenAPIConfig is the per-route aggregation configuration parsed from
// the metadataKey metadata entry.
type RouteOpenAPIConfig struct {
	ServiceName string `json:"serviceName"`
	Enabled     bool   `json:"enabled"`
}

// ClusterOpenAPIConfig is the per-cluster aggregation configuration parsed
// from the metadataKey metadata entry.
type ClusterOpenAPIConfig struct {
	OpenAPIPath string `json:"openApiPath"`
	Prefix      string `json:"prefix"`
}

// RouteOpenAPIPair binds a route to its parsed config (nil if absent/invalid).
type RouteOpenAPIPair struct {
	Route  route.Route
	Config *RouteOpenAPIConfig
}

// ClusterOpenAPIPair binds an upstream (cluster) to its parsed config.
type ClusterOpenAPIPair struct {
	Upstream route.Upstream
	Config   *ClusterOpenAPIConfig
}

// ConfigReader reads route/cluster configuration and their OpenAPI
// aggregation metadata. It never returns an error for a malformed metadata
// value: malformed entries are logged and treated as absent.
type ConfigReader struct {
	routes    ports.RouteStore
	upstreams ports.UpstreamStore
	logger    zerolog.Logger
}

// NewConfigReader constructs a ConfigReader over the given stores.
func NewConfigReader(routes ports.RouteStore, upstreams ports.UpstreamStore, logger zerolog.Logger) *ConfigReader {
	return &ConfigReader{routes: routes, upstreams: upstreams, logger: logger}
}

// Routes enumerates all configured routes.
func (c *ConfigReader) Routes(ctx context.Context) ([]route.Route, error) {
	return c.routes.List(ctx)
}

// Clusters enumerates all configured upstreams (clusters).
func (c *ConfigReader) Clusters(ctx context.Context) ([]route.Upstream, error) {
	return c.upstreams.List(ctx)
}

// RouteOpenAPI parses r's Ada.OpenApi metadata. Returns nil if the key is
// absent or the value fails to parse; the latter is logged.
func (c *ConfigReader) RouteOpenAPI(r route.Route) *RouteOpenAPIConfig {
	raw, ok := r.Metadata[metadataKey]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	cfg := RouteOpenAPIConfig{Enabled: true}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		c.logger.Warn().Err(err).Str("route_id", r.ID).Msg("openapi: failed to parse Ada.OpenApi route metadata")
		return nil
	}
	return &cfg
}

// ClusterOpenAPI parses u's Ada.OpenApi metadata, applying defaults
// (openApiPath = /swagger/v1/swagger.json) when the key is absent.
func (c *ConfigReader) ClusterOpenAPI(u route.Upstream) *ClusterOpenAPIConfig {
	cfg := ClusterOpenAPIConfig{OpenAPIPath: "/swagger/v1/swagger.json"}
	raw, ok := u.Metadata[metadataKey]
	if !ok || strings.TrimSpace(raw) == "" {
		return &cfg
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		c.logger.Warn().Err(err).Str("upstream_id", u.ID).Msg("openapi: failed to parse Ada.OpenApi cluster metadata")
		return &ClusterOpenAPIConfig{OpenAPIPath: "/swagger/v1/swagger.json"}
	}
	if cfg.OpenAPIPath == "" {
		cfg.OpenAPIPath = "/swagger/v1/swagger.json"
	}
	return &cfg
}

// RoutePairs enumerates every route alongside its parsed OpenAPI config.
func (c *ConfigReader) RoutePairs(ctx context.Context) ([]RouteOpenAPIPair, error) {
	routes, err := c.routes.List(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]RouteOpenAPIPair, 0, len(routes))
	for _, r := range routes {
		pairs = append(pairs, RouteOpenAPIPair{Route: r, Config: c.RouteOpenAPI(r)})
	}
	return pairs, nil
}

// ClusterPairs enumerates every cluster alongside its parsed OpenAPI config.
func (c *ConfigReader) ClusterPairs(ctx context.Context) ([]ClusterOpenAPIPair, error) {
	upstreams, err := c.upstreams.List(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]ClusterOpenAPIPair, 0, len(upstreams))
	for _, u := range upstreams {
		pairs = append(pairs, ClusterOpenAPIPair{Upstream: u, Config: c.ClusterOpenAPI(u)})
	}
	return pairs, nil
}
