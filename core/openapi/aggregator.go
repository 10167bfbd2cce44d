package openapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// AggregationConfig is a snapshot of every tunable the aggregation pipeline
// reads, taken once per run so a concurrent config reload cannot split
// behavior mid-run (see AggregationService.Options).
type AggregationConfig struct {
	FetchCacheTTL               time.Duration
	AggregatedSpecCacheTTL      time.Duration
	FailureCacheTTL             time.Duration
	MaximumCachePayloadBytes    int64
	DefaultOpenAPIPath          string
	FallbackPaths               []string
	MaxConcurrentFetches        int
	FetchTimeout                time.Duration
	EnableAutoDiscovery         bool
	NonAnalyzableStrategy       NonAnalyzableStrategy
	LogWarnings                 bool

	// ConfigureInfo and ConfigureServers are optional decorators; both may
	// be nil. They are functions, not serializable config, and are set by
	// the embedding application rather than loaded from YAML.
	ConfigureInfo    func(Info, *http.Request) Info
	ConfigureServers func(*http.Request) []Server
}

// DefaultAggregationConfig returns the documented defaults (§6).
func DefaultAggregationConfig() AggregationConfig {
	return AggregationConfig{
		FetchCacheTTL:            5 * time.Minute,
		AggregatedSpecCacheTTL:   5 * time.Minute,
		FailureCacheTTL:          time.Minute,
		MaximumCachePayloadBytes: 1 << 20,
		DefaultOpenAPIPath:       "/swagger/v1/swagger.json",
		FallbackPaths: []string{
			"/api/v1/openapi.json",
			"/openapi.json",
			"/docs/openapi.json",
			"/swagger/openapi.json",
		},
		MaxConcurrentFetches:  10,
		FetchTimeout:          10 * time.Second,
		EnableAutoDiscovery:   true,
		NonAnalyzableStrategy: IncludeWithWarning,
		LogWarnings:           true,
	}
}

// AggregationService wires ConfigReader -> ServiceGrouper -> (DocumentFetcher
// -> TransformAnalyzer -> ReachabilityAnalyzer -> DocumentPruner ->
// SchemaRenamer) per route -> DocumentMerger -> AggregationCache, exposing
// the operations RequestHandler needs.
type AggregationService struct {
	grouper  *ServiceGrouper
	fetcher  *DocumentFetcher
	analyzer *TransformAnalyzer
	pruner   *DocumentPruner
	renamer  *SchemaRenamer
	merger   *DocumentMerger
	cache    *AggregationCache
	logger   zerolog.Logger

	opts  atomic.Pointer[AggregationConfig]
	group singleflight.Group
}

// NewAggregationService constructs the service from its already-built
// collaborators; httpClient is typically &http.Client{}.
func NewAggregationService(reader *ConfigReader, httpClient httpDoer, logger zerolog.Logger, cfg AggregationConfig) *AggregationService {
	cache := NewAggregationCache(cfg.MaximumCachePayloadBytes)
	analyzer := NewTransformAnalyzer()
	fetcher := NewDocumentFetcher(httpClient, cache, logger, FetcherOptions{
		FetchCacheTTL:        cfg.FetchCacheTTL,
		FailureCacheTTL:      cfg.FailureCacheTTL,
		FetchTimeout:         cfg.FetchTimeout,
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
		FallbackPaths:        cfg.FallbackPaths,
	})

	svc := &AggregationService{
		grouper:  NewServiceGrouper(reader, logger),
		fetcher:  fetcher,
		analyzer: analyzer,
		pruner:   NewDocumentPruner(),
		renamer:  NewSchemaRenamer(logger),
		merger:   NewDocumentMerger(logger),
		cache:    cache,
		logger:   logger,
	}
	svc.opts.Store(&cfg)
	return svc
}

// Options returns the currently active config snapshot.
func (s *AggregationService) Options() AggregationConfig {
	return *s.opts.Load()
}

// SetOptions atomically replaces the config snapshot used by subsequent runs.
func (s *AggregationService) SetOptions(cfg AggregationConfig) {
	s.opts.Store(&cfg)
}

// ListedService is one entry of the service listing (§4.10).
type ListedService struct {
	Name string
	URL  string
}

// ListServices returns every distinct aggregatable service, deduplicated by
// name, each paired with its listing URL under basePath.
func (s *AggregationService) ListServices(ctx context.Context, basePath string) ([]ListedService, error) {
	if !s.Options().EnableAutoDiscovery {
		return nil, nil
	}
	specs, err := s.grouper.Group(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := make([]ListedService, 0, len(specs))
	for _, spec := range specs {
		key := strings.ToLower(spec.ServiceName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ListedService{
			Name: spec.ServiceName,
			URL:  strings.TrimRight(basePath, "/") + "/" + kebabCase(spec.ServiceName),
		})
	}
	return out, nil
}

// AggregateSpec resolves nameOrKebab (case-insensitively, accepting either
// the canonical service name or its kebab form) and returns the cached or
// freshly-built aggregated document. Returns (nil, nil) if the service is
// unknown.
func (s *AggregationService) AggregateSpec(ctx context.Context, nameOrKebab string, r *http.Request) (*Spec, error) {
	if !s.Options().EnableAutoDiscovery {
		return nil, nil
	}
	services, err := s.grouper.Group(ctx)
	if err != nil {
		return nil, err
	}
	var target *ServiceSpecification
	for i := range services {
		if strings.EqualFold(services[i].ServiceName, nameOrKebab) || kebabCase(services[i].ServiceName) == strings.ToLower(nameOrKebab) {
			target = &services[i]
			break
		}
	}
	if target == nil {
		return nil, nil
	}

	cacheKey := aggregatedCacheKey(target.ServiceName)
	opts := s.Options()

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		if cached, ok := s.cache.Get(cacheKey); ok {
			if spec, derr := decodeCachedSpec(cached); derr == nil && spec != nil {
				return spec, nil
			}
		}
		spec, aerr := s.aggregate(ctx, target, opts, r)
		if aerr != nil {
			return nil, aerr
		}
		if data, merr := specToJSON(spec); merr == nil {
			tags := []string{"openapi_spec", serviceTag(target.ServiceName)}
			seenCluster := make(map[string]struct{})
			for _, b := range target.Bindings {
				if _, ok := seenCluster[b.Upstream.ID]; ok {
					continue
				}
				seenCluster[b.Upstream.ID] = struct{}{}
				tags = append(tags, clusterTag(b.Upstream.ID))
			}
			s.cache.Set(cacheKey, data, opts.AggregatedSpecCacheTTL, tags...)
		}
		return spec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Spec), nil
}

// aggregate runs the per-route pipeline for every binding of target, then
// merges the results.
func (s *AggregationService) aggregate(ctx context.Context, target *ServiceSpecification, opts AggregationConfig, r *http.Request) (*Spec, error) {
	byRoute := make(map[string][]RouteClusterBinding)
	var order []string
	for _, b := range target.Bindings {
		if _, ok := byRoute[b.Route.UpstreamID]; !ok {
			order = append(order, b.Route.UpstreamID)
		}
		byRoute[b.Route.UpstreamID] = append(byRoute[b.Route.UpstreamID], b)
	}

	var processed []*Spec
	for _, upstreamID := range order {
		bindings := byRoute[upstreamID]
		if len(bindings) == 0 {
			continue
		}
		upstream := bindings[0].Upstream
		clusterCfg := bindings[0].ClusterConfig

		openAPIPath := clusterCfg.OpenAPIPath
		if openAPIPath == "" {
			openAPIPath = opts.DefaultOpenAPIPath
		}

		doc, err := s.fetcher.Fetch(ctx, upstream.BaseURL, openAPIPath)
		s.cache.AddTags(fetchCacheKey(upstream.BaseURL, openAPIPath), clusterTag(upstream.ID), serviceTag(target.ServiceName))
		if err != nil {
			s.logger.Warn().Err(err).Str("upstream_id", upstream.ID).Msg("openapi: fetch failed")
			continue
		}
		if doc == nil {
			continue
		}

		reachAnalyzer := NewReachabilityAnalyzer(s.analyzer, opts.NonAnalyzableStrategy)
		result := reachAnalyzer.Analyze(doc, bindings)
		if opts.LogWarnings {
			for _, w := range result.Warnings {
				s.logger.Warn().Str("service", target.ServiceName).Msg("openapi: " + w)
			}
		}

		pruned := s.pruner.Prune(doc, result)
		prefix := clusterCfg.Prefix
		if prefix == "" {
			prefix = upstream.Name
		}
		renamed := s.renamer.Rename(pruned, prefix)
		processed = append(processed, renamed)
	}

	var infoDecorator InfoDecorator
	if opts.ConfigureInfo != nil {
		infoDecorator = func(info Info) Info { return opts.ConfigureInfo(info, r) }
	}
	var serversDecorator ServersDecorator
	if opts.ConfigureServers != nil {
		serversDecorator = func() []Server { return opts.ConfigureServers(r) }
	} else if r != nil {
		serversDecorator = func() []Server { return []Server{defaultServerFromRequest(r)} }
	}

	return s.merger.Merge(target.ServiceName, processed, infoDecorator, serversDecorator), nil
}

// InvalidateService removes every cache entry (fetch and aggregated) tagged
// for the given service name.
func (s *AggregationService) InvalidateService(name string) {
	s.cache.InvalidateService(name)
}

// InvalidateCluster removes every cache entry tagged for the given cluster id.
func (s *AggregationService) InvalidateCluster(id string) {
	s.cache.InvalidateCluster(id)
}

// InvalidateAll clears the entire cache.
func (s *AggregationService) InvalidateAll() {
	s.cache.InvalidateAll()
}

func defaultServerFromRequest(r *http.Request) Server {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return Server{URL: fmt.Sprintf("%s://%s", scheme, r.Host)}
}

// kebabCase normalizes a service name for URL/lookup purposes: spaces and
// underscores become hyphens, and the result is lowercased.
func kebabCase(name string) string {
	replaced := strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' {
			return '-'
		}
		return r
	}, name)
	return strings.ToLower(replaced)
}

func specToJSON(spec *Spec) ([]byte, error) {
	return spec.ToJSONCompact()
}
