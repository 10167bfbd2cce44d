package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/adagateway/apigate/core/openapi"
	"github.com/adagateway/apigate/pkg/jsonapi"
	"github.com/rs/zerolog"
)

// OpenAPIAggregator is the subset of AggregationService the handler needs,
// declared locally so the handler can be tested against a fake.
type OpenAPIAggregator interface {
	ListServices(ctx context.Context, basePath string) ([]openapi.ListedService, error)
	AggregateSpec(ctx context.Context, nameOrKebab string, r *http.Request) (*openapi.Spec, error)
}

// OpenAPIAggregationHandler serves the aggregated, per-service OpenAPI
// documents described at BasePath.
type OpenAPIAggregationHandler struct {
	service  OpenAPIAggregator
	basePath string
	logger   zerolog.Logger
}

// NewOpenAPIAggregationHandler constructs a handler mounted at basePath
// (e.g. "/api-docs").
func NewOpenAPIAggregationHandler(service OpenAPIAggregator, basePath string, logger zerolog.Logger) *OpenAPIAggregationHandler {
	return &OpenAPIAggregationHandler{
		service:  service,
		basePath: strings.TrimSuffix(basePath, "/"),
		logger:   logger,
	}
}

// ServeHTTP dispatches:
//
//	GET {base}            -> listing of aggregatable services
//	GET {base}/{service}  -> aggregated spec, format chosen by Accept header
//	GET {base}/{service}/openapi.json        -> JSON
//	GET {base}/{service}/openapi.yaml|.yml   -> YAML
//
// Intended to be mounted at basePath via chi's Router.Mount, which leaves
// r.URL.Path unmodified, so it is matched against basePath here too.
func (h *OpenAPIAggregationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, h.basePath) {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, h.basePath)
	rest = strings.TrimPrefix(rest, "/")

	if strings.Contains(rest, "..") {
		writeOpenAPIError(w, http.StatusBadRequest, "invalid_path", "path must not contain \"..\" segments")
		return
	}

	if rest == "" {
		h.listServices(w, r)
		return
	}

	segments := strings.Split(rest, "/")
	service := segments[0]
	format := ""
	if len(segments) == 2 {
		format = segments[1]
	} else if len(segments) > 2 {
		writeOpenAPIError(w, http.StatusBadRequest, "invalid_path", "unrecognized path under the aggregation base path")
		return
	}

	switch {
	case format == "":
		format = acceptedFormat(r.Header.Get("Accept"))
	case format == "openapi.json":
		format = "json"
	case format == "openapi.yaml", format == "openapi.yml":
		format = "yaml"
	default:
		writeOpenAPIError(w, http.StatusBadRequest, "invalid_path", "unrecognized path under the aggregation base path")
		return
	}

	h.serveSpec(w, r, service, format)
}

func (h *OpenAPIAggregationHandler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context(), h.basePath)
	if err != nil {
		h.logger.Error().Err(err).Msg("openapi: list services failed")
		writeOpenAPIError(w, http.StatusInternalServerError, "internal_error", "failed to list aggregatable services")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = writeJSON(w, map[string]any{"services": services, "count": len(services)})
}

func (h *OpenAPIAggregationHandler) serveSpec(w http.ResponseWriter, r *http.Request, service, format string) {
	spec, err := h.service.AggregateSpec(r.Context(), service, r)
	if err != nil {
		h.logger.Error().Err(err).Str("service", service).Msg("openapi: aggregation failed")
		writeOpenAPIError(w, http.StatusInternalServerError, "internal_error", "failed to aggregate the requested service's specification")
		return
	}
	if spec == nil {
		writeOpenAPIError(w, http.StatusNotFound, "not_found", "no aggregatable service matches the requested name")
		return
	}

	if format == "yaml" {
		data, err := openapi.ToYAML(spec)
		if err != nil {
			h.logger.Error().Err(err).Str("service", service).Msg("openapi: yaml render failed")
			writeOpenAPIError(w, http.StatusInternalServerError, "internal_error", "failed to render specification as yaml")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	data, err := spec.ToJSONCompact()
	if err != nil {
		h.logger.Error().Err(err).Str("service", service).Msg("openapi: json render failed")
		writeOpenAPIError(w, http.StatusInternalServerError, "internal_error", "failed to render specification as json")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// acceptedFormat maps an Accept header to "yaml" or "json", defaulting to json.
func acceptedFormat(accept string) string {
	if strings.Contains(accept, "yaml") {
		return "yaml"
	}
	return "json"
}

func writeOpenAPIError(w http.ResponseWriter, status int, code, detail string) {
	jsonapi.WriteError(w, jsonapi.Error{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  code,
		Detail: detail,
	})
}

func writeJSON(w http.ResponseWriter, v any) error {
	return json.NewEncoder(w).Encode(v)
}
