// Package catalogd serves the query catalog over gRPC.
package catalogd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/opencode-ai/querycat/internal/history"
	"github.com/opencode-ai/querycat/internal/models"
	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements CatalogServiceServer over a resolver.
type Server struct {
	resolver  *queries.Resolver
	history   history.Repository
	logger    zerolog.Logger
	startedAt time.Time
	hostname  string
	version   string
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithVersion sets the reported version.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// WithHistory enables recording of resolutions that ask for it.
func WithHistory(repo history.Repository) ServerOption {
	return func(s *Server) {
		s.history = repo
	}
}

// NewServer creates the catalog service implementation.
func NewServer(resolver *queries.Resolver, logger zerolog.Logger, opts ...ServerOption) *Server {
	hostname, _ := os.Hostname()

	s := &Server{
		resolver:  resolver,
		logger:    logger,
		startedAt: time.Now(),
		hostname:  hostname,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTemplates returns template summaries, optionally filtered by "tags",
// "environment" and "family".
func (s *Server) ListTemplates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter := queries.Filter{
		Tags:        stringList(req.GetFields()["tags"]),
		Environment: req.GetFields()["environment"].GetStringValue(),
		Family:      req.GetFields()["family"].GetStringValue(),
	}

	templates := s.resolver.Catalog().Filter(filter)
	items := make([]any, 0, len(templates))
	for _, tmpl := range templates {
		items = append(items, templateSummary(tmpl))
	}

	return newStruct(map[string]any{
		"templates": items,
		"count":     len(items),
	})
}

// DescribeTemplate returns a template's query text, metadata and parameters.
func (s *Server) DescribeTemplate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := strings.TrimSpace(req.GetFields()["name"].GetStringValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}

	tmpl, err := s.resolver.Catalog().Get(name)
	if err != nil {
		return nil, statusFromError(err)
	}

	params := make([]any, 0)
	for _, param := range tmpl.EffectiveParameters() {
		entry := map[string]any{
			"name":        param.Name,
			"type":        string(param.Type),
			"description": param.Description,
			"required":    param.Required(),
		}
		if param.HasDefault {
			entry["default"] = param.Default
		}
		params = append(params, entry)
	}

	desc := templateSummary(tmpl)
	desc["query"] = tmpl.Query
	desc["metadata"] = tmpl.Metadata
	desc["parameters"] = params
	desc["placeholders"] = tmpl.Placeholders()
	return newStruct(desc)
}

// Resolve resolves a template. The request carries "name", an optional "parameters"
// struct of overrides and an optional "record" flag.
func (s *Server) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := strings.TrimSpace(req.GetFields()["name"].GetStringValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}

	overrides := req.GetFields()["parameters"].GetStructValue().AsMap()
	result, err := s.resolver.ResolveDetailed(name, overrides)
	if err != nil {
		s.logger.Debug().Err(err).Str("template", name).Msg("resolve failed")
		return nil, statusFromError(err)
	}

	resp := map[string]any{
		"template":    result.Template,
		"query":       result.Query,
		"values":      result.Values,
		"resolved_at": result.ResolvedAt.UTC().Format(time.RFC3339Nano),
	}

	if req.GetFields()["record"].GetBoolValue() {
		if s.history == nil {
			return nil, status.Error(codes.FailedPrecondition, "history is not enabled")
		}
		tmpl, _ := s.resolver.Catalog().Get(name)
		res, err := history.RecordResolution(ctx, s.history, result, tmpl.Source, models.ResolutionSourceGRPC)
		if err != nil {
			s.logger.Warn().Err(err).Str("template", name).Msg("failed to record resolution")
			return nil, status.Error(codes.Internal, err.Error())
		}
		resp["resolution_id"] = res.ID
	}

	s.logger.Debug().Str("template", name).Msg("resolved query")
	return newStruct(resp)
}

// Ping reports service identity and uptime.
func (s *Server) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"version":        s.version,
		"hostname":       s.hostname,
		"started_at":     s.startedAt.UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"template_count": s.resolver.Catalog().Len(),
	})
}

func templateSummary(tmpl *queries.Template) map[string]any {
	params := tmpl.EffectiveParameters()
	names := make([]string, 0, len(params))
	required := make([]string, 0)
	for _, param := range params {
		names = append(names, param.Name)
		if param.Required() {
			required = append(required, param.Name)
		}
	}

	return map[string]any{
		"name":        tmpl.Name,
		"description": tmpl.Description,
		"source":      tmpl.Source,
		"tags":        tmpl.Tags(),
		"parameters":  names,
		"required":    required,
	}
}

func statusFromError(err error) error {
	switch {
	case errors.Is(err, queries.ErrUnknownTemplate):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, queries.ErrMissingParameter), errors.Is(err, queries.ErrTypeMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func stringList(v *structpb.Value) []string {
	if v == nil {
		return nil
	}
	if s := v.GetStringValue(); s != "" {
		return []string{s}
	}
	var out []string
	for _, item := range v.GetListValue().GetValues() {
		if s := item.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(structMap(fields))
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return st, nil
}

// structMap converts values into the types structpb.NewValue accepts.
func structMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = structValue(v)
	}
	return out
}

func structValue(v any) any {
	switch val := v.(type) {
	case nil, bool, string, int, int32, int64, uint, uint32, uint64, float32, float64:
		return val
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = structValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case map[string]any:
		return structMap(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
