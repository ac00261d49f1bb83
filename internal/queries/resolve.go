package queries

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Clock returns the current time. Resolution calls it once per call.
type Clock func() time.Time

// Resolver turns a template name and parameter overrides into a query string.
// It holds no mutable state and may be shared by concurrent callers.
type Resolver struct {
	catalog    *Catalog
	clock      Clock
	offsetUnit time.Duration
	timeFormat string
	logger     zerolog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock sets the time source used for relative datetime offsets.
func WithClock(clock Clock) ResolverOption {
	return func(r *Resolver) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithOffsetUnit sets the unit of a bare integer datetime offset.
func WithOffsetUnit(unit time.Duration) ResolverOption {
	return func(r *Resolver) {
		if unit > 0 {
			r.offsetUnit = unit
		}
	}
}

// WithTimeFormat sets the layout used to render absolute timestamps.
func WithTimeFormat(layout string) ResolverOption {
	return func(r *Resolver) {
		if strings.TrimSpace(layout) != "" {
			r.timeFormat = layout
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(catalog *Catalog, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		catalog:    catalog,
		clock:      time.Now,
		offsetUnit: DefaultOffsetUnit,
		timeFormat: DefaultTimeFormat,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog the resolver reads from.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Result is a fully resolved query.
type Result struct {
	Template   string            `json:"template"`
	Query      string            `json:"query"`
	Values     map[string]string `json:"values"`
	ResolvedAt time.Time         `json:"resolved_at"`
}

// Resolve returns the query string for the named template.
func (r *Resolver) Resolve(name string, overrides map[string]any) (string, error) {
	result, err := r.ResolveDetailed(name, overrides)
	if err != nil {
		return "", err
	}
	return result.Query, nil
}

// ResolveDetailed resolves the named template and reports the substituted values.
func (r *Resolver) ResolveDetailed(name string, overrides map[string]any) (*Result, error) {
	tmpl, err := r.catalog.Get(name)
	if err != nil {
		return nil, err
	}
	return r.ResolveTemplate(tmpl, overrides)
}

// ResolveTemplate resolves a template that need not belong to the catalog.
//
// Values are merged from shared defaults, then template defaults, then overrides. Every
// value is rendered before any query text is produced, so a failure never yields a
// partial query.
func (r *Resolver) ResolveTemplate(tmpl *Template, overrides map[string]any) (*Result, error) {
	now := r.clock()

	values := make(map[string]any)
	for _, param := range tmpl.Defaults {
		if param.HasDefault {
			values[param.Name] = param.Default
		}
	}
	for _, param := range tmpl.Parameters {
		if param.HasDefault {
			values[param.Name] = param.Default
		}
	}

	params := tmpl.EffectiveParameters()
	declared := make(map[string]struct{}, len(params))
	for _, param := range params {
		declared[param.Name] = struct{}{}
	}

	segments := tmpl.segments
	if segments == nil {
		segments = parsePlaceholders(tmpl.Query)
	}
	referenced := make(map[string]struct{})
	for _, seg := range segments {
		if seg.placeholder {
			referenced[seg.text] = struct{}{}
		}
	}

	for key, value := range overrides {
		if value == nil {
			continue
		}
		_, isDeclared := declared[key]
		_, isReferenced := referenced[key]
		if !isDeclared && !isReferenced {
			r.logger.Debug().
				Str("template", tmpl.Name).
				Str("parameter", key).
				Msg("ignoring override for unknown parameter")
			continue
		}
		values[key] = value
	}

	rendered := make(map[string]string, len(params)+len(referenced))
	for _, param := range params {
		value, ok := values[param.Name]
		if !ok {
			return nil, &MissingParameterError{Template: tmpl.Name, Parameter: param.Name}
		}
		text, err := r.renderValue(param.Type, value, now)
		if err != nil {
			return nil, &TypeMismatchError{
				Template:  tmpl.Name,
				Parameter: param.Name,
				Type:      param.Type,
				Value:     value,
				Reason:    err.Error(),
			}
		}
		rendered[param.Name] = text
	}

	for _, seg := range segments {
		if !seg.placeholder {
			continue
		}
		if _, ok := rendered[seg.text]; ok {
			continue
		}
		value, ok := values[seg.text]
		if !ok {
			return nil, &MissingParameterError{Template: tmpl.Name, Parameter: seg.text}
		}
		rendered[seg.text] = formatValue(value, r.timeFormat)
	}

	var out strings.Builder
	out.Grow(len(tmpl.Query))
	for _, seg := range segments {
		if seg.placeholder {
			out.WriteString(rendered[seg.text])
			continue
		}
		out.WriteString(seg.text)
	}

	return &Result{
		Template:   tmpl.Name,
		Query:      out.String(),
		Values:     rendered,
		ResolvedAt: now,
	}, nil
}

func (r *Resolver) renderValue(typ ParamType, value any, now time.Time) (string, error) {
	switch typ {
	case ParamTypeInt:
		n, err := toInt(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case ParamTypeDatetime:
		dt, err := toDatetime(value, r.offsetUnit)
		if err != nil {
			return "", err
		}
		return dt.at(now).UTC().Format(r.timeFormat), nil
	default:
		return toString(value)
	}
}
