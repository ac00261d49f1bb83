package catalogd

import (
	"context"
	"fmt"
	"time"

	"github.com/opencode-ai/querycat/internal/queries"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote catalog service.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial connects to a catalog service at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to catalog service %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// Close closes a connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// TemplateSummary is one entry of a ListTemplates response.
type TemplateSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags,omitempty"`
	Parameters  []string `json:"parameters"`
	Required    []string `json:"required"`
}

// ResolveResponse is the result of a remote resolution.
type ResolveResponse struct {
	Template     string            `json:"template"`
	Query        string            `json:"query"`
	Values       map[string]string `json:"values"`
	ResolvedAt   time.Time         `json:"resolved_at"`
	ResolutionID string            `json:"resolution_id,omitempty"`
}

// ListTemplates lists templates matching filter.
func (c *Client) ListTemplates(ctx context.Context, filter queries.Filter) ([]TemplateSummary, error) {
	tags := make([]any, 0, len(filter.Tags))
	for _, tag := range filter.Tags {
		tags = append(tags, tag)
	}
	req, err := structpb.NewStruct(map[string]any{
		"tags":        tags,
		"environment": filter.Environment,
		"family":      filter.Family,
	})
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListTemplatesMethod, req, out); err != nil {
		return nil, err
	}

	items := out.GetFields()["templates"].GetListValue().GetValues()
	summaries := make([]TemplateSummary, 0, len(items))
	for _, item := range items {
		fields := item.GetStructValue().GetFields()
		summaries = append(summaries, TemplateSummary{
			Name:        fields["name"].GetStringValue(),
			Description: fields["description"].GetStringValue(),
			Source:      fields["source"].GetStringValue(),
			Tags:        stringList(fields["tags"]),
			Parameters:  stringList(fields["parameters"]),
			Required:    stringList(fields["required"]),
		})
	}
	return summaries, nil
}

// DescribeTemplate returns the full description of a template.
func (c *Client) DescribeTemplate(ctx context.Context, name string) (map[string]any, error) {
	req, err := structpb.NewStruct(map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DescribeTemplateMethod, req, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Resolve resolves a template remotely.
func (c *Client) Resolve(ctx context.Context, name string, params map[string]any, record bool) (*ResolveResponse, error) {
	req, err := structpb.NewStruct(map[string]any{
		"name":       name,
		"parameters": structMap(params),
		"record":     record,
	})
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ResolveMethod, req, out); err != nil {
		return nil, err
	}

	fields := out.GetFields()
	resp := &ResolveResponse{
		Template:     fields["template"].GetStringValue(),
		Query:        fields["query"].GetStringValue(),
		Values:       make(map[string]string),
		ResolutionID: fields["resolution_id"].GetStringValue(),
	}
	for k, v := range fields["values"].GetStructValue().GetFields() {
		resp.Values[k] = v.GetStringValue()
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["resolved_at"].GetStringValue()); err == nil {
		resp.ResolvedAt = ts
	}
	return resp, nil
}

// Ping returns the service status fields.
func (c *Client) Ping(ctx context.Context) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PingMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
