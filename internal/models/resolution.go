// Package models defines the records querycat persists.
package models

import (
	"strings"
	"time"
)

// Resolution records a single resolved query.
type Resolution struct {
	// ID is the unique identifier for the record.
	ID string `json:"id"`

	// Timestamp is when the query was resolved.
	Timestamp time.Time `json:"timestamp"`

	// Template is the name of the resolved template.
	Template string `json:"template"`

	// Parameters holds the rendered value of every substituted parameter.
	Parameters map[string]string `json:"parameters,omitempty"`

	// Query is the resolved query text.
	Query string `json:"query"`

	// Source is where the resolution came from (cli, grpc, tui).
	Source string `json:"source,omitempty"`

	// TemplateSource is the query file that defined the template.
	TemplateSource string `json:"template_source,omitempty"`
}

// Resolution sources.
const (
	ResolutionSourceCLI  = "cli"
	ResolutionSourceGRPC = "grpc"
	ResolutionSourceTUI  = "tui"
)

// Validate checks if the resolution record is valid.
func (r *Resolution) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(r.Template) == "" {
		validation.AddMessage("template", "template is required")
	}
	if r.Query == "" {
		validation.AddMessage("query", "query is required")
	}
	return validation.Err()
}
