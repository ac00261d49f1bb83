// Package history records resolved queries.
package history

import (
	"context"
	"fmt"

	"github.com/opencode-ai/querycat/internal/models"
	"github.com/opencode-ai/querycat/internal/queries"
)

// Repository is the minimal interface needed to record resolutions.
type Repository interface {
	Create(ctx context.Context, res *models.Resolution) error
}

// RecordResolution stores a resolved query. templateSource is the query file that
// defined the template; source names the caller (cli, grpc, tui).
func RecordResolution(ctx context.Context, repo Repository, result *queries.Result, templateSource, source string) (*models.Resolution, error) {
	if repo == nil {
		return nil, fmt.Errorf("resolution repository is required")
	}
	if result == nil {
		return nil, fmt.Errorf("resolution result is required")
	}

	params := make(map[string]string, len(result.Values))
	for name, value := range result.Values {
		params[name] = value
	}

	res := &models.Resolution{
		Timestamp:      result.ResolvedAt,
		Template:       result.Template,
		Parameters:     params,
		Query:          result.Query,
		Source:         source,
		TemplateSource: templateSource,
	}
	if err := repo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to record resolution: %w", err)
	}
	return res, nil
}
