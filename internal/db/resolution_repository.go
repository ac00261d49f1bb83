package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/querycat/internal/models"
)

// Resolution repository errors.
var (
	ErrResolutionNotFound = errors.New("resolution not found")
	ErrInvalidResolution  = errors.New("invalid resolution")
)

const resolutionColumns = `id, timestamp, template, template_source, source, parameters_json, query`

// ResolutionRepository persists resolved queries.
type ResolutionRepository struct {
	db *DB
}

// NewResolutionRepository creates a new ResolutionRepository.
func NewResolutionRepository(db *DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// ResolutionQuery defines filters for querying resolution history.
type ResolutionQuery struct {
	Template string     // Filter by template name
	Since    *time.Time // At or after this time (inclusive)
	Until    *time.Time // Before this time (exclusive)
	Cursor   string     // Pagination cursor (resolution ID)
	Limit    int        // Max results to return
	Newest   bool       // Newest first instead of oldest first
}

// ResolutionPage is a page of query results.
type ResolutionPage struct {
	Resolutions []*models.Resolution
	NextCursor  string
}

// Create records a resolution, assigning an ID and timestamp when unset.
func (r *ResolutionRepository) Create(ctx context.Context, res *models.Resolution) error {
	if res == nil {
		return ErrInvalidResolution
	}
	if err := res.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResolution, err)
	}

	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now().UTC()
	} else {
		res.Timestamp = res.Timestamp.UTC()
	}

	var paramsJSON *string
	if len(res.Parameters) > 0 {
		data, err := json.Marshal(res.Parameters)
		if err != nil {
			return fmt.Errorf("failed to marshal parameters: %w", err)
		}
		s := string(data)
		paramsJSON = &s
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resolutions (`+resolutionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		res.ID,
		res.Timestamp.Format(time.RFC3339),
		res.Template,
		nullString(res.TemplateSource),
		nullString(res.Source),
		paramsJSON,
		res.Query,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// Get retrieves a resolution by ID.
func (r *ResolutionRepository) Get(ctx context.Context, id string) (*models.Resolution, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resolutionColumns+` FROM resolutions WHERE id = ?`, id)

	res, err := r.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResolutionNotFound
		}
		return nil, err
	}
	return res, nil
}

// Query retrieves resolutions matching the filters with cursor-based pagination.
func (r *ResolutionRepository) Query(ctx context.Context, q ResolutionQuery) (*ResolutionPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE 1=1`
	args := []any{}

	if q.Template != "" {
		query += ` AND template = ?`
		args = append(args, q.Template)
	}
	if q.Since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, q.Since.UTC().Format(time.RFC3339))
	}
	if q.Until != nil {
		query += ` AND timestamp < ?`
		args = append(args, q.Until.UTC().Format(time.RFC3339))
	}

	order, cmp := `ASC`, `>`
	if q.Newest {
		order, cmp = `DESC`, `<`
	}
	if q.Cursor != "" {
		query += ` AND (timestamp, id) ` + cmp + ` (SELECT timestamp, id FROM resolutions WHERE id = ?)`
		args = append(args, q.Cursor)
	}

	query += ` ORDER BY timestamp ` + order + `, id ` + order + ` LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*models.Resolution
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolutions: %w", err)
	}

	page := &ResolutionPage{}
	if len(resolutions) > limit {
		page.Resolutions = resolutions[:limit]
		page.NextCursor = resolutions[limit-1].ID
	} else {
		page.Resolutions = resolutions
	}

	return page, nil
}

// Count returns the number of recorded resolutions.
func (r *ResolutionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM resolutions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count resolutions: %w", err)
	}
	return count, nil
}

// Prune deletes resolutions recorded before the given time.
func (r *ResolutionRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resolutions WHERE timestamp < ?`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to prune resolutions: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ResolutionRepository) scan(row rowScanner) (*models.Resolution, error) {
	var res models.Resolution
	var timestamp string
	var templateSource, source, paramsJSON sql.NullString

	if err := row.Scan(
		&res.ID,
		&timestamp,
		&res.Template,
		&templateSource,
		&source,
		&paramsJSON,
		&res.Query,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		res.Timestamp = t
	}
	res.TemplateSource = templateSource.String
	res.Source = source.String

	if paramsJSON.Valid {
		if err := json.Unmarshal([]byte(paramsJSON.String), &res.Parameters); err != nil {
			r.db.logger.Warn().Err(err).Str("resolution_id", res.ID).Msg("failed to parse resolution parameters")
		}
	}

	return &res, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
