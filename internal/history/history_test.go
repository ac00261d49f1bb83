package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opencode-ai/querycat/internal/models"
	"github.com/opencode-ai/querycat/internal/queries"
)

type fakeRepo struct {
	last *models.Resolution
	err  error
}

func (r *fakeRepo) Create(ctx context.Context, res *models.Resolution) error {
	if r.err != nil {
		return r.err
	}
	r.last = res
	return nil
}

func TestRecordResolution(t *testing.T) {
	repo := &fakeRepo{}
	resolvedAt := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	result := &queries.Result{
		Template:   "host_alerts",
		Query:      "AlertEvents",
		Values:     map[string]string{"host_name": "WORKSTATION1"},
		ResolvedAt: resolvedAt,
	}

	res, err := RecordResolution(context.Background(), repo, result, "builtin", models.ResolutionSourceCLI)
	if err != nil {
		t.Fatalf("RecordResolution failed: %v", err)
	}
	if repo.last != res {
		t.Fatal("expected resolution to be created")
	}
	if res.Template != "host_alerts" || res.Query != "AlertEvents" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if !res.Timestamp.Equal(resolvedAt) {
		t.Fatalf("unexpected timestamp %s", res.Timestamp)
	}

	result.Values["host_name"] = "changed"
	if res.Parameters["host_name"] != "WORKSTATION1" {
		t.Fatal("expected parameters to be copied")
	}
}

func TestRecordResolutionErrors(t *testing.T) {
	result := &queries.Result{Template: "t", Query: "q"}

	if _, err := RecordResolution(context.Background(), nil, result, "", ""); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := RecordResolution(context.Background(), &fakeRepo{}, nil, "", ""); err == nil {
		t.Fatal("expected error for nil result")
	}

	boom := errors.New("boom")
	_, err := RecordResolution(context.Background(), &fakeRepo{err: boom}, result, "", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}
