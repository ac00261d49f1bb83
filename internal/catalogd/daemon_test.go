package catalogd

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/opencode-ai/querycat/internal/config"
	"github.com/opencode-ai/querycat/internal/db"
	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startBufconnDaemon(t *testing.T, cfg *config.Config, opts Options) *Client {
	t.Helper()

	daemon, err := New(cfg, newTestResolver(t), zerolog.Nop(), opts)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- daemon.Serve(ctx, lis)
	}()

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after cancellation")
		}
	})
	return client
}

func TestNewDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = ""
	cfg.Server.Port = 0

	daemon, err := New(cfg, newTestResolver(t), zerolog.Nop(), Options{})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", DefaultPort), daemon.bindAddr())

	daemon, err = New(config.DefaultConfig(), newTestResolver(t), zerolog.Nop(), Options{Hostname: "0.0.0.0", Port: 6001})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:6001", daemon.bindAddr())

	_, err = New(nil, newTestResolver(t), zerolog.Nop(), Options{})
	assert.Error(t, err)
	_, err = New(cfg, nil, zerolog.Nop(), Options{})
	assert.Error(t, err)
}

func TestDaemonRoundTrip(t *testing.T) {
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = database.MigrateUp(context.Background())
	require.NoError(t, err)
	repo := db.NewResolutionRepository(database)

	client := startBufconnDaemon(t, config.DefaultConfig(), Options{Version: "1.2.3", History: repo})
	ctx := context.Background()

	ping, err := client.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", ping["version"])

	summaries, err := client.ListTemplates(ctx, queries.Filter{Tags: []string{"alert"}})
	require.NoError(t, err)
	require.NotEmpty(t, summaries)
	assert.Equal(t, queries.BuiltinSource, summaries[0].Source)

	desc, err := client.DescribeTemplate(ctx, "host_alerts")
	require.NoError(t, err)
	assert.Equal(t, "host_alerts", desc["name"])

	resp, err := client.Resolve(ctx, "host_alerts", map[string]any{"host_name": "WORKSTATION1"}, true)
	require.NoError(t, err)
	want := "AlertEvents\n" +
		"| where EventTime >= datetime(2026-09-18T12:00:00.000000Z)\n" +
		"| where EventTime <= datetime(2026-10-18T12:00:00.000000Z)\n" +
		"| where ComputerName has \"WORKSTATION1\"\n"
	assert.Equal(t, want, resp.Query)
	assert.Equal(t, "WORKSTATION1", resp.Values["host_name"])
	assert.True(t, resp.ResolvedAt.Equal(testNow))
	require.NotEmpty(t, resp.ResolutionID)

	stored, err := repo.Get(ctx, resp.ResolutionID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.Query)

	_, err = client.Resolve(ctx, "nonexistent_alerts", nil, false)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestDaemonRateLimited(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RequestsPerSecond = 0.001
	cfg.Server.BurstSize = 1

	client := startBufconnDaemon(t, cfg, Options{})
	ctx := context.Background()

	_, err := client.Ping(ctx)
	require.NoError(t, err)

	_, err = client.Ping(ctx)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestRunReturnsOnCanceledContext(t *testing.T) {
	daemon, err := New(config.DefaultConfig(), newTestResolver(t), zerolog.Nop(), Options{Port: 50098})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- daemon.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
