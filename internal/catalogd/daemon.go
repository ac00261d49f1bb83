package catalogd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/opencode-ai/querycat/internal/config"
	"github.com/opencode-ai/querycat/internal/history"
	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// DefaultPort is the catalog service port when none is configured.
const DefaultPort = 50061

// Options configure the daemon runtime. Zero values fall back to the config.
type Options struct {
	Hostname string
	Port     int
	Version  string
	History  history.Repository
}

// Daemon serves the catalog service until its context is canceled.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger
	opts   Options

	server     *Server
	limiter    *RateLimiter
	grpcServer *grpc.Server
}

// New constructs a daemon over the resolver.
func New(cfg *config.Config, resolver *queries.Resolver, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Hostname == "" {
		opts.Hostname = cfg.Server.Host
	}
	if opts.Hostname == "" {
		opts.Hostname = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = cfg.Server.Port
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	serverOpts := []ServerOption{WithVersion(opts.Version)}
	if opts.History != nil {
		serverOpts = append(serverOpts, WithHistory(opts.History))
	}
	server := NewServer(resolver, logger, serverOpts...)

	limiter := NewRateLimiter(WithGlobalLimit(RateLimit{
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		BurstSize:         cfg.Server.BurstSize,
	}))

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(limiter.UnaryServerInterceptor()))
	RegisterCatalogServiceServer(grpcServer, server)

	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		opts:       opts,
		server:     server,
		limiter:    limiter,
		grpcServer: grpcServer,
	}, nil
}

// Run listens on the configured address and serves until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	bindAddr := d.bindAddr()
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", bindAddr, err)
	}
	return d.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is canceled.
func (d *Daemon) Serve(ctx context.Context, listener net.Listener) error {
	d.logger.Info().
		Str("bind", listener.Addr().String()).
		Str("version", d.opts.Version).
		Int("templates", d.server.resolver.Catalog().Len()).
		Msg("catalog service starting")

	errCh := make(chan error, 1)
	go func() {
		if err := d.grpcServer.Serve(listener); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		d.logger.Info().Msg("catalog service shutting down...")
		d.grpcServer.GracefulStop()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
	}

	d.logger.Info().Msg("catalog service shutdown complete")
	return nil
}

func (d *Daemon) bindAddr() string {
	return net.JoinHostPort(d.opts.Hostname, strconv.Itoa(d.opts.Port))
}

// Server returns the service implementation.
func (d *Daemon) Server() *Server {
	return d.server
}

// RateLimiter returns the daemon's rate limiter.
func (d *Daemon) RateLimiter() *RateLimiter {
	return d.limiter
}
