package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"mangareader/pkg/logger"
	"mangareader/pkg/utils"
)

// ServiceName is the health entry for the reader API
const ServiceName = "mangareader.v1.Reader"

const defaultCheckInterval = 15 * time.Second

// Check reports the health of one dependency
type Check func(ctx context.Context) error

// Server represents the gRPC server
type Server struct {
	server   *grpc.Server
	addr     string
	health   *health.Server
	checks   map[string]Check
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a gRPC server exposing grpc.health.v1 and reflection.
// Status is SERVING only while every check passes.
func NewServer(addr string, checks map[string]Check) *Server {
	zapLogger := logger.L()

	server := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_zap.UnaryServerInterceptor(zapLogger),
			grpc_recovery.UnaryServerInterceptor(),
		)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
			grpc_zap.StreamServerInterceptor(zapLogger),
			grpc_recovery.StreamServerInterceptor(),
		)),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	s := &Server{
		server:   server,
		addr:     addr,
		health:   healthServer,
		checks:   checks,
		interval: defaultCheckInterval,
		stop:     make(chan struct{}),
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

// Start begins listening for gRPC connections and runs the health loop
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(listener)
}

// Serve runs on an existing listener; it returns once serving has started
func (s *Server) Serve(listener net.Listener) error {
	s.RunChecks(context.Background())
	go s.checkLoop()

	go func() {
		logger.Infof("gRPC server starting on %s", listener.Addr())
		if err := s.server.Serve(listener); err != nil {
			logger.Errorf("gRPC server stopped: %v", err)
		}
	}()
	return nil
}

// RunChecks runs every dependency check once and updates the health status
func (s *Server) RunChecks(ctx context.Context) bool {
	healthy := true
	for name, check := range s.checks {
		cctx, cancel := utils.WithTimeout(ctx)
		err := check(cctx)
		cancel()
		if err != nil {
			logger.Warnf("Health check %s failed: %v", name, err)
			healthy = false
		}
	}

	if healthy {
		s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

func (s *Server) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) checkLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RunChecks(context.Background())
		case <-s.stop:
			return
		}
	}
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		logger.Info("gRPC server stopping...")
		close(s.stop)
		s.health.Shutdown()
		s.server.GracefulStop()
		logger.Info("gRPC server stopped")
	})
}
