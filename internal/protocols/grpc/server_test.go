package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthFollowsChecks(t *testing.T) {
	var redisDown atomic.Bool
	checks := map[string]Check{
		"postgres": func(context.Context) error { return nil },
		"redis": func(context.Context) error {
			if redisDown.Load() {
				return errors.New("connection refused")
			}
			return nil
		},
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(lis.Addr().String(), checks)
	require.NoError(t, srv.Serve(lis))
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)
	ctx := context.Background()

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	redisDown.Store(true)
	assert.False(t, srv.RunChecks(ctx))

	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestRunChecks_BoundsEachCheck(t *testing.T) {
	var bounded atomic.Bool
	checks := map[string]Check{
		"postgres": func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			bounded.Store(ok)
			return nil
		},
	}

	srv := NewServer("127.0.0.1:0", checks)
	assert.True(t, srv.RunChecks(context.Background()))
	assert.True(t, bounded.Load())
}
