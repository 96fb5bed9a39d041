package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHealthServerReportsServing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	server, err := ListenHealth("127.0.0.1:0", "lms.api")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	conn, err := DialHealth(server.Addr().String())
	require.NoError(t, err)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer waitCancel()
	require.NoError(t, WaitForHealth(waitCtx, conn, "lms.api", nil))

	require.NoError(t, conn.Close())
	cancel()
	require.NoError(t, <-done)
}

func TestWaitForHealthRespectsContext(t *testing.T) {
	server, err := ListenHealth("127.0.0.1:0")
	require.NoError(t, err)
	server.SetServing("lms.worker", false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = server.Serve(ctx) }()

	conn, err := DialHealth(server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer waitCancel()
	require.Error(t, WaitForHealth(waitCtx, conn, "lms.worker", nil))
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	require.Error(t, WaitForHealth(context.Background(), nil, "", nil))
}
