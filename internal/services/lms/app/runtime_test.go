package app

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	platformgrpc "github.com/louisbranch/lms/internal/platform/grpc"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/services/lms/authn"
	"github.com/louisbranch/lms/internal/services/lms/delivery"
	"github.com/louisbranch/lms/internal/services/lms/lmstest"
)

func runtimeConfig(t *testing.T) RuntimeConfig {
	t.Helper()
	dir := t.TempDir()
	return RuntimeConfig{
		HTTPAddr:   "127.0.0.1:0",
		HealthAddr: "127.0.0.1:0",
		DB:         sqldb.Config{Driver: sqldb.DriverSQLite, DSN: filepath.Join(dir, "lms.db")},
		UploadDir:  filepath.Join(dir, "uploads"),
		Auth:       authn.Config{Secret: "runtime-secret-0123456789", Issuer: "lms", TTL: time.Hour},
		Admin:      AdminConfig{Email: "admin@lms.test", Name: "Admin", Password: "correct-horse"},
		RunWorker:  true,
		Worker:     delivery.Config{PollInterval: 10 * time.Millisecond},
		BcryptCost: bcrypt.MinCost,
		Clock:      lmstest.Clock(),
		Logger:     logging.Test(t),
	}
}

func TestServerServesAndShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv, err := NewServer(context.Background(), runtimeConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	conn, err := platformgrpc.DialHealth(srv.HealthAddr())
	require.NoError(t, err)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer waitCancel()
	require.NoError(t, platformgrpc.WaitForHealth(waitCtx, conn, HealthAPI, nil))
	require.NoError(t, platformgrpc.WaitForHealth(waitCtx, conn, HealthWorker, nil))
	require.NoError(t, conn.Close())

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Post("http://"+srv.Addr()+"/auth/login", "application/json",
		strings.NewReader(`{"email":"admin@lms.test","password":"correct-horse"}`))
	require.NoError(t, err)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				Role string `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)
	assert.Equal(t, "ADMIN", body.Data.User.Role)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServerValidatesAddresses(t *testing.T) {
	cfg := runtimeConfig(t)
	cfg.HTTPAddr = " "
	_, err := NewServer(context.Background(), cfg)
	require.ErrorContains(t, err, "http address")

	cfg = runtimeConfig(t)
	cfg.HealthAddr = ""
	_, err = NewServer(context.Background(), cfg)
	require.ErrorContains(t, err, "health address")
}

func TestNewServerRejectsShortSecret(t *testing.T) {
	cfg := runtimeConfig(t)
	cfg.Auth.Secret = "short"
	_, err := NewServer(context.Background(), cfg)
	require.Error(t, err)
}

func TestRunWorkerStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := runtimeConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := RunWorker(ctx, WorkerConfig{
		HealthAddr: "127.0.0.1:0",
		DB:         cfg.DB,
		Worker:     cfg.Worker,
		Clock:      cfg.Clock,
		Logger:     cfg.Logger,
	})
	require.NoError(t, err)
}

func TestNewServicesRequiresStores(t *testing.T) {
	_, err := NewServices(nil, nil, ServiceConfig{})
	require.ErrorContains(t, err, "store is required")

	_, err = NewServices(lmstest.OpenStore(t), nil, ServiceConfig{})
	require.ErrorContains(t, err, "file store is required")
}
