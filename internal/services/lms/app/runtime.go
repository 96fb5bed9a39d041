package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/lms/internal/platform/filestore"
	platformgrpc "github.com/louisbranch/lms/internal/platform/grpc"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/mail"
	"github.com/louisbranch/lms/internal/platform/storage/sqldb"
	"github.com/louisbranch/lms/internal/platform/timeouts"
	httpapi "github.com/louisbranch/lms/internal/services/lms/api/http"
	"github.com/louisbranch/lms/internal/services/lms/authn"
	"github.com/louisbranch/lms/internal/services/lms/delivery"
	"github.com/louisbranch/lms/internal/services/lms/storage/sqlstore"
)

// Health components reported by the gRPC health service.
const (
	HealthAPI    = "lms.api"
	HealthWorker = "lms.worker"
)

// AdminConfig names the bootstrap administrator. An empty email skips it.
type AdminConfig struct {
	Email    string
	Name     string
	Password string
}

// RuntimeConfig controls API startup, dependencies and the in-process worker.
type RuntimeConfig struct {
	HTTPAddr     string
	HealthAddr   string
	DB           sqldb.Config
	UploadDir    string
	Auth         authn.Config
	Admin        AdminConfig
	RunWorker    bool
	EmailOutbox  bool
	Mail         mail.Config
	Worker       delivery.Config
	SecureCookie bool
	MaxFileBytes int64
	BcryptCost   int
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Server is a started but not yet serving API process.
type Server struct {
	store    *sqlstore.Store
	http     *http.Server
	listener net.Listener
	health   *platformgrpc.HealthServer
	worker   *delivery.Worker
	logger   *zap.Logger
}

// NewServer opens storage, bootstraps the admin and binds both listeners.
func NewServer(ctx context.Context, cfg RuntimeConfig) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrNop(cfg.Logger)
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http address is required")
	}
	if strings.TrimSpace(cfg.HealthAddr) == "" {
		return nil, fmt.Errorf("health address is required")
	}

	store, err := sqlstore.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	srv := &Server{store: store, logger: logger}
	ok := false
	defer func() {
		if !ok {
			srv.close()
		}
	}()

	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	services, err := NewServices(store, files, ServiceConfig{
		Auth:         cfg.Auth,
		EmailOutbox:  cfg.EmailOutbox,
		MaxFileBytes: cfg.MaxFileBytes,
		BcryptCost:   cfg.BcryptCost,
		Clock:        cfg.Clock,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	if email := strings.TrimSpace(cfg.Admin.Email); email != "" {
		if _, _, err := services.Accounts.EnsureAdmin(ctx, email, cfg.Admin.Name, cfg.Admin.Password); err != nil {
			return nil, fmt.Errorf("ensure admin: %w", err)
		}
	}

	if cfg.RunWorker {
		sender, err := mail.NewSender(cfg.Mail, logger.Named("mail"))
		if err != nil {
			return nil, fmt.Errorf("configure mail: %w", err)
		}
		srv.worker = delivery.New(store, sender, cfg.Clock, cfg.Worker, logger)
	}

	srv.listener, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}
	components := []string{HealthAPI}
	if srv.worker != nil {
		components = append(components, HealthWorker)
	}
	srv.health, err = platformgrpc.ListenHealth(cfg.HealthAddr, components...)
	if err != nil {
		return nil, err
	}
	srv.http = &http.Server{
		Handler: httpapi.NewHandler(services, httpapi.Options{
			MaxFileBytes: cfg.MaxFileBytes,
			SecureCookie: cfg.SecureCookie,
			Logger:       logger,
		}),
		ReadHeaderTimeout: timeouts.ReadHeader,
		ReadTimeout:       timeouts.Request,
		WriteTimeout:      timeouts.Request,
		IdleTimeout:       timeouts.Idle,
	}
	ok = true
	return srv, nil
}

// Addr returns the bound HTTP address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// HealthAddr returns the bound gRPC health address.
func (s *Server) HealthAddr() string {
	return s.health.Addr().String()
}

// Serve runs HTTP, health and the optional worker until ctx ends or one of
// them fails, then shuts all of them down.
func (s *Server) Serve(ctx context.Context) error {
	defer s.close()
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Printf("http server listening at %s", s.Addr())
		if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		s.health.SetServing(HealthAPI, false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		log.Printf("health server listening at %s", s.HealthAddr())
		return s.health.Serve(groupCtx)
	})
	if s.worker != nil {
		group.Go(func() error {
			defer s.health.SetServing(HealthWorker, false)
			return s.worker.Run(groupCtx)
		})
	}
	return group.Wait()
}

func (s *Server) close() {
	if s.listener != nil && s.http == nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close store", zap.Error(err))
		}
	}
}

// Run starts the API process and blocks until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	srv, err := NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// WorkerConfig controls the standalone delivery worker process.
type WorkerConfig struct {
	HealthAddr string
	DB         sqldb.Config
	Mail       mail.Config
	Worker     delivery.Config
	Clock      func() time.Time
	Logger     *zap.Logger
}

// RunWorker drains the email outbox with its own health endpoint until ctx
// ends.
func RunWorker(ctx context.Context, cfg WorkerConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrNop(cfg.Logger)
	if strings.TrimSpace(cfg.HealthAddr) == "" {
		return fmt.Errorf("health address is required")
	}
	store, err := sqlstore.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()
	sender, err := mail.NewSender(cfg.Mail, logger.Named("mail"))
	if err != nil {
		return fmt.Errorf("configure mail: %w", err)
	}
	health, err := platformgrpc.ListenHealth(cfg.HealthAddr, HealthWorker)
	if err != nil {
		return err
	}
	worker := delivery.New(store, sender, cfg.Clock, cfg.Worker, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("worker health server listening at %s", health.Addr())
		return health.Serve(groupCtx)
	})
	group.Go(func() error {
		defer health.SetServing(HealthWorker, false)
		return worker.Run(groupCtx)
	})
	return group.Wait()
}
