// Package server orchestrates all components: NATS client, message store, validation engine,
// dispatcher, HTTP health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/morezero/uftp-compliance/internal/config"
	"github.com/morezero/uftp-compliance/pkg/commsutil"
	"github.com/morezero/uftp-compliance/pkg/compliance"
	"github.com/morezero/uftp-compliance/pkg/db"
	"github.com/morezero/uftp-compliance/pkg/dispatcher"
	"github.com/morezero/uftp-compliance/pkg/events"
	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/metrics"
	"github.com/morezero/uftp-compliance/pkg/policy"
	"github.com/morezero/uftp-compliance/pkg/validation"
)

const logPrefix = "server:server"

// Server is the uftp-compliance orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	sub        *comms.Subscription
	listener   net.Listener
	httpServer *http.Server
	svc        *compliance.Service
	registry   *prometheus.Registry
	subject    string
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	setupLogging(cfg.LogLevel)

	slog.Info(fmt.Sprintf("%s - Starting uftp-compliance", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Start(ctx, cfg)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	s.Shutdown(ctx)
	return nil
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// Start wires the store, engine, service and transports described by cfg and begins serving.
// The caller owns the returned Server and must call Shutdown.
func Start(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.ValidateForServe(); err != nil {
		return nil, fmt.Errorf("%s - invalid config: %w", logPrefix, err)
	}

	s := &Server{cfg: cfg}

	// Step 1: Load policy
	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load policy: %w", logPrefix, err)
	}

	// Step 2: Open the message store
	store, err := s.openStore(ctx, pol)
	if err != nil {
		return nil, err
	}

	engine, err := validation.NewEngine(validation.NewEngineParams{
		History:  store,
		Settings: pol,
		Disabled: pol.DisabledValidators(),
	})
	if err != nil {
		s.closeStore()
		return nil, fmt.Errorf("%s - failed to build validation engine: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Policy %q with %d validators", logPrefix, pol.Name(), len(engine.ValidatorNames())))

	// Step 3: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		s.closeStore()
		return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	s.nc = nc
	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))

	// Step 4: Build metrics and service
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	publisherOpts := &events.CommsPublisherOpts{}
	if cfg.EventSubject != "" {
		publisherOpts.EventSubject = cfg.EventSubject
	}
	s.svc = compliance.NewService(compliance.NewServiceParams{
		Store:      store,
		Engine:     engine,
		Publisher:  events.NewOutcomeFilter(events.NewCommsPublisher(nc, publisherOpts), cfg.EventOutcomes...),
		Metrics:    metrics.New(s.registry),
		PolicyName: pol.Name(),
	})

	// Step 5: Create dispatcher and subscribe
	s.subject = cfg.ValidationSubject
	if s.subject == "" {
		s.subject = commsutil.SubjectCompliance
	}
	disp := dispatcher.NewDispatcher(s.svc, cfg.RequestTimeout)
	s.sub, err = nc.Subscribe(s.subject, requestHandler(ctx, disp))
	if err != nil {
		s.closeTransports()
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, s.subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, s.subject))

	// Step 6: Start HTTP health and metrics server
	s.listener, err = net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		s.closeTransports()
		return nil, fmt.Errorf("%s - failed to listen on %s: %w", logPrefix, cfg.ListenAddr(), err)
	}
	s.httpServer = &http.Server{Handler: s.Handler()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, s.listener.Addr()))
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - uftp-compliance is ready", logPrefix))
	return s, nil
}

func (s *Server) openStore(ctx context.Context, pol *policy.Policy) (history.Store, error) {
	scope, err := s.cfg.Scope()
	if err != nil {
		return nil, fmt.Errorf("%s - invalid reference scope: %w", logPrefix, err)
	}

	if !s.cfg.UsesPostgres() {
		slog.Info(fmt.Sprintf("%s - Using in-memory message store (scope %s)", logPrefix, scope))
		return history.NewMemoryStore(scope, pol.ReferenceData()), nil
	}

	pool, err := db.NewPool(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	s.pool = pool

	if s.cfg.RunMigrations {
		migrations, err := db.LoadMigrations(s.cfg.MigrationPath)
		if err != nil {
			s.closeStore()
			return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			s.closeStore()
			return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		if err := db.SeedReferenceData(ctx, pool, pol.ReferenceData()); err != nil {
			s.closeStore()
			return nil, fmt.Errorf("%s - failed to seed reference data: %w", logPrefix, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Using PostgreSQL message store (scope %s)", logPrefix, scope))
	return db.NewRepository(pool, scope), nil
}

// Subject returns the subject the server answers compliance requests on.
func (s *Server) Subject() string {
	return s.subject
}

// HTTPAddr returns the bound address of the HTTP server.
func (s *Server) HTTPAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the HTTP handler serving /health, /ready and /metrics.
func (s *Server) Handler() http.Handler {
	return newMux(s.svc, s.registry, s.cfg.HealthCheckTimeout)
}

// Shutdown stops accepting requests, drains NATS and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - unsubscribe: %v", logPrefix, err))
		}
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
		}
	}
	s.closeTransports()
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
}

func (s *Server) closeTransports() {
	if s.nc != nil {
		commsutil.Drain(s.nc)
		s.nc = nil
	}
	s.closeStore()
}

func (s *Server) closeStore() {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// requestHandler decodes COMMS compliance requests, dispatches them and responds.
func requestHandler(ctx context.Context, disp *dispatcher.Dispatcher) comms.MsgHandler {
	return func(msg *comms.Msg) {
		var resp *dispatcher.ComplianceResponse

		var req dispatcher.ComplianceRequest
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			resp = &dispatcher.ComplianceResponse{
				Ok: false,
				Error: &dispatcher.ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "Failed to decode request",
				},
			}
		} else {
			resp = disp.Dispatch(ctx, &req)
		}

		data, err := commsutil.EncodePayload(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
		}
	}
}
