package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/vedran77/conversa/internal/audit"
	"github.com/vedran77/conversa/internal/config"
	"github.com/vedran77/conversa/internal/database"
	"github.com/vedran77/conversa/internal/observability/logging"
	"github.com/vedran77/conversa/internal/observability/metrics"
	obsmw "github.com/vedran77/conversa/internal/observability/middleware"
	"github.com/vedran77/conversa/internal/presence"
	"github.com/vedran77/conversa/internal/repository"
	"github.com/vedran77/conversa/internal/repository/memory"
	postgresrepo "github.com/vedran77/conversa/internal/repository/postgres"
	"github.com/vedran77/conversa/internal/service"
	"github.com/vedran77/conversa/internal/transport/http/handlers"
	"github.com/vedran77/conversa/internal/transport/http/middleware"
	"github.com/vedran77/conversa/internal/transport/ws"
)

type repos struct {
	users         repository.UserRepository
	contacts      repository.ContactRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	audit         repository.AuditRepository
}

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: "conversa",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// Store
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Audit + presence
	sink := audit.NewAsyncSink(store.audit, cfg.AuditBuffer, logger)
	idx := presence.New(presence.NewAuditObserver(sink, logger))

	// Services
	conversationService := service.NewConversationService(store.conversations, store.messages, store.contacts, store.users, sink, logger)
	messageService := service.NewMessageService(store.messages, conversationService, sink, logger)
	deliveryService := service.NewDeliveryService(store.messages, store.conversations, idx, sink, logger)

	// Live channel
	hub := ws.NewHub(idx, ws.NewRooms(), deliveryService, conversationService, sink, logger, ws.HubConfig{
		RequireRoomMembership: cfg.RequireRoomMembership,
		SendBuffer:            cfg.WSSendBuffer,
	})

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /ws", ws.ServeWS(ctx, hub, cfg.JWTSecret, cfg.AllowedOrigins))
	handlers.Register(mux, middleware.Auth(cfg.JWTSecret),
		handlers.NewConversationHandler(conversationService, logger),
		handlers.NewMessageHandler(messageService, logger),
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: corsHandler.Handler(obsmw.WithRequestID(obsmw.WithMetrics(mux))),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		hub.Shutdown()
		if cerr := sink.Close(shutdownCtx); cerr != nil {
			logger.Warn("audit sink did not drain", "error", cerr)
		}
		return err
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repos, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		m := memory.New()
		return &repos{
			users:         m.Users(),
			contacts:      m.Contacts(),
			conversations: m.Conversations(),
			messages:      m.Messages(),
			audit:         m.Audit(),
		}, func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("connected to database")

	return &repos{
		users:         postgresrepo.NewUserRepo(pool),
		contacts:      postgresrepo.NewContactRepo(pool),
		conversations: postgresrepo.NewConversationRepo(pool),
		messages:      postgresrepo.NewMessageRepo(pool),
		audit:         postgresrepo.NewAuditRepo(pool),
	}, pool.Close, nil
}
