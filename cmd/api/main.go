package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foreclosure-voice/internal/audit"
	"foreclosure-voice/internal/auth"
	"foreclosure-voice/internal/calls"
	"foreclosure-voice/internal/config"
	"foreclosure-voice/internal/conversation"
	"foreclosure-voice/internal/handoff"
	"foreclosure-voice/internal/httpapi"
	"foreclosure-voice/internal/ivr"
	"foreclosure-voice/internal/llm"
	"foreclosure-voice/internal/observability"
	"foreclosure-voice/internal/reporting"
	"foreclosure-voice/internal/telephony"
	"foreclosure-voice/internal/throttle"
	"foreclosure-voice/migrations"
	"foreclosure-voice/pkg/logger"
	"foreclosure-voice/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		applied, err := utils.Migrate(rootCtx, db, migrations.FS)
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "versions", applied)
	}

	var slots throttle.Limiter = throttle.Unlimited{}
	if cfg.Redis.Enabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		slots = throttle.NewRedisLimiter(rdb, throttle.DefaultKey, cfg.AI.MaxConcurrent, throttle.DefaultTTL)
	} else {
		log.Info("REDIS_HOST not set; llm concurrency is not capped")
	}

	var auditRepo audit.Repository = audit.DiscardRepo{}
	if cfg.NATS.URL != "" {
		nr, err := audit.NewNATSRepo(cfg.NATS.URL, cfg.NATS.Token, log)
		if err != nil {
			log.Error("nats init failed", "err", err)
			os.Exit(1)
		}
		defer nr.Close()
		auditRepo = nr
	} else {
		log.Info("NATS_URL not set; audit events are discarded")
	}
	auditSvc := audit.NewService(auditRepo)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	sink := observability.NewSink(metrics, auditSvc)

	callRepo := calls.NewPostgresRepository(db)
	recorder := calls.NewRecorder(callRepo, sink, cfg.App.StoreTimeout)
	history := conversation.NewPostgresStore(db, cfg.App.StoreTimeout)

	if cfg.AI.APIKey == "" {
		log.Warn("OPENAI_API_KEY not set; callers hear the fallback reply on every AI turn")
	}
	model := llm.NewClient(llm.Config{
		APIKey:        cfg.AI.APIKey,
		BaseURL:       cfg.AI.BaseURL,
		Model:         cfg.AI.Model,
		MaxTokens:     cfg.AI.MaxTokens,
		Timeout:       cfg.AI.Timeout,
		HistoryWindow: cfg.AI.HistoryWindow,
	})

	machine, err := ivr.NewMachine(ivr.Config{
		AgentNumber:  cfg.Twilio.AgentNumber,
		CallerID:     cfg.Twilio.PhoneNumber,
		BaseURL:      cfg.App.PublicBaseURL,
		VoicemailURL: cfg.Twilio.VoicemailURL,
	}, ivr.Deps{
		Calls:   recorder,
		History: history,
		LLM:     model,
		Policy:  handoff.NewPolicy(cfg.AI.HandoffKeywords, cfg.AI.MaxTurns),
		Slots:   slots,
		Audit:   auditSvc,
		Sink:    sink,
		Metrics: metrics,
	})
	if err != nil {
		log.Error("ivr init failed", "err", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(logger.Middleware(log))
	registerRoutes(r, routeDeps{
		Webhooks: telephony.WebhookHandler{Router: machine, Status: recorder, Metrics: metrics},
		API: httpapi.Handlers{
			Calls:   callRepo,
			History: history,
			Reports: reporting.NewService(callRepo),
		},
		Auth:        authManager,
		TwilioToken: cfg.Twilio.AuthToken,
		PublicBase:  cfg.App.PublicBaseURL,
		Gatherer:    reg,
		Ready:       readiness(db),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "model", model.Model())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

func readiness(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		return utils.HealthCheck(ctx, db, time.Second)
	}
}
