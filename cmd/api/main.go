package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opsconsole/internal/audit"
	"opsconsole/internal/auth"
	"opsconsole/internal/config"
	"opsconsole/internal/httpapi"
	"opsconsole/internal/intake"
	"opsconsole/internal/reporting"
	"opsconsole/internal/slapolicy"
	"opsconsole/internal/workitem"
	"opsconsole/pkg/logger"
	"opsconsole/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
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

	verifier, err := auth.NewVerifier(cfg.Auth)
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

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Domain wiring. The audit repo doubles as the transition recorder so a
	// decision and its entry commit in one transaction.
	auditRepo := audit.NewPostgresRepo(db)
	auditSvc := audit.NewService(auditRepo)

	items := workitem.NewService(workitem.NewPostgresRepo(db))
	items.SetBulkLimits(cfg.Engine.BulkMaxWorkers, cfg.Engine.BulkMaxIDs)

	reports := reporting.NewService(reporting.NewPostgresRepo(db), rdb, cfg.Engine.SummaryCacheTTL)
	items.SetCommitHook(reports.Invalidate)

	policy := slapolicy.NewService(slapolicy.NewPostgresRepo(db))

	h := httpapi.Handlers{
		Items:   items,
		Audit:   auditSvc,
		Reports: reports,
		Policy:  policy,
		Gate:    rdb,
	}
	webhook := intake.WebhookHandler{
		Items:  items,
		Policy: policy,
		Audit:  auditSvc,
		Secret: cfg.Engine.ProducerSecret,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, webhook, verifier, db, rdb)

	go slaTick(rootCtx, log, reports, cfg.Engine.SLATickInterval)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
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

// slaTick periodically recomputes the summary so breach counts stay fresh as
// time advances. It observes and reports; expiring items remains an explicit
// decision by the external scheduler identity through the decision API.
func slaTick(ctx context.Context, log *slog.Logger, reports *reporting.Service, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s, err := reports.Refresh(ctx)
			if err != nil {
				log.Warn("sla tick refresh failed", "err", err)
				continue
			}
			if s.BreachedCount > 0 {
				log.Info("sla tick", "overdue", s.BreachedCount, "pending", s.PendingCount)
			}
		}
	}
}
