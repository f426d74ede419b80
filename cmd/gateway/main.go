package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindengage-assembly/internal/api/http"
	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	auth "github.com/mind-engage/mindengage-assembly/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assembly/internal/config"
	"github.com/mind-engage/mindengage-assembly/internal/db"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
	"github.com/mind-engage/mindengage-assembly/internal/paper"
	"github.com/mind-engage/mindengage-assembly/internal/platform/logger"
	syncx "github.com/mind-engage/mindengage-assembly/internal/sync"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "err", err)
	}
	defer dbh.Close()

	// --- Assembly ---
	engine := assembly.NewEngine(
		assembly.WithOversample(cfg.Assembly.Oversample),
		assembly.WithEmergencyLimit(cfg.Assembly.EmergencyLimit),
	)
	items := itembank.NewSQLStore(dbh)
	papers := paper.NewService(items, paper.NewSQLStore(dbh), engine,
		paper.WithEvents(syncx.NewEventRepo(dbh)),
		paper.WithLogger(log.With("component", "paper")),
		paper.WithFixedSeed(cfg.Assembly.FixedSeed),
	)
	if cfg.Assembly.FixedSeed != nil {
		log.Warn("fixed assembly seed in use; papers are reproducible", "seed", *cfg.Assembly.FixedSeed)
	}

	router := api.NewRouter(api.Deps{
		DB:                 dbh,
		Items:              items,
		Papers:             papers,
		Auth:               auth.NewAuthService(cfg.AuthHMACSecret),
		Admin:              auth.Admin{User: cfg.AdminUser, PassHash: cfg.AdminPassHash},
		Log:                log.With("component", "http"),
		EnableLocalAuth:    cfg.EnableLocalAuth,
		AllowClaimFallback: cfg.Mode == config.ModeOffline,
		CORSOrigins:        cfg.CORSOrigins(),
		RequestTimeout:     cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		return
	}
	log.Info("server stopped")
}
