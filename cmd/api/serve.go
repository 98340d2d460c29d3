package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/bootstrap"
	"github.com/campushub/campushub-backend/internal/storage/files"
	"github.com/campushub/campushub-backend/internal/uploads"
	usersrepo "github.com/campushub/campushub-backend/internal/users/repository"
)

var skipMigrate bool

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on startup")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)

	conn, err := bootstrap.OpenDB(ctx, cfg.Database, log, !skipMigrate)
	if err != nil {
		log.Error("database unavailable", zap.Error(err))
		return err
	}
	defer conn.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", zap.Error(err))
		return err
	}
	defer func() { _ = rdb.Close() }()

	store, err := files.New(cfg.Uploads.PublicDir)
	if err != nil {
		return err
	}
	receiver, err := uploads.NewReceiver(cfg.Uploads.StagingDir, cfg.Uploads.MaxFiles, cfg.Uploads.MaxUploadMB<<20)
	if err != nil {
		return err
	}

	sweeper := uploads.NewSweeper(receiver.Dir(), cfg.Uploads.StagingMaxAge, log)
	if err := sweeper.Start(cfg.Uploads.SweepSpec); err != nil {
		return err
	}
	defer sweeper.Stop()

	jwt := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	verifier, err := bootstrap.NewVerifier(ctx, cfg.Auth, jwt, usersrepo.NewUserRepository(conn.SQL))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:   cfg,
		Logger:   log,
		DB:       conn,
		Redis:    rdb,
		Files:    store,
		Uploads:  receiver,
		Verifier: verifier,
		JWT:      jwt,
		Registry: reg,
	})
	if err != nil {
		return err
	}
	router.MaxMultipartMemory = 8 << 20

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("auth_provider", cfg.Auth.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
