package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/proofnote/internal/backup"
	"github.com/xxxsen/proofnote/internal/backupstore"
	"github.com/xxxsen/proofnote/internal/config"
	"github.com/xxxsen/proofnote/internal/db"
	"github.com/xxxsen/proofnote/internal/handler"
	"github.com/xxxsen/proofnote/internal/job"
	"github.com/xxxsen/proofnote/internal/middleware"
	"github.com/xxxsen/proofnote/internal/repo"
	"github.com/xxxsen/proofnote/internal/schedule"
	"github.com/xxxsen/proofnote/internal/service"
	"github.com/xxxsen/proofnote/internal/session"
)

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run proofnote server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(conn, cfg.Database.Driver); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	return cmd
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("backup_store", cfg.Backup.Type),
		zap.Int("ai_providers", len(cfg.AI.Providers)),
	)

	driver := cfg.Database.Driver
	docRepo := repo.NewDocumentRepo(conn, driver)
	backupRepo := repo.NewBackupRepo(conn, driver)

	store, err := backupstore.New(cfg.Backup, backupstore.Deps{Repo: backupRepo})
	if err != nil {
		return fmt.Errorf("init backup store: %w", err)
	}
	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	coordinator := backup.NewCoordinator(store)
	sessions := session.NewRegistry()
	correctionService := service.NewCorrectionService(docRepo, pipeline, coordinator, sessions)

	deps := handler.RouterDeps{
		Notes:            handler.NewNoteHandler(correctionService),
		JWTSecret:        []byte(cfg.JWTSecret),
		AnalyzeRateLimit: time.Duration(cfg.AnalyzeRateLimitSeconds) * time.Second,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler(10 * time.Minute)
	retention := time.Duration(cfg.Backup.RetentionDays) * 24 * time.Hour
	retentionJob := job.NewBackupRetentionJob(coordinator, retention)
	if err := scheduler.AddJob(retentionJob, cfg.Cron.BackupRetention); err != nil {
		return fmt.Errorf("schedule backup retention: %w", err)
	}
	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if err := scheduler.AddJob(job.NewSessionCleanupJob(sessions, sessionTTL), cfg.Cron.SessionCleanup); err != nil {
		return fmt.Errorf("schedule session cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()
	// sweep backups that expired while the server was down
	go scheduler.Trigger(retentionJob.Name())

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
