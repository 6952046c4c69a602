package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	moment_routers "github.com/teachermoments/moments/api/moment-api/router"
	internal_evidence "github.com/teachermoments/moments/api/moment-api/internal/evidence"
	internal_notify "github.com/teachermoments/moments/api/moment-api/internal/notify"
	internal_question "github.com/teachermoments/moments/api/moment-api/internal/question"
	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	internal_storage "github.com/teachermoments/moments/api/moment-api/internal/storage"
	internal_transcribe "github.com/teachermoments/moments/api/moment-api/internal/transcribe"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/middlewares"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	cfg, err := config.GetAppConfig(vConfig)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	postgres, err := connectors.NewPostgresConnector(cfg, logger)
	if err != nil {
		logger.Fatalf("database unavailable: %v", err)
	}
	defer postgres.Close()
	migrateSchema(cfg, postgres, logger)

	redis, err := connectors.NewRedisConnector(cfg, logger)
	if err != nil {
		logger.Fatalf("redis unavailable: %v", err)
	}
	defer redis.Close()

	blobs, err := internal_storage.NewS3BlobStore(cfg, logger)
	if err != nil {
		logger.Fatalf("audio store unavailable: %v", err)
	}

	var transcriber internal_transcribe.Transcriber
	if cfg.EnableResearcherAccess && cfg.DeepgramApiKey != "" {
		transcriber, err = internal_transcribe.NewDeepgramTranscriber(cfg, logger)
		if err != nil {
			logger.Fatalf("transcriber unavailable: %v", err)
		}
	}

	var email internal_notify.EmailSender
	if cfg.SendgridApiKey != "" {
		email = internal_notify.NewSendgridSender(cfg, logger)
	} else {
		logger.Warn("no sendgrid key configured, emails go to the log")
		email = &internal_notify.ConsoleSender{Logger: logger}
	}
	notifier := internal_notify.NewSlackNotifier(cfg, logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.EnforceHTTPS(cfg))
	engine.Use(cors.Default())

	moment_routers.HealthCheckRoutes(cfg, engine, logger, postgres)
	moment_routers.EvidenceRoutes(cfg, engine, logger, postgres, notifier)
	moment_routers.QuestionRoutes(cfg, engine, logger, postgres)
	moment_routers.AudioRoutes(cfg, engine, logger, postgres, blobs)
	moment_routers.SessionRoutes(cfg, engine, logger, postgres, blobs)
	moment_routers.ReviewRoutes(cfg, engine, logger, postgres, redis, email)
	moment_routers.ResearchRoutes(cfg, engine, logger, postgres, redis, blobs, transcriber, email)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Infof("server is running on port: %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

// migrateSchema applies SQL migrations on postgres; the sqlite development
// fallback auto-migrates the gorm models instead.
func migrateSchema(cfg *config.AppConfig, postgres connectors.PostgresConnector, logger commons.Logger) {
	db := postgres.DB(context.Background())
	if db.Dialector.Name() == "postgres" {
		if err := connectors.Migrate(db, logger); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		return
	}

	err := db.AutoMigrate(
		&internal_evidence.Evidence{},
		&internal_question.QuestionSet{},
		&internal_review.Access{},
		&internal_review.Token{},
		&internal_review.Review{},
		&internal_transcribe.Transcription{},
	)
	if err != nil {
		logger.Fatalf("auto-migration failed: %v", err)
	}
}
