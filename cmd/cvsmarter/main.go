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
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/esperluet/cv-smarter/internal/artifact"
	"github.com/esperluet/cv-smarter/internal/config"
	"github.com/esperluet/cv-smarter/internal/filestore"
	"github.com/esperluet/cv-smarter/internal/genconfig"
	"github.com/esperluet/cv-smarter/internal/graph"
	"github.com/esperluet/cv-smarter/internal/handler"
	"github.com/esperluet/cv-smarter/internal/ingest"
	"github.com/esperluet/cv-smarter/internal/job"
	"github.com/esperluet/cv-smarter/internal/llm"
	"github.com/esperluet/cv-smarter/internal/middleware"
	"github.com/esperluet/cv-smarter/internal/pipeline"
	"github.com/esperluet/cv-smarter/internal/prompt"
	"github.com/esperluet/cv-smarter/internal/render"
	"github.com/esperluet/cv-smarter/internal/repo"
	"github.com/esperluet/cv-smarter/internal/schedule"
	"github.com/esperluet/cv-smarter/internal/service"
	"github.com/esperluet/cv-smarter/internal/trace"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cvsmarter",
		Short: "cv-smarter backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run cv-smarter server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("artifact_store", cfg.Artifacts.Type),
	)

	userRepo := repo.NewUserRepo(db)
	sourceRepo := repo.NewGroundSourceRepo(db)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	artifactStore, err := artifact.New(cfg.Artifacts)
	if err != nil {
		return fmt.Errorf("init artifact store: %w", err)
	}

	ingestors := []pipeline.Ingestor{
		ingest.NewPDFIngestor(cfg.Pipeline.OCRCommand),
		ingest.NewDocxIngestor(),
		ingest.NewTextIngestor(),
	}
	renderers := []pipeline.Renderer{
		render.NewMarkdownRenderer(),
		render.NewJSONRenderer(),
		render.NewHTMLRenderer(),
	}
	policy := pipeline.NewPolicyStrategy(
		cfg.Pipeline.DefaultOCREnabled,
		*cfg.Pipeline.AutoRetryOnFailure,
		cfg.Pipeline.RetryMinTextLength,
	)
	pl := pipeline.New(ingestors, renderers, artifactStore, pipeline.NewBasicQualityValidator(), policy)

	genCfg, err := genconfig.Load(
		cfg.Generation.ProvidersFile,
		cfg.Generation.ProfilesFile,
		cfg.Generation.GraphIndexFile,
	)
	if err != nil {
		return fmt.Errorf("load generation config: %w", err)
	}
	promptRepo := prompt.NewFilesystemRepository(cfg.Generation.PromptsDir)
	traceStore, err := trace.NewJSONLStore(cfg.Generation.TraceDir)
	if err != nil {
		return fmt.Errorf("init trace store: %w", err)
	}
	gateway := llm.NewConfigurableGateway(genCfg.Providers)
	executor, err := graph.NewExecutor(genCfg, gateway, promptRepo, traceStore)
	if err != nil {
		return fmt.Errorf("init graph executor: %w", err)
	}

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	sourceService := service.NewSourceService(sourceRepo, store, pl,
		cfg.Pipeline.MaxUploadSizeBytes, cfg.Pipeline.PreserveFailedUploads)
	cvService := service.NewCVService(pl, cfg.Pipeline.OutputFormats, cfg.Pipeline.MaxUploadSizeBytes)
	generationService := service.NewGenerationService(sourceRepo, executor, cfg.Generation.MaxJobDescriptionChars)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Sources:       handler.NewSourceHandler(sourceService),
		Generation:    handler.NewGenerationHandler(generationService),
		CV:            handler.NewCVHandler(cvService),
		JWTSecret:     []byte(cfg.JWTSecret),
		AuthRateLimit: time.Duration(cfg.AuthRateSecs) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(
		job.NewTraceCleanupJob(traceStore, cfg.Generation.TraceRetentionDays),
		cfg.Generation.TraceCleanupCron,
	); err != nil {
		return fmt.Errorf("schedule trace cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
