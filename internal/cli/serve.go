package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dscprotocol/assistant/internal/api/handlers"
	"github.com/dscprotocol/assistant/internal/config"
	"github.com/dscprotocol/assistant/internal/domain"
	"github.com/dscprotocol/assistant/internal/index"
	"github.com/dscprotocol/assistant/internal/jobs"
	"github.com/dscprotocol/assistant/internal/kb"
	"github.com/dscprotocol/assistant/internal/openai"
	"github.com/dscprotocol/assistant/internal/repository"
	"github.com/dscprotocol/assistant/internal/server"
	"github.com/dscprotocol/assistant/internal/service"
	"github.com/dscprotocol/assistant/internal/storage"
	"github.com/dscprotocol/assistant/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// vectorIndex is the combined surface the serve command needs from an index
// backend: full rebuilds from the knowledge service and searches from the
// retriever.
type vectorIndex interface {
	Rebuild(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant API server",
		Long:  "Start the protocol assistant API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-watch", false, "Disable knowledge-base file watching")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	llm := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.LLMAPIKey,
		BaseURL:             cfg.LLMBaseURL,
		ChatModel:           cfg.ChatModel,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDims,
	})

	if err := llm.VerifyModels(ctx); err != nil {
		return fmt.Errorf("model verification failed: %w", err)
	}
	log.Printf("models verified: chat=%s embedding=%s", cfg.ChatModel, cfg.EmbeddingModel)

	var source service.DocumentSource
	if cfg.HasS3() {
		s3Source, err := storage.NewS3Source(ctx, storage.S3SourceConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 source: %w", err)
		}
		log.Printf("loading knowledge base from s3 bucket '%s'", cfg.S3Bucket)
		source = s3Source
	} else {
		log.Printf("loading knowledge base from %s", cfg.KnowledgeBasePath)
		source = kb.NewDirectorySource(cfg.KnowledgeBasePath)
	}

	var idx vectorIndex
	if cfg.HasDatabase() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		log.Println("connected to database")

		// Run migrations unless --no-migrate flag is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		idx = repository.NewChunkStore(pool, llm)
	} else {
		idx = index.NewMemoryIndex(llm)
	}

	knowledgeSvc := service.NewKnowledgeService(source, idx)
	chunks, err := knowledgeSvc.Reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}
	log.Printf("knowledge base ready: %d chunks", chunks)

	sessions := service.NewSessionStore()
	rewriter := service.NewQueryRewriter(llm)
	retriever := service.NewRetriever(idx)
	assistantSvc := service.NewAssistantService(sessions, rewriter, retriever, llm)

	var watcher *jobs.Watcher
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if cfg.WatchKnowledge && !noWatch && !cfg.HasS3() {
		watcher, err = jobs.NewWatcher(knowledgeSvc, cfg.KnowledgeBasePath, 500*time.Millisecond)
		if err != nil {
			log.Printf("knowledge watcher disabled: %v", err)
			watcher = nil
		} else {
			go watcher.Start(ctx)
		}
	}

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:   handlers.NewChatHandler(assistantSvc),
		SystemHandler: handlers.NewSystemHandler(knowledgeSvc, cfg.ChatModel),
		CORSOrigin:    cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if watcher != nil {
		watcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty migration state at version %d", version)
	}

	log.Printf("migrations applied (version: %d)", version)
	return nil
}
