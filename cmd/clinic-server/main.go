package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/catalog"
	"github.com/clinic/clinic/internal/domain/clinical"
	"github.com/clinic/clinic/internal/domain/consent"
	"github.com/clinic/clinic/internal/domain/expiration"
	"github.com/clinic/clinic/internal/domain/finance"
	"github.com/clinic/clinic/internal/domain/inventory"
	"github.com/clinic/clinic/internal/domain/media"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/domain/safety"
	"github.com/clinic/clinic/internal/domain/timeline"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/blobstore"
	"github.com/clinic/clinic/internal/platform/calendar"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/middleware"
	"github.com/clinic/clinic/internal/platform/telemetry"
	"github.com/clinic/clinic/pkg/civil"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic patient record API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(postingsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func openPool(ctx context.Context) (*pgxpool.Pool, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return pool, cfg, nil
}

// migrationsDir prefers an explicit --dir over MIGRATIONS_DIR.
func migrationsDir(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("dir") {
		dir, _ := cmd.Flags().GetString("dir")
		return dir
	}
	if cfg != nil && cfg.MigrationsDir != "" {
		return cfg.MigrationsDir
	}
	return "./migrations"
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, cfg, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			dir := migrationsDir(cmd, cfg)

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, cfg, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			dir := migrationsDir(cmd, cfg)

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func postingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postings",
		Short: "Financial posting tools",
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the postings a recurring entry expands to, without saving them",
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, _ := cmd.Flags().GetString("description")
			amount, _ := cmd.Flags().GetString("amount")
			direction, _ := cmd.Flags().GetString("direction")
			start, _ := cmd.Flags().GetString("start")
			n, _ := cmd.Flags().GetInt("occurrences")
			paid, _ := cmd.Flags().GetBool("paid")

			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			req := finance.EntryRequest{
				Template:    finance.Template{Description: desc, Amount: amt, Direction: direction, Paid: paid},
				Date:        start,
				Occurrences: n,
			}
			from, err := req.Validate()
			if err != nil {
				return err
			}
			printPostings(cmd.OutOrStdout(), finance.Expand(req.Template, from, req.Occurrences))
			return nil
		},
	}
	previewCmd.Flags().String("description", "", "Entry description")
	previewCmd.Flags().String("amount", "0", "Amount per posting")
	previewCmd.Flags().String("direction", finance.DirectionExpense, "income or expense")
	previewCmd.Flags().String("start", civil.Today().Format(civil.DateLayout), "First posting date (YYYY-MM-DD)")
	previewCmd.Flags().Int("occurrences", 1, "Number of monthly postings")
	previewCmd.Flags().Bool("paid", false, "Mark the entry as paid")
	cmd.AddCommand(previewCmd)

	return cmd
}

func printPostings(w io.Writer, postings []*finance.Posting) {
	fmt.Fprintf(w, "%-10s %-40s %12s %-7s\n", "DATE", "DESCRIPTION", "AMOUNT", "STATUS")
	for _, p := range postings {
		fmt.Fprintf(w, "%-10s %-40s %12s %-7s\n", p.Date.Format(civil.DateLayout), p.Description, p.Amount.StringFixed(2), p.Status)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// newBlobStore returns the configured object store. The memory store serves
// its own signed links, so it is mounted on e.
func newBlobStore(ctx context.Context, cfg *config.Config, e *echo.Echo) (blobstore.Store, error) {
	if cfg.BlobDriver == "s3" {
		store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:          cfg.BlobS3Bucket,
			Region:          cfg.BlobS3Region,
			Endpoint:        cfg.BlobS3Endpoint,
			PathStyle:       cfg.BlobS3PathStyle,
			AccessKeyID:     cfg.BlobS3AccessKey,
			SecretAccessKey: cfg.BlobS3Secret,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store := blobstore.NewMemoryStore(cfg.BaseURL() + "/blobs")
	e.GET("/blobs/*", store.Handler())
	return store, nil
}

func newQuestionnaireStore(cfg *config.Config, pool *pgxpool.Pool) (safety.Store, error) {
	if cfg.QuestionnaireStore == "sqlite" {
		store, err := safety.NewSQLiteStore(cfg.QuestionnaireSQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return safety.NewPGStore(pool), nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	signingKey, err := cfg.SigningKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid signing key")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	metrics := telemetry.New()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(signingKey))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: signingKey,
			Skipper:    auth.AuthSkipper,
		}))
	}
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadBodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout()))
	e.Use(middleware.Audit(logger, nil))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	blobs, err := newBlobStore(ctx, cfg, e)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob store")
	}
	questionnaires, err := newQuestionnaireStore(cfg, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open questionnaire store")
	}
	defer questionnaires.Close()

	tx := db.NewTxRunner(pool)
	apiV1 := e.Group("/api/v1")

	resolver := media.NewResolver(blobs, cfg.MediaURLTTL(), logger, metrics)
	mediaSvc := media.NewService(media.NewRepoPG(pool), blobs, resolver, logger)
	media.NewHandler(mediaSvc).RegisterRoutes(apiV1)

	patientSvc := patient.NewService(patient.NewRepoPG(pool), mediaSvc)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	catalogSvc := catalog.NewService(catalog.NewRepoPG(pool))
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)

	inventoryRepo := inventory.NewRepoPG(pool)
	inventory.NewHandler(inventory.NewService(inventoryRepo)).RegisterRoutes(apiV1)
	ledger := inventory.NewLedger(inventoryRepo, tx, metrics)

	clinicalSvc := clinical.NewService(clinical.NewRepoPG(pool), ledger, tx, logger, metrics)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(apiV1)

	expiration.NewHandler(clinicalSvc, catalogSvc, cfg.ExpirationLookaheadDays).RegisterRoutes(apiV1)

	consentSvc := consent.NewService(consent.NewRepoPG(pool), clinicalSvc, mediaSvc, tx, metrics)
	consent.NewHandler(consentSvc).RegisterRoutes(apiV1)

	safetySvc := safety.NewService(questionnaires, logger)
	safety.NewHandler(safetySvc).RegisterRoutes(apiV1)

	financeSvc := finance.NewService(finance.NewRepoPG(pool), tx, metrics)
	finance.NewHandler(financeSvc).RegisterRoutes(apiV1)

	calendarStore := calendar.Validating{Store: calendar.NewPGStore(pool)}
	calendar.NewHandler(calendarStore).RegisterRoutes(apiV1)

	builder := timeline.NewBuilder(timeline.Sources{
		Patients:  patientSvc,
		Events:    clinicalSvc,
		Catalog:   catalogSvc,
		Postings:  financeSvc,
		Documents: consentSvc,
		Media:     mediaSvc,
		Safety:    safetySvc,
		Calendar:  calendarStore,
	}, cfg.ExpirationLookaheadDays, logger)
	timeline.NewHandler(builder).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
