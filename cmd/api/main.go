package main

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/zapscan/internal/application"
	appai "github.com/bryanwahyu/zapscan/internal/application/ai"
	appscans "github.com/bryanwahyu/zapscan/internal/application/scans"
	"github.com/bryanwahyu/zapscan/internal/config"
	domai "github.com/bryanwahyu/zapscan/internal/domain/ai"
	"github.com/bryanwahyu/zapscan/internal/domain/analyst"
	"github.com/bryanwahyu/zapscan/internal/domain/scanerrors"
	scansdomain "github.com/bryanwahyu/zapscan/internal/domain/scans"
	"github.com/bryanwahyu/zapscan/internal/domain/vulns"
	localai "github.com/bryanwahyu/zapscan/internal/infra/ai/local"
	openaicli "github.com/bryanwahyu/zapscan/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/zapscan/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/zapscan/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/zapscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/zapscan/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/zapscan/internal/infra/storage"
	"github.com/bryanwahyu/zapscan/internal/infra/zapapi"
	"github.com/bryanwahyu/zapscan/internal/middleware"
)

type repositories struct {
	scans    scansdomain.Repository
	vulns    vulns.Repository
	errors   scanerrors.Repository
	analyses analyst.Repository
}

// openDatabase connects the configured driver and builds the repos.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, repositories, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlitep.Connect(ctx, cfg.Database.Path)
		if err != nil {
			return nil, repositories{}, err
		}
		return db, repositories{
			scans:    sqlitep.NewScanRepository(db),
			vulns:    sqlitep.NewVulnRepository(db),
			errors:   sqlitep.NewScanErrorRepository(db),
			analyses: sqlitep.NewAnalystRepository(db),
		}, nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, repositories{}, err
		}
		return db, repositories{
			scans:    mysqlp.NewScanRepository(db),
			vulns:    mysqlp.NewVulnRepository(db),
			errors:   mysqlp.NewScanErrorRepository(db),
			analyses: mysqlp.NewAnalystRepository(db),
		}, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, repositories{}, err
		}
		return db, repositories{
			scans:    postgresp.NewScanRepository(db),
			vulns:    postgresp.NewVulnRepository(db),
			errors:   postgresp.NewScanErrorRepository(db),
			analyses: postgresp.NewAnalystRepository(db),
		}, nil
	default:
		return nil, repositories{}, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database
	db, repos, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database connect error: %v", err)
	}
	defer db.Close()

	// init ZAP client
	zap, err := zapapi.NewClient(zapapi.Options{
		Address:      cfg.Zap.Address,
		APIKey:       cfg.Zap.APIKey,
		Timeout:      cfg.Zap.Timeout,
		PollInterval: cfg.Zap.PollInterval,
		MaxRPS:       cfg.Zap.MaxRPS,
	})
	if err != nil {
		log.Fatalf("zap client error: %v", err)
	}

	// init minio (optional, reports stay unpublished without it)
	var store scansdomain.ArtifactStore
	if cfg.Minio.Enabled {
		s, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		store = s
	}

	// init services
	svc := &appscans.Service{
		Repo:      repos.scans,
		Vulns:     repos.vulns,
		Errors:    repos.errors,
		Engine:    zap,
		Artifacts: store,
		Clock:     application.SystemClock{},
	}

	var aiClient domai.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = openaicli.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		aiClient = localai.NewClient()
	}
	aiSvc := appai.NewService(aiClient, repos.analyses)

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	// Auth runs first: logging and the rate limiter key on the tenant
	// it puts in the request context.
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"zap":      middleware.Optional(zap),
	}))
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Mount("/", httpserver.NewRouter(svc, aiSvc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s (db=%s zap=%s)", addr, cfg.Database.Driver, cfg.Zap.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
