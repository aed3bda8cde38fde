package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/config"
	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/httpserver"
	"github.com/Skotchmaster/course_market/internal/metrics"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/search"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/upload"
	pkgdb "github.com/Skotchmaster/course_market/pkg/db"
	"github.com/Skotchmaster/course_market/pkg/logging"
	loggingmw "github.com/Skotchmaster/course_market/pkg/middleware/logging"
	"github.com/Skotchmaster/course_market/pkg/tokens"
)

// searchBackend is both halves of course search.
type searchBackend interface {
	service.CourseSearcher
	service.CourseIndexer
}

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	rp := &repo.GormRepo{DB: db}
	if err := rp.Migrate(ctx); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers)
		publisher = kafkaPub
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var courses searchBackend = search.Database{Repo: rp}
	if cfg.ES.URL != "" {
		es, err := search.NewElastic(cfg.ES)
		if err != nil {
			cancel()
			log.Fatalf("elasticsearch: %v", err)
		}
		if err := es.Ping(ctx); err != nil {
			logger.Warn("elasticsearch_unreachable", "error", err)
		}
		courses = es
	}

	var uploads upload.Issuer = upload.Static{}
	if cfg.S3.Bucket != "" {
		s3, err := upload.NewS3Issuer(ctx, cfg.S3)
		if err != nil {
			cancel()
			log.Fatalf("s3: %v", err)
		}
		uploads = s3
	}
	cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	codec := tokens.NewCodec(cfg.JWTSecret)
	admin := &service.AdminService{Repo: rp, Events: publisher, Index: courses, Observe: m.Moderation}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(m.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		DB:       db,
		Resolver: &access.Resolver{Tokens: codec, Store: rp},
		Metrics:  m,
		Auth: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo: rp, Tokens: codec, TokenTTL: cfg.TokenTTL, Events: publisher,
		}},
		Admin: &httpserver.AdminHTTP{Svc: admin},
		Users: &httpserver.UserHTTP{Svc: &service.UserService{Repo: rp, Events: publisher, Admin: admin}},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{
			Repo: rp, Uploads: uploads, Search: courses, Index: courses, Events: publisher,
		}},
		Sessions: &httpserver.SessionHTTP{Svc: &service.SessionService{Repo: rp, Uploads: uploads, Events: publisher}},
		Engage:   &httpserver.EngagementHTTP{Svc: &service.EngagementService{Repo: rp}},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("stopped")
}
