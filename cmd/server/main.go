// Package main initializes and starts the identity confirmation server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/GophIdentity/internal/certgen"
	"github.com/atinyakov/GophIdentity/internal/checksum"
	"github.com/atinyakov/GophIdentity/internal/config"
	"github.com/atinyakov/GophIdentity/internal/db"
	"github.com/atinyakov/GophIdentity/internal/fields"
	"github.com/atinyakov/GophIdentity/internal/logger"
	"github.com/atinyakov/GophIdentity/internal/metrics"
	"github.com/atinyakov/GophIdentity/internal/middleware"
	"github.com/atinyakov/GophIdentity/internal/provider"
	"github.com/atinyakov/GophIdentity/internal/repository"
	"github.com/atinyakov/GophIdentity/internal/server/handler/http"
	"github.com/atinyakov/GophIdentity/internal/service"
	"github.com/atinyakov/GophIdentity/internal/session"
	"github.com/atinyakov/GophIdentity/internal/similarity"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer postgresDB.Close()

	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	identityRepo := repository.NewPostgresIdentityRepository(postgresDB)

	var cache fields.Cache
	if options.RedisURL != "" {
		client, err := fields.ConnectRedis(ctx, options.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = fields.NewRedisCache(client, options.CacheTTL.Duration)
	}
	fieldService := fields.NewService(repository.NewPostgresFieldRepository(postgresDB), cache, zapLogger)

	sum, err := checksum.New(options.ChecksumSecret)
	if err != nil {
		return err
	}
	providers, err := provider.NewRegistry(provider.Przelewy24(options.ProviderLogo))
	if err != nil {
		return err
	}
	tokens, err := session.NewTokenIssuer(options.JWTSecret, "gophidentity", options.TokenTTL.Duration)
	if err != nil {
		return err
	}
	guard := session.NewGuard(authRepo, tokens)

	identityService := service.NewIdentityService(service.IdentityDeps{
		Identities:    identityRepo,
		Fields:        repository.NewPostgresIdentityFieldRepository(postgresDB),
		Confirmations: repository.NewPostgresConfirmationRepository(postgresDB),
		Responses:     repository.NewPostgresResponseRepository(postgresDB),
		Dictionary:    fieldService,
		Checksum:      sum,
		Similarity:    similarity.New(options.SimilarityThreshold),
		Providers:     providers,
		Auth:          guard,
		Metrics:       metrics.New(prometheus.DefaultRegisterer),
		Log:           zapLogger,
	})

	ca, err := certgen.LoadAuthority(options.CACert, options.CAKey)
	if err != nil {
		return fmt.Errorf("failed to load CA: %w", err)
	}

	authHandler := &http.AuthHandler{
		AuthService:  service.NewAuthService(authRepo),
		Certificates: ca,
		Sessions:     guard,
		Log:          zapLogger,
	}
	identityHandler := &http.IdentityHandler{Service: identityService, Fields: fieldService, Log: zapLogger}

	router := http.NewRouter(
		authHandler,
		identityHandler,
		middleware.Authenticate(tokens, authRepo, zapLogger),
		promhttp.Handler(),
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLSEnabled() {
		cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if err != nil {
			return fmt.Errorf("failed to load server TLS cert/key: %w", err)
		}
		// Client certificates are optional here; login enforces them per route.
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientAuth:   tls.VerifyClientCertIfGiven,
			ClientCAs:    ca.CertPool(),
			MinVersion:   tls.VersionTLS12,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if cache != nil {
		fields.StartRefresher(gctx, fieldService, options.RefreshInterval.Duration, zapLogger)
	}

	g.Go(func() error {
		zapLogger.Info("starting server",
			zap.String("addr", options.Address),
			zap.Bool("tls", server.TLSConfig != nil))
		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
