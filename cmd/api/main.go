package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"wellness/internal/adapter/repo"
	"wellness/internal/auth"
	"wellness/internal/catalog"
	"wellness/internal/docstore"
	"wellness/internal/http/handlers"
	"wellness/internal/http/httpapi"
	"wellness/internal/infra"
	"wellness/internal/infra/credentials"
	"wellness/internal/infra/facebook"
	"wellness/internal/infra/geoip"
	"wellness/internal/infra/google"
	"wellness/internal/middleware"
	"wellness/internal/notify"
	"wellness/internal/nutrition"
	"wellness/internal/profile"
	"wellness/internal/progress"
	"wellness/internal/settings"
	"wellness/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	sqlDB := infra.SQLDB(pool)
	defer sqlDB.Close()
	if err := infra.Migrate(ctx, sqlDB, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	runner := infra.NewSQLRunner(pool, logger)

	listener, err := docstore.NewListener(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("profile subscriptions disabled")
	} else {
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Warn().Err(err).Msg("docstore listener stopped")
			}
		}()
	}
	store := docstore.NewPostgresStore(runner, listener)

	accounts := repo.NewAccountRepository(runner)
	scans := repo.NewScanHistoryRepository(runner)
	reminders := repo.NewReminderRepository(runner)
	creds := credentials.NewStore(runner)

	var awsCfg aws.Config
	if cfg.UsesAWS() {
		awsCfg, err = infra.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load aws config")
		}
	}

	objects, staticDir := buildObjectStore(cfg, awsCfg, logger)

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.SESSender != "" {
		mailer = notify.NewSESMailer(notify.NewSESClient(awsCfg), cfg.SESSender, &logger)
	}
	var pusher notify.Pusher = notify.NewLogPusher(logger)
	if cfg.SNSPlatformARN != "" {
		pusher = notify.NewSNSPusher(notify.NewSNSClient(awsCfg), cfg.SNSPlatformARN, &logger)
	}

	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer countries.Close()

	settingsSvc := settings.NewService(store, pusher, &logger)
	progressSvc := progress.NewService(store, nil, &logger)
	access := profile.NewAccess(store)
	builder := profile.NewBuilder(profile.Options{
		Access:    access,
		Reminders: reminders,
		Scans:     scans,
		Accounts:  accounts,
		Settings:  settingsSvc,
		Progress:  progressSvc,
		Images:    objects,
		Logger:    &logger,
	})

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	httpClient := &http.Client{Timeout: 30 * time.Second}
	authOpts := auth.Options{
		Accounts: accounts,
		Profiles: builder,
		Tokens:   tokens,
		Mailer:   mailer,
		ResetURL: cfg.PasswordResetURL,
		ResetTTL: cfg.PasswordResetTTL,
		Logger:   &logger,
	}
	if cfg.GoogleClientID != "" {
		authOpts.Google = google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID, httpClient)
	}
	if cfg.FacebookAppID != "" {
		authOpts.Facebook = facebook.NewVerifier(facebook.Options{
			AppID:      cfg.FacebookAppID,
			AppSecret:  cfg.FacebookAppSecret,
			GraphURL:   cfg.FacebookGraphURL,
			HTTPClient: httpClient,
		})
	}

	scanner := buildScanner(cfg, awsCfg, creds, scans, objects, httpClient, logger)

	gormDB, err := infra.NewGormDB(pool, cfg.AppEnv)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open gorm session")
	}
	meals := catalog.NewGormCatalog(gormDB, logger)
	if err := meals.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare meal catalog")
	}

	app := &handlers.App{
		Config:   cfg,
		Logger:   logger,
		Auth:     auth.NewService(authOpts),
		Profiles: builder,
		Access:   access,
		Settings: settingsSvc,
		Progress: progressSvc,
		Scanner:  scanner,
		Scans:    scans,
		Catalog:  meals,
		Storage:  objects,
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	router := httpapi.NewRouter(httpapi.Options{
		App:             app,
		Tokens:          tokens,
		Logger:          logger,
		Countries:       middlewareLookup(countries),
		DefaultLocale:   cfg.DefaultLocale,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		TrustedProxies:  proxies,
		StaticDir:       staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Str("addr", server.Addr()).Bool("demo", cfg.DemoMode).Msg("API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildObjectStore returns the image store and, for the file driver, the
// directory to serve under /static.
func buildObjectStore(cfg *infra.Config, awsCfg aws.Config, logger infra.Logger) (storage.ObjectStore, string) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Store(storage.NewS3Client(awsCfg), cfg.S3Bucket, cfg.S3PublicBaseURL), ""
	}
	dir := cfg.StoragePath
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	fs, err := storage.NewFileStore(dir, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	return fs, dir
}

func buildScanner(cfg *infra.Config, awsCfg aws.Config, creds *credentials.Store, scans *repo.ScanHistoryRepositoryPG,
	objects storage.ObjectStore, httpClient *http.Client, logger infra.Logger) *nutrition.Scanner {
	keyFor := func(provider, configured string) nutrition.KeySource {
		return func(ctx context.Context) (string, error) {
			return creds.Resolve(ctx, provider, configured)
		}
	}
	lookup := nutrition.NewCalorieNinjas(nutrition.CalorieNinjasOptions{
		Key:        keyFor(credentials.ProviderCalorieNinjas, cfg.CalorieNinjasKey),
		BaseURL:    cfg.CalorieNinjasBaseURL,
		HTTPClient: httpClient,
		Logger:     &logger,
	})

	var analyzer nutrition.ImageAnalyzer
	switch cfg.ScanProvider {
	case "rekognition":
		analyzer = nutrition.NewRekognitionLabeler(nutrition.NewRekognitionClient(awsCfg), lookup, &logger)
	default:
		analyzer = nutrition.NewLogMeal(nutrition.LogMealOptions{
			Key:        keyFor(credentials.ProviderLogMeal, cfg.LogMealToken),
			BaseURL:    cfg.LogMealBaseURL,
			HTTPClient: httpClient,
			Logger:     &logger,
		})
	}

	return nutrition.NewScanner(nutrition.ScannerOptions{
		Analyzer:  analyzer,
		Lookup:    lookup,
		History:   scans,
		Images:    objects,
		DemoMode:  cfg.DemoMode,
		DemoDelay: cfg.DemoScanDelay,
		Logger:    &logger,
	})
}

// countryLookup avoids handing a typed nil to the builder.
func middlewareLookup(r *geoip.Resolver) middleware.CountryLookup {
	if r == nil {
		return nil
	}
	return r.CountryCode
}
