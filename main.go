package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"clipforge/domain/repository"
	"clipforge/infrastructure/cache"
	"clipforge/infrastructure/clients/tiktok"
	youtubeclient "clipforge/infrastructure/clients/youtube"
	"clipforge/infrastructure/configuration"
	"clipforge/infrastructure/logger"
	"clipforge/infrastructure/persistence"
	"clipforge/infrastructure/pubsub"
	"clipforge/infrastructure/realtime"
	"clipforge/infrastructure/servicebus"
	httpHandler "clipforge/interfaces/http"
	"clipforge/server"
	"clipforge/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	jobDb, usingMSSQL, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
	}
	if jobDb != nil {
		ensureCredentials, ensureJobs := persistence.EnsureCredentialSchema, persistence.EnsureJobSchema
		if usingMSSQL {
			ensureCredentials, ensureJobs = persistence.EnsureCredentialSchemaMSSQL, persistence.EnsureJobSchemaMSSQL
		}
		if err := ensureCredentials(jobDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring credential schema")
		}
		if err := ensureJobs(jobDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring job schema")
		}
	}

	userDb, err := persistence.NewUserDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("User database initialization failed")
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without progress archive")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without progress archive")
		mongoDb = nil
	}
	progressArchive := persistence.NewProgressArchive(mongoDb, configuration.C.Database.Mongo.Name)

	redisClient, err := cache.NewRedisClient(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without progress snapshots")
		redisClient = nil
	}
	snapshotTTL := time.Duration(configuration.C.Progress.SnapshotTTLMinutes) * time.Minute
	progressCache := cache.NewProgressCache(redisClient, snapshotTTL)

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without progress mirror")
		pubSubClient = nil
	}
	progressMirror := pubsub.NewProgressMirror(pubSubClient, configuration.C.Pubsub.ProgressTopic)

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - falling back to webhook dispatch")
		azServiceBusClient = nil
	}
	jobDispatcher := servicebus.NewJobDispatcher(azServiceBusClient, configuration.C.ServiceBus.JobQueue)

	// Repository wiring: MSSQL in production, otherwise PostgreSQL.
	var credentialRepository repository.ICredential
	var jobRepository repository.IJob
	if usingMSSQL {
		credentialRepository = persistence.NewCredentialRepositoryMSSQL(jobDb)
		jobRepository = persistence.NewJobRepositoryMSSQL(jobDb)
	} else {
		credentialRepository = persistence.NewCredentialRepository(jobDb)
		jobRepository = persistence.NewJobRepository(jobDb)
	}
	userRepository := persistence.NewUserRepository(userDb)

	tiktokConf := configuration.C.OAuth.TikTok
	tiktokClient := tiktok.NewClient(tiktok.Config{
		ClientKey:     tiktokConf.ClientKey,
		ClientSecret:  tiktokConf.ClientSecret,
		RedirectURI:   tiktokConf.RedirectURI,
		Scopes:        tiktokConf.Scopes,
		TokenEndpoint: tiktokConf.TokenEndpoint,
		AuthEndpoint:  tiktokConf.AuthEndpoint,
	})

	var sourceMetadata usecase.SourceMetadataLookup
	if configuration.C.YouTube.APIKey != "" {
		metadataClient, err := youtubeclient.NewMetadataClient(ctx, &youtubeclient.Config{
			APIKey:       configuration.C.YouTube.APIKey,
			ClientID:     configuration.C.YouTube.ClientID,
			ClientSecret: configuration.C.YouTube.ClientSecret,
			RedirectURL:  configuration.C.YouTube.RedirectURI,
		})
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("YouTube metadata client unavailable - jobs created without source metadata")
		} else {
			sourceMetadata = metadataClient
		}
	} else {
		logger.GetLogger().Info("YouTube API key not configured - jobs created without source metadata")
	}

	safetyMargin := time.Duration(tiktokConf.RefreshSafetyMarginMinutes) * time.Minute
	defaultTTL := time.Duration(tiktokConf.DefaultTokenTTLHours) * time.Hour
	tokenUsecase := usecase.NewTokenUsecase(credentialRepository, tiktokClient, safetyMargin, defaultTTL)
	jobUsecase := usecase.NewJobUsecase(jobRepository, jobDispatcher, sourceMetadata, configuration.C.Workflow.WebhookURL)
	userUsecase := usecase.NewUserUsecase(userRepository)

	progressHub := realtime.NewProgressHub()
	streamTimeout := time.Duration(configuration.C.Progress.StreamTimeoutMinutes) * time.Minute

	userHandler := httpHandler.NewUserHandler(userUsecase, app.SecretKey)
	healthHandler := httpHandler.NewHealthHandler()
	jobHandler := httpHandler.NewJobHandler(jobUsecase)
	progressHandler := httpHandler.NewProgressHandler(progressHub, jobRepository, progressCache, progressMirror, progressArchive, streamTimeout)
	tiktokOAuthHandler := httpHandler.NewTikTokOAuthHandler(tiktokClient, credentialRepository, tokenUsecase)
	shareHandler := httpHandler.NewShareHandler(tokenUsecase, jobUsecase, tiktokClient, configuration.C.Workflow.ClipBaseURL)

	router := server.InitiateRouter(userHandler, healthHandler, jobHandler, progressHandler, tiktokOAuthHandler, shareHandler, app.SecretKey)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
			// Streaming responses stay open; no write deadline.
			ReadTimeout:  0,
			WriteTimeout: 0,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens the credential/job store. Production and
// DB_VENDOR=mssql run on MSSQL; everything else on PostgreSQL.
func InitiateDatabase() (*sql.DB, bool, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" || env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, true, err
		}
		return db, true, nil
	}
	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, false, err
	}
	return db, false, nil
}
