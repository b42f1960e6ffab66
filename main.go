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

	"speakcraft-social/domain/repository"
	"speakcraft-social/infrastructure/cache"
	facebookclient "speakcraft-social/infrastructure/clients/facebook"
	youtubeclient "speakcraft-social/infrastructure/clients/youtube"
	"speakcraft-social/infrastructure/configuration"
	"speakcraft-social/infrastructure/logger"
	"speakcraft-social/infrastructure/persistence"
	"speakcraft-social/infrastructure/pubsub"
	"speakcraft-social/infrastructure/realtime"
	"speakcraft-social/infrastructure/servicebus"
	httpHandler "speakcraft-social/interfaces/http"
	"speakcraft-social/server"
	"speakcraft-social/usecase"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	db, vendor, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	logger.GetLogger().WithField("vendor", vendor).WithField("ping", db.Ping()).Info("Database connected.")

	if vendor == "mssql" {
		err = persistence.EnsureSocialSchemaMSSQL(db)
	} else {
		err = persistence.EnsureSocialSchema(db)
	}
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed ensuring social schema")
		os.Exit(1)
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - payload archive disabled")
		mongoDb = nil
	} else if mongoDb != nil {
		if err := mongoDb.Ping(ctx, nil); err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - payload archive disabled")
			mongoDb = nil
		} else {
			logger.GetLogger().Info("MongoDB connected successfully")
		}
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - continuing without outcome events")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
		azServiceBusClient = nil
	}

	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	socialCache := cache.NewSocialCache(redisClient)

	// Repository wiring by vendor.
	var accountRepo repository.ISocialAccount
	var postRepo repository.ISocialPost
	var logRepo repository.IPublishLog
	if vendor == "mssql" {
		accountRepo = persistence.NewSocialAccountRepositoryMSSQL(db)
		postRepo = persistence.NewSocialPostRepositoryMSSQL(db)
		logRepo = persistence.NewPublishLogRepositoryMSSQL(db)
	} else {
		accountRepo = persistence.NewSocialAccountRepository(db)
		postRepo = persistence.NewSocialPostRepository(db)
		logRepo = persistence.NewPublishLogRepository(db)
	}

	// Platform clients.
	ytOAuthCfg := configuration.GetYouTubeOAuthConfig()
	ytOAuth := youtubeclient.NewOAuthConfig(&youtubeclient.Config{
		ClientID:     ytOAuthCfg.ClientID,
		ClientSecret: ytOAuthCfg.ClientSecret,
		RedirectURL:  ytOAuthCfg.RedirectURL,
	})
	ytClient := youtubeclient.NewClient(ytOAuth)
	fbClient := facebookclient.NewClient()

	oauthConfigs := map[string]*oauth2.Config{
		"youtube": ytOAuth,
	}
	fetchers := map[string]repository.IProfileFetcher{
		"youtube": ytClient,
	}
	publishers := []repository.IPublisher{ytClient, fbClient}

	publishHub := realtime.NewPublishHub()

	accountUsecase := usecase.NewSocialAccountUsecase(accountRepo, fetchers, socialCache)
	postUsecase := usecase.NewSocialPostUsecase(postRepo, accountRepo, logRepo)
	publishUsecase := usecase.NewPublishUsecase(postRepo, accountRepo, logRepo, publishers, ytClient, socialCache).
		WithTimings(
			time.Duration(configuration.C.Publish.RefreshMarginMinutes)*time.Minute,
			time.Duration(configuration.C.Publish.CallTimeoutSeconds)*time.Second,
		).
		WithEvents(
			pubsub.NewPublishEvents(pubSubClient), configuration.C.Pubsub.Topic,
			servicebus.NewPublishEvents(azServiceBusClient), configuration.C.ServiceBus.Queue,
		).
		WithArchive(persistence.NewPayloadArchive(mongoDb)).
		WithBroadcaster(publishHub.BroadcastPostStatus)

	socialAuthHandler := httpHandler.NewSocialAuthHandler(
		oauthConfigs,
		accountUsecase,
		configuration.C.Gateway.CallbackURL,
		configuration.C.Gateway.CredentialParam,
		configuration.C.Gateway.Credential,
	)
	publishHandler := httpHandler.NewPublishHandler(publishUsecase)
	socialHandler := httpHandler.NewSocialHandler(accountUsecase, postUsecase)

	router := server.InitiateRouter(socialAuthHandler, publishHandler, socialHandler, publishHub)

	// Background publish loop alongside the HTTP trigger.
	interval := time.Duration(configuration.C.Publish.IntervalMinutes) * time.Minute
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				runCtx, cancelRun := context.WithTimeout(ctx, interval)
				if _, err := publishUsecase.ProcessDue(runCtx, time.Now().UTC()); err != nil {
					logger.GetLogger().WithField("error", err).Error("Scheduled publish run failed")
				}
				cancelRun()
			}
		}
	})

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
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

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase picks the SQL vendor: Azure SQL in production or when
// DB_VENDOR=mssql, PostgreSQL otherwise.
func InitiateDatabase() (*sql.DB, string, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" || env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, "", err
		}
		return db, "mssql", nil
	}
	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, "", err
	}
	return db, "psql", nil
}
