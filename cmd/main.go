package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/machinery-dashboard/internal/auth"
	"github.com/ukydev/machinery-dashboard/internal/config"
	"github.com/ukydev/machinery-dashboard/internal/db"
	"github.com/ukydev/machinery-dashboard/internal/events"
	"github.com/ukydev/machinery-dashboard/internal/handlers"
	"github.com/ukydev/machinery-dashboard/internal/logger"
	"github.com/ukydev/machinery-dashboard/internal/mailer"
	"github.com/ukydev/machinery-dashboard/internal/middleware"
	"github.com/ukydev/machinery-dashboard/internal/pages"
	"github.com/ukydev/machinery-dashboard/internal/scheduler"
	"github.com/ukydev/machinery-dashboard/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := logger.Setup(loggerOptions(cfg)); err != nil {
		log.WithError(err).Fatal("Failed to set up logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func loggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Level:     cfg.LogLevel,
		JSON:      cfg.IsProduction(),
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	}
}

func smtpConfig(cfg *config.Config) mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		LoginURL: strings.TrimRight(cfg.AppBaseURL, "/") + middleware.LoginPath,
	}
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.MongoURI == "" {
		return errors.New("MONGODB_URI is required")
	}

	connector := db.NewConnector(cfg.MongoURI, cfg.MongoDB)
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	database, err := connector.Database(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := connector.Disconnect(disconnectCtx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	store := db.NewStore(database)

	authService, err := auth.NewService(cfg.SessionSecret, cfg.SessionTTL(), cfg.IsProduction())
	if err != nil {
		return err
	}

	publisher, err := events.NewMQTTPublisher(cfg.MQTTBrokerURL, cfg.MQTTClientID)
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, events will not be published")
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()
	notifier := events.NewNotifier(store.Notifications, publisher)

	jobs := scheduler.New(cfg.SchedulerInterval(),
		scheduler.ServiceReminderJob(store.Services, store.Machines, notifier, cfg.ServiceReminderAge()))
	if cfg.SchedulerAutoEnable {
		jobs.Start(ctx)
	}
	defer jobs.Stop()

	renderer, err := pages.NewRenderer()
	if err != nil {
		return err
	}

	guard := middleware.NewSuspensionGuard(store.Users, store.Organizations, authService, cfg.SuspensionCacheTTL())
	router := server.NewRouter(server.Handlers{
		Auth:           handlers.NewAuthHandler(authService, store.Users, store.Organizations, guard),
		Machines:       handlers.NewMachineHandler(store.Machines),
		Operators:      handlers.NewOperatorHandler(store.Operators),
		Services:       handlers.NewServiceHandler(store.Services),
		PreStarts:      handlers.NewPreStartHandler(store.PreStarts, store.Machines, notifier),
		DieselTanks:    handlers.NewDieselTankHandler(store.DieselTanks),
		Plans:          handlers.NewPlanHandler(store.Plans),
		AccessRequests: handlers.NewAccessRequestHandler(authService, store.AccessRequests, store.Users, store.Organizations, mailer.New(smtpConfig(cfg))),
		Templates:      handlers.NewTemplateHandler(store.Templates),
		Lookups:        handlers.NewLookupHandler(store.Users, store.Operators, store.Templates),
		Notifications:  handlers.NewNotificationHandler(store.Notifications),
		Scheduler:      handlers.NewSchedulerHandler(jobs),
		Public:         handlers.NewPublicHandler(store.Machines, store.Services, notifier),
		Pages:          renderer,
	}, server.Gates{
		Auth:         middleware.NewAuthMiddleware(authService),
		Suspension:   guard,
		RateLimit:    middleware.NewRateLimitMiddleware(cfg.TrustProxy),
		PublicLimit:  cfg.PublicRateLimit,
		PublicWindow: cfg.PublicRateWindowSeconds,
	})

	srv := newHTTPServer(cfg, router)
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "env": cfg.AppEnv}).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
