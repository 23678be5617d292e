// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/deskagent/internal/automation"
	"github.com/unclebandit/deskagent/internal/backup"
	"github.com/unclebandit/deskagent/internal/config"
	"github.com/unclebandit/deskagent/internal/controller"
	"github.com/unclebandit/deskagent/internal/handler"
	"github.com/unclebandit/deskagent/internal/logging"
	"github.com/unclebandit/deskagent/internal/queue"
	"github.com/unclebandit/deskagent/internal/repository"
	"github.com/unclebandit/deskagent/internal/service"
)

const release = "deskagent-server@1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.LogLevel)

	flush, err := logging.InitSentry(cfg.SentryDSN, release)
	if err != nil {
		logrus.Warnf("Failed to initialize Sentry: %v", err)
	} else {
		defer flush()
	}

	campaignRepo := repository.NewCampaignRepository(cfg.CSVPath)
	if _, err := campaignRepo.Load(); err != nil {
		logrus.WithError(err).Warn("Campaign store needed attention on startup")
	}
	backups := backup.NewManager(cfg.CSVPath, cfg.BackupRetain)

	campaignService := &service.CampaignService{
		CampaignRepo:        campaignRepo,
		Topic:               cfg.CreationQueue,
		DefaultCategory:     cfg.Campaign.Category,
		DefaultTargetAmount: cfg.Campaign.TargetAmount,
	}
	if cfg.Automation.URL != "" {
		campaignService.Creator = automation.NewClient(cfg.Automation.URL, cfg.Automation.Timeout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case cfg.AMQPURL != "":
		// cmd/worker consumes what is published here.
		amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL)
		if err != nil {
			logrus.Warnf("Failed to connect to RabbitMQ, creation queue disabled: %v", err)
			break
		}
		defer amqpQueue.Close()
		campaignService.Queue = amqpQueue
		logrus.WithField("queue", cfg.CreationQueue).Info("Campaign creations will be published to RabbitMQ")
	case campaignService.Creator != nil:
		q := queue.NewInMemoryQueue(0)
		jobChan := make(chan string, 100)
		if err := queue.StartCreationSubscriber(q, cfg.CreationQueue, func(campaignID string) error {
			jobChan <- campaignID
			return nil
		}); err != nil {
			logrus.Fatalf("Failed to subscribe creation worker: %v", err)
		}

		worker := service.NewWorker(campaignService.CreateOnSite, jobChan)
		go worker.Start(ctx)
		campaignService.Queue = q
		logrus.Info("In-process creation worker started")
	default:
		logrus.Warn("No automation service configured, submissions will wait for manual processing")
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	campaignHandler := handler.NewCampaignHandler(campaignRepo, backups)

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Route("/api", func(r chi.Router) {
		campaignHandler.Routes(r)
		campaignController.Routes(r)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("Campaign store: %s", cfg.CSVPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("Request handled")
	})
}
