package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/deskagent/internal/automation"
	"github.com/unclebandit/deskagent/internal/config"
	"github.com/unclebandit/deskagent/internal/logging"
	"github.com/unclebandit/deskagent/internal/queue"
	"github.com/unclebandit/deskagent/internal/repository"
	"github.com/unclebandit/deskagent/internal/service"
)

const release = "deskagent-worker@1.0.0"

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

	if cfg.AMQPURL == "" {
		logrus.Fatal("AMQP_URL is required for the creation worker")
	}
	if cfg.Automation.URL == "" {
		logrus.Fatal("AUTOMATION_URL is required for the creation worker")
	}

	campaignService := &service.CampaignService{
		CampaignRepo: repository.NewCampaignRepository(cfg.CSVPath),
		Creator:      automation.NewClient(cfg.Automation.URL, cfg.Automation.Timeout),
		Topic:        cfg.CreationQueue,
	}

	q, err := queue.NewAMQPQueue(cfg.AMQPURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := newCreationWorker(campaignService)
	if err := queue.StartCreationSubscriber(q, cfg.CreationQueue, consume(ctx, worker)); err != nil {
		logrus.Fatalf("Failed to register consumer: %v", err)
	}

	logrus.WithField("queue", cfg.CreationQueue).Info("Worker running, waiting for campaigns...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Worker shutting down")
}

func newCreationWorker(svc *service.CampaignService) *service.Worker {
	worker := service.NewWorker(svc.CreateOnSite, nil)
	worker.OnResult = func(res service.CreationResult) {
		entry := logrus.WithField("campaign_id", res.CampaignID)
		if res.Status == "created" {
			entry.WithField("url", res.URL).Info("Campaign created on site")
			return
		}
		entry.WithField("error", res.Error).Warn("Campaign left pending")
	}
	return worker
}

// consume runs each delivery through the worker on the consumer goroutine,
// so jobs are handled one at a time. Failures are acknowledged: the
// campaign stays pending and is picked up by the next manual run.
func consume(ctx context.Context, worker *service.Worker) func(campaignID string) error {
	return func(campaignID string) error {
		worker.Handle(ctx, campaignID)
		return nil
	}
}
