package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TopicCampaignCreations is the default topic for campaign ids waiting for
// creation on the fundraising site.
const TopicCampaignCreations = "campaign_creations"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers each published payload to every subscriber of the
// topic on its own goroutine. A failing handler is retried up to
// MaxRetries times with linear backoff.
type InMemoryQueue struct {
	MaxRetries int
	Backoff    time.Duration

	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(maxRetries int) *InMemoryQueue {
	return &InMemoryQueue{
		MaxRetries: maxRetries,
		Backoff:    500 * time.Millisecond,
		handlers:   make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := append([]func(payload any) error(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{
			Topic:      topic,
			Payload:    payload,
			MaxRetries: q.MaxRetries,
		}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.processJob(handler, job)
		}()
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	entry := logrus.WithFields(logrus.Fields{"topic": job.Topic, "payload": job.Payload})
	for {
		err := handler(job.Payload)
		if err == nil {
			entry.Debug("Job processed successfully")
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			entry.WithError(err).Errorf("Job failed after %d attempt(s)", job.RetryCount)
			return
		}
		entry.WithError(err).Warnf("Job failed (attempt %d/%d), retrying", job.RetryCount, job.MaxRetries+1)
		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// StartCreationSubscriber routes campaign ids published on topic to
// create. Payloads that are not a campaign id are dropped without retry.
func StartCreationSubscriber(q Queue, topic string, create func(campaignID string) error) error {
	return q.Subscribe(topic, func(payload any) error {
		campaignID, ok := payload.(string)
		if !ok || campaignID == "" {
			logrus.WithField("payload", payload).Warn("Invalid creation payload, expected campaign id")
			return nil
		}

		logrus.WithField("campaign_id", campaignID).Info("Processing queued campaign creation")
		return create(campaignID)
	})
}

var _ Queue = (*InMemoryQueue)(nil)
