package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

// CreateFunc creates one campaign on the site and returns its URL.
type CreateFunc func(ctx context.Context, campaignID string) (string, error)

// Worker processes creation jobs one at a time, so a campaign is never
// submitted twice concurrently.
type Worker struct {
	Create   CreateFunc
	JobChan  <-chan string
	OnResult func(CreationResult)
}

// Constructor
func NewWorker(create CreateFunc, jobChan <-chan string) *Worker {
	return &Worker{
		Create:  create,
		JobChan: jobChan,
	}
}

// Start processes jobs until the channel is closed or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case campaignID, ok := <-w.JobChan:
			if !ok {
				return
			}
			w.Handle(ctx, campaignID)
		}
	}
}

// Handle runs one creation job and reports it to OnResult.
func (w *Worker) Handle(ctx context.Context, campaignID string) CreationResult {
	result := CreationResult{CampaignID: campaignID}
	url, err := w.Create(ctx, campaignID)
	if err != nil {
		logrus.WithError(err).WithField("campaign_id", campaignID).Warn("Creation job failed, campaign left unchanged")
		result.Status = "failed"
		result.Error = err.Error()
	} else {
		result.Status = "created"
		result.URL = url
	}
	if w.OnResult != nil {
		w.OnResult(result)
	}
	return result
}
