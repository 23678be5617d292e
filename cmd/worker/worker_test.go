package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/deskagent/internal/automation"
	"github.com/unclebandit/deskagent/internal/model"
	"github.com/unclebandit/deskagent/internal/queue"
	"github.com/unclebandit/deskagent/internal/repository"
	"github.com/unclebandit/deskagent/internal/service"
)

// MockCreator records creation requests and answers from a fixed table.
type MockCreator struct {
	mu    sync.Mutex
	urls  map[string]string
	calls []string
}

func (m *MockCreator) Create(ctx context.Context, req automation.CreationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req.CampaignID)
	if url, ok := m.urls[req.CampaignID]; ok {
		return url, nil
	}
	return "", automation.ErrCreationFailed
}

func newTestService(t *testing.T, creator automation.Creator) (*service.CampaignService, *repository.CampaignRepository) {
	t.Helper()
	repo := repository.NewCampaignRepository(t.TempDir() + "/campaigns.csv")
	return &service.CampaignService{CampaignRepo: repo, Creator: creator}, repo
}

func TestWorker(t *testing.T) {
	creator := &MockCreator{urls: map[string]string{"ok000001": "https://whydonate.com/fundraising/ok"}}
	svc, repo := newTestService(t, creator)

	for _, id := range []string{"ok000001", "bad00001"} {
		_, err := repo.Add(&model.Campaign{ID: id, Name: "Amina", Title: "Help", Status: model.StatusPending})
		require.NoError(t, err)
	}

	q := queue.NewInMemoryQueue(0)
	worker := newCreationWorker(svc)

	var mu sync.Mutex
	var results []service.CreationResult
	worker.OnResult = func(res service.CreationResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, res)
	}

	require.NoError(t, queue.StartCreationSubscriber(q, queue.TopicCampaignCreations, consume(context.Background(), worker)))
	require.NoError(t, q.Publish(queue.TopicCampaignCreations, "ok000001"))
	require.NoError(t, q.Publish(queue.TopicCampaignCreations, "bad00001"))
	q.Wait()

	assert.Len(t, results, 2)
	assert.ElementsMatch(t, []string{"ok000001", "bad00001"}, creator.calls)

	created, err := repo.GetByID("ok000001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, created.Status)
	assert.Equal(t, "https://whydonate.com/fundraising/ok", created.WhydonateURL)

	failed, err := repo.GetByID("bad00001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, failed.Status)
	assert.Empty(t, failed.WhydonateURL)
}

func TestWorkerSkipsCreatedCampaign(t *testing.T) {
	creator := &MockCreator{}
	svc, repo := newTestService(t, creator)

	_, err := repo.Add(&model.Campaign{
		ID:           "done0001",
		Name:         "Amina",
		Title:        "Help",
		Status:       model.StatusActive,
		WhydonateURL: "https://whydonate.com/fundraising/done",
	})
	require.NoError(t, err)

	res := newCreationWorker(svc).Handle(context.Background(), "done0001")
	assert.Equal(t, "created", res.Status)
	assert.Equal(t, "https://whydonate.com/fundraising/done", res.URL)
	assert.Empty(t, creator.calls)
}

func TestWorkerStartStopsWhenChannelCloses(t *testing.T) {
	jobs := make(chan string, 2)
	jobs <- "a"
	jobs <- "b"
	close(jobs)

	var seen []string
	worker := service.NewWorker(func(ctx context.Context, id string) (string, error) {
		seen = append(seen, id)
		if id == "b" {
			return "", errors.New("boom")
		}
		return "https://whydonate.com/fundraising/" + id, nil
	}, jobs)

	worker.Start(context.Background())
	assert.Equal(t, []string{"a", "b"}, seen)
}
