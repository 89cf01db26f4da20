package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clipforge/domain/model"
	"clipforge/infrastructure/cache"
	"clipforge/infrastructure/persistence"
	"clipforge/infrastructure/realtime"
)

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Create(ctx context.Context, job *model.ClipJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepo) GetByID(ctx context.Context, id string) (*model.ClipJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClipJob), args.Error(1)
}

func (m *MockJobRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ClipJob, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ClipJob), args.Error(1)
}

func (m *MockJobRepo) UpdateProgress(ctx context.Context, id string, status string, progress int, errMsg *string) error {
	args := m.Called(ctx, id, status, progress, errMsg)
	return args.Error(0)
}

func newProgressRouter(handler IProgressHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/jobs/:jobId/progress", handler.PublishProgress)
	r.GET("/api/jobs/:jobId/progress/stream", func(c *gin.Context) {
		c.Set("user_id", userID)
		handler.StreamProgress(c)
	})
	return r
}

func newProgressHandler(hub *realtime.ProgressHub, repo *MockJobRepo, timeout time.Duration) IProgressHandler {
	snapshot := cache.NewProgressCache(nil, 0)
	archive := persistence.NewProgressArchive(nil, "")
	return NewProgressHandler(hub, repo, snapshot, nil, archive, timeout)
}

func processingJob(id, userID string) *model.ClipJob {
	return &model.ClipJob{ID: id, UserID: userID, SourceURL: "https://youtu.be/abc", Status: model.JobStatusProcessing, Progress: 20, ClipCount: 3}
}

func TestPublishProgress_FansOutAndPersists(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	repo.On("GetByID", mock.Anything, "job-1").Return(processingJob("job-1", "u1"), nil)
	repo.On("UpdateProgress", mock.Anything, "job-1", model.JobStatusProcessing, 40, (*string)(nil)).Return(nil)

	ch := hub.Subscribe("job-1")
	defer hub.Unsubscribe("job-1", ch)

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")
	body := bytes.NewBufferString(`{"status":"rendering","progress":40,"message":"rendering clip 2","clipIndex":2,"totalClips":3}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/jobs/job-1/progress", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case evt := <-ch:
		assert.Equal(t, model.ProgressRendering, evt.Status)
		assert.Equal(t, 40, evt.Progress)
		if assert.NotNil(t, evt.ClipIndex) {
			assert.Equal(t, 2, *evt.ClipIndex)
		}
	default:
		t.Fatal("expected a fanned-out event")
	}
	repo.AssertExpectations(t)
}

func TestPublishProgress_TerminalClosesSubscribers(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	repo.On("GetByID", mock.Anything, "job-1").Return(processingJob("job-1", "u1"), nil)
	repo.On("UpdateProgress", mock.Anything, "job-1", model.JobStatusDone, 100, (*string)(nil)).Return(nil)

	ch := hub.Subscribe("job-1")

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")
	body := bytes.NewBufferString(`{"status":"completed","progress":90}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/jobs/job-1/progress", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	evt, ok := <-ch
	assert.True(t, ok)
	assert.Equal(t, model.ProgressCompleted, evt.Status)
	assert.Equal(t, 100, evt.Progress, "completed is pinned to 100 regardless of reported progress")
	_, ok = <-ch
	assert.False(t, ok, "terminal event closes the subscription")
	repo.AssertExpectations(t)
}

func TestPublishProgress_ErrorPersistsMessage(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	repo.On("GetByID", mock.Anything, "job-1").Return(processingJob("job-1", "u1"), nil)
	repo.On("UpdateProgress", mock.Anything, "job-1", model.JobStatusFailed, 55, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && *msg == "render crashed"
	})).Return(nil)

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")
	body := bytes.NewBufferString(`{"status":"error","progress":55,"message":"render crashed"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/jobs/job-1/progress", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestPublishProgress_UnknownStatus(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")

	body := bytes.NewBufferString(`{"status":"exploding","progress":10}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/jobs/job-1/progress", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "UpdateProgress")
}

func TestPublishProgress_JobNotFound(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, nil)

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")
	body := bytes.NewBufferString(`{"status":"downloading","progress":0}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/jobs/missing/progress", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamProgress_CompletedJobResolvesImmediately(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	job := processingJob("job-1", "u1")
	job.Status = model.JobStatusDone
	job.Progress = 100
	repo.On("GetByID", mock.Anything, "job-1").Return(job, nil)

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/jobs/job-1/progress/stream", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	lines := splitNDJSON(w.Body.String())
	assert.Len(t, lines, 1)
	assert.Equal(t, model.ProgressCompleted, lines[0].Status)
	assert.Equal(t, 100, lines[0].Progress)
	assert.Equal(t, 0, hub.Subscribers("job-1"), "terminal jobs never subscribe")
}

func TestStreamProgress_FailedJobCarriesError(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	job := processingJob("job-1", "u1")
	job.Status = model.JobStatusFailed
	job.Progress = 70
	reason := "source video unavailable"
	job.ErrorMessage = &reason
	repo.On("GetByID", mock.Anything, "job-1").Return(job, nil)

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/jobs/job-1/progress/stream", nil)
	router.ServeHTTP(w, req)

	lines := splitNDJSON(w.Body.String())
	assert.Len(t, lines, 1)
	assert.Equal(t, model.ProgressError, lines[0].Status)
	assert.Equal(t, 70, lines[0].Progress)
	if assert.NotNil(t, lines[0].ErrorText) {
		assert.Equal(t, reason, *lines[0].ErrorText)
	}
}

func TestStreamProgress_LiveEventsUntilTerminal(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	repo.On("GetByID", mock.Anything, "job-1").Return(processingJob("job-1", "u1"), nil)

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")

	go func() {
		// Give the handler time to subscribe before publishing.
		time.Sleep(50 * time.Millisecond)
		hub.Publish("job-1", model.ProgressEvent{Status: model.ProgressTranscribing, Progress: 35})
		hub.Publish("job-1", model.ProgressEvent{Status: model.ProgressCompleted, Progress: 100})
	}()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/jobs/job-1/progress/stream", nil)
	router.ServeHTTP(w, req)

	lines := splitNDJSON(w.Body.String())
	if assert.Len(t, lines, 3) {
		assert.Equal(t, model.ProgressDownloading, lines[0].Status, "first line is the connection ack")
		assert.Equal(t, model.ProgressTranscribing, lines[1].Status)
		assert.Equal(t, model.ProgressCompleted, lines[2].Status)
	}
	assert.Equal(t, 0, hub.Subscribers("job-1"), "stream tears down its subscription")
}

func TestStreamProgress_TerminalLandingBeforeSubscribeResolves(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	finished := processingJob("job-1", "u1")
	finished.Status = model.JobStatusDone
	finished.Progress = 100
	// The job flips to DONE between the initial read and the subscription;
	// the broadcast is already gone, so only the store knows.
	repo.On("GetByID", mock.Anything, "job-1").Return(processingJob("job-1", "u1"), nil).Once()
	repo.On("GetByID", mock.Anything, "job-1").Return(finished, nil).Once()

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "u1")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/jobs/job-1/progress/stream", nil)
	router.ServeHTTP(w, req)

	lines := splitNDJSON(w.Body.String())
	if assert.Len(t, lines, 1) {
		assert.Equal(t, model.ProgressCompleted, lines[0].Status)
	}
	assert.Equal(t, 0, hub.Subscribers("job-1"))
	repo.AssertExpectations(t)
}

func TestStreamProgress_IdleTimeoutSynthesizesError(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	repo.On("GetByID", mock.Anything, "job-1").Return(processingJob("job-1", "u1"), nil)

	router := newProgressRouter(newProgressHandler(hub, repo, 20*time.Millisecond), "u1")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/jobs/job-1/progress/stream", nil)
	router.ServeHTTP(w, req)

	lines := splitNDJSON(w.Body.String())
	if assert.Len(t, lines, 2) {
		last := lines[len(lines)-1]
		assert.Equal(t, model.ProgressError, last.Status)
		assert.NotNil(t, last.ErrorText)
	}
	assert.Equal(t, 0, hub.Subscribers("job-1"))
}

func TestStreamProgress_OtherUsersJobHidden(t *testing.T) {
	hub := realtime.NewProgressHub()
	repo := new(MockJobRepo)
	repo.On("GetByID", mock.Anything, "job-1").Return(processingJob("job-1", "owner"), nil)

	router := newProgressRouter(newProgressHandler(hub, repo, time.Minute), "intruder")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/jobs/job-1/progress/stream", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func splitNDJSON(body string) []model.ProgressEvent {
	var events []model.ProgressEvent
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if line == "" {
			continue
		}
		var evt model.ProgressEvent
		if err := json.Unmarshal([]byte(line), &evt); err == nil {
			events = append(events, evt)
		}
	}
	return events
}
