package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"clipforge/domain/dto"
	"clipforge/domain/model"
	"clipforge/domain/repository"
	youtubeclient "clipforge/infrastructure/clients/youtube"
	"clipforge/infrastructure/logger"
	"clipforge/infrastructure/servicebus"
)

// ErrJobNotFound is returned when a job id does not exist or belongs to a
// different user.
var ErrJobNotFound = errors.New("job not found")

// SourceMetadataLookup resolves title/duration for a source video. Optional.
type SourceMetadataLookup interface {
	Lookup(ctx context.Context, sourceURL string) (*youtubeclient.SourceMetadata, error)
}

type IJobUsecase interface {
	CreateJob(ctx context.Context, userID string, req dto.CreateJobRequest) (*model.ClipJob, error)
	GetJob(ctx context.Context, jobID, userID string) (*model.ClipJob, error)
	ListJobs(ctx context.Context, userID string) ([]*model.ClipJob, error)
}

type jobUsecase struct {
	jobRepo    repository.IJob
	dispatcher servicebus.IJobDispatcher
	metadata   SourceMetadataLookup
	webhookURL string
	httpClient *http.Client
}

func NewJobUsecase(jobRepo repository.IJob, dispatcher servicebus.IJobDispatcher, metadata SourceMetadataLookup, webhookURL string) IJobUsecase {
	return &jobUsecase{
		jobRepo:    jobRepo,
		dispatcher: dispatcher,
		metadata:   metadata,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (u *jobUsecase) CreateJob(ctx context.Context, userID string, req dto.CreateJobRequest) (*model.ClipJob, error) {
	if userID == "" || req.SourceURL == "" {
		return nil, errors.New("userID and source_url required")
	}
	clipCount := req.ClipCount
	if clipCount <= 0 {
		clipCount = 3
	}
	if clipCount > 10 {
		clipCount = 10
	}

	job := &model.ClipJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		SourceURL: req.SourceURL,
		Status:    model.JobStatusQueued,
		ClipCount: clipCount,
	}

	// Best-effort enrichment; a metadata miss never blocks job creation.
	if u.metadata != nil {
		mdCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if md, err := u.metadata.Lookup(mdCtx, req.SourceURL); err == nil && md != nil {
			if md.Title != "" {
				title := md.Title
				job.SourceTitle = &title
			}
			if md.DurationSecs > 0 {
				dur := md.DurationSecs
				job.DurationSecs = &dur
			}
		} else if err != nil {
			logger.GetLogger().WithField("source_url", req.SourceURL).WithField("error", err).Debug("source metadata lookup failed")
		}
		cancel()
	}

	if err := u.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	u.dispatch(ctx, job)
	return job, nil
}

// dispatch hands the job to the workflow engine: the Service Bus queue when
// configured, the intake webhook otherwise. Failures are logged, not fatal;
// a stuck QUEUED job is visible to the user and re-dispatchable.
func (u *jobUsecase) dispatch(ctx context.Context, job *model.ClipJob) {
	lg := logger.GetLogger().WithField("job_id", job.ID)
	if u.dispatcher != nil && u.dispatcher.Configured() {
		if err := u.dispatcher.Dispatch(ctx, job); err != nil {
			lg.WithField("error", err).Warn("service bus dispatch failed")
		} else {
			return
		}
	}
	if u.webhookURL == "" {
		lg.Warn("no workflow dispatch configured; job stays queued")
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"job_id":     job.ID,
		"source_url": job.SourceURL,
		"clip_count": job.ClipCount,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.webhookURL, bytes.NewReader(payload))
	if err != nil {
		lg.WithField("error", err).Warn("workflow webhook request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := u.httpClient.Do(req)
	if err != nil {
		lg.WithField("error", err).Warn("workflow webhook dispatch failed")
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		lg.WithField("status", resp.StatusCode).Warn("workflow webhook rejected job")
	}
}

func (u *jobUsecase) GetJob(ctx context.Context, jobID, userID string) (*model.ClipJob, error) {
	job, err := u.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (u *jobUsecase) ListJobs(ctx context.Context, userID string) ([]*model.ClipJob, error) {
	return u.jobRepo.ListByUser(ctx, userID, 50)
}
