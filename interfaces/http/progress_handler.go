package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clipforge/domain/dto"
	"clipforge/domain/model"
	"clipforge/domain/repository"
	"clipforge/infrastructure/cache"
	"clipforge/infrastructure/logger"
	"clipforge/infrastructure/persistence"
	"clipforge/infrastructure/pubsub"
	"clipforge/infrastructure/realtime"
)

type IProgressHandler interface {
	StreamProgress(ctx *gin.Context)
	PublishProgress(ctx *gin.Context)
}

type ProgressHandler struct {
	hub           *realtime.ProgressHub
	jobRepo       repository.IJob
	snapshot      cache.IProgressCache
	mirror        pubsub.IProgressMirror
	archive       *persistence.ProgressArchive
	streamTimeout time.Duration
}

func NewProgressHandler(
	hub *realtime.ProgressHub,
	jobRepo repository.IJob,
	snapshot cache.IProgressCache,
	mirror pubsub.IProgressMirror,
	archive *persistence.ProgressArchive,
	streamTimeout time.Duration,
) IProgressHandler {
	return &ProgressHandler{
		hub:           hub,
		jobRepo:       jobRepo,
		snapshot:      snapshot,
		mirror:        mirror,
		archive:       archive,
		streamTimeout: streamTimeout,
	}
}

// PublishProgress receives one progress update from the workflow engine and
// fans it out. For terminal updates the job record is persisted before the
// broadcast so a subscriber arriving after the broadcast always finds the
// terminal state in the job store.
func (h *ProgressHandler) PublishProgress(c *gin.Context) {
	jobID := c.Param("jobId")
	var req dto.ProgressCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	status := model.ProgressStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status})
		return
	}

	job, err := h.jobRepo.GetByID(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	evt := model.ProgressEvent{
		Status:     status,
		Progress:   req.Progress,
		Message:    req.Message,
		ClipIndex:  req.ClipIndex,
		TotalClips: req.TotalClips,
		ErrorText:  req.Error,
	}

	switch status {
	case model.ProgressCompleted:
		if err := h.jobRepo.UpdateProgress(c.Request.Context(), jobID, model.JobStatusDone, 100, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		evt.Progress = 100
	case model.ProgressError:
		errMsg := req.Error
		if errMsg == nil && req.Message != "" {
			errMsg = &req.Message
		}
		if err := h.jobRepo.UpdateProgress(c.Request.Context(), jobID, model.JobStatusFailed, req.Progress, errMsg); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	default:
		if err := h.jobRepo.UpdateProgress(c.Request.Context(), jobID, model.JobStatusProcessing, req.Progress, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	h.hub.Publish(jobID, evt)

	if status.Terminal() {
		if err := h.snapshot.Clear(c.Request.Context(), jobID); err != nil {
			logger.GetLogger().WithField("job_id", jobID).WithField("error", err).Debug("snapshot clear failed")
		}
	} else if err := h.snapshot.SetLast(c.Request.Context(), jobID, evt); err != nil {
		logger.GetLogger().WithField("job_id", jobID).WithField("error", err).Debug("snapshot update failed")
	}
	if h.mirror != nil {
		if err := h.mirror.Mirror(c.Request.Context(), jobID, evt); err != nil {
			logger.GetLogger().WithField("job_id", jobID).WithField("error", err).Debug("progress mirror failed")
		}
	}
	if err := h.archive.Append(c.Request.Context(), jobID, evt); err != nil {
		logger.GetLogger().WithField("job_id", jobID).WithField("error", err).Debug("progress archive failed")
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// StreamProgress serves newline-delimited JSON progress for one job until a
// terminal event, client disconnect, or the idle ceiling.
func (h *ProgressHandler) StreamProgress(c *gin.Context) {
	jobID := c.Param("jobId")
	userID := c.GetString("user_id")

	job, err := h.jobRepo.GetByID(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil || job.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	// A job already finished in the store resolves immediately: subscribing
	// would wait on a broker entry that will never fire again.
	if job.Terminal() {
		writeEvent(c, terminalEventFromJob(job))
		return
	}

	ch := h.hub.Subscribe(jobID)
	defer h.hub.Unsubscribe(jobID, ch)

	// Terminal updates persist before they broadcast, so a broadcast landing
	// between the read above and Subscribe is visible in the job store now.
	// Without this re-check such a client would hang until the idle ceiling.
	if job, err := h.jobRepo.GetByID(c.Request.Context(), jobID); err == nil && job != nil && job.Terminal() {
		writeEvent(c, terminalEventFromJob(job))
		return
	}

	// First line lets the client distinguish "connected, nothing yet" from
	// "not connected". Prefer the cached last event over the zero ack.
	first := model.ProgressEvent{Status: model.ProgressDownloading, Progress: 0, Message: "connected"}
	if last, err := h.snapshot.GetLast(c.Request.Context(), jobID); err == nil && last != nil {
		first = *last
	}
	writeEvent(c, first)

	timeout := time.NewTimer(h.streamTimeout)
	defer timeout.Stop()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(c, evt)
			if evt.Status.Terminal() {
				return
			}
		case <-c.Request.Context().Done():
			return
		case <-timeout.C:
			msg := "progress stream timed out"
			writeEvent(c, model.ProgressEvent{Status: model.ProgressError, Progress: 0, Message: msg, ErrorText: &msg})
			return
		}
	}
}

func terminalEventFromJob(job *model.ClipJob) model.ProgressEvent {
	if job.Status == model.JobStatusDone {
		return model.ProgressEvent{Status: model.ProgressCompleted, Progress: 100, Message: "done"}
	}
	evt := model.ProgressEvent{Status: model.ProgressError, Progress: job.Progress, Message: "processing failed"}
	if job.ErrorMessage != nil {
		evt.ErrorText = job.ErrorMessage
		evt.Message = *job.ErrorMessage
	}
	return evt
}

func writeEvent(c *gin.Context, evt model.ProgressEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	_, _ = c.Writer.Write(data)
	_, _ = c.Writer.Write([]byte("\n"))
	c.Writer.Flush()
}
