package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clipforge/domain/dto"
	"clipforge/domain/model"
	"clipforge/infrastructure/clients/tiktok"
	"clipforge/infrastructure/logger"
	"clipforge/usecase"
)

type IShareHandler interface {
	ShareClip(ctx *gin.Context)
}

// ClipPublisher uploads one finished clip to the user's connected platform.
type ClipPublisher interface {
	InitVideoPublish(ctx context.Context, accessToken string, pub tiktok.PublishVideoRequest) (string, error)
}

type ShareHandler struct {
	tokenUsecase usecase.ITokenUsecase
	jobUsecase   usecase.IJobUsecase
	publisher    ClipPublisher
	clipBaseURL  string
}

func NewShareHandler(tokenUsecase usecase.ITokenUsecase, jobUsecase usecase.IJobUsecase, publisher ClipPublisher, clipBaseURL string) IShareHandler {
	return &ShareHandler{tokenUsecase: tokenUsecase, jobUsecase: jobUsecase, publisher: publisher, clipBaseURL: clipBaseURL}
}

// ShareClip publishes one clip of a finished job to TikTok. Token problems
// map to a stable error vocabulary the frontend acts on: reconnect_required
// sends the user back through OAuth, retry_later means try again unchanged.
func (h *ShareHandler) ShareClip(ctx *gin.Context) {
	jobID := ctx.Param("jobId")
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	var req dto.ShareClipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := h.jobUsecase.GetJob(ctx.Request.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, usecase.ErrJobNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job.Status != model.JobStatusDone {
		ctx.JSON(http.StatusConflict, gin.H{"error": "job not finished"})
		return
	}
	if req.ClipIndex < 1 || req.ClipIndex > job.ClipCount {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("clip_index must be in 1..%d", job.ClipCount)})
		return
	}
	if h.clipBaseURL == "" {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "clip storage not configured"})
		return
	}

	accessToken, err := h.tokenUsecase.GetValidToken(ctx.Request.Context(), userID, model.ProviderTikTok)
	if err != nil {
		ctx.JSON(tokenErrorStatus(err), gin.H{"error": tokenErrorCode(err)})
		return
	}

	title := req.Title
	if title == "" {
		if job.SourceTitle != nil {
			title = fmt.Sprintf("%s (clip %d)", *job.SourceTitle, req.ClipIndex)
		} else {
			title = fmt.Sprintf("Clip %d", req.ClipIndex)
		}
	}
	clipURL := fmt.Sprintf("%s/%s/clip_%d.mp4", strings.TrimRight(h.clipBaseURL, "/"), job.ID, req.ClipIndex)

	publishID, err := h.publisher.InitVideoPublish(ctx.Request.Context(), accessToken, tiktok.PublishVideoRequest{
		Title:    title,
		VideoURL: clipURL,
	})
	if err != nil {
		logger.GetLogger().WithField("job_id", jobID).WithField("user_id", userID).WithField("error", err.Error()).Warn("clip publish failed")
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "publish_failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job_id": jobID, "clip_index": req.ClipIndex, "publish_id": publishID})
}

// tokenErrorCode collapses token lifecycle failures into the two actions the
// caller can take.
func tokenErrorCode(err error) string {
	switch {
	case errors.Is(err, usecase.ErrNotConnected),
		errors.Is(err, usecase.ErrTokenExpired),
		errors.Is(err, usecase.ErrTokenRevoked):
		return "reconnect_required"
	default:
		return "retry_later"
	}
}

func tokenErrorStatus(err error) int {
	if tokenErrorCode(err) == "reconnect_required" {
		return http.StatusUnauthorized
	}
	return http.StatusServiceUnavailable
}
