package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clipforge/domain/dto"
	"clipforge/infrastructure/logger"
	"clipforge/usecase"
)

type IJobHandler interface {
	CreateJob(ctx *gin.Context)
	GetJob(ctx *gin.Context)
	ListJobs(ctx *gin.Context)
}

type JobHandler struct {
	jobUsecase usecase.IJobUsecase
}

func NewJobHandler(jobUsecase usecase.IJobUsecase) IJobHandler {
	return &JobHandler{jobUsecase: jobUsecase}
}

func (h *JobHandler) CreateJob(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	var req dto.CreateJobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	job, err := h.jobUsecase.CreateJob(ctx.Request.Context(), userID, req)
	if err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err.Error()).Warn("create job failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, job)
}

func (h *JobHandler) GetJob(ctx *gin.Context) {
	jobID := ctx.Param("jobId")
	userID := ctx.GetString("user_id")
	job, err := h.jobUsecase.GetJob(ctx.Request.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, usecase.ErrJobNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, job)
}

func (h *JobHandler) ListJobs(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	jobs, err := h.jobUsecase.ListJobs(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"jobs": jobs})
}
