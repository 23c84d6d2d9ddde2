package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterchat/internal/app/models/dto"
	"rosterchat/internal/app/services"
	"rosterchat/internal/app/store"
	"rosterchat/internal/middleware"
	"rosterchat/internal/pkg/apperrors"
)

// AdminController exposes ingestion control and store maintenance.
type AdminController struct {
	ingestionService *services.IngestionService
	store            store.CourseStore
}

// NewAdminController creates a new AdminController
func NewAdminController(ingestionService *services.IngestionService, courseStore store.CourseStore) *AdminController {
	return &AdminController{
		ingestionService: ingestionService,
		store:            courseStore,
	}
}

// StartIngest launches a background ingestion job
// @Summary Start ingestion
// @Description Starts a full roster ingestion run in the background; only one job runs at a time
// @Tags admin
// @Produce json
// @Success 202 {object} dto.IngestStartedResponse "Job accepted"
// @Failure 409 {object} dto.ErrorResponse "A job is already running"
// @Router /admin/ingest [post]
func (c *AdminController) StartIngest(ctx *gin.Context) {
	job, err := c.ingestionService.Start()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.IngestStartedResponse{
		Success: true,
		Message: "Ingestion started",
		JobID:   job.ID,
	})
}

// GetIngestProgress reports an ingestion job's progress
// @Summary Ingestion progress
// @Description Returns the progress of the job with the given id, or the most recent job when no id is supplied
// @Tags admin
// @Produce json
// @Param jobId query string false "Job id; defaults to the most recent job"
// @Success 200 {object} dto.IngestJobResponse "Job state"
// @Failure 404 {object} dto.ErrorResponse "No such job"
// @Router /admin/ingest/progress [get]
func (c *AdminController) GetIngestProgress(ctx *gin.Context) {
	var job *services.IngestJob
	if jobID := ctx.Query("jobId"); jobID != "" {
		found, err := c.ingestionService.Job(jobID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		job = found
	} else {
		job = c.ingestionService.LatestJob()
		if job == nil {
			middleware.HandleAPIError(ctx, apperrors.ErrJobNotFound)
			return
		}
	}

	ctx.JSON(http.StatusOK, dto.IngestJobResponse{
		Success:    true,
		JobID:      job.ID,
		Status:     string(job.Status),
		Progress:   job.Progress,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	})
}

// ClearStore drops all stored rosters, subjects and courses
// @Summary Clear the store
// @Description Removes every stored roster, subject and course snapshot
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Store cleared"
// @Failure 409 {object} dto.ErrorResponse "Refused while ingestion is running"
// @Router /admin/clear [post]
func (c *AdminController) ClearStore(ctx *gin.Context) {
	if c.ingestionService.Running() {
		middleware.HandleAPIError(ctx, apperrors.NewConflictError("Cannot clear the store while ingestion is running"))
		return
	}

	if err := c.store.Clear(ctx.Request.Context()); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Store cleared"})
}
