package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rosterchat/internal/app/models/dto"
	"rosterchat/internal/app/store"
	"rosterchat/internal/middleware"
	"rosterchat/internal/pkg/apperrors"
)

// ClassController serves roster and course lookups straight from the store.
type ClassController struct {
	store store.CourseStore
}

// NewClassController creates a new ClassController
func NewClassController(courseStore store.CourseStore) *ClassController {
	return &ClassController{
		store: courseStore,
	}
}

// Ping reports service health and store stats
// @Summary Health check
// @Description Returns service status and counts of stored rosters, subjects and courses
// @Tags system
// @Produce json
// @Success 200 {object} dto.PingResponse "Service is up"
// @Router /ping [get]
func (c *ClassController) Ping(ctx *gin.Context) {
	stats, err := c.store.GetStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.PingResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Stats: dto.StatsResponse{
			Rosters:  stats.Rosters,
			Subjects: stats.Subjects,
			Courses:  stats.Courses,
		},
	})
}

// GetRosters lists stored rosters
// @Summary List rosters
// @Description Lists all stored rosters ordered most recent first
// @Tags classes
// @Produce json
// @Success 200 {object} dto.RostersResponse "Stored rosters"
// @Router /rosters [get]
func (c *ClassController) GetRosters(ctx *gin.Context) {
	rosters, err := c.store.GetRosters(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.RostersResponse{
		Success: true,
		Rosters: rosters,
	})
}

// GetLatestClass returns the most recent snapshot of a course
// @Summary Latest course snapshot
// @Description Returns the snapshot from the most recent roster offering the course
// @Tags classes
// @Produce json
// @Param subject query string true "Subject code, e.g. CS"
// @Param catalog_nbr query string true "Catalog number, e.g. 4780"
// @Success 200 {object} dto.CourseResponse "Latest snapshot"
// @Failure 400 {object} dto.ErrorResponse "Missing parameters"
// @Failure 404 {object} dto.ErrorResponse "No stored history for the course"
// @Router /classes/latest [get]
func (c *ClassController) GetLatestClass(ctx *gin.Context) {
	subject, catalogNbr, ok := classQueryParams(ctx)
	if !ok {
		return
	}

	course, err := c.store.GetLatestCourse(ctx.Request.Context(), subject, catalogNbr)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if course == nil {
		middleware.HandleAPIError(ctx, apperrors.NewResourceNotFoundError(
			"No course found for "+subject+" "+catalogNbr))
		return
	}

	ctx.JSON(http.StatusOK, dto.CourseResponse{
		Success: true,
		Course:  course,
	})
}

// GetClassHistory returns every stored snapshot of a course
// @Summary Course history
// @Description Returns all stored snapshots of a course, most recent term first
// @Tags classes
// @Produce json
// @Param subject query string true "Subject code, e.g. CS"
// @Param catalog_nbr query string true "Catalog number, e.g. 4780"
// @Success 200 {object} dto.CourseHistoryResponse "Snapshots ordered most recent first"
// @Failure 400 {object} dto.ErrorResponse "Missing parameters"
// @Router /classes/history [get]
func (c *ClassController) GetClassHistory(ctx *gin.Context) {
	subject, catalogNbr, ok := classQueryParams(ctx)
	if !ok {
		return
	}

	history, err := c.store.GetCourseHistory(ctx.Request.Context(), subject, catalogNbr)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.CourseHistoryResponse{
		Success: true,
		History: history,
	})
}

// classQueryParams reads and validates the subject/catalog_nbr query pair.
func classQueryParams(ctx *gin.Context) (subject, catalogNbr string, ok bool) {
	subject = strings.ToUpper(strings.TrimSpace(ctx.Query("subject")))
	catalogNbr = strings.TrimSpace(ctx.Query("catalog_nbr"))
	if subject == "" || catalogNbr == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed,
			"Missing required parameters: subject and catalog_nbr")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return "", "", false
	}
	return subject, catalogNbr, true
}
