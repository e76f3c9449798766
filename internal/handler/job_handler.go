// internal/handler/job_handler.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// JobHandler handles print job HTTP requests
type JobHandler struct {
	jobService *service.JobService
	logger     *utils.ServiceLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *service.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     utils.NewServiceLogger(logger, "job-handler"),
	}
}

// RegisterRoutes registers print job routes
func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/jobs")
	{
		jobs.POST("", h.SubmitJob)
		jobs.GET("", h.ListJobs)
		jobs.GET("/:id", h.GetJob)
	}
}

// SubmitJob submits a print job
// @Summary Submit a print job
// @Description Submit a receipt, raw, barcode, image or test job. Execution is synchronous, the returned job carries the final outcome.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body service.SubmitJobRequest true "Job submission request"
// @Success 201 {object} utils.APIResponse{data=model.PrintJob} "Job processed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /jobs [post]
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req service.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	job, err := h.jobService.SubmitJob(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to submit print job", zap.Error(err))
		respondServiceError(c, http.StatusInternalServerError, "Failed to submit print job", err)
		return
	}

	message := "Print job completed"
	if job.Status == model.JobStatusFailed {
		message = "Print job failed"
	}
	utils.SuccessResponse(c, http.StatusCreated, message, job)
}

// ListJobs lists print jobs with filtering and pagination
// @Summary List print jobs
// @Description Get print jobs with filtering and pagination support
// @Tags Jobs
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param printer_id query string false "Filter by printer ID"
// @Param kind query string false "Filter by job kind" Enums(RECEIPT, RAW, BARCODE, IMAGE, TEST)
// @Param status query string false "Filter by status" Enums(QUEUED, PRINTING, DONE, FAILED)
// @Param start_date query string false "Jobs created after (RFC 3339)"
// @Param end_date query string false "Jobs created before (RFC 3339)"
// @Param sort_by query string false "Sort by field" default(created_at)
// @Param sort_order query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} utils.APIResponse{data=object{jobs=[]model.PrintJob,pagination=service.PaginationResult}} "Jobs retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := &service.JobFilter{
		Page:      1,
		PerPage:   20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 100 {
			filter.PerPage = pp
		}
	}

	if printerID := c.Query("printer_id"); printerID != "" {
		if id, err := uuid.Parse(printerID); err == nil {
			filter.PrinterID = &id
		}
	}
	if kind := c.Query("kind"); kind != "" {
		k := model.JobKind(kind)
		filter.Kind = &k
	}
	if status := c.Query("status"); status != "" {
		s := model.JobStatus(status)
		filter.Status = &s
	}
	if startDate := c.Query("start_date"); startDate != "" {
		if t, err := time.Parse(time.RFC3339, startDate); err == nil {
			filter.StartDate = &t
		}
	}
	if endDate := c.Query("end_date"); endDate != "" {
		if t, err := time.Parse(time.RFC3339, endDate); err == nil {
			filter.EndDate = &t
		}
	}

	if sortBy := c.Query("sort_by"); sortBy != "" {
		filter.SortBy = sortBy
	}
	if sortOrder := c.Query("sort_order"); sortOrder != "" {
		filter.SortOrder = sortOrder
	}

	jobs, pagination, err := h.jobService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list print jobs", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list print jobs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Jobs retrieved successfully", gin.H{
		"jobs":       jobs,
		"pagination": pagination,
	})
}

// GetJob retrieves a print job by ID
// @Summary Get print job details
// @Description Get print job details including outcome and error message
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} utils.APIResponse{data=model.PrintJob} "Job retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid job ID"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, http.StatusInternalServerError, "Job not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved successfully", job)
}
