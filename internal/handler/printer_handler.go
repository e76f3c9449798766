// internal/handler/printer_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrinterHandler handles printer management HTTP requests
type PrinterHandler struct {
	printerService *service.PrinterService
	jobService     *service.JobService
	logger         *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService, jobService *service.JobService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		jobService:     jobService,
		logger:         utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer management routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers")
	{
		printers.POST("", h.RegisterPrinter)
		printers.GET("", h.ListPrinters)
		printers.GET("/stats", h.GetStats)

		printerRoutes := printers.Group("/:id")
		{
			printerRoutes.GET("", h.GetPrinter)
			printerRoutes.PUT("", h.UpdatePrinter)
			printerRoutes.DELETE("", h.DeletePrinter)
			printerRoutes.POST("/connect", h.ConnectPrinter)
			printerRoutes.POST("/disconnect", h.DisconnectPrinter)
			printerRoutes.POST("/test", h.TestPrinter)
			printerRoutes.GET("/status", h.QueryStatus)
			printerRoutes.GET("/status/history", h.StatusHistory)
			printerRoutes.GET("/jobs", h.ListPrinterJobs)
		}
	}
}

// RegisterPrinter registers a new printer
// @Summary Register a new printer
// @Description Register a printer with its dialect, connection settings and text encoding
// @Tags Printers
// @Accept json
// @Produce json
// @Param request body service.RegisterPrinterRequest true "Printer registration request"
// @Success 201 {object} utils.APIResponse{data=model.Printer} "Printer registered successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Printer name already taken"
// @Router /printers [post]
func (h *PrinterHandler) RegisterPrinter(c *gin.Context) {
	var req service.RegisterPrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	printer, err := h.printerService.RegisterPrinter(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to register printer", zap.Error(err))
		respondServiceError(c, http.StatusInternalServerError, "Failed to register printer", err)
		return
	}

	h.logger.Info("Printer registered",
		zap.String("printer_id", printer.ID.String()),
		zap.String("name", printer.Name),
	)
	utils.SuccessResponse(c, http.StatusCreated, "Printer registered successfully", printer)
}

// ListPrinters lists printers with filtering and pagination
// @Summary List printers
// @Description Get registered printers with filtering and pagination support
// @Tags Printers
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param dialect query string false "Filter by dialect" Enums(snbc, p3, epic)
// @Param connection_type query string false "Filter by connection type" Enums(SERIAL, USB, TCP)
// @Param status query string false "Filter by status" Enums(ONLINE, OFFLINE, ERROR, CONNECTING)
// @Param search query string false "Search by name, model or serial number"
// @Param sort_by query string false "Sort by field" default(created_at)
// @Param sort_order query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} utils.APIResponse{data=object{printers=[]model.Printer,pagination=service.PaginationResult}} "Printers retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /printers [get]
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	filter := &service.PrinterFilter{
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

	if dialect := c.Query("dialect"); dialect != "" {
		filter.Dialect = &dialect
	}
	if connectionType := c.Query("connection_type"); connectionType != "" {
		ct := model.ConnectionType(connectionType)
		filter.ConnectionType = &ct
	}
	if status := c.Query("status"); status != "" {
		s := model.PrinterStatus(status)
		filter.Status = &s
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}

	if sortBy := c.Query("sort_by"); sortBy != "" {
		filter.SortBy = sortBy
	}
	if sortOrder := c.Query("sort_order"); sortOrder != "" {
		filter.SortOrder = sortOrder
	}

	printers, pagination, err := h.printerService.ListPrinters(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list printers", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printers retrieved successfully", gin.H{
		"printers":   printers,
		"pagination": pagination,
	})
}

// GetStats returns fleet statistics
// @Summary Get fleet statistics
// @Description Get printer counts grouped by status, dialect and connection type
// @Tags Printers
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=repository.PrinterStats} "Statistics retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /printers/stats [get]
func (h *PrinterHandler) GetStats(c *gin.Context) {
	stats, err := h.printerService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get printer stats", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get printer stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

// GetPrinter retrieves printer by ID
// @Summary Get printer details
// @Description Get printer details and current status by printer ID
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse{data=model.Printer} "Printer retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid printer ID"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{id} [get]
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	printer, err := h.printerService.GetPrinter(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, http.StatusInternalServerError, "Printer not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer retrieved successfully", printer)
}

// UpdatePrinter handles partial printer updates
func (h *PrinterHandler) UpdatePrinter(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	var req service.UpdatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	printer, err := h.printerService.UpdatePrinter(c.Request.Context(), id, &req)
	if err != nil {
		h.logger.Error("Failed to update printer", zap.Error(err), zap.String("printer_id", id.String()))
		respondServiceError(c, http.StatusInternalServerError, "Failed to update printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer updated successfully", printer)
}

// DeletePrinter handles printer deletion
func (h *PrinterHandler) DeletePrinter(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	if err := h.printerService.DeletePrinter(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete printer", zap.Error(err), zap.String("printer_id", id.String()))
		respondServiceError(c, http.StatusInternalServerError, "Failed to delete printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer deleted successfully", gin.H{"printer_id": id})
}

// ConnectPrinter opens a session to the printer
// @Summary Connect to printer
// @Description Open the transport and initialize the printer for printing
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse "Printer connected successfully"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 409 {object} utils.APIResponse "Printer already connected"
// @Failure 424 {object} utils.APIResponse "Connection failed"
// @Router /printers/{id}/connect [post]
func (h *PrinterHandler) ConnectPrinter(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	if err := h.printerService.ConnectPrinter(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to connect printer", zap.Error(err), zap.String("printer_id", id.String()))
		respondServiceError(c, http.StatusFailedDependency, "Failed to connect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer connected successfully", gin.H{"printer_id": id})
}

// DisconnectPrinter closes the printer session
// @Summary Disconnect printer
// @Description Close the open session and release the transport
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse "Printer disconnected successfully"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 424 {object} utils.APIResponse "Printer not connected"
// @Router /printers/{id}/disconnect [post]
func (h *PrinterHandler) DisconnectPrinter(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	if err := h.printerService.DisconnectPrinter(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to disconnect printer", zap.Error(err), zap.String("printer_id", id.String()))
		respondServiceError(c, http.StatusFailedDependency, "Failed to disconnect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer disconnected successfully", gin.H{"printer_id": id})
}

// TestPrinter prints a connectivity test page
// @Summary Test printer
// @Description Print a short test page to verify the connection
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse{data=service.TestResult} "Test completed"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 424 {object} utils.APIResponse "Printer not connected"
// @Router /printers/{id}/test [post]
func (h *PrinterHandler) TestPrinter(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	result, err := h.printerService.TestPrint(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to test printer", zap.Error(err), zap.String("printer_id", id.String()))
		respondServiceError(c, http.StatusFailedDependency, "Failed to test printer", err)
		return
	}

	message := "Test page printed"
	if !result.Success {
		message = "Test print failed"
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}

// QueryStatus polls the printer hardware status
// @Summary Query printer status
// @Description Poll the printer for its hardware status flags
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Success 200 {object} utils.APIResponse{data=service.StatusResult} "Status retrieved successfully"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Failure 424 {object} utils.APIResponse "Printer not connected"
// @Router /printers/{id}/status [get]
func (h *PrinterHandler) QueryStatus(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	result, err := h.printerService.QueryStatus(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to query printer status", zap.Error(err), zap.String("printer_id", id.String()))
		respondServiceError(c, http.StatusFailedDependency, "Failed to query printer status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Status retrieved successfully", result)
}

// StatusHistory lists recorded status snapshots
// @Summary Get status history
// @Description Get recorded status snapshots for the printer, newest first
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} utils.APIResponse{data=utils.ListData} "Status history retrieved successfully"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{id}/status/history [get]
func (h *PrinterHandler) StatusHistory(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	logs, err := h.printerService.StatusHistory(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error("Failed to get status history", zap.Error(err), zap.String("printer_id", id.String()))
		respondServiceError(c, http.StatusInternalServerError, "Failed to get status history", err)
		return
	}

	utils.ListResponse(c, "Status history retrieved successfully", logs, len(logs))
}

// ListPrinterJobs lists the printer's most recent jobs
// @Summary List printer jobs
// @Description Get the most recent print jobs of one printer
// @Tags Printers
// @Accept json
// @Produce json
// @Param id path string true "Printer ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} utils.APIResponse{data=utils.ListData} "Jobs retrieved successfully"
// @Failure 400 {object} utils.APIResponse "Invalid printer ID"
// @Router /printers/{id}/jobs [get]
func (h *PrinterHandler) ListPrinterJobs(c *gin.Context) {
	id, ok := printerID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	jobs, err := h.jobService.ListPrinterJobs(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error("Failed to list printer jobs", zap.Error(err), zap.String("printer_id", id.String()))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list printer jobs", err)
		return
	}

	utils.ListResponse(c, "Jobs retrieved successfully", jobs, len(jobs))
}

// printerID parses the :id route parameter, responding 400 on garbage
func printerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid printer ID", err)
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service errors onto HTTP statuses. Errors
// outside the sentinel set use the caller's fallback, which lets wire
// operations report 424 while plain CRUD stays 500.
func respondServiceError(c *gin.Context, fallback int, message string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, message, err)
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, service.ErrConnected):
		utils.ErrorResponse(c, http.StatusConflict, message, err)
	case errors.Is(err, service.ErrNotConnected):
		utils.ErrorResponse(c, http.StatusFailedDependency, message, err)
	default:
		utils.ErrorResponse(c, fallback, message, err)
	}
}
