// internal/handler/discovery_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// DiscoveryHandler handles printer discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discovery := router.Group("/discovery")
	{
		discovery.GET("/scan", h.Scan)
		discovery.GET("/scanners", h.ListScanners)
	}
}

// Scan scans for candidate printers
// @Summary Scan for printers
// @Description Scan USB and serial buses for candidate printers. TCP printers do not announce themselves, so they are only probed when named as targets.
// @Tags Discovery
// @Accept json
// @Produce json
// @Param type query string false "Scan type" Enums(all, usb, serial, tcp) default(all)
// @Param target query []string false "TCP host:port targets to probe" collectionFormat(multi)
// @Success 200 {object} utils.APIResponse{data=object{candidates_found=int,candidates=[]discovery.Candidate}} "Scan completed"
// @Failure 400 {object} utils.APIResponse "Invalid scan request"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) Scan(c *gin.Context) {
	req := &service.ScanRequest{
		ScanType:   c.DefaultQuery("type", "all"),
		TCPTargets: c.QueryArray("target"),
	}

	candidates, err := h.discoveryService.Scan(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to scan for printers", zap.Error(err))
		respondServiceError(c, http.StatusInternalServerError, "Failed to scan for printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scan completed", gin.H{
		"candidates_found": len(candidates),
		"candidates":       candidates,
	})
}

// ListScanners returns the available scanner types
// @Summary List available scanners
// @Description Get the bus scanner types registered on this host
// @Tags Discovery
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{scanners=[]string}} "Scanners retrieved"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) ListScanners(c *gin.Context) {
	scanners := h.discoveryService.AvailableScanners()
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved", gin.H{
		"scanners": scanners,
	})
}
