package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/middleware"
	"github.com/noah-isme/healthconnect-api/internal/service"
	"github.com/noah-isme/healthconnect-api/pkg/response"
)

type reportService interface {
	Summary(ctx context.Context) (*dto.AppointmentStats, bool, error)
	Export(ctx context.Context, format string) (*service.ExportFile, error)
}

// ReportHandler serves the admin dashboard statistics and exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Stats godoc
// @Summary Appointment statistics
// @Description Totals by status, consultation type and time slot with nurse workload. meta.cache_hit tells whether the result came from cache.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /appointments/stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	stats, hit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export appointments
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /appointments/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}
