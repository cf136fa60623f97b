package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/siakad-dosen-api/internal/dto"
	"github.com/noah-isme/siakad-dosen-api/internal/models"
	"github.com/noah-isme/siakad-dosen-api/internal/service"
	appErrors "github.com/noah-isme/siakad-dosen-api/pkg/errors"
	"github.com/noah-isme/siakad-dosen-api/pkg/export"
	"github.com/noah-isme/siakad-dosen-api/pkg/response"
)

// SimakTokenHeader carries the optional bearer credential forwarded to SIMAK.
const SimakTokenHeader = "X-Simak-Token"

type dashboardBuilder interface {
	Build(ctx context.Context, lecturer *models.Lecturer, token string) (*dto.LecturerDashboard, bool, error)
}

type lecturerFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.Lecturer, error)
}

type adviseeLister interface {
	ListByAdvisor(ctx context.Context, lecturerID string) ([]models.Student, error)
}

// DashboardHandler exposes the lecturer dashboard endpoints. It is the single
// place where the degrade-instead-of-fail policy becomes visible: whatever
// breaks inside reconciliation or aggregation, the caller gets a well-formed
// 200 payload.
type DashboardHandler struct {
	service   dashboardBuilder
	lecturers lecturerFinder
	advisees  adviseeLister
	metrics   *service.MetricsService
	logger    *zap.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(svc dashboardBuilder, lecturers lecturerFinder, advisees adviseeLister, metrics *service.MetricsService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{service: svc, lecturers: lecturers, advisees: advisees, metrics: metrics, logger: logger}
}

// Show godoc
// @Summary Lecturer dashboard
// @Tags Dashboard
// @Produce json
// @Param X-Simak-Token header string false "SIMAK bearer credential for opportunistic sync"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/dosen [get]
func (h *DashboardHandler) Show(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleDosen {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	lecturer, err := h.lecturers.FindByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.degraded(c, nil, err)
		return
	}
	if lecturer == nil {
		response.Error(c, appErrors.ErrLecturerNotFound)
		return
	}

	token := strings.TrimSpace(c.GetHeader(SimakTokenHeader))

	payload, cacheHit, err := h.buildSafely(c.Request.Context(), lecturer, token)
	if err != nil {
		h.degraded(c, lecturer, err)
		return
	}

	meta := map[string]interface{}{"cache_hit": cacheHit}
	response.JSON(c, http.StatusOK, payload, nil, meta)
}

// buildSafely invokes the aggregator and converts a panic anywhere below it
// into an error, so the degraded path above stays the only failure exit.
func (h *DashboardHandler) buildSafely(ctx context.Context, lecturer *models.Lecturer, token string) (payload *dto.LecturerDashboard, cacheHit bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			cacheHit = false
			err = fmt.Errorf("dashboard build panicked: %v", r)
		}
	}()
	return h.service.Build(ctx, lecturer, token)
}

// degraded serves the all-defaults payload with diagnostics attached. The
// HTTP status stays 200: a defaulted dashboard is more useful to the portal
// than an error page.
func (h *DashboardHandler) degraded(c *gin.Context, lecturer *models.Lecturer, cause error) {
	if h.metrics != nil {
		h.metrics.RecordDegradedDashboard()
	}
	h.logger.Error("dashboard pipeline failed, serving degraded payload", zap.Error(cause))

	payload := service.DefaultDashboard(lecturer, "Gagal memuat data dashboard")
	response.JSON(c, http.StatusOK, payload, nil)
}

// ExportAdvisees godoc
// @Summary Export the lecturer's advisee roster
// @Tags Dashboard
// @Produce text/csv
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /dashboard/dosen/mahasiswa/export [get]
func (h *DashboardHandler) ExportAdvisees(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleDosen {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	lecturer, err := h.lecturers.FindByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if lecturer == nil {
		response.Error(c, appErrors.ErrLecturerNotFound)
		return
	}

	students, err := h.advisees.ListByAdvisor(c.Request.Context(), lecturer.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := service.RosterDataset(students)
	filename := fmt.Sprintf("mahasiswa-bimbingan-%s", time.Now().UTC().Format("20060102"))

	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "pdf":
		payload, err := export.NewPDFExporter().Render(dataset, "Daftar Mahasiswa Bimbingan")
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	case "csv":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
