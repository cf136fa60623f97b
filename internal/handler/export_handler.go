package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siakad-dosen-api/internal/dto"
	"github.com/noah-isme/siakad-dosen-api/internal/models"
	"github.com/noah-isme/siakad-dosen-api/internal/service"
	appErrors "github.com/noah-isme/siakad-dosen-api/pkg/errors"
	"github.com/noah-isme/siakad-dosen-api/pkg/response"
)

// ExportHandler exposes the asynchronous roster export endpoints.
type ExportHandler struct {
	exports   *service.RosterExportService
	lecturers lecturerFinder
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports *service.RosterExportService, lecturers lecturerFinder) *ExportHandler {
	return &ExportHandler{exports: exports, lecturers: lecturers}
}

// CreateJob godoc
// @Summary Start an advisee roster export
// @Tags Export
// @Accept json
// @Produce json
// @Param request body dto.ExportJobRequest false "Export options"
// @Success 202 {object} response.Envelope
// @Router /dashboard/dosen/mahasiswa/export-jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	lecturer, ok := h.currentLecturer(c)
	if !ok {
		return
	}

	var req dto.ExportJobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export request"))
			return
		}
	}

	job, err := h.exports.CreateJob(c.Request.Context(), lecturer, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// JobStatus godoc
// @Summary Poll an export job
// @Tags Export
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard/dosen/mahasiswa/export-jobs/{id} [get]
func (h *ExportHandler) JobStatus(c *gin.Context) {
	lecturer, ok := h.currentLecturer(c)
	if !ok {
		return
	}

	status, err := h.exports.Status(c.Param("id"), lecturer.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Export
// @Produce text/csv
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /dashboard/dosen/mahasiswa/export-jobs/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	result, err := h.exports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	mime := "text/csv"
	if result.Format == "pdf" {
		mime = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.DataFromReader(http.StatusOK, info.Size(), mime, result.File, nil)
}

func (h *ExportHandler) currentLecturer(c *gin.Context) (*models.Lecturer, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	if claims.Role != models.RoleDosen {
		response.Error(c, appErrors.ErrForbidden)
		return nil, false
	}

	lecturer, err := h.lecturers.FindByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if lecturer == nil {
		response.Error(c, appErrors.ErrLecturerNotFound)
		return nil, false
	}
	return lecturer, true
}
