package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhofstetter/schulplan-api/internal/middleware"
	"github.com/mhofstetter/schulplan-api/internal/service"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/response"
)

// GradeHandler serves the weighted grade sheet.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Load godoc
// @Summary Grade sheet across all joined subjects
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Security SessionToken
// @Router /grades [get]
func (h *GradeHandler) Load(c *gin.Context) {
	user := middleware.User(c)
	sheet, err := h.service.Load(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet)
}

// Save godoc
// @Summary Replace weight and exams for one subject
// @Tags Grades
// @Accept json
// @Produce json
// @Param subject path string true "Subject name"
// @Param payload body service.SaveGradesRequest true "Weight and exams"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Security SessionToken
// @Router /grades/{subject} [put]
func (h *GradeHandler) Save(c *gin.Context) {
	subject := c.Param("subject")
	var req service.SaveGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user := middleware.User(c)
	if err := h.service.Save(c.Request.Context(), user.ID, subject, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Download the grade sheet as CSV
// @Tags Grades
// @Produce text/csv
// @Success 200
// @Security SessionToken
// @Router /grades/export.csv [get]
func (h *GradeHandler) ExportCSV(c *gin.Context) {
	user := middleware.User(c)
	data, err := h.service.SheetCSV(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="pluspunkte.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
