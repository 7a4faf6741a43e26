package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mhofstetter/schulplan-api/internal/middleware"
	"github.com/mhofstetter/schulplan-api/internal/service"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/response"
)

// LessonHandler manages teacher-authored lesson endpoints.
type LessonHandler struct {
	service *service.LessonService
}

// NewLessonHandler constructs handler.
func NewLessonHandler(svc *service.LessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// Week godoc
// @Summary The teacher's weekly lesson offerings
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Security SessionToken
// @Router /lessons/mine [get]
func (h *LessonHandler) Week(c *gin.Context) {
	user := middleware.User(c)
	days, err := h.service.Week(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days)
}

// Create godoc
// @Summary Create a lesson offering
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.LessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security SessionToken
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req service.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user := middleware.User(c)
	lesson, err := h.service.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Update godoc
// @Summary Edit an owned lesson offering
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body service.LessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security SessionToken
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	lessonID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user := middleware.User(c)
	lesson, err := h.service.Update(c.Request.Context(), user.ID, lessonID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// Delete godoc
// @Summary Delete an owned lesson and its enrollments
// @Tags Lessons
// @Param id path int true "Lesson ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security SessionToken
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	lessonID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	user := middleware.User(c)
	if err := h.service.Delete(c.Request.Context(), user.ID, lessonID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportPDF godoc
// @Summary Download the weekly offerings as PDF
// @Tags Lessons
// @Produce application/pdf
// @Success 200
// @Security SessionToken
// @Router /lessons/mine/export.pdf [get]
func (h *LessonHandler) ExportPDF(c *gin.Context) {
	user := middleware.User(c)
	data, err := h.service.WeekPDF(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="wochenplan.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id")
	}
	return id, nil
}
