package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhofstetter/schulplan-api/internal/middleware"
	"github.com/mhofstetter/schulplan-api/internal/service"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/response"
)

// TimetableHandler manages a student's weekly schedule endpoints.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

type enrollRequest struct {
	LessonID int64 `json:"lesson_id" binding:"required"`
}

// Week godoc
// @Summary The student's weekly timetable
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Security SessionToken
// @Router /timetable [get]
func (h *TimetableHandler) Week(c *gin.Context) {
	user := middleware.User(c)
	days, err := h.service.Week(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days)
}

// Available godoc
// @Summary Lessons the student has not yet joined
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Security SessionToken
// @Router /timetable/available [get]
func (h *TimetableHandler) Available(c *gin.Context) {
	user := middleware.User(c)
	lessons, err := h.service.Available(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons)
}

// Enroll godoc
// @Summary Join a lesson
// @Description A slot conflict returns 409 together with the still-available
// @Description lessons, so the submission form keeps its context.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body enrollRequest true "Lesson reference"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security SessionToken
// @Router /timetable [post]
func (h *TimetableHandler) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user := middleware.User(c)
	result, err := h.service.Enroll(c.Request.Context(), user.ID, req.LessonID)
	if err != nil {
		h.respondConflictWithAvailable(c, user.ID, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Edit godoc
// @Summary Re-point an enrollment to a different lesson
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param payload body enrollRequest true "Lesson reference"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security SessionToken
// @Router /timetable/{id} [put]
func (h *TimetableHandler) Edit(c *gin.Context) {
	enrollmentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user := middleware.User(c)
	if err := h.service.Edit(c.Request.Context(), user.ID, enrollmentID, req.LessonID); err != nil {
		h.respondConflictWithAvailable(c, user.ID, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Remove an enrollment
// @Tags Timetable
// @Param id path int true "Enrollment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security SessionToken
// @Router /timetable/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	enrollmentID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	user := middleware.User(c)
	if err := h.service.Delete(c.Request.Context(), user.ID, enrollmentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportPDF godoc
// @Summary Download the weekly timetable as PDF
// @Tags Timetable
// @Produce application/pdf
// @Success 200
// @Security SessionToken
// @Router /timetable/export.pdf [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	user := middleware.User(c)
	data, err := h.service.WeekPDF(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="stundenplan.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// respondConflictWithAvailable attaches the not-yet-joined lessons to slot
// conflicts so a rejected submission keeps the list the caller was picking from.
func (h *TimetableHandler) respondConflictWithAvailable(c *gin.Context, userID int64, err error) {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code == appErrors.ErrTimeslotConflict.Code {
		available, availErr := h.service.Available(c.Request.Context(), userID)
		if availErr == nil {
			response.ErrorWithData(c, err, gin.H{"available": available})
			return
		}
	}
	response.Error(c, err)
}
