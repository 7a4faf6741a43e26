package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/middleware"
	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	"github.com/mhofstetter/schulplan-api/internal/service"
)

type enrollmentRepoMock struct {
	entries   []models.TimetableEntry
	available []models.LessonInfo
	enrollErr error
	created   bool
}

func (m *enrollmentRepoMock) ListEntries(ctx context.Context, userID int64) ([]models.TimetableEntry, error) {
	return m.entries, nil
}

func (m *enrollmentRepoMock) ListAvailable(ctx context.Context, userID int64) ([]models.LessonInfo, error) {
	return m.available, nil
}

func (m *enrollmentRepoMock) Enroll(ctx context.Context, userID, lessonID int64) (bool, error) {
	if m.enrollErr != nil {
		return false, m.enrollErr
	}
	return m.created, nil
}

func (m *enrollmentRepoMock) Repoint(ctx context.Context, enrollmentID, userID, lessonID int64) error {
	return nil
}

func (m *enrollmentRepoMock) DeleteOwned(ctx context.Context, enrollmentID, userID int64) error {
	return nil
}

func newTimetableHandler(repo *enrollmentRepoMock) *TimetableHandler {
	return NewTimetableHandler(service.NewTimetableService(repo, zap.NewNop()))
}

func studentContext(t *testing.T, w *httptest.ResponseRecorder) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.User{ID: 7, Username: "anna", Role: models.RoleStudent})
	return c
}

func TestTimetableHandlerWeek(t *testing.T) {
	repo := &enrollmentRepoMock{entries: []models.TimetableEntry{
		{EnrollmentID: 1, Subject: "Mathe", Weekday: models.Montag, StartTime: "08:00", EndTime: "08:45"},
	}}
	handler := newTimetableHandler(repo)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable", nil)
	c.Request = req

	handler.Week(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.DaySchedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 5)
	assert.Equal(t, "Montag", envelope.Data[0].Label)
	assert.Len(t, envelope.Data[0].Entries, 1)
}

func TestTimetableHandlerEnrollConflictCarriesAvailable(t *testing.T) {
	repo := &enrollmentRepoMock{
		enrollErr: repository.ErrSlotTaken,
		available: []models.LessonInfo{
			{ID: 9, Subject: "Physik", Weekday: models.Dienstag, StartTime: "09:00", EndTime: "09:45"},
		},
	}
	handler := newTimetableHandler(repo)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	body, _ := json.Marshal(map[string]int64{"lesson_id": 4})
	req, _ := http.NewRequest(http.MethodPost, "/timetable", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Enroll(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Data struct {
			Available []models.LessonInfo `json:"available"`
		} `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "TIMESLOT_CONFLICT", envelope.Error.Code)
	require.Len(t, envelope.Data.Available, 1)
	assert.Equal(t, "Physik", envelope.Data.Available[0].Subject)
}

func TestTimetableHandlerEnrollInvalidBody(t *testing.T) {
	handler := newTimetableHandler(&enrollmentRepoMock{})

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Enroll(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerDeleteInvalidID(t *testing.T) {
	handler := newTimetableHandler(&enrollmentRepoMock{})

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodDelete, "/timetable/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Delete(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerExportPDF(t *testing.T) {
	handler := newTimetableHandler(&enrollmentRepoMock{})

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/export.pdf", nil)
	c.Request = req

	handler.ExportPDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "stundenplan.pdf")
	assert.Equal(t, "%PDF", w.Body.String()[:4])
}
