package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhofstetter/schulplan-api/internal/middleware"
	"github.com/mhofstetter/schulplan-api/internal/service"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/response"
)

// TodoHandler serves the per-user to-do list.
type TodoHandler struct {
	service *service.TodoService
}

// NewTodoHandler constructs handler.
func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{service: svc}
}

// List godoc
// @Summary The user's to-dos, open items first
// @Tags Todos
// @Produce json
// @Success 200 {object} response.Envelope
// @Security SessionToken
// @Router /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	user := middleware.User(c)
	todos, err := h.service.List(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, todos)
}

// Create godoc
// @Summary Add a to-do
// @Tags Todos
// @Accept json
// @Produce json
// @Param payload body service.CreateTodoRequest true "Title and optional due date"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security SessionToken
// @Router /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req service.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user := middleware.User(c)
	todo, err := h.service.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, todo)
}

// Toggle godoc
// @Summary Flip a to-do between open and done
// @Tags Todos
// @Produce json
// @Param id path int true "Todo ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security SessionToken
// @Router /todos/{id}/toggle [post]
func (h *TodoHandler) Toggle(c *gin.Context) {
	todoID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	user := middleware.User(c)
	todo, svcErr := h.service.Toggle(c.Request.Context(), user.ID, todoID)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.JSON(c, http.StatusOK, todo)
}

// Delete godoc
// @Summary Remove a to-do
// @Tags Todos
// @Param id path int true "Todo ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security SessionToken
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	todoID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	user := middleware.User(c)
	if err := h.service.Delete(c.Request.Context(), user.ID, todoID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
