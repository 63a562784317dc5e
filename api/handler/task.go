package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/claritytasks/backend/api/transport"
	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/pkg/httpcontext"
	taskUC "github.com/claritytasks/backend/usecase/task"
)

type TaskHandler struct {
	baseHandler
	engine *taskUC.Engine
}

func NewTaskHandler(engine *taskUC.Engine, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}

	var status domain.TaskStatus
	if raw := string(ctx.QueryArgs().Peek("status")); raw != "" {
		parsed, err := domain.ParseStatus(raw)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		status = parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if string(ctx.QueryArgs().Peek("due")) == "today" {
		tasks, err := h.engine.ListDueToday(stdCtx, owner)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		h.respondSuccess(ctx, http.StatusOK, tasks)
		return
	}

	tasks, err := h.engine.List(stdCtx, owner, status)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.engine.Get(stdCtx, owner, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}

	in, ok := h.parseInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.engine.Create(stdCtx, owner, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Edit task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) Edit(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	in, ok := h.parseInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.engine.Edit(stdCtx, owner, id, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Mark task done
// @Tags tasks
// @Router /api/v1/tasks/{id}/done [post]
func (h *TaskHandler) MarkDone(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, func(stdCtx context.Context, owner, id string) (*domain.Task, error) {
		return h.engine.MarkDone(stdCtx, owner, id)
	})
}

// @Summary Append activity
// @Tags tasks
// @Router /api/v1/tasks/{id}/activities [post]
func (h *TaskHandler) AddActivity(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	var req transport.ActivityRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.engine.AddActivity(stdCtx, owner, id, req.Text)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Toggle pin
// @Tags tasks
// @Router /api/v1/tasks/{id}/pin [post]
func (h *TaskHandler) TogglePin(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, func(stdCtx context.Context, owner, id string) (*domain.Task, error) {
		return h.engine.TogglePin(stdCtx, owner, id)
	})
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.engine.Delete(stdCtx, owner, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Add subtask
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks [post]
func (h *TaskHandler) AddSubtask(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	var req transport.SubTaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.engine.AddSubtask(stdCtx, owner, id, req.Text)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Toggle subtask completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks/{subId}/toggle [post]
func (h *TaskHandler) ToggleSubtask(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}
	subID, _ := ctx.UserValue("subId").(string)
	if subID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.engine.ToggleSubtask(stdCtx, owner, id, subID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete subtask
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks/{subId} [delete]
func (h *TaskHandler) DeleteSubtask(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}
	subID, _ := ctx.UserValue("subId").(string)
	if subID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.engine.DeleteSubtask(stdCtx, owner, id, subID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Run overdue sweep for the authenticated owner
// @Tags tasks
// @Router /api/v1/tasks/sweep [post]
func (h *TaskHandler) Sweep(ctx *fasthttp.RequestCtx) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	flipped, err := h.engine.RunOverdueSweep(stdCtx, owner)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int{"flipped": flipped})
}

// mutate factors the shared body of single-task mutations without a payload.
func (h *TaskHandler) mutate(ctx *fasthttp.RequestCtx, op func(context.Context, string, string) (*domain.Task, error)) {
	owner := h.owner(ctx)
	if owner == "" {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := op(stdCtx, owner, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

func (h *TaskHandler) parseInput(ctx *fasthttp.RequestCtx) (taskUC.CreateInput, bool) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return taskUC.CreateInput{}, false
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		h.respondError(ctx, err)
		return taskUC.CreateInput{}, false
	}

	var due *time.Time
	if req.DueDate != "" {
		parsed, err := parseDueDate(req.DueDate)
		if err != nil {
			h.respondError(ctx, domain.ErrInvalidPayload)
			return taskUC.CreateInput{}, false
		}
		due = &parsed
	}

	return taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Links:       req.Links,
		DueDate:     due,
	}, true
}

func (h *TaskHandler) taskID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing task id", nil))
		return "", false
	}
	return id, true
}

// parseDueDate accepts both a bare calendar date and a full timestamp.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
