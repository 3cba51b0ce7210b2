package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/repo/mongodb"
)

// TasksStore is the slice of the tasks repository the task handlers need.
// Every read and write is scoped to the owner, so one user can never see
// or touch another user's tasks.
type TasksStore interface {
	Create(ctx context.Context, t task.Task) error
	GetByID(ctx context.Context, ownerID, id string) (task.Task, error)
	List(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error)
	Save(ctx context.Context, t task.Task) error
	Delete(ctx context.Context, ownerID, id string) error
}

type Tasks struct {
	store TasksStore
}

func NewTasks(store TasksStore) *Tasks {
	return &Tasks{store: store}
}

type createTaskRequest struct {
	Description string `json:"description" binding:"required"`
	Completed   bool   `json:"completed"`
}

func (h *Tasks) Create(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	var req createTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	now := time.Now().UTC()

	newTask := task.Task{
		ID:          uuid.NewString(),
		OwnerID:     current.ID,
		Description: strings.TrimSpace(req.Description),
		Completed:   req.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if newTask.Description == "" {
		RespondBadRequest(ctx, "invalid_request", "description must not be empty", nil)
		return
	}

	if err := h.store.Create(ctx.Request.Context(), newTask); err != nil {
		RespondInternal(ctx, "failed to create task")
		return
	}

	ctx.JSON(http.StatusCreated, newTask)
}

// List returns the authenticated user's tasks, optionally filtered by
// completion and paginated with limit/skip. sortBy takes the form
// "createdAt:asc" or "createdAt:desc".
func (h *Tasks) List(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	filter, err := parseListFilter(ctx)

	if err != nil {
		RespondBadRequest(ctx, "invalid_query", err.Error(), nil)
		return
	}

	tasks, err := h.store.List(ctx.Request.Context(), current.ID, filter)

	if err != nil {
		RespondInternal(ctx, "failed to list tasks")
		return
	}

	if tasks == nil {
		tasks = []task.Task{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": tasks,
		"count": len(tasks),
	})
}

func parseListFilter(ctx *gin.Context) (task.ListFilter, error) {
	var filter task.ListFilter

	if raw, set := ctx.GetQuery("completed"); set {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("completed must be true or false")
		}
		filter.Completed = &completed
	}

	if raw, set := ctx.GetQuery("limit"); set {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}

	if raw, set := ctx.GetQuery("skip"); set {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return filter, errors.New("skip must be a non-negative integer")
		}
		filter.Skip = skip
	}

	if raw, set := ctx.GetQuery("sortBy"); set {
		switch raw {
		case "createdAt:asc":
			filter.SortDesc = false
		case "createdAt:desc":
			filter.SortDesc = true
		default:
			return filter, errors.New("sortBy must be createdAt:asc or createdAt:desc")
		}
	}

	return filter, nil
}

func (h *Tasks) GetByID(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	found, err := h.store.GetByID(ctx.Request.Context(), current.ID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, mongodb.ErrTaskNotFound) {
			RespondNotFound(ctx, "task not found")
			return
		}
		RespondInternal(ctx, "failed to load task")
		return
	}

	ctx.JSON(http.StatusOK, found)
}

var updatableTaskFields = map[string]struct{}{
	"description": {},
	"completed":   {},
}

// Update applies a partial task update with the same all-or-nothing
// field check as the profile endpoint.
func (h *Tasks) Update(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	var patch map[string]json.RawMessage

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		RespondBadRequest(ctx, "invalid_request", "Invalid request body", parseBindError(err))
		return
	}

	if len(patch) == 0 {
		RespondBadRequest(ctx, "invalid_updates", "No updates provided", nil)
		return
	}

	var unknown []string

	for key := range patch {
		if _, allowed := updatableTaskFields[key]; !allowed {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		RespondBadRequest(ctx, "invalid_updates", "Invalid updates!", gin.H{"fields": unknown})
		return
	}

	found, err := h.store.GetByID(ctx.Request.Context(), current.ID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, mongodb.ErrTaskNotFound) {
			RespondNotFound(ctx, "task not found")
			return
		}
		RespondInternal(ctx, "failed to load task")
		return
	}

	if raw, set := patch["description"]; set {
		var description string
		if err := json.Unmarshal(raw, &description); err != nil || strings.TrimSpace(description) == "" {
			RespondBadRequest(ctx, "invalid_updates", "description must be a non-empty string", nil)
			return
		}
		found.Description = strings.TrimSpace(description)
	}

	if raw, set := patch["completed"]; set {
		var completed bool
		if err := json.Unmarshal(raw, &completed); err != nil {
			RespondBadRequest(ctx, "invalid_updates", "completed must be a boolean", nil)
			return
		}
		found.Completed = completed
	}

	found.UpdatedAt = time.Now().UTC()

	if err := h.store.Save(ctx.Request.Context(), found); err != nil {
		if errors.Is(err, mongodb.ErrTaskNotFound) {
			RespondNotFound(ctx, "task not found")
			return
		}
		RespondInternal(ctx, "failed to update task")
		return
	}

	ctx.JSON(http.StatusOK, found)
}

func (h *Tasks) Delete(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	found, err := h.store.GetByID(ctx.Request.Context(), current.ID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, mongodb.ErrTaskNotFound) {
			RespondNotFound(ctx, "task not found")
			return
		}
		RespondInternal(ctx, "failed to delete task")
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), current.ID, found.ID); err != nil {
		if errors.Is(err, mongodb.ErrTaskNotFound) {
			RespondNotFound(ctx, "task not found")
			return
		}
		RespondInternal(ctx, "failed to delete task")
		return
	}

	// echo the removed task back, same as a successful GET would have
	ctx.JSON(http.StatusOK, found)
}
