package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-tracker/internal/metrics"
	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
	"task-tracker/internal/services"
)

// TaskHandler はタスク関連のAPIハンドラーを管理します。
// 所有者は常に認証ゲートが設定したユーザーから決まり、リクエストボディからは受け取りません。
type TaskHandler struct {
	taskService *services.TaskService
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewTaskHandler は新しいTaskHandlerを作成します。
func NewTaskHandler(taskService *services.TaskService, m *metrics.Metrics, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, metrics: m, logger: logger}
}

// CreateTaskHandler は新しいタスクを作成します。
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		RespondUnauthenticated(c)
		return
	}

	var in models.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.metrics.TaskOperation("create", "invalid")
		respondError(c, http.StatusBadRequest, "Invalid request payload", bindingFieldErrors(err))
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), user.ID, in)
	if err != nil {
		h.handleError(c, "create", err)
		return
	}
	h.metrics.TaskOperation("create", "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

// GetTasksHandler は認証されたユーザーのタスクを新しい順に返します。
func (h *TaskHandler) GetTasksHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		RespondUnauthenticated(c)
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), user.ID)
	if err != nil {
		h.handleError(c, "list", err)
		return
	}
	h.metrics.TaskOperation("list", "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "tasks": tasks})
}

// UpdateTaskHandler はタスクを部分更新します。
func (h *TaskHandler) UpdateTaskHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		RespondUnauthenticated(c)
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		h.metrics.TaskOperation("update", "not_found")
		respondError(c, http.StatusNotFound, "Task not found", nil)
		return
	}

	var in models.TaskInput
	// 空のボディは「変更なし」として扱う
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		h.metrics.TaskOperation("update", "invalid")
		respondError(c, http.StatusBadRequest, "Invalid request payload", bindingFieldErrors(err))
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), user.ID, taskID, in)
	if err != nil {
		h.handleError(c, "update", err)
		return
	}
	h.metrics.TaskOperation("update", "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

// DeleteTaskHandler はタスクを削除します。
func (h *TaskHandler) DeleteTaskHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		RespondUnauthenticated(c)
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		h.metrics.TaskOperation("delete", "not_found")
		respondError(c, http.StatusNotFound, "Task not found", nil)
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), user.ID, taskID); err != nil {
		h.handleError(c, "delete", err)
		return
	}
	h.metrics.TaskOperation("delete", "success")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted successfully"})
}

// parseTaskID は :id を解析します。数値でないIDは存在しないタスクと同じ扱いにします。
func parseTaskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) handleError(c *gin.Context, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		h.metrics.TaskOperation(op, "invalid")
		respondError(c, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, repositories.ErrTaskNotFound):
		h.metrics.TaskOperation(op, "not_found")
		respondError(c, http.StatusNotFound, "Task not found", nil)
	default:
		h.metrics.TaskOperation(op, "error")
		RequestLogger(c, h.logger).Error("task operation failed", zap.String("operation", op), zap.Error(err))
		respondServerError(c)
	}
}
