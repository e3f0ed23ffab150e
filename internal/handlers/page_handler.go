package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
	"task-tracker/internal/services"
)

// PageHandler はサーバーサイドで描画する画面を管理します。
type PageHandler struct {
	taskService *services.TaskService
	logger      *zap.Logger
}

// NewPageHandler は新しいPageHandlerを作成します。
func NewPageHandler(taskService *services.TaskService, logger *zap.Logger) *PageHandler {
	return &PageHandler{taskService: taskService, logger: logger}
}

// RootHandler はログイン画面へリダイレクトします。
func (h *PageHandler) RootHandler(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login")
}

// LoginPageHandler はログイン画面を表示します。
func (h *PageHandler) LoginPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"title": "Login"})
}

// SignupPageHandler はサインアップ画面を表示します。
func (h *PageHandler) SignupPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{"title": "Sign Up"})
}

// DashboardHandler はログインユーザーのタスク一覧を表示します。
func (h *PageHandler) DashboardHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	h.renderDashboard(c, http.StatusOK, user, nil, nil)
}

// CreateTaskFormHandler はダッシュボードのフォームからタスクを作成します。
// 空欄の任意項目は省略として扱います。
func (h *PageHandler) CreateTaskFormHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	in := models.TaskInput{Title: models.Some(c.PostForm("title"))}
	if v := strings.TrimSpace(c.PostForm("description")); v != "" {
		in.Description = models.Some(v)
	}
	if v := c.PostForm("status"); v != "" {
		in.Status = models.Some(v)
	}
	if v := c.PostForm("priority"); v != "" {
		in.Priority = models.Some(v)
	}
	if v := c.PostForm("dueDate"); v != "" {
		in.DueDate = models.Some(v)
	}

	if _, err := h.taskService.Create(c.Request.Context(), user.ID, in); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			h.renderDashboard(c, http.StatusBadRequest, user, verr.Fields, gin.H{"title": c.PostForm("title")})
			return
		}
		RequestLogger(c, h.logger).Error("failed to create task from form", zap.Error(err), zap.Int64("user_id", user.ID))
		h.renderDashboard(c, http.StatusInternalServerError, user, []services.FieldError{{Message: "Server error. Please try again."}}, nil)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// DeleteTaskFormHandler はダッシュボードのフォームからタスクを削除します。
func (h *PageHandler) DeleteTaskFormHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	taskID, ok := parseTaskID(c)
	if !ok {
		h.renderDashboard(c, http.StatusNotFound, user, []services.FieldError{{Message: "Task not found"}}, nil)
		return
	}
	if err := h.taskService.Delete(c.Request.Context(), user.ID, taskID); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			h.renderDashboard(c, http.StatusNotFound, user, []services.FieldError{{Message: "Task not found"}}, nil)
			return
		}
		RequestLogger(c, h.logger).Error("failed to delete task from form", zap.Error(err), zap.Int64("user_id", user.ID))
		h.renderDashboard(c, http.StatusInternalServerError, user, []services.FieldError{{Message: "Server error. Please try again."}}, nil)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *PageHandler) renderDashboard(c *gin.Context, status int, user *models.User, errs []services.FieldError, formData gin.H) {
	data := gin.H{
		"title":    "Dashboard",
		"user":     user,
		"errors":   errs,
		"formData": formData,
	}

	tasks, err := h.taskService.List(c.Request.Context(), user.ID)
	if err != nil {
		RequestLogger(c, h.logger).Error("failed to load dashboard tasks", zap.Error(err), zap.Int64("user_id", user.ID))
		data["tasks"] = []*models.Task{}
		data["error"] = "Error loading tasks"
		c.HTML(http.StatusInternalServerError, "dashboard.html", data)
		return
	}
	data["tasks"] = tasks
	c.HTML(status, "dashboard.html", data)
}
