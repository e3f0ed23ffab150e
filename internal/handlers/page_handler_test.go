package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/internal/models"
	"task-tracker/testutil"
)

func TestDashboard_ListsOwnTasksNewestFirst(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	alice := testutil.SignupAndGetCookie(t, env.Router, "Alice", "alice@example.com", "password123")
	bob := testutil.SignupAndGetCookie(t, env.Router, "Bob", "bob@example.com", "password123")

	testutil.CreateTestTask(t, env.Router, alice, map[string]any{"title": "older task"})
	testutil.CreateTestTask(t, env.Router, alice, map[string]any{"title": "newer task", "dueDate": "2030-03-15"})
	testutil.CreateTestTask(t, env.Router, bob, map[string]any{"title": "bob only"})

	w := testutil.DoJSON(t, env.Router, http.MethodGet, "/dashboard", nil, alice)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Hello, Alice")
	assert.Contains(t, body, "Due: Mar 15, 2030")
	assert.NotContains(t, body, "bob only")
	newer := strings.Index(body, "newer task")
	older := strings.Index(body, "older task")
	require.NotEqual(t, -1, newer)
	require.NotEqual(t, -1, older)
	assert.Less(t, newer, older)
}

func TestDashboard_EscapesTaskContent(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	cookie := testutil.SignupAndGetCookie(t, env.Router, "Alice", "alice@example.com", "password123")
	testutil.CreateTestTask(t, env.Router, cookie, map[string]any{"title": "<script>alert(1)</script>"})

	w := testutil.DoJSON(t, env.Router, http.MethodGet, "/dashboard", nil, cookie)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, w.Body.String(), "&lt;script&gt;")
}

func TestDashboard_LoadError(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	cookie := testutil.SignupAndGetCookie(t, env.Router, "Alice", "alice@example.com", "password123")
	env.Tasks.ListErr = errors.New("connection refused")

	w := testutil.DoJSON(t, env.Router, http.MethodGet, "/dashboard", nil, cookie)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error loading tasks")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func postDashboardForm(env *testutil.TestEnv, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

func TestDashboard_CreateTaskForm(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	cookie := testutil.SignupAndGetCookie(t, env.Router, "Alice", "alice@example.com", "password123")

	w := postDashboardForm(env, "/dashboard/tasks", url.Values{
		"title":       {"Buy milk"},
		"description": {""},
		"priority":    {"high"},
		"dueDate":     {"2030-03-15"},
	}, cookie)

	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	tasks, err := env.Tasks.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, models.StatusPending, tasks[0].Status)
	assert.Nil(t, tasks[0].Description)
	require.NotNil(t, tasks[0].DueDate)

	w = testutil.DoJSON(t, env.Router, http.MethodGet, "/dashboard", nil, cookie)
	assert.Contains(t, w.Body.String(), "Buy milk")
	assert.Contains(t, w.Body.String(), `action="/dashboard/tasks"`)
}

func TestDashboard_CreateTaskFormValidation(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	cookie := testutil.SignupAndGetCookie(t, env.Router, "Alice", "alice@example.com", "password123")

	w := postDashboardForm(env, "/dashboard/tasks", url.Values{"title": {"   "}, "priority": {"urgent"}}, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Title is required")
	assert.Contains(t, body, "Priority must be one of low, medium, high")

	tasks, err := env.Tasks.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDashboard_DeleteTaskForm(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	alice := testutil.SignupAndGetCookie(t, env.Router, "Alice", "alice@example.com", "password123")
	bob := testutil.SignupAndGetCookie(t, env.Router, "Bob", "bob@example.com", "password123")
	task := testutil.CreateTestTask(t, env.Router, alice, map[string]any{"title": "private"})

	w := postDashboardForm(env, "/dashboard/tasks/"+strconv.FormatInt(task.ID, 10)+"/delete", nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)
	_, ok := env.Tasks.Get(task.ID)
	assert.True(t, ok, "他のユーザーのタスクは削除できない")

	w = postDashboardForm(env, "/dashboard/tasks/abc/delete", nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postDashboardForm(env, "/dashboard/tasks/"+strconv.FormatInt(task.ID, 10)+"/delete", nil, alice)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	_, ok = env.Tasks.Get(task.ID)
	assert.False(t, ok)
}

func TestDashboard_FormsRequireSession(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	w := postDashboardForm(env, "/dashboard/tasks", url.Values{"title": {"x"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	tasks, err := env.Tasks.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
