// Package testutil はハンドラーとリポジトリのテストで共有するセットアップを提供します。
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-tracker/internal/config"
	"task-tracker/internal/database"
	"task-tracker/internal/handlers"
	"task-tracker/internal/models"
	"task-tracker/internal/routes"
)

// TestJWTSecret はテスト用ルーターが使う署名鍵です。
const TestJWTSecret = "test-secret"

// TestEnv はテスト用ルーターとその裏のストアです。
type TestEnv struct {
	Router   *gin.Engine
	Users    *MemoryUserStore
	Tasks    *MemoryTaskStore
	Config   *config.Config
	Registry *prometheus.Registry
}

// TestConfig はテスト用の設定を返します。
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.Auth.JWTSecret = TestJWTSecret
	return cfg
}

// SetupTestRouter はインメモリのストアを使ったテスト用のGinルーターをセットアップします。
func SetupTestRouter(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &TestEnv{
		Users:    NewMemoryUserStore(),
		Tasks:    NewMemoryTaskStore(),
		Config:   TestConfig(),
		Registry: prometheus.NewRegistry(),
	}
	r, err := routes.SetupRouter(routes.Dependencies{
		Config:   env.Config,
		Users:    env.Users,
		Tasks:    env.Tasks,
		Logger:   zap.NewNop(),
		Registry: env.Registry,
	})
	require.NoError(t, err)
	env.Router = r
	return env
}

// DoJSON はJSONボディ付きのリクエストを送ります。body が nil ならボディなしで送ります。
func DoJSON(t *testing.T, r http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		var raw []byte
		switch b := body.(type) {
		case string:
			raw = []byte(b)
		default:
			var err error
			raw, err = json.Marshal(body)
			require.NoError(t, err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// SessionCookie はレスポンスからセッションCookieを取り出します。
func SessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == handlers.SessionCookieName {
			return c
		}
	}
	return nil
}

// SignupAndGetCookie はユーザーを登録し、発行されたセッションCookieを返します。
func SignupAndGetCookie(t *testing.T, r http.Handler, name, email, password string) *http.Cookie {
	t.Helper()
	w := DoJSON(t, r, http.MethodPost, "/api/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusFound, w.Code, "サインアップに失敗しました: %s", w.Body.String())
	cookie := SessionCookie(w)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	return cookie
}

// CreateTestTask はAPI経由でタスクを作成して返します。
func CreateTestTask(t *testing.T, r http.Handler, cookie *http.Cookie, payload map[string]any) *models.Task {
	t.Helper()
	w := DoJSON(t, r, http.MethodPost, "/api/tasks", payload, cookie)
	require.Equal(t, http.StatusOK, w.Code, "タスク作成に失敗しました: %s", w.Body.String())

	var res struct {
		Success bool         `json:"success"`
		Task    *models.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.NotNil(t, res.Task)
	return res.Task
}

// TaskPath は :id を埋めたタスクのパスを返します。
func TaskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}

// SetupTestDB はテスト用のMySQLに接続し、スキーマを作成して空の状態にします。
// TEST_DB_* が設定されていなければテストをスキップします。
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	_ = godotenv.Load("../../.env")

	host := os.Getenv("TEST_DB_HOST")
	user := os.Getenv("TEST_DB_USER")
	name := os.Getenv("TEST_DB_NAME")
	if host == "" || user == "" || name == "" {
		t.Skip("TEST_DB_* が設定されていないためMySQLの統合テストをスキップします")
	}
	port := 3306
	if p := os.Getenv("TEST_DB_PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		require.NoError(t, err)
	}

	cfg := config.Default().DB
	cfg.Host = host
	cfg.Port = port
	cfg.User = user
	cfg.Password = os.Getenv("TEST_DB_PASS")
	cfg.Name = name

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.InitDB(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db))

	// テストのたびにクリーンな状態にする。外部キーがあるため tasks → users の順で削除
	_, err = db.ExecContext(ctx, "DELETE FROM tasks")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "DELETE FROM users")
	require.NoError(t, err)

	return db
}
