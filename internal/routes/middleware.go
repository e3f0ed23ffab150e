package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-tracker/internal/handlers"
	"task-tracker/internal/metrics"
	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
	"task-tracker/internal/services"
)

const requestIDHeader = "X-Request-ID"

// RequestID はリクエストIDを払い出し、レスポンスヘッダーとコンテキストに設定します。
// クライアントが送ったIDはUUIDとして解釈できる場合だけ引き継ぎます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// maxRequestIDLength は引き継ぐリクエストIDの最大長です。UUIDの最長表記 (urn:uuid: 付き) に収まります。
const maxRequestIDLength = 128

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// AccessLog はリクエストごとに1行のアクセスログを出力します。
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", c.GetString(handlers.ContextKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id, ok := c.Get(handlers.ContextKeyUserID); ok {
			fields = append(fields, zap.Any("user_id", id))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// Recovery はpanicを回復してログに残し、500を返します。
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("request_id", c.GetString(handlers.ContextKeyRequestID)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{Success: false, Message: "Server error"})
	})
}

// Metrics はルートごとの処理時間を記録します。
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// TokenVerifier はセッショントークンを検証してユーザーIDを返します。
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// UserFinder はIDでユーザーを取得します。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionGate はCookieのセッショントークンから認証済みユーザーを解決します。
// 失敗時の振る舞いはルートの種類ごとに APIAuthMiddleware と PageAuthMiddleware が決めます。
type SessionGate struct {
	tokens  TokenVerifier
	users   UserFinder
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSessionGate は新しいSessionGateを作成します。
func NewSessionGate(tokens TokenVerifier, users UserFinder, m *metrics.Metrics, logger *zap.Logger) *SessionGate {
	return &SessionGate{tokens: tokens, users: users, metrics: m, logger: logger}
}

// errNoSession はCookieがないことを表します。
var errNoSession = errors.New("no session cookie")

// resolve はCookieからユーザーを解決します。
// 失敗理由はログにだけ残し、呼び出し側には区別を返しません。
func (g *SessionGate) resolve(c *gin.Context) (*models.User, bool) {
	user, err := g.lookup(c)
	if err != nil {
		result := "rejected"
		if !errors.Is(err, errNoSession) && !errors.Is(err, repositories.ErrUserNotFound) && !isTokenError(err) {
			result = "error"
			handlers.RequestLogger(c, g.logger).Error("session lookup failed", zap.Error(err))
		} else {
			handlers.RequestLogger(c, g.logger).Debug("unauthenticated request", zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
		g.metrics.AuthEvent("session", result)
		return nil, false
	}
	g.metrics.AuthEvent("session", "success")
	return user, true
}

func isTokenError(err error) bool {
	return errors.Is(err, services.ErrTokenExpired) ||
		errors.Is(err, services.ErrTokenMalformed) ||
		errors.Is(err, services.ErrTokenBadSignature)
}

func (g *SessionGate) lookup(c *gin.Context) (*models.User, error) {
	token, err := c.Cookie(handlers.SessionCookieName)
	if err != nil || token == "" {
		return nil, errNoSession
	}
	userID, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return g.users.FindByID(c.Request.Context(), userID)
}

// APIAuthMiddleware はAPIルート用の認証ミドルウェアです。未認証なら401のJSONを返します。
func (g *SessionGate) APIAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := g.resolve(c)
		if !ok {
			handlers.RespondUnauthenticated(c)
			return
		}
		handlers.SetCurrentUser(c, user)
		c.Next()
	}
}

// PageAuthMiddleware は画面ルート用の認証ミドルウェアです。未認証ならログイン画面へリダイレクトします。
func (g *SessionGate) PageAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := g.resolve(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		handlers.SetCurrentUser(c, user)
		c.Next()
	}
}
