package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"task-tracker/internal/metrics"
	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
	"task-tracker/internal/services"
)

// SessionCookieName はセッショントークンを運ぶCookieの名前です。
const SessionCookieName = "token"

// UserHandler はサインアップ・ログイン・ログアウトを管理します。
type UserHandler struct {
	userService  *services.UserService
	jwtService   *services.JWTService
	metrics      *metrics.Metrics
	logger       *zap.Logger
	secureCookie bool
}

// NewUserHandler は新しいUserHandlerを作成します。secureCookie は本番環境でのみ true にします。
func NewUserHandler(userService *services.UserService, jwtService *services.JWTService, m *metrics.Metrics, logger *zap.Logger, secureCookie bool) *UserHandler {
	return &UserHandler{
		userService:  userService,
		jwtService:   jwtService,
		metrics:      m,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// SignupHandler はユーザー登録を処理し、成功したらセッションCookieを設定してダッシュボードへリダイレクトします。
func (h *UserHandler) SignupHandler(c *gin.Context) {
	var req models.UserSignupRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.AuthEvent("signup", "invalid")
		h.authFailure(c, "signup.html", "Sign Up", "Invalid request payload", bindingFieldErrors(err), req.Name, req.Email)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			h.metrics.AuthEvent("signup", "invalid")
			h.authFailure(c, "signup.html", "Sign Up", "Validation failed", verr.Fields, req.Name, req.Email)
		case errors.Is(err, repositories.ErrDuplicateEmail):
			h.metrics.AuthEvent("signup", "duplicate")
			h.authFailure(c, "signup.html", "Sign Up", "User already exists with this email", nil, req.Name, req.Email)
		default:
			h.metrics.AuthEvent("signup", "error")
			RequestLogger(c, h.logger).Error("signup failed", zap.Error(err))
			h.serverFailure(c, "signup.html", "Sign Up", req.Name, req.Email)
		}
		return
	}

	if !h.startSession(c, user) {
		h.serverFailure(c, "signup.html", "Sign Up", req.Name, req.Email)
		return
	}
	h.metrics.AuthEvent("signup", "success")
	RequestLogger(c, h.logger).Info("user registered", zap.Int64("user_id", user.ID))
	c.Redirect(http.StatusFound, "/dashboard")
}

// LoginHandler はユーザーログインを処理します。
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.AuthEvent("login", "invalid")
		h.authFailure(c, "login.html", "Login", "Invalid request payload", bindingFieldErrors(err), "", req.Email)
		return
	}

	user, err := h.userService.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.metrics.AuthEvent("login", "invalid_credentials")
			h.authFailure(c, "login.html", "Login", "Invalid credentials", nil, "", req.Email)
			return
		}
		h.metrics.AuthEvent("login", "error")
		RequestLogger(c, h.logger).Error("login failed", zap.Error(err))
		h.serverFailure(c, "login.html", "Login", "", req.Email)
		return
	}

	if !h.startSession(c, user) {
		h.serverFailure(c, "login.html", "Login", "", req.Email)
		return
	}
	h.metrics.AuthEvent("login", "success")
	c.Redirect(http.StatusFound, "/dashboard")
}

// LogoutHandler はセッションCookieを削除してログイン画面へリダイレクトします。
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/login")
}

func (h *UserHandler) startSession(c *gin.Context, user *models.User) bool {
	token, err := h.jwtService.Issue(user.ID)
	if err != nil {
		RequestLogger(c, h.logger).Error("failed to issue session token", zap.Error(err), zap.Int64("user_id", user.ID))
		return false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(h.jwtService.TTL().Seconds()), "/", "", h.secureCookie, true)
	return true
}

// authFailure はJSONリクエストにはJSONで、フォーム送信にはフォームを再表示して400を返します。
func (h *UserHandler) authFailure(c *gin.Context, page, title, message string, fields []services.FieldError, name, email string) {
	if c.ContentType() == binding.MIMEJSON {
		respondError(c, http.StatusBadRequest, message, fields)
		return
	}
	errs := fields
	if len(errs) == 0 {
		errs = []services.FieldError{{Message: message}}
	}
	c.HTML(http.StatusBadRequest, page, gin.H{
		"title":    title,
		"errors":   errs,
		"formData": gin.H{"name": name, "email": email},
	})
	c.Abort()
}

func (h *UserHandler) serverFailure(c *gin.Context, page, title, name, email string) {
	if c.ContentType() == binding.MIMEJSON {
		respondServerError(c)
		return
	}
	c.HTML(http.StatusInternalServerError, page, gin.H{
		"title":    title,
		"errors":   []services.FieldError{{Message: "Server error. Please try again."}},
		"formData": gin.H{"name": name, "email": email},
	})
	c.Abort()
}
