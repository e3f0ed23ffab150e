package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-tracker/internal/models"
)

// gin.Context に保存するキーです。
const (
	ContextKeyUser      = "user"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
)

// SetCurrentUser は認証済みユーザーをコンテキストに設定します。
func SetCurrentUser(c *gin.Context, u *models.User) {
	c.Set(ContextKeyUser, u)
	c.Set(ContextKeyUserID, u.ID)
}

// CurrentUser はコンテキストから認証済みユーザーを取得します。
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// RequestLogger はリクエストIDを付けたロガーを返します。
func RequestLogger(c *gin.Context, base *zap.Logger) *zap.Logger {
	if id := c.GetString(ContextKeyRequestID); id != "" {
		return base.With(zap.String("request_id", id))
	}
	return base
}
