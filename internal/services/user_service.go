package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
)

// users テーブルの列幅とbcryptの入力上限です。
const (
	maxNameLength     = 255
	maxEmailLength    = 255
	minPasswordLength = 6
	maxPasswordBytes  = 72
)

// UserStore はUserServiceが必要とするユーザーの永続化操作です。
type UserStore interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// UserService はユーザー登録と認証のビジネスロジックを扱います。
type UserService struct {
	users UserStore
	now   func() time.Time
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: time.Now}
}

// NormalizeEmail は比較と保存に使う正規化済みのメールアドレスを返します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register はユーザーを登録します。
// 同じメールアドレスが既にあれば repositories.ErrDuplicateEmail を返し、レコードは作りません。
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	verr := &ValidationError{}
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		verr.add("name", "Name is required")
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.add("name", fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	}
	email = NormalizeEmail(email)
	switch {
	case email == "":
		verr.add("email", "Valid email is required")
	case utf8.RuneCountInString(email) > maxEmailLength:
		verr.add("email", fmt.Sprintf("Email must be at most %d characters", maxEmailLength))
	}
	switch {
	case len(password) < minPasswordLength:
		verr.add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	case len(password) > maxPasswordBytes:
		// bcrypt は72バイトを超える入力を受け付けない
		verr.add("password", fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	created.PasswordHash = "" // レスポンスにパスワードを含めない
	return created, nil
}

// Verify はメールアドレスとパスワードを照合し、成功したらユーザーを返します。
func (s *UserService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	found, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			burnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !VerifyPassword(found.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	found.PasswordHash = ""
	return found, nil
}

// FindByID はIDでユーザーを取得します。ユーザーが存在しなければ repositories.ErrUserNotFound を返します。
func (s *UserService) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}
