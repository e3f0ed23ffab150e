// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"task-tracker/internal/models"
)

// mysqlErrDuplicateEntry はユニーク制約違反 (ER_DUP_ENTRY) のエラーコードです。
const mysqlErrDuplicateEntry = 1062

var (
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrUserNotFound   = errors.New("user not found")
)

// UserRepository はユーザーの永続化を行うための構造体です。
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository は新しいUserRepositoryインスタンスを作成します。
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create は新しいユーザーをデータベースに挿入します。
// メールアドレスの一意性はユニークインデックスで保証し、重複時は ErrDuplicateEmail を返します。
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := "INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)"
	result, err := r.DB.ExecContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("could not insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	u.ID = id
	return u, nil
}

// FindByEmail はメールアドレスでユーザーを検索します。パスワードハッシュを含みます。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?"
	var u models.User
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user by email: %w", err)
	}
	return &u, nil
}

// FindByID はIDでユーザーを検索します。パスワードハッシュは読み込みません。
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT id, name, email, created_at FROM users WHERE id = ?"
	var u models.User
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user by id: %w", err)
	}
	return &u, nil
}
