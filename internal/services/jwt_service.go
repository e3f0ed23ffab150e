package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はセッショントークンのデフォルト有効期間 (7日) です。
const DefaultTokenTTL = 7 * 24 * time.Hour

// トークン検証の失敗理由です。境界では一律「未認証」として扱い、ログとテストでのみ区別します。
var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
)

// Claims はセッショントークンのクレームです。
type Claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// JWTService はセッショントークンの生成と検証を扱います。
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService は新しいJWTServiceを作成します。ttl が0以下ならデフォルトを使います。
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL はトークンの有効期間を返します。Cookieの有効期限に合わせるために使います。
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// Issue はユーザーIDを含む署名付きトークンを生成します。
func (s *JWTService) Issue(userID int64) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// Verify はトークンを検証し、ユーザーIDを返します。
// 失敗時は ErrTokenExpired / ErrTokenMalformed / ErrTokenBadSignature のいずれかを返します。
func (s *JWTService) Verify(tokenString string) (int64, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing user id", ErrTokenMalformed)
	}
	return claims.UserID, nil
}
