// Package auth 用户认证：JWT 令牌签发、密码哈希、注册/登录、HTTP 中间件
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// AuthUser 从 JWT 解析出的用户信息
type AuthUser struct {
	ID      string
	IsAdmin bool
}

// Config 认证配置
type Config struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
}

// DefaultConfig 返回默认认证配置
func DefaultConfig(secret string) Config {
	return Config{
		JWTSecret:      secret,
		AccessTokenTTL: 24 * time.Hour,
	}
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
//
// 注册签发的令牌只含 sub；登录签发的令牌额外带 is_admin。
type Claims struct {
	jwt.RegisteredClaims
	IsAdmin *bool `json:"is_admin,omitempty"`
}

// Admin 令牌是否声明了管理员身份
func (c *Claims) Admin() bool {
	return c.IsAdmin != nil && *c.IsAdmin
}

// ErrSigning 令牌签发失败
var ErrSigning = errors.New("token signing failed")

// TokenSigner 令牌签发/校验接口
type TokenSigner interface {
	Sign(claims Claims) (string, error)
	Parse(token string) (*Claims, error)
}

// JWTSigner HS256 实现
type JWTSigner struct {
	cfg Config
	now func() time.Time
}

var _ TokenSigner = (*JWTSigner)(nil)

// NewJWTSigner 创建签发器
func NewJWTSigner(cfg Config) *JWTSigner {
	return &JWTSigner{cfg: cfg, now: time.Now}
}

// Sign 签发访问令牌，自动填充签发时间与过期时间
func (s *JWTSigner) Sign(claims Claims) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", fmt.Errorf("%w: empty secret", ErrSigning)
	}
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Parse 解析并验证 JWT
func (s *JWTSigner) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithAuthUser 将认证用户信息注入 context
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetAuthUser 从 context 获取认证用户
func GetAuthUser(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return user
}
