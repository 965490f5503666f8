package auth

import (
	"context"
	"net/http"
	"strings"

	"library-admin/internal/apiserver/httpx"
	"library-admin/pkg/logging"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/health",
	"/metrics",
	"/ws/", // WebSocket 通过 ?token= 自行认证
}

func isPublicRoute(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware 创建 JWT 认证中间件
func Middleware(signer TokenSigner, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httpx.WriteError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			user, err := Authenticate(signer, parts[1])
			if err != nil {
				logger.WithContext(r.Context()).Debug("token rejected", "error", err.Error())
				httpx.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := WithAuthUser(r.Context(), user)
			ctx = context.WithValue(ctx, logging.UserIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate 校验令牌并返回用户身份（HTTP 中间件与 WebSocket 共用）
func Authenticate(signer TokenSigner, token string) (*AuthUser, error) {
	claims, err := signer.Parse(token)
	if err != nil {
		return nil, err
	}
	return &AuthUser{ID: claims.Subject, IsAdmin: claims.Admin()}, nil
}

// AdminOnly 管理员专属路由中间件
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil || !user.IsAdmin {
			httpx.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

// RequireUser 取当前认证用户；缺失时写 401 并返回 nil
func RequireUser(w http.ResponseWriter, r *http.Request) *AuthUser {
	user := GetAuthUser(r.Context())
	if user == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return user
}
