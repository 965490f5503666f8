package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"library-admin/internal/apiserver/metrics"
	"library-admin/internal/shared/apperr"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
	"library-admin/pkg/logging"
)

// 密码长度限制；bcrypt 只接受不超过 72 字节的输入
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// 邮箱不存在时用于比对的固定明文，使两种失败路径耗时一致
const dummyPassword = "library-admin-dummy-password"

// 登录失败统一消息，不区分邮箱不存在与密码错误
const invalidCredentialsMessage = "invalid email or password"

// Notifier 管理员通知接口（由 notification.Dispatcher 实现）
type Notifier interface {
	NotifyAdmins(ctx context.Context, message string, notificationType model.NotificationType)
}

// RegisterInput 注册参数
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// RegisterResult 注册结果
type RegisterResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

// Service 注册/登录业务
type Service struct {
	users    storage.UserStore
	signer   TokenSigner
	hasher   PasswordHasher
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewService 创建认证服务
func NewService(users storage.UserStore, signer TokenSigner, hasher PasswordHasher, notifier Notifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		users:    users,
		signer:   signer,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetrics 设置指标
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Register 注册新用户（未审批、非管理员），通知所有管理员并签发令牌
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.InvalidInput("name, email, password are required")
	}
	if !isValidEmail(in.Email) {
		return nil, apperr.InvalidInput("invalid email format")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	// 检查邮箱是否已注册；唯一索引兜底并发注册
	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("email already registered")
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperr.Unexpected("check email", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Unexpected("hash password", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           model.NewID(model.IDPrefixUser),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		PhoneNumber:  in.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 先签发令牌：签发失败时不落库、不通知
	token, err := s.signer.Sign(Claims{RegisteredClaims: subject(user.ID)})
	if err != nil {
		return nil, apperr.Unexpected("sign token", err)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Unexpected("create user", err)
	}

	s.logger.WithUserID(user.ID).Info("user registered")
	s.metrics.RecordRegistration()

	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, "New user registered: "+user.Name, model.NotificationTypeNewUser)
	}

	return &RegisterResult{Token: token, UserID: user.ID}, nil
}

// Login 校验凭据并签发带管理员标记的令牌
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.compareDummy(password)
			s.metrics.RecordLogin("invalid_credentials")
			return nil, apperr.InvalidCredentials(invalidCredentialsMessage)
		}
		s.metrics.RecordLogin("error")
		return nil, apperr.Unexpected("find user", err)
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		s.metrics.RecordLogin("invalid_credentials")
		return nil, apperr.InvalidCredentials(invalidCredentialsMessage)
	}

	if !user.IsApproved {
		s.metrics.RecordLogin("pending_approval")
		return nil, apperr.PendingApproval("account is pending admin approval")
	}

	isAdmin := user.IsAdmin
	token, err := s.signer.Sign(Claims{RegisteredClaims: subject(user.ID), IsAdmin: &isAdmin})
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, apperr.Unexpected("sign token", err)
	}

	s.metrics.RecordLogin("success")
	return &LoginResult{Token: token, IsAdmin: user.IsAdmin}, nil
}

// EnsureAdminUser 启动时确保管理员账号存在（已审批的管理员）
func (s *Service) EnsureAdminUser(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non-admin user", "email", email, "user_id", existing.ID)
		}
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check admin user: %w", err)
	}
	if err := validatePassword(password); err != nil {
		return fmt.Errorf("admin password: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           model.NewID(model.IDPrefixUser),
		Name:         "Admin",
		Email:        email,
		PasswordHash: hash,
		IsApproved:   true,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// 多实例同时启动时可能已被其他实例创建
		if errors.Is(err, storage.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create admin user: %w", err)
	}
	s.logger.Info("created admin user", "email", email, "user_id", user.ID)
	return nil
}

// compareDummy 对固定摘要执行一次比对，结果丢弃
func (s *Service) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password digest", "error", err)
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest != "" {
		_ = s.hasher.Compare(password, s.dummyDigest)
	}
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperr.InvalidInput(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return apperr.InvalidInput(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

func subject(userID string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: userID}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
