package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher 密码哈希接口
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

// BcryptHasher bcrypt 实现
type BcryptHasher struct {
	Cost int
}

var _ PasswordHasher = BcryptHasher{}

// NewBcryptHasher 创建哈希器，cost 为 0 时使用 12
func NewBcryptHasher(cost int) BcryptHasher {
	if cost == 0 {
		cost = 12
	}
	return BcryptHasher{Cost: cost}
}

// Hash 使用 bcrypt 哈希密码
func (h BcryptHasher) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	return string(bytes), err
}

// Compare 验证密码
func (h BcryptHasher) Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
