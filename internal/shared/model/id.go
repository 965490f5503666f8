package model

import "github.com/google/uuid"

// ID 前缀
const (
	IDPrefixUser         = "usr-"
	IDPrefixBook         = "book-"
	IDPrefixReservation  = "rsv-"
	IDPrefixNotification = "ntf-"
)

// NewID 生成带前缀的实体 ID
func NewID(prefix string) string {
	return prefix + uuid.NewString()
}
