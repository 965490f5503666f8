// Package memstore 实现基于内存的 PersistentStore
//
// 用于单元测试和无外部依赖的本地调试。每个实体以值拷贝保存，
// 读写都在同一把锁内完成，语义上等价于文档库的单文档原子操作。
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu            sync.RWMutex
	users         map[string]model.User
	books         map[string]model.Book
	reservations  map[string]model.Reservation
	notifications map[string]model.Notification

	// 插入序号，用于同一时间戳下的稳定排序
	seq   int64
	order map[string]int64
}

var _ storage.PersistentStore = (*Store)(nil)

// New 创建内存存储
func New() *Store {
	return &Store{
		users:         make(map[string]model.User),
		books:         make(map[string]model.Book),
		reservations:  make(map[string]model.Reservation),
		notifications: make(map[string]model.Notification),
		order:         make(map[string]int64),
	}
}

// Close 无资源需要释放
func (s *Store) Close() error {
	return nil
}

func (s *Store) nextSeq(id string) {
	s.seq++
	s.order[id] = s.seq
}

// newerFirst 按 CreatedAt 倒序，时间相同按插入顺序倒序
func (s *Store) newerFirst(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return s.order[aID] > s.order[bID]
}

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return storage.ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	s.nextSeq(user.ID)
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter) ([]*model.User, error) {
	return s.listUsers(func(u *model.User) bool {
		return !filter.PendingOnly || !u.IsApproved
	}), nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]*model.User, error) {
	return s.listUsers(func(u *model.User) bool { return u.IsAdmin }), nil
}

func (s *Store) listUsers(keep func(*model.User) bool) []*model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []*model.User{}
	for _, u := range s.users {
		u := u
		if keep(&u) {
			users = append(users, &u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return s.newerFirst(users[i].ID, users[i].CreatedAt, users[j].ID, users[j].CreatedAt)
	})
	return users
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, update model.UserProfileUpdate) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.PhoneNumber != nil {
		u.PhoneNumber = *update.PhoneNumber
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return &u, nil
}

func (s *Store) ApproveUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u.IsApproved = true
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return &u, nil
}

// ============================================================================
// BookStore
// ============================================================================

func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ID]; ok {
		return storage.ErrDuplicate
	}
	s.books[book.ID] = *book
	s.nextSeq(book.ID)
	return nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &b, nil
}

func (s *Store) ListBooks(ctx context.Context) ([]*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*model.Book, 0, len(s.books))
	for _, b := range s.books {
		b := b
		books = append(books, &b)
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].Title < books[j].Title
	})
	return books, nil
}

// ============================================================================
// ReservationStore
// ============================================================================

func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[r.ID]; ok {
		return storage.ErrDuplicate
	}
	s.reservations[r.ID] = *r
	s.nextSeq(r.ID)
	return nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

func (s *Store) GetReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.resolve(r), nil
}

func (s *Store) ListReservationDetails(ctx context.Context, userID string) ([]*model.ReservationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	details := []*model.ReservationDetail{}
	for _, r := range s.reservations {
		if userID != "" && r.UserID != userID {
			continue
		}
		details = append(details, s.resolve(r))
	}
	sort.Slice(details, func(i, j int) bool {
		return s.newerFirst(details[i].ID, details[i].CreatedAt, details[j].ID, details[j].CreatedAt)
	})
	return details, nil
}

// resolve 调用方需持有读锁
func (s *Store) resolve(r model.Reservation) *model.ReservationDetail {
	d := &model.ReservationDetail{Reservation: r}
	if u, ok := s.users[r.UserID]; ok {
		d.User = u.Summary()
	}
	if b, ok := s.books[r.BookID]; ok {
		b := b
		d.Book = &b
	}
	return d
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	s.reservations[id] = r
	return &r, nil
}

// ============================================================================
// NotificationStore
// ============================================================================

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[n.ID]; ok {
		return storage.ErrDuplicate
	}
	s.notifications[n.ID] = *n
	s.nextSeq(n.ID)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := []*model.Notification{}
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		n := n
		list = append(list, &n)
	}
	sort.Slice(list, func(i, j int) bool {
		return s.newerFirst(list[i].ID, list[i].CreatedAt, list[j].ID, list[j].CreatedAt)
	})
	return list, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}
