package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dekarrin/phrasegen/server/dao"
	"github.com/google/uuid"
)

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{
		users:           make(map[uuid.UUID]dao.User),
		byUsernameIndex: make(map[string]uuid.UUID),
	}
}

// UsersRepository is a dao.UserRepository backed by maps guarded by a
// mutex; unlike a single-threaded CLI tool, a server fields concurrent
// requests by construction and so needs real synchronization here.
type UsersRepository struct {
	mu              sync.RWMutex
	users           map[uuid.UUID]dao.User
	byUsernameIndex map[string]uuid.UUID
}

func (r *UsersRepository) Close() error {
	return nil
}

func (r *UsersRepository) Create(ctx context.Context, user dao.User) (dao.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}
	user.ID = newUUID

	if _, ok := r.byUsernameIndex[user.Username]; ok {
		return dao.User{}, dao.ErrConstraintViolation
	}

	user.Created = time.Now()
	user.LastLogoutTime = time.Now()

	r.users[user.ID] = user
	r.byUsernameIndex[user.Username] = user.ID

	return user, nil
}

func (r *UsersRepository) GetAll(ctx context.Context) ([]dao.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]dao.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (r *UsersRepository) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}

	if user.Username != existing.Username {
		if _, ok := r.byUsernameIndex[user.Username]; ok {
			return dao.User{}, dao.ErrConstraintViolation
		}
	}

	user.Modified = time.Now()
	r.users[user.ID] = user
	delete(r.byUsernameIndex, existing.Username)
	r.byUsernameIndex[user.Username] = user.ID
	if user.ID != id {
		delete(r.users, id)
	}

	return user, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return user, nil
}

func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsernameIndex[username]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return r.users[id], nil
}

func (r *UsersRepository) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}

	delete(r.byUsernameIndex, user.Username)
	delete(r.users, user.ID)

	return user, nil
}
