package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/mongodb"
)

// UsersRepo is a map-backed stand-in for the Mongo users collection, used by
// integration tests and DB-less local runs. It mirrors the Mongo repo's
// behavior, including last-writer-wins saves.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == u.Email {
			return mongodb.ErrEmailTaken
		}
	}

	r.items[u.ID] = cloneUser(u)
	return nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}

	return user.User{}, mongodb.ErrUserNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, mongodb.ErrUserNotFound
	}

	return cloneUser(u), nil
}

func (r *UsersRepo) GetByIDAndToken(_ context.Context, id, token string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok || !u.HasToken(token) {
		return user.User{}, mongodb.ErrUserNotFound
	}

	return cloneUser(u), nil
}

func (r *UsersRepo) Save(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return mongodb.ErrUserNotFound
	}

	for id, existing := range r.items {
		if id != u.ID && existing.Email == u.Email {
			return mongodb.ErrEmailTaken
		}
	}

	r.items[u.ID] = cloneUser(u)
	return nil
}

func (r *UsersRepo) PushToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return mongodb.ErrUserNotFound
	}

	u.Tokens = append(u.Tokens, user.AuthToken{Token: token})
	r.items[id] = u
	return nil
}

func (r *UsersRepo) PullToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return mongodb.ErrUserNotFound
	}

	kept := u.Tokens[:0]

	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}

	u.Tokens = kept
	r.items[id] = u
	return nil
}

func (r *UsersRepo) ClearTokens(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return mongodb.ErrUserNotFound
	}

	u.Tokens = []user.AuthToken{}
	r.items[id] = u
	return nil
}

func (r *UsersRepo) SetAvatar(_ context.Context, id string, png []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return mongodb.ErrUserNotFound
	}

	u.Avatar = append([]byte(nil), png...)
	r.items[id] = u
	return nil
}

func (r *UsersRepo) UnsetAvatar(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return mongodb.ErrUserNotFound
	}

	u.Avatar = nil
	r.items[id] = u
	return nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return mongodb.ErrUserNotFound
	}

	delete(r.items, id)
	return nil
}

func cloneUser(u user.User) user.User {
	u.Tokens = append([]user.AuthToken(nil), u.Tokens...)
	u.Avatar = append([]byte(nil), u.Avatar...)
	return u
}
