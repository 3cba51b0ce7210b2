package mongodb

import (
	"context"
	"errors"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

type UsersRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

// NewUsersRepo wires the users collection. prom may be nil (tests).
func NewUsersRepo(database *mongo.Database, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		coll: database.Collection("users"),
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.observe("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, u)
		return err
	})

	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}

	return err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// GetByIDAndToken resolves a bearer token to its user: the id must match AND
// the raw token must still be on the user's active token list. A signed
// token that has been logged out resolves to nothing.
func (r *UsersRepo) GetByIDAndToken(ctx context.Context, id, token string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id_and_token", func() error {
		return r.coll.FindOne(ctx, bson.M{
			"_id":          id,
			"tokens.token": token,
		}).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// Save replaces the whole document. No optimistic-concurrency check is made
// across the read-modify-write gap: the later of two concurrent saves wins.
func (r *UsersRepo) Save(ctx context.Context, u user.User) error {
	return r.observe("users.save", func() error {
		res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)

		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrEmailTaken
			}

			return err
		}

		if res.MatchedCount == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

func (r *UsersRepo) PushToken(ctx context.Context, id, token string) error {
	return r.observe("users.push_token", func() error {
		_, err := r.coll.UpdateByID(ctx, id, bson.M{
			"$push": bson.M{"tokens": user.AuthToken{Token: token}},
		})
		return err
	})
}

func (r *UsersRepo) PullToken(ctx context.Context, id, token string) error {
	return r.observe("users.pull_token", func() error {
		_, err := r.coll.UpdateByID(ctx, id, bson.M{
			"$pull": bson.M{"tokens": bson.M{"token": token}},
		})
		return err
	})
}

func (r *UsersRepo) ClearTokens(ctx context.Context, id string) error {
	return r.observe("users.clear_tokens", func() error {
		_, err := r.coll.UpdateByID(ctx, id, bson.M{
			"$set": bson.M{"tokens": []user.AuthToken{}},
		})
		return err
	})
}

func (r *UsersRepo) SetAvatar(ctx context.Context, id string, png []byte) error {
	return r.observe("users.set_avatar", func() error {
		_, err := r.coll.UpdateByID(ctx, id, bson.M{
			"$set": bson.M{"avatar": png},
		})
		return err
	})
}

func (r *UsersRepo) UnsetAvatar(ctx context.Context, id string) error {
	return r.observe("users.unset_avatar", func() error {
		_, err := r.coll.UpdateByID(ctx, id, bson.M{
			"$unset": bson.M{"avatar": ""},
		})
		return err
	})
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("users.delete", func() error {
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})

		if err != nil {
			return err
		}

		if res.DeletedCount == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}
