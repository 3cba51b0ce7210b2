package user

import "time"

// AuthToken is one entry on the user's active token list. Removing an entry
// revokes that session even while the token's signature still verifies.
type AuthToken struct {
	Token string `bson:"token" json:"token"`
}

type User struct {
	ID           string      `bson:"_id" json:"id"`
	Name         string      `bson:"name" json:"name"`
	Email        string      `bson:"email" json:"email"`
	PasswordHash string      `bson:"password_hash" json:"-"` // never expose hash in JSON
	Age          int         `bson:"age" json:"age"`
	Avatar       []byte      `bson:"avatar,omitempty" json:"-"`
	Tokens       []AuthToken `bson:"tokens" json:"-"`
	CreatedAt    time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `bson:"updated_at" json:"updatedAt"`
}

func (u User) HasToken(raw string) bool {
	for _, t := range u.Tokens {
		if t.Token == raw {
			return true
		}
	}

	return false
}
