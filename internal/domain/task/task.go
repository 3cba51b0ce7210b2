package task

import "time"

type Task struct {
	ID          string    `bson:"_id" json:"id"`
	OwnerID     string    `bson:"owner" json:"owner"`
	Description string    `bson:"description" json:"description"`
	Completed   bool      `bson:"completed" json:"completed"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// ListFilter narrows GET /tasks. Nil fields mean "no constraint".
type ListFilter struct {
	Completed *bool
	Limit     int
	Skip      int
	SortDesc  bool
}
