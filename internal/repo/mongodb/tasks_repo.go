package mongodb

import (
	"context"
	"errors"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrTaskNotFound = errors.New("task not found")

type TasksRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewTasksRepo(database *mongo.Database, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		coll: database.Collection("tasks"),
		prom: prom,
	}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) error {
	return r.observe("tasks.create", func() error {
		_, err := r.coll.InsertOne(ctx, t)
		return err
	})
}

// GetByID scopes the lookup to the owner so another user's task id behaves
// exactly like a missing one.
func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id, "owner": ownerID}).Decode(&t)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return task.Task{}, ErrTaskNotFound
		}

		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	query := bson.M{"owner": ownerID}

	if filter.Completed != nil {
		query["completed"] = *filter.Completed
	}

	sortDir := 1
	if filter.SortDesc {
		sortDir = -1
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: sortDir}})

	if filter.Skip > 0 {
		opts.SetSkip(int64(filter.Skip))
	}

	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	tasks := []task.Task{}

	err := r.observe("tasks.list", func() error {
		cur, err := r.coll.Find(ctx, query, opts)

		if err != nil {
			return err
		}

		return cur.All(ctx, &tasks)
	})

	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Save replaces the whole document; last writer wins.
func (r *TasksRepo) Save(ctx context.Context, t task.Task) error {
	return r.observe("tasks.save", func() error {
		res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": t.ID, "owner": t.OwnerID}, t)

		if err != nil {
			return err
		}

		if res.MatchedCount == 0 {
			return ErrTaskNotFound
		}

		return nil
	})
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	return r.observe("tasks.delete", func() error {
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "owner": ownerID})

		if err != nil {
			return err
		}

		if res.DeletedCount == 0 {
			return ErrTaskNotFound
		}

		return nil
	})
}

// DeleteByOwner removes every task owned by the user; used when the account
// itself is removed.
func (r *TasksRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	return r.observe("tasks.delete_by_owner", func() error {
		_, err := r.coll.DeleteMany(ctx, bson.M{"owner": ownerID})
		return err
	})
}
