package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/repo/mongodb"
)

type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) error {
	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return nil
}

func (r *TasksRepo) GetByID(_ context.Context, ownerID, id string) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]

	if !ok || t.OwnerID != ownerID {
		return task.Task{}, mongodb.ErrTaskNotFound
	}

	return t, nil
}

func (r *TasksRepo) List(_ context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	r.mu.RLock()

	out := make([]task.Task, 0)

	for _, t := range r.items {
		if t.OwnerID != ownerID {
			continue
		}

		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}

		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if filter.SortDesc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(out) {
			return []task.Task{}, nil
		}

		out = out[filter.Skip:]
	}

	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (r *TasksRepo) Save(_ context.Context, t task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[t.ID]

	if !ok || existing.OwnerID != t.OwnerID {
		return mongodb.ErrTaskNotFound
	}

	r.items[t.ID] = t
	return nil
}

func (r *TasksRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]

	if !ok || t.OwnerID != ownerID {
		return mongodb.ErrTaskNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *TasksRepo) DeleteByOwner(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.items {
		if t.OwnerID == ownerID {
			delete(r.items, id)
		}
	}

	return nil
}
