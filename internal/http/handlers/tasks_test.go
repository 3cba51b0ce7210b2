package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

func taskListAll() task.ListFilter {
	return task.ListFilter{}
}

func createTask(t *testing.T, env *testEnv, token, description string, completed bool) task.Task {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/tasks", token, gin.H{
		"description": description,
		"completed":   completed,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: got %d, body %s", rec.Code, rec.Body.String())
	}

	var created task.Task

	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode task: %v", err)
	}

	return created
}

func listTasks(t *testing.T, env *testEnv, token, query string) []task.Task {
	t.Helper()

	rec := env.do(t, http.MethodGet, "/tasks"+query, token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("list tasks: got %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Items []task.Task `json:"items"`
		Count int         `json:"count"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}

	if body.Count != len(body.Items) {
		t.Fatalf("count is %d for %d items", body.Count, len(body.Items))
	}

	return body.Items
}

func TestCreateTaskBelongsToCreator(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.register(t, "Mike", "mike@example.com")

	created := createTask(t, env, token, "buy milk", false)

	if created.OwnerID != id {
		t.Fatalf("owner is %q, want %q", created.OwnerID, id)
	}

	if created.Completed {
		t.Fatal("new task should not be completed")
	}
}

func TestCreateTaskRequiresDescription(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Mike", "mike@example.com")

	rec := env.do(t, http.MethodPost, "/tasks", token, gin.H{"completed": true})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestListTasksFilters(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Mike", "mike@example.com")

	createTask(t, env, token, "first", false)
	createTask(t, env, token, "second", true)
	createTask(t, env, token, "third", true)

	if got := listTasks(t, env, token, ""); len(got) != 3 {
		t.Fatalf("unfiltered list has %d tasks, want 3", len(got))
	}

	completed := listTasks(t, env, token, "?completed=true")

	if len(completed) != 2 {
		t.Fatalf("completed filter returned %d tasks, want 2", len(completed))
	}

	for _, item := range completed {
		if !item.Completed {
			t.Fatalf("incomplete task %q in completed list", item.Description)
		}
	}

	if got := listTasks(t, env, token, "?completed=false"); len(got) != 1 {
		t.Fatalf("incomplete filter returned %d tasks, want 1", len(got))
	}
}

func TestListTasksPaginationAndSort(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Mike", "mike@example.com")

	for _, description := range []string{"a", "b", "c", "d"} {
		createTask(t, env, token, description, false)
	}

	asc := listTasks(t, env, token, "?sortBy=createdAt:asc")
	desc := listTasks(t, env, token, "?sortBy=createdAt:desc")

	if len(asc) != 4 || len(desc) != 4 {
		t.Fatalf("got %d and %d tasks, want 4 each", len(asc), len(desc))
	}

	for i := range asc {
		if asc[i].ID != desc[len(desc)-1-i].ID {
			t.Fatal("desc order is not the reverse of asc order")
		}
	}

	page := listTasks(t, env, token, "?sortBy=createdAt:asc&limit=2&skip=1")

	if len(page) != 2 {
		t.Fatalf("page has %d tasks, want 2", len(page))
	}

	if page[0].ID != asc[1].ID || page[1].ID != asc[2].ID {
		t.Fatal("skip/limit window mismatch")
	}
}

func TestListTasksRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Mike", "mike@example.com")

	for _, query := range []string{"?completed=maybe", "?limit=-1", "?skip=x", "?sortBy=updatedAt:asc"} {
		rec := env.do(t, http.MethodGet, "/tasks"+query, token, nil)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", query, rec.Code)
		}
	}
}

func TestTaskAccessIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.register(t, "Mike", "mike@example.com")
	_, otherToken := env.register(t, "Eve", "eve@example.com")

	created := createTask(t, env, ownerToken, "secret errand", false)

	// a foreign task reads as missing, not as forbidden
	if rec := env.do(t, http.MethodGet, "/tasks/"+created.ID, otherToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign GET: got %d, want 404", rec.Code)
	}

	if rec := env.do(t, http.MethodPatch, "/tasks/"+created.ID, otherToken, gin.H{"completed": true}); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign PATCH: got %d, want 404", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/tasks/"+created.ID, otherToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign DELETE: got %d, want 404", rec.Code)
	}

	if rec := env.do(t, http.MethodGet, "/tasks/"+created.ID, ownerToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("owner GET: got %d", rec.Code)
	}
}

func TestUpdateTaskWhitelist(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.register(t, "Mike", "mike@example.com")

	created := createTask(t, env, token, "buy milk", false)

	if rec := env.do(t, http.MethodPatch, "/tasks/"+created.ID, token, gin.H{"owner": "someone-else"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("owner field accepted: %d", rec.Code)
	}

	rec := env.do(t, http.MethodPatch, "/tasks/"+created.ID, token, gin.H{"completed": true})

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, body %s", rec.Code, rec.Body.String())
	}

	stored, err := env.tasks.GetByID(context.Background(), id, created.ID)

	if err != nil {
		t.Fatalf("load task: %v", err)
	}

	if !stored.Completed {
		t.Fatal("update not applied")
	}
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Mike", "mike@example.com")

	created := createTask(t, env, token, "buy milk", false)

	rec := env.do(t, http.MethodDelete, "/tasks/"+created.ID, token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d", rec.Code)
	}

	var deleted task.Task

	if err := json.Unmarshal(rec.Body.Bytes(), &deleted); err != nil {
		t.Fatalf("decode deleted task: %v", err)
	}

	if deleted.ID != created.ID {
		t.Fatalf("echoed task %q, want %q", deleted.ID, created.ID)
	}

	if rec := env.do(t, http.MethodGet, "/tasks/"+created.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted task still readable: %d", rec.Code)
	}
}
