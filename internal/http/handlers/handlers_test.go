package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	apihttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/notifications"
	"github.com/geocoder89/taskhub/internal/repo/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingNotifier captures account emails so tests can assert on the
// fire-and-forget sends.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	wake chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{wake: make(chan struct{}, 16)}
}

func (r *recordingNotifier) record(kind string) {
	r.mu.Lock()
	r.sent = append(r.sent, kind)
	r.mu.Unlock()
	r.wake <- struct{}{}
}

func (r *recordingNotifier) SendWelcome(context.Context, notifications.AccountEmailInput) error {
	r.record("welcome")
	return nil
}

func (r *recordingNotifier) SendCancellation(context.Context, notifications.AccountEmailInput) error {
	r.record("cancellation")
	return nil
}

func (r *recordingNotifier) waitFor(t *testing.T, kind string) {
	t.Helper()

	deadline := time.After(2 * time.Second)

	for {
		r.mu.Lock()
		for _, got := range r.sent {
			if got == kind {
				r.mu.Unlock()
				return
			}
		}
		r.mu.Unlock()

		select {
		case <-r.wake:
		case <-deadline:
			t.Fatalf("no %q email sent", kind)
		}
	}
}

type testEnv struct {
	router   *gin.Engine
	users    *memory.UsersRepo
	tasks    *memory.TasksRepo
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := memory.NewUsersRepo()
	tasks := memory.NewTasksRepo()
	notifier := newRecordingNotifier()
	jwtManager := auth.NewManager("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := apihttp.NewRouter(apihttp.Deps{
		Cfg: config.Config{Env: "test"},

		Users:   handlers.NewUsers(users, tasks, jwtManager, notifier, logger),
		Avatars: handlers.NewAvatars(users, cache.New(time.Minute), nil),
		Tasks:   handlers.NewTasks(tasks),
		Uploads: handlers.NewUploads(nil),

		Auth: middlewares.NewAuthMiddleware(jwtManager, users),
	})

	return &testEnv{router: router, users: users, tasks: tasks, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

// register creates a user through the API and returns its id and token.
func (e *testEnv) register(t *testing.T, name, email string) (id, token string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/users", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "correct-horse",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: got %d, body %s", email, rec.Code, rec.Body.String())
	}

	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	return body.User.ID, body.Token
}
