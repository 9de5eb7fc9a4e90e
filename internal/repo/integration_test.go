//go:build integration

package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shaiso/loanworker/internal/domain"
)

// setupTestDB поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "loanworker_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/loanworker_test?sslmode=disable", host, port.Port())

	if err := MigrateUp(dsn, filepath.Join("..", "..", DefaultMigrationsPath)); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestTaskRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewTaskRepo(setupTestDB(t))

	task := domain.NewTaskRun(domain.TaskInput{URL: "https://forms.example.com/1.pdf"}, "key-1")
	if err := r.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := r.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.TaskStatusPending || got.Input.URL != task.Input.URL {
		t.Errorf("unexpected task: %+v", got)
	}

	byKey, err := r.GetByIdempotencyKey(ctx, "key-1")
	if err != nil || byKey.ID != task.ID {
		t.Fatalf("GetByIdempotencyKey: %v, %+v", err, byKey)
	}

	pending, err := r.ListPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPending: %v, %d", err, len(pending))
	}

	claimed, err := r.ClaimPending(ctx, task.ID)
	if err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}
	if claimed.Status != domain.TaskStatusRunning || claimed.StartedAt == nil {
		t.Errorf("claimed task not running: %+v", claimed)
	}

	if _, err := r.ClaimPending(ctx, task.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second claim = %v, want ErrInvalidState", err)
	}

	claimed.MarkSucceeded(json.RawMessage(`{"approved":true,"recommendation":"ok"}`), "ok")
	claimed.MarkEmail(domain.EmailStatusPending, "")
	if err := r.Update(ctx, claimed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := r.UpdateEmail(ctx, task.ID, domain.EmailStatusSent, ""); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}

	done, err := r.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if done.Status != domain.TaskStatusSucceeded || done.EmailStatus != domain.EmailStatusSent {
		t.Errorf("unexpected final state: %s / %s", done.Status, done.EmailStatus)
	}

	var result map[string]any
	if err := json.Unmarshal(done.Result, &result); err != nil || result["recommendation"] != "ok" {
		t.Errorf("result = %s (%v)", done.Result, err)
	}
}

func TestTaskRepo_DuplicateIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	r := NewTaskRepo(setupTestDB(t))

	first := domain.NewTaskRun(domain.TaskInput{URL: "https://forms.example.com/1.pdf"}, "dup")
	if err := r.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second := domain.NewTaskRun(domain.TaskInput{URL: "https://forms.example.com/1.pdf"}, "dup")
	if err := r.Create(ctx, second); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Create duplicate = %v, want ErrAlreadyExists", err)
	}

	// без ключа — без ограничения
	for i := 0; i < 2; i++ {
		if err := r.Create(ctx, domain.NewTaskRun(domain.TaskInput{URL: "u"}, "")); err != nil {
			t.Fatalf("Create without key: %v", err)
		}
	}
}

func TestTaskRepo_ListAndCount(t *testing.T) {
	ctx := context.Background()
	r := NewTaskRepo(setupTestDB(t))

	for i := 0; i < 3; i++ {
		task := domain.NewTaskRun(domain.TaskInput{URL: fmt.Sprintf("https://forms.example.com/%d.pdf", i)}, "")
		if err := r.Create(ctx, task); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if i == 0 {
			task.Status = domain.TaskStatusRunning
			task.MarkFailed("boom")
			if err := r.Update(ctx, task); err != nil {
				t.Fatalf("Update: %v", err)
			}
		}
	}

	all, err := r.List(ctx, TaskFilter{Limit: 10})
	if err != nil || len(all) != 3 {
		t.Fatalf("List: %v, %d", err, len(all))
	}

	failed, err := r.List(ctx, TaskFilter{Status: domain.TaskStatusFailed, Limit: 10})
	if err != nil || len(failed) != 1 || failed[0].Error != "boom" {
		t.Fatalf("List failed: %v, %+v", err, failed)
	}

	count, err := r.Count(ctx, TaskFilter{Status: domain.TaskStatusPending})
	if err != nil || count != 2 {
		t.Errorf("Count pending = %d, %v", count, err)
	}
}

func TestTaskRepo_StaleTasks(t *testing.T) {
	ctx := context.Background()
	r := NewTaskRepo(setupTestDB(t))

	task := domain.NewTaskRun(domain.TaskInput{URL: "u"}, "")
	if err := r.Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.ClaimPending(ctx, task.ID); err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}

	stale, err := r.ListStale(ctx, time.Now().Add(time.Minute))
	if err != nil || len(stale) != 1 {
		t.Fatalf("ListStale: %v, %d", err, len(stale))
	}

	fresh, err := r.ListStale(ctx, time.Now().Add(-time.Hour))
	if err != nil || len(fresh) != 0 {
		t.Fatalf("ListStale before start: %v, %d", err, len(fresh))
	}

	if err := r.FailRunning(ctx, task.ID, "stale"); err != nil {
		t.Fatalf("FailRunning: %v", err)
	}
	if err := r.FailRunning(ctx, task.ID, "stale"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second FailRunning = %v, want ErrInvalidState", err)
	}
}

func TestTaskRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewTaskRepo(setupTestDB(t))

	if _, err := r.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID = %v, want ErrNotFound", err)
	}
	if _, err := r.ClaimPending(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("ClaimPending = %v, want ErrNotFound", err)
	}
	if err := r.UpdateEmail(ctx, uuid.New(), domain.EmailStatusSent, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateEmail = %v, want ErrNotFound", err)
	}
}
